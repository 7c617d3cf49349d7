package enforce

import "github.com/dmitrymomot/featuregate/pkg/requirements"

// Layer is re-exported so that callers wiring interceptors need only this package.
type Layer = requirements.Layer

const (
	LayerRepository = requirements.LayerRepository
	LayerService    = requirements.LayerService
	LayerAPI        = requirements.LayerAPI
)
