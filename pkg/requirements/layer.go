package requirements

import (
	"fmt"
	"strings"
)

// Layer partitions the requirements matrix by where an interceptor is installed.
type Layer string

// Known layers.
const (
	LayerRepository Layer = "repository"
	LayerService    Layer = "service"
	LayerAPI        Layer = "api"
)

// Layers returns every known layer.
func Layers() []Layer {
	return []Layer{LayerRepository, LayerService, LayerAPI}
}

// Valid reports whether l is one of the known layers.
func (l Layer) Valid() bool {
	switch l {
	case LayerRepository, LayerService, LayerAPI:
		return true
	}
	return false
}

func (l Layer) String() string {
	return string(l)
}

// ParseLayer converts s into a known Layer.
func ParseLayer(s string) (Layer, error) {
	l := Layer(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLayer, s)
	}
	return l, nil
}
