package featureapi

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/featuregate/pkg/enforce"
	"github.com/dmitrymomot/featuregate/pkg/feature"
	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

// ErrBadRequest indicates a request body or parameter that cannot be used.
var ErrBadRequest = errors.New("bad request")

// statusFor maps domain errors to HTTP status codes. The boolean reports
// whether the error message is safe to expose to the client.
func statusFor(err error) (int, bool) {
	// A matrix naming an unregistered flag also matches feature.ErrUnknownFlag;
	// it is a broken policy, not a missing resource.
	switch {
	case errors.Is(err, requirements.ErrMalformedRequirements):
		return http.StatusInternalServerError, true
	case errors.Is(err, requirements.ErrSourceUnavailable):
		return http.StatusServiceUnavailable, false
	case errors.Is(err, feature.ErrUnknownFlag), errors.Is(err, feature.ErrFlagNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, feature.ErrInvalidFlag),
		errors.Is(err, requirements.ErrInvalidLayer):
		return http.StatusBadRequest, true
	case errors.Is(err, enforce.ErrFeatureDisabled):
		return http.StatusForbidden, true
	default:
		return http.StatusInternalServerError, false
	}
}
