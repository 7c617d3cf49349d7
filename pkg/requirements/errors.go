package requirements

import "errors"

var (
	// ErrMalformedRequirements indicates that the requirements matrix cannot be parsed
	// or references flags, layers or subtypes that are not valid.
	ErrMalformedRequirements = errors.New("malformed feature requirements")

	// ErrInvalidLayer indicates an unknown layer identifier.
	ErrInvalidLayer = errors.New("invalid layer")

	// ErrSourceUnavailable indicates that the configuration source failed to load.
	ErrSourceUnavailable = errors.New("feature requirements source unavailable")
)
