package feature

import "errors"

// Predefined errors for the feature package.
var (
	// ErrFlagNotFound indicates that the flag is registered but has no persisted record.
	ErrFlagNotFound = errors.New("feature flag not found")

	// ErrUnknownFlag indicates that the flag name is not registered in the directory.
	// It is always a configuration defect.
	ErrUnknownFlag = errors.New("unknown feature flag")

	// ErrDuplicateFlag indicates an attempt to register the same flag name twice.
	ErrDuplicateFlag = errors.New("feature flag already registered")

	// ErrFlagExists indicates that a storage backend already holds a record with the name.
	ErrFlagExists = errors.New("feature flag already exists")

	// ErrInvalidFlag indicates that the provided flag parameters are invalid.
	ErrInvalidFlag = errors.New("invalid feature flag parameters")

	// ErrInvalidDefinitions indicates that a flag definitions document cannot be decoded.
	ErrInvalidDefinitions = errors.New("invalid feature flag definitions")

	// ErrStorageFailure wraps unexpected backend errors.
	ErrStorageFailure = errors.New("feature flag storage failure")
)
