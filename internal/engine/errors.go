package engine

import "errors"

var (
	// ErrNoSessionID indicates a rollback was requested without a session id.
	ErrNoSessionID = errors.New("a backup session id is required")

	// ErrFinalValidation wraps a failure of the final build, which invalidates
	// the whole run.
	ErrFinalValidation = errors.New("final validation failed")

	// ErrNoResolvers indicates the engine was built without any resolver.
	ErrNoResolvers = errors.New("no conflict categories enabled")
)
