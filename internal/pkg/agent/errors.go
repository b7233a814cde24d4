package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrAgentNotFound indicates the agent record does not exist in the store.
	ErrAgentNotFound = errors.New("agent record not found")

	// ErrAgentAlreadyExists indicates a record with the same name is already stored.
	ErrAgentAlreadyExists = errors.New("agent record already exists")

	// ErrAgentNameInvalid indicates the agent name is missing or malformed.
	ErrAgentNameInvalid = errors.New("agent name invalid")

	// ErrMalformedInput indicates the input could not be parsed into record shape.
	ErrMalformedInput = errors.New("malformed agent record input")

	// ErrUnknownEnvironment indicates a strict environment lookup for an
	// environment the record does not declare.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrNotRenderable indicates documentation was requested for an invalid record.
	ErrNotRenderable = errors.New("agent record not renderable")

	// ErrValidationFailed is matched by errors.Is against ValidationError.
	ErrValidationFailed = errors.New("agent record validation failed")
)

// ValidationError reports a rejected write together with the full violation list.
type ValidationError struct {
	Name       AgentName
	Violations Violations
}

// Error returns the failure message including every error-severity violation.
func (err *ValidationError) Error() string {
	if err == nil {
		return ""
	}

	return fmt.Sprintf("agent record %q validation failed: %s", err.Name, err.Violations.Errors())
}

// Is matches ErrValidationFailed so callers can test with errors.Is.
func (err *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
