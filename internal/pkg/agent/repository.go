package agent

import "context"

// Summary is the listing view of a stored record.
type Summary struct {
	Name    AgentName `json:"name"`
	Type    AgentType `json:"type"`
	Version string    `json:"version"`
}

// Repository owns the authoritative persisted copy of every agent record.
// Records returned from it are detached snapshots; mutations take effect
// only when passed back through Update.
type Repository interface {
	// Exists reports whether a record with the given name is stored.
	// Returns ErrAgentNameInvalid when the name is malformed.
	Exists(ctx context.Context, name AgentName) (bool, error)

	// Create validates and persists a new record, setting both timestamps.
	// Returns ErrAgentAlreadyExists when the name is taken and
	// ErrValidationFailed (as *ValidationError) when validation finds errors.
	Create(ctx context.Context, record Record) (Record, error)

	// Get loads a detached copy of the named record.
	// Returns ErrAgentNotFound when absent.
	Get(ctx context.Context, name AgentName) (Record, error)

	// Update applies the mutator to a detached copy, re-validates, refreshes
	// updated_at, and persists atomically. Name and created_at are immutable.
	// Returns ErrAgentNotFound when absent and ErrValidationFailed (as
	// *ValidationError) when the mutated record is invalid; the stored record
	// is untouched in both cases.
	Update(ctx context.Context, name AgentName, mutate func(record *Record) error) (Record, error)

	// Delete removes the persisted record. Returns ErrAgentNotFound when
	// absent. Records depending on the deleted one are unaffected.
	Delete(ctx context.Context, name AgentName) error

	// List returns summaries of every stored record ordered by name.
	List(ctx context.Context) ([]Summary, error)
}
