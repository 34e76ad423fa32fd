package ports

import (
	"context"

	"github.com/aretw0/nestflow/pkg/domain"
)

// ModuleStore persists module records.
type ModuleStore interface {
	// Load retrieves a module by id.
	// Returns domain.ErrModuleNotFound if the module does not exist.
	Load(ctx context.Context, moduleID string) (*domain.Module, error)

	// Save creates or replaces the whole module record.
	Save(ctx context.Context, module *domain.Module) error

	// Delete removes a module. Deleting a missing module is not an error.
	Delete(ctx context.Context, moduleID string) error

	// List returns the ids of every stored module.
	List(ctx context.Context) ([]string, error)
}

// ContentStore is the editor's view of persistence: the node graph of one module,
// loaded once and saved back wholesale.
type ContentStore interface {
	// LoadContent returns the graph of a module. A record without content yields no nodes.
	// Returns domain.ErrModuleNotFound if the module does not exist.
	LoadContent(ctx context.Context, moduleID string) (domain.Content, error)

	// SaveContent replaces the graph of an existing module and stamps its update time.
	SaveContent(ctx context.Context, moduleID string, content domain.Content) error
}

// SessionStore defines the interface for persisting playback state.
// This allows a learner to stop and resume a module.
type SessionStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.State, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all active session IDs.
	List(ctx context.Context) ([]string, error)
}
