package nestflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/nestflow/internal/logging"
	"github.com/aretw0/nestflow/internal/validator"
	"github.com/aretw0/nestflow/pkg/adapters/loam"
	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/editor"
	"github.com/aretw0/nestflow/pkg/player"
	"github.com/aretw0/nestflow/pkg/ports"
	"github.com/aretw0/nestflow/pkg/session"
)

// Engine is the high-level entry point for the nestflow library.
// It wires a module store to the editor service and the playback session manager.
type Engine struct {
	modules  ports.ModuleStore
	sessions ports.SessionStore
	media    ports.MediaResolver
	locker   ports.DistributedLocker
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	editor  *editor.Service
	manager *session.Manager
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithModuleStore injects a module store, bypassing the default Loam repository.
func WithModuleStore(s ports.ModuleStore) Option {
	return func(e *Engine) {
		e.modules = s
	}
}

// WithSessionStore replaces the in-memory playback session store.
func WithSessionStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.sessions = s
	}
}

// WithMediaResolver resolves stored video and thumbnail names for the player.
func WithMediaResolver(r ports.MediaResolver) Option {
	return func(e *Engine) {
		e.media = r
	}
}

// WithLocker serializes session transitions across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new Engine.
// By default, modules are Markdown documents in a Loam repository at dir.
// If WithModuleStore is provided, dir can be empty and Loam is skipped.
func New(dir string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.modules == nil {
		if dir == "" {
			return nil, fmt.Errorf("dir is required when no module store is provided")
		}
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		store, err := loam.Open(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		eng.modules = store
	}
	if dir != "" {
		eng.Name = filepath.Base(dir)
	}
	if eng.sessions == nil {
		eng.sessions = memory.NewSessionStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("repo", eng.Name)
	}

	playerOpts := []player.Option{
		player.WithLifecycleHooks(eng.hooks),
		player.WithLogger(eng.logger),
	}
	if eng.media != nil {
		playerOpts = append(playerOpts, player.WithMediaResolver(eng.media))
	}

	managerOpts := []session.Option{
		session.WithEngine(player.NewEngine(playerOpts...)),
		session.WithLogger(eng.logger),
	}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}

	eng.manager = session.NewManager(eng.sessions, eng.modules, managerOpts...)
	eng.editor = editor.New(eng.modules, editor.WithLogger(eng.logger))
	return eng, nil
}

// Modules returns the module store.
func (e *Engine) Modules() ports.ModuleStore {
	return e.modules
}

// Editor returns the graph editing service.
func (e *Engine) Editor() *editor.Service {
	return e.editor
}

// Sessions returns the playback session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.manager
}

// CreateModule stores a new draft module with an empty graph.
func (e *Engine) CreateModule(ctx context.Context, id, title string) (*domain.Module, error) {
	m := domain.NewModule(id, title)
	if err := e.modules.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create module %s: %w", id, err)
	}
	return m, nil
}

// Edit applies one graph mutation to a module and saves it.
func (e *Engine) Edit(ctx context.Context, moduleID string, mutate func(*editor.Workspace) error) (*editor.Result, error) {
	return e.editor.Apply(ctx, moduleID, mutate)
}

// Inspect returns the module graph for visualization or introspection tools.
func (e *Engine) Inspect(ctx context.Context, moduleID string) (*editor.Result, error) {
	return e.editor.Snapshot(ctx, moduleID)
}

// Validate reports every structural problem of a module graph as one error.
func (e *Engine) Validate(ctx context.Context, moduleID string) error {
	res, err := e.editor.Snapshot(ctx, moduleID)
	if err != nil {
		return err
	}
	return validator.ValidateGraph(res.Nodes)
}

// Start opens a playback session. An empty module returns the Empty state and
// an error wrapping domain.ErrEmptyGraph.
func (e *Engine) Start(ctx context.Context, moduleID string) (*domain.State, error) {
	return e.manager.Start(ctx, moduleID)
}

// View renders the current node of a session.
func (e *Engine) View(ctx context.Context, sessionID string) (*player.View, error) {
	return e.manager.View(ctx, sessionID)
}

// Advance submits the response to the current node.
func (e *Engine) Advance(ctx context.Context, sessionID string, resp domain.Response) (*domain.State, error) {
	return e.manager.Advance(ctx, sessionID, resp)
}

// Finish completes a session early.
func (e *Engine) Finish(ctx context.Context, sessionID string) (*domain.State, error) {
	return e.manager.Finish(ctx, sessionID)
}
