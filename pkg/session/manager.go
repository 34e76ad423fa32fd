package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/nestflow/internal/logging"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/player"
	"github.com/aretw0/nestflow/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager runs playback sessions against stored modules, serializing every
// read-modify-write of a session.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store   ports.SessionStore
	modules ports.ModuleStore
	engine  *player.Engine

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	newID   func() string
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithEngine replaces the default playback engine.
func WithEngine(engine *player.Engine) Option {
	return func(m *Manager) {
		m.engine = engine
	}
}

// WithIDGenerator overrides how session ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager over a session store and the module store
// the sessions play from.
func NewManager(store ports.SessionStore, modules ports.ModuleStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		modules: modules,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		newID:   func() string { return "session-" + uuid.NewString() },
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.engine == nil {
		m.engine = player.NewEngine(player.WithLogger(m.logger))
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Engine returns the playback engine used by the manager.
func (m *Manager) Engine() *player.Engine {
	return m.engine
}

// Nodes loads the graph a session plays.
func (m *Manager) Nodes(ctx context.Context, moduleID string) ([]domain.Node, error) {
	mod, err := m.modules.Load(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("loading module %s: %w", moduleID, err)
	}
	return mod.Content.Nodes, nil
}

// Start opens a new session on a module. An empty module yields the Empty state
// together with domain.ErrEmptyGraph and nothing is persisted.
func (m *Manager) Start(ctx context.Context, moduleID string) (*domain.State, error) {
	nodes, err := m.Nodes(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	state, err := m.engine.Start(ctx, moduleID, nodes)
	if err != nil {
		return state, err
	}
	state.SessionID = m.newID()

	if err := m.Save(ctx, state.SessionID, state); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	m.logger.Debug("session started", "session_id", state.SessionID, "module_id", moduleID)
	return state, nil
}

// Advance submits a response to the current node of a session and persists the result.
func (m *Manager) Advance(ctx context.Context, sessionID string, resp domain.Response) (*domain.State, error) {
	return m.transition(ctx, sessionID, func(nodes []domain.Node, state *domain.State) (*domain.State, error) {
		return m.engine.Advance(ctx, nodes, state, resp)
	})
}

// Finish ends a session early.
func (m *Manager) Finish(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.transition(ctx, sessionID, func(nodes []domain.Node, state *domain.State) (*domain.State, error) {
		return m.engine.Finish(ctx, nodes, state)
	})
}

func (m *Manager) transition(ctx context.Context, sessionID string, step func([]domain.Node, *domain.State) (*domain.State, error)) (*domain.State, error) {
	var next *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		nodes, err := m.Nodes(ctx, state.ModuleID)
		if err != nil {
			return err
		}
		next, err = step(nodes, state)
		if err != nil {
			return err
		}
		next.SessionID = sessionID
		return m.store.Save(ctx, sessionID, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// View renders the current node of a session. The graph is reloaded on every call so
// an editor change is visible on the next render.
func (m *Manager) View(ctx context.Context, sessionID string) (*player.View, error) {
	state, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	nodes, err := m.Nodes(ctx, state.ModuleID)
	if err != nil {
		return nil, err
	}
	return m.engine.Render(ctx, nodes, state)
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// LoadOrStart loads a session, or starts one on moduleID under that id if it does not exist.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID, moduleID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		nodes, err := m.Nodes(ctx, moduleID)
		if err != nil {
			return err
		}
		state, err = m.engine.Start(ctx, moduleID, nodes)
		if err != nil {
			return err
		}
		state.SessionID = sessionID

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, sessionID, state); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return state, err
}

// Save persists the session state.
func (m *Manager) Save(ctx context.Context, sessionID string, state *domain.State) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, state)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "session:"+sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
