// Package editor applies single edits to stored module graphs.
//
// Each edit loads the module content into a fresh Graph Store, runs the mutation through
// the canvas and form layers, and writes the graph back only if something changed. Edits
// on the same module are serialized in-process.
package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/nestflow/internal/logging"
	"github.com/aretw0/nestflow/pkg/canvas"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/forms"
	"github.com/aretw0/nestflow/pkg/graph"
	"github.com/aretw0/nestflow/pkg/persistence"
	"github.com/aretw0/nestflow/pkg/ports"
)

// Workspace is the set of editing surfaces bound to one loaded graph.
type Workspace struct {
	Graph  *graph.Store
	Canvas *canvas.Surface
	Forms  *forms.Editor
}

// Result is the graph after an edit.
type Result struct {
	Nodes   []domain.Node  `json:"nodes"`
	Edges   []canvas.Edge  `json:"edges"`
	Changes []graph.Change `json:"-"`
}

// Node looks up a node of the result.
func (r *Result) Node(id string) (domain.Node, bool) {
	if i := domain.IndexOf(r.Nodes, id); i >= 0 {
		return r.Nodes[i], true
	}
	return domain.Node{}, false
}

// Service edits modules held by a ports.ModuleStore.
type Service struct {
	modules   ports.ModuleStore
	content   *persistence.ContentStore
	listeners []graph.Listener
	onSave    func(error)
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures the Service.
type Option func(*Service)

// WithListener receives every applied change, e.g. metrics counters.
func WithListener(l graph.Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, l)
	}
}

// WithSaveObserver is called with the outcome of every save.
func WithSaveObserver(fn func(error)) Option {
	return func(s *Service) {
		s.onSave = fn
	}
}

// WithLogger configures a logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service over a module store.
func New(modules ports.ModuleStore, opts ...Option) *Service {
	s := &Service{
		modules: modules,
		content: persistence.NewContentStore(modules),
		logger:  logging.NewNop(),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) lock(moduleID string) func() {
	s.mu.Lock()
	l, ok := s.locks[moduleID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[moduleID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Snapshot returns the stored graph with its derived edges.
func (s *Service) Snapshot(ctx context.Context, moduleID string) (*Result, error) {
	content, err := s.content.LoadContent(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	return &Result{Nodes: content.Nodes, Edges: canvas.Edges(content.Nodes)}, nil
}

// Apply runs mutate against the module graph. A mutation error discards the edit.
// The returned nodes are what was written, with positions rounded.
func (s *Service) Apply(ctx context.Context, moduleID string, mutate func(*Workspace) error) (*Result, error) {
	unlock := s.lock(moduleID)
	defer unlock()

	content, err := s.content.LoadContent(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	g := graph.NewStore(graph.WithLogger(s.logger))
	g.Load(content.Nodes)

	var changes []graph.Change
	unsubscribe := g.Subscribe(func(c graph.Change) {
		changes = append(changes, c)
	})
	defer unsubscribe()

	ws := &Workspace{Graph: g, Canvas: canvas.NewSurface(g), Forms: forms.NewEditor(g)}
	if err := mutate(ws); err != nil {
		return nil, err
	}

	nodes := g.Nodes()
	if len(changes) > 0 {
		err := s.content.SaveContent(ctx, moduleID, domain.Content{Nodes: nodes})
		if s.onSave != nil {
			s.onSave(err)
		}
		if err != nil {
			s.logger.Error("Failed to save module graph", "module_id", moduleID, "err", err)
			return nil, err
		}
		nodes = domain.RoundPositions(nodes)
		for _, c := range changes {
			for _, l := range s.listeners {
				l(c)
			}
		}
	}
	return &Result{Nodes: nodes, Edges: canvas.Edges(nodes), Changes: changes}, nil
}

// Update edits the module record metadata under the same per-module lock as graph edits.
// fn must not touch Content.
func (s *Service) Update(ctx context.Context, moduleID string, fn func(*domain.Module)) (*domain.Module, error) {
	unlock := s.lock(moduleID)
	defer unlock()

	m, err := s.modules.Load(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	fn(m)
	m.UpdatedAt = time.Now().UTC()
	if err := s.modules.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
