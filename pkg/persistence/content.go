// Package persistence adapts module records to the editor's load/save cycle.
//
// The editor never sees module metadata: it loads a node list once and writes
// it back wholesale. Positions are snapped to integers and the update time is
// stamped on every save. Session-store decorators live in the middleware subpackage.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/ports"
)

// ContentStore implements ports.ContentStore over a ports.ModuleStore.
type ContentStore struct {
	modules ports.ModuleStore
	now     func() time.Time
}

// Option configures a ContentStore.
type Option func(*ContentStore)

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *ContentStore) {
		s.now = now
	}
}

// NewContentStore wraps a module store.
func NewContentStore(modules ports.ModuleStore, opts ...Option) *ContentStore {
	s := &ContentStore{
		modules: modules,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadContent returns the module graph. A record with no nodes yields an empty slice.
func (s *ContentStore) LoadContent(ctx context.Context, moduleID string) (domain.Content, error) {
	m, err := s.modules.Load(ctx, moduleID)
	if err != nil {
		return domain.Content{}, fmt.Errorf("loading module %s: %w", moduleID, err)
	}
	nodes := domain.CloneNodes(m.Content.Nodes)
	if nodes == nil {
		nodes = []domain.Node{}
	}
	return domain.Content{Nodes: nodes}, nil
}

// SaveContent replaces the graph of an existing module. Other record fields are kept.
func (s *ContentStore) SaveContent(ctx context.Context, moduleID string, content domain.Content) error {
	m, err := s.modules.Load(ctx, moduleID)
	if err != nil {
		return fmt.Errorf("loading module %s: %w", moduleID, err)
	}
	m.Content = domain.Content{Nodes: domain.RoundPositions(content.Nodes)}
	m.UpdatedAt = s.now().UTC()
	if err := s.modules.Save(ctx, m); err != nil {
		return fmt.Errorf("saving module %s: %w", moduleID, err)
	}
	return nil
}

var _ ports.ContentStore = (*ContentStore)(nil)
