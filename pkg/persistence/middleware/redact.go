package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/ports"
)

// Mask replaces every redacted span.
const Mask = "***"

type redactMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks free-text answers before they
// are stored. Every match of any pattern inside a textInput answer becomes Mask.
// Loaded states are returned as stored; masking is one-way.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	// The caller keeps playing with its own copy.
	cloned := state.Clone()
	for id, resp := range cloned.Responses {
		if resp.Text == "" {
			continue
		}
		for _, p := range m.patterns {
			resp.Text = p.ReplaceAllString(resp.Text, Mask)
		}
		cloned.Responses[id] = resp
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
