// Package forms implements the per-type node configuration panels of the editor.
//
// Every edit is committed through the Graph Store, so forms never hold state of their own.
// Edits aimed at a node of the wrong type, or at a node that has been deleted meanwhile,
// report false and change nothing.
package forms

import (
	"fmt"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/graph"
)

// Target is an entry of a "connect to" picker.
type Target struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Type  domain.NodeType `json:"type"`
}

// Editor edits node configurations in a Graph Store.
type Editor struct {
	store       *graph.Store
	newChoiceID func() string
}

// Option configures the Editor.
type Option func(*Editor)

// WithChoiceIDGenerator replaces the uuid-based choice id generator.
func WithChoiceIDGenerator(gen func() string) Option {
	return func(e *Editor) {
		e.newChoiceID = gen
	}
}

// NewEditor binds an Editor to a store.
func NewEditor(store *graph.Store, opts ...Option) *Editor {
	e := &Editor{store: store, newChoiceID: graph.NewChoiceID}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Targets lists every node id may connect to. The node itself is never offered.
func (e *Editor) Targets(id string) []Target {
	nodes := e.store.Nodes()
	out := make([]Target, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == id {
			continue
		}
		title := n.Config.Common().Title
		if title == "" {
			title = n.Title
		}
		out = append(out, Target{ID: n.ID, Title: title, Type: n.Type})
	}
	return out
}

// SetTitle renames a node.
func (e *Editor) SetTitle(id, title string) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		c.Common().Title = title
		return true
	})
}

// SetRequired toggles the required flag. Routers are always required.
func (e *Editor) SetRequired(id string, required bool) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		if c.Kind() == domain.NodeTypeRouter {
			return false
		}
		c.Common().Required = required
		return true
	})
}

// SetConnection picks the successor of a non-router node. An empty target makes it terminal.
func (e *Editor) SetConnection(id, targetID string) (bool, error) {
	if id == targetID {
		return false, fmt.Errorf("connect %s: %w", id, domain.ErrSelfConnection)
	}
	return e.store.UpdateNodeConnection(id, targetID), nil
}

// SetContent edits the text of a message node.
func (e *Editor) SetContent(id, content string) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		mc, ok := c.(*domain.MessageConfig)
		if ok {
			mc.Content = content
		}
		return ok
	})
}

// SetVideo sets the media references of a video node. Each value is either an absolute
// URL or a storage object name.
func (e *Editor) SetVideo(id, videoURL, thumbnailURL string) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		vc, ok := c.(*domain.VideoConfig)
		if ok {
			vc.VideoURL = videoURL
			vc.ThumbnailURL = thumbnailURL
		}
		return ok
	})
}

// SetControls replaces the player controls of a video node.
func (e *Editor) SetControls(id string, controls domain.VideoControls) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		vc, ok := c.(*domain.VideoConfig)
		if ok {
			vc.Controls = controls
		}
		return ok
	})
}

// SetQuestion edits the prompt of any question-bearing node.
func (e *Editor) SetQuestion(id, question string) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		switch cfg := c.(type) {
		case *domain.RouterConfig:
			cfg.Question = question
		case *domain.TextInputConfig:
			cfg.Question = question
		case *domain.MultipleChoiceConfig:
			cfg.Question = question
		case *domain.RankingConfig:
			cfg.Question = question
		default:
			return false
		}
		return true
	})
}
