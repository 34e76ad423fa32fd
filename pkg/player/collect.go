package player

import (
	"errors"
	"slices"

	"github.com/aretw0/nestflow/pkg/domain"
)

// ErrSelectionLocked is returned when picking a second option on a single-select question.
var ErrSelectionLocked = errors.New("another option is already selected")

// Selection collects the answer of a multiple-choice node.
type Selection struct {
	allowMultiple bool
	known         map[string]bool
	selected      []string
}

// NewSelection starts an empty selection for the given question.
func NewSelection(cfg *domain.MultipleChoiceConfig) *Selection {
	known := make(map[string]bool, len(cfg.Choices))
	for _, c := range cfg.Choices {
		known[c.ID] = true
	}
	return &Selection{allowMultiple: cfg.AllowMultiple, known: known}
}

// Toggle selects an option, or deselects it when it is already selected. On a single-select
// question every other option stays locked until the current one is deselected.
func (s *Selection) Toggle(id string) error {
	if !s.known[id] {
		return domain.ErrChoiceNotFound
	}
	if i := slices.Index(s.selected, id); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
		return nil
	}
	if !s.allowMultiple && len(s.selected) > 0 {
		return ErrSelectionLocked
	}
	s.selected = append(s.selected, id)
	return nil
}

// Disabled reports whether an option cannot be picked right now.
func (s *Selection) Disabled(id string) bool {
	return !s.allowMultiple && len(s.selected) > 0 && !slices.Contains(s.selected, id)
}

// Selected returns the picked option ids in selection order.
func (s *Selection) Selected() []string {
	return slices.Clone(s.selected)
}

// CanContinue is true once at least one option is picked.
func (s *Selection) CanContinue() bool {
	return len(s.selected) > 0
}

// Response builds the response to hand to Engine.Advance.
func (s *Selection) Response() domain.Response {
	return domain.ChoiceResponse(s.selected...)
}

// Ranking collects the answer of a ranking node.
type Ranking struct {
	items []string
}

// NewRanking starts from the authored order.
func NewRanking(cfg *domain.RankingConfig) *Ranking {
	return &Ranking{items: slices.Clone(cfg.Items)}
}

// Move drags the item at from to position to.
func (r *Ranking) Move(from, to int) bool {
	moved, ok := domain.MoveItem(r.items, from, to)
	if ok {
		r.items = moved
	}
	return ok
}

// Items returns the current order.
func (r *Ranking) Items() []string {
	return slices.Clone(r.items)
}

// Response builds the response to hand to Engine.Advance.
func (r *Ranking) Response() domain.Response {
	return domain.RankingResponse(r.items)
}

// Answer is one collected response, for the completion summary.
type Answer struct {
	NodeID   string          `json:"node_id"`
	Title    string          `json:"title"`
	Response domain.Response `json:"response"`
}

// Summary lists the responses of a session in visiting order.
func Summary(nodes []domain.Node, state *domain.State) []Answer {
	out := []Answer{}
	seen := map[string]bool{}
	for _, id := range state.History {
		resp, ok := state.Responses[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		title := id
		if i := domain.IndexOf(nodes, id); i >= 0 {
			title = nodes[i].Title
		}
		out = append(out, Answer{NodeID: id, Title: title, Response: resp.Clone()})
	}
	return out
}
