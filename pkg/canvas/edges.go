package canvas

import (
	"fmt"

	"github.com/aretw0/nestflow/pkg/domain"
)

// EdgeID identifies a rendered edge. ChoiceID is set only for edges leaving a router.
type EdgeID struct {
	SourceID string `json:"sourceId"`
	ChoiceID string `json:"choiceId,omitempty"`
	TargetID string `json:"targetId"`
}

func (id EdgeID) String() string {
	if id.ChoiceID != "" {
		return fmt.Sprintf("%s[%s]->%s", id.SourceID, id.ChoiceID, id.TargetID)
	}
	return fmt.Sprintf("%s->%s", id.SourceID, id.TargetID)
}

// Edge is a directed connection as drawn on the canvas.
type Edge struct {
	ID    EdgeID `json:"id"`
	Label string `json:"label,omitempty"`
	// Color is the source node's tint.
	Color string `json:"color"`
}

// Edges derives every edge from the node list: one per connected router choice, and at
// most one for any other node. Order follows the node order, then the choice order.
func Edges(nodes []domain.Node) []Edge {
	edges := make([]Edge, 0, len(nodes))
	for _, n := range nodes {
		color := domain.ColorFor(n.Type)
		if rc, ok := n.Router(); ok {
			for _, c := range rc.Choices {
				if c.Connection == "" {
					continue
				}
				edges = append(edges, Edge{
					ID:    EdgeID{SourceID: n.ID, ChoiceID: c.ID, TargetID: c.Connection},
					Label: c.Text,
					Color: color,
				})
			}
			continue
		}
		if target := n.Connection(); target != "" {
			edges = append(edges, Edge{
				ID:    EdgeID{SourceID: n.ID, TargetID: target},
				Color: color,
			})
		}
	}
	return edges
}

// Anchor is an output handle on a node's border. Offset is the fraction of the node
// width at which the handle sits.
type Anchor struct {
	ChoiceID string  `json:"choiceId,omitempty"`
	Label    string  `json:"label,omitempty"`
	Offset   float64 `json:"offset"`
}

// Anchors lists the output handles of a node. Routers get one per choice, evenly spread;
// every other node gets a single centered handle.
func Anchors(n domain.Node) []Anchor {
	rc, ok := n.Router()
	if !ok {
		return []Anchor{{Offset: 0.5}}
	}
	total := float64(len(rc.Choices) + 1)
	anchors := make([]Anchor, len(rc.Choices))
	for i, c := range rc.Choices {
		anchors[i] = Anchor{ChoiceID: c.ID, Label: c.Text, Offset: float64(i+1) / total}
	}
	return anchors
}
