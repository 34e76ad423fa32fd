package canvas

import (
	"fmt"

	"github.com/aretw0/nestflow/pkg/domain"
)

// Graph is the subset of the Graph Store the canvas drives.
type Graph interface {
	Nodes() []domain.Node
	Node(id string) (domain.Node, bool)
	UpdateNodeConnection(id, targetID string) bool
	UpdateRouterConnection(id, choiceID, targetID string) bool
	RemoveConnection(sourceID, targetID string) bool
	MoveNode(id string, pos domain.Position) bool
	DeleteNode(id string) bool
}

// Surface translates gestures into graph mutations.
type Surface struct {
	graph Graph
}

// NewSurface binds a surface to a graph.
func NewSurface(g Graph) *Surface {
	return &Surface{graph: g}
}

// Snapshot returns the nodes and derived edges in one consistent view.
func (s *Surface) Snapshot() ([]domain.Node, []Edge) {
	nodes := s.graph.Nodes()
	return nodes, Edges(nodes)
}

// ConnectRequest is a drag from an output anchor to another node. ChoiceID names the
// anchor when the source is a router.
type ConnectRequest struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	ChoiceID string `json:"choiceId,omitempty"`
}

// Connect wires the source (or one of its router choices) to the target.
// Self connections are rejected with ErrSelfConnection; a router source without a
// matching choice fails with ErrChoiceNotFound. Gestures on nodes that vanished
// meanwhile report false without error.
func (s *Surface) Connect(req ConnectRequest) (bool, error) {
	if req.SourceID == req.TargetID {
		return false, fmt.Errorf("connect %s: %w", req.SourceID, domain.ErrSelfConnection)
	}
	src, ok := s.graph.Node(req.SourceID)
	if !ok {
		return false, nil
	}
	if rc, isRouter := src.Router(); isRouter {
		if _, found := rc.Choice(req.ChoiceID); !found {
			return false, fmt.Errorf("connect %s anchor %q: %w", req.SourceID, req.ChoiceID, domain.ErrChoiceNotFound)
		}
		return s.graph.UpdateRouterConnection(req.SourceID, req.ChoiceID, req.TargetID), nil
	}
	return s.graph.UpdateNodeConnection(req.SourceID, req.TargetID), nil
}

// DisconnectEdge deletes a rendered edge. The router choice is trusted only if it still
// points at the target; otherwise every reference from source to target is cleared.
func (s *Surface) DisconnectEdge(id EdgeID) bool {
	if id.ChoiceID != "" {
		if src, ok := s.graph.Node(id.SourceID); ok {
			if rc, isRouter := src.Router(); isRouter {
				if c, found := rc.Choice(id.ChoiceID); found && c.Connection == id.TargetID {
					return s.graph.UpdateRouterConnection(id.SourceID, id.ChoiceID, "")
				}
			}
		}
	}
	return s.graph.RemoveConnection(id.SourceID, id.TargetID)
}

// Drag moves a node. Connections are unaffected.
func (s *Surface) Drag(id string, pos domain.Position) bool {
	return s.graph.MoveNode(id, pos)
}

// DeleteNode removes a node together with every edge touching it.
func (s *Surface) DeleteNode(id string) bool {
	return s.graph.DeleteNode(id)
}
