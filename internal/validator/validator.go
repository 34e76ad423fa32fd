package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/nestflow/pkg/domain"
)

// Kind classifies a graph problem.
type Kind string

const (
	KindDangling     Kind = "dangling"
	KindSelfLoop     Kind = "self_loop"
	KindUnreachable  Kind = "unreachable"
	KindEmptyRouter  Kind = "empty_router"
	KindEmptyGraph   Kind = "empty_graph"
	KindDuplicateID  Kind = "duplicate_id"
	KindUnknownType  Kind = "unknown_type"
	KindDanglingEdge Kind = "dangling_choice"
)

// Issue is one problem found in a graph.
type Issue struct {
	Kind     Kind   `json:"kind"`
	NodeID   string `json:"node_id,omitempty"`
	ChoiceID string `json:"choice_id,omitempty"`
	TargetID string `json:"target_id,omitempty"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	return i.Message
}

// Check inspects nodes and returns every problem found, in node order.
// Playback starts at index 0, so reachability is measured from there.
func Check(nodes []domain.Node) []Issue {
	if len(nodes) == 0 {
		return []Issue{{Kind: KindEmptyGraph, Message: "Module has no nodes to play"}}
	}

	var issues []Issue
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if known[n.ID] {
			issues = append(issues, Issue{Kind: KindDuplicateID, NodeID: n.ID,
				Message: fmt.Sprintf("Duplicate node id '%s'", n.ID)})
		}
		known[n.ID] = true
	}

	for _, n := range nodes {
		if !n.Type.Valid() {
			issues = append(issues, Issue{Kind: KindUnknownType, NodeID: n.ID,
				Message: fmt.Sprintf("Node '%s' has unknown type '%s'", n.ID, n.Type)})
			continue
		}

		if rc, ok := n.Router(); ok {
			if len(rc.Choices) == 0 {
				issues = append(issues, Issue{Kind: KindEmptyRouter, NodeID: n.ID,
					Message: fmt.Sprintf("Router '%s' has no choices", n.ID)})
			}
			for _, c := range rc.Choices {
				issues = append(issues, checkTarget(n.ID, c.ID, c.Connection, known)...)
			}
			continue
		}
		issues = append(issues, checkTarget(n.ID, "", n.Connection(), known)...)
	}

	reached := reachable(nodes)
	for _, n := range nodes[1:] {
		if !reached[n.ID] {
			issues = append(issues, Issue{Kind: KindUnreachable, NodeID: n.ID,
				Message: fmt.Sprintf("Node '%s' is unreachable from the first node", n.ID)})
		}
	}
	return issues
}

func checkTarget(nodeID, choiceID, target string, known map[string]bool) []Issue {
	if target == "" {
		return nil
	}
	where := fmt.Sprintf("Node '%s'", nodeID)
	if choiceID != "" {
		where = fmt.Sprintf("Choice '%s' of router '%s'", choiceID, nodeID)
	}
	switch {
	case target == nodeID:
		return []Issue{{Kind: KindSelfLoop, NodeID: nodeID, ChoiceID: choiceID, TargetID: target,
			Message: where + " connects to itself"}}
	case !known[target]:
		kind := KindDangling
		if choiceID != "" {
			kind = KindDanglingEdge
		}
		return []Issue{{Kind: kind, NodeID: nodeID, ChoiceID: choiceID, TargetID: target,
			Message: fmt.Sprintf("%s points to missing node '%s'", where, target)}}
	}
	return nil
}

// reachable walks successors breadth-first from the first node.
func reachable(nodes []domain.Node) map[string]bool {
	byID := make(map[string]domain.Node, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.ID]; !dup {
			byID[n.ID] = n
		}
	}

	visited := map[string]bool{}
	queue := []string{nodes[0].ID}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		n, ok := byID[currentID]
		if !ok {
			continue
		}
		for _, next := range n.Successors() {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	return visited
}

// ValidateGraph returns an error listing every issue, or nil for a clean graph.
func ValidateGraph(nodes []domain.Node) error {
	issues := Check(nodes)
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, len(issues))
	for i, is := range issues {
		msgs[i] = is.Message
	}
	return fmt.Errorf("found %d errors:\n- %s", len(issues), strings.Join(msgs, "\n- "))
}
