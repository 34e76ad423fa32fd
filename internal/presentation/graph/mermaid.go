package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/nestflow/pkg/domain"
)

// GraphOverlay contains playback state to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart from a node list.
// Shapes follow the node type:
// - Entry node (index 0): ((Circle))
// - Router: {Rhombus}
// - Video: [[Subroutine]]
// - Question types: [/Parallelogram/]
// - Message: [Rectangle]
// Router edges are labelled with the choice text. Overlay routers get a dotted edge
// from their background. Visited and current nodes are styled when overlay is given.
func GenerateMermaid(nodes []domain.Node, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case node.Type == domain.NodeTypeRouter:
			opener, closer = "{", "}"
		case node.Type == domain.NodeTypeVideo:
			opener, closer = "[[", "]]"
		case node.Type == domain.NodeTypeTextInput,
			node.Type == domain.NodeTypeMultipleChoice,
			node.Type == domain.NodeTypeRanking:
			opener, closer = "[/", "/]"
		}

		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label(node)), closer))

		if rc, ok := node.Router(); ok {
			for _, c := range rc.Choices {
				if c.Connection == "" {
					continue
				}
				text := c.Text
				if text == "" {
					text = c.ID
				}
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, escapeLabel(text), sanitizeMermaidID(c.Connection)))
			}
			continue
		}
		if next := node.Connection(); next != "" {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(next)))
		}
	}

	// Node colors mirror the editor palette.
	sb.WriteString("\n")
	for _, t := range domain.NodeTypes {
		sb.WriteString(fmt.Sprintf("    classDef %s stroke:%s,stroke-width:2px;\n", t, domain.ColorFor(t)))
	}
	for _, node := range nodes {
		if node.Type.Valid() {
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", sanitizeMermaidID(node.ID), node.Type))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

// OverlayFromState builds an overlay from a playback state.
func OverlayFromState(state *domain.State) *GraphOverlay {
	if state == nil {
		return nil
	}
	o := &GraphOverlay{VisitedNodes: append([]string(nil), state.History...)}
	if !state.Terminal() && len(state.History) > 0 {
		o.CurrentNode = state.History[len(state.History)-1]
	}
	return o
}

func label(n domain.Node) string {
	title := n.Title
	if n.Config != nil && n.Config.Common().Title != "" {
		title = n.Config.Common().Title
	}
	if title == "" {
		return n.ID
	}
	return title
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
