package domain

import "math"

// NodeType is the closed set of node kinds a module can contain.
type NodeType string

const (
	// NodeTypeMessage displays markdown content and waits for "continue".
	NodeTypeMessage NodeType = "message"
	// NodeTypeVideo plays a video and waits for "continue".
	NodeTypeVideo NodeType = "video"
	// NodeTypeRouter asks a question whose choices each lead to their own successor.
	NodeTypeRouter NodeType = "router"
	// NodeTypeTextInput collects free text.
	NodeTypeTextInput NodeType = "textInput"
	// NodeTypeMultipleChoice collects one or more choice ids.
	NodeTypeMultipleChoice NodeType = "multipleChoice"
	// NodeTypeRanking collects a reordered list of items.
	NodeTypeRanking NodeType = "ranking"
)

// NodeTypes lists every node kind in the order the editor offers them.
var NodeTypes = []NodeType{
	NodeTypeMessage,
	NodeTypeVideo,
	NodeTypeRouter,
	NodeTypeTextInput,
	NodeTypeMultipleChoice,
	NodeTypeRanking,
}

// Valid reports whether t is one of the known node kinds.
func (t NodeType) Valid() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Position is a node's location on the editor canvas. It has no runtime meaning.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rounded snaps the position to integer pixel coordinates.
func (p Position) Rounded() Position {
	return Position{X: math.Round(p.X), Y: math.Round(p.Y)}
}

// Node represents a single step in a module's flow.
//
// The successor of a node lives in its Config: non-router configs embed a Link with a
// single optional connection, while RouterConfig carries one connection per choice.
type Node struct {
	ID       string
	Type     NodeType
	Position Position
	Title    string
	Color    string
	Config   Config
}

// NewNode builds a node of the given type with default title, color and config.
func NewNode(id string, t NodeType, pos Position) Node {
	return Node{
		ID:       id,
		Type:     t,
		Position: pos,
		Title:    DefaultTitle(t),
		Color:    ColorFor(t),
		Config:   DefaultConfig(t),
	}
}

// Connection returns the single successor of a non-router node.
// Routers always return "" because their edges live in their choices.
func (n Node) Connection() string {
	if l, ok := n.Config.(Linear); ok {
		return l.Next()
	}
	return ""
}

// IsRouter reports whether the node fans out through choices.
func (n Node) IsRouter() bool {
	_, ok := n.Config.(*RouterConfig)
	return ok
}

// Router returns the router config, if the node is a router.
func (n Node) Router() (*RouterConfig, bool) {
	rc, ok := n.Config.(*RouterConfig)
	return rc, ok
}

// Successors lists the ids this node points to, in choice order for routers.
// Absent connections are skipped.
func (n Node) Successors() []string {
	var out []string
	switch cfg := n.Config.(type) {
	case *RouterConfig:
		for _, c := range cfg.Choices {
			if c.Connection != "" {
				out = append(out, c.Connection)
			}
		}
	case Linear:
		if next := cfg.Next(); next != "" {
			out = append(out, next)
		}
	}
	return out
}

// Clone returns a deep copy of the node so callers can never alias a store's config.
func (n Node) Clone() Node {
	out := n
	if n.Config != nil {
		out.Config = n.Config.Clone()
	}
	return out
}

// CloneNodes deep-copies a node slice.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// IndexOf returns the array index of the node with the given id, or -1.
func IndexOf(nodes []Node, id string) int {
	if id == "" {
		return -1
	}
	for i, n := range nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
