package domain

import (
	"encoding/json"
	"fmt"
)

// wireNode is the JSON shape of a node inside content.nodes.
type wireNode struct {
	ID         string          `json:"id"`
	Type       NodeType        `json:"type"`
	Position   Position        `json:"position"`
	Title      string          `json:"title"`
	Connection string          `json:"connection,omitempty"`
	Color      string          `json:"color"`
	Config     json.RawMessage `json:"config"`
}

// MarshalJSON writes the node in the module record wire format. The single successor of a
// non-router node is emitted as the top-level "connection" field.
func (n Node) MarshalJSON() ([]byte, error) {
	cfg := n.Config
	if cfg == nil {
		cfg = DefaultConfig(n.Type)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config of node %s: %w", n.ID, err)
	}
	return json.Marshal(wireNode{
		ID:         n.ID,
		Type:       n.Type,
		Position:   n.Position,
		Title:      n.Title,
		Connection: n.Connection(),
		Color:      n.Color,
		Config:     raw,
	})
}

// UnmarshalJSON reads the wire format, selecting the config variant from "type".
// Color is re-derived from the type and router invariants are restored.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	cfg := NewConfig(w.Type)
	if cfg == nil {
		return fmt.Errorf("%w: %q (node %s)", ErrUnknownNodeType, w.Type, w.ID)
	}
	if len(w.Config) > 0 && string(w.Config) != "null" {
		if err := json.Unmarshal(w.Config, cfg); err != nil {
			return fmt.Errorf("failed to decode %s config of node %s: %w", w.Type, w.ID, err)
		}
	} else {
		cfg = DefaultConfig(w.Type)
	}

	switch c := cfg.(type) {
	case *RouterConfig:
		c.Normalize()
	case Linear:
		c.SetNext(w.Connection)
	}

	*n = Node{
		ID:       w.ID,
		Type:     w.Type,
		Position: w.Position,
		Title:    w.Title,
		Color:    ColorFor(w.Type),
		Config:   cfg,
	}
	return nil
}
