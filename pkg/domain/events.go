package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventComplete  EventType = "complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	ModuleID  string    `json:"module_id,omitempty"`
}

// NodeEvent represents entry or exit from a node during playback.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeType NodeType `json:"node_type"`
	Index    int      `json:"index"`
}

// CompletionReason explains why playback left the Playing state.
type CompletionReason string

const (
	// ReasonTerminal means the last node had no successor.
	ReasonTerminal CompletionReason = "terminal"
	// ReasonDangling means a connection referenced a node that no longer exists.
	ReasonDangling CompletionReason = "dangling"
	// ReasonUnknownChoice means a router response matched no choice.
	ReasonUnknownChoice CompletionReason = "unknown_choice"
	// ReasonFinished means the learner explicitly finished early.
	ReasonFinished CompletionReason = "finished"
	// ReasonEmpty means the graph had no nodes.
	ReasonEmpty CompletionReason = "empty"
)

// CompletionEvent is emitted once when playback stops.
type CompletionEvent struct {
	EventBase
	LastNodeID string           `json:"last_node_id,omitempty"`
	Reason     CompletionReason `json:"reason"`
	Visited    int              `json:"visited"`
}

// LifecycleHooks defines callbacks for playback observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnComplete  func(context.Context, *CompletionEvent)
}
