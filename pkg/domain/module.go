package domain

import "time"

// Visibility is the access flag stored on a module record. It is not enforced here.
type Visibility string

const (
	VisibilityDraft      Visibility = "draft"
	VisibilityPrivate    Visibility = "private"
	VisibilityPublic     Visibility = "public"
	VisibilityRestricted Visibility = "restricted"
)

// Content is the serialized graph stored inside a module record.
type Content struct {
	Nodes []Node `json:"nodes"`
}

// Module is the record that owns a graph. The editor is the sole mutator of
// Content.Nodes and the player only reads it.
type Module struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	Visibility   Visibility `json:"visibility"`
	Views        int        `json:"views"`
	Content      Content    `json:"content"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewModule creates a draft module with an empty graph.
func NewModule(id, title string) *Module {
	now := time.Now().UTC()
	return &Module{
		ID:         id,
		Title:      title,
		Visibility: VisibilityDraft,
		Content:    Content{Nodes: []Node{}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RoundPositions returns a copy of nodes with every position snapped to integers,
// which is how graphs are written back to the module record.
func RoundPositions(nodes []Node) []Node {
	out := CloneNodes(nodes)
	for i := range out {
		out[i].Position = out[i].Position.Rounded()
	}
	if out == nil {
		out = []Node{}
	}
	return out
}
