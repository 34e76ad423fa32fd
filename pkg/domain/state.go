package domain

// PlaybackStatus is the coarse state of the playback state machine.
type PlaybackStatus string

const (
	StatusPlaying   PlaybackStatus = "playing"   // A node is on screen
	StatusCompleted PlaybackStatus = "completed" // No valid successor was resolved
	StatusEmpty     PlaybackStatus = "empty"     // The module had nothing to play
)

// State represents the current snapshot of a playback session.
type State struct {
	// SessionID identifies the playback session (optional for in-process players).
	SessionID string `json:"session_id,omitempty"`

	// ModuleID is the module being played.
	ModuleID string `json:"module_id,omitempty"`

	// Status indicates if the learner is playing, done, or had nothing to play.
	Status PlaybackStatus `json:"status"`

	// CurrentIndex is an index into the stored node array. It is only meaningful while Playing.
	CurrentIndex int `json:"current_index"`

	// Responses holds every collected response keyed by node id for the whole session.
	Responses map[string]Response `json:"responses"`

	// History lists the visited node ids in order.
	History []string `json:"history"`
}

// NewState creates a clean state positioned at the given node.
func NewState(moduleID string, index int, nodeID string) *State {
	return &State{
		ModuleID:     moduleID,
		Status:       StatusPlaying,
		CurrentIndex: index,
		Responses:    make(map[string]Response),
		History:      []string{nodeID},
	}
}

// Terminal reports whether no further transitions can happen.
func (s *State) Terminal() bool {
	return s.Status != StatusPlaying
}

// Clone returns a copy that shares nothing mutable with s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Responses = make(map[string]Response, len(s.Responses))
	for k, v := range s.Responses {
		out.Responses[k] = v.Clone()
	}
	out.History = append([]string(nil), s.History...)
	return &out
}

// Previous returns the node visited right before the current one, if any.
func (s *State) Previous() (string, bool) {
	if len(s.History) < 2 {
		return "", false
	}
	return s.History[len(s.History)-2], true
}
