package player

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/nestflow/internal/logging"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/ports"
)

// Engine is the playback state machine.
type Engine struct {
	hooks  domain.LifecycleHooks
	media  ports.MediaResolver
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMediaResolver sets the store used to turn media object names into public URLs.
func WithMediaResolver(r ports.MediaResolver) Option {
	return func(e *Engine) {
		e.media = r
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a playback engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins playback at the first stored node. An empty graph yields an Empty state
// together with ErrEmptyGraph.
func (e *Engine) Start(ctx context.Context, moduleID string, nodes []domain.Node) (*domain.State, error) {
	if len(nodes) == 0 {
		state := &domain.State{
			ModuleID:  moduleID,
			Status:    domain.StatusEmpty,
			Responses: make(map[string]domain.Response),
			History:   []string{},
		}
		e.emitComplete(ctx, state, "", domain.ReasonEmpty)
		return state, fmt.Errorf("module %s: %w", moduleID, domain.ErrEmptyGraph)
	}

	state := domain.NewState(moduleID, 0, nodes[0].ID)
	e.emitNodeEnter(ctx, state, nodes[0], 0)
	return state, nil
}

// Continue advances a node that collects nothing (message and video).
func (e *Engine) Continue(ctx context.Context, nodes []domain.Node, state *domain.State) (*domain.State, error) {
	node, _, ok := current(nodes, state)
	if !ok {
		return e.Advance(ctx, nodes, state, domain.Response{})
	}
	return e.Advance(ctx, nodes, state, domain.Continue(node.Type))
}

// Advance records the response for the current node and moves to its successor.
// The input state is never modified.
func (e *Engine) Advance(ctx context.Context, nodes []domain.Node, state *domain.State, resp domain.Response) (*domain.State, error) {
	if state == nil {
		return nil, fmt.Errorf("advance: nil state")
	}
	if state.Terminal() {
		return state.Clone(), domain.ErrPlaybackFinished
	}

	next := state.Clone()
	node, idx, ok := current(nodes, state)
	if !ok {
		// The graph changed underneath the session; nothing is on screen to resolve from.
		e.logger.Warn("Current node vanished, completing playback",
			"module_id", state.ModuleID,
			"index", state.CurrentIndex,
		)
		e.complete(ctx, next, "", domain.ReasonDangling)
		return next, nil
	}
	next.CurrentIndex = idx

	if collects(node.Type) {
		r := resp.Clone()
		r.NodeType = node.Type
		next.Responses[node.ID] = r
	}

	e.emitNodeLeave(ctx, next, node, next.CurrentIndex)

	to, reason := Resolve(nodes, node, resp)
	if to < 0 {
		e.logger.Debug("Playback completed", "node_id", node.ID, "reason", reason)
		e.complete(ctx, next, node.ID, reason)
		return next, nil
	}

	target := nodes[to]
	next.CurrentIndex = to
	next.History = append(next.History, target.ID)
	e.logger.Debug("Transition", "from", node.ID, "to", target.ID)
	e.emitNodeEnter(ctx, next, target, to)
	return next, nil
}

// Finish ends playback early at the learner's request.
func (e *Engine) Finish(ctx context.Context, nodes []domain.Node, state *domain.State) (*domain.State, error) {
	if state == nil {
		return nil, fmt.Errorf("finish: nil state")
	}
	if state.Terminal() {
		return state.Clone(), domain.ErrPlaybackFinished
	}
	next := state.Clone()
	last := ""
	if node, idx, ok := current(nodes, state); ok {
		last = node.ID
		e.emitNodeLeave(ctx, next, node, idx)
	}
	e.complete(ctx, next, last, domain.ReasonFinished)
	return next, nil
}

// Resolve finds the array index of the successor of node for the given response.
// It returns -1 and the completion reason when no valid successor exists.
func Resolve(nodes []domain.Node, node domain.Node, resp domain.Response) (int, domain.CompletionReason) {
	var target string
	if rc, ok := node.Router(); ok {
		choice, found := rc.Choice(resp.ChoiceID())
		if !found {
			return -1, domain.ReasonUnknownChoice
		}
		target = choice.Connection
	} else {
		target = node.Connection()
	}

	if target == "" {
		return -1, domain.ReasonTerminal
	}
	idx := domain.IndexOf(nodes, target)
	if idx < 0 {
		return -1, domain.ReasonDangling
	}
	return idx, ""
}

// current returns the node a playing state points at and its index. The id recorded in
// history wins over a stale index.
func current(nodes []domain.Node, state *domain.State) (domain.Node, int, bool) {
	if n := len(state.History); n > 0 {
		last := state.History[n-1]
		if i := state.CurrentIndex; i >= 0 && i < len(nodes) && nodes[i].ID == last {
			return nodes[i], i, true
		}
		if i := domain.IndexOf(nodes, last); i >= 0 {
			return nodes[i], i, true
		}
		return domain.Node{}, -1, false
	}
	if i := state.CurrentIndex; i >= 0 && i < len(nodes) {
		return nodes[i], i, true
	}
	return domain.Node{}, -1, false
}

func collects(t domain.NodeType) bool {
	return t != domain.NodeTypeMessage && t != domain.NodeTypeVideo
}

func (e *Engine) complete(ctx context.Context, state *domain.State, lastNodeID string, reason domain.CompletionReason) {
	state.Status = domain.StatusCompleted
	e.emitComplete(ctx, state, lastNodeID, reason)
}

func (e *Engine) base(state *domain.State, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		SessionID: state.SessionID,
		ModuleID:  state.ModuleID,
	}
}

func (e *Engine) emitNodeEnter(ctx context.Context, state *domain.State, node domain.Node, idx int) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: e.base(state, domain.EventNodeEnter),
		NodeID:    node.ID,
		NodeType:  node.Type,
		Index:     idx,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, state *domain.State, node domain.Node, idx int) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: e.base(state, domain.EventNodeLeave),
		NodeID:    node.ID,
		NodeType:  node.Type,
		Index:     idx,
	})
}

func (e *Engine) emitComplete(ctx context.Context, state *domain.State, lastNodeID string, reason domain.CompletionReason) {
	if e.hooks.OnComplete == nil {
		return
	}
	e.hooks.OnComplete(ctx, &domain.CompletionEvent{
		EventBase:  e.base(state, domain.EventComplete),
		LastNodeID: lastNodeID,
		Reason:     reason,
		Visited:    len(state.History),
	})
}
