package graph

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/aretw0/nestflow/internal/logging"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// Op names a kind of graph mutation.
type Op string

const (
	OpAdd        Op = "add"
	OpDelete     Op = "delete"
	OpConfig     Op = "config"
	OpConnect    Op = "connect"
	OpDisconnect Op = "disconnect"
	OpMove       Op = "move"
)

// Change describes one applied mutation. It is delivered to subscribers after the
// store lock has been released.
type Change struct {
	Op     Op
	NodeID string
}

// Listener observes applied mutations.
type Listener func(Change)

// DefaultOrigin is where the first added node is placed.
var DefaultOrigin = domain.Position{X: 240, Y: 180}

// StaggerOffset separates consecutive new nodes so they never stack exactly.
const StaggerOffset = 50

// Store maintains the ordered collection of nodes for one module.
// Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	nodes []domain.Node

	newID  func() string
	origin domain.Position
	logger *slog.Logger

	lmu       sync.Mutex
	listeners map[int]Listener
	nextLID   int
}

// Option configures the Store.
type Option func(*Store)

// WithIDGenerator replaces the uuid-based node id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// WithOrigin sets where the first new node is placed.
func WithOrigin(p domain.Position) Option {
	return func(s *Store) {
		s.origin = p
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty graph store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		nodes:     []domain.Node{},
		newID:     NewNodeID,
		origin:    DefaultOrigin,
		logger:    logging.NewNop(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewNodeID generates a fresh, never reused node id.
func NewNodeID() string {
	return "node-" + uuid.NewString()
}

// NewChoiceID generates a fresh router or multiple-choice choice id.
func NewChoiceID() string {
	return "choice-" + uuid.NewString()
}

// Load replaces the whole graph, as done once when the editor opens.
// Subscribers are not notified: a load is not an edit.
func (s *Store) Load(nodes []domain.Node) {
	cloned := domain.CloneNodes(nodes)
	if cloned == nil {
		cloned = []domain.Node{}
	}
	s.mu.Lock()
	s.nodes = cloned
	s.mu.Unlock()
}

// Nodes returns a deep copy of the ordered node collection.
func (s *Store) Nodes() []domain.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := domain.CloneNodes(s.nodes)
	if out == nil {
		out = []domain.Node{}
	}
	return out
}

// Node returns a deep copy of a single node.
func (s *Store) Node(id string) (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := domain.IndexOf(s.nodes, id); i >= 0 {
		return s.nodes[i].Clone(), true
	}
	return domain.Node{}, false
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.lmu.Lock()
	id := s.nextLID
	s.nextLID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.lmu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// AddNode appends a node of type t with a fresh id, a staggered position and type defaults.
// An unknown type adds nothing and returns the zero Node; use Add to get the error.
func (s *Store) AddNode(t domain.NodeType) domain.Node {
	n, _ := s.Add(t)
	return n
}

// Add is AddNode for types that come from outside the program.
func (s *Store) Add(t domain.NodeType) (domain.Node, error) {
	if !t.Valid() {
		return domain.Node{}, fmt.Errorf("add node %q: %w", t, domain.ErrUnknownNodeType)
	}
	s.mu.Lock()
	offset := float64(len(s.nodes) * StaggerOffset)
	pos := domain.Position{X: s.origin.X + offset, Y: s.origin.Y + offset}
	node := domain.NewNode(s.newID(), t, pos)
	s.nodes = append(s.nodes, node)
	s.mu.Unlock()

	s.logger.Debug("Node added", "node_id", node.ID, "type", t)
	s.notify(Change{Op: OpAdd, NodeID: node.ID})
	return node.Clone(), nil
}

// DeleteNode removes a node and, in the same critical section, clears every connection
// and router choice that pointed at it. Deleting an unknown id is a no-op.
func (s *Store) DeleteNode(id string) bool {
	s.mu.Lock()
	idx := domain.IndexOf(s.nodes, id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	scrubbed := 0
	for i := range s.nodes {
		if i == idx {
			continue
		}
		scrubbed += clearTarget(&s.nodes[i], id)
	}
	s.nodes = append(s.nodes[:idx], s.nodes[idx+1:]...)
	s.mu.Unlock()

	s.logger.Debug("Node deleted", "node_id", id, "scrubbed_refs", scrubbed)
	s.notify(Change{Op: OpDelete, NodeID: id})
	return true
}

// clearTarget removes every outgoing reference from n to target and returns how many it cleared.
func clearTarget(n *domain.Node, target string) int {
	cleared := 0
	switch cfg := n.Config.(type) {
	case *domain.RouterConfig:
		for i := range cfg.Choices {
			if cfg.Choices[i].Connection == target {
				cfg.Choices[i].Connection = ""
				cleared++
			}
		}
	case domain.Linear:
		if cfg.Next() == target {
			cfg.SetNext("")
			cleared++
		}
	}
	return cleared
}

// UpdateNodeConfig shallow-merges patch into the node's config: keys present in patch
// replace the matching field wholesale (nested objects and lists included), and absent keys
// are untouched.
// Keys that are not fields of the node's variant are ignored, including "connection",
// which only changes through the connection operations. Unknown node ids are a no-op.
func (s *Store) UpdateNodeConfig(id string, patch map[string]any) (bool, error) {
	if len(patch) == 0 {
		return false, nil
	}

	s.mu.Lock()
	idx := domain.IndexOf(s.nodes, id)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	node := &s.nodes[idx]

	// Decode onto a copy so a malformed patch leaves the node untouched.
	next := node.Config.Clone()
	clearFields(reflect.ValueOf(next).Elem(), patch)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           next,
		ZeroFields:       true,
		WeaklyTypedInput: true,
		Squash:           true,
	})
	if err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(patch); err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("invalid %s config patch for node %s: %w", node.Type, id, err)
	}

	s.sanitize(idx, next)
	node.Config = next
	if title, ok := patch["title"].(string); ok {
		node.Title = title
	}
	s.mu.Unlock()

	s.logger.Debug("Node config updated", "node_id", id, "keys", len(patch))
	s.notify(Change{Op: OpConfig, NodeID: id})
	return true, nil
}

// EditConfig applies a typed mutation to a copy of the node's config and commits it.
// edit must not call back into the Store. Returning false discards the copy.
func (s *Store) EditConfig(id string, edit func(domain.Config) bool) bool {
	s.mu.Lock()
	idx := domain.IndexOf(s.nodes, id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	node := &s.nodes[idx]
	next := node.Config.Clone()
	if !edit(next) {
		s.mu.Unlock()
		return false
	}
	s.sanitize(idx, next)
	if title := next.Common().Title; title != node.Config.Common().Title {
		node.Title = title
	}
	node.Config = next
	s.mu.Unlock()

	s.notify(Change{Op: OpConfig, NodeID: id})
	return true
}

// sanitize restores invariants on a config about to replace nodes[idx].Config:
// routers stay required, choice ids stay unique and choices may only reference existing nodes.
// Callers must hold s.mu.
func (s *Store) sanitize(idx int, cfg domain.Config) {
	rc, ok := cfg.(*domain.RouterConfig)
	if !ok {
		return
	}
	rc.Normalize()
	seen := make(map[string]bool, len(rc.Choices))
	kept := rc.Choices[:0]
	for _, c := range rc.Choices {
		if seen[c.ID] {
			s.logger.Warn("Dropping duplicate router choice",
				"node_id", s.nodes[idx].ID,
				"choice_id", c.ID,
			)
			continue
		}
		seen[c.ID] = true
		kept = append(kept, c)
	}
	rc.Choices = kept
	for i := range rc.Choices {
		if target := rc.Choices[i].Connection; target != "" && domain.IndexOf(s.nodes, target) < 0 {
			s.logger.Warn("Dropping choice connection to unknown node",
				"node_id", s.nodes[idx].ID,
				"choice_id", rc.Choices[i].ID,
				"target_id", target,
			)
			rc.Choices[i].Connection = ""
		}
	}
}

// UpdateNodeConnection sets the single successor of a non-router node. An empty target
// clears it, marking the node terminal. Routers, unknown sources and unknown targets are no-ops.
func (s *Store) UpdateNodeConnection(id, targetID string) bool {
	s.mu.Lock()
	idx := domain.IndexOf(s.nodes, id)
	if idx < 0 || (targetID != "" && domain.IndexOf(s.nodes, targetID) < 0) {
		s.mu.Unlock()
		return false
	}
	link, ok := s.nodes[idx].Config.(domain.Linear)
	if !ok {
		s.mu.Unlock()
		return false
	}
	link.SetNext(targetID)
	s.mu.Unlock()

	s.logger.Debug("Node connection updated", "node_id", id, "target_id", targetID)
	s.notify(Change{Op: connectOp(targetID), NodeID: id})
	return true
}

// UpdateRouterConnection sets the successor of one router choice. An empty target clears it.
// Unknown nodes, non-routers, unknown choices and unknown targets are no-ops.
func (s *Store) UpdateRouterConnection(id, choiceID, targetID string) bool {
	s.mu.Lock()
	idx := domain.IndexOf(s.nodes, id)
	if idx < 0 || (targetID != "" && domain.IndexOf(s.nodes, targetID) < 0) {
		s.mu.Unlock()
		return false
	}
	rc, ok := s.nodes[idx].Router()
	if !ok {
		s.mu.Unlock()
		return false
	}
	choice, ok := rc.Choice(choiceID)
	if !ok {
		s.mu.Unlock()
		return false
	}
	choice.Connection = targetID
	s.mu.Unlock()

	s.logger.Debug("Router connection updated", "node_id", id, "choice_id", choiceID, "target_id", targetID)
	s.notify(Change{Op: connectOp(targetID), NodeID: id})
	return true
}

// RemoveConnection clears the outgoing references of sourceID that point at targetID:
// the single connection when it matches, or every matching router choice.
func (s *Store) RemoveConnection(sourceID, targetID string) bool {
	if targetID == "" {
		return false
	}
	s.mu.Lock()
	idx := domain.IndexOf(s.nodes, sourceID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	cleared := clearTarget(&s.nodes[idx], targetID)
	s.mu.Unlock()

	if cleared == 0 {
		return false
	}
	s.logger.Debug("Connection removed", "node_id", sourceID, "target_id", targetID, "cleared", cleared)
	s.notify(Change{Op: OpDisconnect, NodeID: sourceID})
	return true
}

// MoveNode updates only the node's position.
func (s *Store) MoveNode(id string, pos domain.Position) bool {
	s.mu.Lock()
	idx := domain.IndexOf(s.nodes, id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.nodes[idx].Position = pos
	s.mu.Unlock()

	s.notify(Change{Op: OpMove, NodeID: id})
	return true
}

func connectOp(targetID string) Op {
	if targetID == "" {
		return OpDisconnect
	}
	return OpConnect
}

// clearFields zeroes every field of v named by a key of patch, descending into squashed
// embedded structs, so the decoder replaces those fields instead of merging into them.
func clearFields(v reflect.Value, patch map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if f.Anonymous && strings.Contains(opts, "squash") {
			clearFields(v.Field(i), patch)
			continue
		}
		if name == "" || name == "-" || !f.IsExported() {
			continue
		}
		if _, ok := patch[name]; ok {
			v.Field(i).Set(reflect.Zero(f.Type))
		}
	}
}
