package domain

import "errors"

// ErrModuleNotFound is returned when a module id cannot be found in the store.
var ErrModuleNotFound = errors.New("module not found")

// ErrSessionNotFound is returned when a playback session id cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptyGraph is returned when a module has no nodes to play.
// It is distinct from normal completion.
var ErrEmptyGraph = errors.New("module has no nodes to play")

// ErrUnknownNodeType is returned when decoding a node whose type is outside the closed set.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrNodeNotFound is returned by gesture handlers (never by store mutations) when
// a referenced node does not exist.
var ErrNodeNotFound = errors.New("node not found")

// ErrChoiceNotFound is returned when a router choice id does not exist.
var ErrChoiceNotFound = errors.New("choice not found")

// ErrSelfConnection is returned when a node is wired to itself.
var ErrSelfConnection = errors.New("a node cannot connect to itself")

// ErrNotRouter is returned when a choice-specific operation targets a non-router node.
var ErrNotRouter = errors.New("node is not a router")

// ErrMediaNotFound is returned when a media object does not exist.
var ErrMediaNotFound = errors.New("media object not found")

// ErrPlaybackFinished is returned when advancing a session that is no longer playing.
var ErrPlaybackFinished = errors.New("playback already finished")
