/*
Package observability provides Prometheus metrics and lifecycle hooks for
the editor and the player.

Metrics collects graph mutations, playback transitions, completions and module
saves. Its Hooks and GraphListener methods plug straight into the player engine
and the graph store.
*/
package observability
