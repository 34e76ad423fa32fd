/*
Package player walks a saved module graph one node at a time.

The Engine is a pure state machine over a node list: Start positions a session on the first
stored node, Advance resolves the successor from the learner's response, and Render builds the
typed View a node renderer displays. Traversal follows node ids, never array order; the stored
index only locates the current node.

A session completes whenever no valid successor is resolved:

  - a non-router node without a connection,
  - a router choice without a connection, or a response matching no choice,
  - a connection to a node that no longer exists.

An empty graph never starts: Start reports ErrEmptyGraph and an Empty state, which renderers
must present differently from completion.
*/
package player
