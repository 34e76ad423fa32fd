/*
Package graph owns the mutable node collection of one module while it is being edited.

The Store is the single source of truth for the editor: the canvas, the configuration forms
and the autosaver all read snapshots from it and change it only through its operations.
Every operation is atomic with respect to other callers and never leaves a connection
pointing at a node that does not exist. Operations on unknown ids are silent no-ops that
report false, because gestures may race with deletes.
*/
package graph
