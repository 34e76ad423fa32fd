// Package canvas derives the visual diagram of a module graph and turns editor gestures
// (connect, disconnect, drag, delete) back into Graph Store operations.
//
// Edges are never stored: they are recomputed from node connections on every render, so
// the diagram cannot drift from the graph it shows.
package canvas
