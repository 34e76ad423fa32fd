/*
Package nestflow builds and plays learning modules shaped as directed graphs.

A module owns an ordered list of nodes. Each node has one of six types (message, video,
router, textInput, multipleChoice, ranking) and a configuration specific to that type.
Non-router nodes point to at most one successor; routers branch once per choice. The node
at index 0 is where playback starts.

# Concept

The editor mutates a graph through the Graph Store (pkg/graph), driven by the canvas
(pkg/canvas) and the configuration forms (pkg/forms). The graph is written back to the
module record wholesale, either debounced (pkg/autosave) or per request (pkg/editor).

The player (pkg/player) is a small state machine: it starts at index 0, renders the current
node, collects a response and resolves the successor. A router configured as an overlay
is drawn above the frozen previous node. Playback completes when a node has no valid
successor or the learner finishes early.

# Usage

	engine, err := nestflow.New(".nestflow/modules")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	engine.CreateModule(ctx, "onboarding", "Onboarding")
	engine.Edit(ctx, "onboarding", func(ws *editor.Workspace) error {
		ws.Graph.AddNode(domain.NodeTypeMessage)
		return nil
	})

	state, err := engine.Start(ctx, "onboarding")
	view, err := engine.View(ctx, state.SessionID)

# Adapters

Module records can live in memory, as JSON files, in Redis, as Markdown documents (Loam)
or in SQLite. Playback sessions use the same adapters and may be wrapped in
encryption and redaction middleware (pkg/persistence/middleware). The HTTP and MCP
adapters expose the editor and the player to other processes.
*/
package nestflow
