/*
Package domain contains the core data model of a learning module graph.

It defines the vocabulary shared by the editor and the player: typed nodes, their
configuration payloads, router choices, the module record that owns the graph, and the
playback state produced while a learner walks the graph. The package is kept pure and
free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Node: One step of a module (message, video, router, textInput, multipleChoice, ranking).
  - Config: A tagged union with one variant per node type. Only RouterConfig can fan out.
  - Module: The external record whose content.nodes array is the graph.
  - State: The runtime snapshot of a playback session (current index, responses, history).
*/
package domain
