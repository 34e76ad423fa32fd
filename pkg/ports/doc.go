/*
Package ports defines the driven ports (interfaces) of the module editor and player.

These interfaces decouple the graph store, autosaver and playback engine from the systems
that hold module records, playback sessions and media objects.

# Key Interfaces

  - ModuleStore: Persists whole module records, including the serialized node graph.
  - ContentStore: Loads and saves only the node graph of a module (the editor's view).
  - SessionStore: Persists playback State so a learner can resume.
  - MediaStore / MediaResolver: Resolve media object names to public URLs.
  - DistributedLocker: Serializes writes to one module or session across replicas.
*/
package ports
