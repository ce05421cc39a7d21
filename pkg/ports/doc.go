/*
Package ports defines the driven ports (interfaces) of the Mermaid visualizer.

These interfaces decouple the conversion logic from external implementations,
allowing the converter to work with different generative APIs, cache backends
and lock providers.

# Key Interfaces

  - Generator: Sends a prompt to a text-generation service and returns its answer.
  - Cache: Stores previous answers keyed by a digest of the input text.
  - DistributedLocker: Provides distributed locking across replicas.
*/
package ports
