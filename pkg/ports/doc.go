/*
Package ports defines the driven ports (interfaces) of the flowchart service.

These interfaces decouple the core logic from external implementations, allowing
the Manager to work with various storage backends and lock providers.

# Key Interfaces

  - FlowchartStore: Responsible for persisting flowcharts under server-assigned IDs.
  - DistributedLocker: Provides distributed locking for concurrent access across replicas.
*/
package ports
