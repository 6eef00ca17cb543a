/*
Package ports defines the driven and driving ports (interfaces) for the selector engine.

These interfaces decouple the selection state machine from external implementations,
allowing the engine to work with various storage backends and lock providers, and
allowing hosts (CLI, HTTP, MCP) to drive any engine implementation.

# Key Interfaces

  - StateStore: Responsible for persisting and loading the State of one selector key.
  - Snapshotter: Whole-mapping load/save, for stores that keep every key in one document.
  - DistributedLocker: Provides distributed locking for concurrent access to one key.
  - Selector: The operations hosts invoke on an engine.
*/
package ports
