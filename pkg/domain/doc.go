/*
Package domain contains the core domain models for the selector engine.

It defines the fundamental entities of the selection state machine, such as the
traversal Behavior, the persisted per-key State, and the Request/Result pair
exchanged with the host. This package is kept pure and free of external
dependencies like I/O or persistence.

# Key Entities

  - Behavior: The traversal policy (fix, increment, decrement, random, ping-pong).
  - State: The durable record kept per selector key (collection, index, direction).
  - Request / Result: One host invocation and the segment it resolved to.
  - Batch: Repeated outputs for several sub-selectors evaluated in one host call.
*/
package domain
