/*
Package selector is a stateful segment picker.

Given delimited text such as "red | green | blue", the Engine returns one segment per call and
remembers, per selector key, where to continue on the next call. The traversal policy decides how
the position moves:

  - fix: always the start index.
  - increment / decrement: one step forward or backward, wrapping around.
  - random: a uniform draw per call.
  - ping-pong: forward and back, bouncing at both ends.

When the text changes between calls the stored progress for that key is discarded and traversal
restarts from the start index.

# Usage

	eng := selector.New(selector.WithStore(store))

	res, err := eng.Select(ctx, domain.Request{
		Key:       "tab1",
		Text:      "red | green | blue",
		Delimiter: "|",
		Behavior:  domain.BehaviorIncrement,
	})

State is kept in a ports.StateStore. The adapters under pkg/adapters provide a single JSON/YAML
document (the default of the CLI), one file per key, Redis and Loam. Calls for the same key are
serialized; distinct keys run in parallel. Replicas sharing a Redis store can also share a Redis
lock through WithLocker.

Several sub-selectors can be evaluated in one call with Engine.Batch, which repeats each result and
joins the non-empty segments into a combined output.
*/
package selector
