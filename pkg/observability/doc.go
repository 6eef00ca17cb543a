/*
Package observability provides tools for monitoring the selector engine.

Both Prometheus metrics and structured logs are exposed as domain.LifecycleHooks,
so they plug into the engine with selector.WithLifecycleHooks and can be combined
with LifecycleHooks.Merge.
*/
package observability
