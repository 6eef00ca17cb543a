/*
Package session serializes access to selector state.

Each selector key gets its own reference-counted mutex, so unrelated keys never
contend. When a ports.DistributedLocker is configured the same key is also
serialized across engine replicas sharing one store.
*/
package session
