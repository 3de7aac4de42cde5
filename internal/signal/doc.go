// Package signal implements the lazy, timestamp-gated dataflow graph the
// controller is built on.
//
// # Signals
//
// A Signal[T] is a typed value cell stamped with the Time it was computed
// for. Reading a signal with Get(t) returns the cached value when it was
// already computed for t and nothing upstream changed since; otherwise the
// signal runs its rule, caches (value, t) and returns the value. Reading is
// therefore a topological pull: a rule that reads upstream signals forces
// them first, and every signal is recomputed at most once per timestamp.
//
// # Rules
//
// The way a signal produces its value is one of a closed set of variants:
//
//   - constant: an explicit value set with Set, valid for every timestamp
//   - computed: a function of the timestamp with declared dependencies
//   - plugged: a copy of another signal of the same type
//
// A signal with no rule is unset and fails with UnsetSignalError when read.
//
// # Plugs and invalidation
//
// Plug(src, dst) makes dst read src. Plugging an input that is already
// plugged replaces the previous edge (last plug wins). Any rule change
// invalidates the signal and everything downstream of it, so no stale value
// survives a rewiring even when the timestamp does not move.
//
// The dependency graph is kept acyclic: a plug or a function declaration
// that would close a cycle fails with GraphCycleError and leaves the graph
// untouched.
//
// # Ports
//
// Port is the untyped view of a signal used by entity registries and
// name-based wiring. PlugPorts checks the value types at wiring time and
// fails with TypeMismatchError when they differ.
//
// # Thread-Safety
//
// Signals are not safe for concurrent use. One goroutine, the control loop,
// owns the graph; other goroutines hand mutations to the loop instead of
// touching signals directly.
package signal
