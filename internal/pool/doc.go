// Package pool provides the session-owned registry of controller entities.
//
// # Why Pool Exists
//
// Every feature, task, gain and model of a controller is addressed by a
// unique name: the composition layer wires signals by path
// ("taskWrist.error"), the introspection endpoints list tasks and features,
// and the graph export walks every registered signal. The pool is that
// name → entity mapping. It is owned explicitly by a controller session;
// there is no process-wide instance.
//
// # Responsibilities
//
//   - Registration: names are unique, a second entity with the same name is
//     rejected with ObjectConflictError.
//   - Lookup: unknown names fail with UnknownObjectError.
//   - Name-based wiring: Plug("src.sig", "dst.sig") resolves both paths and
//     plugs them with a value type check.
//   - Export: WriteGraph renders entities and plugs as a graphviz digraph.
//
// # Thread-Safety
//
// The registry map is guarded by a RWMutex. The signals the entities own are
// not: they belong to the control loop goroutine.
package pool
