// Package controller runs the control loop over a stack of tasks.
//
// # Why the Controller Exists
//
// The signal graph is lazy: nothing is computed until somebody asks for a
// value at a timestamp. The controller is that somebody. Once per cycle it
// advances the time, moves the model to it, pulls the (error, Jacobian,
// gain) triple of every stacked task in priority order, hands them to the
// solver and dispatches the resulting joint command.
//
// # Responsibilities
//
//   - Owning the ordered task stack. Order is priority: the first task is
//     solved first and the others only use the freedom it leaves.
//   - Guarding the stack during the pull. While the triples are being read,
//     Push, Remove, Up, Down, Clear and feature membership changes fail with
//     ErrStackBusy.
//   - Applying deferred mutations. Defer queues a function from any
//     goroutine; queued functions run on the loop at the start of the next
//     cycle, before anything is pulled.
//   - Failing a cycle cleanly. Any error while pulling, solving or
//     dispatching ends the cycle without sending a command. The returned
//     Report carries the error; commands of earlier cycles are untouched.
//
// # Thread-Safety
//
// Cycle and the stack methods must be called from a single goroutine, the
// loop. Defer and Snapshot are safe from any goroutine.
package controller
