// Package app contains the controller application. It assembles a task
// stack from a loaded configuration, runs the periodic control loop and
// serves the health and introspection endpoints, decoupled from any
// specific entrypoint like a CLI.
//
// # Lifecycle
//
// NewApp loads the configuration and builds every entity: the linear
// model, one meta task per declared task, the solver and the controller.
// Run then drives Controller.Cycle on a ticker until the cycle limit is
// reached or the context is cancelled, publishing every report to the
// telemetry publisher and the trace store.
//
// # Thread-Safety
//
// The control loop is the only goroutine touching the signal graph. HTTP
// handlers read controller snapshots and change the stack through
// Controller.Defer, so their mutations land between two cycles.
package app
