// Package config defines the format-agnostic model of a controller
// assembly: the controller timing, the robot model and the ordered list of
// tasks to stack.
//
// The Model is what the app package builds a controller from. Loading it
// from a concrete format is the job of a Loader implementation, such as the
// HCL one in the hcl package.
package config
