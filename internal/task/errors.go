package task

import "fmt"

// DimensionMismatchError is returned when the blocks of a task cannot be
// stacked: a feature whose error and Jacobian row counts differ, or features
// whose Jacobians have different column counts.
type DimensionMismatchError struct {
	Task    string
	Feature string
	What    string
	Got     int
	Want    int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("task %s: feature %s has %d %s, expected %d", e.Task, e.Feature, e.Got, e.What, e.Want)
}

// DuplicateFeatureError is returned when a feature is added twice to a task.
type DuplicateFeatureError struct {
	Task    string
	Feature string
}

func (e *DuplicateFeatureError) Error() string {
	return fmt.Sprintf("task %s already contains feature %s", e.Task, e.Feature)
}

// UnknownFeatureError is returned when removing a feature the task does not
// contain.
type UnknownFeatureError struct {
	Task    string
	Feature string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("task %s has no feature %s", e.Task, e.Feature)
}
