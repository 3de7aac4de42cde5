package signal

import (
	"fmt"
	"strings"
)

// UnsetSignalError is returned when a signal with neither a value nor a rule
// is read.
type UnsetSignalError struct {
	Signal string
}

func (e *UnsetSignalError) Error() string {
	return fmt.Sprintf("signal %q is unset: it has no value and no plug", e.Signal)
}

// GraphCycleError is returned when a plug or a dependency declaration would
// close a cycle, or when a signal is re-entered while it is computing.
type GraphCycleError struct {
	From string
	To   string
	Path []string
}

func (e *GraphCycleError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("dependency cycle: plugging %q into %q would close a loop", e.From, e.To)
}

// TypeMismatchError is returned by PlugPorts when the two ports carry
// different value types.
type TypeMismatchError struct {
	Source     string
	SourceType string
	Target     string
	TargetType string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot plug %q (%s) into %q (%s): value types differ",
		e.Source, e.SourceType, e.Target, e.TargetType)
}
