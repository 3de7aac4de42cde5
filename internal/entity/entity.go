// Package entity provides the named owner of a set of signals: the
// addressable node of the controller graph.
package entity

import (
	"fmt"
	"sort"

	"github.com/vk/sotgo/internal/signal"
)

// Object is anything the registry can hold: features, tasks, gains, models.
type Object interface {
	Name() string
	Class() string
	Signal(name string) (signal.Port, error)
	Signals() []signal.Port
}

// Entity is the base every controller object embeds. It keeps its signals
// in registration order.
type Entity struct {
	name    string
	class   string
	order   []string
	signals map[string]signal.Port
}

// New creates an entity with no signals.
func New(class, name string) *Entity {
	return &Entity{
		name:    name,
		class:   class,
		signals: make(map[string]signal.Port),
	}
}

func (e *Entity) Name() string  { return e.name }
func (e *Entity) Class() string { return e.class }

// SignalPath returns the full path of one of the entity's signals.
func (e *Entity) SignalPath(short string) string {
	return signal.Path(e.name, short)
}

// Register adds signals under their short names. Registering a name twice
// is a programmer error and panics.
func (e *Entity) Register(short string, p signal.Port) {
	if _, exists := e.signals[short]; exists {
		panic(fmt.Sprintf("entity %s: signal %q registered twice", e.name, short))
	}
	e.signals[short] = p
	e.order = append(e.order, short)
}

// Signal looks a signal up by its short name.
func (e *Entity) Signal(short string) (signal.Port, error) {
	p, ok := e.signals[short]
	if !ok {
		return nil, fmt.Errorf("entity %s (%s) has no signal %q; available: %v", e.name, e.class, short, e.SignalNames())
	}
	return p, nil
}

// Signals returns the signals in registration order.
func (e *Entity) Signals() []signal.Port {
	ports := make([]signal.Port, 0, len(e.order))
	for _, short := range e.order {
		ports = append(ports, e.signals[short])
	}
	return ports
}

// SignalNames returns the short signal names, sorted.
func (e *Entity) SignalNames() []string {
	names := append([]string(nil), e.order...)
	sort.Strings(names)
	return names
}
