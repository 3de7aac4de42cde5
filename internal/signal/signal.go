package signal

import (
	"errors"
	"fmt"
	"reflect"
)

// Time is the timestamp signals are computed for: the control cycle counter.
type Time int64

// Port is the untyped view of a signal.
type Port interface {
	// Name returns the full path of the signal, "entity.signal".
	Name() string
	// TypeName returns the printable name of the value type.
	TypeName() string
	// Time returns the timestamp of the cached value.
	Time() Time
	// Valid reports whether a value is cached for Time.
	Valid() bool
	// Kind returns the rule the signal currently uses.
	Kind() RuleKind
	// Upstream returns the signals this one reads.
	Upstream() []Port
	// Invalidate drops the cached value of this signal and everything downstream.
	Invalidate()

	graphNode() *node
	plugFrom(src Port) error
}

// Signal is a typed, time-stamped, lazily recomputed value cell.
type Signal[T any] struct {
	node
	value T
	rule  rule[T]
}

// New creates an unset signal. name is the full path of the signal.
func New[T any](name string) *Signal[T] {
	s := &Signal[T]{}
	s.node = newNode(name, s)
	return s
}

// NewConstant creates a signal holding v for every timestamp.
func NewConstant[T any](name string, v T) *Signal[T] {
	s := New[T](name)
	s.rule = constantRule[T]{value: v}
	return s
}

// NewComputed creates a signal computed by fn from the declared dependencies.
func NewComputed[T any](name string, fn Func[T], deps ...Port) (*Signal[T], error) {
	s := New[T](name)
	if err := s.SetFunction(fn, deps...); err != nil {
		return nil, err
	}
	return s, nil
}

// Path joins an entity name and a signal name into a signal path.
func Path(entity, signal string) string {
	return entity + "." + signal
}

func (s *Signal[T]) Name() string { return s.name }

func (s *Signal[T]) TypeName() string { return reflect.TypeFor[T]().String() }

func (s *Signal[T]) Time() Time { return s.time }

func (s *Signal[T]) Valid() bool { return s.valid }

func (s *Signal[T]) Kind() RuleKind {
	if s.rule == nil {
		return RuleUnset
	}
	return s.rule.kind()
}

func (s *Signal[T]) Upstream() []Port {
	ports := make([]Port, 0, len(s.deps))
	for _, dep := range s.deps {
		ports = append(ports, dep.self)
	}
	return ports
}

func (s *Signal[T]) Invalidate() { s.invalidate() }

func (s *Signal[T]) graphNode() *node { return &s.node }

// Get returns the value of the signal at t, recomputing it when the cached
// value is for another timestamp or was invalidated.
func (s *Signal[T]) Get(t Time) (T, error) {
	if s.valid && s.time == t {
		return s.value, nil
	}

	var zero T
	if s.computing {
		return zero, &GraphCycleError{From: s.name, To: s.name, Path: []string{s.name, s.name}}
	}
	s.computing = true
	defer func() { s.computing = false }()

	var (
		v   T
		err error
	)
	switch r := s.rule.(type) {
	case nil:
		return zero, &UnsetSignalError{Signal: s.name}
	case constantRule[T]:
		v = r.value
	case computedRule[T]:
		v, err = r.fn(t)
		if err != nil {
			return zero, fmt.Errorf("computing %s at t=%d: %w", s.name, t, err)
		}
	case pluggedRule[T]:
		v, err = r.src.Get(t)
		if err != nil {
			return zero, err
		}
	default:
		return zero, fmt.Errorf("signal %s: unknown rule %T", s.name, r)
	}

	s.value = v
	s.time = t
	s.valid = true
	return v, nil
}

// Peek returns the cached value and its timestamp without recomputing.
func (s *Signal[T]) Peek() (T, Time, bool) {
	return s.value, s.time, s.valid
}

// Set makes the signal a constant holding v. Any previous plug or function
// is dropped.
func (s *Signal[T]) Set(v T) {
	s.setRule(constantRule[T]{value: v}, nil)
}

// SetFunction makes the signal computed by fn. deps are the signals fn
// reads; declaring one that already depends on s fails with GraphCycleError
// and leaves s unchanged.
func (s *Signal[T]) SetFunction(fn Func[T], deps ...Port) error {
	if fn == nil {
		return errors.New("signal function must not be nil")
	}
	nodes := portNodes(deps)
	for _, dep := range nodes {
		if reaches(dep, &s.node) {
			return &GraphCycleError{From: dep.name, To: s.name}
		}
	}
	s.setRule(computedRule[T]{fn: fn}, nodes)
	return nil
}

// Unplug drops the rule of the signal, leaving it unset.
func (s *Signal[T]) Unplug() {
	s.setRule(nil, nil)
}

// Source returns the signal s is plugged from, if any.
func (s *Signal[T]) Source() (*Signal[T], bool) {
	if p, ok := s.rule.(pluggedRule[T]); ok {
		return p.src, true
	}
	return nil, false
}

func (s *Signal[T]) setRule(r rule[T], deps []*node) {
	s.relink(deps)
	s.rule = r
	s.invalidate()
}

func (s *Signal[T]) plugFrom(src Port) error {
	typed, ok := src.(*Signal[T])
	if !ok {
		return &TypeMismatchError{
			Source:     src.Name(),
			SourceType: src.TypeName(),
			Target:     s.name,
			TargetType: s.TypeName(),
		}
	}
	return Plug(typed, s)
}

// Plug makes dst read src. A previous plug of dst is replaced. When src
// already depends on dst the plug fails with GraphCycleError and the graph is
// left unchanged.
func Plug[T any](src, dst *Signal[T]) error {
	if src == nil || dst == nil {
		return errors.New("plug: source and destination signals are required")
	}
	if reaches(&src.node, &dst.node) {
		return &GraphCycleError{From: src.name, To: dst.name}
	}
	dst.setRule(pluggedRule[T]{src: src}, []*node{&src.node})
	return nil
}

// PlugPorts plugs two untyped ports, checking that they carry the same value
// type.
func PlugPorts(src, dst Port) error {
	if src == nil || dst == nil {
		return errors.New("plug: source and destination signals are required")
	}
	return dst.plugFrom(src)
}
