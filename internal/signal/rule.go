package signal

// Func computes the value of a signal for a timestamp. It must be pure and
// bounded in time: it runs inside the control cycle.
type Func[T any] func(t Time) (T, error)

// RuleKind names the variant a signal currently uses to produce its value.
type RuleKind int

const (
	RuleUnset RuleKind = iota
	RuleConstant
	RuleComputed
	RulePlugged
)

func (k RuleKind) String() string {
	switch k {
	case RuleConstant:
		return "constant"
	case RuleComputed:
		return "computed"
	case RulePlugged:
		return "plugged"
	default:
		return "unset"
	}
}

// rule is the closed set of recompute variants. Get dispatches on the
// concrete type.
type rule[T any] interface {
	kind() RuleKind
}

type constantRule[T any] struct {
	value T
}

func (constantRule[T]) kind() RuleKind { return RuleConstant }

type computedRule[T any] struct {
	fn Func[T]
}

func (computedRule[T]) kind() RuleKind { return RuleComputed }

type pluggedRule[T any] struct {
	src *Signal[T]
}

func (pluggedRule[T]) kind() RuleKind { return RulePlugged }
