package cluster

// State tracks a single restart: Uninitialized → Initialized → Iterating → Converged | MaxIterationsReached.
type State int

const (
	Uninitialized State = iota
	Initialized
	Iterating
	Converged
	MaxIterationsReached
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Iterating:
		return "iterating"
	case Converged:
		return "converged"
	case MaxIterationsReached:
		return "max_iterations_reached"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further iterations will happen.
func (s State) Terminal() bool {
	return s == Converged || s == MaxIterationsReached
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
