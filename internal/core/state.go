package core

import "fmt"

// State is a stage of a single load run.
type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating_inputs"
	StateExtracting   State = "extracting"
	StateCleaningUp   State = "cleaning_up"
	StateTransforming State = "transforming"
	StateInitializing State = "initializing"
	StateLoading      State = "loading"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// stateOrder is the only forward path through a run.
var stateOrder = []State{
	StateIdle,
	StateValidating,
	StateExtracting,
	StateCleaningUp,
	StateTransforming,
	StateInitializing,
	StateLoading,
	StateDone,
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Next returns the state that follows s on the success path.
func (s State) Next() (State, bool) {
	for i, st := range stateOrder {
		if st == s && i+1 < len(stateOrder) {
			return stateOrder[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether moving from s to to is allowed.
// Any non-terminal state may fail; otherwise only the next stage is reachable.
func (s State) CanTransition(to State) bool {
	if s.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	next, ok := s.Next()
	return ok && next == to
}

// Machine tracks the state of one run and rejects out-of-order transitions.
type Machine struct {
	state   State
	failure error
	history []State
}

// NewMachine returns a machine in StateIdle.
func NewMachine() *Machine {
	return &Machine{state: StateIdle, history: []State{StateIdle}}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// History returns every state entered, in order.
func (m *Machine) History() []State {
	out := make([]State, len(m.history))
	copy(out, m.history)
	return out
}

// Failure returns the error that moved the machine to StateFailed.
func (m *Machine) Failure() error {
	return m.failure
}

// Advance moves to the given stage.
func (m *Machine) Advance(to State) error {
	if to == StateFailed {
		return fmt.Errorf("use Fail to enter %s", StateFailed)
	}
	if !m.state.CanTransition(to) {
		return fmt.Errorf("invalid transition %s -> %s", m.state, to)
	}
	m.state = to
	m.history = append(m.history, to)
	return nil
}

// Fail records err and moves to StateFailed. Returns err for convenience.
func (m *Machine) Fail(err error) error {
	if m.state.Terminal() {
		return err
	}
	m.state = StateFailed
	m.failure = err
	m.history = append(m.history, StateFailed)
	return err
}
