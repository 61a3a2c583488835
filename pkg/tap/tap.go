package tap

import "fmt"

// State is one of the 16 IEEE 1149.1 TAP controller states.
type State uint8

const (
	StateTestLogicReset State = iota
	StateRunTestIdle
	StateSelectDRScan
	StateCaptureDR
	StateShiftDR
	StateExit1DR
	StatePauseDR
	StateExit2DR
	StateUpdateDR
	StateSelectIRScan
	StateCaptureIR
	StateShiftIR
	StateExit1IR
	StatePauseIR
	StateExit2IR
	StateUpdateIR

	stateCount = 16
)

var stateNames = [stateCount]string{
	"TestLogicReset",
	"RunTestIdle",
	"SelectDRScan",
	"CaptureDR",
	"ShiftDR",
	"Exit1DR",
	"PauseDR",
	"Exit2DR",
	"UpdateDR",
	"SelectIRScan",
	"CaptureIR",
	"ShiftIR",
	"Exit1IR",
	"PauseIR",
	"Exit2IR",
	"UpdateIR",
}

func (s State) String() string {
	if s < stateCount {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Valid reports whether s names a defined TAP state.
func (s State) Valid() bool {
	return s < stateCount
}

// IRPath reports whether s sits on the instruction-register arm of the state
// diagram. Shift dispatch uses this to pick the IR or DR primitive.
func (s State) IRPath() bool {
	return s >= StateSelectIRScan
}

// transitions[s] holds the successor states for TMS=0 and TMS=1.
var transitions = [stateCount][2]State{
	StateTestLogicReset: {StateRunTestIdle, StateTestLogicReset},
	StateRunTestIdle:    {StateRunTestIdle, StateSelectDRScan},
	StateSelectDRScan:   {StateCaptureDR, StateSelectIRScan},
	StateCaptureDR:      {StateShiftDR, StateExit1DR},
	StateShiftDR:        {StateShiftDR, StateExit1DR},
	StateExit1DR:        {StatePauseDR, StateUpdateDR},
	StatePauseDR:        {StatePauseDR, StateExit2DR},
	StateExit2DR:        {StateShiftDR, StateUpdateDR},
	StateUpdateDR:       {StateRunTestIdle, StateSelectDRScan},
	StateSelectIRScan:   {StateCaptureIR, StateTestLogicReset},
	StateCaptureIR:      {StateShiftIR, StateExit1IR},
	StateShiftIR:        {StateShiftIR, StateExit1IR},
	StateExit1IR:        {StatePauseIR, StateUpdateIR},
	StatePauseIR:        {StatePauseIR, StateExit2IR},
	StateExit2IR:        {StateShiftIR, StateUpdateIR},
	StateUpdateIR:       {StateRunTestIdle, StateSelectDRScan},
}

// NextState returns the state reached by clocking TCK once with the given TMS
// level. Invalid states panic; they cannot be produced through the exported
// API.
func NextState(current State, tms bool) State {
	if !current.Valid() {
		panic(fmt.Sprintf("tap: unhandled state %d", current))
	}
	if tms {
		return transitions[current][1]
	}
	return transitions[current][0]
}

// Sequence pairs a TMS drive pattern with the states the controller passes
// through while the pattern is applied. States has one more entry than TMS:
// the starting state.
type Sequence struct {
	TMS    []bool
	States []State
}

// StateMachine mirrors the TAP controller state locally. It performs no I/O;
// it produces TMS sequences for an adapter to drive and tracks where the
// hardware controller must be afterwards.
type StateMachine struct {
	state State
}

// NewStateMachine returns a machine initialized to Test-Logic-Reset, the
// state five TMS=1 clocks force from anywhere.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateTestLogicReset}
}

// State reports the tracked TAP state.
func (m *StateMachine) State() State {
	return m.state
}

// Clock advances one TCK cycle with the given TMS bit and returns the new
// state.
func (m *StateMachine) Clock(tms bool) State {
	m.state = NextState(m.state, tms)
	return m.state
}

// Reset produces the five TMS=1 clocks that force Test-Logic-Reset from any
// state, advancing the machine as a side effect.
func (m *StateMachine) Reset() Sequence {
	seq := Sequence{
		TMS:    make([]bool, 5),
		States: make([]State, 6),
	}
	seq.States[0] = m.state
	for i := range seq.TMS {
		seq.TMS[i] = true
		seq.States[i+1] = m.Clock(true)
	}
	return seq
}

// GoTo computes the shortest TMS sequence from the current state to target
// and advances the machine along it. The empty sequence is returned when the
// machine is already at target.
func (m *StateMachine) GoTo(target State) (Sequence, error) {
	seq, err := shortestPath(m.state, target)
	if err != nil {
		return Sequence{}, err
	}
	for _, tms := range seq.TMS {
		m.Clock(tms)
	}
	return seq, nil
}

// shortestPath runs a breadth-first search over the state diagram. The graph
// has 16 nodes with out-degree 2, so the search is trivially bounded.
func shortestPath(from, to State) (Sequence, error) {
	if !from.Valid() {
		return Sequence{}, fmt.Errorf("tap: invalid start state %d", from)
	}
	if !to.Valid() {
		return Sequence{}, fmt.Errorf("tap: invalid target state %d", to)
	}
	if from == to {
		return Sequence{States: []State{from}}, nil
	}

	type node struct {
		tms    []bool
		states []State
	}
	frontier := []node{{states: []State{from}}}
	var visited [stateCount]bool
	visited[from] = true

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		at := cur.states[len(cur.states)-1]

		for _, tms := range []bool{false, true} {
			next := NextState(at, tms)
			if visited[next] {
				continue
			}
			visited[next] = true
			child := node{
				tms:    append(append([]bool(nil), cur.tms...), tms),
				states: append(append([]State(nil), cur.states...), next),
			}
			if next == to {
				return Sequence{TMS: child.tms, States: child.states}, nil
			}
			frontier = append(frontier, child)
		}
	}

	return Sequence{}, fmt.Errorf("tap: no path from %s to %s", from, to)
}
