// =============================================================================
// Tariff Import Pipeline - Import State Machine
// =============================================================================
//
// The import runs through an explicit finite-state machine. States are
// enumerated, transitions are a pure function, and nothing here knows about
// rendering; any surface (CLI today, dashboard tomorrow) drives the same
// machine.
//
//   Upload -> Processing -> Validated -> Preview -> Importing -> Done
//                 |             |
//                 v             v
//              Failed        Blocked (missing required columns)
//
// The Validated -> Preview edge is the first user gate: it requires explicit
// confirmation when invalid rows exist, and none when the report carries
// only warnings. The Preview -> Importing edge is the second gate, taken
// after the unmatched-agent advisory has been shown.
//
// =============================================================================

package pipeline

import "fmt"

// State enumerates the import steps.
type State int

const (
	StateUpload State = iota
	StateProcessing
	StateValidated
	StateBlocked
	StatePreview
	StateImporting
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateUpload:     "upload",
	StateProcessing: "processing",
	StateValidated:  "validated",
	StateBlocked:    "blocked",
	StatePreview:    "preview",
	StateImporting:  "importing",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition leaves the state.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateBlocked
}

// transitions is the full edge set of the machine.
var transitions = map[State][]State{
	StateUpload:     {StateProcessing},
	StateProcessing: {StateValidated, StateBlocked, StateFailed},
	StateValidated:  {StatePreview, StateFailed},
	StatePreview:    {StateImporting, StateFailed},
	StateImporting:  {StateDone, StateFailed},
}

// CanTransition is the pure transition predicate.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// advance moves the pipeline or reports the illegal edge.
func (p *Pipeline) advance(to State) error {
	if !CanTransition(p.state, to) {
		return fmt.Errorf("illegal state transition %s -> %s", p.state, to)
	}
	p.log.WithField("from", p.state.String()).WithField("to", to.String()).Debug("import state transition")
	p.state = to
	return nil
}
