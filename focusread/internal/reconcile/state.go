// Package reconcile keeps response roots transformed while the host
// document changes underneath them. A single loop goroutine owns every
// pass; timers only tell that loop which trigger fired.
package reconcile

// State is the per-root reconciliation state.
type State int

const (
	Unprocessed State = iota
	Processed
	Invalidated
)

func (s State) String() string {
	switch s {
	case Unprocessed:
		return "unprocessed"
	case Processed:
		return "processed"
	case Invalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// Event drives a State transition.
type Event int

const (
	// Process is a walk of the root by a scan.
	Process Event = iota
	// ContentReplaced means the host swapped the root's subtree and no
	// transformed span remains beneath the marker.
	ContentReplaced
)

func (e Event) String() string {
	switch e {
	case Process:
		return "process"
	case ContentReplaced:
		return "content_replaced"
	default:
		return "unknown"
	}
}

// Transition returns the next state and whether the event had any effect.
// A processed root ignores Process; only processed roots can be invalidated.
func Transition(s State, e Event) (State, bool) {
	switch e {
	case Process:
		if s == Processed {
			return s, false
		}
		return Processed, true
	case ContentReplaced:
		if s == Processed {
			return Invalidated, true
		}
		return s, false
	}
	return s, false
}

// stateOf derives the state of a root from its marker at the start of a
// pass. Invalidated only exists inside a periodic pass.
func stateOf(marked bool) State {
	if marked {
		return Processed
	}
	return Unprocessed
}
