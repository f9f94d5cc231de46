package reconcile

import "time"

// Trigger names what caused a pass.
type Trigger int

const (
	TriggerInitial Trigger = iota
	TriggerMutation
	TriggerScroll
	TriggerPeriodic
	TriggerReload
	TriggerManual

	numTriggers
)

var triggerNames = [numTriggers]string{
	TriggerInitial:  "initial",
	TriggerMutation: "mutation",
	TriggerScroll:   "scroll",
	TriggerPeriodic: "periodic",
	TriggerReload:   "reload",
	TriggerManual:   "manual",
}

func (t Trigger) String() string {
	if t < 0 || t >= numTriggers {
		return "unknown"
	}
	return triggerNames[t]
}

// window returns the debounce window for a host-originated trigger.
func (s *Snapshot) window(t Trigger) time.Duration {
	switch t {
	case TriggerMutation:
		return s.MutationWindow
	case TriggerScroll:
		return s.ScrollWindow
	default:
		return 0
	}
}
