package orchestrator

// State is the process lifecycle as seen by the dispatcher.
//
//	Unstarted → Dispatching → Initializing → Running → Stopping → Stopped
//	Dispatching | Initializing → Failed
type State int32

const (
	StateUnstarted State = iota
	StateDispatching
	StateInitializing
	StateRunning
	StateStopping
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateDispatching:
		return "dispatching"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "invalid"
	}
}
