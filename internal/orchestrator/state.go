package orchestrator

// State is the orchestrator's position in the project lifecycle.
type State int

const (
	Idle State = iota
	Generating
	Ready
	Rebuilding
	Deploying
	Downloading
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Ready:
		return "ready"
	case Rebuilding:
		return "rebuilding"
	case Deploying:
		return "deploying"
	case Downloading:
		return "downloading"
	default:
		return "unknown"
	}
}

// Busy reports whether a remote operation is outstanding.
func (s State) Busy() bool {
	return s != Idle && s != Ready
}
