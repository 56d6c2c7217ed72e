package coordinator

// State is the position of a coordinator in the submission state machine.
type State int

const (
	// Idle: no attempt in flight; the next submit is inspected.
	Idle State = iota
	// Intercepting: a file-laden submit was suppressed and is being validated.
	Intercepting
	// Uploading: the batch is in flight; further submits are suppressed.
	Uploading
	// Resubmitting: URLs are written and the one-shot allow token is armed.
	Resubmitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Intercepting:
		return "intercepting"
	case Uploading:
		return "uploading"
	case Resubmitting:
		return "resubmitting"
	default:
		return "unknown"
	}
}
