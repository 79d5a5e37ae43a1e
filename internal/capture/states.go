package capture

// FlowState identifies where a capture attempt currently is. Exactly one
// state is active per orchestrator; instances are single-use.
type FlowState string

const (
	StateIdle              FlowState = "Idle"
	StateAwaitingTag       FlowState = "AwaitingTag"
	StateDecoding          FlowState = "Decoding"
	StateAcquiringLocation FlowState = "AcquiringLocation"
	StateSubmitting        FlowState = "Submitting"
	StateRetrying          FlowState = "Retrying"
	StateComplete          FlowState = "Complete"
	StateCancelled         FlowState = "Cancelled"
	StateFailed            FlowState = "Failed"
)

// Terminal reports whether the flow has finished.
func (s FlowState) Terminal() bool {
	switch s {
	case StateComplete, StateCancelled, StateFailed:
		return true
	}
	return false
}
