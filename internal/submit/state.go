package submit

// State is the lifecycle of one submission attempt: Idle → Pending → {Succeeded, Failed}.
type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Resting returns the state the form is shown in once the attempt settles.
// A failed attempt leaves the form editable again, so it rests as Idle.
func (s State) Resting() State {
	if s == StateFailed || s == "" {
		return StateIdle
	}
	return s
}

// AcceptsInput reports whether the submit control should be enabled.
func (s State) AcceptsInput() bool {
	return s.Resting() == StateIdle
}
