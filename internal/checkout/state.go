package checkout

type State string

const (
	StateDormant    State = "DORMANT"
	StateReview     State = "REVIEW"
	StateDetails    State = "DETAILS"
	StateReadyToPay State = "READY_TO_PAY"
	StateHandedOff  State = "HANDED_OFF"
)

func (s State) IsOpen() bool {
	return s != StateDormant
}

// String representation (for logging)
func (s State) String() string {
	return string(s)
}

var transitions = map[State][]State{
	StateDormant:    {StateReview},
	StateReview:     {StateDetails, StateDormant},
	StateDetails:    {StateReadyToPay, StateReview, StateDormant},
	StateReadyToPay: {StateHandedOff, StateDetails, StateReview, StateDormant},
	StateHandedOff:  {StateDormant},
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
