package model

import "time"

// Action is the kind of mutation a command requests.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionTransition Action = "transition"
)

// Transition is a requested edge in an entity lifecycle. From is optional:
// when empty the current cached state is used.
type Transition struct {
	From State
	To   State
}

// Command is a mutation raised by the presentation layer.
type Command struct {
	Entity     EntityKind
	Action     Action
	ID         int64
	Transition *Transition

	// DeliveryDate must accompany a transition to scheduled.
	DeliveryDate *time.Time

	Farmer   *FarmerInput
	Product  *ProductInput
	Order    *OrderInput
	User     *UserInput
	Training *TrainingInput
}

// TransitionResult is the outcome of an accepted command.
type TransitionResult struct {
	Accepted bool
	NewState State
}
