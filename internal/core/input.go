package core

// Action is a logical game action, abstracted from physical keys and clicks.
// Gameplay only ever sees these two actions; everything else is UI.
type Action int

const (
	ActionNone    Action = iota
	ActionPrimary        // Start from splash, or flap while playing
	ActionReplay         // Leave the score screen for a new round
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionPrimary:
		return "Primary"
	case ActionReplay:
		return "Replay"
	default:
		return "Unknown"
	}
}

// InputFrame collects the actions triggered between two simulation ticks.
// Actions are applied in the order they arrived, so a replay followed by a
// primary action in the same frame behaves like two separate presses.
type InputFrame struct {
	actions []Action
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{actions: make([]Action, 0, 4)}
}

// Push records an action for this frame. ActionNone is ignored.
func (f *InputFrame) Push(a Action) {
	if a == ActionNone {
		return
	}
	f.actions = append(f.actions, a)
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	for _, got := range f.actions {
		if got == a {
			return true
		}
	}
	return false
}

// Actions returns the actions of this frame in arrival order.
func (f InputFrame) Actions() []Action {
	return f.actions
}

// Len returns the number of queued actions.
func (f InputFrame) Len() int {
	return len(f.actions)
}

// Clear resets the frame for the next tick, keeping its capacity.
func (f *InputFrame) Clear() {
	f.actions = f.actions[:0]
}
