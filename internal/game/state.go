// Package game implements the three-screen lifecycle of a round:
// Splash, Playing and ScoreDisplay.
package game

import "errors"

// ErrInvalidTransition is returned for self transitions and undefined edges.
var ErrInvalidTransition = errors.New("game: invalid transition")

// State is the active screen.
type State int

const (
	StateSplash State = iota
	StatePlaying
	StateScoreDisplay
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateSplash:
		return "splash"
	case StatePlaying:
		return "playing"
	case StateScoreDisplay:
		return "score"
	default:
		return "unknown"
	}
}

// next lists the only allowed edge out of each state.
var next = map[State]State{
	StateSplash:       StatePlaying,
	StatePlaying:      StateScoreDisplay,
	StateScoreDisplay: StateSplash,
}

// CanTransition reports whether from -> to is a defined edge.
func CanTransition(from, to State) bool {
	n, ok := next[from]
	return ok && n == to
}

// Outcome tells the caller what a primary action did.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeStarted         // Splash -> Playing, a new session begins
	OutcomeJump            // Playing, the bird should jump
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeStarted:
		return "started"
	case OutcomeJump:
		return "jump"
	default:
		return "unknown"
	}
}
