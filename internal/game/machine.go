package game

import (
	"fmt"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Machine holds the current state and the timers that guard its edges.
//
// The splash screen fades in before it accepts a start. The score screen
// only offers replay after finalization has started and the reveal delay
// has elapsed, so a fast replay can never skip the submission.
type Machine struct {
	state State

	fadeIn  time.Duration
	fade    *gween.Tween
	opacity float32
	faded   bool

	reveal     time.Duration
	sinceScore time.Duration
	finalizing bool

	transitions int
}

// NewMachine creates a machine in StateSplash with the fade-in just started.
func NewMachine(fadeIn, reveal time.Duration) *Machine {
	m := &Machine{
		fadeIn: fadeIn,
		reveal: reveal,
	}
	m.enterSplash()
	return m
}

// State returns the active state.
func (m *Machine) State() State {
	return m.state
}

// SplashOpacity returns the fade-in progress in [0, 1].
func (m *Machine) SplashOpacity() float64 {
	if m.state != StateSplash {
		return 1
	}
	return float64(m.opacity)
}

// SplashReady reports whether the fade-in completed.
func (m *Machine) SplashReady() bool {
	return m.state == StateSplash && m.faded
}

// Update advances the splash fade and the score reveal timer.
func (m *Machine) Update(dt time.Duration) {
	if dt <= 0 {
		return
	}
	switch m.state {
	case StateSplash:
		if m.faded {
			return
		}
		m.opacity, m.faded = m.fade.Update(float32(dt.Seconds()))
		if m.faded {
			m.opacity = 1
		}
	case StateScoreDisplay:
		m.sinceScore += dt
	}
}

// Primary applies a primary action to the current state.
func (m *Machine) Primary() Outcome {
	switch m.state {
	case StateSplash:
		if !m.faded {
			return OutcomeIgnored
		}
		if err := m.transition(StatePlaying); err != nil {
			return OutcomeIgnored
		}
		return OutcomeStarted
	case StatePlaying:
		return OutcomeJump
	default:
		return OutcomeIgnored
	}
}

// Collide moves Playing to ScoreDisplay. It returns false in any other state.
func (m *Machine) Collide() bool {
	if m.state != StatePlaying {
		return false
	}
	return m.transition(StateScoreDisplay) == nil
}

// BeginFinalization returns true exactly once per ScoreDisplay entry.
// The caller submits the final score when it gets true.
func (m *Machine) BeginFinalization() bool {
	if m.state != StateScoreDisplay || m.finalizing {
		return false
	}
	m.finalizing = true
	return true
}

// Finalizing reports whether finalization started for the current score screen.
func (m *Machine) Finalizing() bool {
	return m.state == StateScoreDisplay && m.finalizing
}

// ReplayAvailable reports whether Replay would be accepted now.
func (m *Machine) ReplayAvailable() bool {
	return m.state == StateScoreDisplay && m.finalizing && m.sinceScore >= m.reveal
}

// Replay returns to Splash when replay is available.
func (m *Machine) Replay() bool {
	if !m.ReplayAvailable() {
		return false
	}
	return m.transition(StateSplash) == nil
}

func (m *Machine) transition(to State) error {
	if !CanTransition(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	m.transitions++
	switch to {
	case StateSplash:
		m.enterSplash()
	case StateScoreDisplay:
		m.sinceScore = 0
		m.finalizing = false
	}
	return nil
}

func (m *Machine) enterSplash() {
	m.state = StateSplash
	m.finalizing = false
	m.sinceScore = 0
	if m.fadeIn <= 0 {
		m.fade = nil
		m.opacity = 1
		m.faded = true
		return
	}
	m.fade = gween.New(0, 1, float32(m.fadeIn.Seconds()), ease.OutQuad)
	m.opacity = 0
	m.faded = false
}
