// Package input turns key presses and pointer clicks into the two logical
// gameplay actions, after hit-testing clicks against the UI controls drawn
// over the play field.
package input

import (
	"github.com/vovakirdan/flappychain/internal/core"
	"github.com/vovakirdan/flappychain/internal/game"
)

// RegionID names a non-gameplay control. IDs are stable; the presentation
// layer only decides where each region is drawn.
type RegionID string

const (
	RegionNone        RegionID = ""
	RegionWallet      RegionID = "wallet"
	RegionLeaderboard RegionID = "leaderboard"
	RegionModal       RegionID = "modal"
	RegionModalClose  RegionID = "modal-close"
	RegionRetrySubmit RegionID = "retry-submit"
)

// Region is a clickable control in screen cells.
type Region struct {
	ID      RegionID
	Rect    core.Rect
	Enabled bool
}

// Source tells where a click came from.
type Source int

const (
	SourcePointer  Source = iota // Mouse or touch
	SourceKeyboard               // Keyboard activation of a focused control
)

// KeyEvent is a key press, named like tea.KeyMsg.String().
type KeyEvent struct {
	Key string
}

// ClickEvent is a click at a screen cell. Detail is the click count; a
// keyboard-synthesized click has Detail 0.
type ClickEvent struct {
	X, Y   int
	Detail int
	Source Source
}

// Synthetic reports whether the click was produced by the keyboard.
func (e ClickEvent) Synthetic() bool {
	return e.Detail == 0 && e.Source == SourceKeyboard
}

// Decision is the result of dispatching one event. At most one of Action
// and Region is set.
type Decision struct {
	Action core.Action
	Region RegionID
}

// Dispatcher maps events to actions or regions.
type Dispatcher struct {
	primaryKey string
	regions    []Region // Later regions are drawn on top
}

// NewDispatcher creates a dispatcher whose gameplay key is primaryKey.
func NewDispatcher(primaryKey string) *Dispatcher {
	return &Dispatcher{primaryKey: normalizeKey(primaryKey)}
}

// SetRegions replaces the registered regions.
func (d *Dispatcher) SetRegions(regions []Region) {
	d.regions = append(d.regions[:0], regions...)
}

// Regions returns a copy of the registered regions.
func (d *Dispatcher) Regions() []Region {
	return append([]Region(nil), d.regions...)
}

// HitTest returns the topmost enabled region containing (x, y).
func (d *Dispatcher) HitTest(x, y int) (RegionID, bool) {
	for i := len(d.regions) - 1; i >= 0; i-- {
		r := d.regions[i]
		if r.Enabled && r.Rect.Contains(x, y) {
			return r.ID, true
		}
	}
	return RegionNone, false
}

// Key dispatches a key press. Only the primary key is a gameplay key.
func (d *Dispatcher) Key(state game.State, ev KeyEvent) Decision {
	if normalizeKey(ev.Key) != d.primaryKey {
		return Decision{}
	}
	return Decision{Action: gameplayAction(state)}
}

// Click dispatches a click. Clicks on regions never become gameplay
// actions, nor do keyboard-synthesized clicks.
func (d *Dispatcher) Click(state game.State, ev ClickEvent) Decision {
	if id, ok := d.HitTest(ev.X, ev.Y); ok {
		return Decision{Region: id}
	}
	if ev.Synthetic() {
		return Decision{}
	}
	return Decision{Action: gameplayAction(state)}
}

// gameplayAction is the action a gameplay input means in state.
func gameplayAction(state game.State) core.Action {
	switch state {
	case game.StateSplash, game.StatePlaying:
		return core.ActionPrimary
	case game.StateScoreDisplay:
		return core.ActionReplay
	default:
		return core.ActionNone
	}
}

// normalizeKey folds the two spellings of the space bar.
func normalizeKey(k string) string {
	if k == "space" {
		return " "
	}
	return k
}
