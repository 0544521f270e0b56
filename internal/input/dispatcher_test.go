package input

import (
	"testing"

	"github.com/vovakirdan/flappychain/internal/core"
	"github.com/vovakirdan/flappychain/internal/game"
)

func testDispatcher() *Dispatcher {
	d := NewDispatcher(" ")
	d.SetRegions([]Region{
		{ID: RegionWallet, Rect: core.NewRect(0, 0, 12, 1), Enabled: true},
		{ID: RegionLeaderboard, Rect: core.NewRect(60, 0, 12, 1), Enabled: true},
		{ID: RegionRetrySubmit, Rect: core.NewRect(30, 15, 10, 1), Enabled: false},
	})
	return d
}

func TestKeyDispatch(t *testing.T) {
	d := testDispatcher()
	tests := []struct {
		name  string
		state game.State
		key   string
		want  core.Action
	}{
		{"space on splash starts", game.StateSplash, " ", core.ActionPrimary},
		{"space while playing flaps", game.StatePlaying, " ", core.ActionPrimary},
		{"space on score replays", game.StateScoreDisplay, " ", core.ActionReplay},
		{"named space works too", game.StatePlaying, "space", core.ActionPrimary},
		{"other keys do nothing", game.StatePlaying, "x", core.ActionNone},
		{"enter is not gameplay", game.StateSplash, "enter", core.ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Key(tt.state, KeyEvent{Key: tt.key})
			if got.Action != tt.want || got.Region != RegionNone {
				t.Errorf("Key(%v, %q) = %+v, want action %v", tt.state, tt.key, got, tt.want)
			}
		})
	}
}

func TestClickDispatch(t *testing.T) {
	d := testDispatcher()
	tests := []struct {
		name   string
		state  game.State
		ev     ClickEvent
		action core.Action
		region RegionID
	}{
		{"pointer click on field starts", game.StateSplash, ClickEvent{X: 40, Y: 10, Detail: 1}, core.ActionPrimary, RegionNone},
		{"pointer click while playing flaps", game.StatePlaying, ClickEvent{X: 40, Y: 10, Detail: 1}, core.ActionPrimary, RegionNone},
		{"pointer click on score replays", game.StateScoreDisplay, ClickEvent{X: 40, Y: 10, Detail: 1}, core.ActionReplay, RegionNone},
		{"wallet button is not gameplay", game.StatePlaying, ClickEvent{X: 3, Y: 0, Detail: 1}, core.ActionNone, RegionWallet},
		{"leaderboard button is not gameplay", game.StateScoreDisplay, ClickEvent{X: 65, Y: 0, Detail: 1}, core.ActionNone, RegionLeaderboard},
		{"disabled region falls through", game.StateScoreDisplay, ClickEvent{X: 31, Y: 15, Detail: 1}, core.ActionReplay, RegionNone},
		{"keyboard click is not gameplay", game.StateSplash, ClickEvent{X: 40, Y: 10, Detail: 0, Source: SourceKeyboard}, core.ActionNone, RegionNone},
		{"keyboard click on control hits control", game.StateSplash, ClickEvent{X: 3, Y: 0, Detail: 0, Source: SourceKeyboard}, core.ActionNone, RegionWallet},
		{"zero-detail pointer click is eligible", game.StatePlaying, ClickEvent{X: 40, Y: 10, Detail: 0, Source: SourcePointer}, core.ActionPrimary, RegionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Click(tt.state, tt.ev)
			if got.Action != tt.action || got.Region != tt.region {
				t.Errorf("Click = %+v, want action %v region %q", got, tt.action, tt.region)
			}
		})
	}
}

func TestModalOverlayCapturesClicks(t *testing.T) {
	d := testDispatcher()
	regions := d.Regions()
	regions = append(regions,
		Region{ID: RegionModal, Rect: core.NewRect(10, 3, 60, 18), Enabled: true},
		Region{ID: RegionModalClose, Rect: core.NewRect(66, 3, 3, 1), Enabled: true},
	)
	d.SetRegions(regions)

	if got := d.Click(game.StatePlaying, ClickEvent{X: 40, Y: 10, Detail: 1}); got.Region != RegionModal || got.Action != core.ActionNone {
		t.Errorf("click inside modal = %+v, want modal region", got)
	}
	// Close button is drawn on top of the modal
	if got := d.Click(game.StatePlaying, ClickEvent{X: 67, Y: 3, Detail: 1}); got.Region != RegionModalClose {
		t.Errorf("click on close = %+v, want modal-close", got)
	}
	// Outside the modal gameplay still works
	if got := d.Click(game.StatePlaying, ClickEvent{X: 5, Y: 22, Detail: 1}); got.Action != core.ActionPrimary {
		t.Errorf("click outside modal = %+v, want primary", got)
	}
}

func TestHitTestEmpty(t *testing.T) {
	d := NewDispatcher(" ")
	if id, ok := d.HitTest(0, 0); ok || id != RegionNone {
		t.Errorf("HitTest on empty dispatcher = %q, %v", id, ok)
	}
}
