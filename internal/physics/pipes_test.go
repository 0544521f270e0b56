package physics

import (
	"testing"
	"time"

	"github.com/vovakirdan/flappychain/internal/config"
)

func newTestPipes(seed int64) *PipeManager {
	cfg := config.DefaultConfig()
	return NewPipeManager(seed, cfg, config.NewDifficultyManager(cfg.Difficulty))
}

func TestPipeSpawnCadence(t *testing.T) {
	pm := newTestPipes(7)

	// 93 * 16ms = 1488ms, still short of the 1500ms spacing
	for i := 0; i < 93; i++ {
		pm.Tick(frame, 0, 0)
	}
	if n := len(pm.Pipes()); n != 0 {
		t.Fatalf("pipes after 1488ms = %d, want 0", n)
	}

	pm.Tick(frame, 0, 0)
	if n := len(pm.Pipes()); n != 1 {
		t.Fatalf("pipes after 1504ms = %d, want 1", n)
	}
	if x := pm.Pipes()[0].X; x != 400 {
		t.Errorf("new pipe X = %v, want world width 400", x)
	}
}

func TestPipeLongFrameSpawnsOnce(t *testing.T) {
	pm := newTestPipes(7)
	pm.Tick(10*time.Second, 0, 0)
	if n := len(pm.Pipes()); n != 1 {
		t.Errorf("pipes after one long frame = %d, want 1", n)
	}
}

func TestPipeGapWithinBounds(t *testing.T) {
	pm := newTestPipes(99)
	for i := 0; i < 200; i++ {
		pm.spawn(0, 0)
	}
	for _, p := range pm.Pipes() {
		if p.GapHeight != 90 {
			t.Fatalf("pipe %d gap = %v, want 90", p.ID, p.GapHeight)
		}
		// padding 80, ground 400: top in [80, 230]
		if p.GapTopY < 80 || p.GapTopY > 230 {
			t.Fatalf("pipe %d gap top %v outside [80, 230]", p.ID, p.GapTopY)
		}
	}
}

func TestPipeRemovedAfterLeavingScreen(t *testing.T) {
	pm := newTestPipes(3)
	pm.spawn(0, 0)

	// Starting at x=400 and moving 3 per frame, the pipe is removed once
	// x < -52, which takes ceil(452/3) = 151 frames.
	for tick := 1; tick <= 150; tick++ {
		pm.Advance(3)
		pm.Collect()
		if len(pm.Pipes()) != 1 {
			t.Fatalf("pipe removed early at tick %d", tick)
		}
	}
	pm.Advance(3)
	pm.Collect()
	if len(pm.Pipes()) != 0 {
		t.Fatal("pipe should be removed at tick 151")
	}
}

func TestPipeSeedReproducible(t *testing.T) {
	a, b := newTestPipes(2024), newTestPipes(2024)
	for i := 0; i < 20; i++ {
		a.spawn(0, 0)
		b.spawn(0, 0)
	}
	for i := range a.Pipes() {
		if a.Pipes()[i] != b.Pipes()[i] {
			t.Fatalf("pipe %d differs: %+v vs %+v", i, a.Pipes()[i], b.Pipes()[i])
		}
	}

	a.Reset(2024)
	if len(a.Pipes()) != 0 {
		t.Fatal("Reset should clear pipes")
	}
	a.spawn(0, 0)
	if a.Pipes()[0] != b.Pipes()[0] {
		t.Errorf("reseeded manager should replay the same gaps")
	}
}

func TestPipeIDsIncrease(t *testing.T) {
	pm := newTestPipes(1)
	for i := 0; i < 5; i++ {
		pm.spawn(0, 0)
	}
	for i, p := range pm.Pipes() {
		if p.ID != i+1 {
			t.Errorf("pipe %d ID = %d, want %d", i, p.ID, i+1)
		}
	}
}

func TestPipeDifficultyNarrowsGap(t *testing.T) {
	cfg := config.DefaultConfig()
	config.ApplyPreset(&cfg, config.DifficultyHard)
	pm := NewPipeManager(1, cfg, config.NewDifficultyManager(cfg.Difficulty))

	pm.spawn(0, 0)
	if gap := pm.Pipes()[0].GapHeight; gap >= cfg.Pipes.Gap {
		t.Errorf("hard preset gap = %v, want below base %v", gap, cfg.Pipes.Gap)
	}
}
