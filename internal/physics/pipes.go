package physics

import (
	"math/rand"
	"time"

	"github.com/vovakirdan/flappychain/internal/config"
	"github.com/vovakirdan/flappychain/internal/core"
)

// PipeManager handles spawning, movement, scoring and removal of pipes.
type PipeManager struct {
	pipes      []Pipe
	rng        *rand.Rand
	nextID     int
	sinceSpawn time.Duration
	cfg        config.Config
	difficulty *config.DifficultyManager
}

// NewPipeManager creates a new pipe manager with the given RNG seed.
func NewPipeManager(seed int64, cfg config.Config, diff *config.DifficultyManager) *PipeManager {
	pm := &PipeManager{
		pipes:      make([]Pipe, 0, 8),
		cfg:        cfg,
		difficulty: diff,
	}
	pm.Reset(seed)
	return pm
}

// Reset clears all pipes and reseeds the RNG.
func (pm *PipeManager) Reset(seed int64) {
	pm.pipes = pm.pipes[:0]
	pm.rng = rand.New(rand.NewSource(seed))
	pm.nextID = 1
	pm.sinceSpawn = 0
}

// Advance moves every pipe left by dx.
func (pm *PipeManager) Advance(dx float64) {
	for i := range pm.pipes {
		pm.pipes[i].X -= dx
	}
}

// Collect removes pipes that are fully past the left edge.
func (pm *PipeManager) Collect() {
	width := pm.cfg.Pipes.Width
	valid := pm.pipes[:0]
	for _, p := range pm.pipes {
		if p.X >= -width {
			valid = append(valid, p)
		}
	}
	pm.pipes = valid
}

// Score marks pipes whose trailing edge passed birdX and returns how many
// were newly passed. A pipe is only ever counted once.
func (pm *PipeManager) Score(birdX float64) int {
	width := pm.cfg.Pipes.Width
	passed := 0
	for i := range pm.pipes {
		if !pm.pipes[i].Scored && pm.pipes[i].X+width < birdX {
			pm.pipes[i].Scored = true
			passed++
		}
	}
	return passed
}

// Tick accumulates dt and spawns at most one pipe once the spacing elapsed.
func (pm *PipeManager) Tick(dt time.Duration, score int, elapsed time.Duration) {
	pm.sinceSpawn += dt
	spacing := pm.difficulty.Spacing(pm.cfg.PipeSpacing(), score, elapsed)
	if pm.sinceSpawn < spacing {
		return
	}
	pm.sinceSpawn -= spacing
	if pm.sinceSpawn >= spacing {
		pm.sinceSpawn = 0 // Long frame: never queue a burst of pipes
	}
	pm.spawn(score, elapsed)
}

// spawn creates a new pipe at the right edge of the world.
func (pm *PipeManager) spawn(score int, elapsed time.Duration) {
	gap := pm.difficulty.GapSize(pm.cfg.Pipes.Gap, pm.cfg.Bird.Height, score, elapsed)

	// Valid range for the top of the gap
	minTop := pm.cfg.Pipes.GapPadding
	maxTop := pm.cfg.GroundY() - pm.cfg.Pipes.GapPadding - gap
	if maxTop < minTop {
		// Very small worlds: center the gap
		minTop = (pm.cfg.GroundY() - gap) / 2
		maxTop = minTop
	}

	top := minTop
	if maxTop > minTop {
		top = minTop + pm.rng.Float64()*(maxTop-minTop)
	}

	pm.pipes = append(pm.pipes, Pipe{
		ID:        pm.nextID,
		X:         pm.cfg.World.Width,
		GapTopY:   top,
		GapHeight: gap,
	})
	pm.nextID++
}

// Pipes returns the live pipe slice. Callers must not retain it across ticks.
func (pm *PipeManager) Pipes() []Pipe {
	return pm.pipes
}

// Collides tests the bird box against every pipe's top and bottom section.
func (pm *PipeManager) Collides(bird core.Box) bool {
	width := pm.cfg.Pipes.Width
	groundY := pm.cfg.GroundY()
	for _, p := range pm.pipes {
		if bird.Intersects(p.TopBox(width)) || bird.Intersects(p.BottomBox(width, groundY)) {
			return true
		}
	}
	return false
}
