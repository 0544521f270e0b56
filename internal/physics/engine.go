package physics

import (
	"math"
	"time"

	"github.com/vovakirdan/flappychain/internal/config"
	"github.com/vovakirdan/flappychain/internal/core"
)

// Engine advances the bird and the pipes by wall-clock deltas.
//
// All per-frame constants (gravity, jump impulse, pipe speed) are expressed
// per reference frame of cfg.World.FrameMS. A delta of exactly one reference
// frame applies them once; other deltas scale them linearly.
type Engine struct {
	cfg        config.Config
	difficulty *config.DifficultyManager
	pipes      *PipeManager

	birdY    float64
	birdVel  float64
	rotation float64
	score    int
	elapsed  time.Duration
	frozen   bool
	ticks    int
}

// NewEngine creates an engine seeded with seed and ready to run.
func NewEngine(cfg config.Config, seed int64) *Engine {
	diff := config.NewDifficultyManager(cfg.Difficulty)
	e := &Engine{
		cfg:        cfg,
		difficulty: diff,
		pipes:      NewPipeManager(seed, cfg, diff),
	}
	e.Reset(seed)
	return e
}

// Reset restores the initial frame: bird centered above the ground,
// no velocity, no pipes, zero score.
func (e *Engine) Reset(seed int64) {
	e.birdY = e.cfg.GroundY() / 2
	e.birdVel = 0
	e.rotation = 0
	e.score = 0
	e.elapsed = 0
	e.frozen = false
	e.ticks = 0
	e.pipes.Reset(seed)
}

// Jump sets the bird's velocity to the jump impulse.
// It returns false once the engine is frozen by a collision.
func (e *Engine) Jump() bool {
	if e.frozen {
		return false
	}
	e.birdVel = e.cfg.Physics.JumpAmount
	return true
}

// Step advances the simulation by dt.
//
// Order: bird physics, pipe movement, removal of off-screen pipes,
// collision, scoring, spawning. A collision freezes the engine, so every
// later Step is a no-op until Reset.
func (e *Engine) Step(dt time.Duration) StepResult {
	if e.frozen || dt <= 0 {
		return StepResult{}
	}
	e.ticks++
	scale := float64(dt) / float64(e.cfg.FrameDuration())

	e.birdVel += e.cfg.Physics.Gravity * scale
	if e.birdVel > e.cfg.Physics.MaxFallSpeed {
		e.birdVel = e.cfg.Physics.MaxFallSpeed
	}
	e.birdY += e.birdVel * scale
	e.rotation = math.Min(e.birdVel/10*90, 90)
	e.elapsed += dt

	speed := e.difficulty.Speed(e.cfg.Physics.PipeSpeed, e.score, e.elapsed)
	e.pipes.Advance(speed * scale)
	e.pipes.Collect()

	if hit := e.collision(); hit != CollisionNone {
		e.frozen = true
		e.clampBird()
		return StepResult{Collision: hit}
	}

	passed := e.pipes.Score(e.cfg.Bird.X)
	e.score += passed

	e.pipes.Tick(dt, e.score, e.elapsed)

	return StepResult{Scored: passed}
}

// collision checks ground, ceiling and pipes, in that order.
func (e *Engine) collision() Collision {
	bird := e.birdBox()
	if bird.Bottom() >= e.cfg.GroundY() {
		return CollisionGround
	}
	if bird.Y <= 0 {
		return CollisionCeiling
	}
	if e.pipes.Collides(bird) {
		return CollisionPipe
	}
	return CollisionNone
}

// clampBird keeps the frozen bird inside the play field for rendering.
func (e *Engine) clampBird() {
	half := e.cfg.Bird.Height / 2
	e.birdY = core.ClampF(e.birdY, half, e.cfg.GroundY()-half)
}

func (e *Engine) birdBox() core.Box {
	return core.CenteredBox(e.cfg.Bird.X, e.birdY, e.cfg.Bird.Width, e.cfg.Bird.Height)
}

// Frame returns a copy of the current simulation state.
func (e *Engine) Frame() Frame {
	return Frame{
		BirdY:        e.birdY,
		BirdVelocity: e.birdVel,
		Rotation:     e.rotation,
		Pipes:        append([]Pipe(nil), e.pipes.Pipes()...),
		Score:        e.score,
		Elapsed:      e.elapsed,
	}
}

// Frozen reports whether a collision stopped the simulation.
func (e *Engine) Frozen() bool {
	return e.frozen
}

// Score returns the number of pipes passed so far.
func (e *Engine) Score() int {
	return e.score
}

// Config returns the configuration the engine runs with.
func (e *Engine) Config() config.Config {
	return e.cfg
}
