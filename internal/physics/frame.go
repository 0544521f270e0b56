// Package physics implements the bird and pipe simulation: vertical motion,
// pipe spawning and scrolling, scoring and collision detection.
//
// The engine is pure arithmetic over a seeded RNG. Given the same seed, the
// same sequence of frame deltas and the same jump timeline, it produces
// bit-identical frames.
package physics

import (
	"time"

	"github.com/vovakirdan/flappychain/internal/core"
)

// Frame is one simulated snapshot of the play field.
type Frame struct {
	BirdY        float64 // Vertical center of the bird
	BirdVelocity float64 // Positive = falling
	Rotation     float64 // Visual tilt in degrees, not used for collisions
	Pipes        []Pipe  // Spawn order, oldest (leftmost) first
	Score        int
	Elapsed      time.Duration
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := f
	out.Pipes = append([]Pipe(nil), f.Pipes...)
	return out
}

// Pipe is a pair of vertical obstacles with a gap between them.
type Pipe struct {
	ID        int
	X         float64 // Left edge
	GapTopY   float64 // Y where the gap starts
	GapHeight float64
	Scored    bool // Whether the bird has passed this pipe
}

// TopBox returns the collision box of the upper pipe section.
func (p Pipe) TopBox(width float64) core.Box {
	return core.NewBox(p.X, 0, width, p.GapTopY)
}

// BottomBox returns the collision box of the lower pipe section, down to the ground.
func (p Pipe) BottomBox(width, groundY float64) core.Box {
	bottomY := p.GapTopY + p.GapHeight
	return core.NewBox(p.X, bottomY, width, groundY-bottomY)
}

// Collision identifies what the bird hit.
type Collision int

const (
	CollisionNone Collision = iota
	CollisionGround
	CollisionCeiling
	CollisionPipe
)

// String returns a human-readable name for the collision.
func (c Collision) String() string {
	switch c {
	case CollisionNone:
		return "none"
	case CollisionGround:
		return "ground"
	case CollisionCeiling:
		return "ceiling"
	case CollisionPipe:
		return "pipe"
	default:
		return "unknown"
	}
}

// StepResult reports what happened during one Step.
type StepResult struct {
	Collision Collision
	Scored    int // Pipes passed during this step
}

// Collided reports whether the step ended in a collision.
func (r StepResult) Collided() bool {
	return r.Collision != CollisionNone
}
