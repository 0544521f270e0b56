package physics

import (
	"reflect"
	"testing"
	"time"

	"github.com/vovakirdan/flappychain/internal/config"
)

const frame = 16 * time.Millisecond

func newTestEngine(seed int64) *Engine {
	return NewEngine(config.DefaultConfig(), seed)
}

func TestEngineDeterminism(t *testing.T) {
	// Same seed, same deltas and same jump timeline must give identical frames
	run := func() []Frame {
		e := newTestEngine(12345)
		frames := make([]Frame, 0, 600)
		for i := 0; i < 600; i++ {
			if i%36 == 0 {
				e.Jump()
			}
			e.Step(frame)
			frames = append(frames, e.Frame())
			if e.Frozen() {
				break
			}
		}
		return frames
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("Determinism failed: frame counts differ. Run1=%d, Run2=%d", len(a), len(b))
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			t.Fatalf("Determinism failed at tick %d:\n%+v\n%+v", i+1, a[i], b[i])
		}
	}
}

func TestEngineReset(t *testing.T) {
	e := newTestEngine(42)
	for i := 0; i < 60; i++ {
		e.Step(frame)
	}
	if !e.Frozen() {
		t.Fatal("bird should have hit the ground within 60 ticks")
	}

	e.Reset(42)

	f := e.Frame()
	if f.Score != 0 {
		t.Errorf("Reset should clear score, got %d", f.Score)
	}
	if e.Frozen() {
		t.Error("Reset should clear frozen flag")
	}
	if len(f.Pipes) != 0 {
		t.Errorf("Reset should clear pipes, got %d", len(f.Pipes))
	}
	if f.BirdY != 200 || f.BirdVelocity != 0 {
		t.Errorf("Reset bird = (%v, %v), want (200, 0)", f.BirdY, f.BirdVelocity)
	}
	if e.ticks != 0 {
		t.Errorf("Reset should clear tick count, got %d", e.ticks)
	}
}

func TestEngineGravityFreeFall(t *testing.T) {
	e := newTestEngine(1)

	// With v0 = 0 and g = 0.25 per frame, y_n = 200 + 0.125*n*(n+1)
	// until the bird's bottom edge reaches the ground at y = 388.
	for n := 1; n <= 38; n++ {
		res := e.Step(frame)
		if res.Collided() {
			t.Fatalf("unexpected collision at tick %d: %v", n, res.Collision)
		}
		f := e.Frame()
		wantY := 200 + 0.125*float64(n*(n+1))
		if f.BirdY != wantY {
			t.Fatalf("tick %d: BirdY = %v, want %v", n, f.BirdY, wantY)
		}
		wantVel := 0.25 * float64(n)
		if f.BirdVelocity != wantVel {
			t.Fatalf("tick %d: BirdVelocity = %v, want %v", n, f.BirdVelocity, wantVel)
		}
	}

	res := e.Step(frame)
	if res.Collision != CollisionGround {
		t.Fatalf("tick 39: collision = %v, want ground", res.Collision)
	}
	if !e.Frozen() {
		t.Error("engine should be frozen after collision")
	}
}

func TestEngineJumpImpulse(t *testing.T) {
	e := newTestEngine(1)
	initialY := e.Frame().BirdY

	if !e.Jump() {
		t.Fatal("Jump should be accepted while running")
	}
	e.Step(frame)

	f := e.Frame()
	if f.BirdY >= initialY {
		t.Errorf("Jump should move bird up, was %f, now %f", initialY, f.BirdY)
	}
	// -4.6 + 0.25
	if want := -4.35; f.BirdVelocity != want {
		t.Errorf("velocity after jump = %v, want %v", f.BirdVelocity, want)
	}
	if f.Rotation >= 0 {
		t.Errorf("rising bird should tilt up, rotation = %v", f.Rotation)
	}
}

func TestEngineDeltaScaling(t *testing.T) {
	e := newTestEngine(1)
	e.Step(2 * frame)

	f := e.Frame()
	if f.BirdVelocity != 0.5 {
		t.Errorf("velocity after a double frame = %v, want 0.5", f.BirdVelocity)
	}
	if f.BirdY != 201 {
		t.Errorf("BirdY after a double frame = %v, want 201", f.BirdY)
	}
	if f.Elapsed != 2*frame {
		t.Errorf("Elapsed = %v, want %v", f.Elapsed, 2*frame)
	}
}

func TestEngineZeroDeltaIsNoop(t *testing.T) {
	e := newTestEngine(1)
	before := e.Frame()
	res := e.Step(0)
	if res.Collided() || res.Scored != 0 {
		t.Errorf("zero delta should report nothing, got %+v", res)
	}
	if !reflect.DeepEqual(before, e.Frame()) {
		t.Error("zero delta should not change the frame")
	}
}

func TestEngineCeilingCollision(t *testing.T) {
	e := newTestEngine(1)
	for i := 0; i < 200 && !e.Frozen(); i++ {
		e.Jump()
		if res := e.Step(frame); res.Collided() {
			if res.Collision != CollisionCeiling {
				t.Fatalf("collision = %v, want ceiling", res.Collision)
			}
			return
		}
	}
	t.Fatal("bird jumping every tick should hit the ceiling")
}

func TestEnginePipeCollisionFreezes(t *testing.T) {
	e := newTestEngine(1)
	// Gap far above the bird: bottom section spans y 110..400 at the bird's x
	e.pipes.pipes = append(e.pipes.pipes, Pipe{ID: 1, X: 60, GapTopY: 20, GapHeight: 90})

	res := e.Step(frame)
	if res.Collision != CollisionPipe {
		t.Fatalf("collision = %v, want pipe", res.Collision)
	}

	frozen := e.Frame()
	if e.Jump() {
		t.Error("Jump should be rejected after collision")
	}
	for i := 0; i < 10; i++ {
		if res := e.Step(frame); res.Collided() || res.Scored != 0 {
			t.Fatalf("frozen engine reported %+v", res)
		}
	}
	if !reflect.DeepEqual(frozen, e.Frame()) {
		t.Error("frozen engine should not change")
	}
}

func TestEngineScoresEachPipeOnce(t *testing.T) {
	e := newTestEngine(1)
	// Right edge at 62, just ahead of the bird's left edge at 60.
	// Gap 150..250 contains the bird (188..212).
	e.pipes.pipes = append(e.pipes.pipes, Pipe{ID: 1, X: 10, GapTopY: 150, GapHeight: 100})

	res := e.Step(frame)
	if res.Collided() {
		t.Fatalf("unexpected collision: %v", res.Collision)
	}
	if res.Scored != 1 {
		t.Fatalf("Scored = %d, want 1", res.Scored)
	}

	for i := 0; i < 5; i++ {
		if res := e.Step(frame); res.Scored != 0 {
			t.Fatalf("pipe scored twice on tick %d", i+2)
		}
	}
	if e.Score() != 1 {
		t.Errorf("Score = %d, want 1", e.Score())
	}
}

func TestFrameIsACopy(t *testing.T) {
	e := newTestEngine(1)
	e.pipes.pipes = append(e.pipes.pipes, Pipe{ID: 1, X: 300, GapTopY: 150, GapHeight: 100})

	f := e.Frame()
	f.Pipes[0].X = -1000

	if got := e.Frame().Pipes[0].X; got != 300 {
		t.Errorf("mutating a frame leaked into the engine, X = %v", got)
	}
}

func TestCollisionString(t *testing.T) {
	tests := []struct {
		c    Collision
		want string
	}{
		{CollisionNone, "none"},
		{CollisionGround, "ground"},
		{CollisionCeiling, "ceiling"},
		{CollisionPipe, "pipe"},
		{Collision(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Collision(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}
