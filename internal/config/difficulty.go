package config

import (
	"math"
	"time"
)

// Lower bounds that keep the game passable at any difficulty.
const (
	minGapMargin = 1.5                    // Gap never shrinks below bird height times this
	minSpacing   = 600 * time.Millisecond // Pipes never spawn closer than this
)

// DifficultyManager calculates dynamic game parameters based on score/time.
type DifficultyManager struct {
	cfg          DifficultyConfig
	initialLevel float64
}

// NewDifficultyManager creates a new difficulty manager.
func NewDifficultyManager(cfg DifficultyConfig) *DifficultyManager {
	return &DifficultyManager{
		cfg:          cfg,
		initialLevel: clampF(cfg.InitialLevel, 0.0, 1.0),
	}
}

// IsEnabled returns whether difficulty progression is active.
func (d *DifficultyManager) IsEnabled() bool {
	return d.cfg.Enabled && d.cfg.Progression.Type != "none"
}

// Level returns the current difficulty level (0.0 to 1.0) based on score or elapsed time.
func (d *DifficultyManager) Level(score int, elapsed time.Duration) float64 {
	if !d.IsEnabled() {
		return d.initialLevel
	}

	maxAt := float64(d.cfg.Progression.MaxAt)
	if maxAt <= 0 {
		maxAt = 1 // Prevent division by zero
	}

	var progress float64
	switch d.cfg.Progression.Type {
	case "score":
		progress = float64(score) / maxAt
	case "time":
		progress = elapsed.Seconds() / maxAt
	default:
		return d.initialLevel
	}

	progress = clampF(progress, 0.0, 1.0)

	// Interpolate from initial level to 1.0
	return d.initialLevel + progress*(1.0-d.initialLevel)
}

// Speed returns the pipe speed for the current level.
func (d *DifficultyManager) Speed(baseSpeed float64, score int, elapsed time.Duration) float64 {
	level := d.Level(score, elapsed)
	return baseSpeed * (1.0 + level*d.cfg.Scaling.SpeedMultiplier)
}

// GapSize returns the pipe gap for the current level.
// The gap never drops below minGapMargin times the bird height.
func (d *DifficultyManager) GapSize(baseGap, birdHeight float64, score int, elapsed time.Duration) float64 {
	level := d.Level(score, elapsed)
	gap := baseGap - level*d.cfg.Scaling.GapReduction
	return math.Max(gap, birdHeight*minGapMargin)
}

// Spacing returns the time between pipe spawns for the current level.
func (d *DifficultyManager) Spacing(base time.Duration, score int, elapsed time.Duration) time.Duration {
	level := d.Level(score, elapsed)
	reduction := time.Duration(level * float64(d.cfg.Scaling.SpacingReduction) * float64(time.Millisecond))
	spacing := base - reduction
	if spacing < minSpacing {
		spacing = min(base, minSpacing)
	}
	return spacing
}

// clampF restricts a float64 to [lo, hi].
func clampF(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}
