// Package config provides YAML-based game configuration loading and
// difficulty management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config contains all tunables for the game, its ledger and its UI.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Pipes      PipesConfig      `yaml:"pipes"`
	Bird       BirdConfig       `yaml:"bird"`
	Splash     SplashConfig     `yaml:"splash"`
	Score      ScoreConfig      `yaml:"score"`
	Input      InputConfig      `yaml:"input"`
	Audio      AudioConfig      `yaml:"audio"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

// WorldConfig defines the simulated play field, in world pixels.
type WorldConfig struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	GroundHeight float64 `yaml:"ground_height"` // Height of the ground strip at the bottom
	FrameMS      int     `yaml:"frame_ms"`      // Reference frame that per-frame constants are expressed in
}

// PhysicsConfig defines per-reference-frame motion constants.
type PhysicsConfig struct {
	Gravity      float64 `yaml:"gravity"`
	JumpAmount   float64 `yaml:"jump_amount"` // Negative = up
	MaxFallSpeed float64 `yaml:"max_fall_speed"`
	PipeSpeed    float64 `yaml:"pipe_speed"`
}

// PipesConfig defines obstacle geometry and spawn cadence.
type PipesConfig struct {
	Width      float64 `yaml:"width"`
	Gap        float64 `yaml:"gap"`
	GapPadding float64 `yaml:"gap_padding"` // Minimum distance between gap and ceiling/ground
	SpacingMS  int     `yaml:"spacing_ms"`
}

// BirdConfig defines the bird hitbox.
type BirdConfig struct {
	X      float64 `yaml:"x"` // Left edge, fixed
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// SplashConfig controls the splash screen fade-in.
type SplashConfig struct {
	FadeInMS int `yaml:"fade_in_ms"`
}

// ScoreConfig controls the score screen.
type ScoreConfig struct {
	RevealMS int `yaml:"reveal_ms"` // Delay before the replay control is offered
}

// InputConfig names the designated gameplay key.
type InputConfig struct {
	PrimaryKey string `yaml:"primary_key"`
}

// AudioConfig controls sound cues.
type AudioConfig struct {
	Enabled bool     `yaml:"enabled"`
	Bell    []string `yaml:"bell"` // Sounds that ring the terminal bell
}

// LedgerConfig controls the score ledger connection.
type LedgerConfig struct {
	DSN             string `yaml:"dsn"`
	TimeoutMS       int    `yaml:"timeout_ms"`
	LeaderboardSize int    `yaml:"leaderboard_size"`
}

// DifficultyConfig defines the difficulty progression system.
type DifficultyConfig struct {
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig defines how difficulty increases.
type ProgressionConfig struct {
	Type  string `yaml:"type"`   // "score", "time", or "none"
	MaxAt int    `yaml:"max_at"` // Score or elapsed seconds at which max difficulty is reached
}

// ScalingConfig defines the magnitude of difficulty changes at level 1.0.
type ScalingConfig struct {
	SpeedMultiplier  float64 `yaml:"speed_multiplier"`     // Added to 1.0 as pipe speed multiplier
	GapReduction     float64 `yaml:"gap_reduction"`        // Pixels removed from the pipe gap
	SpacingReduction int     `yaml:"spacing_reduction_ms"` // Milliseconds removed from spawn spacing
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// InitialLevelForPreset returns the initial_level for a difficulty preset.
func InitialLevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}

// ErrInvalidConfig is returned by Validate for unusable configurations.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// FrameDuration returns the reference frame length.
func (c Config) FrameDuration() time.Duration {
	return time.Duration(c.World.FrameMS) * time.Millisecond
}

// PipeSpacing returns the time between pipe spawns.
func (c Config) PipeSpacing() time.Duration {
	return time.Duration(c.Pipes.SpacingMS) * time.Millisecond
}

// SplashFade returns the splash fade-in duration.
func (c Config) SplashFade() time.Duration {
	return time.Duration(c.Splash.FadeInMS) * time.Millisecond
}

// ScoreReveal returns the delay before replay is offered.
func (c Config) ScoreReveal() time.Duration {
	return time.Duration(c.Score.RevealMS) * time.Millisecond
}

// LedgerTimeout returns the per-call ledger timeout.
func (c Config) LedgerTimeout() time.Duration {
	return time.Duration(c.Ledger.TimeoutMS) * time.Millisecond
}

// GroundY returns the world y-coordinate of the ground surface.
func (c Config) GroundY() float64 {
	return c.World.Height - c.World.GroundHeight
}

// Validate checks that the configuration describes a playable world.
func (c Config) Validate() error {
	switch {
	case c.World.Width <= 0 || c.World.Height <= 0:
		return fmt.Errorf("%w: world dimensions must be positive", ErrInvalidConfig)
	case c.World.FrameMS <= 0:
		return fmt.Errorf("%w: world.frame_ms must be positive", ErrInvalidConfig)
	case c.GroundY() <= c.Bird.Height:
		return fmt.Errorf("%w: ground leaves no room to fly", ErrInvalidConfig)
	case c.Pipes.Width <= 0 || c.Pipes.Gap <= c.Bird.Height:
		return fmt.Errorf("%w: pipe gap must fit the bird", ErrInvalidConfig)
	case c.Pipes.SpacingMS <= 0:
		return fmt.Errorf("%w: pipes.spacing_ms must be positive", ErrInvalidConfig)
	case c.Physics.PipeSpeed <= 0:
		return fmt.Errorf("%w: physics.pipe_speed must be positive", ErrInvalidConfig)
	case c.Physics.MaxFallSpeed <= 0:
		return fmt.Errorf("%w: physics.max_fall_speed must be positive", ErrInvalidConfig)
	}
	return nil
}
