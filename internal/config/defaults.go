package config

import (
	_ "embed"
)

//go:embed defaults/flappy.yaml
var defaultYAML []byte

// DefaultConfig returns the built-in configuration.
// It mirrors defaults/flappy.yaml and is used if the embedded file fails to parse.
func DefaultConfig() Config {
	return Config{
		World: WorldConfig{
			Width:        400,
			Height:       512,
			GroundHeight: 112,
			FrameMS:      16,
		},
		Physics: PhysicsConfig{
			Gravity:      0.25,
			JumpAmount:   -4.6,
			MaxFallSpeed: 10,
			PipeSpeed:    3,
		},
		Pipes: PipesConfig{
			Width:      52,
			Gap:        90,
			GapPadding: 80,
			SpacingMS:  1500,
		},
		Bird: BirdConfig{
			X:      60,
			Width:  34,
			Height: 24,
		},
		Splash: SplashConfig{FadeInMS: 500},
		Score:  ScoreConfig{RevealMS: 600},
		Input:  InputConfig{PrimaryKey: " "},
		Audio: AudioConfig{
			Enabled: true,
			Bell:    []string{"hit"},
		},
		Ledger: LedgerConfig{
			DSN:             "sqlite://~/.flappychain/ledger.db",
			TimeoutMS:       5000,
			LeaderboardSize: 10,
		},
		Difficulty: DifficultyConfig{
			Enabled:      false,
			InitialLevel: 0.0,
			Progression: ProgressionConfig{
				Type:  "score",
				MaxAt: 50,
			},
			Scaling: ScalingConfig{
				SpeedMultiplier:  0.5,
				GapReduction:     20,
				SpacingReduction: 400,
			},
		},
	}
}

// DefaultYAML returns the embedded default YAML, e.g. for `config dump`.
func DefaultYAML() []byte {
	return defaultYAML
}
