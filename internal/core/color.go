package core

// Color is a foreground color for a screen cell.
// The platform maps each value to an ANSI color.
type Color uint8

// Palette used by the renderer.
const (
	ColorDefault Color = iota
	ColorSky
	ColorPipe
	ColorPipeCap
	ColorBird
	ColorGround
	ColorScore
	ColorMuted
	ColorConnected
	ColorDisconnected
	ColorWarning
	ColorHighlight
)
