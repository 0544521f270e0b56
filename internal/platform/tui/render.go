package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/flappychain/internal/core"
	"github.com/vovakirdan/flappychain/internal/game"
	"github.com/vovakirdan/flappychain/internal/input"
	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/session"
)

// Minimum terminal size the game is drawn at.
const (
	minWidth  = 24
	minHeight = 10
)

// Visual characters for rendering
const (
	pipeChar      = '█'
	pipeCapTop    = '▄'
	pipeCapBottom = '▀'
	groundTop     = '═'
	groundFill    = '░'
	birdBody      = '●'
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:      lipgloss.NewStyle(),
	core.ColorSky:          lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorPipe:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorPipeCap:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorBird:         lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorGround:       lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorScore:        lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
	core.ColorMuted:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	core.ColorConnected:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorDisconnected: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	core.ColorWarning:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorHighlight:    lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}
		sb.WriteString(renderRow(s, y, 0, s.Width()))
	}
	return sb.String()
}

// renderRow renders cells [from, to) of row y, grouping adjacent cells with
// the same color to minimize ANSI escape sequences.
func renderRow(s *core.Screen, y, from, to int) string {
	var sb strings.Builder
	x := max(from, 0)
	to = min(to, s.Width())
	for x < to {
		startColor := s.GetCell(x, y).Color

		var run strings.Builder
		for x < to {
			cell := s.GetCell(x, y)
			if cell.Color != startColor {
				break
			}
			run.WriteRune(cell.Rune)
			x++
		}

		style, ok := colorStyles[startColor]
		if !ok {
			style = colorStyles[core.ColorDefault]
		}
		sb.WriteString(style.Render(run.String()))
	}
	return sb.String()
}

// Layout is where everything sits on the terminal for one frame.
type Layout struct {
	Width, Height int  // Screen buffer size (terminal minus the help line)
	TooSmall      bool // Nothing but a notice is drawn

	World  core.Rect
	Wallet core.Rect
	Board  core.Rect
	Retry  core.Rect // Empty unless a failed submission can be retried
	Panel  core.Rect // Score panel, empty outside ScoreDisplay
	Modal  core.Rect // Leaderboard overlay, empty when closed
	Close  core.Rect

	walletBusy bool
	panel      []string
	retryLine  int
}

// ComputeLayout places the status bar, the score panel and the overlay for
// a w×h terminal. modal is the rendered overlay, closeX/closeY the offset of
// its close button.
func ComputeLayout(vm session.ViewModel, w, h int, modal string, closeX, closeY int) Layout {
	l := Layout{Width: w, Height: max(h-1, 0), retryLine: -1}
	if w < minWidth || h < minHeight {
		l.TooSmall = true
		return l
	}

	l.World = core.NewRect(0, 1, w, l.Height-1)
	l.walletBusy = vm.Wallet.Busy

	wl := walletLabel(vm.Wallet)
	l.Wallet = core.NewRect(1, 0, textWidth(wl), 1)
	l.Board = core.NewRect(l.Wallet.Right()+1, 0, textWidth(boardLabel), 1)

	if vm.State == game.StateScoreDisplay {
		l.panel, l.retryLine = panelLines(vm)
		pw := 0
		for _, line := range l.panel {
			pw = max(pw, textWidth(line))
		}
		pw += 4
		ph := len(l.panel) + 2
		l.Panel = core.NewRect(l.World.X+(l.World.W-pw)/2, l.World.Y+(l.World.H-ph)/2, pw, ph)
		if l.retryLine >= 0 {
			lw := textWidth(l.panel[l.retryLine])
			l.Retry = core.NewRect(l.Panel.X+(l.Panel.W-lw)/2, l.Panel.Y+1+l.retryLine, lw, 1)
		}
	}

	if vm.Leaderboard.Open && modal != "" {
		mw, mh := lipgloss.Width(modal), lipgloss.Height(modal)
		left := max((l.World.W-mw)/2, 0)
		top := l.World.Y + max((l.World.H-mh)/2, 0)
		l.Modal = core.NewRect(left, top, mw, mh)
		l.Close = core.NewRect(left+closeX, top+closeY, len(closeLabel), 1)
	}
	return l
}

// Regions lists the clickable controls, topmost last.
func (l Layout) Regions() []input.Region {
	if l.TooSmall {
		return nil
	}
	regions := []input.Region{
		{ID: input.RegionWallet, Rect: l.Wallet, Enabled: !l.walletBusy},
		{ID: input.RegionLeaderboard, Rect: l.Board, Enabled: true},
	}
	if !l.Retry.Empty() {
		regions = append(regions, input.Region{ID: input.RegionRetrySubmit, Rect: l.Retry, Enabled: true})
	}
	if !l.Modal.Empty() {
		regions = append(regions,
			input.Region{ID: input.RegionModal, Rect: l.Modal, Enabled: true},
			input.Region{ID: input.RegionModalClose, Rect: l.Close, Enabled: true},
		)
	}
	return regions
}

// Focusable lists the controls tab moves through, in order.
func (l Layout) Focusable() []input.Region {
	var out []input.Region
	for _, r := range l.Regions() {
		if r.ID != input.RegionModal && r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Rect returns the rectangle of a control, or an empty one.
func (l Layout) Rect(id input.RegionID) core.Rect {
	for _, r := range l.Regions() {
		if r.ID == id {
			return r.Rect
		}
	}
	return core.Rect{}
}

const boardLabel = "[ leaderboard ]"

func walletLabel(w session.WalletView) string {
	switch {
	case w.Busy:
		return "[ wallet … ]"
	case w.Connected && w.Username != "":
		return fmt.Sprintf("[ ● %s %s ]", w.Address.Short(), w.Username)
	case w.Connected:
		return fmt.Sprintf("[ ● %s ]", w.Address.Short())
	case w.Error != "":
		return "[ ○ " + w.Error + " ]"
	default:
		return "[ ○ connect wallet ]"
	}
}

// panelLines is the score panel's text and the index of the retry line.
func panelLines(vm session.ViewModel) ([]string, int) {
	lines := []string{
		"GAME OVER",
		fmt.Sprintf("score %d   best %d", vm.Score, vm.HighScore),
	}
	if msg := submissionText(vm.Session); msg != "" {
		lines = append(lines, msg)
	}
	retry := -1
	if vm.Session != nil && vm.Session.CanRetry() {
		retry = len(lines)
		lines = append(lines, "[ retry submission ]")
	}
	if vm.ReplayAvailable {
		lines = append(lines, "", "flap to play again")
	}
	return lines, retry
}

func submissionText(s *session.Session) string {
	if s == nil {
		return ""
	}
	if s.SubmissionInFlight {
		return "submitting score…"
	}
	if !s.Finalized {
		return ""
	}
	switch s.EndResult.Status {
	case ledger.StatusOK:
		return fmt.Sprintf("saved in block %d", s.EndResult.Receipt.Height)
	case ledger.StatusSkipped:
		if s.StartResult.Status == ledger.StatusSkipped {
			return "connect a wallet before the round to save scores"
		}
		return "not recorded on the ledger"
	case ledger.StatusFailed:
		return "submission failed"
	case ledger.StatusDuplicate:
		return "already submitted"
	case ledger.StatusUnavailable:
		return "ledger unavailable"
	default:
		return ""
	}
}

func textWidth(s string) int {
	return len([]rune(s))
}

// Renderer draws view models into a screen buffer.
type Renderer struct {
	screen    *core.Screen
	startHint string
}

// NewRenderer creates a renderer. primaryLabel names the start key.
func NewRenderer(primaryLabel string) *Renderer {
	return &Renderer{
		screen:    core.NewScreen(0, 0),
		startHint: "press " + primaryLabel + " to start",
	}
}

// Screen returns the buffer of the last Draw.
func (r *Renderer) Screen() *core.Screen {
	return r.screen
}

// Draw renders vm at layout l, highlighting the focused control.
func (r *Renderer) Draw(vm session.ViewModel, l Layout, focus input.RegionID) {
	s := r.screen
	s.Resize(l.Width, l.Height)
	s.Clear()

	if l.TooSmall {
		s.DrawText(0, 0, "terminal too small", core.ColorWarning)
		return
	}

	view := worldView{vm: vm, rect: l.World}
	view.drawGround(s)
	for _, p := range vm.Frame.Pipes {
		view.drawPipe(s, p.X, p.GapTopY, p.GapHeight)
	}
	view.drawBird(s)

	switch vm.State {
	case game.StateSplash:
		r.drawSplash(s, vm, l.World)
	case game.StatePlaying:
		s.DrawTextCentered(l.World.Y+1, fmt.Sprintf("%d", vm.Score), core.ColorScore)
	case game.StateScoreDisplay:
		drawPanel(s, l)
	}

	drawStatusBar(s, vm, l, focus)
}

func (r *Renderer) drawSplash(s *core.Screen, vm session.ViewModel, world core.Rect) {
	if vm.SplashOpacity <= 0 {
		return
	}
	c := core.ColorMuted
	if vm.SplashOpacity >= 0.5 {
		c = core.ColorBird
	}
	mid := world.Y + world.H/3
	s.DrawTextCentered(mid, "F L A P P Y   C H A I N", c)
	if vm.SplashReady {
		s.DrawTextCentered(mid+2, r.startHint, core.ColorScore)
	}
}

func drawPanel(s *core.Screen, l Layout) {
	s.FillRect(l.Panel, ' ', core.ColorDefault)
	s.DrawBox(l.Panel, core.ColorMuted)
	for i, line := range l.panel {
		c := core.ColorScore
		if i == l.retryLine {
			c = core.ColorWarning
		}
		x := l.Panel.X + (l.Panel.W-textWidth(line))/2
		s.DrawText(x, l.Panel.Y+1+i, line, c)
	}
}

func drawStatusBar(s *core.Screen, vm session.ViewModel, l Layout, focus input.RegionID) {
	wc := core.ColorDisconnected
	if vm.Wallet.Connected {
		wc = core.ColorConnected
	}
	if focus == input.RegionWallet {
		wc = core.ColorHighlight
	}
	s.DrawText(l.Wallet.X, l.Wallet.Y, walletLabel(vm.Wallet), wc)

	bc := core.ColorMuted
	if focus == input.RegionLeaderboard {
		bc = core.ColorHighlight
	}
	s.DrawText(l.Board.X, l.Board.Y, boardLabel, bc)

	best := fmt.Sprintf("best %d", vm.HighScore)
	if vm.LedgerHighScore {
		best += " ⛓"
	}
	s.DrawText(l.Width-textWidth(best)-1, 0, best, core.ColorScore)

	if focus == input.RegionRetrySubmit && !l.Retry.Empty() {
		s.DrawText(l.Retry.X, l.Retry.Y, l.panel[l.retryLine], core.ColorHighlight)
	}
}

// worldView maps world pixels to the cells of rect.
type worldView struct {
	vm   session.ViewModel
	rect core.Rect
}

func (w worldView) scaleX() float64 {
	return float64(w.rect.W) / w.vm.Geometry.Width
}

func (w worldView) scaleY() float64 {
	return float64(w.rect.H) / w.vm.Geometry.Height
}

func (w worldView) col(x float64) int {
	return w.rect.X + int(math.Floor(x*w.scaleX()))
}

func (w worldView) row(y float64) int {
	return w.rect.Y + int(math.Floor(y*w.scaleY()))
}

func (w worldView) groundRow() int {
	return core.Clamp(w.row(w.vm.Geometry.GroundY), w.rect.Y, w.rect.Bottom()-1)
}

func (w worldView) drawGround(s *core.Screen) {
	g := w.groundRow()
	s.DrawHLine(w.rect.X, g, w.rect.W, groundTop, core.ColorGround)
	for y := g + 1; y < w.rect.Bottom(); y++ {
		s.DrawHLine(w.rect.X, y, w.rect.W, groundFill, core.ColorGround)
	}
}

func (w worldView) drawPipe(s *core.Screen, x, gapTop, gapHeight float64) {
	x0 := w.col(x)
	x1 := max(w.rect.X+int(math.Ceil((x+w.vm.Geometry.PipeWidth)*w.scaleX())), x0+1)
	top := w.row(gapTop)
	bottom := w.row(gapTop + gapHeight)
	ground := w.groundRow()

	for cx := x0; cx < x1; cx++ {
		for y := w.rect.Y; y < top; y++ {
			s.SetColored(cx, y, pipeChar, core.ColorPipe)
		}
		if top > w.rect.Y {
			s.SetColored(cx, top-1, pipeCapTop, core.ColorPipeCap)
		}
		for y := bottom; y < ground; y++ {
			s.SetColored(cx, y, pipeChar, core.ColorPipe)
		}
		if bottom < ground {
			s.SetColored(cx, bottom, pipeCapBottom, core.ColorPipeCap)
		}
	}
}

func (w worldView) drawBird(s *core.Screen) {
	g := w.vm.Geometry
	width := max(int(math.Round(g.BirdWidth*w.scaleX())), 1)
	left := w.col(g.BirdX) - width/2
	y := w.row(w.vm.Frame.BirdY)
	for i := 0; i < width-1; i++ {
		s.SetColored(left+i, y, birdBody, core.ColorBird)
	}
	s.SetColored(left+width-1, y, birdHead(w.vm.Frame.Rotation), core.ColorBird)
}

// birdHead points the beak along the bird's rotation.
func birdHead(rotation float64) rune {
	switch {
	case rotation < -20:
		return '↗'
	case rotation > 45:
		return '↘'
	default:
		return '▶'
	}
}
