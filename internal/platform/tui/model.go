package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/flappychain/internal/core"
	"github.com/vovakirdan/flappychain/internal/input"
	"github.com/vovakirdan/flappychain/internal/session"
)

// maxFrameDelta caps a frame after a stall so the bird never tunnels.
const maxFrameDelta = 100 * time.Millisecond

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// Model is the Bubble Tea model for one player.
type Model struct {
	ctrl     *session.Controller
	timer    *core.FrameTimer
	renderer *Renderer
	board    *Leaderboard
	keys     KeyMap
	help     help.Model
	config   core.RuntimeConfig
	layout   Layout
	focus    input.RegionID
	quitting bool
}

// NewModel creates a model driving ctrl. primaryKey is the configured flap
// key; clock times the frames.
func NewModel(ctrl *session.Controller, cfg core.RuntimeConfig, primaryKey string, clock core.Clock) Model {
	if clock == nil {
		clock = core.RealClock{}
	}
	keys := DefaultKeyMap(primaryKey)
	h := help.New()
	h.ShowAll = false

	return Model{
		ctrl:     ctrl,
		timer:    core.NewFrameTimer(clock, maxFrameDelta),
		renderer: NewRenderer(keys.Flap.Help().Key),
		board:    NewLeaderboard(),
		keys:     keys,
		help:     h,
		config:   cfg,
	}
}

// Init mounts the controller and starts the tick loop.
func (m Model) Init() tea.Cmd {
	m.ctrl.Mount()
	m.timer.Reset()
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.help.Width = msg.Width
		m.relayout()
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.ctrl.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Flap):
		m.ctrl.HandleKey(input.KeyEvent{Key: msg.String()})

	case key.Matches(msg, m.keys.Focus):
		m.moveFocus(1)

	case key.Matches(msg, m.keys.FocusPrev):
		m.moveFocus(-1)

	case key.Matches(msg, m.keys.Activate):
		m.activate()

	case key.Matches(msg, m.keys.Close):
		if m.ctrl.LeaderboardOpen() {
			m.ctrl.CloseLeaderboard()
			m.relayout()
		}

	default:
		if m.ctrl.LeaderboardOpen() {
			return m, m.board.Update(msg)
		}
	}
	return m, nil
}

// handleMouse turns a left press into a pointer click.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	d := m.ctrl.HandleClick(input.ClickEvent{
		X:      msg.X,
		Y:      msg.Y,
		Detail: 1,
		Source: input.SourcePointer,
	})
	if d.Region != input.RegionNone {
		m.focus = input.RegionNone
		m.relayout()
	}
	return m, nil
}

// activate presses the focused control with a keyboard-synthesized click.
// The click carries no detail, so it can never flap the bird.
func (m *Model) activate() {
	if m.focus == input.RegionNone {
		return
	}
	r := m.layout.Rect(m.focus)
	m.ctrl.HandleClick(input.ClickEvent{
		X:      r.X + r.W/2,
		Y:      r.Y,
		Detail: 0,
		Source: input.SourceKeyboard,
	})
	m.relayout()
}

// moveFocus cycles through the focusable controls. Past either end, focus
// leaves the controls.
func (m *Model) moveFocus(step int) {
	regions := m.layout.Focusable()
	if len(regions) == 0 {
		m.focus = input.RegionNone
		return
	}
	idx := -1
	for i, r := range regions {
		if r.ID == m.focus {
			idx = i
		}
	}
	switch {
	case idx < 0 && step > 0:
		idx = 0
	case idx < 0:
		idx = len(regions) - 1
	default:
		idx += step
	}
	if idx < 0 || idx >= len(regions) {
		m.focus = input.RegionNone
		return
	}
	m.focus = regions[idx].ID
}

// handleTick advances the controller by the measured frame time.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}
	m.ctrl.Tick(m.timer.Delta())
	m.relayout()
	return m, tickCmd(m.config.TickRate)
}

// relayout recomputes the layout and hands the control regions to the
// controller.
func (m *Model) relayout() {
	vm := m.ctrl.View()
	m.board.SetView(vm.Leaderboard)
	m.board.SetFocused(vm.Leaderboard.Open)

	var modal string
	var closeX, closeY int
	if vm.Leaderboard.Open {
		modal, closeX, closeY = m.board.Render()
	}
	m.layout = ComputeLayout(vm, m.config.ScreenW, m.config.ScreenH, modal, closeX, closeY)
	m.ctrl.SetRegions(m.layout.Regions())

	if m.focus != input.RegionNone && m.layout.Rect(m.focus).Empty() {
		m.focus = input.RegionNone
	}
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting || m.layout.Width == 0 {
		return ""
	}

	vm := m.ctrl.View()
	m.renderer.Draw(vm, m.layout, m.focus)
	s := m.renderer.Screen()

	var b strings.Builder
	if m.layout.Modal.Empty() {
		b.WriteString(RenderScreen(s))
	} else {
		modal, _, _ := m.board.Render()
		b.WriteString(overlay(s, strings.Split(modal, "\n"), m.layout.Modal))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// overlay renders s with box drawn over rect.
func overlay(s *core.Screen, box []string, rect core.Rect) string {
	var sb strings.Builder
	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}
		i := y - rect.Y
		if i < 0 || i >= len(box) {
			sb.WriteString(renderRow(s, y, 0, s.Width()))
			continue
		}
		sb.WriteString(renderRow(s, y, 0, rect.X))
		sb.WriteString(box[i])
		sb.WriteString(renderRow(s, y, rect.Right(), s.Width()))
	}
	return sb.String()
}

// Run starts the Bubble Tea program with the given model.
func Run(m Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
