package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/session"
)

// Leaderboard layout constants
const (
	boardRows     = 10 // Table body height
	closeLabel    = "[x]"
	boardTitle    = "LEADERBOARD"
	playerColumnW = 16
)

var (
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	modalNoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(1, 2)
)

// Leaderboard renders the leaderboard overlay with a bubbles table.
type Leaderboard struct {
	table   table.Model
	view    session.LeaderboardView
	focused bool
}

// NewLeaderboard creates an empty leaderboard table.
func NewLeaderboard() *Leaderboard {
	columns := []table.Column{
		{Title: "Rank", Width: 5},
		{Title: "Player", Width: playerColumnW},
		{Title: "Name", Width: 12},
		{Title: "Score", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(boardRows),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Leaderboard{table: t}
}

// SetView updates the rows from the controller's view model.
func (b *Leaderboard) SetView(v session.LeaderboardView) {
	b.view = v
	rows := make([]table.Row, len(v.Entries))
	for i, e := range v.Entries {
		rows[i] = table.Row{
			fmt.Sprintf("#%d", i+1),
			e.Player.Short(),
			e.Username,
			fmt.Sprintf("%d", e.Score),
		}
	}
	b.table.SetRows(rows)
}

// SetFocused lets the table take scroll keys while the overlay is open.
func (b *Leaderboard) SetFocused(focused bool) {
	if focused == b.focused {
		return
	}
	b.focused = focused
	if focused {
		b.table.Focus()
	} else {
		b.table.Blur()
	}
}

// Update scrolls the table while it has focus.
func (b *Leaderboard) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return cmd
}

// Render returns the framed overlay and the offset of the close button
// inside it.
func (b *Leaderboard) Render() (box string, closeX, closeY int) {
	body := b.body()
	width := max(lipgloss.Width(body), lipgloss.Width(boardTitle)+len(closeLabel)+2)

	gap := width - lipgloss.Width(boardTitle) - len(closeLabel)
	header := modalTitleStyle.Render(boardTitle) + strings.Repeat(" ", gap) + closeLabel

	box = modalStyle.Render(header + "\n\n" + body)

	// Border plus horizontal padding
	closeX = 1 + 1 + width - len(closeLabel)
	closeY = 1
	return box, closeX, closeY
}

// body is the table, or a note when there is nothing to show.
func (b *Leaderboard) body() string {
	v := b.view
	switch {
	case v.Loading:
		return modalNoteStyle.Render("Loading…")
	case v.Status == ledger.StatusSkipped:
		return modalNoteStyle.Render("Connect a wallet to see the leaderboard.")
	case v.Status == ledger.StatusUnavailable:
		return modalNoteStyle.Render("Leaderboard unavailable.")
	case len(v.Entries) == 0:
		return modalNoteStyle.Render("No scores recorded yet.\nPlay a round to set one!")
	}
	return b.table.View()
}
