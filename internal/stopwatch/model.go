package stopwatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goodtune/sessiontimer/internal/storage"
	"github.com/goodtune/sessiontimer/internal/tracker"
)

// Interval is how often the display is refreshed.
const Interval = 100 * time.Millisecond

// Timer is the slice of the tracker the stopwatch needs.
type Timer interface {
	ActiveSession(ctx context.Context) *storage.ActiveSession
	Elapsed(ctx context.Context) (time.Duration, bool)
	StopSession(ctx context.Context) (*storage.Session, error)
}

type tickMsg time.Time

type stoppedMsg struct {
	session *storage.Session
	err     error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	clockStyle  = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder())
	idleStyle   = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Model renders the running session's elapsed time. Elapsed is always
// recomputed from the stored start instant, never accumulated.
type Model struct {
	ctx     context.Context
	timer   Timer
	active  *storage.ActiveSession
	elapsed time.Duration
	status  string
	err     error
}

// New creates a stopwatch model over timer.
func New(ctx context.Context, timer Timer) Model {
	m := Model{ctx: ctx, timer: timer}
	return m.refresh()
}

func tick() tea.Cmd {
	return tea.Tick(Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refresh() Model {
	m.active = m.timer.ActiveSession(m.ctx)
	m.elapsed = 0
	if d, ok := m.timer.Elapsed(m.ctx); ok {
		m.elapsed = d
	}
	return m
}

func (m Model) stop() tea.Cmd {
	return func() tea.Msg {
		session, err := m.timer.StopSession(m.ctx)
		return stoppedMsg{session: session, err: err}
	}
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles ticks and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m.refresh(), tick()

	case stoppedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = "Session stopped"
			if msg.session != nil {
				if d, err := msg.session.Duration(); err == nil {
					m.status = fmt.Sprintf("Stopped %s after %s", msg.session.CategoryName, tracker.FormatLong(d))
				}
			}
		}
		return m.refresh(), nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "s":
			if m.active != nil {
				return m, m.stop()
			}
		}
	}
	return m, nil
}

// View renders the stopwatch.
func (m Model) View() string {
	var b strings.Builder

	if m.active == nil {
		b.WriteString(idleStyle.Render("No session running"))
		b.WriteString("\n")
	} else {
		b.WriteString(titleStyle.Render(m.active.CategoryName))
		b.WriteString("\n")
		b.WriteString(clockStyle.Render(tracker.FormatShort(m.elapsed)))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	help := "q quit"
	if m.active != nil {
		help = "s stop • q quit"
	}
	b.WriteString(helpStyle.Render(help))
	b.WriteString("\n")
	return b.String()
}

// Run shows the stopwatch until the user quits.
func Run(ctx context.Context, timer Timer) error {
	_, err := tea.NewProgram(New(ctx, timer), tea.WithContext(ctx)).Run()
	return err
}
