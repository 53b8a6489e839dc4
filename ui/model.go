// Package ui is the terminal transport screen of the play command.
package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robmorgan/beatwarp/project"
	"github.com/robmorgan/beatwarp/rhythm"
	"github.com/robmorgan/beatwarp/timemap"
	"github.com/robmorgan/beatwarp/transport"
)

// RefreshInterval is how often the screen follows the transport.
const RefreshInterval = 25 * time.Millisecond

// Options tune the screen.
type Options struct {
	Width         int
	Zoom          float64
	SectionColors map[string]string
}

type model struct {
	session   *project.Session
	transport transport.Transport
	metronome *rhythm.Metronome
	opts      Options
	zoom      float64

	spinner  spinner.Model
	progress progress.Model

	nowMs    float64
	status   string
	quitting bool
}

// New builds the screen. metronome may be nil.
func New(sess *project.Session, t transport.Transport, metronome *rhythm.Metronome, opts Options) tea.Model {
	if opts.Width <= 0 {
		opts.Width = 72
	}
	s := spinner.New()
	s.Style = spinnerStyle

	return model{
		session:   sess,
		transport: t,
		metronome: metronome,
		opts:      opts,
		zoom:      timemap.ClampZoom(opts.Zoom),
		spinner:   s,
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(opts.Width),
			progress.WithoutPercentage(),
		),
	}
}

// Run shows the screen until the user quits.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	markerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	statusStyle  = helpStyle.Copy().UnsetMargins()
	appStyle     = lipgloss.NewStyle().Margin(1, 2, 0, 2)
)
