// Package tui is a terminal viewer that steps the simulation on a timer and
// draws each frame as a character grid.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TFMV/growthgraph/models"
	"github.com/TFMV/growthgraph/render"
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	canvasStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// Controller is the part of driver.Driver the viewer needs.
type Controller interface {
	Step() *models.Frame
	Latest() *models.Frame
	Enqueue(ev models.LoopEvent) error
}

// Options shapes the viewer.
type Options struct {
	FPS         int
	LoopCount   int
	LoopRadius  float64
	Seed        int64
	InitialCols int
	InitialRows int
}

// DefaultOptions ticks at 30 fps and adds 10 point loops of radius 40.
func DefaultOptions() Options {
	return Options{
		FPS:         30,
		LoopCount:   10,
		LoopRadius:  40,
		InitialCols: 80,
		InitialRows: 24,
	}
}

type tickMsg time.Time

// Model is the bubbletea model of the viewer.
type Model struct {
	ctrl    Controller
	opts    Options
	spinner spinner.Model
	rng     *rand.Rand
	frame   *models.Frame
	cols    int
	rows    int
	paused  bool
	loops   int
	err     error
}

// NewModel creates a viewer showing ctrl's latest frame.
func NewModel(ctrl Controller, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultOptions().FPS
	}
	return Model{
		ctrl:    ctrl,
		opts:    opts,
		spinner: s,
		rng:     rand.New(rand.NewSource(seed)),
		frame:   ctrl.Latest(),
		cols:    max(opts.InitialCols, 20),
		rows:    max(opts.InitialRows, 10),
	}
}

// Init starts the spinner and the frame clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

// Update handles keys, resizes and ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.err = m.addLoop()
		case "p":
			m.paused = !m.paused
		case "n":
			if m.paused {
				m.frame = m.ctrl.Step()
			}
		}

	case spinner.TickMsg:
		if !m.paused {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	case tickMsg:
		if !m.paused {
			m.frame = m.ctrl.Step()
		}
		cmd = m.tick()

	case tea.WindowSizeMsg:
		m.cols = max(msg.Width, 20)
		m.rows = max(msg.Height-4, 10)
	}

	return m, cmd
}

// View draws the header, the grid and a status line.
func (m Model) View() string {
	f := m.frame
	header := headerStyle.Render(fmt.Sprintf("%s growthgraph  tick %d", m.spinner.View(), f.Tick))

	w, h := f.Width, f.Height
	if w <= 0 || h <= 0 {
		w, h = bounds(f)
	}
	canvas := canvasStyle.Render(render.Grid(f, w, h, m.cols, m.rows))

	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render(m.err.Error())
	case m.paused:
		status = pausedStyle.Render(fmt.Sprintf("Paused • %d nodes • %d edges", len(f.Nodes), len(f.Edges)))
	default:
		status = okStyle.Render(fmt.Sprintf("Running • %d nodes • %d edges • %d loops added", len(f.Nodes), len(f.Edges), m.loops))
	}
	footer := subtleStyle.Render("space: add loop • p: pause • n: step • q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, canvas, status, footer)
}

// Frame returns the frame currently displayed.
func (m Model) Frame() *models.Frame {
	return m.frame
}

// Paused reports whether the clock is stopped.
func (m Model) Paused() bool {
	return m.paused
}

func (m *Model) addLoop() error {
	w, h := m.frame.Width, m.frame.Height
	if w <= 0 || h <= 0 {
		w, h = bounds(m.frame)
	}
	ev := models.LoopEvent{
		Count:  m.opts.LoopCount,
		Radius: m.opts.LoopRadius,
		X:      w/4 + m.rng.Float64()*w/2,
		Y:      h/4 + m.rng.Float64()*h/2,
	}
	if err := m.ctrl.Enqueue(ev); err != nil {
		return fmt.Errorf("add loop: %w", err)
	}
	m.loops++
	return nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// bounds sizes an unbounded canvas to fit every node.
func bounds(f *models.Frame) (float64, float64) {
	w, h := 1.0, 1.0
	for _, n := range f.Nodes {
		w = max(w, n.X+1)
		h = max(h, n.Y+1)
	}
	return w, h
}

// Run shows the viewer until the user quits or ctx is canceled.
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	p := tea.NewProgram(NewModel(ctrl, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
