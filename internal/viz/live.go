package viz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gasbox/internal/playback"
	"github.com/san-kum/gasbox/internal/scene"
	"github.com/san-kum/gasbox/internal/sim"
)

const (
	width           = 72
	height          = 24
	historyCapacity = 600
	tickRate        = time.Second / 30
	minSpeed        = 1.0 / 64
	maxSpeed        = 64.0
)

// Controller is the part of playback.Scheduler the viewer drives.
type Controller interface {
	Play() error
	Pause() error
	StepOnce() error
	SetSpeed(f float64) error
	Reset(sc *scene.Scene) error
	Shutdown() error
	Frames() <-chan sim.Frame
	State() playback.State
	Speed() float64
	Dropped() uint64
	Err() error
}

var _ Controller = (*playback.Scheduler)(nil)

type TickMsg time.Time

// Model renders scheduler frames and turns keys into scheduler commands.
// It never steps the simulation itself.
type Model struct {
	ctrl     Controller
	name     string
	rebuild  func() (*scene.Scene, error)
	timeline *playback.Timeline
	canvas   *Canvas
	view     Viewport
	theme    Theme
	styles   styles

	temperature []float64
	energy      []float64
	status      string
	showHelp    bool
	closed      bool
	err         error
}

// NewModel builds a viewer for ctrl. rebuild produces the scene used by the
// reset key; a nil rebuild disables reset.
func NewModel(ctrl Controller, name string, rebuild func() (*scene.Scene, error)) Model {
	return Model{
		ctrl:        ctrl,
		name:        name,
		rebuild:     rebuild,
		timeline:    playback.NewTimeline(historyCapacity),
		canvas:      NewCanvas(width, height),
		theme:       Themes[0],
		styles:      newStyles(Themes[0]),
		temperature: make([]float64, 0, historyCapacity),
		energy:      make([]float64, 0, historyCapacity),
	}
}

// WithTheme selects the initial theme by name.
func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	m.styles = newStyles(m.theme)
	return m
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg.String())
	case TickMsg:
		m.poll()
		if m.closed {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) key(k string) (tea.Model, tea.Cmd) {
	var err error
	switch k {
	case "q", "ctrl+c", "esc":
		if err := m.ctrl.Shutdown(); err != nil && !errors.Is(err, playback.ErrStopped) {
			m.err = err
		}
		return m, tea.Quit
	case " ":
		if m.ctrl.State() == playback.Playing {
			err = m.ctrl.Pause()
		} else {
			err = m.ctrl.Play()
		}
	case "n", ".":
		err = m.ctrl.StepOnce()
	case "+", "=":
		err = m.ctrl.SetSpeed(min(m.ctrl.Speed()*2, maxSpeed))
	case "-", "_":
		err = m.ctrl.SetSpeed(max(m.ctrl.Speed()/2, minSpeed))
	case "0":
		err = m.ctrl.SetSpeed(0)
	case "1":
		err = m.ctrl.SetSpeed(1)
	case "r":
		if m.rebuild == nil {
			break
		}
		var sc *scene.Scene
		if sc, err = m.rebuild(); err == nil {
			err = m.ctrl.Reset(sc)
		}
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	}
	m.status = ""
	if err != nil {
		m.status = err.Error()
	}
	return m, nil
}

// poll drains pending frames into the timeline and the plotted series.
func (m *Model) poll() {
	epoch := m.timeline.Epoch()
	n, open := m.timeline.Poll(m.ctrl.Frames())
	if !open {
		m.closed = true
		m.err = m.ctrl.Err()
	}
	if n == 0 {
		return
	}
	frames := m.timeline.Frames()
	if m.timeline.Epoch() != epoch || len(m.temperature) == 0 {
		m.temperature = m.temperature[:0]
		m.energy = m.energy[:0]
		m.view = Fit(frames[0], 0.1)
	}
	if n > len(frames) {
		n = len(frames)
	}
	for _, f := range frames[len(frames)-n:] {
		m.temperature = appendBounded(m.temperature, f.Stats.Temperature)
		m.energy = appendBounded(m.energy, f.Stats.KineticEnergy)
	}
}

func appendBounded(s []float64, v float64) []float64 {
	if len(s) >= historyCapacity {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	return append(s, v)
}

// Err is the scheduler failure seen by the viewer, if any.
func (m Model) Err() error { return m.err }

func (m Model) stateLabel() string {
	st := m.ctrl.State()
	switch st {
	case playback.Playing:
		return m.styles.playing.Render(strings.ToUpper(st.String()))
	case playback.Stopped:
		return m.styles.stopped.Render(strings.ToUpper(st.String()))
	default:
		return m.styles.paused.Render(strings.ToUpper(st.String()))
	}
}

func (m Model) row(label, value string) string {
	return m.styles.label.Render(label) + m.styles.value.Render(value) + "\n"
}

func (m Model) View() string {
	f, ok := m.timeline.Last()
	if ok {
		Draw(m.canvas, f, m.view)
	} else {
		m.canvas.Clear()
	}
	canvasView := m.styles.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(m.styles.title.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.stateLabel() + "\n\n")

	if len(m.temperature) > 1 {
		chart := asciigraph.Plot(m.temperature,
			asciigraph.Height(5),
			asciigraph.Width(30),
			asciigraph.Caption("Temperature"))
		s.WriteString(m.styles.graph.Render(chart) + "\n")
	}
	s.WriteString(m.row("Energy", m.styles.sparkline(m.energy, 24)))

	speed := "max"
	if v := m.ctrl.Speed(); v > 0 {
		speed = fmt.Sprintf("%gx", v)
	}
	s.WriteString(m.row("Time", fmt.Sprintf("%.3f", f.Time)))
	s.WriteString(m.row("Frame", fmt.Sprintf("%d (epoch %d)", f.Number, f.Epoch)))
	s.WriteString(m.row("Speed", speed))
	s.WriteString(m.row("Particles", fmt.Sprintf("%d", f.Stats.NumParticles)))
	s.WriteString(m.row("Temp", fmt.Sprintf("%.4f", f.Stats.Temperature)))
	s.WriteString(m.row("Kinetic", fmt.Sprintf("%.4f", f.Stats.KineticEnergy)))
	s.WriteString(m.row("Momentum", fmt.Sprintf("(%.3f, %.3f)", f.Stats.Momentum.X, f.Stats.Momentum.Y)))
	s.WriteString(m.row("Dropped", fmt.Sprintf("%d", m.ctrl.Dropped())))
	for _, w := range f.Warnings {
		s.WriteString(m.styles.warning.Render("! "+w.String()) + "\n")
	}
	if m.status != "" {
		s.WriteString(m.styles.warning.Render(m.status) + "\n")
	}
	s.WriteString(m.styles.help.Render("SP:Play/Pause N:Step +/-:Speed\nR:Reset T:Theme ?:Help Q:Quit"))

	statsView := m.styles.panel.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  Space    play / pause
  N or .   advance one step while paused
  + / -    double / halve speed
  0 / 1    unthrottled / real time
  R        rebuild the scene and reset
  T        cycle themes
  ?        toggle this help
  Q        quit
`

// Run shows the viewer until the user quits or the scheduler stops.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
