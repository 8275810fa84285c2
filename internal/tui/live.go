package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/celestial"
	"github.com/san-kum/orrery/internal/sim"
)

const (
	historyCapacity = 120
	frameInterval   = 33 * time.Millisecond
	maxSpeed        = 1024
	defaultRows     = 12
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

type Option func(*Model)

// WithObserver is notified after every step, like a sim.Runner observer.
func WithObserver(o sim.Observer) Option {
	return func(m *Model) { m.observers = append(m.observers, o) }
}

// WithSpeed sets the initial number of steps per frame.
func WithSpeed(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.speed = n
		}
	}
}

func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t }
}

// Model is a live telemetry view of a running system: a body table and
// an energy chart. It never renders the scene itself.
type Model struct {
	sys       *celestial.System
	title     string
	dt        float64
	speed     int
	running   bool
	observers []sim.Observer

	energy []float64
	offset int
	rows   int
	err    error

	theme  Theme
	styles styles
	width  int
	height int
}

func NewModel(sys *celestial.System, title string, dt float64, opts ...Option) Model {
	m := Model{
		sys:     sys,
		title:   title,
		dt:      dt,
		speed:   1,
		running: true,
		energy:  make([]float64, 0, historyCapacity),
		rows:    defaultRows,
		theme:   ThemeNight,
		width:   80,
		height:  24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.styles = newStyles(m.theme)
	m.record()
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

// Err is the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func (m Model) Speed() int    { return m.speed }
func (m Model) Running() bool { return m.running }

func (m Model) Energy() []float64 {
	out := make([]float64, len(m.energy))
	copy(out, m.energy)
	return out
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if rows := msg.Height - 20; rows > 0 {
			m.rows = rows
		}
		return m, nil
	case TickMsg:
		if m.err != nil {
			return m, nil
		}
		if m.running {
			m.advance()
		}
		if m.err != nil {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "+", "=":
		if m.speed < maxSpeed {
			m.speed *= 2
		}
	case "-", "_":
		if m.speed > 1 {
			m.speed /= 2
		}
	case "down", "j":
		if m.offset+m.rows < m.sys.Len() {
			m.offset++
		}
	case "up", "k":
		if m.offset > 0 {
			m.offset--
		}
	case "t":
		for i, t := range Themes {
			if t.Name == m.theme.Name {
				m.theme = Themes[(i+1)%len(Themes)]
				break
			}
		}
		m.styles = newStyles(m.theme)
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.speed; i++ {
		if err := m.sys.Step(m.dt); err != nil {
			m.fail(err)
			return
		}
		for _, o := range m.observers {
			o.OnStep(m.sys)
		}
		if !m.sys.Valid() {
			m.fail(celestial.ErrDiverged)
			return
		}
	}
	m.record()
}

func (m *Model) fail(err error) {
	m.err = &sim.SimulationError{Step: m.sys.Steps(), Time: m.sys.Time(), Wrapped: err}
	m.running = false
}

func (m *Model) record() {
	e := m.sys.Energy()
	if math.IsNaN(e) || math.IsInf(e, 0) {
		return
	}
	if len(m.energy) == historyCapacity {
		copy(m.energy, m.energy[1:])
		m.energy = m.energy[:historyCapacity-1]
	}
	m.energy = append(m.energy, e)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.failed.Render("DIVERGED")
	case m.running:
		return m.styles.running.Render("RUNNING")
	}
	return m.styles.paused.Render("PAUSED")
}

func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.header.Render(strings.ToUpper(m.title)) + "\n")
	b.WriteString(m.status() + "\n\n")
	b.WriteString(s.label.Render("Time") + s.value.Render(fmt.Sprintf("%.2f", m.sys.Time())) + "\n")
	b.WriteString(s.label.Render("Steps") + s.value.Render(fmt.Sprintf("%d", m.sys.Steps())) + "\n")
	b.WriteString(s.label.Render("Speed") + s.value.Render(fmt.Sprintf("%dx dt=%g", m.speed, m.dt)) + "\n")
	if len(m.energy) > 0 {
		e := m.energy[len(m.energy)-1]
		b.WriteString(s.label.Render("Energy") + s.value.Render(fmt.Sprintf("%.6g", e)) + "\n")
		if e0 := m.energy[0]; e0 != 0 {
			b.WriteString(s.label.Render("Drift") + s.value.Render(fmt.Sprintf("%.3e", math.Abs((e-e0)/e0))) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString(s.failed.Render(m.err.Error()) + "\n")
	}
	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(6), asciigraph.Width(40), asciigraph.Caption("Energy"))
		b.WriteString(s.graph.Render(chart) + "\n")
	}
	stats := b.String()

	view := lipgloss.JoinHorizontal(lipgloss.Top, s.panel.Render(m.table()), "  ", stats)
	help := s.help.Render("space:pause  +/-:speed  j/k:scroll  t:theme  q:quit")
	return view + "\n" + help
}

func (m Model) table() string {
	s := m.styles
	bodies := m.sys.Bodies()

	var b strings.Builder
	b.WriteString(s.muted.Render(fmt.Sprintf("%-14s %-6s %10s %10s %8s", "BODY", "MODE", "DIST", "SPEED", "SPIN")) + "\n")

	end := m.offset + m.rows
	if end > len(bodies) {
		end = len(bodies)
	}
	for i := m.offset; i < end; i++ {
		body := bodies[i]
		name := body.Name
		if len(name) > 14 {
			name = name[:13] + "…"
		}
		b.WriteString(fmt.Sprintf("%-14s %-6s %10.3f %10.5f %8.3f\n",
			name, body.Mode(), distance(body), speed(body), math.Mod(body.Spin, 2*math.Pi)))
	}
	if rest := len(bodies) - end; rest > 0 {
		b.WriteString(s.muted.Render(fmt.Sprintf("… %d more", rest)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// distance is measured from the parent for orbiting bodies and from the
// origin otherwise.
func distance(b celestial.Body) float64 {
	if o, ok := b.Orbit(); ok {
		return o.Radius()
	}
	return r3.Norm(b.Position)
}

// speed of an orbiting body is its tangential speed relative to the parent.
func speed(b celestial.Body) float64 {
	if o, ok := b.Orbit(); ok {
		return math.Abs(o.Speed) * o.Radius()
	}
	return r3.Norm(b.Velocity())
}

// Run starts the view in the alternate screen and blocks until it quits.
func Run(m Model) (Model, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return m, err
	}
	if fm, ok := final.(Model); ok {
		return fm, nil
	}
	return m, nil
}
