package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/femsim/internal/dynamo"
	"github.com/san-kum/femsim/internal/scene"
	"github.com/san-kum/femsim/internal/sim"
)

const (
	canvasWidth     = 72
	canvasHeight    = 28
	historyCapacity = 600
	framePeriod     = time.Second / 30
	// Frames longer than this are clamped so a stall does not turn into a
	// burst of catch-up steps.
	maxFrame = 4 * framePeriod
	// Upper bound on fixed steps run for a single tick, whatever the speed.
	maxStepsPerFrame = 4000
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(framePeriod, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the live viewer. Every tick feeds the elapsed wall-clock time,
// scaled by speed, into the simulator's accumulator and redraws the
// scene's surfaces.
type Model struct {
	sim   *sim.Simulator
	scene *scene.Scene
	name  string
	x0    dynamo.State

	canvas *Canvas
	camera *Camera
	theme  Theme

	running  bool
	showHelp bool
	speed    float64
	last     time.Time
	err      error

	params    []string
	selected  int
	initial   map[string]float64
	energy    []float64
	heights   []float64
	recorder  *Recorder
	gifPath   string
	gifStatus string
}

// NewModel wraps an already built scene and its simulator.
func NewModel(s *sim.Simulator, sc *scene.Scene, name string) Model {
	m := Model{
		sim:     s,
		scene:   sc,
		name:    name,
		x0:      s.System().State(),
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		camera:  NewCamera(),
		theme:   Themes[0],
		running: true,
		speed:   1,
		initial: sc.System.GetParams(),
		energy:  make([]float64, 0, historyCapacity),
		heights: make([]float64, 0, historyCapacity),
		gifPath: "femsim.gif",
	}
	for k := range m.initial {
		m.params = append(m.params, k)
	}
	sort.Strings(m.params)
	s.Accumulator().SetMaxSteps(maxStepsPerFrame)
	m.camera.Frame(sc.Surfaces())
	m.draw()
	return m
}

// WithGIFPath sets where the G key writes its recording.
func (m Model) WithGIFPath(path string) Model {
	m.gifPath = path
	return m
}

func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		now := time.Time(msg)
		if m.running && m.err == nil {
			elapsed := framePeriod
			if !m.last.IsZero() {
				elapsed = min(now.Sub(m.last), maxFrame)
			}
			m.advance(elapsed.Seconds() * m.speed)
		}
		m.last = now
		m.draw()
		if m.recorder != nil {
			m.recorder.Capture(m.canvas)
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		m.reset()
	case "left", "h":
		m.camera.Orbit(-0.1, 0)
	case "right", "l":
		m.camera.Orbit(0.1, 0)
	case "up", "k":
		m.camera.Orbit(0, 0.1)
	case "down", "j":
		m.camera.Orbit(0, -0.1)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "f":
		m.camera.Frame(m.scene.Surfaces())
	case ">":
		m.speed = min(m.speed*2, 8)
	case "<":
		m.speed = max(m.speed/2, 1.0/64)
	case "tab":
		if len(m.params) > 0 {
			m.selected = (m.selected + 1) % len(m.params)
		}
	case "]":
		m.adjustParam(1.1)
	case "[":
		m.adjustParam(1 / 1.1)
	case "t":
		m.theme = NextTheme(m.theme)
	case "g":
		m.toggleRecording()
	case "?":
		m.showHelp = !m.showHelp
	}
	m.draw()
	return m, nil
}

// advance runs the steps due for elapsed seconds of simulated time.
func (m *Model) advance(elapsed float64) {
	if _, err := m.sim.Update(elapsed); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.record()
}

func (m *Model) record() {
	m.energy = appendCapped(m.energy, m.scene.System.Energy())
	if len(m.scene.Bodies) > 0 {
		m.heights = appendCapped(m.heights, m.scene.Bodies[0].Object.Centroid().Y())
	}
}

func appendCapped(s []float64, v float64) []float64 {
	if len(s) >= historyCapacity {
		s = s[1:]
	}
	return append(s, v)
}

func (m *Model) reset() {
	for k, v := range m.initial {
		_ = m.scene.System.SetParam(k, v)
	}
	if err := m.sim.Reset(m.x0); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.energy = m.energy[:0]
	m.heights = m.heights[:0]
	m.last = time.Time{}
}

func (m *Model) adjustParam(factor float64) {
	if len(m.params) == 0 {
		return
	}
	key := m.params[m.selected]
	val := m.scene.System.GetParams()[key]
	if err := m.scene.System.SetParam(key, val*factor); err != nil {
		m.err = err
	}
}

func (m *Model) toggleRecording() {
	if m.recorder == nil {
		m.recorder = NewRecorder(2, 3)
		m.gifStatus = ""
		return
	}
	if err := m.recorder.Save(m.gifPath); err != nil {
		m.gifStatus = err.Error()
	} else {
		m.gifStatus = fmt.Sprintf("saved %d frames to %s", m.recorder.Len(), m.gifPath)
	}
	m.recorder = nil
}

func (m *Model) draw() {
	m.canvas.Clear()
	Render(m.canvas, WireframeOf(m.scene.Surfaces()), m.camera)
}

// Time is the simulated time shown by the viewer.
func (m Model) Time() float64 { return m.sim.Time() }
func (m Model) Err() error    { return m.err }

func (m Model) View() string {
	canvas := lipgloss.NewStyle().Foreground(m.theme.Canvas).Padding(1, 2).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(titleStyle.Foreground(m.theme.Title).Render(strings.ToUpper(m.name)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("STOPPED") + "\n" + errorStyle.Render(m.err.Error()) + "\n\n")
	case m.recorder != nil:
		s.WriteString(StatusRecording.Render(fmt.Sprintf("● REC %d", m.recorder.Len())) + "\n\n")
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	s.WriteString(row("Time", fmt.Sprintf("%.3fs", m.sim.Time())))
	s.WriteString(row("Steps", fmt.Sprintf("%d", m.sim.Steps())))
	s.WriteString(row("Speed", fmt.Sprintf("%gx", m.speed)))
	s.WriteString(row("Contacts", fmt.Sprintf("%d", m.scene.System.Contacts())))
	if n := len(m.energy); n > 0 {
		s.WriteString(row("Energy", fmt.Sprintf("%.4g", m.energy[n-1])))
	}
	if len(m.heights) > 1 {
		chart := asciigraph.Plot(m.heights, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("centroid y"))
		s.WriteString("\n" + chart + "\n")
	}
	if len(m.energy) > 1 {
		s.WriteString("\n" + Sparkline(m.energy, 30) + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	params := m.scene.System.GetParams()
	for i, k := range m.params {
		line := fmt.Sprintf("%-18s %.4g", k, params[k])
		if i == m.selected {
			s.WriteString(StatusPaused.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	if m.gifStatus != "" {
		s.WriteString("\n" + m.gifStatus + "\n")
	}
	s.WriteString(hintStyle.Render("SP:pause R:reset Q:quit ?:help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, canvas, panelStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

const helpText = `
  Space      pause / resume
  R          reset bodies and parameters
  ←→ / H L   orbit camera
  ↑↓ / K J   tilt camera
  + -        zoom
  F          frame the scene
  < >        halve / double speed
  Tab        select parameter
  [ ]        decrease / increase parameter by 10%
  T          cycle theme
  G          start / stop GIF recording
  Q          quit
`

// Run starts the viewer in the alternate screen and blocks until it quits.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
