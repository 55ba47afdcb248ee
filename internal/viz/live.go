package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/plasmakit/internal/experiment"
	"github.com/san-kum/plasmakit/internal/metrics"
	"github.com/san-kum/plasmakit/internal/plasma"
	"github.com/san-kum/plasmakit/internal/tracker"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	trailCapacity   = 4000
	framesPerRun    = 600
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a tracker between frames and draws the orbits.
type Model struct {
	name     string
	species  plasma.Species
	pusher   string
	stepper  *tracker.Stepper
	maxSteps int
	perFrame int

	running  bool
	done     bool
	err      error
	showHelp bool
	view3D   bool
	theme    Theme
	canvas   *Canvas
	camera   *Camera

	trails    [][]plasma.Vec3
	drift     []float64
	e0, mu0   float64
	recording bool
	frames    []*image.Paletted
	gifPath   string
	status    string
}

// NewModel prepares a live view of exp. The run advances so that its full
// duration plays in about ten seconds.
func NewModel(exp *experiment.Experiment, name string) Model {
	run := exp.RunConfig()
	tr := exp.Tracker()
	steps := run.Steps()

	m := Model{
		name:     name,
		species:  tr.Species(),
		pusher:   tr.Pusher().Name(),
		stepper:  tr.Stepper(run.Dt, run.Workers),
		maxSteps: steps,
		perFrame: max(1, steps/framesPerRun),
		running:  true,
		theme:    Themes[0],
		canvas:   NewCanvas(width, height),
		camera:   NewCamera(),
		gifPath:  "orbit.gif",
	}
	m.reset()
	return m
}

// WithTheme selects the colour scheme by name.
func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.done {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "]":
			m.perFrame *= 2
		case "[":
			m.perFrame = max(1, m.perFrame/2)
		case "v":
			m.view3D = !m.view3D
		case "t":
			m.theme = m.theme.Next()
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() {
	m.stepper.Reset()
	m.done, m.err = false, nil
	m.running = true
	m.drift = m.drift[:0]

	x, v, b := m.stepper.State()
	m.trails = make([][]plasma.Vec3, len(x))
	for i := range x {
		m.trails[i] = append(make([]plasma.Vec3, 0, 256), x[i])
	}
	m.e0 = m.kinetic(v)
	m.mu0 = metrics.MagneticMoment(m.species, v[0], b[0])
}

// step advances one frame's worth of pushes.
func (m *Model) step() {
	n := min(m.perFrame, m.maxSteps-m.stepper.Steps())
	if err := m.stepper.Step(n); err != nil {
		m.err, m.running, m.done = err, false, true
		return
	}

	x, v, _ := m.stepper.State()
	for i := range x {
		m.trails[i] = append(m.trails[i], x[i])
		if len(m.trails[i]) > trailCapacity {
			m.trails[i] = m.trails[i][1:]
		}
	}

	d := 0.0
	if m.e0 > 0 {
		d = (m.kinetic(v) - m.e0) / m.e0
	}
	m.drift = append(m.drift, d)
	if len(m.drift) > historyCapacity {
		m.drift = m.drift[1:]
	}

	if m.stepper.Steps() >= m.maxSteps {
		m.running, m.done = false, true
	}
}

func (m *Model) kinetic(v []plasma.Vec3) float64 {
	var e float64
	for _, vi := range v {
		e += metrics.KineticEnergy(m.species.Mass, vi)
	}
	return e
}

func (m *Model) draw() {
	m.canvas.Clear()
	if m.view3D {
		scene := NewScene(m.trails...)
		m.canvas.Axes3D(m.camera, scene, 0.25/scene.Scale)
		for _, tr := range m.trails {
			m.canvas.Path3D(m.camera, scene, tr)
		}
		return
	}

	var xs, ys []float64
	for _, tr := range m.trails {
		for _, p := range tr {
			xs = append(xs, p[0])
			ys = append(ys, p[1])
		}
	}
	w, h := m.canvas.Dots()
	bounds := FitBounds(xs, ys, 0.05).Equal(w, h)

	for _, tr := range m.trails {
		px := make([]float64, len(tr))
		py := make([]float64, len(tr))
		for i, p := range tr {
			px[i], py[i] = p[0], p[1]
		}
		m.canvas.Polyline(bounds, px, py)
		if n := len(tr); n > 0 {
			m.canvas.Marker(bounds, tr[n-1][0], tr[n-1][1])
		}
	}
}

func (m Model) View() string {
	st := m.theme.styles()

	status := st.good.Render("RUNNING")
	switch {
	case m.err != nil:
		status = st.bad.Render("FAILED: " + m.err.Error())
	case m.done:
		status = st.good.Render("DONE")
	case !m.running:
		status = st.warning.Render("PAUSED")
	}
	if m.recording {
		status += "  " + st.bad.Render("● REC")
	}

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(status + "\n")
	if m.status != "" {
		s.WriteString(st.muted.Render(m.status) + "\n")
	}
	s.WriteString("\n")

	if len(m.drift) > 1 {
		chart := asciigraph.Plot(m.drift, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("ΔE/E0"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	x, v, b := m.stepper.State()
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Pusher", m.pusher)
	row("Species", m.species.Name)
	row("Particles", fmt.Sprintf("%d", len(x)))
	row("Time", fmt.Sprintf("%.4e s", m.stepper.Time()))
	row("Step", fmt.Sprintf("%d / %d  (x%d)", m.stepper.Steps(), m.maxSteps, m.perFrame))
	row("|v|", fmt.Sprintf("%.4e m/s", v[0].Norm()))
	row("|B|", fmt.Sprintf("%.4e T", b[0].Norm()))
	row("Larmor r", fmt.Sprintf("%.4e m", metrics.LarmorRadius(m.species, v[0], b[0])))
	if len(m.drift) > 0 {
		row("ΔE/E0", fmt.Sprintf("%.3e", m.drift[len(m.drift)-1]))
	}
	if m.mu0 > 0 {
		mu := metrics.MagneticMoment(m.species, v[0], b[0])
		row("Δμ/μ0", fmt.Sprintf("%.3e", (mu-m.mu0)/m.mu0))
	}
	s.WriteString("\n" + ProgressBar(m.theme, float64(m.stepper.Steps())/float64(m.maxSteps), 30) + "\n")
	s.WriteString(st.muted.Render("\n" + Separator(m.theme, 30) + "\nSP:Pause R:Reset Q:Quit\nV:3D T:Theme G:Record ?:Help"))

	view := "x-y"
	if m.view3D {
		view = "3d"
	}
	orbit := st.orbit.Render(m.canvas.String() + st.muted.Render(view))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, orbit, st.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart the run          ║
║  Q        - Quit                     ║
║  ] / [    - Double/halve steps/frame ║
║  V        - Toggle x-y / 3D view     ║
║  x y z    - Rotate 3D view (+shift)  ║
║  + / -    - Zoom 3D view             ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = m.frames[:0]
		m.status = ""
		return
	}
	m.recording = false
	if err := m.saveGIF(); err != nil {
		m.status = "gif: " + err.Error()
	} else {
		m.status = fmt.Sprintf("saved %d frames to %s", len(m.frames), m.gifPath)
	}
	m.frames = nil
}

// captureFrame rasterises the braille canvas, one block per dot.
func (m *Model) captureFrame() {
	const dotW, dotH = 4, 4
	cw, ch := m.canvas.Dots()
	img := image.NewPaletted(image.Rect(0, 0, cw*dotW, ch*dotH), color.Palette{color.Black, color.White})
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() error {
	if len(m.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(m.gifPath)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RunLive opens the live view full screen.
func RunLive(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
