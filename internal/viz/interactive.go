package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/plasmakit/internal/config"
	"github.com/san-kum/plasmakit/internal/experiment"
)

var presetInfo = map[string]string{
	"gyration":              "larmor orbit in a uniform field",
	"exb_drift":             "E cross B drift",
	"tokamak":               "banana orbits in a toroidal field",
	"mirror":                "bounce between magnetic mirrors",
	"relativistic_electron": "0.9c electron gyration",
}

const (
	stateMenu = iota
	stateSim
)

// menu picks a preset and pusher, then hands over to the live view.
type menu struct {
	reg     *experiment.Registry
	state   int
	cursor  int
	presets []string
	pushers []string
	pusher  int // -1 keeps the preset's pusher
	theme   Theme
	err     error
	live    Model
}

func NewInteractiveApp(reg *experiment.Registry) *menu {
	return &menu{
		reg:     reg,
		presets: config.ListPresets(),
		pushers: reg.ListPushers(),
		pusher:  -1,
		theme:   Themes[0],
	}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.state = stateMenu
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "tab":
		m.pusher++
		if m.pusher >= len(m.pushers) {
			m.pusher = -1
		}
	case "t":
		m.theme = m.theme.Next()
	case "enter", " ":
		return m.launch()
	}
	return m, nil
}

func (m menu) selected() *config.Config {
	cfg := config.GetPreset(m.presets[m.cursor])
	if m.pusher >= 0 {
		cfg.Pusher = m.pushers[m.pusher]
	}
	return cfg
}

func (m menu) launch() (menu, tea.Cmd) {
	cfg := m.selected()
	exp, err := experiment.Build(m.reg, cfg)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.live = NewModel(exp, cfg.Name+" / "+cfg.Pusher)
	m.live.theme = m.theme
	m.state = stateSim
	return m, m.live.Init()
}

func (m menu) View() string {
	if m.state == stateSim {
		return m.live.View() + "\n" + m.theme.styles().muted.Render("esc: back to presets")
	}

	st := m.theme.styles()
	var s strings.Builder
	s.WriteString(st.header.Render("PLASMAKIT") + "\n")
	for i, name := range m.presets {
		line := fmt.Sprintf("  %-24s %s", name, st.muted.Render(presetInfo[name]))
		if i == m.cursor {
			line = st.good.Render("▸ ") + st.value.Render(fmt.Sprintf("%-24s", name)) + " " + st.muted.Render(presetInfo[name])
		}
		s.WriteString(line + "\n")
	}

	pusher := "preset default"
	if m.pusher >= 0 {
		pusher = m.pushers[m.pusher]
	}
	cfg := m.selected()
	s.WriteString("\n" + st.label.Render("Pusher") + st.value.Render(pusher) + "\n")
	s.WriteString(st.label.Render("Species") + st.value.Render(cfg.Species) + "\n")
	s.WriteString(st.label.Render("Field") + st.value.Render(cfg.Field.Type) + "\n")
	s.WriteString(st.label.Render("Particles") + st.value.Render(fmt.Sprintf("%d", len(cfg.Particles))) + "\n")
	if m.err != nil {
		s.WriteString("\n" + st.bad.Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n" + st.muted.Render("↑/↓ select  tab pusher  t theme  enter run  q quit"))
	return lipgloss.NewStyle().Padding(1, 2).Render(s.String())
}

// RunInteractive opens the preset picker full screen.
func RunInteractive(reg *experiment.Registry) error {
	_, err := tea.NewProgram(NewInteractiveApp(reg), tea.WithAltScreen()).Run()
	return err
}
