package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the live view.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Good      lipgloss.Color
	Warning   lipgloss.Color
	Bad       lipgloss.Color
}

var (
	ThemePlasma = Theme{
		Name:      "plasma",
		Primary:   lipgloss.Color("#ff00ff"),
		Secondary: lipgloss.Color("#00ffff"),
		Accent:    lipgloss.Color("#ffff00"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666688"),
		Good:      lipgloss.Color("#00ff88"),
		Warning:   lipgloss.Color("#ffaa00"),
		Bad:       lipgloss.Color("#ff4444"),
	}

	ThemeRetro = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"), // green phosphor
		Secondary: lipgloss.Color("#00cc00"),
		Accent:    lipgloss.Color("#88ff88"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Good:      lipgloss.Color("#88ff88"),
		Warning:   lipgloss.Color("#ffff00"),
		Bad:       lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:      "minimal",
		Primary:   lipgloss.Color("#ffffff"),
		Secondary: lipgloss.Color("#cccccc"),
		Accent:    lipgloss.Color("#0088ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Good:      lipgloss.Color("#00ff00"),
		Warning:   lipgloss.Color("#ffaa00"),
		Bad:       lipgloss.Color("#ff0000"),
	}

	ThemeAurora = Theme{
		Name:      "aurora",
		Primary:   lipgloss.Color("#7fffd4"),
		Secondary: lipgloss.Color("#9370db"),
		Accent:    lipgloss.Color("#ffd700"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Good:      lipgloss.Color("#00ff88"),
		Warning:   lipgloss.Color("#ffcc00"),
		Bad:       lipgloss.Color("#ff4444"),
	}

	Themes = []Theme{ThemePlasma, ThemeRetro, ThemeMinimal, ThemeAurora}
)

// GetTheme returns the named theme, or the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// Next returns the theme after t, wrapping around.
func (t Theme) Next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// styles are the lipgloss styles derived from a theme.
type styles struct {
	header, label, value, muted lipgloss.Style
	good, warning, bad          lipgloss.Style
	orbit, panel, graph         lipgloss.Style
}

func (t Theme) styles() styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return styles{
		header:  fg(t.Secondary).Bold(true).MarginBottom(1),
		label:   fg(t.Muted).Width(12),
		value:   fg(t.Text),
		muted:   fg(t.Muted),
		good:    fg(t.Good).Bold(true),
		warning: fg(t.Warning).Bold(true),
		bad:     fg(t.Bad).Bold(true),
		orbit:   fg(t.Primary).Padding(1, 2),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(44),
		graph: fg(t.Accent).Padding(1, 0),
	}
}
