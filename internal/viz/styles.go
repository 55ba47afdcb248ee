package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// ProgressBar renders fraction (0-1) of width cells.
func ProgressBar(t Theme, fraction float64, width int) string {
	filled := int(math.Round(fraction * float64(width)))
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(t.Secondary).Render(bar)
}

// Sparkline renders the last width values, scaled between their min and
// max. Non-finite values render as gaps.
func Sparkline(t Theme, values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	span := hi - lo
	if !(span > 0) {
		span = 1
	}

	high := lipgloss.NewStyle().Foreground(t.Bad)
	mid := lipgloss.NewStyle().Foreground(t.Warning)
	low := lipgloss.NewStyle().Foreground(t.Good)

	var b strings.Builder
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteRune(' ')
			continue
		}
		norm := (v - lo) / span
		c := string(sparkChars[int(norm*float64(len(sparkChars)-1))])
		switch {
		case norm > 0.7:
			b.WriteString(high.Render(c))
		case norm > 0.3:
			b.WriteString(mid.Render(c))
		default:
			b.WriteString(low.Render(c))
		}
	}
	return b.String()
}

func Separator(t Theme, width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return lipgloss.NewStyle().Foreground(t.Muted).Render(left + " ◆ " + right)
}

// AnimatedSpinner returns frame of animated spinner
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}
