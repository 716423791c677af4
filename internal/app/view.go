package app

import (
	"fmt"
	"strings"
	"time"
)

// Draw renders the shell: a title bar, one row per panel and a status line.
func (app *Application) Draw(dt time.Duration) {
	app.mu.Lock()
	state := app.state.Clone()
	status := app.status
	app.mu.Unlock()

	b := app.backend
	width, height := b.Size()
	if width <= 0 || height <= 0 {
		return
	}

	theme := state.Theme
	text := Style{Foreground: theme.Foreground, Background: theme.Background}
	bar := Style{Foreground: theme.Background, Background: theme.Accent, Bold: true}
	if bar.Foreground.W <= 0 {
		bar.Reverse = true
	}

	b.Clear()
	b.DrawText(0, 0, pad(titleLine(state), width), bar)

	row := 2
	for i, p := range state.Layout.Panels {
		if row >= height-1 {
			break
		}
		style := text
		if i == state.Layout.Focus {
			style.Reverse = true
		}
		b.DrawText(0, row, panelLine(p, i == state.Layout.Focus), style)
		row++
	}

	b.DrawText(0, height-1, pad(statusLine(status, state, app.metrics.Snapshot()), width), bar)
	b.Show()
}

func titleLine(s State) string {
	return fmt.Sprintf(" scaffold  %dx%d  theme: %s", s.Window.Size.X, s.Window.Size.Y, s.Theme.Name)
}

func panelLine(p Panel, focused bool) string {
	marker := "  "
	if focused {
		marker = "> "
	}
	check := "[ ]"
	if p.Visible {
		check = "[x]"
	}
	line := fmt.Sprintf("%s%s %s", marker, check, p.Title)
	if len(p.Tags) > 0 {
		line += " (" + strings.Join(p.Tags, ", ") + ")"
	}
	return line
}

func statusLine(status string, s State, m MetricsSnapshot) string {
	line := " " + status
	if s.Session.ShowFPS {
		line += fmt.Sprintf("  fps %.1f", m.CurrentFPS())
	}
	return line
}

// pad extends s with spaces to width runes so bars span the screen.
func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
