package ui

import (
	"html"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"

	"github.com/cloudzz-dev/batepapo/internal/chat"
	"github.com/cloudzz-dev/batepapo/internal/models"
)

var markupPolicy = bluemonday.StrictPolicy()

// clean turns a user supplied field into a single line of plain text: no
// markup, no terminal escape sequences, no control characters.
func clean(s string) string {
	s = ansi.Strip(s)
	s = html.UnescapeString(markupPolicy.Sanitize(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

// RenderMessage renders one feed entry. Unknown kinds render as "".
// A positive width wraps the line.
func RenderMessage(m models.Message, width int) string {
	ts := timestampStyle.Render("(" + clean(m.Time) + ")")
	from := usernameStyle.Render(clean(m.From))
	to := usernameStyle.Render(clean(m.To))
	text := clean(m.Text)

	var (
		line  string
		style lipgloss.Style
	)
	switch m.Type {
	case models.KindStatus:
		line = ts + " " + from + " " + text
		style = statusStyle
	case models.KindPublic:
		line = ts + " " + from + " para " + to + ": " + text
		style = publicStyle
	case models.KindPrivate:
		line = ts + " " + from + " reservadamente para " + to + ": " + text
		style = privateStyle
	default:
		return ""
	}
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(line)
}

// RenderFeed renders every message, oldest first, one per line.
func RenderFeed(msgs []models.Message, width int) string {
	var b strings.Builder
	for _, m := range msgs {
		line := RenderMessage(m, width)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// RecipientHint is the line under the composer telling who will read it.
func RecipientHint(s chat.Snapshot) string {
	hint := "Enviando para " + clean(s.SendTo)
	if s.Visibility == chat.Private {
		hint += " (reservadamente)"
	}
	return hint
}
