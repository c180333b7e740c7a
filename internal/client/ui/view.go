package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// --- View ---

func (m Model) View() string {
	switch m.view {
	case viewLogin:
		return m.loginView()
	case viewChat:
		return m.chatView()
	}
	return ""
}

func (m Model) loginView() string {
	var s strings.Builder

	title := titleStyle.Render("╔═══════════════════════════════╗\n║          BATE-PAPO            ║\n╚═══════════════════════════════╝")

	s.WriteString("\n\n")
	s.WriteString(title)
	s.WriteString("\n\n")

	s.WriteString("  Nome de usuário:\n")
	s.WriteString("  " + m.nameInput.View() + "\n\n")

	if m.loggingIn {
		s.WriteString("  " + m.spinner.View() + mutedStyle.Render("Entrando...") + "\n\n")
	} else if m.loginErr != "" {
		s.WriteString(errorStyle.Render("  " + m.loginErr + "\n\n"))
	}

	s.WriteString(helpStyle.Render("  Enter para entrar • ctrl+c para sair\n"))

	return m.framed(s.String())
}

func (m Model) chatView() string {
	var s strings.Builder

	width := m.width - 2
	if width < 20 {
		width = 20
	}

	s.WriteString(titleStyle.Render("💬 Bate-papo - " + clean(m.snap.Username)))
	s.WriteString("\n")
	s.WriteString(strings.Repeat("─", width))
	s.WriteString("\n")

	body := m.feed.View()
	if m.loading {
		body = m.spinner.View() + mutedStyle.Render("Carregando mensagens...")
	}
	if m.menuOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.menuView())
	}
	s.WriteString(body)
	s.WriteString("\n")

	if m.banner != "" {
		s.WriteString(errorStyle.Render(m.banner))
		s.WriteString("\n")
	}
	s.WriteString(strings.Repeat("─", width))
	s.WriteString("\n")
	s.WriteString(m.messageInput.View())
	s.WriteString("\n")
	s.WriteString(mutedStyle.Render(RecipientHint(m.snap)))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Enter envia • Tab contatos • PgUp/PgDn rola • ctrl+r reinicia • ctrl+c sai"))

	return s.String()
}

func (m Model) menuView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Contatos"))
	s.WriteString("\n")

	entries := m.menuEntries()
	for i, e := range entries {
		if e.isMode && (i == 0 || !entries[i-1].isMode) {
			s.WriteString("\n")
			s.WriteString(titleStyle.Render("Visibilidade"))
			s.WriteString("\n")
		}

		prefix := "  "
		if i == m.menuCursor {
			prefix = "→ "
		}
		mark := ""
		style := lipgloss.NewStyle()
		if e.selected {
			mark = " ✓"
			style = selectedStyle
		}
		s.WriteString(style.Render(prefix + e.label + mark))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓ • Enter escolhe • Esc fecha"))

	return menuStyle.Width(menuWidth).Render(s.String())
}

// framed boxes the login screen on terminals wide enough for it.
func (m Model) framed(content string) string {
	if m.width < 40 {
		return content
	}
	return boxStyle.Render(content)
}
