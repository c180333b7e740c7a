package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/cloudzz-dev/batepapo/internal/chat"
	"github.com/cloudzz-dev/batepapo/internal/models"
)

func plain(s string) string {
	return strings.TrimRight(ansi.Strip(s), " ")
}

func TestRenderMessageByKind(t *testing.T) {
	tests := []struct {
		name string
		msg  models.Message
		want string
	}{
		{
			name: "status",
			msg:  models.Message{From: "Ana", To: "Todos", Text: "entra na sala...", Type: models.KindStatus, Time: "10:00:00"},
			want: "(10:00:00) Ana entra na sala...",
		},
		{
			name: "public",
			msg:  models.Message{From: "Ana", To: "Todos", Text: "oi", Type: models.KindPublic, Time: "10:00:01"},
			want: "(10:00:01) Ana para Todos: oi",
		},
		{
			name: "private",
			msg:  models.Message{From: "Bob", To: "Ana", Text: "segredo", Type: models.KindPrivate, Time: "10:00:02"},
			want: "(10:00:02) Bob reservadamente para Ana: segredo",
		},
		{
			name: "unknown",
			msg:  models.Message{From: "Bob", To: "Ana", Text: "?", Type: models.KindUnknown},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plain(RenderMessage(tt.msg, 0)))
		})
	}
}

func TestRenderSanitizesUserText(t *testing.T) {
	m := models.Message{
		From: "<b>Ana</b>",
		To:   "Todos",
		Text: "oi <script>alert(1)</script>\x1b[31mvermelho\x1b[0m\nlinha & fim",
		Type: models.KindPublic,
		Time: "10:00:00",
	}

	got := RenderMessage(m, 0)
	assert.NotContains(t, got, "<script>")
	assert.NotContains(t, got, "\x1b[31m")
	assert.NotContains(t, got, "\n")
	assert.Equal(t, "(10:00:00) Ana para Todos: oi vermelho linha & fim", plain(got))
}

func TestRenderFeedSkipsUnknown(t *testing.T) {
	msgs := []models.Message{
		{From: "Ana", To: "Todos", Text: "a", Type: models.KindPublic, Time: "1"},
		{From: "Ana", To: "Todos", Text: "b", Type: models.KindUnknown, Time: "2"},
		{From: "Ana", To: "Todos", Text: "c", Type: models.KindPublic, Time: "3"},
	}
	lines := strings.Split(strings.TrimSuffix(ansi.Strip(RenderFeed(msgs, 0)), "\n"), "\n")
	assert.Len(t, lines, 2)
}

func TestRecipientHint(t *testing.T) {
	s := chat.Snapshot{SendTo: "Todos"}
	assert.Equal(t, "Enviando para Todos", RecipientHint(s))

	s = chat.Snapshot{SendTo: "Bob", Visibility: chat.Private}
	assert.Equal(t, "Enviando para Bob (reservadamente)", RecipientHint(s))
}
