package chat

import "github.com/cloudzz-dev/batepapo/internal/models"

// Visible reports whether user may see m. Private messages are visible to
// their two parties only; messages of unknown kind are never shown.
func Visible(m models.Message, user string) bool {
	switch m.Type {
	case models.KindStatus, models.KindPublic:
		return true
	case models.KindPrivate:
		return m.From == user || m.To == user
	default:
		return false
	}
}

// Filter returns the messages of feed visible to user, in feed order.
func Filter(feed []models.Message, user string) []models.Message {
	out := make([]models.Message, 0, len(feed))
	for _, m := range feed {
		if Visible(m, user) {
			out = append(out, m)
		}
	}
	return out
}
