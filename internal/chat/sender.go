package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudzz-dev/batepapo/internal/models"
)

type MessagePoster interface {
	PostMessage(ctx context.Context, p models.SendMessagePayload) error
}

// Sender posts composed messages to the current recipient and refreshes
// the feed afterwards.
type Sender struct {
	poster  MessagePoster
	session *Session
	sync    *MessageSync
}

func NewSender(poster MessagePoster, session *Session, sync *MessageSync) *Sender {
	return &Sender{poster: poster, session: session, sync: sync}
}

func (s *Sender) Send(ctx context.Context, text string) (MessageUpdate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return MessageUpdate{}, ErrEmptyMessage
	}

	snap := s.session.Snapshot()
	p := models.SendMessagePayload{
		From: snap.Username,
		To:   snap.SendTo,
		Text: text,
		Type: snap.Visibility.Kind(),
	}
	if err := s.poster.PostMessage(ctx, p); err != nil {
		return MessageUpdate{}, fmt.Errorf("%w: send: %w", ErrFetchFailed, err)
	}
	return s.sync.Sync(ctx)
}
