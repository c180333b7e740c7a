package chat

import (
	"context"
	"fmt"

	"github.com/cloudzz-dev/batepapo/internal/models"
)

type MessageSource interface {
	Messages(ctx context.Context) ([]models.Message, error)
}

type ParticipantSource interface {
	Participants(ctx context.Context) ([]models.Participant, error)
}

// MessageSync refreshes the session's message list from the backend.
type MessageSync struct {
	source  MessageSource
	session *Session
}

func NewMessageSync(source MessageSource, session *Session) *MessageSync {
	return &MessageSync{source: source, session: session}
}

// Sync fetches the feed and applies it. A failed fetch leaves the session
// untouched.
func (m *MessageSync) Sync(ctx context.Context) (MessageUpdate, error) {
	ticket := m.session.issue(streamMessages)
	feed, err := m.source.Messages(ctx)
	if err != nil {
		return MessageUpdate{}, fmt.Errorf("%w: messages: %w", ErrFetchFailed, err)
	}
	return m.session.applyMessages(ticket, feed), nil
}

// ContactSync refreshes the contact menu and repairs the selection.
type ContactSync struct {
	source  ParticipantSource
	session *Session
}

func NewContactSync(source ParticipantSource, session *Session) *ContactSync {
	return &ContactSync{source: source, session: session}
}

func (c *ContactSync) Sync(ctx context.Context) (ContactUpdate, error) {
	ticket := c.session.issue(streamContacts)
	roster, err := c.source.Participants(ctx)
	if err != nil {
		return ContactUpdate{}, fmt.Errorf("%w: participants: %w", ErrFetchFailed, err)
	}
	return c.session.applyContacts(ticket, roster), nil
}
