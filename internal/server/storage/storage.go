package storage

import (
	"context"
	"errors"
	"time"

	"github.com/cloudzz-dev/batepapo/internal/models"
)

var (
	ErrExists   = errors.New("participant already online")
	ErrNotFound = errors.New("participant not online")
)

// Store keeps the online roster and the room feed.
type Store interface {
	// AddParticipant registers name as online, or fails with ErrExists.
	AddParticipant(ctx context.Context, name string, now time.Time) error
	// Touch refreshes the last status of name, or fails with ErrNotFound.
	Touch(ctx context.Context, name string, now time.Time) error
	Online(ctx context.Context, name string) (bool, error)
	// Participants lists the roster in registration order.
	Participants(ctx context.Context) ([]models.Participant, error)
	// RemoveIdle drops everyone whose last status is before cutoff and
	// returns their names.
	RemoveIdle(ctx context.Context, cutoff time.Time) ([]string, error)
	AppendMessage(ctx context.Context, m models.Message) error
	// Messages returns the newest limit messages, oldest first.
	Messages(ctx context.Context, limit int) ([]models.Message, error)
	Close() error
}
