package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudzz-dev/batepapo/internal/client/api"
)

type StatusPinger interface {
	Status(ctx context.Context, name string) error
}

// Heartbeat keeps the session's user in the participant list.
type Heartbeat struct {
	pinger  StatusPinger
	session *Session
}

func NewHeartbeat(pinger StatusPinger, session *Session) *Heartbeat {
	return &Heartbeat{pinger: pinger, session: session}
}

// Ping reports ErrSessionExpired once the backend no longer knows the user.
func (h *Heartbeat) Ping(ctx context.Context) error {
	err := h.pinger.Status(ctx, h.session.Username())
	if err == nil {
		return nil
	}
	var se *api.StatusError
	if errors.As(err, &se) && se.Code == http.StatusBadRequest {
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return fmt.Errorf("%w: status: %w", ErrFetchFailed, err)
}
