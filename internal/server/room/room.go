package room

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/cloudzz-dev/batepapo/internal/models"
	"github.com/cloudzz-dev/batepapo/internal/server/metrics"
	"github.com/cloudzz-dev/batepapo/internal/server/storage"
)

// FeedLimit is how many messages GET messages returns.
const FeedLimit = 100

const (
	joinText  = "entra na sala..."
	leaveText = "sai da sala..."
)

var (
	ErrNameTaken = errors.New("name already in use")
	ErrNotOnline = errors.New("participant is not online")
	ErrInvalid   = errors.New("invalid request")
)

var textPolicy = bluemonday.StrictPolicy()

// sanitize strips markup and surrounding blanks. Entities escaped by the
// policy are decoded again, so "a < b" is stored as typed.
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// Room is the single chat room served by the dev backend.
type Room struct {
	store   storage.Store
	metrics *metrics.Metrics
	idle    time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

type Option func(*Room)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Room) { r.now = now }
}

// WithIdle sets how long a participant may go without a status ping.
func WithIdle(d time.Duration) Option {
	return func(r *Room) { r.idle = d }
}

func New(store storage.Store, m *metrics.Metrics, log zerolog.Logger, opts ...Option) *Room {
	r := &Room{
		store:   store,
		metrics: m,
		idle:    10 * time.Second,
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Room) stamp() string {
	return r.now().Format(time.TimeOnly)
}

func (r *Room) appendMessage(ctx context.Context, m models.Message) error {
	if err := r.store.AppendMessage(ctx, m); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	r.metrics.Messages.WithLabelValues(string(m.Type)).Inc()
	return nil
}

// Join registers name and announces it to the room.
func (r *Room) Join(ctx context.Context, name string) error {
	raw := strings.TrimSpace(name)
	name = sanitize(name)
	if name == "" || name == models.AllParticipants {
		return fmt.Errorf("%w: name %q", ErrInvalid, name)
	}
	// The client keeps the name it sent, so it must be stored unchanged.
	if name != raw {
		return fmt.Errorf("%w: name %q contains markup", ErrInvalid, raw)
	}

	err := r.store.AddParticipant(ctx, name, r.now())
	if errors.Is(err, storage.ErrExists) {
		return fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}

	r.metrics.Joins.Inc()
	r.metrics.Online.Inc()
	r.log.Info().Str("name", name).Msg("participant joined")

	return r.appendMessage(ctx, models.Message{
		From: name,
		To:   models.AllParticipants,
		Text: joinText,
		Type: models.KindStatus,
		Time: r.stamp(),
	})
}

// Post validates p and appends it to the feed.
func (r *Room) Post(ctx context.Context, p models.SendMessagePayload) error {
	from, to, text := sanitize(p.From), sanitize(p.To), sanitize(p.Text)
	switch {
	case from == "" || to == "" || text == "":
		return fmt.Errorf("%w: from, to and text are required", ErrInvalid)
	case !p.Type.Postable():
		return fmt.Errorf("%w: type must be %q or %q", ErrInvalid, models.KindPublic, models.KindPrivate)
	}

	online, err := r.store.Online(ctx, from)
	if err != nil {
		return fmt.Errorf("lookup sender: %w", err)
	}
	if !online {
		return fmt.Errorf("%w: %w: %q", ErrInvalid, ErrNotOnline, from)
	}

	return r.appendMessage(ctx, models.Message{
		From: from,
		To:   to,
		Text: text,
		Type: p.Type,
		Time: r.stamp(),
	})
}

// Ping keeps name online.
func (r *Room) Ping(ctx context.Context, name string) error {
	err := r.store.Touch(ctx, sanitize(name), r.now())
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrNotOnline, name)
	}
	return err
}

func (r *Room) Roster(ctx context.Context) ([]models.Participant, error) {
	return r.store.Participants(ctx)
}

// Feed returns the last FeedLimit messages, oldest first.
func (r *Room) Feed(ctx context.Context) ([]models.Message, error) {
	return r.store.Messages(ctx, FeedLimit)
}

// Sweep removes everyone idle for longer than the configured timeout and
// announces each departure.
func (r *Room) Sweep(ctx context.Context) ([]string, error) {
	removed, err := r.store.RemoveIdle(ctx, r.now().Add(-r.idle))
	if err != nil {
		return nil, fmt.Errorf("remove idle: %w", err)
	}
	for _, name := range removed {
		r.metrics.Leaves.Inc()
		r.metrics.Online.Dec()
		r.log.Info().Str("name", name).Msg("participant timed out")
		err := r.appendMessage(ctx, models.Message{
			From: name,
			To:   models.AllParticipants,
			Text: leaveText,
			Type: models.KindStatus,
			Time: r.stamp(),
		})
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Room) RunSweeper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				r.log.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}
