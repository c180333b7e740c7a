package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloudzz-dev/batepapo/internal/models"
)

// Backend is everything a logged-in session needs from the server.
type Backend interface {
	Registrar
	MessageSource
	ParticipantSource
	MessagePoster
	StatusPinger
}

// Sink receives the results of polling ticks. Methods may be called from
// several goroutines at once.
type Sink interface {
	OnMessages(MessageUpdate)
	OnContacts(ContactUpdate)
	OnError(error)
}

type Intervals struct {
	Messages time.Duration
	Contacts time.Duration
	Status   time.Duration
}

var DefaultIntervals = Intervals{
	Messages: 3 * time.Second,
	Contacts: 3 * time.Second,
	Status:   5 * time.Second,
}

// Poller drives the three periodic loops of a session.
type Poller struct {
	Messages  *MessageSync
	Contacts  *ContactSync
	Heartbeat *Heartbeat

	intervals Intervals
	sink      Sink
	log       zerolog.Logger
}

func NewPoller(b Backend, s *Session, sink Sink, iv Intervals, log zerolog.Logger) *Poller {
	if iv.Messages <= 0 {
		iv.Messages = DefaultIntervals.Messages
	}
	if iv.Contacts <= 0 {
		iv.Contacts = DefaultIntervals.Contacts
	}
	if iv.Status <= 0 {
		iv.Status = DefaultIntervals.Status
	}
	return &Poller{
		Messages:  NewMessageSync(b, s),
		Contacts:  NewContactSync(b, s),
		Heartbeat: NewHeartbeat(b, s),
		intervals: iv,
		sink:      sink,
		log:       log.With().Str("user", s.Username()).Logger(),
	}
}

// Run syncs messages and contacts once, then keeps polling until ctx is
// done. Ticks do not wait for earlier requests, so answers may arrive out
// of order; the session drops the stale ones. Run returns ctx.Err() after
// every started request has finished.
func (p *Poller) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	p.spawn(ctx, &wg, p.syncMessages)
	p.spawn(ctx, &wg, p.syncContacts)

	mt := time.NewTicker(p.intervals.Messages)
	defer mt.Stop()
	ct := time.NewTicker(p.intervals.Contacts)
	defer ct.Stop()
	st := time.NewTicker(p.intervals.Status)
	defer st.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-mt.C:
			p.spawn(ctx, &wg, p.syncMessages)
		case <-ct.C:
			p.spawn(ctx, &wg, p.syncContacts)
		case <-st.C:
			p.spawn(ctx, &wg, p.ping)
		}
	}
}

func (p *Poller) spawn(ctx context.Context, wg *sync.WaitGroup, fn func(context.Context)) {
	if ctx.Err() != nil {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn(ctx)
	}()
}

func (p *Poller) syncMessages(ctx context.Context) {
	upd, err := p.Messages.Sync(ctx)
	if err != nil {
		p.fail(ctx, err)
		return
	}
	if upd.Stale {
		p.log.Debug().Msg("dropped stale messages response")
		return
	}
	p.sink.OnMessages(upd)
}

func (p *Poller) syncContacts(ctx context.Context) {
	upd, err := p.Contacts.Sync(ctx)
	if err != nil {
		p.fail(ctx, err)
		return
	}
	if upd.Stale {
		p.log.Debug().Msg("dropped stale participants response")
		return
	}
	if upd.Dropped {
		p.log.Info().Str("to", models.AllParticipants).Msg("recipient left, selection reset")
	}
	p.sink.OnContacts(upd)
}

func (p *Poller) ping(ctx context.Context) {
	if err := p.Heartbeat.Ping(ctx); err != nil {
		p.fail(ctx, err)
	}
}

// fail logs err and forwards it, unless it is just the cancellation of
// the run.
func (p *Poller) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	p.log.Warn().Err(err).Msg("poll failed")
	p.sink.OnError(err)
}
