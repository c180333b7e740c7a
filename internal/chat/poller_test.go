package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	messages []MessageUpdate
	contacts []ContactUpdate
	errs     []error
}

func (r *recordingSink) OnMessages(u MessageUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, u)
}

func (r *recordingSink) OnContacts(u ContactUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts = append(r.contacts, u)
}

func (r *recordingSink) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingSink) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages), len(r.contacts), len(r.errs)
}

var fastIntervals = Intervals{
	Messages: 10 * time.Millisecond,
	Contacts: 10 * time.Millisecond,
	Status:   10 * time.Millisecond,
}

func TestPollerSyncsImmediately(t *testing.T) {
	b := &fakeBackend{}
	b.setParticipants("Ana", "Bob")
	b.add(public("Bob", "oi"))
	s := NewSession("Ana")
	sink := &recordingSink{}
	slow := Intervals{Messages: time.Hour, Contacts: time.Hour, Status: time.Hour}
	p := NewPoller(b, s, sink, slow, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		m, c, _ := sink.counts()
		return m == 1 && c == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))
	assert.Equal(t, 0, b.statusCalls)
	assert.Equal(t, "oi", s.Snapshot().Messages[0].Text)
}

func TestPollerKeepsPollingAfterErrors(t *testing.T) {
	b := &fakeBackend{fetchErr: errDown, statusErr: errDown}
	sink := &recordingSink{}
	p := NewPoller(b, NewSession("Ana"), sink, fastIntervals, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, _, e := sink.counts()
		return e >= 6
	}, time.Second, 5*time.Millisecond)

	b.mu.Lock()
	b.fetchErr = nil
	b.statusErr = nil
	b.mu.Unlock()

	require.Eventually(t, func() bool {
		m, c, _ := sink.counts()
		return m > 0 && c > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	for _, err := range sink.errs {
		assert.True(t, errors.Is(err, ErrFetchFailed), "got %v", err)
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	b := &fakeBackend{}
	p := NewPoller(b, NewSession("Ana"), &recordingSink{}, fastIntervals, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	b.mu.Lock()
	calls := b.statusCalls
	b.mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, calls, b.statusCalls)
}

func TestNewPollerDefaults(t *testing.T) {
	p := NewPoller(&fakeBackend{}, NewSession("Ana"), &recordingSink{}, Intervals{}, zerolog.Nop())
	assert.Equal(t, DefaultIntervals, p.intervals)
}
