package chat

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"

	"github.com/cloudzz-dev/batepapo/internal/client/api"
	"github.com/cloudzz-dev/batepapo/internal/models"
)

// fakeBackend is an in-memory room shared by every session under test.
type fakeBackend struct {
	mu           sync.Mutex
	participants []models.Participant
	feed         []models.Message
	posted       []models.SendMessagePayload
	statusCalls  int
	registerErr  error
	fetchErr     error
	statusErr    error
}

func (f *fakeBackend) Register(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	for _, p := range f.participants {
		if p.Name == name {
			return api.ErrNameTaken
		}
	}
	f.participants = append(f.participants, models.Participant{Name: name})
	return nil
}

func (f *fakeBackend) Participants(ctx context.Context) ([]models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return slices.Clone(f.participants), nil
}

func (f *fakeBackend) Messages(ctx context.Context) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return slices.Clone(f.feed), nil
}

func (f *fakeBackend) PostMessage(ctx context.Context, p models.SendMessagePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return f.fetchErr
	}
	f.posted = append(f.posted, p)
	f.feed = append(f.feed, models.Message{From: p.From, To: p.To, Text: p.Text, Type: p.Type, Time: "12:00:00"})
	return nil
}

func (f *fakeBackend) Status(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	return f.statusErr
}

func (f *fakeBackend) setParticipants(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants = f.participants[:0]
	for _, n := range names {
		f.participants = append(f.participants, models.Participant{Name: n})
	}
}

func (f *fakeBackend) add(msgs ...models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feed = append(f.feed, msgs...)
}

var errDown = errors.New("connection refused")

var errGone = &api.StatusError{Method: http.MethodPost, Path: "status", Code: http.StatusBadRequest}

func public(from, text string) models.Message {
	return models.Message{From: from, To: models.AllParticipants, Text: text, Type: models.KindPublic, Time: "10:00:00"}
}

func private(from, to, text string) models.Message {
	return models.Message{From: from, To: to, Text: text, Type: models.KindPrivate, Time: "10:00:00"}
}

func status(from, text string) models.Message {
	return models.Message{From: from, To: models.AllParticipants, Text: text, Type: models.KindStatus, Time: "10:00:00"}
}
