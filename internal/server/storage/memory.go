package storage

import (
	"context"
	"sync"
	"time"

	"github.com/cloudzz-dev/batepapo/internal/models"
)

// maxKept bounds the in-memory feed.
const maxKept = 1000

type participant struct {
	name       string
	lastStatus time.Time
}

// Memory is a Store that lives and dies with the process.
type Memory struct {
	mu       sync.RWMutex
	online   []participant
	messages []models.Message
}

func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) indexLocked(name string) int {
	for i, p := range s.online {
		if p.name == name {
			return i
		}
	}
	return -1
}

func (s *Memory) AddParticipant(ctx context.Context, name string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(name) >= 0 {
		return ErrExists
	}
	s.online = append(s.online, participant{name: name, lastStatus: now})
	return nil
}

func (s *Memory) Touch(ctx context.Context, name string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(name)
	if i < 0 {
		return ErrNotFound
	}
	s.online[i].lastStatus = now
	return nil
}

func (s *Memory) Online(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(name) >= 0, nil
}

func (s *Memory) Participants(ctx context.Context) ([]models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Participant, 0, len(s.online))
	for _, p := range s.online {
		out = append(out, models.Participant{Name: p.name})
	}
	return out, nil
}

func (s *Memory) RemoveIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	kept := s.online[:0]
	for _, p := range s.online {
		if p.lastStatus.Before(cutoff) {
			removed = append(removed, p.name)
			continue
		}
		kept = append(kept, p)
	}
	s.online = kept
	return removed, nil
}

func (s *Memory) AppendMessage(ctx context.Context, m models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	if over := len(s.messages) - maxKept; over > 0 {
		s.messages = append([]models.Message(nil), s.messages[over:]...)
	}
	return nil
}

func (s *Memory) Messages(ctx context.Context, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.messages) > limit {
		start = len(s.messages) - limit
	}
	out := make([]models.Message, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out, nil
}

func (s *Memory) Close() error { return nil }
