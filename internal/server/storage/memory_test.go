package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudzz-dev/batepapo/internal/models"
)

func TestMemoryRoster(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddParticipant(ctx, "Ana", t0))
	require.NoError(t, s.AddParticipant(ctx, "Bob", t0))
	assert.ErrorIs(t, s.AddParticipant(ctx, "Ana", t0), ErrExists)

	roster, err := s.Participants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Participant{{Name: "Ana"}, {Name: "Bob"}}, roster)

	require.NoError(t, s.Touch(ctx, "Bob", t0.Add(20*time.Second)))
	assert.ErrorIs(t, s.Touch(ctx, "Carl", t0), ErrNotFound)

	removed, err := s.RemoveIdle(ctx, t0.Add(10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana"}, removed)

	online, err := s.Online(ctx, "Ana")
	require.NoError(t, err)
	assert.False(t, online)
	online, err = s.Online(ctx, "Bob")
	require.NoError(t, err)
	assert.True(t, online)
}

func TestMemoryMessagesKeepsNewest(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	empty, err := s.Messages(ctx, 100)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := 0; i < maxKept+5; i++ {
		require.NoError(t, s.AppendMessage(ctx, models.Message{Text: fmt.Sprint(i)}))
	}

	last, err := s.Messages(ctx, 3)
	require.NoError(t, err)
	require.Len(t, last, 3)
	assert.Equal(t, fmt.Sprint(maxKept+2), last[0].Text)
	assert.Equal(t, fmt.Sprint(maxKept+4), last[2].Text)

	all, err := s.Messages(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, maxKept)
}
