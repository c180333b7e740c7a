package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudzz-dev/batepapo/internal/models"
)

func TestLogin(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		setup   func(*fakeBackend)
		wantErr error
	}{
		{name: "ok", input: "  Ana  "},
		{name: "empty", input: "", wantErr: ErrEmptyName},
		{name: "whitespace", input: " \t ", wantErr: ErrEmptyName},
		{
			name:    "taken",
			input:   "Ana",
			setup:   func(b *fakeBackend) { b.setParticipants("Ana") },
			wantErr: ErrNameTaken,
		},
		{
			name:    "backend down",
			input:   "Ana",
			setup:   func(b *fakeBackend) { b.registerErr = errDown },
			wantErr: ErrLoginFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{}
			if tt.setup != nil {
				tt.setup(b)
			}
			before, _ := b.Participants(context.Background())

			s, err := Login(context.Background(), b, tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, s)
				after, _ := b.Participants(context.Background())
				assert.Equal(t, before, after)
				return
			}
			require.NoError(t, err)
			snap := s.Snapshot()
			assert.Equal(t, "Ana", snap.Username)
			assert.Equal(t, models.AllParticipants, snap.SendTo)
			assert.Equal(t, Public, snap.Visibility)
		})
	}
}

func TestLoginBlankNameSkipsBackend(t *testing.T) {
	b := &fakeBackend{registerErr: errDown}
	_, err := Login(context.Background(), b, "   ")
	assert.Equal(t, ErrEmptyName, err)
}
