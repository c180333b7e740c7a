package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeartbeat(t *testing.T) {
	b := &fakeBackend{}
	h := NewHeartbeat(b, NewSession("Ana"))

	assert.NoError(t, h.Ping(context.Background()))
	assert.Equal(t, 1, b.statusCalls)

	b.statusErr = errGone
	err := h.Ping(context.Background())
	assert.True(t, errors.Is(err, ErrSessionExpired), "got %v", err)

	b.statusErr = errDown
	err = h.Ping(context.Background())
	assert.True(t, errors.Is(err, ErrFetchFailed), "got %v", err)
	assert.False(t, errors.Is(err, ErrSessionExpired))
}
