package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudzz-dev/batepapo/internal/chat"
	"github.com/cloudzz-dev/batepapo/internal/client/api"
	"github.com/cloudzz-dev/batepapo/internal/models"
	"github.com/cloudzz-dev/batepapo/internal/server/metrics"
	"github.com/cloudzz-dev/batepapo/internal/server/ratelimit"
	"github.com/cloudzz-dev/batepapo/internal/server/room"
	"github.com/cloudzz-dev/batepapo/internal/server/storage"
)

const prefix = "/api/v6/uol"

func newServer(t *testing.T, registrations int) (*httptest.Server, *api.Client) {
	t.Helper()
	m := metrics.New()
	rm := room.New(storage.NewMemory(), m, zerolog.Nop())
	h := New(rm, ratelimit.New(registrations, time.Minute), m, zerolog.Nop())

	srv := httptest.NewServer(h.Router(prefix))
	t.Cleanup(srv.Close)
	return srv, api.New(srv.URL+prefix, api.WithTimeout(2*time.Second))
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, client := newServer(t, 10)
	require.NoError(t, client.Register(context.Background(), "Ana"))

	code, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body)

	code, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "batepapo_joins_total 1")
	assert.Contains(t, body, "batepapo_http_requests_total")
}

func TestDuplicateRegistrationIsRejected(t *testing.T) {
	_, client := newServer(t, 10)
	ctx := context.Background()

	require.NoError(t, client.Register(ctx, "Ana"))
	err := client.Register(ctx, "Ana")
	assert.True(t, errors.Is(err, api.ErrNameTaken))

	_, err = chat.Login(ctx, client, "Ana")
	assert.True(t, errors.Is(err, chat.ErrNameTaken))
}

func TestRegistrationRateLimit(t *testing.T) {
	_, client := newServer(t, 2)
	ctx := context.Background()

	require.NoError(t, client.Register(ctx, "Ana"))
	require.NoError(t, client.Register(ctx, "Bob"))

	var se *api.StatusError
	require.ErrorAs(t, client.Register(ctx, "Carl"), &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

func TestInvalidPostsAreRejected(t *testing.T) {
	_, client := newServer(t, 10)
	ctx := context.Background()
	require.NoError(t, client.Register(ctx, "Ana"))

	for name, p := range map[string]models.SendMessagePayload{
		"status type":     {From: "Ana", To: "Todos", Text: "oi", Type: models.KindStatus},
		"empty text":      {From: "Ana", To: "Todos", Type: models.KindPublic},
		"not online":      {From: "Bob", To: "Todos", Text: "oi", Type: models.KindPublic},
		"hyphen spelling": {From: "Ana", To: "Bob", Text: "oi", Type: models.Kind("private-message")},
	} {
		t.Run(name, func(t *testing.T) {
			var se *api.StatusError
			require.ErrorAs(t, client.PostMessage(ctx, p), &se)
			assert.Equal(t, http.StatusBadRequest, se.Code)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	srv, _ := newServer(t, 10)
	resp, err := http.Post(srv.URL+prefix+"/messages", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusForUnknownNameExpiresSession(t *testing.T) {
	_, client := newServer(t, 10)
	err := chat.NewHeartbeat(client, chat.NewSession("Ghost")).Ping(context.Background())
	assert.True(t, errors.Is(err, chat.ErrSessionExpired))
}

func TestPublicMessageReachesEveryone(t *testing.T) {
	_, client := newServer(t, 10)
	ctx := context.Background()

	sessions := map[string]*chat.Session{}
	for _, name := range []string{"Ana", "Bob", "Carl"} {
		s, err := chat.Login(ctx, client, name)
		require.NoError(t, err)
		sessions[name] = s
	}

	ana := sessions["Ana"]
	_, err := chat.NewSender(client, ana, chat.NewMessageSync(client, ana)).Send(ctx, "oi")
	require.NoError(t, err)

	for name, s := range sessions {
		upd, err := chat.NewMessageSync(client, s).Sync(ctx)
		require.NoError(t, err)
		last := upd.Messages[len(upd.Messages)-1]
		assert.Equal(t, "Ana", last.From, name)
		assert.Equal(t, models.AllParticipants, last.To, name)
		assert.Equal(t, "oi", last.Text, name)
		assert.Equal(t, models.KindPublic, last.Type, name)
	}
}

func TestPrivateMessageVisibility(t *testing.T) {
	_, client := newServer(t, 10)
	ctx := context.Background()

	sessions := map[string]*chat.Session{}
	for _, name := range []string{"Ana", "Bob", "Carl"} {
		s, err := chat.Login(ctx, client, name)
		require.NoError(t, err)
		sessions[name] = s
	}

	bob := sessions["Bob"]
	_, err := chat.NewContactSync(client, bob).Sync(ctx)
	require.NoError(t, err)
	bob.Dispatch(chat.SelectRecipient{Name: "Ana"})
	snap := bob.Dispatch(chat.SetVisibility{Visibility: chat.Private})
	require.Equal(t, "Ana", snap.SendTo)

	_, err = chat.NewSender(client, bob, chat.NewMessageSync(client, bob)).Send(ctx, "segredo")
	require.NoError(t, err)

	seen := func(name string) bool {
		upd, err := chat.NewMessageSync(client, sessions[name]).Sync(ctx)
		require.NoError(t, err)
		for _, m := range upd.Messages {
			if m.Text == "segredo" {
				assert.Equal(t, models.KindPrivate, m.Type)
				return true
			}
		}
		return false
	}
	assert.True(t, seen("Ana"))
	assert.True(t, seen("Bob"))
	assert.False(t, seen("Carl"))
}
