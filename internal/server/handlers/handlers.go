package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cloudzz-dev/batepapo/internal/models"
	"github.com/cloudzz-dev/batepapo/internal/server/metrics"
	"github.com/cloudzz-dev/batepapo/internal/server/ratelimit"
	"github.com/cloudzz-dev/batepapo/internal/server/room"
)

// maxBody bounds every JSON request body.
const maxBody = 64 << 10

type Handler struct {
	room    *room.Room
	limiter *ratelimit.RateLimiter
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func New(rm *room.Room, limiter *ratelimit.RateLimiter, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{room: rm, limiter: limiter, metrics: m, log: log}
}

// Router mounts the room API under prefix, next to /health and /metrics.
func (h *Handler) Router(prefix string) http.Handler {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)

	r.Get("/health", HealthCheck)
	r.Handle("/metrics", h.metrics.Handler())

	r.Route(prefix, func(r chi.Router) {
		r.Get("/participants", h.listParticipants)
		r.Post("/participants", h.register)
		r.Get("/messages", h.listMessages)
		r.Post("/messages", h.postMessage)
		r.Post("/status", h.status)
	})
	return r
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// instrument logs each request and counts it by route pattern.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.Requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		h.log.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func (h *Handler) listParticipants(w http.ResponseWriter, r *http.Request) {
	roster, err := h.room.Roster(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.GetClientIP(r)
	if !h.limiter.Allow(ip) {
		h.metrics.RateLimited.Inc()
		h.log.Warn().Str("ip", ip).Msg("registration rate limited")
		http.Error(w, "Too many registrations from your IP", http.StatusTooManyRequests)
		return
	}

	var p models.StatusPayload
	if !decode(w, r, &p) {
		return
	}
	if err := h.room.Join(r.Context(), p.Name); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	feed, err := h.room.Feed(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var p models.SendMessagePayload
	if !decode(w, r, &p) {
		return
	}
	if err := h.room.Post(r.Context(), p); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	var p models.StatusPayload
	if !decode(w, r, &p) {
		return
	}
	if err := h.room.Ping(r.Context(), p.Name); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// fail answers 400 for anything the client got wrong and 500 otherwise.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrNameTaken),
		errors.Is(err, room.ErrNotOnline),
		errors.Is(err, room.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
