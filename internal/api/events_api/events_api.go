package events_api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BearBump/ShipTrack/internal/api/httpx"
	"github.com/BearBump/ShipTrack/internal/models"
	"github.com/BearBump/ShipTrack/internal/services/events"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type EventsAPI struct {
	svc       *events.Service
	limiter   RateLimiter
	limit     int64
	startedAt time.Time
	now       func() time.Time
}

type Option func(*EventsAPI)

// WithRateLimit caps POST /api/track per client address and minute.
func WithRateLimit(l RateLimiter, perMinute int64) Option {
	return func(a *EventsAPI) {
		if l != nil && perMinute > 0 {
			a.limiter = l
			a.limit = perMinute
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *EventsAPI) { a.now = now }
}

func New(svc *events.Service, opts ...Option) *EventsAPI {
	a := &EventsAPI{svc: svc, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	a.startedAt = a.now()
	return a
}

func (a *EventsAPI) Routes(r chi.Router) {
	r.Get("/api/events", a.list)
	r.Delete("/api/events", a.clear)
	r.Post("/api/track", a.track)
	r.Get("/api/stats", a.stats)
	r.Get("/health", a.health)
}

type trackRequest struct {
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Value     json.RawMessage `json:"value"`
	Timestamp string          `json:"timestamp"`
}

func (a *EventsAPI) list(w http.ResponseWriter, r *http.Request) {
	evs, st := a.svc.List()
	httpx.OK(w, r, httpx.M{"events": evs, "stats": st})
}

func (a *EventsAPI) clear(w http.ResponseWriter, r *http.Request) {
	a.svc.Clear()
	httpx.OK(w, r, httpx.M{"message": "All events cleared"})
}

func (a *EventsAPI) stats(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, r, httpx.M{"stats": a.svc.Stats()})
}

func (a *EventsAPI) track(w http.ResponseWriter, r *http.Request) {
	if !a.allow(r) {
		httpx.Error(w, r, http.StatusTooManyRequests, "Too many requests")
		return
	}

	var req trackRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ev, st, err := a.svc.Track(req.Name, req.Category, valueOrNil(req.Value), req.Timestamp)
	if errors.Is(err, models.ErrValidation) {
		httpx.Error(w, r, http.StatusBadRequest, "Event name and category are required")
		return
	}
	if err != nil {
		slog.Error("track event failed", "err", err)
		httpx.Error(w, r, http.StatusInternalServerError, "Failed to track event")
		return
	}

	slog.Info("event tracked", "name", ev.Name, "category", ev.Category)
	httpx.OK(w, r, httpx.M{"event": ev, "stats": st})
}

func (a *EventsAPI) health(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	httpx.WriteJSON(w, r, http.StatusOK, httpx.M{
		"status":    "healthy",
		"timestamp": now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"uptime":    now.Sub(a.startedAt).Seconds(),
	})
}

// allow fails open: a broken limiter must not block tracking.
func (a *EventsAPI) allow(r *http.Request) bool {
	if a.limiter == nil {
		return true
	}
	ok, _, err := a.limiter.Allow(r.Context(), "ratelimit:track:"+clientKey(r), a.limit, time.Minute)
	if err != nil {
		slog.Warn("rate limiter unavailable", "err", err)
		return true
	}
	return ok
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var falsy = [][]byte{[]byte("null"), []byte("false"), []byte("0"), []byte(`""`)}

// valueOrNil drops falsy JSON values, so they are stored as null.
func valueOrNil(raw json.RawMessage) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	for _, f := range falsy {
		if bytes.Equal(raw, f) {
			return nil
		}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if n, ok := v.(float64); ok && n == 0 {
		return nil
	}
	return v
}
