package shipments_api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/BearBump/ShipTrack/internal/api/httpx"
	"github.com/BearBump/ShipTrack/internal/models"
	"github.com/BearBump/ShipTrack/internal/services/shipments"
	"github.com/BearBump/ShipTrack/internal/services/timeline"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const maxBodyBytes = 1 << 20

type ShipmentsAPI struct {
	svc     *shipments.Service
	recheck time.Duration
}

// New builds the handlers. recheck is the interval of the timeline stream, zero means default.
func New(svc *shipments.Service, recheck time.Duration) *ShipmentsAPI {
	if recheck <= 0 {
		recheck = timeline.DefaultRecheckInterval
	}
	return &ShipmentsAPI{svc: svc, recheck: recheck}
}

func (a *ShipmentsAPI) Routes(r chi.Router) {
	r.Route("/api/shipments", func(r chi.Router) {
		r.Get("/", a.list)
		r.Post("/", a.create)
		r.Delete("/", a.clear)
		r.Get("/stats", a.stats)

		r.Route("/{trackingNumber}", func(r chi.Router) {
			r.Get("/", a.get)
			r.Put("/", a.update)
			r.Delete("/", a.delete)
			r.Get("/timeline", a.timeline)
			r.Get("/timeline/stream", a.timelineStream)
		})
	})
}

func (a *ShipmentsAPI) list(w http.ResponseWriter, r *http.Request) {
	all, err := a.svc.List(r.Context())
	if err != nil {
		a.internal(w, r, err, "Failed to fetch shipments")
		return
	}
	slog.Debug("list shipments", "count", len(all))
	httpx.OK(w, r, httpx.M{"shipments": all})
}

func (a *ShipmentsAPI) get(w http.ResponseWriter, r *http.Request) {
	sh, err := a.svc.Get(r.Context(), trackingNumber(r))
	if errors.Is(err, models.ErrShipmentNotFound) {
		// отсутствие записи здесь отдаётся со статусом 200
		httpx.Message(w, r, http.StatusOK, "Shipment not found")
		return
	}
	if err != nil {
		a.internal(w, r, err, "Failed to fetch shipment")
		return
	}
	httpx.OK(w, r, httpx.M{"shipment": sh})
}

func (a *ShipmentsAPI) create(w http.ResponseWriter, r *http.Request) {
	var in models.Shipment
	if err := decodeBody(w, r, &in); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	sh, err := a.svc.Create(r.Context(), &in)
	if errors.Is(err, models.ErrValidation) {
		httpx.Error(w, r, http.StatusBadRequest, "Tracking number is required")
		return
	}
	if err != nil {
		a.internal(w, r, err, "Failed to add shipment")
		return
	}
	httpx.OK(w, r, httpx.M{"shipment": sh})
}

func (a *ShipmentsAPI) update(w http.ResponseWriter, r *http.Request) {
	var p models.Patch
	if err := decodeBody(w, r, &p); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	sh, err := a.svc.Update(r.Context(), trackingNumber(r), p)
	switch {
	case errors.Is(err, models.ErrShipmentNotFound):
		httpx.Error(w, r, http.StatusNotFound, "Shipment not found")
		return
	case errors.Is(err, models.ErrInvalidPatch):
		httpx.Error(w, r, http.StatusBadRequest, "Invalid shipment fields")
		return
	case err != nil:
		a.internal(w, r, err, "Failed to update shipment")
		return
	}
	httpx.OK(w, r, httpx.M{"shipment": sh})
}

func (a *ShipmentsAPI) delete(w http.ResponseWriter, r *http.Request) {
	if _, err := a.svc.Delete(r.Context(), trackingNumber(r)); err != nil {
		a.internal(w, r, err, "Failed to delete shipment")
		return
	}
	httpx.OK(w, r, httpx.M{"message": "Shipment deleted"})
}

func (a *ShipmentsAPI) clear(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Clear(r.Context()); err != nil {
		a.internal(w, r, err, "Failed to clear shipments")
		return
	}
	httpx.OK(w, r, httpx.M{"message": "All shipments cleared"})
}

func (a *ShipmentsAPI) stats(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.Stats(r.Context())
	if err != nil {
		a.internal(w, r, err, "Failed to fetch stats")
		return
	}
	httpx.OK(w, r, httpx.M{"stats": st})
}

func (a *ShipmentsAPI) timeline(w http.ResponseWriter, r *http.Request) {
	tn := trackingNumber(r)
	entries, err := a.svc.Timeline(r.Context(), tn)
	if errors.Is(err, models.ErrShipmentNotFound) {
		httpx.Message(w, r, http.StatusOK, "Shipment not found")
		return
	}
	if err != nil {
		a.internal(w, r, err, "Failed to fetch shipment")
		return
	}

	now := a.svc.Now()
	httpx.OK(w, r, httpx.M{
		"trackingNumber":      tn,
		"timeline":            timeline.Render(timeline.OrderForDisplay(entries), now),
		"recheck":             timeline.NeedsRecheck(entries, now),
		"recheckAfterSeconds": int(a.recheck / time.Second),
	})
}

// timelineStream pushes the rendered timeline as server-sent events until no
// transit entry is pending or the client goes away.
func (a *ShipmentsAPI) timelineStream(w http.ResponseWriter, r *http.Request) {
	entries, err := a.svc.Timeline(r.Context(), trackingNumber(r))
	if errors.Is(err, models.ErrShipmentNotFound) {
		httpx.Message(w, r, http.StatusOK, "Shipment not found")
		return
	}
	if err != nil {
		a.internal(w, r, err, "Failed to fetch shipment")
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(view []models.DisplayEntry) error {
		b, err := json.Marshal(httpx.M{"timeline": view})
		if err != nil {
			return errors.Wrap(err, "marshal timeline")
		}
		if _, err := fmt.Fprintf(w, "event: timeline\ndata: %s\n\n", b); err != nil {
			return err
		}
		return rc.Flush()
	}

	err = timeline.Watch(r.Context(), entries, a.recheck, a.svc.Now, emit)
	if err != nil {
		if r.Context().Err() == nil {
			slog.Warn("timeline stream aborted", "tracking_number", trackingNumber(r), "err", err)
		}
		return
	}
	_, _ = fmt.Fprint(w, "event: done\ndata: {}\n\n")
	_ = rc.Flush()
}

func (a *ShipmentsAPI) internal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	slog.Error(msg, "method", r.Method, "path", r.URL.Path, "err", err)
	httpx.Error(w, r, http.StatusInternalServerError, msg)
}

// chi отдаёт сегмент как есть, A%2FB остаётся закодированным
func trackingNumber(r *http.Request) string {
	raw := chi.URLParam(r, "trackingNumber")
	if tn, err := url.PathUnescape(raw); err == nil {
		return tn
	}
	return raw
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}
