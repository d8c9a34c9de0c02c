package shipments_api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BearBump/ShipTrack/internal/api/httpx"
	"github.com/BearBump/ShipTrack/internal/models"
	"github.com/BearBump/ShipTrack/internal/services/shipments"
	"github.com/BearBump/ShipTrack/internal/storage/memshipment"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func newRouter(t *testing.T, now func() time.Time, recheck time.Duration) http.Handler {
	t.Helper()
	svc := shipments.New(memshipment.New(), nil, 0, nil, time.UTC).WithClock(now)
	r := chi.NewRouter()
	New(svc, recheck).Routes(r)
	r.NotFound(httpx.NotFound)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return rr.Code, out
}

func fixedClock() time.Time { return testNow }

func TestCreateThenGet_SingleTimelineEntry(t *testing.T) {
	h := newRouter(t, fixedClock, 0)

	code, body := do(t, h, http.MethodPost, "/api/shipments",
		`{"trackingNumber":"PX100","status":"Picked Up","statusTime":"2026-10-19T08:00:00Z","origin":"Cape Town","destination":"Durban"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])

	code, body = do(t, h, http.MethodGet, "/api/shipments/PX100", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	sh := body["shipment"].(map[string]any)
	tl := sh["timeline"].([]any)
	require.Len(t, tl, 1)
	require.Equal(t, "Picked Up", tl[0].(map[string]any)["status"])
	require.Equal(t, "Package picked up by receiver", tl[0].(map[string]any)["description"])
	require.Equal(t, "October 19, 2026 at 08:00 AM", tl[0].(map[string]any)["time"])
}

func TestUpdate_MergesOnlySuppliedFields(t *testing.T) {
	h := newRouter(t, fixedClock, 0)
	_, created := do(t, h, http.MethodPost, "/api/shipments",
		`{"trackingNumber":"PX100","status":"Picked Up","statusTime":"2026-10-19T08:00:00Z","origin":"Cape Town","destination":"Durban"}`)
	before := created["shipment"].(map[string]any)

	code, body := do(t, h, http.MethodPut, "/api/shipments/PX100", `{"status":"Delivered"}`)
	require.Equal(t, http.StatusOK, code)
	after := body["shipment"].(map[string]any)
	require.Equal(t, "Delivered", after["status"])
	require.Equal(t, before["origin"], after["origin"])
	require.Equal(t, before["destination"], after["destination"])
	require.Equal(t, before["timeline"], after["timeline"])
	require.Equal(t, before["createdAt"], after["createdAt"])
}

func TestUpdate_Failures(t *testing.T) {
	h := newRouter(t, fixedClock, 0)

	code, body := do(t, h, http.MethodPut, "/api/shipments/NOPE", `{"status":"Delivered"}`)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, map[string]any{"success": false, "error": "Shipment not found"}, body)

	_, _ = do(t, h, http.MethodPost, "/api/shipments", `{"trackingNumber":"A"}`)

	code, body = do(t, h, http.MethodPut, "/api/shipments/A", `{"status":`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, false, body["success"])

	code, _ = do(t, h, http.MethodPut, "/api/shipments/A", `{"createdAt":42}`)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestGet_NotFoundIs200WithMessage(t *testing.T) {
	h := newRouter(t, fixedClock, 0)
	code, body := do(t, h, http.MethodGet, "/api/shipments/NOPE", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, map[string]any{"success": false, "message": "Shipment not found"}, body)
}

func TestDelete_UnknownStillSucceeds(t *testing.T) {
	h := newRouter(t, fixedClock, 0)
	code, body := do(t, h, http.MethodDelete, "/api/shipments/UNKNOWN", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, map[string]any{"success": true, "message": "Shipment deleted"}, body)
}

func TestEncodedSlashInTrackingNumber(t *testing.T) {
	h := newRouter(t, fixedClock, 0)
	code, _ := do(t, h, http.MethodPost, "/api/shipments", `{"trackingNumber":"A/B","status":"In Transit"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, h, http.MethodGet, "/api/shipments/A%2FB", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "A/B", body["shipment"].(map[string]any)["trackingNumber"])

	code, body = do(t, h, http.MethodPut, "/api/shipments/A%2FB", `{"status":"Delivered"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Delivered", body["shipment"].(map[string]any)["status"])

	code, _ = do(t, h, http.MethodDelete, "/api/shipments/A%2FB", "")
	require.Equal(t, http.StatusOK, code)
	_, body = do(t, h, http.MethodGet, "/api/shipments", "")
	require.Empty(t, body["shipments"].([]any))
}

func TestCreate_DuplicatesKeptAndClear(t *testing.T) {
	h := newRouter(t, fixedClock, 0)
	for i := 0; i < 2; i++ {
		code, _ := do(t, h, http.MethodPost, "/api/shipments", `{"trackingNumber":"DUP"}`)
		require.Equal(t, http.StatusOK, code)
	}

	_, body := do(t, h, http.MethodGet, "/api/shipments", "")
	require.Len(t, body["shipments"].([]any), 2)

	_, body = do(t, h, http.MethodGet, "/api/shipments/stats", "")
	require.Equal(t, float64(2), body["stats"].(map[string]any)["totalShipments"])

	code, body := do(t, h, http.MethodDelete, "/api/shipments", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "All shipments cleared", body["message"])

	_, body = do(t, h, http.MethodGet, "/api/shipments", "")
	require.Empty(t, body["shipments"].([]any))
}

func TestCreate_BadRequests(t *testing.T) {
	h := newRouter(t, fixedClock, 0)

	code, body := do(t, h, http.MethodPost, "/api/shipments", `{"status":"In Transit"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Tracking number is required", body["error"])

	code, body = do(t, h, http.MethodPost, "/api/shipments", `not json`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, false, body["success"])
}

func TestTimelineView_OrderedAndRendered(t *testing.T) {
	h := newRouter(t, fixedClock, 0)
	// In Transit в будущем, Picked Up в прошлом
	_, _ = do(t, h, http.MethodPost, "/api/shipments",
		`{"trackingNumber":"TL","status":"In Transit","statusTime":"2026-10-19T12:00:00Z","pickedUpTime":"2026-10-19T09:00:00Z"}`)

	code, body := do(t, h, http.MethodGet, "/api/shipments/TL/timeline", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "TL", body["trackingNumber"])
	require.Equal(t, true, body["recheck"])
	require.Equal(t, float64(30), body["recheckAfterSeconds"])

	view := body["timeline"].([]any)
	require.Len(t, view, 2)
	first := view[0].(map[string]any)
	second := view[1].(map[string]any)
	require.Equal(t, "In Transit", first["status"])
	require.Equal(t, false, first["completed"])
	require.Equal(t, false, first["active"])
	require.Equal(t, "Picked Up", second["status"])
	require.Equal(t, true, second["completed"])

	code, body = do(t, h, http.MethodGet, "/api/shipments/NOPE/timeline", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Shipment not found", body["message"])
}

func TestTimelineStream_StopsWhenTransitPasses(t *testing.T) {
	var ticks atomic.Int64
	// каждый вызов часов сдвигает время на час вперёд
	clock := func() time.Time {
		return testNow.Add(time.Duration(ticks.Add(1)) * time.Hour)
	}
	h := newRouter(t, clock, 10*time.Millisecond)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/shipments",
		strings.NewReader(`{"trackingNumber":"S","status":"In Transit","statusTime":"2026-10-19T14:30:00Z"}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/shipments/S/timeline/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events []string
	var frames [][]byte
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			events = append(events, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			frames = append(frames, []byte(strings.TrimPrefix(line, "data: ")))
		}
	}
	require.NoError(t, sc.Err())

	require.GreaterOrEqual(t, len(events), 2)
	require.Equal(t, "done", events[len(events)-1])
	require.Equal(t, "timeline", events[0])

	var last struct {
		Timeline []models.DisplayEntry `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal(frames[len(frames)-2], &last))
	require.Len(t, last.Timeline, 1)
	require.True(t, last.Timeline[0].Completed)
	require.True(t, last.Timeline[0].Active)
	require.False(t, bytes.Contains(frames[0], []byte(`"completed":true`)))
}
