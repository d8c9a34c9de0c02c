// Package httpx holds the JSON envelope helpers and middleware shared by the API packages.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type M map[string]any

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

// OK writes 200 with success:true merged into body.
func OK(w http.ResponseWriter, r *http.Request, body M) {
	out := M{"success": true}
	for k, v := range body {
		out[k] = v
	}
	WriteJSON(w, r, http.StatusOK, out)
}

func Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, M{"success": false, "error": msg})
}

// Message is the failure shape that carries "message" instead of "error".
func Message(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, M{"success": false, "message": msg})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusNotFound, "Route not found")
}
