package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mchmarny/menued/pkg/editor"
	"github.com/mchmarny/menued/pkg/menu"
)

// maxBodyBytes caps request bodies; forms and drop events are tiny.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps editor and menu errors to HTTP status codes.
func statusFor(err error) int {
	var verr *menu.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, menu.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, menu.ErrCrossLevelMove), errors.Is(err, menu.ErrMoveIntoDescendant):
		return http.StatusConflict
	case errors.Is(err, editor.ErrDropOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var verr *menu.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	if errors.Is(err, menu.ErrCrossLevelMove) {
		resp.Error = menu.CrossLevelMoveAlert
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "url", r.URL.Path, "error", err)
		resp.Error = "error, see logs for details"
	} else {
		slog.Info("request rejected", "method", r.Method, "url", r.URL.Path, "status", status, "error", err)
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error": "error, see logs for details"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// decodeJSON reads a size-capped JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}
