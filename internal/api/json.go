package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
)

const maxBodyBytes = 4 << 20

// okResponse is the success envelope.
type okResponse struct {
	OK      bool   `json:"ok" example:"true"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// errResponse is the failure envelope.
type errResponse struct {
	OK      bool   `json:"ok" example:"false"`
	Error   string `json:"error" example:"contact_not_found" validate:"required"`
	Message string `json:"message,omitempty" example:"contact not found"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, okResponse{OK: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, okResponse{OK: true, Message: msg})
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errResponse{Error: code, Message: msg})
}

// writeError maps a service error to its status and envelope. Errors
// without a domain kind are logged and reported as internal_error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
		writeErrorCode(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, apperr.ErrUpstream):
		status = http.StatusBadGateway
		slog.Warn("upstream failure", slog.String("code", e.Code), slog.String("error", e.Message))
	}

	resp := errResponse{Error: e.Code, Message: e.Message}
	if e.Details != nil {
		// ozzo validation.Errors marshals to {field: reason}.
		if m, ok := e.Details.(json.Marshaler); ok {
			resp.Details = m
		}
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("invalid_json", "request body is empty")
		}
		return apperr.Invalid("invalid_json", "invalid JSON body: "+err.Error())
	}
	return nil
}

// readBody returns the raw request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.Invalid("invalid_body", "failed to read body")
	}
	return data, nil
}

// pathID parses the positive integer URL parameter name.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("invalid_id", fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperr.Invalid("invalid_id", fmt.Sprintf("%s must be a positive integer", name))
	}
	return &id, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Invalid(apperr.CodeValidation, fmt.Sprintf("%s must be a boolean", name))
	}
	return &b, nil
}

func pagination(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	return limit, offset
}
