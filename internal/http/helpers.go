package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"registro/internal/aggregate"
	"registro/internal/core"
	applog "registro/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: ve.Reason, Code: "validation_error", Field: ve.Field})
		return
	}
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "not_found", "expense record not found")
		return
	}
	if errors.Is(err, core.ErrInvalidImportFormat) {
		writeError(w, r, http.StatusBadRequest, "invalid_import_format", err.Error())
		return
	}
	if errors.Is(err, core.ErrCapacityExceeded) {
		writeError(w, r, http.StatusUnprocessableEntity, "capacity_exceeded", err.Error())
		return
	}
	var se *core.PersistenceSyncError
	if errors.As(err, &se) {
		// The in-memory mutation stands; the client learns persistence lagged.
		writeError(w, r, http.StatusInternalServerError, "persistence_sync_failed",
			"the change was applied but could not be synced to storage")
		return
	}
	slog.ErrorContext(r.Context(), "Unhandled request error", "error", err, "path", r.URL.Path)
	writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
}

func logRequest(ctx context.Context, r *http.Request, status int, duration time.Duration, clientIP string) {
	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	} else if status >= 400 {
		level = slog.LevelWarn
	}
	requestID, _ := ctx.Value(requestIDKey).(string)
	applog.FromContext(ctx).Log(ctx, level, "Request completed",
		applog.FieldRequestID, requestID,
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldStatusCode, status,
		applog.FieldDuration, duration.Milliseconds(),
		applog.FieldClientIP, clientIP)
}

// queryPeriod reads the optional year and month filters. A month without a
// year is rejected, since the period would be ambiguous.
func queryPeriod(r *http.Request) (aggregate.Period, error) {
	var p aggregate.Period
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return p, &core.ValidationError{Field: "year", Reason: "year must be a number"}
		}
		p.Year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return p, &core.ValidationError{Field: "month", Reason: "month must be between 1 and 12"}
		}
		if p.Year == 0 {
			return p, &core.ValidationError{Field: "month", Reason: "month filter requires a year"}
		}
		p.Month = m
	}
	return p, nil
}

func queryFactory(r *http.Request) string {
	f := strings.TrimSpace(r.URL.Query().Get("factory"))
	if f == "" {
		return core.FactoryBoth
	}
	return f
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
