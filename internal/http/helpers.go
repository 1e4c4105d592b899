package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case core.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it as JSON. Internal errors are not echoed
// to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	logger := log.FromContext(r.Context())
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		msg = http.StatusText(status)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldError, err)
	}
	writeJSON(w, status, errorBody{Error: msg, RequestID: RequestID(r.Context())})
}

// decodeJSON reads a single JSON document into dst. Malformed bodies wrap
// core.ErrInvalidField.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", core.ErrInvalidField)
		}
		return fmt.Errorf("%w: %v", core.ErrInvalidField, err)
	}
	return nil
}

// decodeFields reads a JSON object of partial fields.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidField, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", core.ErrInvalidField)
	}
	return fields, nil
}

func pathVar(r *http.Request, name string) string {
	return strings.TrimSpace(mux.Vars(r)[name])
}

func pathYearMonth(r *http.Request, name string) (core.YearMonth, error) {
	return core.ParseYearMonth(pathVar(r, name))
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", core.ErrInvalidField, name)
	}
	return n, nil
}
