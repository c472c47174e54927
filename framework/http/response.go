package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/http/validation"
)

// ErrNotFound is returned by services when the requested resource does not
// exist; Problem answers it with 404.
var ErrNotFound = errors.New("not found")

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with Laravel-style helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// Created sends 201 JSON: {"data": v}
func (res *Response) Created(v any) {
	res.JSON(http.StatusCreated, envelope{"data": v})
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusNotFound, "Resource not found")
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	msg := first(message, "Not found.")
	res.JSON(http.StatusNotFound, envelope{"message": msg})
}

// ValidationError sends 422 with the standard Laravel error bag.
//
//	res.ValidationError(validator.Errors())
func (res *Response) ValidationError(errors *validation.Errors) {
	res.JSON(http.StatusUnprocessableEntity, errors)
}

// ── Errors ───────────────────────────────────────────────────────────────────

// Problem answers with the status that fits err:
//
//	validation bag               → 422 with the error bag
//	ErrNotFound                  → 404
//	*container.ResolutionError   → 503, a handler dependency could not be built
//	anything else                → 500
//
// Error text is only sent when debug is true.
func (res *Response) Problem(err error, debug bool) {
	if bag, ok := validation.FromError(err); ok {
		res.ValidationError(bag)
		return
	}
	if errors.Is(err, ErrNotFound) {
		res.NotFound()
		return
	}

	status, msg := http.StatusInternalServerError, "Server Error."
	var re *container.ResolutionError
	if errors.As(err, &re) {
		status, msg = http.StatusServiceUnavailable, "Service Unavailable."
	}
	if debug {
		msg = err.Error()
	}
	res.JSON(status, envelope{"message": msg})
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
