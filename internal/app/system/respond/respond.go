// internal/app/system/respond/respond.go
//
// Package respond writes the JSON envelope every API endpoint uses:
//
//	{ "success": true, ... }
//	{ "success": false, "message": "...", "errors": {...}, "error": "..." }
//
// "error" carries the raw detail of unexpected failures and is only written
// when ShowErrorDetail(true) was called (dev environment).
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var showDetail atomic.Bool

// ShowErrorDetail toggles the "error" field on 500 responses.
func ShowErrorDetail(on bool) { showDetail.Store(on) }

// Envelope is a success body; keys are merged next to "success": true.
type Envelope map[string]any

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes {"success":true, ...body} with status.
func OK(w http.ResponseWriter, status int, body Envelope) {
	out := make(Envelope, len(body)+1)
	for k, v := range body {
		out[k] = v
	}
	out["success"] = true
	JSON(w, status, out)
}

type errorBody struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Fail writes a failure envelope without going through error mapping.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Message: msg})
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error converts err into a failure envelope. Unexpected errors are logged
// with the request id and reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		JSON(w, StatusFor(ae), errorBody{Message: ae.Message, Errors: ae.Fields})
		return
	}

	if log != nil {
		log.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
	body := errorBody{Message: "Server error"}
	if showDetail.Load() {
		body.Error = err.Error()
	}
	JSON(w, http.StatusInternalServerError, body)
}
