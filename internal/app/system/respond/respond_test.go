package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/respond"
	"go.uber.org/zap"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.OK(rec, http.StatusCreated, respond.Envelope{"message": "Created"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != true || body["message"] != "Created" {
		t.Errorf("body = %v", body)
	}
}

func TestError_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("Title is required.", map[string]string{"title": "Title is required."}), http.StatusBadRequest},
		{"unauthorized", apperr.Unauthorized("Not authorized"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("Not authorized to update this project"), http.StatusForbidden},
		{"not found", apperr.NotFound("Project not found"), http.StatusNotFound},
		{"conflict", apperr.Conflict("User already exists"), http.StatusConflict},
		{"rate limited", apperr.RateLimited("slow down"), http.StatusTooManyRequests},
		{"unexpected", errors.New("socket closed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			respond.Error(rec, req, zap.NewNop(), tt.err)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			body := decode(t, rec)
			if body["success"] != false {
				t.Errorf("success = %v, want false", body["success"])
			}
		})
	}
}

func TestError_DetailOnlyWhenEnabled(t *testing.T) {
	defer respond.ShowErrorDetail(false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	respond.ShowErrorDetail(false)
	rec := httptest.NewRecorder()
	respond.Error(rec, req, zap.NewNop(), errors.New("secret detail"))
	if _, ok := decode(t, rec)["error"]; ok {
		t.Error("error detail written while disabled")
	}

	respond.ShowErrorDetail(true)
	rec = httptest.NewRecorder()
	respond.Error(rec, req, zap.NewNop(), errors.New("secret detail"))
	if got := decode(t, rec)["error"]; got != "secret detail" {
		t.Errorf("error = %v, want detail", got)
	}
}

func TestError_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	respond.Error(rec, req, nil, apperr.Validation("Title is required.", map[string]string{"title": "Title is required."}))

	errs, ok := decode(t, rec)["errors"].(map[string]any)
	if !ok || errs["title"] != "Title is required." {
		t.Errorf("errors = %v", errs)
	}
}
