package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const secret = "0123456789abcdef0123456789abcdef"

type fakeUsers map[primitive.ObjectID]*models.User

func (f fakeUsers) FetchUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := auth.NewTokens(secret, "taskboard", time.Hour)
	id := primitive.NewObjectID()

	raw, exp, err := tokens.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v is not in the future", exp)
	}
	got, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != id {
		t.Errorf("Parse = %s, want %s", got.Hex(), id.Hex())
	}
}

func TestTokens_WrongSecret(t *testing.T) {
	raw, _, _ := auth.NewTokens(secret, "taskboard", time.Hour).Issue(primitive.NewObjectID())

	_, err := auth.NewTokens("another-secret-another-secret-xx", "taskboard", time.Hour).Parse(raw)
	if !errors.Is(err, auth.ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestTokens_Expired(t *testing.T) {
	tokens := auth.NewTokens(secret, "taskboard", time.Nanosecond)
	raw, _, _ := tokens.Issue(primitive.NewObjectID())
	time.Sleep(1100 * time.Millisecond)

	if _, err := tokens.Parse(raw); !errors.Is(err, auth.ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !auth.CheckPassword(hash, "hunter22") {
		t.Error("correct password rejected")
	}
	if auth.CheckPassword(hash, "hunter23") {
		t.Error("wrong password accepted")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		url    string
		want   string
	}{
		{"bearer", "Bearer abc", "/api/projects", "abc"},
		{"lowercase scheme", "bearer abc", "/api/projects", "abc"},
		{"other scheme", "Basic abc", "/api/projects?token=q", ""},
		{"query fallback", "", "/api/ws?token=q", "q"},
		{"none", "", "/api/projects", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := auth.TokenFromRequest(r); got != tt.want {
				t.Errorf("TokenFromRequest = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	tokens := auth.NewTokens(secret, "taskboard", time.Hour)
	known := &models.User{ID: primitive.NewObjectID(), Name: "Ann", Email: "ann@example.com"}
	mw := auth.NewMiddleware(tokens, fakeUsers{known.ID: known}, zap.NewNop())

	var seen *models.User
	h := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.CurrentUser(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	goodToken, _, _ := tokens.Issue(known.ID)
	ghostToken, _, _ := tokens.Issue(primitive.NewObjectID())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"deleted user", "Bearer " + ghostToken, http.StatusUnauthorized},
		{"valid", "Bearer " + goodToken, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && (seen == nil || seen.ID != known.ID) {
				t.Errorf("CurrentUser = %v, want %s", seen, known.ID.Hex())
			}
		})
	}
}
