// internal/app/system/auth/middleware.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/taskboard/internal/app/system/respond"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UserFetcher loads the account a token was issued for. It returns
// mongo.ErrNoDocuments when the account no longer exists.
type UserFetcher interface {
	FetchUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user placed in context by RequireUser.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// WithUser returns ctx carrying u. Used by RequireUser and by tests.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// TokenFromRequest reads "Authorization: Bearer <t>", falling back to the
// "token" query parameter for WebSocket clients that cannot set headers.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Middleware authenticates API requests.
type Middleware struct {
	Tokens *Tokens
	Users  UserFetcher
	Log    *zap.Logger
}

func NewMiddleware(tokens *Tokens, users UserFetcher, logger *zap.Logger) *Middleware {
	return &Middleware{Tokens: tokens, Users: users, Log: logger}
}

// Authenticate resolves the request's token to a user.
func (m *Middleware) Authenticate(r *http.Request) (*models.User, error) {
	raw := TokenFromRequest(r)
	if raw == "" {
		return nil, errMissingToken
	}
	id, err := m.Tokens.Parse(raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()
	u, err := m.Users.FetchUser(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errUnknownUser
	}
	return u, err
}

var (
	errMissingToken = errors.New("missing token")
	errUnknownUser  = errors.New("user not found")
)

// RequireUser rejects requests without a valid token with 401 and otherwise
// places the freshly loaded user in the request context.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.Authenticate(r)
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		case errors.Is(err, errMissingToken):
			respond.Fail(w, http.StatusUnauthorized, "Not authorized, no token")
		case errors.Is(err, ErrTokenExpired):
			respond.Fail(w, http.StatusUnauthorized, "Not authorized, token expired")
		case errors.Is(err, ErrTokenInvalid), errors.Is(err, errUnknownUser):
			respond.Fail(w, http.StatusUnauthorized, "Not authorized, token failed")
		default:
			respond.Error(w, r, m.Log, err)
		}
	})
}
