// internal/app/features/authapi/handler.go
package authapi

import (
	"errors"
	"net/http"
	"time"

	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auditlog"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/inputval"
	"github.com/dalemusser/taskboard/internal/app/system/jsonbody"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/app/system/ratelimit"
	"github.com/dalemusser/taskboard/internal/app/system/respond"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users    *userstore.Store
	Tokens   *auth.Tokens
	Limiter  *ratelimit.LoginLimiter // nil disables throttling
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, tokens *auth.Tokens, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Tokens:   tokens,
		Limiter:  limiter,
		AuditLog: audit,
		Log:      logger,
	}
}

// userJSON is the public shape of a user.
type userJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toJSON(u models.User) userJSON {
	return userJSON{ID: u.ID.Hex(), Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

var errBadCredentials = apperr.Unauthorized("Invalid credentials")

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/register                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

type registerRequest struct {
	Name     string `json:"name" validate:"notblank,max=100" label:"Name"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"min=6,max=72,bcryptlen" label:"Password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonbody.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	req.Name = normalize.Name(req.Name)
	req.Email = normalize.Email(req.Email)
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First(), res.Fields()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{Name: req.Name, Email: req.Email, PasswordHash: hash})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Error(w, r, h.Log, apperr.Conflict("User already exists"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	token, exp, err := h.Tokens.Issue(u.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.Registered(ctx, r, u.ID, u.Email)

	respond.OK(w, http.StatusCreated, respond.Envelope{
		"user":      toJSON(u),
		"token":     token,
		"expiresAt": exp,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/login                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonbody.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	req.Email = normalize.Email(req.Email)
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First(), res.Fields()))
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, req.Email)
			respond.Error(w, r, h.Log, apperr.RateLimited(reason))
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, req.Email)
		respond.Error(w, r, h.Log, errBadCredentials)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Email)
		respond.Error(w, r, h.Log, errBadCredentials)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(u.Email)
	}
	token, exp, err := h.Tokens.Issue(u.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email)

	respond.OK(w, http.StatusOK, respond.Envelope{
		"user":      toJSON(*u),
		"token":     token,
		"expiresAt": exp,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/me                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	respond.OK(w, http.StatusOK, respond.Envelope{"user": toJSON(*u)})
}
