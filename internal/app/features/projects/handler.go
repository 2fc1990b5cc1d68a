// internal/app/features/projects/handler.go
package projects

import (
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/inputval"
	"github.com/dalemusser/taskboard/internal/app/system/jsonbody"
	"github.com/dalemusser/taskboard/internal/app/system/optional"
	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/app/system/respond"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/app/tracker"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Tracker *tracker.Service
	Log     *zap.Logger
}

func NewHandler(svc *tracker.Service, logger *zap.Logger) *Handler {
	return &Handler{Tracker: svc, Log: logger}
}

type createRequest struct {
	Title       string   `json:"title" validate:"notblank,max=200" label:"Project title"`
	Description string   `json:"description" validate:"max=5000" label:"Description"`
	Members     []string `json:"members"`
}

type updateRequest struct {
	Title       optional.Field[string]   `json:"title"`
	Description optional.Field[string]   `json:"description"`
	Members     optional.Field[[]string] `json:"members"`
}

// check applies the create rules to the fields that are present.
func (u updateRequest) check() error {
	if u.Title.IsSet() {
		if res := inputval.Validate(struct {
			Title string `json:"title" validate:"notblank,max=200" label:"Project title"`
		}{u.Title.OrZero()}); res.HasErrors() {
			return apperr.Validation(res.First(), res.Fields())
		}
	}
	if res := inputval.Validate(struct {
		Description string `json:"description" validate:"max=5000" label:"Description"`
	}{u.Description.OrZero()}); res.HasErrors() {
		return apperr.Validation(res.First(), res.Fields())
	}
	return nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	list, err := h.Tracker.ListProjects(ctx, *u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusOK, respond.Envelope{
		"count":    len(list),
		"projects": list,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req createRequest
	if err := jsonbody.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First(), res.Fields()))
		return
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	p, err := h.Tracker.CreateProject(ctx, *u, tracker.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Members:     req.Members,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusCreated, respond.Envelope{
		"message": "Project created successfully",
		"project": p,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	p, err := h.Tracker.GetProject(ctx, *u, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusOK, respond.Envelope{"project": p})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req updateRequest
	if err := jsonbody.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := req.check(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	p, err := h.Tracker.UpdateProject(ctx, *u, chi.URLParam(r, "id"), tracker.UpdateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Members:     req.Members,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusOK, respond.Envelope{
		"message": "Project updated successfully",
		"project": p,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	if err := h.Tracker.DeleteProject(ctx, *u, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusOK, respond.Envelope{"message": "Project deleted successfully"})
}

// Activity handles GET /api/projects/{id}/activity?limit=.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	list, err := h.Tracker.ProjectActivity(ctx, *u, chi.URLParam(r, "id"), paging.ParseLimit(r))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusOK, respond.Envelope{
		"count":    len(list),
		"activity": list,
	})
}
