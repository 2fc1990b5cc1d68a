// internal/app/features/tasks/handler.go
package tasks

import (
	"net/http"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/inputval"
	"github.com/dalemusser/taskboard/internal/app/system/jsonbody"
	"github.com/dalemusser/taskboard/internal/app/system/optional"
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
	Title       string `json:"title" validate:"notblank,max=200" label:"Task title"`
	Description string `json:"description" validate:"max=5000" label:"Description"`
	Status      string `json:"status" validate:"omitempty,taskstatus" label:"Status"`
	AssignedTo  string `json:"assignedTo" validate:"omitempty,email" label:"Assignee"`
	DueDate     string `json:"dueDate"`
}

type updateRequest struct {
	Title       optional.Field[string] `json:"title"`
	Description optional.Field[string] `json:"description"`
	Status      optional.Field[string] `json:"status"`
	AssignedTo  optional.Field[string] `json:"assignedTo"`
	DueDate     optional.Field[string] `json:"dueDate"`
}

// fields is the update validated with the create rules; only present
// fields are checked.
type updateFields struct {
	Title       string `json:"title" validate:"notblank,max=200" label:"Task title"`
	Description string `json:"description" validate:"max=5000" label:"Description"`
	Status      string `json:"status" validate:"taskstatus" label:"Status"`
	AssignedTo  string `json:"assignedTo" validate:"omitempty,email" label:"Assignee"`
}

func (u updateRequest) toInput() (tracker.UpdateTaskInput, error) {
	f := updateFields{
		Title:       u.Title.OrZero(),
		Description: u.Description.OrZero(),
		Status:      u.Status.OrZero(),
		AssignedTo:  u.AssignedTo.OrZero(),
	}
	if res := inputval.Validate(f); res.HasErrors() {
		for _, fe := range res.Errors {
			present := map[string]bool{
				"title":       u.Title.IsSet(),
				"description": u.Description.IsSet(),
				"status":      u.Status.IsSet(),
				"assignedTo":  u.AssignedTo.IsSet(),
			}[fe.Field]
			if present {
				return tracker.UpdateTaskInput{}, apperr.Validation(fe.Message, map[string]string{fe.Field: fe.Message})
			}
		}
	}

	in := tracker.UpdateTaskInput{
		Title:       u.Title,
		Description: u.Description,
		Status:      u.Status,
		AssignedTo:  u.AssignedTo,
	}
	if u.DueDate.IsSet() {
		d, ok, err := parseDueDate(u.DueDate.OrZero())
		if err != nil {
			return tracker.UpdateTaskInput{}, err
		}
		if ok {
			in.DueDate = optional.Of(d)
		} else {
			in.DueDate = optional.Null[time.Time]()
		}
	}
	return in, nil
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
	due, ok, err := parseDueDate(req.DueDate)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in := tracker.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	}
	if ok {
		in.DueDate = &due
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	t, err := h.Tracker.CreateTask(ctx, *u, chi.URLParam(r, "projectId"), in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusCreated, respond.Envelope{
		"message": "Task created successfully",
		"task":    t,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req updateRequest
	if err := jsonbody.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	t, err := h.Tracker.UpdateTask(ctx, *u, chi.URLParam(r, "id"), in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusOK, respond.Envelope{
		"message": "Task updated successfully",
		"task":    t,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	if err := h.Tracker.DeleteTask(ctx, *u, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusOK, respond.Envelope{"message": "Task deleted successfully"})
}
