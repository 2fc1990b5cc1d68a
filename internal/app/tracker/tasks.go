// internal/app/tracker/tasks.go
package tracker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/taskboard/internal/app/policy/projectpolicy"
	"github.com/dalemusser/taskboard/internal/app/realtime"
	"github.com/dalemusser/taskboard/internal/app/store/audit"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/app/system/optional"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var errBadStatus = apperr.Validation(
	"Status must be one of: todo, in-progress, completed",
	map[string]string{"status": "Status must be one of: todo, in-progress, completed."},
)

// CreateTaskInput is a new task. AssignedTo is an email address.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	AssignedTo  string
	DueDate     *time.Time
}

// UpdateTaskInput is a partial update. A null AssignedTo or DueDate clears it.
type UpdateTaskInput struct {
	Title       optional.Field[string]
	Description optional.Field[string]
	Status      optional.Field[string]
	AssignedTo  optional.Field[string]
	DueDate     optional.Field[time.Time]
}

// lookupAssignee resolves an assignee email to a user id.
func (s *Service) lookupAssignee(ctx context.Context, email string) (primitive.ObjectID, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return primitive.NilObjectID, apperr.Validation("Assigned user not found",
			map[string]string{"assignedTo": "Assigned user not found."})
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return u.ID, nil
}

// CreateTask adds a task to a project the actor participates in.
func (s *Service) CreateTask(ctx context.Context, actor models.User, projectID string, in CreateTaskInput) (TaskView, error) {
	pid, err := parseID(projectID, errProjectNotFound)
	if err != nil {
		return TaskView{}, err
	}
	p, err := s.loadProject(ctx, pid)
	if err != nil {
		return TaskView{}, err
	}
	role := projectpolicy.RoleFor(p, actor.ID)
	if !role.CanCreateTask() {
		return TaskView{}, apperr.Forbidden("Not authorized to add tasks to this project")
	}

	title := htmlsanitize.PlainText(in.Title)
	if title == "" {
		return TaskView{}, titleError("Task")
	}
	status := models.TaskStatus(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.StatusTodo
	}
	if !models.IsValidTaskStatus(string(status)) {
		return TaskView{}, errBadStatus
	}

	var requested *primitive.ObjectID
	if email := normalize.Email(in.AssignedTo); email != "" {
		if !role.IsOwner && email != normalize.Email(actor.Email) {
			return TaskView{}, apperr.Forbidden("Members can only assign tasks to themselves")
		}
		id, err := s.lookupAssignee(ctx, email)
		if err != nil {
			return TaskView{}, err
		}
		requested = &id
	}
	assignee, ok := role.CreateAssignee(actor.ID, requested)
	if !ok {
		return TaskView{}, apperr.Forbidden("Members can only assign tasks to themselves")
	}

	t, err := s.tasks.Create(ctx, models.Task{
		ProjectID:   p.ID,
		Title:       title,
		Description: htmlsanitize.PlainText(in.Description),
		Status:      status,
		AssignedTo:  assignee,
		DueDate:     utcPtr(in.DueDate),
		CreatedBy:   actor.ID,
	})
	if err != nil {
		return TaskView{}, err
	}

	view, err := s.populateTask(ctx, t)
	if err != nil {
		return TaskView{}, err
	}
	s.publishTask(ctx, p.ID, realtime.Envelope{Event: realtime.EventTaskCreated, Data: view})
	s.refreshProject(ctx, p.ID)
	s.audit.Change(ctx, audit.EventTaskCreated, actor.ID, p.ID, map[string]string{
		"task_id": t.ID.Hex(),
	})
	return view, nil
}

var errReassign = apperr.Forbidden("Only the project owner can reassign tasks")

// resolveAssignee turns an assignee email into a user id; "" means
// unassigned.
func (s *Service) resolveAssignee(ctx context.Context, email string) (*primitive.ObjectID, error) {
	email = normalize.Email(email)
	if email == "" {
		return nil, nil
	}
	id, err := s.lookupAssignee(ctx, email)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func sameAssignee(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// UpdateTask applies a partial update. Only the project owner may change
// the assignee; others may resend the current one.
func (s *Service) UpdateTask(ctx context.Context, actor models.User, taskID string, in UpdateTaskInput) (TaskView, error) {
	t, p, role, err := s.loadTask(ctx, actor, taskID)
	if err != nil {
		return TaskView{}, err
	}
	if !role.CanEditTask() {
		return TaskView{}, apperr.Forbidden("Not authorized to update this task")
	}

	var patch taskstore.Patch
	var changed []string
	if in.AssignedTo.IsSet() {
		next, err := s.resolveAssignee(ctx, in.AssignedTo.OrZero())
		if err != nil && !(apperr.Is(err, apperr.KindValidation) && !role.CanReassign()) {
			return TaskView{}, err
		}
		// An unknown email is a change too, so non-owners get 403 for it.
		if err != nil || !sameAssignee(t.AssignedTo, next) {
			if !role.CanReassign() {
				return TaskView{}, errReassign
			}
			if next == nil {
				patch.AssignedTo = optional.Null[primitive.ObjectID]()
			} else {
				patch.AssignedTo = optional.Of(*next)
			}
			changed = append(changed, "assignedTo")
		}
	}
	if in.Title.IsSet() {
		title := htmlsanitize.PlainText(in.Title.OrZero())
		if title == "" {
			return TaskView{}, titleError("Task")
		}
		patch.Title = &title
		changed = append(changed, "title")
	}
	if in.Description.IsSet() {
		desc := htmlsanitize.PlainText(in.Description.OrZero())
		patch.Description = &desc
		changed = append(changed, "description")
	}
	if in.Status.IsSet() {
		status := models.TaskStatus(strings.TrimSpace(in.Status.OrZero()))
		if !models.IsValidTaskStatus(string(status)) {
			return TaskView{}, errBadStatus
		}
		patch.Status = &status
		changed = append(changed, "status")
	}
	if in.DueDate.IsSet() {
		if d, ok := in.DueDate.Get(); ok {
			patch.DueDate = optional.Of(d.UTC())
		} else {
			patch.DueDate = optional.Null[time.Time]()
		}
		changed = append(changed, "dueDate")
	}

	updated, err := s.tasks.Update(ctx, t.ID, patch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return TaskView{}, errTaskNotFound
	}
	if err != nil {
		return TaskView{}, err
	}

	view, err := s.populateTask(ctx, updated)
	if err != nil {
		return TaskView{}, err
	}
	s.publishTask(ctx, p.ID, realtime.Envelope{Event: realtime.EventTaskUpdated, Data: view})
	s.refreshProject(ctx, p.ID)
	s.audit.Change(ctx, audit.EventTaskUpdated, actor.ID, p.ID, map[string]string{
		"task_id": t.ID.Hex(),
		"fields":  strings.Join(changed, ","),
	})
	return view, nil
}

// DeleteTask removes a task. Owner or member.
func (s *Service) DeleteTask(ctx context.Context, actor models.User, taskID string) error {
	t, p, role, err := s.loadTask(ctx, actor, taskID)
	if err != nil {
		return err
	}
	if !role.CanDeleteTask() {
		return apperr.Forbidden("Not authorized to delete this task")
	}

	if err := s.tasks.Delete(ctx, t.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errTaskNotFound
		}
		return err
	}

	s.publishTask(ctx, p.ID, realtime.Envelope{
		Event: realtime.EventTaskDeleted,
		Data:  map[string]string{"taskId": t.ID.Hex()},
	})
	s.refreshProject(ctx, p.ID)
	s.audit.Change(ctx, audit.EventTaskDeleted, actor.ID, p.ID, map[string]string{
		"task_id": t.ID.Hex(),
	})
	return nil
}

// loadTask resolves the task, its project and the actor's role on it.
func (s *Service) loadTask(ctx context.Context, actor models.User, taskID string) (models.Task, models.Project, projectpolicy.Role, error) {
	tid, err := parseID(taskID, errTaskNotFound)
	if err != nil {
		return models.Task{}, models.Project{}, projectpolicy.Role{}, err
	}
	t, err := s.tasks.GetByID(ctx, tid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Task{}, models.Project{}, projectpolicy.Role{}, errTaskNotFound
	}
	if err != nil {
		return models.Task{}, models.Project{}, projectpolicy.Role{}, err
	}
	p, err := s.loadProject(ctx, t.ProjectID)
	if err != nil {
		return models.Task{}, models.Project{}, projectpolicy.Role{}, err
	}
	return t, p, projectpolicy.RoleFor(p, actor.ID), nil
}

func (s *Service) populateTask(ctx context.Context, t models.Task) (TaskView, error) {
	users, err := s.loadUsers(ctx, nil, []models.Task{t})
	if err != nil {
		return TaskView{}, err
	}
	return taskView(t, users), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
