// internal/app/tracker/service.go
package tracker

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dalemusser/taskboard/internal/app/policy/projectpolicy"
	"github.com/dalemusser/taskboard/internal/app/realtime"
	"github.com/dalemusser/taskboard/internal/app/store/audit"
	projectstore "github.com/dalemusser/taskboard/internal/app/store/projects"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/auditlog"
	"github.com/dalemusser/taskboard/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/app/system/optional"
	"github.com/dalemusser/taskboard/internal/app/system/txn"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Where projectUpdated events go.
const (
	ScopeAll         = "all"
	ScopeSubscribers = "subscribers"
)

// Options tunes a Service.
type Options struct {
	// ProjectUpdatesScope is ScopeAll (every listener, the default) or
	// ScopeSubscribers (only the project's group).
	ProjectUpdatesScope string
}

// Service implements project and task operations: load, authorize, mutate,
// populate, then publish.
type Service struct {
	users    *userstore.Store
	projects *projectstore.Store
	tasks    *taskstore.Store
	events   *audit.Store
	client   *mongo.Client
	pub      realtime.Publisher
	audit    *auditlog.Logger
	log      *zap.Logger
	opts     Options
}

// New builds a Service over db. audit may be nil.
func New(db *mongo.Database, pub realtime.Publisher, audit *auditlog.Logger, logger *zap.Logger, opts Options) *Service {
	if opts.ProjectUpdatesScope == "" {
		opts.ProjectUpdatesScope = ScopeAll
	}
	return &Service{
		users:    userstore.New(db),
		projects: projectstore.New(db),
		tasks:    taskstore.New(db),
		events:   audit.New(db),
		client:   db.Client(),
		pub:      pub,
		audit:    audit,
		log:      logger,
		opts:     opts,
	}
}

var (
	errProjectNotFound = apperr.NotFound("Project not found")
	errTaskNotFound    = apperr.NotFound("Task not found")
)

func parseID(hex string, notFound error) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return id, nil
}

func (s *Service) loadProject(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Project{}, errProjectNotFound
	}
	return p, err
}

func titleError(label string) error {
	msg := label + " title is required"
	return apperr.Validation(msg, map[string]string{"title": msg})
}

// resolveMembers maps emails to user ids, ignoring unknown emails and the
// excluded addresses (the requester and the owner).
func (s *Service) resolveMembers(ctx context.Context, emails []string, exclude ...string) ([]primitive.ObjectID, error) {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[normalize.Email(e)] = struct{}{}
	}
	wanted := make([]string, 0, len(emails))
	for _, e := range normalize.Emails(emails) {
		if _, ok := skip[e]; !ok {
			wanted = append(wanted, e)
		}
	}
	found, err := s.users.FindByEmails(ctx, wanted)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(found))
	for _, u := range found {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// --- Projects ---

type CreateProjectInput struct {
	Title       string
	Description string
	Members     []string
}

// CreateProject creates a project owned by actor.
func (s *Service) CreateProject(ctx context.Context, actor models.User, in CreateProjectInput) (ProjectView, error) {
	title := htmlsanitize.PlainText(in.Title)
	if title == "" {
		return ProjectView{}, titleError("Project")
	}
	members, err := s.resolveMembers(ctx, in.Members, actor.Email)
	if err != nil {
		return ProjectView{}, err
	}

	p, err := s.projects.Create(ctx, models.Project{
		Title:       title,
		Description: htmlsanitize.PlainText(in.Description),
		OwnerID:     actor.ID,
		MemberIDs:   members,
	})
	if err != nil {
		return ProjectView{}, err
	}

	users, err := s.loadUsers(ctx, []models.Project{p}, nil)
	if err != nil {
		return ProjectView{}, err
	}
	s.audit.Change(ctx, audit.EventProjectCreated, actor.ID, p.ID, map[string]string{
		"members": strconv.Itoa(len(p.MemberIDs)),
	})
	return projectView(p, users, taskstore.Counts{}), nil
}

// ListProjects returns the projects actor owns or belongs to, newest first,
// with stats over all of each project's tasks.
func (s *Service) ListProjects(ctx context.Context, actor models.User) ([]ProjectView, error) {
	list, err := s.projects.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	counts, err := s.tasks.CountByProjects(ctx, ids)
	if err != nil {
		return nil, err
	}
	users, err := s.loadUsers(ctx, list, nil)
	if err != nil {
		return nil, err
	}

	out := make([]ProjectView, len(list))
	for i, p := range list {
		out[i] = projectView(p, users, counts[p.ID])
	}
	return out, nil
}

// GetProject returns one project with the tasks actor may see. Stats are
// computed over that visible list.
func (s *Service) GetProject(ctx context.Context, actor models.User, projectID string) (ProjectDetail, error) {
	pid, err := parseID(projectID, errProjectNotFound)
	if err != nil {
		return ProjectDetail{}, err
	}
	p, err := s.loadProject(ctx, pid)
	if err != nil {
		return ProjectDetail{}, err
	}
	role := projectpolicy.RoleFor(p, actor.ID)
	if !role.CanView() {
		return ProjectDetail{}, apperr.Forbidden("Not authorized to access this project")
	}

	tasks, err := s.tasks.ListByProject(ctx, p.ID, role.TaskFilter(actor.ID))
	if err != nil {
		return ProjectDetail{}, err
	}
	users, err := s.loadUsers(ctx, []models.Project{p}, tasks)
	if err != nil {
		return ProjectDetail{}, err
	}

	views := make([]TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = taskView(t, users)
	}
	return ProjectDetail{
		ProjectView: projectView(p, users, countTasks(tasks)),
		Tasks:       views,
		IsOwner:     role.IsOwner,
	}, nil
}

type UpdateProjectInput struct {
	Title       optional.Field[string]
	Description optional.Field[string]
	Members     optional.Field[[]string]
}

// UpdateProject applies a partial update. Owner only.
func (s *Service) UpdateProject(ctx context.Context, actor models.User, projectID string, in UpdateProjectInput) (ProjectView, error) {
	pid, err := parseID(projectID, errProjectNotFound)
	if err != nil {
		return ProjectView{}, err
	}
	p, err := s.loadProject(ctx, pid)
	if err != nil {
		return ProjectView{}, err
	}
	if !projectpolicy.RoleFor(p, actor.ID).CanEditProject() {
		return ProjectView{}, apperr.Forbidden("Not authorized to update this project")
	}

	var patch projectstore.Patch
	var changed []string
	if in.Title.IsSet() {
		title := htmlsanitize.PlainText(in.Title.OrZero())
		if title == "" {
			return ProjectView{}, titleError("Project")
		}
		patch.Title = &title
		changed = append(changed, "title")
	}
	if in.Description.IsSet() {
		desc := htmlsanitize.PlainText(in.Description.OrZero())
		patch.Description = &desc
		changed = append(changed, "description")
	}
	// A null member list leaves members alone; [] clears them.
	if emails, ok := in.Members.Get(); ok {
		owner, err := s.users.GetByID(ctx, p.OwnerID)
		exclude := []string{actor.Email}
		if err == nil {
			exclude = append(exclude, owner.Email)
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return ProjectView{}, err
		}
		members, err := s.resolveMembers(ctx, emails, exclude...)
		if err != nil {
			return ProjectView{}, err
		}
		patch.MemberIDs = &members
		changed = append(changed, "members")
	}

	updated, err := s.projects.Update(ctx, p.ID, patch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ProjectView{}, errProjectNotFound
	}
	if err != nil {
		return ProjectView{}, err
	}

	view, err := s.populateProject(ctx, updated)
	if err != nil {
		return ProjectView{}, err
	}
	s.publishProject(ctx, updated.ID, realtime.Envelope{Event: realtime.EventProjectUpdated, Data: view})
	s.audit.Change(ctx, audit.EventProjectUpdated, actor.ID, p.ID, map[string]string{
		"fields": strings.Join(changed, ","),
	})
	return view, nil
}

// DeleteProject removes the project and all of its tasks, in one
// transaction when the deployment supports it. Owner only.
func (s *Service) DeleteProject(ctx context.Context, actor models.User, projectID string) error {
	pid, err := parseID(projectID, errProjectNotFound)
	if err != nil {
		return err
	}
	p, err := s.loadProject(ctx, pid)
	if err != nil {
		return err
	}
	if !projectpolicy.RoleFor(p, actor.ID).CanDeleteProject() {
		return apperr.Forbidden("Not authorized to delete this project")
	}

	var n int64
	err = txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		var err error
		if n, err = s.tasks.DeleteByProject(ctx, p.ID); err != nil {
			return err
		}
		if err := s.projects.Delete(ctx, p.ID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishProject(ctx, p.ID, realtime.Envelope{
		Event: realtime.EventProjectDeleted,
		Data:  map[string]string{"projectId": p.ID.Hex()},
	})
	s.audit.Change(ctx, audit.EventProjectDeleted, actor.ID, p.ID, map[string]string{
		"tasks_deleted": strconv.FormatInt(n, 10),
	})
	return nil
}

// populateProject builds the view with stats over every task of p.
func (s *Service) populateProject(ctx context.Context, p models.Project) (ProjectView, error) {
	counts, err := s.tasks.CountByProject(ctx, p.ID)
	if err != nil {
		return ProjectView{}, err
	}
	users, err := s.loadUsers(ctx, []models.Project{p}, nil)
	if err != nil {
		return ProjectView{}, err
	}
	return projectView(p, users, counts), nil
}

// publishProject sends a project-level event using the configured scope.
// Failures are logged, never returned.
func (s *Service) publishProject(ctx context.Context, projectID primitive.ObjectID, env realtime.Envelope) {
	var err error
	if s.opts.ProjectUpdatesScope == ScopeSubscribers {
		err = s.pub.PublishProject(ctx, projectID.Hex(), env)
	} else {
		err = s.pub.Broadcast(ctx, env)
	}
	if err != nil {
		s.log.Warn("publish failed",
			zap.String("event", env.Event),
			zap.String("project_id", projectID.Hex()),
			zap.Error(err))
	}
}

// publishTask sends a task event to the project's group.
func (s *Service) publishTask(ctx context.Context, projectID primitive.ObjectID, env realtime.Envelope) {
	if err := s.pub.PublishProject(ctx, projectID.Hex(), env); err != nil {
		s.log.Warn("publish failed",
			zap.String("event", env.Event),
			zap.String("project_id", projectID.Hex()),
			zap.Error(err))
	}
}

// refreshProject re-reads p with fresh stats and publishes projectUpdated.
func (s *Service) refreshProject(ctx context.Context, projectID primitive.ObjectID) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		s.log.Warn("projectUpdated: reload failed", zap.String("project_id", projectID.Hex()), zap.Error(err))
		return
	}
	view, err := s.populateProject(ctx, p)
	if err != nil {
		s.log.Warn("projectUpdated: populate failed", zap.String("project_id", projectID.Hex()), zap.Error(err))
		return
	}
	s.publishProject(ctx, projectID, realtime.Envelope{Event: realtime.EventProjectUpdated, Data: view})
}
