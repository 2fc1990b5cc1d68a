// internal/app/tracker/views.go
package tracker

import (
	"context"
	"math"
	"time"

	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRef is the public projection of a user.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func refOf(u models.User) UserRef {
	return UserRef{ID: u.ID.Hex(), Name: u.Name, Email: u.Email}
}

// ProjectView is a project with owner and members populated plus task stats.
type ProjectView struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Owner                *UserRef  `json:"owner"`
	Members              []UserRef `json:"members"`
	TaskCount            int64     `json:"taskCount"`
	CompletedTaskCount   int64     `json:"completedTaskCount"`
	CompletionPercentage int       `json:"completionPercentage"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// ProjectDetail is the single-project view: the caller's visible tasks and
// whether the caller owns the project.
type ProjectDetail struct {
	ProjectView
	Tasks   []TaskView `json:"tasks"`
	IsOwner bool       `json:"isOwner"`
}

// TaskView is a task with assignee and creator populated. AssignedTo and
// DueDate are null when unset.
type TaskView struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	AssignedTo  *UserRef   `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedBy   *UserRef   `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CompletionPercentage is round(completed/total*100), or 0 with no tasks.
func CompletionPercentage(total, completed int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// countTasks tallies an in-memory list the same way CountByProjects does.
func countTasks(tasks []models.Task) taskstore.Counts {
	c := taskstore.Counts{Total: int64(len(tasks))}
	for _, t := range tasks {
		if t.Status == models.StatusCompleted {
			c.Completed++
		}
	}
	return c
}

type userIndex map[primitive.ObjectID]models.User

func (ix userIndex) ref(id primitive.ObjectID) *UserRef {
	u, ok := ix[id]
	if !ok {
		return nil
	}
	r := refOf(u)
	return &r
}

// loadUsers fetches every id referenced by the given projects and tasks.
func (s *Service) loadUsers(ctx context.Context, projects []models.Project, tasks []models.Task) (userIndex, error) {
	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if id.IsZero() {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, p := range projects {
		add(p.OwnerID)
		for _, m := range p.MemberIDs {
			add(m)
		}
	}
	for _, t := range tasks {
		add(t.CreatedBy)
		if t.AssignedTo != nil {
			add(*t.AssignedTo)
		}
	}
	m, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return userIndex(m), nil
}

func projectView(p models.Project, users userIndex, c taskstore.Counts) ProjectView {
	members := make([]UserRef, 0, len(p.MemberIDs))
	for _, id := range p.MemberIDs {
		if r := users.ref(id); r != nil {
			members = append(members, *r)
		}
	}
	return ProjectView{
		ID:                   p.ID.Hex(),
		Title:                p.Title,
		Description:          p.Description,
		Owner:                users.ref(p.OwnerID),
		Members:              members,
		TaskCount:            c.Total,
		CompletedTaskCount:   c.Completed,
		CompletionPercentage: CompletionPercentage(c.Total, c.Completed),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func taskView(t models.Task, users userIndex) TaskView {
	v := TaskView{
		ID:          t.ID.Hex(),
		ProjectID:   t.ProjectID.Hex(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		CreatedBy:   users.ref(t.CreatedBy),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedTo != nil {
		v.AssignedTo = users.ref(*t.AssignedTo)
	}
	return v
}
