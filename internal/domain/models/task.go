// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus is the closed set of states a task can be in.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// AllTaskStatuses lists every valid status in workflow order.
var AllTaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusCompleted}

// IsValidTaskStatus reports whether s names one of AllTaskStatuses.
func IsValidTaskStatus(s string) bool {
	for _, st := range AllTaskStatuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

// Task belongs to exactly one project. ProjectID and CreatedBy are immutable.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProjectID   primitive.ObjectID  `bson:"project_id" json:"projectId"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Status      TaskStatus          `bson:"status" json:"status"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assignedTo,omitempty"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"dueDate,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"created_by" json:"createdBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
