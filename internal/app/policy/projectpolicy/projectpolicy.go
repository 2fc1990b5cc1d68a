// internal/app/policy/projectpolicy/projectpolicy.go
package projectpolicy

import (
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the requester's relationship to one project. It is derived per
// request and never stored. A user is never both owner and member.
type Role struct {
	IsOwner  bool
	IsMember bool
}

// RoleFor derives userID's role on p.
func RoleFor(p models.Project, userID primitive.ObjectID) Role {
	if p.OwnerID == userID {
		return Role{IsOwner: true}
	}
	return Role{IsMember: p.HasMember(userID)}
}

// Participant reports whether the user is owner or member.
func (r Role) Participant() bool { return r.IsOwner || r.IsMember }

// CanView: owner or member.
func (r Role) CanView() bool { return r.Participant() }

// SeesAllTasks: the owner sees every task; members see only their own.
func (r Role) SeesAllTasks() bool { return r.IsOwner }

// CanEditProject covers title, description and members.
func (r Role) CanEditProject() bool { return r.IsOwner }

// CanDeleteProject: owner only. Deletion cascades to tasks.
func (r Role) CanDeleteProject() bool { return r.IsOwner }

// CanCreateTask: owner or member.
func (r Role) CanCreateTask() bool { return r.Participant() }

// CanEditTask covers title, description, status and due date.
func (r Role) CanEditTask() bool { return r.Participant() }

// CanReassign reports whether the user may set or change a task's assignee.
func (r Role) CanReassign() bool { return r.IsOwner }

// CanDeleteTask: owner or member.
func (r Role) CanDeleteTask() bool { return r.Participant() }

// CreateAssignee decides who a new task is assigned to.
//
//   - owner: requested as given (nil leaves it unassigned)
//   - member: always self; requesting anyone else is refused
//
// ok is false when the request must be rejected.
func (r Role) CreateAssignee(self primitive.ObjectID, requested *primitive.ObjectID) (assignee *primitive.ObjectID, ok bool) {
	switch {
	case r.IsOwner:
		return requested, true
	case r.IsMember:
		if requested != nil && *requested != self {
			return nil, false
		}
		id := self
		return &id, true
	default:
		return nil, false
	}
}

// TaskFilter returns the assignee filter for listing the project's tasks:
// nil for the owner (all tasks), the user's own id otherwise.
func (r Role) TaskFilter(self primitive.ObjectID) *primitive.ObjectID {
	if r.SeesAllTasks() {
		return nil
	}
	id := self
	return &id
}
