// internal/app/tracker/activity.go
package tracker

import (
	"context"
	"time"

	"github.com/dalemusser/taskboard/internal/app/policy/projectpolicy"
	"github.com/dalemusser/taskboard/internal/app/store/audit"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/domain/models"
)

// MaxActivity caps one activity request.
const MaxActivity = 100

// ActivityView is one recorded change to a project.
type ActivityView struct {
	Type    string            `json:"type"`
	ActorID string            `json:"actorId,omitempty"`
	At      time.Time         `json:"at"`
	Details map[string]string `json:"details,omitempty"`
}

// ProjectActivity returns the most recent change events recorded for the
// project, newest first. Owner or member. The list is empty unless change
// auditing writes to the database.
func (s *Service) ProjectActivity(ctx context.Context, actor models.User, projectID string, limit int) ([]ActivityView, error) {
	pid, err := parseID(projectID, errProjectNotFound)
	if err != nil {
		return nil, err
	}
	p, err := s.loadProject(ctx, pid)
	if err != nil {
		return nil, err
	}
	if !projectpolicy.RoleFor(p, actor.ID).CanView() {
		return nil, apperr.Forbidden("Not authorized to access this project")
	}
	if limit <= 0 || limit > MaxActivity {
		limit = MaxActivity
	}

	events, err := s.events.Query(ctx, audit.QueryFilter{
		ProjectID: &p.ID,
		Category:  audit.CategoryChange,
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, err
	}
	out := make([]ActivityView, 0, len(events))
	for _, e := range events {
		v := ActivityView{Type: e.EventType, At: e.Timestamp, Details: e.Details}
		if e.UserID != nil {
			v.ActorID = e.UserID.Hex()
		}
		out = append(out, v)
	}
	return out, nil
}
