// internal/app/features/tasks/duedate.go
package tasks

import (
	"strings"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
)

var errBadDueDate = apperr.Validation("Due date must be an RFC 3339 timestamp or YYYY-MM-DD",
	map[string]string{"dueDate": "Due date must be an RFC 3339 timestamp or YYYY-MM-DD."})

// parseDueDate accepts RFC 3339 timestamps and bare dates (midnight UTC).
// ok is false for blank input.
func parseDueDate(s string) (t time.Time, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, errBadDueDate
}
