package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"validation", apperr.Validation("bad", nil), apperr.KindValidation},
		{"forbidden", apperr.Forbidden("no"), apperr.KindForbidden},
		{"wrapped not found", fmt.Errorf("load: %w", apperr.NotFound("gone")), apperr.KindNotFound},
		{"plain error", errors.New("boom"), apperr.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	if apperr.Is(nil, apperr.KindInternal) {
		t.Error("nil error should not match any kind")
	}
	if !apperr.Is(apperr.Conflict("dup"), apperr.KindConflict) {
		t.Error("Conflict should match KindConflict")
	}
}
