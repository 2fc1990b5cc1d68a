package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/taskboard/internal/app/store/audit"
	"github.com/dalemusser/taskboard/internal/app/system/auditlog"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/api/auth/login", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@example.com")
	logger.Change(ctx, audit.EventTaskCreated, primitive.NewObjectID(), primitive.NewObjectID(), nil)
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		setting string
		wantDB  int
	}{
		{auditlog.Off, 0},
		{auditlog.Log, 0},
		{auditlog.DB, 1},
		{auditlog.All, 1},
	}
	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: tt.setting, Changes: tt.setting})
			userID := primitive.NewObjectID()
			req := httptest.NewRequest("POST", "/api/auth/login", nil)
			logger.LoginSuccess(ctx, req, userID, "a@example.com")

			events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID, Limit: 10})
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(events) != tt.wantDB {
				t.Errorf("stored %d events, want %d", len(events), tt.wantDB)
			}
		})
	}
}

func TestLogger_ChangeCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.Off, Changes: auditlog.DB})
	actor := primitive.NewObjectID()
	project := primitive.NewObjectID()
	logger.Change(ctx, audit.EventProjectDeleted, actor, project, map[string]string{"tasks_deleted": "3"})

	events, err := store.Query(ctx, audit.QueryFilter{ProjectID: &project})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventProjectDeleted {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Details["tasks_deleted"] != "3" {
		t.Errorf("details = %v", events[0].Details)
	}
}

func TestValidSetting(t *testing.T) {
	for _, s := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidSetting(s) {
			t.Errorf("ValidSetting(%q) = false", s)
		}
	}
	if auditlog.ValidSetting("verbose") {
		t.Error("ValidSetting(verbose) = true")
	}
}
