package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plain password of users made by CreateUser.
const FixturePassword = "password123"

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user whose password is FixturePassword.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	u.PasswordHash = ""
	return u
}

// CreateProject inserts a project owned by owner with the given members.
func (f *Fixtures) CreateProject(ctx context.Context, title string, owner primitive.ObjectID, members ...primitive.ObjectID) models.Project {
	f.t.Helper()

	if members == nil {
		members = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	p := models.Project{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		OwnerID:   owner,
		MemberIDs: members,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

// CreateTask inserts a task on project. assignee may be nil.
func (f *Fixtures) CreateTask(ctx context.Context, project primitive.ObjectID, title string, status models.TaskStatus, createdBy primitive.ObjectID, assignee *primitive.ObjectID) models.Task {
	f.t.Helper()

	if status == "" {
		status = models.StatusTodo
	}
	now := time.Now().UTC()
	task := models.Task{
		ID:         primitive.NewObjectID(),
		ProjectID:  project,
		Title:      title,
		Status:     status,
		AssignedTo: assignee,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}
