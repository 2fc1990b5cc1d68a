package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/indexes"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:         "  Ann   Lee ",
		Email:        "  Ann@Example.COM ",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Name != "Ann Lee" {
		t.Errorf("Name = %q, want %q", created.Name, "Ann Lee")
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.Email != "ann@example.com" {
		t.Errorf("Email = %q, want normalized", created.Email)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := userstore.New(db)

	if _, err := store.Create(ctx, models.User{Name: "Ann", Email: "ann@example.com"}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := store.Create(ctx, models.User{Name: "Other Ann", Email: "ANN@example.com"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Bob", "bob@example.com")

	got, err := store.GetByEmail(ctx, " BOB@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got %s, want %s", got.ID.Hex(), u.ID.Hex())
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("err = %v, want ErrNoDocuments", err)
	}
}

func TestStore_FindByEmails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b := fx.CreateUser(ctx, "Bob", "bob@example.com")
	c := fx.CreateUser(ctx, "Cat", "cat@example.com")

	got, err := store.FindByEmails(ctx, []string{"cat@example.com", "ghost@example.com", "BOB@example.com", "cat@example.com"})
	if err != nil {
		t.Fatalf("FindByEmails: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d users, want 2", len(got))
	}
	if got[0].ID != c.ID || got[1].ID != b.ID {
		t.Errorf("order = [%s %s], want [cat bob]", got[0].Email, got[1].Email)
	}
	if got[0].PasswordHash != "" {
		t.Error("password hash should not be loaded")
	}
}

func TestStore_GetByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateUser(ctx, "Ann", "ann@example.com")
	missing := primitive.NewObjectID()

	got, err := store.GetByIDs(ctx, []primitive.ObjectID{a.ID, missing})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if _, ok := got[a.ID]; !ok {
		t.Error("expected Ann in result")
	}
	if _, ok := got[missing]; ok {
		t.Error("missing id should be absent")
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateUser(ctx, "Ann", "ann@example.com")
	f := userstore.NewFetcher(db)

	got, err := f.FetchUser(ctx, a.ID)
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if got.Email != "ann@example.com" || got.PasswordHash != "" {
		t.Errorf("FetchUser = %+v", got)
	}
	if _, err := f.FetchUser(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("err = %v, want ErrNoDocuments", err)
	}
}
