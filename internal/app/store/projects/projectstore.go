// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

var errTitleRequired = errors.New("project title is required")

// Create inserts p. MemberIDs is cleaned so that it never holds the owner or
// a repeated id.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	if p.Title == "" {
		return models.Project{}, errTitleRequired
	}
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.TitleCI = text.Fold(p.Title)
	p.MemberIDs = CleanMembers(p.OwnerID, p.MemberIDs)
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// GetByID returns mongo.ErrNoDocuments if the project does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// ListForUser returns every project userID owns or is a member of, newest
// first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	filter := bson.M{"$or": []bson.M{
		{"owner_id": userID},
		{"member_ids": userID},
	}}
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Project{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Patch lists the fields an update may change. Nil means unchanged.
type Patch struct {
	Title       *string
	Description *string
	MemberIDs   *[]primitive.ObjectID
}

// Update applies patch and returns the stored result. Returns
// mongo.ErrNoDocuments if the project does not exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (models.Project, error) {
	if patch.MemberIDs != nil {
		// Owner is immutable; load it to keep the member invariant.
		cur, err := s.GetByID(ctx, id)
		if err != nil {
			return models.Project{}, err
		}
		cleaned := CleanMembers(cur.OwnerID, *patch.MemberIDs)
		patch.MemberIDs = &cleaned
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		if *patch.Title == "" {
			return models.Project{}, errTitleRequired
		}
		set["title"] = *patch.Title
		set["title_ci"] = text.Fold(*patch.Title)
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.MemberIDs != nil {
		set["member_ids"] = *patch.MemberIDs
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Project
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// Delete removes the project document only; callers delete its tasks first.
// Returns mongo.ErrNoDocuments if nothing was deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CleanMembers drops owner and repeats from ids, keeping first-seen order.
// The result is never nil so it stores as an empty array.
func CleanMembers(owner primitive.ObjectID, ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if id == owner || id.IsZero() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
