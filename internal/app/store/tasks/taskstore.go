// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/optional"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

var (
	errTitleRequired = errors.New("task title is required")
	errBadStatus     = errors.New(`status must be "todo"|"in-progress"|"completed"`)
	errNoProject     = errors.New("task must belong to a project")
)

// Create inserts t. Status defaults to todo.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	if t.Title == "" {
		return models.Task{}, errTitleRequired
	}
	if t.ProjectID.IsZero() {
		return models.Task{}, errNoProject
	}
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	if !models.IsValidTaskStatus(string(t.Status)) {
		return models.Task{}, errBadStatus
	}

	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID returns mongo.ErrNoDocuments if the task does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// ListByProject returns the project's tasks, newest first. When assignee is
// non-nil only tasks assigned to that user are returned.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID, assignee *primitive.ObjectID) ([]models.Task, error) {
	filter := bson.M{"project_id": projectID}
	if assignee != nil {
		filter["assigned_to"] = *assignee
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Patch lists the fields an update may change. Nil pointers and absent
// optional fields are left unchanged; a null AssignedTo or DueDate clears it.
type Patch struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	AssignedTo  optional.Field[primitive.ObjectID]
	DueDate     optional.Field[time.Time]
}

// Update applies patch and returns the stored result. Returns
// mongo.ErrNoDocuments if the task does not exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (models.Task, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if patch.Title != nil {
		if *patch.Title == "" {
			return models.Task{}, errTitleRequired
		}
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		if !models.IsValidTaskStatus(string(*patch.Status)) {
			return models.Task{}, errBadStatus
		}
		set["status"] = *patch.Status
	}
	if v, ok := patch.AssignedTo.Get(); ok {
		set["assigned_to"] = v
	} else if patch.AssignedTo.IsNull() {
		unset["assigned_to"] = ""
	}
	if v, ok := patch.DueDate.Get(); ok {
		set["due_date"] = v.UTC()
	} else if patch.DueDate.IsNull() {
		unset["due_date"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Task
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Delete returns mongo.ErrNoDocuments if nothing was deleted.
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

// DeleteByProject removes every task of the project and reports how many.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Counts is the per-project task tally.
type Counts struct {
	Total     int64 `bson:"total"`
	Completed int64 `bson:"completed"`
}

// CountByProjects tallies total and completed tasks for each project id.
// Projects without tasks are absent from the map.
func (s *Store) CountByProjects(ctx context.Context, projectIDs []primitive.ObjectID) (map[primitive.ObjectID]Counts, error) {
	out := make(map[primitive.ObjectID]Counts, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"project_id": bson.M{"$in": projectIDs}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$project_id",
			"total": bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.StatusCompleted}}, 1, 0},
			}},
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			Counts `bson:",inline"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Counts
	}
	return out, cur.Err()
}

// CountByProject is CountByProjects for a single project.
func (s *Store) CountByProject(ctx context.Context, projectID primitive.ObjectID) (Counts, error) {
	m, err := s.CountByProjects(ctx, []primitive.ObjectID{projectID})
	if err != nil {
		return Counts{}, err
	}
	return m[projectID], nil
}
