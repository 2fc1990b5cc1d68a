package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errNameRequired   = errors.New("name is required")
	errEmailRequired  = errors.New("email is required")
)

// Create inserts a new user after normalizing name and email. The caller
// supplies the password hash.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	if u.Name == "" {
		return models.User{}, errNameRequired
	}
	if u.Email == "" {
		return models.User{}, errEmailRequired
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmails returns the users whose email is in emails. Unknown emails are
// simply absent from the result; order follows the input.
func (s *Store) FindByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	emails = normalize.Emails(emails)
	if len(emails) == 0 {
		return nil, nil
	}
	found, err := s.find(ctx, bson.M{"email": bson.M{"$in": emails}})
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]models.User, len(found))
	for _, u := range found {
		byEmail[u.Email] = u
	}
	out := make([]models.User, 0, len(found))
	for _, e := range emails {
		if u, ok := byEmail[e]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// GetByIDs returns the users with the given ids keyed by id. Missing ids are
// absent from the map.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, u := range found {
		out[u.ID] = u
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	proj := options.Find().SetProjection(bson.M{"password_hash": 0})
	cur, err := s.c.Find(ctx, filter, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Find returns users matching filter with the given options (sort, limit).
// Password hashes are never loaded.
func (s *Store) Find(ctx context.Context, filter bson.M, find *options.FindOptions) ([]models.User, error) {
	if find == nil {
		find = options.Find()
	}
	find.SetProjection(bson.M{"password_hash": 0})
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
