package userstore

import (
	"context"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser loads the user without its password hash. Returns
// mongo.ErrNoDocuments when the account is gone.
func (f *Fetcher) FetchUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	proj := options.FindOne().SetProjection(bson.M{"password_hash": 0})

	var u models.User
	if err := f.users.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
