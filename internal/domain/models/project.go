// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a container of tasks with exactly one owner and a set of members.
//
// NOTE:
//   - OwnerID is set at creation and never reassigned.
//   - MemberIDs never contains OwnerID and has no duplicates.
type Project struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	TitleCI     string               `bson:"title_ci" json:"-"`
	Description string               `bson:"description" json:"description"`
	OwnerID     primitive.ObjectID   `bson:"owner_id" json:"owner"`
	MemberIDs   []primitive.ObjectID `bson:"member_ids" json:"members"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasMember reports whether userID is in the member set (the owner is not).
func (p Project) HasMember(userID primitive.ObjectID) bool {
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
