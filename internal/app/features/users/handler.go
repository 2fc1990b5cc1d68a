// internal/app/features/users/handler.go
package users

import (
	"maps"
	"net/http"

	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/app/system/respond"
	"github.com/dalemusser/taskboard/internal/app/system/search"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Handler serves the user directory used to pick project members and
// assignees by name or email.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Users: userstore.New(db), Log: logger}
}

type userRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// List handles GET /api/users?q=&after=&before=&limit=.
// q matches a name prefix, or an email prefix when it contains '@'.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := search.Parse(query.Get(r, "q"))
	before := query.Get(r, "before")
	after := query.Get(r, "after")
	limit := paging.ParseLimit(r)

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	base := bson.M{}
	if lo, hi, ok := q.Bounds(); ok {
		base[q.Field] = bson.M{"$gte": lo, "$lt": hi}
	}
	f := maps.Clone(base)

	find := options.Find()
	cfg := paging.ConfigureKeyset(before, after, limit)
	cfg.ApplyToFind(find, q.Field)
	if ks := cfg.KeysetWindow(q.Field); ks != nil {
		maps.Copy(f, ks)
	}

	list, err := h.Users.Find(ctx, f, find)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if cfg.Direction == paging.Backward {
		paging.Reverse(list)
	}
	page := paging.TrimPage(&list, before, after, limit)

	key := func(u models.User) string { return u.NameCI }
	if q.Field == search.FieldEmail {
		key = func(u models.User) string { return u.Email }
	}
	prev, next := paging.BuildCursors(list, key, func(u models.User) primitive.ObjectID { return u.ID })

	rows := make([]userRow, 0, len(list))
	for _, u := range list {
		rows = append(rows, userRow{ID: u.ID.Hex(), Name: u.Name, Email: u.Email})
	}

	body := respond.Envelope{
		"count":   len(rows),
		"users":   rows,
		"hasPrev": page.HasPrev,
		"hasNext": page.HasNext,
	}
	if page.HasPrev {
		body["prev"] = prev
	}
	if page.HasNext {
		body["next"] = next
	}
	respond.OK(w, http.StatusOK, body)
}
