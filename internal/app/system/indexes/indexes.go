// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Every collection's index set is reconciled
idempotently; problems are aggregated so startup fails with the full list.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, spec := range specs() {
		if err := ensureIndexSet(ctx, db.Collection(spec.collection), spec.models); err != nil {
			problems = append(problems, spec.collection+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type collectionSpec struct {
	collection string
	models     []mongo.IndexModel
}

func specs() []collectionSpec {
	return []collectionSpec{
		{"users", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_users_email").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
				Options: options.Index().SetName("idx_users_nameci__id"),
			},
		}},
		{"projects", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_projects_owner_created"),
			},
			{
				// multikey over the member array
				Keys:    bson.D{{Key: "member_ids", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_projects_members_created"),
			},
		}},
		{"tasks", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_tasks_project_created"),
			},
			{
				Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "assigned_to", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_tasks_project_assignee_created"),
			},
			{
				Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("idx_tasks_project_status"),
			},
		}},
		{"audit_events", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_audit_timestamp"),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_audit_user_timestamp"),
			},
			{
				Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_audit_project_timestamp"),
			},
			{
				Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_audit_category_type_timestamp"),
			},
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

// Mongo/DocDB return IndexOptionsConflict when the same keys already exist
// under another name or with other options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// Collection may not exist yet; nothing to reconcile against.
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// recreate drops the index named old and creates m in its place.
func recreate(ctx context.Context, coll *mongo.Collection, old string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		return fmt.Errorf("drop %s: %w", old, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return errors.New("cannot create unique index (duplicates present)")
		}
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(unique)))

		ex, found := listExisting(ctx, coll)[sig]
		switch {
		case found && isUnique(ex.Unique) == isUnique(unique) && (name == "" || ex.Name == name):
			log.Info("reusing existing index", zap.Duration("took", time.Since(start)))
			continue

		case found:
			// Name or uniqueness differs: align by drop and recreate.
			if err := recreate(ctx, coll, ex.Name, m); err != nil {
				log.Warn("index recreate failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
				continue
			}
			log.Info("index dropped and recreated", zap.String("from", ex.Name), zap.Duration("took", time.Since(start)))
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil && isOptionsConflictErr(err) {
			// Raced with another instance; treat as the found case on re-list.
			if ex, ok := listExisting(ctx, coll)[sig]; ok {
				if isUnique(ex.Unique) == isUnique(unique) {
					log.Info("reusing existing index (post-conflict)", zap.String("existing", ex.Name))
					continue
				}
				err = recreate(ctx, coll, ex.Name, m)
			}
		}
		if err != nil {
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			continue
		}
		log.Info("index ensured", zap.String("created_name", created), zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
