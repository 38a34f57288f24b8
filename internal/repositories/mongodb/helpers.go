package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/printhub/printhub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// translateError maps driver errors onto repository sentinels
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repositories.ErrDuplicateKey
	default:
		return err
	}
}

// pageOptions builds skip/limit/sort options for a 1-based page
func pageOptions(page, limit int, sort bson.D) *options.FindOptions {
	if page < 1 {
		page = 1
	}
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	}
	return opts
}

// findPage runs a paginated find together with a count of the full match
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, page, limit int, sort bson.D) ([]*T, int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := coll.Find(ctx, filter, pageOptions(page, limit, sort))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := []*T{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// dateRange returns a createdAt range clause, or nil when both bounds are open
func dateRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	clause := bson.M{}
	if from != nil {
		clause["$gte"] = *from
	}
	if to != nil {
		clause["$lte"] = *to
	}
	return clause
}

// containsRegex matches s anywhere in the field, case-insensitively
func containsRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}
