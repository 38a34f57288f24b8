package mongodb

import (
	"context"
	"time"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ repositories.ActivityLogRepository = (*ActivityLogRepository)(nil)

// ActivityLogRepository handles MongoDB operations for the audit trail
type ActivityLogRepository struct {
	collection *mongo.Collection
}

// NewActivityLogRepository creates a new ActivityLogRepository
func NewActivityLogRepository(db *mongo.Database) *ActivityLogRepository {
	return &ActivityLogRepository{
		collection: db.Collection("activity_logs"),
	}
}

// Create appends an entry
func (r *ActivityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = primitive.NewObjectID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// List returns one page of entries, newest first
func (r *ActivityLogRepository) List(ctx context.Context, filter models.ActivityLogFilter, page, limit int) ([]*models.ActivityLog, int64, error) {
	return findPage[models.ActivityLog](ctx, r.collection, activityQuery(filter), page, limit, bson.D{{Key: "createdAt", Value: -1}})
}

// CountByAction aggregates entry counts per action for the filter
func (r *ActivityLogRepository) CountByAction(ctx context.Context, filter models.ActivityLogFilter) ([]models.ActionCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: activityQuery(filter)}},
		{{Key: "$group", Value: bson.M{"_id": "$action", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := []models.ActionCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func activityQuery(filter models.ActivityLogFilter) bson.M {
	query := bson.M{}
	if filter.UserID != nil {
		query["userId"] = *filter.UserID
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if created := dateRange(filter.From, filter.To); created != nil {
		query["createdAt"] = created
	}
	return query
}
