package mongodb

import (
	"context"
	"time"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.SubscriptionRepository = (*SubscriptionRepository)(nil)

// SubscriptionRepository handles MongoDB operations for Subscription
type SubscriptionRepository struct {
	collection *mongo.Collection
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(db *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{
		collection: db.Collection("subscriptions"),
	}
}

// Create inserts a new subscription
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	now := time.Now()
	sub.ID = primitive.NewObjectID()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, sub)
	return translateError(err)
}

// FindByRazorpayOrderID finds a subscription by its gateway order id
func (r *SubscriptionRepository) FindByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.collection.FindOne(ctx, bson.M{"razorpayOrderId": razorpayOrderID}).Decode(&sub); err != nil {
		return nil, translateError(err)
	}
	return &sub, nil
}

// FindByUserID lists a user's subscriptions, newest first
func (r *SubscriptionRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.Subscription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []*models.Subscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Activate moves a pending subscription to active for [start, end]
func (r *SubscriptionRepository) Activate(ctx context.Context, id primitive.ObjectID, paymentID, signature string, start, end time.Time) (bool, error) {
	update := bson.M{"$set": bson.M{
		"status":            models.SubscriptionStatusActive,
		"razorpayPaymentId": paymentID,
		"razorpaySignature": signature,
		"startDate":         start,
		"endDate":           end,
		"updatedAt":         time.Now(),
	}}
	return r.pendingUpdate(ctx, id, update)
}

// Cancel moves a pending subscription to cancelled
func (r *SubscriptionRepository) Cancel(ctx context.Context, id primitive.ObjectID, paymentID string) (bool, error) {
	set := bson.M{"status": models.SubscriptionStatusCancelled, "updatedAt": time.Now()}
	if paymentID != "" {
		set["razorpayPaymentId"] = paymentID
	}
	return r.pendingUpdate(ctx, id, bson.M{"$set": set})
}

func (r *SubscriptionRepository) pendingUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (bool, error) {
	filter := bson.M{"_id": id, "status": models.SubscriptionStatusPending}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}
