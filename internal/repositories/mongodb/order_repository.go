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

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// OrderRepository handles MongoDB operations for Order
type OrderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		collection: db.Collection("orders"),
	}
}

// Create inserts a new order. A pre-assigned ID is kept.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt = now
	order.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, order)
	return translateError(err)
}

// FindByID finds an order by ID
func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// FindByRazorpayOrderID finds an order by its gateway order id
func (r *OrderRepository) FindByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (*models.Order, error) {
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"razorpayOrderId": razorpayOrderID}).Decode(&order); err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// List returns one page of orders matching the filter, newest first
func (r *OrderRepository) List(ctx context.Context, filter models.OrderFilter, page, limit int) ([]*models.Order, int64, error) {
	query := bson.M{}
	if filter.UserID != nil {
		query["userId"] = *filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if created := dateRange(filter.From, filter.To); created != nil {
		query["createdAt"] = created
	}
	return findPage[models.Order](ctx, r.collection, query, page, limit, bson.D{{Key: "createdAt", Value: -1}})
}

// CountByStatus groups all orders by status
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.OrderStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// MarkPaid moves a pending order to paid
func (r *OrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID, signature string, paidAt time.Time) (bool, error) {
	return r.transition(ctx, id, models.OrderStatusPending, bson.M{
		"status":            models.OrderStatusPaid,
		"razorpayPaymentId": paymentID,
		"razorpaySignature": signature,
		"paidAt":            paidAt,
	})
}

// MarkFailed moves a pending order to failed
func (r *OrderRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, paymentID string) (bool, error) {
	set := bson.M{"status": models.OrderStatusFailed}
	if paymentID != "" {
		set["razorpayPaymentId"] = paymentID
	}
	return r.transition(ctx, id, models.OrderStatusPending, set)
}

// UpdateStatus moves an order from one status to another
func (r *OrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error) {
	return r.transition(ctx, id, from, bson.M{"status": to})
}

// MarkRefunded records a refund against an order still in status from
func (r *OrderRepository) MarkRefunded(ctx context.Context, id primitive.ObjectID, from models.OrderStatus, refundID string) (bool, error) {
	return r.transition(ctx, id, from, bson.M{
		"status":           models.OrderStatusRefunded,
		"razorpayRefundId": refundID,
	})
}

// transition applies set only while the order is still in status from
func (r *OrderRepository) transition(ctx context.Context, id primitive.ObjectID, from models.OrderStatus, set bson.M) (bool, error) {
	set["updatedAt"] = time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}
