package mongodb

import (
	"context"
	"strings"
	"time"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository handles MongoDB operations for User
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, user)
	return translateError(err)
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// Update writes the editable profile fields of a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":       user.Name,
		"phone":      user.Phone,
		"address":    user.Address,
		"password":   user.Password,
		"isApproved": user.IsApproved,
		"isAdmin":    user.IsAdmin,
		"updatedAt":  user.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return translateError(err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// List returns one page of users, newest first
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter, page, limit int) ([]*models.User, int64, error) {
	return findPage[models.User](ctx, r.collection, userQuery(filter), page, limit, bson.D{{Key: "createdAt", Value: -1}})
}

// Count counts users matching the filter
func (r *UserRepository) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, userQuery(filter))
}

func userQuery(filter models.UserFilter) bson.M {
	query := bson.M{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		query["$or"] = bson.A{
			bson.M{"name": containsRegex(s)},
			bson.M{"email": containsRegex(s)},
		}
	}
	if filter.IsApproved != nil {
		query["isApproved"] = *filter.IsApproved
	}
	return query
}

// SetOTP stores the passcode hash and expiry and resets attempts
func (r *UserRepository) SetOTP(ctx context.Context, id primitive.ObjectID, hash string, expiresAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"otpHash":      hash,
		"otpExpiresAt": expiresAt,
		"otpAttempts":  0,
		"updatedAt":    time.Now(),
	}}
	return r.updateOne(ctx, id, update)
}

// ClearOTP removes any pending passcode
func (r *UserRepository) ClearOTP(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$unset": bson.M{"otpHash": "", "otpExpiresAt": ""},
		"$set":   bson.M{"otpAttempts": 0, "updatedAt": time.Now()},
	}
	return r.updateOne(ctx, id, update)
}

// ReserveOTPAttempt counts one verification attempt against the code identified by otpHash.
// It matches only while that code is still stored and fewer than limit attempts were made,
// and returns repositories.ErrNotFound otherwise.
func (r *UserRepository) ReserveOTPAttempt(ctx context.Context, id primitive.ObjectID, otpHash string, limit int) (int, error) {
	filter := bson.M{
		"_id":         id,
		"otpHash":     otpHash,
		"otpAttempts": bson.M{"$lt": limit},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"otpAttempts": 1})
	var out struct {
		OTPAttempts int `bson:"otpAttempts"`
	}
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"otpAttempts": 1}}, opts).Decode(&out)
	if err != nil {
		return 0, translateError(err)
	}
	return out.OTPAttempts, nil
}

// SetApproved flips the approval flag and returns the updated user
func (r *UserRepository) SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"isApproved": approved, "updatedAt": time.Now()}}
	var user models.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user); err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// SetSubscription marks the user subscribed until endDate
func (r *UserRepository) SetSubscription(ctx context.Context, id primitive.ObjectID, endDate time.Time) error {
	update := bson.M{"$set": bson.M{
		"isSubscribed":        true,
		"subscriptionEndDate": endDate,
		"updatedAt":           time.Now(),
	}}
	return r.updateOne(ctx, id, update)
}

func (r *UserRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
