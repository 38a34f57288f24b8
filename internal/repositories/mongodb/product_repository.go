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
)

var _ repositories.ProductRepository = (*ProductRepository)(nil)

// ProductRepository handles MongoDB operations for Product
type ProductRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection("products"),
	}
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, product)
	return translateError(err)
}

// FindByID finds a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

// FindByName finds a product by its exact name
func (r *ProductRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&product); err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

// Update replaces the mutable fields of a product
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"description": product.Description,
		"quantity":    product.Quantity,
		"price":       product.Price,
		"updatedAt":   product.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return translateError(err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete deletes a product by ID
func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// List returns one page of products, optionally filtered by a name search
func (r *ProductRepository) List(ctx context.Context, search string, page, limit int) ([]*models.Product, int64, error) {
	filter := bson.M{}
	if s := strings.TrimSpace(search); s != "" {
		filter["name"] = containsRegex(s)
	}
	return findPage[models.Product](ctx, r.collection, filter, page, limit, bson.D{{Key: "createdAt", Value: -1}})
}

// Count counts all products
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// AdjustStock atomically adds delta to the product quantity
func (r *ProductRepository) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	update := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
