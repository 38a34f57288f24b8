package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type productService struct {
	productRepo repositories.ProductRepository
	activity    ActivityLogService
}

// NewProductService creates a new ProductService
func NewProductService(productRepo repositories.ProductRepository, activity ActivityLogService) ProductService {
	return &productService{productRepo: productRepo, activity: activity}
}

func (s *productService) List(ctx context.Context, search string, page, limit int) (*models.Page[*models.Product], error) {
	products, total, err := s.productRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, err
	}
	return newPage(products, total, page, limit), nil
}

func (s *productService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, req *models.ProductRequest, actor primitive.ObjectID, meta models.RequestMeta) (*models.Product, error) {
	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Quantity:    *req.Quantity,
		Price:       req.Price,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity(idPtr(actor), models.ActionProductCreated, "created product "+product.Name, meta,
		map[string]interface{}{"productId": product.ID.Hex()}))
	return product, nil
}

func (s *productService) Update(ctx context.Context, id primitive.ObjectID, req *models.ProductRequest, actor primitive.ObjectID, meta models.RequestMeta) (*models.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}

	before := product.Quantity
	product.Name = strings.TrimSpace(req.Name)
	product.Description = strings.TrimSpace(req.Description)
	product.Quantity = *req.Quantity
	product.Price = req.Price

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, notFound(err, "product")
	}
	s.activity.Record(ctx, activity(idPtr(actor), models.ActionProductUpdated, "updated product "+product.Name, meta,
		map[string]interface{}{
			"productId":      product.ID.Hex(),
			"quantityBefore": before,
			"quantityAfter":  product.Quantity,
		}))
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, meta models.RequestMeta) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return notFound(err, "product")
	}
	s.activity.Record(ctx, activity(idPtr(actor), models.ActionProductDeleted, fmt.Sprintf("deleted product %s", id.Hex()), meta,
		map[string]interface{}{"productId": id.Hex()}))
	return nil
}
