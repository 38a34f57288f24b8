package services

import (
	"context"
	"testing"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newProductFixture() (*productService, *MockProductRepository, *recordingActivity) {
	repo := new(MockProductRepository)
	rec := &recordingActivity{}
	return NewProductService(repo, rec).(*productService), repo, rec
}

func quantity(n int) *int { return &n }

func TestListProducts(t *testing.T) {
	svc, repo, _ := newProductFixture()
	ctx := context.Background()
	items := []*models.Product{{ID: primitive.NewObjectID(), Name: "Visiting Cards"}}
	repo.On("List", ctx, "cards", 2, 10).Return(items, int64(11), nil)

	page, err := svc.List(ctx, "cards", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, items, page.Items)
	assert.Equal(t, int64(11), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, int64(2), page.TotalPages)
	repo.AssertExpectations(t)

	repo.On("List", ctx, "", 1, 20).Return(nil, int64(0), nil)
	page, err = svc.List(ctx, "", 1, 20)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	actor := primitive.NewObjectID()

	for _, qty := range []int{0, 250} {
		svc, repo, rec := newProductFixture()
		repo.On("Create", ctx, mock.MatchedBy(func(p *models.Product) bool {
			return p.Name == "Banners" && p.Description == "Vinyl" && p.Quantity == qty && p.Price == 899
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Product).ID = primitive.NewObjectID()
		}).Return(nil)

		got, err := svc.Create(ctx, &models.ProductRequest{
			Name: "  Banners ", Description: " Vinyl", Quantity: quantity(qty), Price: 899,
		}, actor, models.RequestMeta{IP: "10.0.0.1"})
		require.NoError(t, err)
		assert.Equal(t, qty, got.Quantity)

		require.Len(t, rec.entries, 1)
		entry := rec.entries[0]
		assert.Equal(t, models.ActionProductCreated, entry.Action)
		assert.Equal(t, &actor, entry.UserID)
		assert.Equal(t, "10.0.0.1", entry.IP)
		assert.Equal(t, got.ID.Hex(), entry.Metadata["productId"])
	}
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	actor := primitive.NewObjectID()

	t.Run("replaces fields and logs stock change", func(t *testing.T) {
		svc, repo, rec := newProductFixture()
		existing := &models.Product{ID: primitive.NewObjectID(), Name: "Flyers", Quantity: 40, Price: 5}
		repo.On("FindByID", ctx, existing.ID).Return(existing, nil)
		repo.On("Update", ctx, existing).Return(nil)

		got, err := svc.Update(ctx, existing.ID, &models.ProductRequest{
			Name: "Flyers A5", Quantity: quantity(0), Price: 6,
		}, actor, models.RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, "Flyers A5", got.Name)
		assert.Equal(t, 0, got.Quantity)
		assert.Equal(t, 6.0, got.Price)

		require.Len(t, rec.entries, 1)
		assert.Equal(t, models.ActionProductUpdated, rec.entries[0].Action)
		assert.Equal(t, 40, rec.entries[0].Metadata["quantityBefore"])
		assert.Equal(t, 0, rec.entries[0].Metadata["quantityAfter"])
	})

	t.Run("missing product", func(t *testing.T) {
		svc, repo, rec := newProductFixture()
		id := primitive.NewObjectID()
		repo.On("FindByID", ctx, id).Return(nil, repositories.ErrNotFound)

		_, err := svc.Update(ctx, id, &models.ProductRequest{Name: "x", Quantity: quantity(1), Price: 1}, actor, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, rec.actions())
	})

	t.Run("deleted between read and write", func(t *testing.T) {
		svc, repo, rec := newProductFixture()
		existing := &models.Product{ID: primitive.NewObjectID(), Name: "Flyers", Quantity: 40, Price: 5}
		repo.On("FindByID", ctx, existing.ID).Return(existing, nil)
		repo.On("Update", ctx, existing).Return(repositories.ErrNotFound)

		_, err := svc.Update(ctx, existing.ID, &models.ProductRequest{Name: "Flyers", Quantity: quantity(1), Price: 5}, actor, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, rec.actions())
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	actor := primitive.NewObjectID()

	svc, repo, rec := newProductFixture()
	id := primitive.NewObjectID()
	repo.On("Delete", ctx, id).Return(nil).Once()
	require.NoError(t, svc.Delete(ctx, id, actor, models.RequestMeta{}))
	assert.Equal(t, []models.ActivityAction{models.ActionProductDeleted}, rec.actions())

	repo.On("Delete", ctx, id).Return(repositories.ErrNotFound).Once()
	assert.ErrorIs(t, svc.Delete(ctx, id, actor, models.RequestMeta{}), ErrNotFound)
	assert.Len(t, rec.actions(), 1)
}

func TestGetProductNotFound(t *testing.T) {
	svc, repo, _ := newProductFixture()
	ctx := context.Background()
	id := primitive.NewObjectID()
	repo.On("FindByID", ctx, id).Return(nil, repositories.ErrNotFound)

	_, err := svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
