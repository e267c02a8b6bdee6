package repository

import (
	"context"

	"github.com/g-but/fitfoot/internal/models"
)

// Product repository interface
type ProductRepo interface {
	// Create product
	// If product with the id exists already has to return apperrors.ErrProductAlreadyExists
	CreateProduct(ctx context.Context, p models.Product) (models.Product, error)

	// Get product by id
	// If product not found must return apperrors.ErrProductNotFound
	GetProduct(ctx context.Context, id string) (models.Product, error)

	// List products ordered by creation time, newest first
	ListProducts(ctx context.Context, opts ListProductsOpts) ([]models.Product, error)

	// Overwrite product fields (everything but id and created_at), bumps updated_at
	// If product not found must return apperrors.ErrProductNotFound
	UpdateProduct(ctx context.Context, p models.Product) (models.Product, error)

	// If product not found must return apperrors.ErrProductNotFound
	DeleteProduct(ctx context.Context, id string) error
}

type ListProductsOpts struct {
	IncludeArchived bool
}

type Storage interface {
	Product() ProductRepo

	// Run fn in transaction: everything fn does through the given storage is committed
	// when fn returns nil and rolled back otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
