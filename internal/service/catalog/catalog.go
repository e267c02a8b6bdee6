// Package catalog serves the public product list.
package catalog

import (
	"context"
	"fmt"

	"github.com/g-but/fitfoot/internal/listing"
	"github.com/g-but/fitfoot/internal/models"
	"github.com/g-but/fitfoot/internal/repository"
)

type Service struct {
	products repository.ProductRepo
}

func NewService(products repository.ProductRepo) *Service {
	return &Service{products: products}
}

// ListProducts returns non archived products passing the filter, in the filter's order.
// Without a sort key products come newest first.
func (s *Service) ListProducts(ctx context.Context, f listing.Filter) ([]models.Product, error) {
	products, err := s.products.ListProducts(ctx, repository.ListProductsOpts{IncludeArchived: false})
	if err != nil {
		return nil, fmt.Errorf("error while listing products. Err: %w", err)
	}

	return listing.Apply(products, f), nil
}
