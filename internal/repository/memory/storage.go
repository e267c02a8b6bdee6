// Package memory is an in-process product storage, used when no database is configured and in tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/g-but/fitfoot/internal/apperrors"
	"github.com/g-but/fitfoot/internal/models"
	"github.com/g-but/fitfoot/internal/repository"
)

type Storage struct {
	txMu sync.Mutex // serializes transactions

	mu       sync.RWMutex
	products map[string]models.Product
	now      func() time.Time
}

func NewStorage(products ...models.Product) *Storage {
	s := &Storage{
		products: make(map[string]models.Product, len(products)),
		now:      time.Now,
	}
	for _, p := range products {
		s.products[p.ID] = cloneProduct(p)
	}
	return s
}

func (s *Storage) Product() repository.ProductRepo {
	return &ProductRepo{s: s}
}

// InTx snapshots all products and restores them if fn fails
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := maps.Clone(s.products)
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.products = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

type ProductRepo struct {
	s *Storage
}

func (r *ProductRepo) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := r.s.products[p.ID]; ok {
		return models.Product{}, apperrors.ErrProductAlreadyExists
	}

	now := r.s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	r.s.products[p.ID] = cloneProduct(p)
	return cloneProduct(p), nil
}

func (r *ProductRepo) GetProduct(ctx context.Context, id string) (models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return models.Product{}, apperrors.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (r *ProductRepo) ListProducts(ctx context.Context, opts repository.ListProductsOpts) ([]models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := make([]models.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if p.Archived && !opts.IncludeArchived {
			continue
		}
		products = append(products, cloneProduct(p))
	}

	slices.SortFunc(products, func(a, b models.Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareStrings(a.ID, b.ID)
	})
	return products, nil
}

func (r *ProductRepo) UpdateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.products[p.ID]
	if !ok {
		return models.Product{}, apperrors.ErrProductNotFound
	}

	p.CreatedAt = prev.CreatedAt
	p.UpdatedAt = r.s.now()

	r.s.products[p.ID] = cloneProduct(p)
	return cloneProduct(p), nil
}

func (r *ProductRepo) DeleteProduct(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return apperrors.ErrProductNotFound
	}
	delete(r.s.products, id)
	return nil
}

// variants are the only shared part of a product value
func cloneProduct(p models.Product) models.Product {
	p.Variants = slices.Clone(p.Variants)
	return p
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
