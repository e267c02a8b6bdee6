package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/g-but/fitfoot/internal/apperrors"
	"github.com/g-but/fitfoot/internal/models"
	"github.com/g-but/fitfoot/internal/repository"
)

type ProductRepo struct {
	DB DBTX
}

const productColumns = `id, title, brand, description, category, product_type, condition_grade,
	status, archived, price, variants, rating, created_at, updated_at`

const createProduct = `-- name: CreateProduct
INSERT INTO products (id, title, brand, description, category, product_type, condition_grade,
	status, archived, price, variants, rating, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, now()), now())
RETURNING ` + productColumns

func (r *ProductRepo) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	var createdAt *time.Time
	if !p.CreatedAt.IsZero() {
		createdAt = &p.CreatedAt
	}

	rows, _ := r.DB.Query(ctx, createProduct,
		p.ID, p.Title, p.Brand, p.Description, p.Category, p.ProductType, p.ConditionGrade,
		p.Status, p.Archived, p.Price, variantsOrEmpty(p.Variants), p.Rating, createdAt,
	)
	product, err := pgx.CollectOneRow(rows, rowToProduct)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return product, apperrors.ErrProductAlreadyExists
		}

		return product, fmt.Errorf("db error: %w", err)
	}

	return product, nil
}

const getProduct = `-- name: GetProduct
SELECT ` + productColumns + ` FROM products
WHERE id = $1
`

func (r *ProductRepo) GetProduct(ctx context.Context, id string) (models.Product, error) {
	rows, _ := r.DB.Query(ctx, getProduct, id)
	product, err := pgx.CollectOneRow(rows, rowToProduct)

	switch {
	case err == nil:
		return product, nil
	case errors.Is(err, pgx.ErrNoRows):
		return product, apperrors.ErrProductNotFound
	default:
		return product, fmt.Errorf("db error: %w", err)
	}
}

const listProducts = `-- name: ListProducts
SELECT ` + productColumns + ` FROM products
WHERE $1 OR NOT archived
ORDER BY created_at DESC, id
`

func (r *ProductRepo) ListProducts(ctx context.Context, opts repository.ListProductsOpts) ([]models.Product, error) {
	rows, _ := r.DB.Query(ctx, listProducts, opts.IncludeArchived)
	products, err := pgx.CollectRows(rows, rowToProduct)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return products, nil
}

const updateProduct = `-- name: UpdateProduct
UPDATE products SET
	title = $2,
	brand = $3,
	description = $4,
	category = $5,
	product_type = $6,
	condition_grade = $7,
	status = $8,
	archived = $9,
	price = $10,
	variants = $11,
	rating = $12,
	updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

func (r *ProductRepo) UpdateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	rows, _ := r.DB.Query(ctx, updateProduct,
		p.ID, p.Title, p.Brand, p.Description, p.Category, p.ProductType, p.ConditionGrade,
		p.Status, p.Archived, p.Price, variantsOrEmpty(p.Variants), p.Rating,
	)
	product, err := pgx.CollectOneRow(rows, rowToProduct)

	switch {
	case err == nil:
		return product, nil
	case errors.Is(err, pgx.ErrNoRows):
		return product, apperrors.ErrProductNotFound
	default:
		return product, fmt.Errorf("db error: %w", err)
	}
}

const deleteProduct = `-- name: DeleteProduct
DELETE FROM products
WHERE id = $1
`

func (r *ProductRepo) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, deleteProduct, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProductNotFound
	}

	return nil
}

func rowToProduct(row pgx.CollectableRow) (models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Brand, &p.Description, &p.Category, &p.ProductType, &p.ConditionGrade,
		&p.Status, &p.Archived, &p.Price, &p.Variants, &p.Rating, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// variants column is NOT NULL
func variantsOrEmpty(v []models.Variant) []models.Variant {
	if v == nil {
		return []models.Variant{}
	}
	return v
}
