// Package bulk applies one admin action to many products.
// Products are processed one by one: a failing product is reported and the rest still run.
package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/g-but/fitfoot/internal/apperrors"
	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/models"
	"github.com/g-but/fitfoot/internal/repository"
)

var hundred = decimal.New(100, 0)

var errNegativePrice = errors.New("price adjustment makes price negative")

type Service struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.OrNoOp(l),
	}
}

// Validate checks the request as a whole. Per product problems are reported by Apply instead.
func Validate(op models.BulkOperation) error {
	switch op.Action {
	case models.BulkDelete, models.BulkUpdate, models.BulkArchive, models.BulkUnarchive:
	default:
		return apperrors.ErrBulkInvalidAction
	}

	switch {
	case len(op.ProductIDs) == 0:
		return apperrors.ErrBulkEmpty
	case len(op.ProductIDs) > models.MaxBulkProducts:
		return apperrors.ErrBulkTooLarge
	}
	return nil
}

// Apply runs op against every product in the given order.
// Returned error is not nil only when the request itself is invalid or ctx is done.
// When ctx ends mid-way the products handled so far are reported along with ctx error:
// TotalProcessed is then less than the number of requested ids.
func (s *Service) Apply(ctx context.Context, op models.BulkOperation) (models.BulkResult, error) {
	if err := Validate(op); err != nil {
		return models.BulkResult{}, err
	}

	result := models.BulkResult{
		Errors:  []models.BulkItemError{},
		Results: make([]models.BulkItemResult, 0, len(op.ProductIDs)),
	}

	for _, id := range op.ProductIDs {
		if err := ctx.Err(); err != nil {
			result.Success = false
			s.logger.Warn("Bulk operation interrupted",
				"action", op.Action,
				"processed", result.TotalProcessed,
				"requested", len(op.ProductIDs),
				"error", err,
			)
			return result, err
		}

		result.TotalProcessed++
		msg, err := s.applyOne(ctx, op, id)
		if err != nil {
			msg = itemErrorMessage(err)
			s.logger.Warn("Bulk operation failed for product", "action", op.Action, "product_id", id, "error", err)

			result.FailedOperations++
			result.Errors = append(result.Errors, models.BulkItemError{ProductID: id, Message: msg})
			result.Results = append(result.Results, models.BulkItemResult{ProductID: id, Status: models.BulkStatusError, Message: msg})
			continue
		}

		result.SuccessfulOperations++
		result.Results = append(result.Results, models.BulkItemResult{ProductID: id, Status: models.BulkStatusSuccess, Message: msg})
	}

	result.Success = result.FailedOperations == 0

	s.logger.Info("Bulk operation processed",
		"action", op.Action,
		"total", result.TotalProcessed,
		"succeeded", result.SuccessfulOperations,
		"failed", result.FailedOperations,
	)

	return result, nil
}

// Every product is changed in its own transaction
func (s *Service) applyOne(ctx context.Context, op models.BulkOperation, id string) (string, error) {
	var msg string

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		repo := tx.Product()

		if op.Action == models.BulkDelete {
			msg = "Product deleted successfully"
			return repo.DeleteProduct(ctx, id)
		}

		p, err := repo.GetProduct(ctx, id)
		if err != nil {
			return err
		}

		switch op.Action {
		case models.BulkArchive:
			p.Archived = true
			msg = "Product archived successfully"
		case models.BulkUnarchive:
			p.Archived = false
			msg = "Product unarchived successfully"
		case models.BulkUpdate:
			if op.UpdateData == nil {
				return apperrors.ErrBulkUpdateDataMissing
			}
			if p, err = applyUpdate(p, *op.UpdateData); err != nil {
				return err
			}
			msg = "Product updated successfully"
		}

		_, err = repo.UpdateProduct(ctx, p)
		return err
	})

	return msg, err
}

func applyUpdate(p models.Product, data models.BulkUpdateData) (models.Product, error) {
	if data.ProductType != "" {
		p.ProductType = data.ProductType
	}
	if data.ConditionGrade != "" {
		p.ConditionGrade = data.ConditionGrade
	}
	if data.Category != "" {
		p.Category = data.Category
	}

	if adj := data.PriceAdjustment; adj != nil {
		price, err := AdjustPrice(p.Price, *adj)
		if err != nil {
			return p, err
		}
		p.Price = price

		for i, v := range p.Variants {
			if p.Variants[i].Price, err = AdjustPrice(v.Price, *adj); err != nil {
				return p, err
			}
		}
	}

	return p, nil
}

// AdjustPrice applies a percentage or fixed (currency units) change rounded to cents
func AdjustPrice(price decimal.Decimal, adj models.PriceAdjustment) (decimal.Decimal, error) {
	var adjusted decimal.Decimal

	switch adj.Type {
	case models.PriceAdjustPercentage:
		adjusted = price.Mul(hundred.Add(adj.Value)).Div(hundred)
	case models.PriceAdjustFixed:
		adjusted = price.Add(adj.Value)
	default:
		return price, fmt.Errorf("unknown price adjustment type %q", adj.Type)
	}

	if adjusted.Sign() < 0 {
		return price, errNegativePrice
	}
	return adjusted.Round(2), nil
}

func itemErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrProductNotFound):
		return "Product not found"
	case errors.Is(err, apperrors.ErrBulkUpdateDataMissing):
		return "Update data required for update operation"
	case errors.Is(err, errNegativePrice):
		return "Price adjustment would make the price negative"
	default:
		return "Operation failed"
	}
}
