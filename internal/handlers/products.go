package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/g-but/fitfoot/internal/apperrors"
	"github.com/g-but/fitfoot/internal/handlers/adminctx"
	"github.com/g-but/fitfoot/internal/handlers/render"
	"github.com/g-but/fitfoot/internal/listing"
	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/models"
)

type bulkService interface {
	// Request level problems are reported with apperrors.ErrBulk* errors,
	// per product failures are in the result
	Apply(ctx context.Context, op models.BulkOperation) (models.BulkResult, error)
}

type catalogService interface {
	ListProducts(ctx context.Context, f listing.Filter) ([]models.Product, error)
}

const (
	msgBulkInvalid  = "Invalid bulk operation request"
	msgBulkTooLarge = "Maximum 100 products can be processed in a single bulk operation"
)

type bulkRequest struct {
	models.BulkOperation
}

func (bulkRequest) ValidationMessage(errs validator.ValidationErrors) string {
	if failedOn(errs, "productIds", "max") {
		return msgBulkTooLarge
	}
	return msgBulkInvalid
}

func handleBulkProducts(s bulkService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := adminctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[bulkRequest](w, r)
		if err != nil {
			return
		}

		res, err := s.Apply(r.Context(), data.BulkOperation)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrBulkTooLarge):
			render.ServiceError(w, msgBulkTooLarge, http.StatusBadRequest)
			return
		case errors.Is(err, apperrors.ErrBulkInvalidAction), errors.Is(err, apperrors.ErrBulkEmpty):
			render.ServiceError(w, msgBulkInvalid, http.StatusBadRequest)
			return
		default:
			l.Error("Failed to process bulk operation", "error", err)
			render.ServiceError(w, "Failed to process bulk operation", http.StatusInternalServerError)
			return
		}

		l.Info("Bulk operation done",
			"admin_id", admin.ID,
			"action", data.Action,
			"failed", res.FailedOperations,
		)

		status := http.StatusOK
		if !res.Success {
			status = http.StatusMultiStatus
		}
		render.JSONWithStatus(w, res, status)
	})
}

func handleListProducts(s catalogService, l logger.Logger) http.Handler {
	type response struct {
		Products []models.Product `json:"products"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter, err := listing.ParseQuery(r.URL.Query())
		if err != nil {
			render.ServiceError(w, err.Error(), http.StatusBadRequest)
			return
		}

		products, err := s.ListProducts(r.Context(), filter)
		if err != nil {
			l.Error("Failed to list products", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Products: products})
	})
}

func handleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, map[string]string{"status": "ok"})
	})
}
