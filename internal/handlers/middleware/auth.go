package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/g-but/fitfoot/internal/apperrors"
	"github.com/g-but/fitfoot/internal/handlers/adminctx"
	"github.com/g-but/fitfoot/internal/handlers/render"
	"github.com/g-but/fitfoot/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// AdminAuth lets through requests with a valid admin bearer token and puts the admin into context
func AdminAuth(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, err := as.Auth(r.Context(), r)
			switch {
			case err == nil:
			case errors.Is(err, apperrors.ErrNotAuthenticated):
				render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
				return
			default:
				render.ServiceError(w, "Invalid or expired admin token", http.StatusUnauthorized)
				return
			}

			ctx := adminctx.New(r.Context(), admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
