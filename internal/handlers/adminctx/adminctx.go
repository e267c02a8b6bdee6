// Package adminctx carries the authenticated admin through request context
package adminctx

import (
	"context"

	"github.com/g-but/fitfoot/internal/models"
)

type ctxKey string

const adminKey ctxKey = "admin"

// Create a new context with the admin
func New(ctx context.Context, admin models.User) context.Context {
	return context.WithValue(ctx, adminKey, admin)
}

// Extract the admin from the context
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(adminKey).(models.User)
	return u, ok
}
