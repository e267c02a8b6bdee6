package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/g-but/fitfoot/internal/handlers/middleware"
	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// Bulk changes touch many products at once, admins get a small budget per client
const (
	bulkRateLimit  = 20
	bulkRateWindow = time.Minute
)

type adminAuthService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

func NewRouter(
	accountService accountService,
	bulkService bulkService,
	catalogService catalogService,
	adminAuth adminAuthService,
	logger logger.Logger,
) http.Handler {
	withAdmin := middleware.AdminAuth(adminAuth)
	withAudit := middleware.Audit(logger)
	bulkLimiter := middleware.NewLimiter(bulkRateLimit, bulkRateWindow)

	apiauth := http.NewServeMux()
	apiauth.Handle("POST /register", handleRegister(accountService, logger))
	apiauth.Handle("POST /confirm-email", handleConfirmEmail(accountService, logger))
	apiauth.Handle("GET /confirm-email", handleConfirmEmailLink(accountService, logger))
	apiauth.Handle("POST /forgot-password", handleForgotPassword(accountService, logger))
	apiauth.Handle("POST /reset-password", handleResetPassword(accountService, logger))

	apiuser := http.NewServeMux()
	apiuser.Handle("GET /profile", handleGetProfile(accountService, logger))
	apiuser.Handle("PUT /profile", handleUpdateProfile(accountService, logger))
	apiuser.Handle("POST /change-password", handleChangePassword(accountService, logger))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))
	root.Handle("POST /api/admin/products/bulk", chain(
		handleBulkProducts(bulkService, logger),
		withAudit,
		middleware.RateLimit(bulkLimiter),
		withAdmin,
	))
	root.Handle("GET /api/products", handleListProducts(catalogService, logger))
	root.Handle("GET /api/health", handleHealth())

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}
