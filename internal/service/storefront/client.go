// Package storefront is the client of the storefront server's own endpoints:
// account flows under /api/auth and /api/user, admin bulk operations and the product listing.
package storefront

import (
	"context"

	"github.com/g-but/fitfoot/internal/listing"
	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/models"
	"github.com/g-but/fitfoot/internal/service/remote"
)

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Client struct {
	remote *remote.Client
}

func NewClient(appURL string, l logger.Logger) *Client {
	l = logger.OrNoOp(l).With("component", "storefront")

	return &Client{remote: remote.NewClient(appURL, l)}
}

func (c *Client) Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error) {
	var res models.RegistrationResult
	err := c.remote.Post(ctx, "/api/auth/register", "", reg, &res)
	return res, err
}

func (c *Client) ConfirmEmail(ctx context.Context, token string) (string, error) {
	var res messageResponse
	err := c.remote.Post(ctx, "/api/auth/confirm-email", "", map[string]string{"token": token}, &res)
	return res.Message, err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var res messageResponse
	err := c.remote.Post(ctx, "/api/auth/forgot-password", "", map[string]string{"email": email}, &res)
	return res.Message, err
}

func (c *Client) ResetPassword(ctx context.Context, token string, password string, confirmPassword string) (string, error) {
	body := map[string]string{
		"token":           token,
		"password":        password,
		"confirmPassword": confirmPassword,
	}

	var res messageResponse
	err := c.remote.Post(ctx, "/api/auth/reset-password", "", body, &res)
	return res.Message, err
}

type profileResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Profile models.User `json:"profile"`
}

func (c *Client) Profile(ctx context.Context, token string) (models.User, error) {
	var res profileResponse
	err := c.remote.Get(ctx, "/api/user/profile", token, &res)
	return res.Profile, err
}

func (c *Client) UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.User, error) {
	var res profileResponse
	err := c.remote.Put(ctx, "/api/user/profile", token, upd, &res)
	return res.Profile, err
}

func (c *Client) ChangePassword(ctx context.Context, token string, change models.PasswordChange) (string, error) {
	var res messageResponse
	err := c.remote.Post(ctx, "/api/user/change-password", token, change, &res)
	return res.Message, err
}

// BulkProducts runs bulk operation as admin. Partial failure is not an error: check result counters.
func (c *Client) BulkProducts(ctx context.Context, adminToken string, op models.BulkOperation) (models.BulkResult, error) {
	var res models.BulkResult
	err := c.remote.Post(ctx, "/api/admin/products/bulk", adminToken, op, &res)
	return res, err
}

func (c *Client) ListProducts(ctx context.Context, f listing.Filter) ([]models.Product, error) {
	path := "/api/products"
	if q := f.Query(); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res struct {
		Products []models.Product `json:"products"`
	}
	err := c.remote.Get(ctx, path, "", &res)
	return res.Products, err
}
