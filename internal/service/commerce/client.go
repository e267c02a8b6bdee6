// Package commerce talks to the remote commerce API: customer and admin authentication
// and the customer account flows the storefront proxy forwards.
package commerce

import (
	"context"
	"fmt"
	"time"

	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/models"
	"github.com/g-but/fitfoot/internal/service/remote"
)

// Login and refresh share one response shape: customers come in "customer", admins in "user"
type authResponse struct {
	Token    string       `json:"token"`
	Customer *models.User `json:"customer,omitempty"`
	User     *models.User `json:"user,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CustomerRegistration is the body of the register call: the profile plus the confirmation token
// generated by the storefront
type CustomerRegistration struct {
	models.Registration
	ConfirmationToken   string    `json:"confirmation_token"`
	ConfirmationExpires time.Time `json:"confirmation_expires"`
	Confirmed           bool      `json:"confirmed"`
}

type PasswordReset struct {
	Email     string    `json:"email"`
	Token     string    `json:"reset_token"`
	ExpiresAt time.Time `json:"reset_expires"`
}

type Client struct {
	remote *remote.Client
	logger logger.Logger
}

func NewClient(baseURL string, l logger.Logger) *Client {
	l = logger.OrNoOp(l).With("component", "commerce")

	return &Client{
		remote: remote.NewClient(baseURL, l),
		logger: l,
	}
}

// Remote exposes the transport to tweak timeouts or the http client
func (c *Client) Remote() *remote.Client {
	return c.remote
}

func (c *Client) Login(ctx context.Context, slot models.Slot, email string, password string) (models.Identity, error) {
	var resp authResponse

	err := c.remote.Post(ctx, authPath(slot, "login"), "", credentials{Email: email, Password: password}, &resp)
	if err != nil {
		return models.Identity{}, err
	}

	return identity(slot, resp)
}

// Logout notifies the API; callers are free to ignore the result
func (c *Client) Logout(ctx context.Context, slot models.Slot, token string) error {
	return c.remote.Post(ctx, authPath(slot, "logout"), token, nil, nil)
}

func (c *Client) Refresh(ctx context.Context, slot models.Slot, token string) (models.Identity, error) {
	var resp authResponse

	err := c.remote.Post(ctx, authPath(slot, "refresh"), token, nil, &resp)
	if err != nil {
		return models.Identity{}, err
	}

	return identity(slot, resp)
}

func (c *Client) RegisterCustomer(ctx context.Context, reg CustomerRegistration) error {
	return c.remote.Post(ctx, authPath(models.SlotCustomer, "register"), "", reg, nil)
}

func (c *Client) ConfirmEmail(ctx context.Context, token string) (models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}

	err := c.remote.Post(ctx, authPath(models.SlotCustomer, "confirm-email"), "", map[string]string{"token": token}, &resp)
	return resp.User, err
}

func (c *Client) ForgotPassword(ctx context.Context, reset PasswordReset) error {
	return c.remote.Post(ctx, authPath(models.SlotCustomer, "forgot-password"), "", reset, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token string, password string) error {
	body := struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}{Token: token, Password: password}

	return c.remote.Post(ctx, authPath(models.SlotCustomer, "reset-password"), "", body, nil)
}

type profileResponse struct {
	Customer models.User `json:"customer"`
}

// Profile of the customer owning token
func (c *Client) Profile(ctx context.Context, token string) (models.User, error) {
	var resp profileResponse
	err := c.remote.Get(ctx, authPath(models.SlotCustomer, "profile"), token, &resp)
	return resp.Customer, err
}

func (c *Client) UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.User, error) {
	var resp profileResponse
	err := c.remote.Put(ctx, authPath(models.SlotCustomer, "profile"), token, upd, &resp)
	return resp.Customer, err
}

func (c *Client) ChangePassword(ctx context.Context, token string, current string, password string) error {
	body := struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}{CurrentPassword: current, NewPassword: password}

	return c.remote.Post(ctx, authPath(models.SlotCustomer, "change-password"), token, body, nil)
}

func authPath(slot models.Slot, action string) string {
	return fmt.Sprintf("/auth/%s/%s", slot, action)
}

func identity(slot models.Slot, resp authResponse) (models.Identity, error) {
	user := resp.User
	if slot == models.SlotCustomer {
		user = resp.Customer
	}

	if resp.Token == "" || user == nil {
		return models.Identity{}, remote.NewError(remote.CodeDecode, 0, "", fmt.Errorf("response has no token or %s profile", slot))
	}

	return models.Identity{Token: resp.Token, User: *user}, nil
}
