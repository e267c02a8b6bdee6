// Package account is the server side of the customer account flows: it mints confirmation
// and reset tokens, forwards the flows to the commerce API and builds the links mailed to customers.
package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/models"
	"github.com/g-but/fitfoot/internal/service/commerce"
)

const (
	defaultConfirmationTTL = 24 * time.Hour
	defaultResetTTL        = time.Hour

	// 32 random bytes, 64 chars once hex encoded
	tokenBytes = 32
)

// Paths of the mailed links. Confirmation is completed by the GET endpoint of this server,
// reset needs the storefront page asking for the new password.
const (
	ConfirmEmailLinkPath  = "/api/auth/confirm-email"
	ResetPasswordLinkPath = "/auth/reset-password"
)

const (
	MsgRegistered      = "Registration successful! Please check your email to confirm your account."
	MsgEmailConfirmed  = "Email confirmed successfully! You can now log in."
	MsgResetRequested  = "If an account with that email exists, we have sent you a password reset link."
	MsgPasswordChanged = "Password reset successfully! You can now log in with your new password."
	MsgProfileUpdated  = "Profile updated successfully"
	MsgPasswordUpdated = "Password updated successfully!"
)

type commerceAPI interface {
	RegisterCustomer(ctx context.Context, reg commerce.CustomerRegistration) error
	ConfirmEmail(ctx context.Context, token string) (models.User, error)
	ForgotPassword(ctx context.Context, reset commerce.PasswordReset) error
	ResetPassword(ctx context.Context, token string, password string) error

	Profile(ctx context.Context, token string) (models.User, error)
	UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.User, error)
	ChangePassword(ctx context.Context, token string, current string, password string) error
}

type Config struct {
	// Public storefront url links are built from
	AppURL string

	// Links and tokens are echoed back in responses: never enable in production
	ExposeTokens bool

	ConfirmationTTL time.Duration
	ResetTTL        time.Duration
}

type Service struct {
	commerce commerceAPI
	logger   logger.Logger

	appURL          string
	exposeTokens    bool
	confirmationTTL time.Duration
	resetTTL        time.Duration

	now      func() time.Time
	newToken func() (string, error)
}

func NewService(cfg Config, commerce commerceAPI, l logger.Logger) *Service {
	if cfg.ConfirmationTTL == 0 {
		cfg.ConfirmationTTL = defaultConfirmationTTL
	}
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = defaultResetTTL
	}

	return &Service{
		commerce:        commerce,
		logger:          logger.OrNoOp(l).With("component", "account"),
		appURL:          strings.TrimRight(cfg.AppURL, "/"),
		exposeTokens:    cfg.ExposeTokens,
		confirmationTTL: cfg.ConfirmationTTL,
		resetTTL:        cfg.ResetTTL,
		now:             time.Now,
		newToken:        NewToken,
	}
}

// NewToken returns 32 random bytes hex encoded
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generating token. Err: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Register creates unconfirmed customer. Errors of the commerce API are returned as is
func (s *Service) Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error) {
	token, err := s.newToken()
	if err != nil {
		return models.RegistrationResult{}, err
	}

	err = s.commerce.RegisterCustomer(ctx, commerce.CustomerRegistration{
		Registration:        reg,
		ConfirmationToken:   token,
		ConfirmationExpires: s.now().Add(s.confirmationTTL).UTC(),
		Confirmed:           false,
	})
	if err != nil {
		return models.RegistrationResult{}, err
	}

	s.logger.Info("Customer registered, confirmation pending", "email", reg.Email)

	result := models.RegistrationResult{Message: MsgRegistered}
	if s.exposeTokens {
		result.ConfirmationURL = s.link(ConfirmEmailLinkPath, token)
		result.ConfirmationToken = token
	}
	return result, nil
}

func (s *Service) ConfirmEmail(ctx context.Context, token string) (models.User, error) {
	user, err := s.commerce.ConfirmEmail(ctx, token)
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info("Customer email confirmed", "user_id", user.ID)
	return user, nil
}

type ResetRequest struct {
	Message string `json:"message"`

	// Set outside production only
	ResetURL   string `json:"resetUrl,omitempty"`
	ResetToken string `json:"resetToken,omitempty"`
}

// ForgotPassword never tells whether the email is known: commerce failures are logged and swallowed.
// Only failure to mint a token is returned.
func (s *Service) ForgotPassword(ctx context.Context, email string) (ResetRequest, error) {
	token, err := s.newToken()
	if err != nil {
		return ResetRequest{}, err
	}

	err = s.commerce.ForgotPassword(ctx, commerce.PasswordReset{
		Email:     email,
		Token:     token,
		ExpiresAt: s.now().Add(s.resetTTL).UTC(),
	})
	if err != nil {
		s.logger.Warn("Password reset not forwarded", "error", err)
	}

	result := ResetRequest{Message: MsgResetRequested}
	if s.exposeTokens {
		result.ResetURL = s.link(ResetPasswordLinkPath, token)
		result.ResetToken = token
	}
	return result, nil
}

func (s *Service) ResetPassword(ctx context.Context, token string, password string) error {
	if err := s.commerce.ResetPassword(ctx, token, password); err != nil {
		return err
	}

	s.logger.Info("Customer password reset")
	return nil
}

// Profile and password calls carry the customer token as is: commerce is the one validating it

func (s *Service) Profile(ctx context.Context, token string) (models.User, error) {
	return s.commerce.Profile(ctx, token)
}

func (s *Service) UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.User, error) {
	user, err := s.commerce.UpdateProfile(ctx, token, upd)
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info("Customer profile updated", "user_id", user.ID)
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, token string, current string, password string) error {
	if err := s.commerce.ChangePassword(ctx, token, current, password); err != nil {
		return err
	}

	s.logger.Info("Customer password changed")
	return nil
}

func (s *Service) link(path string, token string) string {
	return s.appURL + path + "?" + url.Values{"token": {token}}.Encode()
}
