package handlers

import (
	"context"
	"net/http"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/g-but/fitfoot/internal/handlers/render"
	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/models"
	"github.com/g-but/fitfoot/internal/service/account"
	"github.com/g-but/fitfoot/internal/service/auth"
)

type accountService interface {
	Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error)
	ConfirmEmail(ctx context.Context, token string) (models.User, error)
	ForgotPassword(ctx context.Context, email string) (account.ResetRequest, error)
	ResetPassword(ctx context.Context, token string, password string) error

	Profile(ctx context.Context, token string) (models.User, error)
	UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.User, error)
	ChangePassword(ctx context.Context, token string, current string, password string) error
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone,omitempty"`
}

func (registerRequest) ValidationMessage(errs validator.ValidationErrors) string {
	switch {
	case failedOn(errs, "", "required"):
		return "Missing required fields"
	case failedOn(errs, "password", "min"):
		return "Password must be at least 8 characters long"
	default:
		return "Invalid email format"
	}
}

type confirmEmailRequest struct {
	Token string `json:"token" validate:"required,hextoken"`
}

func (confirmEmailRequest) ValidationMessage(errs validator.ValidationErrors) string {
	if failedOn(errs, "", "required") {
		return "Confirmation token is required"
	}
	return "Invalid token format"
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (forgotPasswordRequest) ValidationMessage(errs validator.ValidationErrors) string {
	if failedOn(errs, "", "required") {
		return "Email is required"
	}
	return "Invalid email format"
}

type resetPasswordRequest struct {
	Token           string `json:"token" validate:"required,hextoken"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (resetPasswordRequest) ValidationMessage(errs validator.ValidationErrors) string {
	switch {
	case failedOn(errs, "", "required"):
		return "Token, password, and password confirmation are required"
	case failedOn(errs, "password", "min"):
		return "Password must be at least 8 characters long"
	case failedOn(errs, "confirmPassword", "eqfield"):
		return "Passwords do not match"
	default:
		return "Invalid token format"
	}
}

type profileRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,phone"`
}

func (profileRequest) ValidationMessage(errs validator.ValidationErrors) string {
	if failedOn(errs, "", "required") {
		return "First name and last name are required"
	}
	return "Invalid phone number format"
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func (changePasswordRequest) ValidationMessage(errs validator.ValidationErrors) string {
	switch {
	case failedOn(errs, "", "required"):
		return "Current password, new password, and confirmation are required"
	case failedOn(errs, "newPassword", "min"):
		return "New password must be at least 8 characters long"
	default:
		return "New passwords do not match"
	}
}

// Whether any error is for the tag, on the given field or on any field when field is empty
func failedOn(errs validator.ValidationErrors, field string, tag string) bool {
	return slices.ContainsFunc(errs, func(fe validator.FieldError) bool {
		return fe.Tag() == tag && (field == "" || fe.Field() == field)
	})
}

func handleRegister(s accountService, l logger.Logger) http.Handler {
	type response struct {
		Success bool `json:"success"`
		models.RegistrationResult
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[registerRequest](w, r)
		if err != nil {
			return
		}

		res, err := s.Register(r.Context(), models.Registration{
			Email:     data.Email,
			Password:  data.Password,
			FirstName: data.FirstName,
			LastName:  data.LastName,
			Phone:     data.Phone,
		})
		if err != nil {
			upstreamError(w, err, "Registration failed", l)
			return
		}

		render.JSON(w, response{Success: true, RegistrationResult: res})
	})
}

type confirmEmailResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

func handleConfirmEmail(s accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[confirmEmailRequest](w, r)
		if err != nil {
			return
		}
		confirmEmail(w, r, s, data.Token, l)
	})
}

// Confirmation links land here with the token in query
func handleConfirmEmailLink(s accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := confirmEmailRequest{Token: r.URL.Query().Get("token")}
		if err := render.Validate(w, data); err != nil {
			return
		}
		confirmEmail(w, r, s, data.Token, l)
	})
}

func confirmEmail(w http.ResponseWriter, r *http.Request, s accountService, token string, l logger.Logger) {
	user, err := s.ConfirmEmail(r.Context(), token)
	if err != nil {
		upstreamError(w, err, "Email confirmation failed", l)
		return
	}

	render.JSON(w, confirmEmailResponse{
		Success: true,
		Message: account.MsgEmailConfirmed,
		User:    user,
	})
}

func handleForgotPassword(s accountService, l logger.Logger) http.Handler {
	type response struct {
		Success bool `json:"success"`
		account.ResetRequest
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[forgotPasswordRequest](w, r)
		if err != nil {
			return
		}

		res, err := s.ForgotPassword(r.Context(), data.Email)
		if err != nil {
			l.Error("Failed to request password reset", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Success: true, ResetRequest: res})
	})
}

func handleResetPassword(s accountService, l logger.Logger) http.Handler {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[resetPasswordRequest](w, r)
		if err != nil {
			return
		}

		if err := s.ResetPassword(r.Context(), data.Token, data.Password); err != nil {
			upstreamError(w, err, "Password reset failed", l)
			return
		}

		render.JSON(w, response{Success: true, Message: account.MsgPasswordChanged})
	})
}

// customerToken is the bearer the customer logged in with; commerce decides whether it is still good
func customerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := auth.BearerToken(r)
	if !ok {
		render.ServiceError(w, "No valid authorization token provided", http.StatusUnauthorized)
	}
	return token, ok
}

type profileResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Profile models.User `json:"profile"`
}

func handleGetProfile(s accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := customerToken(w, r)
		if !ok {
			return
		}

		user, err := s.Profile(r.Context(), token)
		if err != nil {
			upstreamError(w, err, "Profile fetch failed", l)
			return
		}

		render.JSON(w, profileResponse{Success: true, Profile: user})
	})
}

func handleUpdateProfile(s accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := customerToken(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[profileRequest](w, r)
		if err != nil {
			return
		}

		user, err := s.UpdateProfile(r.Context(), token, models.ProfileUpdate{
			FirstName: data.FirstName,
			LastName:  data.LastName,
			Phone:     data.Phone,
		})
		if err != nil {
			upstreamError(w, err, "Profile update failed", l)
			return
		}

		render.JSON(w, profileResponse{Success: true, Message: account.MsgProfileUpdated, Profile: user})
	})
}

func handleChangePassword(s accountService, l logger.Logger) http.Handler {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := customerToken(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[changePasswordRequest](w, r)
		if err != nil {
			return
		}

		if err := s.ChangePassword(r.Context(), token, data.CurrentPassword, data.NewPassword); err != nil {
			upstreamError(w, err, "Password change failed", l)
			return
		}

		render.JSON(w, response{Success: true, Message: account.MsgPasswordUpdated})
	})
}
