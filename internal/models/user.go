package models

import (
	"slices"
	"time"
)

// Slot is one of the independent identity contexts kept by a client session
type Slot string

const (
	SlotCustomer Slot = "customer"
	SlotAdmin    Slot = "admin"
)

// Role that is granted every permission
const RoleSuperAdmin = "super_admin"

// User profile as returned by the commerce API for both customers and admins
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         string     `json:"role,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Confirmed    bool       `json:"confirmed,omitempty"`
	Permissions  []string   `json:"permissions,omitempty"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
}

func (u User) HasPermission(permission string) bool {
	if u.Role == RoleSuperAdmin {
		return true
	}
	return slices.Contains(u.Permissions, permission)
}

// Identity is the token and profile pair owned by a slot
type Identity struct {
	Token string
	User  User
}

type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

type RegistrationResult struct {
	Message string `json:"message"`

	// Set by the proxy outside production only
	ConfirmationURL   string `json:"confirmationUrl,omitempty"`
	ConfirmationToken string `json:"confirmationToken,omitempty"`
}

// ProfileUpdate is what a customer may change on their own profile
type ProfileUpdate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}
