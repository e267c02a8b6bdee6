// Package session keeps customer and admin identities of a storefront client.
//
// The two slots are independent: logging in or out of one never touches the other.
// Every slot change is a full overwrite of the slot in memory and in storage,
// so the expiry monitor racing a user action can't leave a half written identity.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/g-but/fitfoot/internal/apperrors"
	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/models"
	"github.com/g-but/fitfoot/internal/storage"
)

const (
	defaultMonitorInterval = time.Minute
	defaultWarnBefore      = 5 * time.Minute
	defaultRefreshBefore   = 2 * time.Minute
)

// Where the admin is sent after admin logout
const AdminLoginPath = "/admin/login"

// Commerce is the remote commerce API
type Commerce interface {
	Login(ctx context.Context, slot models.Slot, email string, password string) (models.Identity, error)
	Logout(ctx context.Context, slot models.Slot, token string) error
	Refresh(ctx context.Context, slot models.Slot, token string) (models.Identity, error)
}

// Storefront is the same origin server handling account flows
type Storefront interface {
	Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error)
	ConfirmEmail(ctx context.Context, token string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token string, password string, confirmPassword string) (string, error)

	Profile(ctx context.Context, token string) (models.User, error)
	UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.User, error)
	ChangePassword(ctx context.Context, token string, change models.PasswordChange) (string, error)
}

type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc allows to use a function as Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type Config struct {
	Storage    storage.Storage
	Commerce   Commerce
	Storefront Storefront

	// Optional
	Navigator Navigator
	Logger    logger.Logger
	Now       func() time.Time

	// How often the monitor checks the active token
	MonitorInterval time.Duration

	// Remaining token lifetime that raises the expiring flag and that triggers refresh
	WarnBefore    time.Duration
	RefreshBefore time.Duration
}

type Manager struct {
	storage    storage.Storage
	commerce   Commerce
	storefront Storefront
	navigator  Navigator
	logger     logger.Logger
	now        func() time.Time

	interval      time.Duration
	warnBefore    time.Duration
	refreshBefore time.Duration

	initOnce    sync.Once
	monitorOnce sync.Once
	monitorDone chan struct{}

	mu         sync.RWMutex
	identities map[models.Slot]models.Identity
	hydrated   bool
	// Slot whose token raised the expiring flag, empty when none did
	expiring   models.Slot
	lastErr    *AuthError
}

func New(cfg Config) (*Manager, error) {
	switch {
	case cfg.Storage == nil:
		return nil, errors.New("session storage must be set")
	case cfg.Commerce == nil:
		return nil, errors.New("commerce client must be set")
	case cfg.Storefront == nil:
		return nil, errors.New("storefront client must be set")
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field <= 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.MonitorInterval, defaultMonitorInterval)
	setDefaultDuration(&cfg.WarnBefore, defaultWarnBefore)
	setDefaultDuration(&cfg.RefreshBefore, defaultRefreshBefore)

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Manager{
		storage:       cfg.Storage,
		commerce:      cfg.Commerce,
		storefront:    cfg.Storefront,
		navigator:     cfg.Navigator,
		logger:        logger.OrNoOp(cfg.Logger).With("component", "session"),
		now:           cfg.Now,
		interval:      cfg.MonitorInterval,
		warnBefore:    cfg.WarnBefore,
		refreshBefore: cfg.RefreshBefore,
		identities:    make(map[models.Slot]models.Identity, 2),
	}, nil
}

// Initialize loads persisted identities. Safe to call many times, only the first call reads storage.
// A slot whose stored user is not valid JSON or has no id is discarded, the other slot is kept.
func (m *Manager) Initialize() {
	m.initOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		for _, slot := range []models.Slot{models.SlotCustomer, models.SlotAdmin} {
			m.hydrate(slot)
		}
		m.hydrated = true
	})
}

// has to be called with write lock held
func (m *Manager) hydrate(slot models.Slot) {
	token, ok := m.storage.Get(storage.TokenKey(slot))
	if !ok || token == "" {
		return
	}
	raw, ok := m.storage.Get(storage.UserKey(slot))
	if !ok {
		return
	}

	var user models.User
	err := json.Unmarshal([]byte(raw), &user)
	if err == nil && user.ID == "" {
		err = errors.New("stored user has no id")
	}
	if err != nil {
		m.logger.Error("Stored user is corrupted, discarding slot", "slot", slot, "error", err)
		m.removeKeys(slot)
		return
	}

	m.identities[slot] = models.Identity{Token: token, User: user}
	m.logger.Debug("Session restored", "slot", slot, "user_id", user.ID)
}

// Hydrated reports whether Initialize has finished: false means "not checked yet", not "logged out"
func (m *Manager) Hydrated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hydrated
}

func (m *Manager) LoginCustomer(ctx context.Context, email string, password string) (models.User, error) {
	return m.login(ctx, models.SlotCustomer, email, password, "Login failed")
}

func (m *Manager) LoginAdmin(ctx context.Context, email string, password string) (models.User, error) {
	return m.login(ctx, models.SlotAdmin, email, password, "Admin login failed")
}

func (m *Manager) login(ctx context.Context, slot models.Slot, email string, password string, fallback string) (models.User, error) {
	m.setLastError(nil)

	if email == "" || password == "" {
		return models.User{}, m.fail(invalid("Email and password are required", nil))
	}

	id, err := m.commerce.Login(ctx, slot, email, password)
	if err != nil {
		m.logger.Warn("Login failed", "slot", slot, "error", err)
		return models.User{}, m.fail(toAuthError(err, fallback))
	}

	m.setIdentity(slot, id)
	m.logger.Info("Logged in", "slot", slot, "user_id", id.User.ID)
	return id.User, nil
}

// RegisterCustomer goes through the storefront server, never to the commerce API directly
func (m *Manager) RegisterCustomer(ctx context.Context, reg models.Registration) (models.RegistrationResult, error) {
	m.setLastError(nil)

	res, err := m.storefront.Register(ctx, reg)
	if err != nil {
		m.logger.Warn("Registration failed", "error", err)
		return models.RegistrationResult{}, m.fail(toAuthError(err, "Registration failed"))
	}
	return res, nil
}

func (m *Manager) ConfirmEmail(ctx context.Context, token string) (string, error) {
	m.setLastError(nil)

	if token == "" {
		return "", m.fail(invalid("Confirmation token is required", nil))
	}

	msg, err := m.storefront.ConfirmEmail(ctx, token)
	if err != nil {
		m.logger.Warn("Email confirmation failed", "error", err)
		return "", m.fail(toAuthError(err, "Email confirmation failed"))
	}
	return msg, nil
}

func (m *Manager) ForgotPassword(ctx context.Context, email string) (string, error) {
	m.setLastError(nil)

	if email == "" {
		return "", m.fail(invalid("Email is required", nil))
	}

	msg, err := m.storefront.ForgotPassword(ctx, email)
	if err != nil {
		m.logger.Warn("Password reset request failed", "error", err)
		return "", m.fail(toAuthError(err, "Failed to send reset email"))
	}
	return msg, nil
}

func (m *Manager) ResetPassword(ctx context.Context, token string, password string, confirmPassword string) (string, error) {
	m.setLastError(nil)

	if password != confirmPassword {
		return "", m.fail(invalid("Passwords do not match", nil))
	}

	msg, err := m.storefront.ResetPassword(ctx, token, password, confirmPassword)
	if err != nil {
		m.logger.Warn("Password reset failed", "error", err)
		return "", m.fail(toAuthError(err, "Password reset failed"))
	}
	return msg, nil
}

// Profile fetches the customer profile and refreshes the stored copy
func (m *Manager) Profile(ctx context.Context) (models.User, error) {
	m.setLastError(nil)

	token, ok := m.AuthToken()
	if !ok {
		return models.User{}, m.fail(invalid("Not logged in", apperrors.ErrNotAuthenticated))
	}

	user, err := m.storefront.Profile(ctx, token)
	if err != nil {
		m.logger.Warn("Profile fetch failed", "error", err)
		return models.User{}, m.fail(toAuthError(err, "Profile fetch failed"))
	}

	m.replaceUser(models.SlotCustomer, token, user)
	return user, nil
}

func (m *Manager) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	m.setLastError(nil)

	token, ok := m.AuthToken()
	if !ok {
		return models.User{}, m.fail(invalid("Not logged in", apperrors.ErrNotAuthenticated))
	}
	if upd.FirstName == "" || upd.LastName == "" {
		return models.User{}, m.fail(invalid("First name and last name are required", nil))
	}

	user, err := m.storefront.UpdateProfile(ctx, token, upd)
	if err != nil {
		m.logger.Warn("Profile update failed", "error", err)
		return models.User{}, m.fail(toAuthError(err, "Profile update failed"))
	}

	m.replaceUser(models.SlotCustomer, token, user)
	m.logger.Info("Profile updated", "user_id", user.ID)
	return user, nil
}

// ChangePassword keeps the current token: commerce does not revoke it on a password change
func (m *Manager) ChangePassword(ctx context.Context, change models.PasswordChange) (string, error) {
	m.setLastError(nil)

	token, ok := m.AuthToken()
	if !ok {
		return "", m.fail(invalid("Not logged in", apperrors.ErrNotAuthenticated))
	}

	switch {
	case change.CurrentPassword == "" || change.NewPassword == "" || change.ConfirmPassword == "":
		return "", m.fail(invalid("Current password, new password, and confirmation are required", nil))
	case change.NewPassword != change.ConfirmPassword:
		return "", m.fail(invalid("New passwords do not match", nil))
	}

	msg, err := m.storefront.ChangePassword(ctx, token, change)
	if err != nil {
		m.logger.Warn("Password change failed", "error", err)
		return "", m.fail(toAuthError(err, "Password change failed"))
	}

	m.logger.Info("Password changed")
	return msg, nil
}

// Logout notifies the API if it can and clears the customer slot regardless
func (m *Manager) Logout(ctx context.Context) {
	m.logout(ctx, models.SlotCustomer)
}

// LogoutAdmin clears the admin slot and sends the admin to the login page
func (m *Manager) LogoutAdmin(ctx context.Context) {
	m.logout(ctx, models.SlotAdmin)

	if m.navigator != nil {
		m.navigator.Navigate(AdminLoginPath)
	}
}

func (m *Manager) logout(ctx context.Context, slot models.Slot) {
	if token, ok := m.storage.Get(storage.TokenKey(slot)); ok && token != "" {
		if err := m.commerce.Logout(ctx, slot, token); err != nil {
			m.logger.Warn("Logout notification failed", "slot", slot, "error", err)
		}
	}

	m.clearSlot(slot)
	m.logger.Info("Logged out", "slot", slot)
}

// RefreshToken refreshes the active token; admin wins when both slots are populated.
// On failure nothing is changed.
func (m *Manager) RefreshToken(ctx context.Context) error {
	slot, token, ok := m.activeToken()
	if !ok {
		return m.fail(invalid("Not logged in", apperrors.ErrNotAuthenticated))
	}

	id, err := m.commerce.Refresh(ctx, slot, token)
	if err != nil {
		m.logger.Warn("Token refresh failed", "slot", slot, "error", err)
		return m.fail(toAuthError(err, "Token refresh failed"))
	}

	m.mu.Lock()
	m.setIdentityLocked(slot, id)
	m.mu.Unlock()

	m.logger.Debug("Token refreshed", "slot", slot)
	return nil
}

func (m *Manager) AuthToken() (string, bool) {
	return m.token(models.SlotCustomer)
}

func (m *Manager) AdminToken() (string, bool) {
	return m.token(models.SlotAdmin)
}

func (m *Manager) token(slot models.Slot) (string, bool) {
	token, ok := m.storage.Get(storage.TokenKey(slot))
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (m *Manager) activeToken() (models.Slot, string, bool) {
	if token, ok := m.AdminToken(); ok {
		return models.SlotAdmin, token, true
	}
	if token, ok := m.AuthToken(); ok {
		return models.SlotCustomer, token, true
	}
	return "", "", false
}

// HasPermission is always false without an admin, always true for a super admin
func (m *Manager) HasPermission(permission string) bool {
	admin, ok := m.Admin()
	if !ok {
		return false
	}
	return admin.HasPermission(permission)
}

func (m *Manager) Customer() (models.User, bool) {
	return m.user(models.SlotCustomer)
}

func (m *Manager) Admin() (models.User, bool) {
	return m.user(models.SlotAdmin)
}

func (m *Manager) user(slot models.Slot) (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.identities[slot]
	return id.User, ok
}

func (m *Manager) IsLoggedIn() bool {
	_, ok := m.Customer()
	return ok
}

func (m *Manager) IsAdmin() bool {
	_, ok := m.Admin()
	return ok
}

// SessionExpiring is raised by the monitor shortly before the active token expires
func (m *Manager) SessionExpiring() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiring != ""
}

// LastError is the most recent failure of any operation, nil after a success
func (m *Manager) LastError() *AuthError {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) ClearError() {
	m.setLastError(nil)
}

func (m *Manager) setLastError(err *AuthError) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) fail(err *AuthError) error {
	m.setLastError(err)
	return err
}

func (m *Manager) setIdentity(slot models.Slot, id models.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setIdentityLocked(slot, id)
}

// Storage write errors are logged only: the in-memory session keeps working
func (m *Manager) setIdentityLocked(slot models.Slot, id models.Identity) {
	m.identities[slot] = id
	m.resetExpiringLocked(slot)
	m.persistLocked(slot, id)
}

// replaceUser swaps the profile of a slot still holding token.
// A slot logged out or refreshed meanwhile is left as is.
func (m *Manager) replaceUser(slot models.Slot, token string, user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.identities[slot]; !ok || cur.Token != token {
		return
	}

	id := models.Identity{Token: token, User: user}
	m.identities[slot] = id
	m.persistLocked(slot, id)
}

func (m *Manager) persistLocked(slot models.Slot, id models.Identity) {
	user, err := json.Marshal(id.User)
	if err != nil {
		m.logger.Error("Failed to encode user", "slot", slot, "error", err)
		return
	}
	if err := m.storage.Set(storage.TokenKey(slot), id.Token); err != nil {
		m.logger.Error("Failed to persist token", "slot", slot, "error", err)
	}
	if err := m.storage.Set(storage.UserKey(slot), string(user)); err != nil {
		m.logger.Error("Failed to persist user", "slot", slot, "error", err)
	}
}

func (m *Manager) clearSlot(slot models.Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.identities, slot)
	m.removeKeys(slot)
	m.resetExpiringLocked(slot)
}

// The flag belongs to the slot that raised it, the other slot's changes leave it alone
func (m *Manager) resetExpiringLocked(slot models.Slot) {
	if m.expiring == slot {
		m.expiring = ""
	}
}

func (m *Manager) removeKeys(slot models.Slot) {
	for _, key := range []string{storage.TokenKey(slot), storage.UserKey(slot)} {
		if err := m.storage.Remove(key); err != nil {
			m.logger.Error("Failed to remove stored value", "key", key, "error", err)
		}
	}
}
