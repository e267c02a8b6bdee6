package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g-but/fitfoot/internal/apperrors"
	"github.com/g-but/fitfoot/internal/models"
	"github.com/g-but/fitfoot/internal/service/remote"
	"github.com/g-but/fitfoot/internal/storage"
)

type fakeCommerce struct {
	mu sync.Mutex

	login   func(slot models.Slot, email string, password string) (models.Identity, error)
	refresh func(slot models.Slot, token string) (models.Identity, error)

	logoutErr    error
	logouts      []models.Slot
	loginCalls   int
	refreshCalls int
}

func (f *fakeCommerce) Login(_ context.Context, slot models.Slot, email string, password string) (models.Identity, error) {
	f.mu.Lock()
	f.loginCalls++
	f.mu.Unlock()

	return f.login(slot, email, password)
}

func (f *fakeCommerce) Logout(_ context.Context, slot models.Slot, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logouts = append(f.logouts, slot)
	return f.logoutErr
}

func (f *fakeCommerce) Refresh(_ context.Context, slot models.Slot, token string) (models.Identity, error) {
	f.mu.Lock()
	f.refreshCalls++
	fn := f.refresh
	f.mu.Unlock()

	if fn == nil {
		return models.Identity{}, remote.NewError(remote.CodeRejected, http.StatusUnauthorized, "Token expired", nil)
	}
	return fn(slot, token)
}

func (f *fakeCommerce) RefreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

type fakeStorefront struct {
	calls int
	err   error

	lastToken  string
	lastChange models.PasswordChange
}

func (f *fakeStorefront) Register(_ context.Context, reg models.Registration) (models.RegistrationResult, error) {
	f.calls++
	if f.err != nil {
		return models.RegistrationResult{}, f.err
	}
	return models.RegistrationResult{Message: "Registration successful!", ConfirmationURL: "http://app/confirm?token=x"}, nil
}

func (f *fakeStorefront) ConfirmEmail(_ context.Context, token string) (string, error) {
	f.calls++
	return "Email confirmed successfully! You can now log in.", f.err
}

func (f *fakeStorefront) ForgotPassword(_ context.Context, email string) (string, error) {
	f.calls++
	return "If an account with that email exists, we have sent you a password reset link.", f.err
}

func (f *fakeStorefront) ResetPassword(_ context.Context, token string, password string, confirm string) (string, error) {
	f.calls++
	return "Password reset successfully!", f.err
}

func (f *fakeStorefront) Profile(_ context.Context, token string) (models.User, error) {
	f.calls++
	f.lastToken = token
	if f.err != nil {
		return models.User{}, f.err
	}
	user := customer
	user.Phone = "+41 79 123 45 67"
	return user, nil
}

func (f *fakeStorefront) UpdateProfile(_ context.Context, token string, upd models.ProfileUpdate) (models.User, error) {
	f.calls++
	f.lastToken = token
	if f.err != nil {
		return models.User{}, f.err
	}
	user := customer
	user.FirstName, user.LastName, user.Phone = upd.FirstName, upd.LastName, upd.Phone
	return user, nil
}

func (f *fakeStorefront) ChangePassword(_ context.Context, token string, change models.PasswordChange) (string, error) {
	f.calls++
	f.lastToken = token
	f.lastChange = change
	return "Password updated successfully!", f.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	customer = models.User{ID: "cus_1", Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}
	admin    = models.User{ID: "usr_1", Email: "ops@example.com", Role: "editor", Permissions: []string{"products:write"}}
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	return mintToken(t, jwt.MapClaims{"sub": "someone", "exp": exp.Unix()})
}

type env struct {
	manager    *Manager
	storage    *storage.Memory
	commerce   *fakeCommerce
	storefront *fakeStorefront
	clock      *clock
	navigated  []string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		storage:    storage.NewMemory(),
		storefront: &fakeStorefront{},
		clock:      &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	e.commerce = &fakeCommerce{
		login: func(slot models.Slot, email string, password string) (models.Identity, error) {
			if password != "correct" {
				return models.Identity{}, remote.NewError(remote.CodeRejected, http.StatusUnauthorized, "Invalid credentials", nil)
			}
			user := customer
			if slot == models.SlotAdmin {
				user = admin
			}
			return models.Identity{Token: tokenExpiringAt(t, e.clock.Now().Add(time.Hour)), User: user}, nil
		},
	}

	m, err := New(Config{
		Storage:    e.storage,
		Commerce:   e.commerce,
		Storefront: e.storefront,
		Navigator:  NavigatorFunc(func(path string) { e.navigated = append(e.navigated, path) }),
		Now:        e.clock.Now,
	})
	require.NoError(t, err)
	e.manager = m

	return e
}

// put identity straight into storage as if a previous run left it there
func (e *env) persist(t *testing.T, slot models.Slot, token string, user models.User) {
	t.Helper()

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, e.storage.Set(storage.TokenKey(slot), token))
	require.NoError(t, e.storage.Set(storage.UserKey(slot), string(raw)))
}

func requireAuthError(t *testing.T, err error, kind ErrorKind, message string) {
	t.Helper()

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, kind, ae.Kind)
	require.Equal(t, message, ae.Message)
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		m, err := New(Config{Storage: storage.NewMemory(), Commerce: &fakeCommerce{}, Storefront: &fakeStorefront{}})

		require.NoError(t, err)
		require.Equal(t, time.Minute, m.interval)
		require.Equal(t, 5*time.Minute, m.warnBefore)
		require.Equal(t, 2*time.Minute, m.refreshBefore)
		require.False(t, m.Hydrated())
	})

	t.Run("dependencies required", func(t *testing.T) {
		_, err := New(Config{Commerce: &fakeCommerce{}, Storefront: &fakeStorefront{}})
		require.Error(t, err)

		_, err = New(Config{Storage: storage.NewMemory(), Storefront: &fakeStorefront{}})
		require.Error(t, err)

		_, err = New(Config{Storage: storage.NewMemory(), Commerce: &fakeCommerce{}})
		require.Error(t, err)
	})
}

func TestManager_Initialize(t *testing.T) {
	t.Run("restores both slots", func(t *testing.T) {
		e := newEnv(t)
		e.persist(t, models.SlotCustomer, "c.c.c", customer)
		e.persist(t, models.SlotAdmin, "a.a.a", admin)

		e.manager.Initialize()

		require.True(t, e.manager.Hydrated())
		got, ok := e.manager.Customer()
		require.True(t, ok)
		require.Equal(t, customer, got)
		got, ok = e.manager.Admin()
		require.True(t, ok)
		require.Equal(t, admin, got)
	})

	t.Run("empty storage", func(t *testing.T) {
		e := newEnv(t)

		e.manager.Initialize()

		require.True(t, e.manager.Hydrated(), "hydrated even when nothing was found")
		require.False(t, e.manager.IsLoggedIn())
		require.False(t, e.manager.IsAdmin())
	})

	t.Run("corrupted user discards only that slot", func(t *testing.T) {
		e := newEnv(t)
		e.persist(t, models.SlotAdmin, "a.a.a", admin)
		require.NoError(t, e.storage.Set(storage.KeyCustomerToken, "c.c.c"))
		require.NoError(t, e.storage.Set(storage.KeyCustomerUser, `{"id": "cus_1", "email":`))

		require.NotPanics(t, e.manager.Initialize)

		require.True(t, e.manager.Hydrated())
		require.False(t, e.manager.IsLoggedIn(), "corrupted slot must be empty")
		snapshot := e.storage.Snapshot()
		require.NotContains(t, snapshot, storage.KeyCustomerToken)
		require.NotContains(t, snapshot, storage.KeyCustomerUser)

		require.True(t, e.manager.IsAdmin(), "other slot must survive")
		require.Contains(t, snapshot, storage.KeyAdminToken)
	})

	t.Run("user without id is discarded", func(t *testing.T) {
		for _, raw := range []string{"null", "{}", `{"email": "jane@example.com"}`} {
			e := newEnv(t)
			require.NoError(t, e.storage.Set(storage.KeyCustomerToken, "c.c.c"))
			require.NoError(t, e.storage.Set(storage.KeyCustomerUser, raw))

			e.manager.Initialize()

			require.False(t, e.manager.IsLoggedIn(), "stored user %s", raw)
			require.NotContains(t, e.storage.Snapshot(), storage.KeyCustomerToken)
			require.NotContains(t, e.storage.Snapshot(), storage.KeyCustomerUser)
		}
	})

	t.Run("token without user is ignored", func(t *testing.T) {
		e := newEnv(t)
		require.NoError(t, e.storage.Set(storage.KeyCustomerToken, "c.c.c"))

		e.manager.Initialize()

		require.False(t, e.manager.IsLoggedIn())
	})

	t.Run("runs once", func(t *testing.T) {
		e := newEnv(t)
		e.manager.Initialize()
		e.persist(t, models.SlotCustomer, "c.c.c", customer)

		e.manager.Initialize()

		require.False(t, e.manager.IsLoggedIn(), "second call must not read storage again")
	})
}

func TestManager_Login(t *testing.T) {
	t.Run("slots are independent", func(t *testing.T) {
		e := newEnv(t)
		e.manager.Initialize()

		_, err := e.manager.LoginAdmin(t.Context(), "ops@example.com", "correct")
		require.NoError(t, err)
		adminToken, _ := e.storage.Get(storage.KeyAdminToken)
		adminUser, _ := e.storage.Get(storage.KeyAdminUser)

		user, err := e.manager.LoginCustomer(t.Context(), "jane@example.com", "correct")
		require.NoError(t, err)
		require.Equal(t, customer, user)

		// customer keys are written
		token, ok := e.manager.AuthToken()
		require.True(t, ok)
		stored, _ := e.storage.Get(storage.KeyCustomerToken)
		require.Equal(t, stored, token)
		raw, ok := e.storage.Get(storage.KeyCustomerUser)
		require.True(t, ok)
		require.JSONEq(t, `{"id":"cus_1","email":"jane@example.com","first_name":"Jane","last_name":"Doe"}`, raw)

		require.True(t, e.manager.IsLoggedIn())
		require.True(t, e.manager.IsAdmin())

		e.manager.Logout(t.Context())

		snapshot := e.storage.Snapshot()
		require.NotContains(t, snapshot, storage.KeyCustomerToken)
		require.NotContains(t, snapshot, storage.KeyCustomerUser)
		require.Equal(t, adminToken, snapshot[storage.KeyAdminToken], "admin slot must stay untouched")
		require.Equal(t, adminUser, snapshot[storage.KeyAdminUser], "admin slot must stay untouched")

		require.False(t, e.manager.IsLoggedIn())
		require.True(t, e.manager.IsAdmin())
		require.Equal(t, []models.Slot{models.SlotCustomer}, e.commerce.logouts)
		require.Empty(t, e.navigated, "customer logout doesn't navigate")
	})

	t.Run("rejected login keeps state", func(t *testing.T) {
		e := newEnv(t)
		e.persist(t, models.SlotAdmin, "a.a.a", admin)
		e.manager.Initialize()

		_, err := e.manager.LoginCustomer(t.Context(), "jane@example.com", "wrong")

		requireAuthError(t, err, KindRejected, "Invalid credentials")
		require.Equal(t, err, e.manager.LastError())
		require.False(t, e.manager.IsLoggedIn())
		require.True(t, e.manager.IsAdmin())
		_, ok := e.storage.Get(storage.KeyCustomerToken)
		require.False(t, ok)
	})

	t.Run("success clears last error", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.manager.LoginAdmin(t.Context(), "ops@example.com", "wrong")
		require.Error(t, err)
		require.NotNil(t, e.manager.LastError())

		_, err = e.manager.LoginAdmin(t.Context(), "ops@example.com", "correct")
		require.NoError(t, err)
		require.Nil(t, e.manager.LastError())
	})

	t.Run("failures are normalized", func(t *testing.T) {
		tests := []struct {
			name    string
			err     error
			kind    ErrorKind
			message string
		}{
			{
				name:    "network",
				err:     remote.NewError(remote.CodeNetwork, 0, "", errors.New("connection refused")),
				kind:    KindNetwork,
				message: NetworkErrorMessage,
			},
			{
				name:    "garbage response",
				err:     remote.NewError(remote.CodeDecode, http.StatusOK, "", errors.New("invalid character")),
				kind:    KindNetwork,
				message: NetworkErrorMessage,
			},
			{
				name:    "rejected without message",
				err:     remote.NewError(remote.CodeRejected, http.StatusInternalServerError, "", nil),
				kind:    KindRejected,
				message: "Admin login failed",
			},
			{
				name:    "unknown error",
				err:     errors.New("boom"),
				kind:    KindNetwork,
				message: NetworkErrorMessage,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				e := newEnv(t)
				e.commerce.login = func(models.Slot, string, string) (models.Identity, error) {
					return models.Identity{}, tt.err
				}

				_, err := e.manager.LoginAdmin(t.Context(), "ops@example.com", "correct")

				requireAuthError(t, err, tt.kind, tt.message)
				require.ErrorIs(t, err, tt.err, "cause must be kept")
			})
		}
	})

	t.Run("empty credentials are not sent", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.manager.LoginCustomer(t.Context(), "", "correct")

		requireAuthError(t, err, KindInvalid, "Email and password are required")
		require.Zero(t, e.commerce.loginCalls)
	})
}

func TestManager_LogoutAdmin(t *testing.T) {
	e := newEnv(t)
	e.persist(t, models.SlotCustomer, "c.c.c", customer)
	e.persist(t, models.SlotAdmin, "a.a.a", admin)
	e.manager.Initialize()
	e.commerce.logoutErr = remote.NewError(remote.CodeNetwork, 0, "", errors.New("down"))

	e.manager.LogoutAdmin(t.Context())

	require.False(t, e.manager.IsAdmin(), "slot is cleared even when the API is down")
	_, ok := e.manager.AdminToken()
	require.False(t, ok)
	require.True(t, e.manager.IsLoggedIn())
	require.Equal(t, []string{AdminLoginPath}, e.navigated)
	require.Nil(t, e.manager.LastError(), "logout failures are not surfaced")
}

func TestManager_RefreshToken(t *testing.T) {
	refreshed := func(token string) func(models.Slot, string) (models.Identity, error) {
		return func(slot models.Slot, _ string) (models.Identity, error) {
			user := customer
			if slot == models.SlotAdmin {
				user = admin
				user.FirstName = "Refreshed"
			}
			return models.Identity{Token: token, User: user}, nil
		}
	}

	t.Run("admin has priority", func(t *testing.T) {
		e := newEnv(t)
		e.persist(t, models.SlotCustomer, "c.c.c", customer)
		e.persist(t, models.SlotAdmin, "a.a.a", admin)
		e.manager.Initialize()
		e.commerce.refresh = refreshed("a.a.new")

		err := e.manager.RefreshToken(t.Context())

		require.NoError(t, err)
		token, _ := e.manager.AdminToken()
		require.Equal(t, "a.a.new", token)
		got, _ := e.manager.Admin()
		require.Equal(t, "Refreshed", got.FirstName)
		token, _ = e.manager.AuthToken()
		require.Equal(t, "c.c.c", token, "customer slot is not refreshed")
	})

	t.Run("customer when no admin", func(t *testing.T) {
		e := newEnv(t)
		e.persist(t, models.SlotCustomer, "c.c.c", customer)
		e.manager.Initialize()
		e.commerce.refresh = refreshed("c.c.new")

		require.NoError(t, e.manager.RefreshToken(t.Context()))

		token, _ := e.manager.AuthToken()
		require.Equal(t, "c.c.new", token)
	})

	t.Run("failure leaves state", func(t *testing.T) {
		e := newEnv(t)
		e.persist(t, models.SlotCustomer, "c.c.c", customer)
		e.manager.Initialize()

		err := e.manager.RefreshToken(t.Context())

		requireAuthError(t, err, KindRejected, "Token expired")
		token, ok := e.manager.AuthToken()
		require.True(t, ok)
		require.Equal(t, "c.c.c", token)
		require.True(t, e.manager.IsLoggedIn())
	})

	t.Run("nobody logged in", func(t *testing.T) {
		e := newEnv(t)

		err := e.manager.RefreshToken(t.Context())

		require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
		require.Zero(t, e.commerce.RefreshCalls())
	})
}

func TestManager_HasPermission(t *testing.T) {
	e := newEnv(t)
	e.manager.Initialize()

	require.False(t, e.manager.HasPermission("products:write"), "no admin no permissions")

	_, err := e.manager.LoginAdmin(t.Context(), "ops@example.com", "correct")
	require.NoError(t, err)
	assert.True(t, e.manager.HasPermission("products:write"))
	assert.False(t, e.manager.HasPermission("orders:write"))

	_, err = e.manager.LoginCustomer(t.Context(), "jane@example.com", "correct")
	require.NoError(t, err)
	e.manager.LogoutAdmin(t.Context())
	assert.False(t, e.manager.HasPermission("products:write"), "customer has no admin permissions")

	super := admin
	super.Role = models.RoleSuperAdmin
	super.Permissions = nil
	e.commerce.login = func(models.Slot, string, string) (models.Identity, error) {
		return models.Identity{Token: "s.s.s", User: super}, nil
	}
	_, err = e.manager.LoginAdmin(t.Context(), "root@example.com", "correct")
	require.NoError(t, err)
	assert.True(t, e.manager.HasPermission("anything:at-all"))
}

func TestManager_AccountFlows(t *testing.T) {
	t.Run("register", func(t *testing.T) {
		e := newEnv(t)

		res, err := e.manager.RegisterCustomer(t.Context(), models.Registration{Email: "jane@example.com", Password: "password1"})

		require.NoError(t, err)
		require.Equal(t, "Registration successful!", res.Message)
		require.Equal(t, "http://app/confirm?token=x", res.ConfirmationURL)
	})

	t.Run("register network failure", func(t *testing.T) {
		e := newEnv(t)
		e.storefront.err = remote.NewError(remote.CodeNetwork, 0, "", errors.New("refused"))

		_, err := e.manager.RegisterCustomer(t.Context(), models.Registration{Email: "jane@example.com"})

		requireAuthError(t, err, KindNetwork, NetworkErrorMessage)
		require.Equal(t, NetworkErrorMessage, e.manager.LastError().Message)

		e.manager.ClearError()
		require.Nil(t, e.manager.LastError())
	})

	t.Run("register rejected", func(t *testing.T) {
		e := newEnv(t)
		e.storefront.err = remote.NewError(remote.CodeRejected, http.StatusConflict, "Email already registered", nil)

		_, err := e.manager.RegisterCustomer(t.Context(), models.Registration{Email: "jane@example.com"})

		requireAuthError(t, err, KindRejected, "Email already registered")
	})

	t.Run("confirm and forgot", func(t *testing.T) {
		e := newEnv(t)

		msg, err := e.manager.ConfirmEmail(t.Context(), "abc")
		require.NoError(t, err)
		require.Equal(t, "Email confirmed successfully! You can now log in.", msg)

		msg, err = e.manager.ForgotPassword(t.Context(), "jane@example.com")
		require.NoError(t, err)
		require.Contains(t, msg, "If an account with that email exists")

		_, err = e.manager.ConfirmEmail(t.Context(), "")
		requireAuthError(t, err, KindInvalid, "Confirmation token is required")
	})

	t.Run("reset password mismatch is local", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.manager.ResetPassword(t.Context(), "abc", "password1", "password2")

		requireAuthError(t, err, KindInvalid, "Passwords do not match")
		require.Zero(t, e.storefront.calls)

		msg, err := e.manager.ResetPassword(t.Context(), "abc", "password1", "password1")
		require.NoError(t, err)
		require.Equal(t, "Password reset successfully!", msg)
	})
}

func TestManager_Profile(t *testing.T) {
	t.Run("requires customer", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.manager.LoginAdmin(t.Context(), "ops@example.com", "correct")
		require.NoError(t, err)

		_, err = e.manager.Profile(t.Context())
		requireAuthError(t, err, KindInvalid, "Not logged in")
		require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

		_, err = e.manager.UpdateProfile(t.Context(), models.ProfileUpdate{FirstName: "Janet", LastName: "Doe"})
		require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

		_, err = e.manager.ChangePassword(t.Context(), models.PasswordChange{CurrentPassword: "a", NewPassword: "b", ConfirmPassword: "b"})
		require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

		require.Zero(t, e.storefront.calls)
	})

	t.Run("fetch refreshes stored user", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.manager.LoginCustomer(t.Context(), "jane@example.com", "correct")
		require.NoError(t, err)
		token, _ := e.manager.AuthToken()

		user, err := e.manager.Profile(t.Context())

		require.NoError(t, err)
		require.Equal(t, token, e.storefront.lastToken)
		require.Equal(t, "+41 79 123 45 67", user.Phone)
		stored, _ := e.manager.Customer()
		require.Equal(t, user, stored)

		raw, ok := e.storage.Get(storage.UserKey(models.SlotCustomer))
		require.True(t, ok)
		require.Contains(t, raw, "+41 79 123 45 67")
	})

	t.Run("update keeps token", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.manager.LoginCustomer(t.Context(), "jane@example.com", "correct")
		require.NoError(t, err)
		token, _ := e.manager.AuthToken()

		user, err := e.manager.UpdateProfile(t.Context(), models.ProfileUpdate{FirstName: "Janet", LastName: "Doe"})

		require.NoError(t, err)
		require.Equal(t, "Janet", user.FirstName)
		stored, _ := e.manager.Customer()
		require.Equal(t, "Janet", stored.FirstName)
		after, _ := e.manager.AuthToken()
		require.Equal(t, token, after)
	})

	t.Run("update requires names", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.manager.LoginCustomer(t.Context(), "jane@example.com", "correct")
		require.NoError(t, err)

		_, err = e.manager.UpdateProfile(t.Context(), models.ProfileUpdate{FirstName: "Janet"})

		requireAuthError(t, err, KindInvalid, "First name and last name are required")
		require.Zero(t, e.storefront.calls)
	})

	t.Run("rejected update keeps stored user", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.manager.LoginCustomer(t.Context(), "jane@example.com", "correct")
		require.NoError(t, err)
		e.storefront.err = remote.NewError(remote.CodeRejected, http.StatusBadRequest, "Invalid phone number format", nil)

		_, err = e.manager.UpdateProfile(t.Context(), models.ProfileUpdate{FirstName: "Janet", LastName: "Doe", Phone: "1"})

		requireAuthError(t, err, KindRejected, "Invalid phone number format")
		stored, _ := e.manager.Customer()
		require.Equal(t, customer, stored)
	})

	t.Run("change password", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.manager.LoginCustomer(t.Context(), "jane@example.com", "correct")
		require.NoError(t, err)

		_, err = e.manager.ChangePassword(t.Context(), models.PasswordChange{CurrentPassword: "old", NewPassword: "new-password", ConfirmPassword: "other"})
		requireAuthError(t, err, KindInvalid, "New passwords do not match")

		_, err = e.manager.ChangePassword(t.Context(), models.PasswordChange{NewPassword: "new-password", ConfirmPassword: "new-password"})
		requireAuthError(t, err, KindInvalid, "Current password, new password, and confirmation are required")
		require.Zero(t, e.storefront.calls)

		change := models.PasswordChange{CurrentPassword: "old", NewPassword: "new-password", ConfirmPassword: "new-password"}
		msg, err := e.manager.ChangePassword(t.Context(), change)

		require.NoError(t, err)
		require.Equal(t, "Password updated successfully!", msg)
		require.Equal(t, change, e.storefront.lastChange)
		require.True(t, e.manager.IsLoggedIn())
	})
}

func TestManager_TrackActivity(t *testing.T) {
	e := newEnv(t)
	e.manager.Initialize()

	require.False(t, e.manager.TrackActivity("mousedown"), "nobody to stamp")

	_, err := e.manager.LoginCustomer(t.Context(), "jane@example.com", "correct")
	require.NoError(t, err)

	require.False(t, e.manager.TrackActivity("resize"), "not an activity event")

	e.clock.Advance(time.Minute)
	require.True(t, e.manager.TrackActivity("keypress"))

	got, _ := e.manager.Customer()
	require.NotNil(t, got.LastActivity)
	require.Equal(t, e.clock.Now(), *got.LastActivity)

	raw, _ := e.storage.Get(storage.KeyCustomerUser)
	var stored models.User
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.NotNil(t, stored.LastActivity, "stamp must be persisted")
	require.True(t, e.clock.Now().Equal(*stored.LastActivity))
}
