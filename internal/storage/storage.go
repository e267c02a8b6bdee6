// Package storage keeps the client side session state: two token/user pairs under fixed string keys.
package storage

import (
	"github.com/g-but/fitfoot/internal/models"
)

const (
	KeyCustomerToken = "customer_token"
	KeyCustomerUser  = "customer_user"
	KeyAdminToken    = "admin_token"
	KeyAdminUser     = "admin_user"
)

// Storage is a string key/value store that survives restarts of the client
// Get must never fail: an unreadable value is reported as missing
type Storage interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Remove(key string) error
}

// TokenKey returns the key holding the slot's bearer token
func TokenKey(slot models.Slot) string {
	if slot == models.SlotAdmin {
		return KeyAdminToken
	}
	return KeyCustomerToken
}

// UserKey returns the key holding the slot's JSON encoded user
func UserKey(slot models.Slot) string {
	if slot == models.SlotAdmin {
		return KeyAdminUser
	}
	return KeyCustomerUser
}
