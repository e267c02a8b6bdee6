package apperrors

import (
	"errors"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product already exists")

	ErrBulkInvalidAction     = errors.New("invalid bulk action")
	ErrBulkEmpty             = errors.New("bulk operation has no products")
	ErrBulkTooLarge          = errors.New("too many products in bulk operation")
	ErrBulkUpdateDataMissing = errors.New("update data required for update operation")

	ErrTokenMalformed = errors.New("token is not a three segment bearer token")
	ErrTokenNoExpiry  = errors.New("token has no expiration claim")

	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnauthorized     = errors.New("unauthorized")

	ErrStorageKeyInvalid = errors.New("storage key must not be empty")
)
