package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/g-but/fitfoot/internal/apperrors"
)

// Signature is not checked here: the token is only inspected to schedule refresh
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// tokenExpiry reads "exp" from the payload of a three segment bearer token.
// Returns ErrTokenMalformed or ErrTokenNoExpiry when there is nothing to schedule on,
// any other error means the payload itself is garbage.
func tokenExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, apperrors.ErrTokenMalformed
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("token payload is not base64url: %w", err)
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("token payload is not JSON object: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("token exp claim: %w", err)
	}
	if exp == nil || exp.IsZero() || exp.Unix() == 0 {
		return time.Time{}, apperrors.ErrTokenNoExpiry
	}

	return exp.Time, nil
}
