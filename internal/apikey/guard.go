package apikey

import (
	"crypto/subtle"

	"github.com/khanghh/ktoken/internal/apperr"
)

var (
	ErrAPIKeyRequired = apperr.Unauthenticated("API key is required. Please provide X-API-Key header.")
	ErrAPIKeyInvalid  = apperr.Unauthenticated("Invalid API key")
)

// Guard checks a presented shared secret against the configured API key.
type Guard struct {
	expectedKey []byte
}

func (g *Guard) Validate(presentedKey string) error {
	if presentedKey == "" {
		return ErrAPIKeyRequired
	}
	if subtle.ConstantTimeCompare([]byte(presentedKey), g.expectedKey) != 1 {
		return ErrAPIKeyInvalid
	}
	return nil
}

func NewGuard(expectedKey string) *Guard {
	return &Guard{
		expectedKey: []byte(expectedKey),
	}
}
