package apikey

import (
	"testing"

	"github.com/khanghh/ktoken/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardValidate(t *testing.T) {
	guard := NewGuard("dev-api-key-12345")

	tests := []struct {
		name    string
		key     string
		wantErr error
		wantMsg string
	}{
		{"valid key", "dev-api-key-12345", nil, ""},
		{"missing key", "", ErrAPIKeyRequired, "API key is required. Please provide X-API-Key header."},
		{"invalid key", "invalid-key", ErrAPIKeyInvalid, "Invalid API key"},
		{"wrong key", "wrong-api-key-54321", ErrAPIKeyInvalid, "Invalid API key"},
		{"prefix of key", "dev-api-key", ErrAPIKeyInvalid, "Invalid API key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Validate(tt.key)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
		})
	}
}

func TestGuardUsesConfiguredKey(t *testing.T) {
	guard := NewGuard("another-key")
	assert.NoError(t, guard.Validate("another-key"))
	assert.ErrorIs(t, guard.Validate("dev-api-key-12345"), ErrAPIKeyInvalid)
}
