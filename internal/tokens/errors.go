package tokens

import (
	"fmt"

	"github.com/khanghh/ktoken/internal/apperr"
	"github.com/khanghh/ktoken/params"
)

var (
	ErrUserIDRequired       = apperr.InvalidArgument("userId is required")
	ErrScopesEmpty          = apperr.InvalidArgument("scopes must be a non-empty array")
	ErrExpiresInNotPositive = apperr.InvalidArgument("expiresInMinutes must be a positive integer")
	ErrExpiresInTooLarge    = apperr.InvalidArgument(fmt.Sprintf("expiresInMinutes must not exceed %d", params.MaxTokenLifetime))
	ErrScopeUnknown         = apperr.InvalidArgument("scopes must only contain read, write or delete")
	ErrUserIDBlank          = apperr.InvalidArgument("userId is required and must be a non-empty string")
)

const (
	msgCreateTokenFailed   = "failed to create token"
	msgFindTokensFailed    = "failed to find tokens"
	msgGenerateTokenFailed = "failed to generate token"
)
