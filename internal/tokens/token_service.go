package tokens

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/khanghh/ktoken/internal/apperr"
	"github.com/khanghh/ktoken/internal/common"
	"github.com/khanghh/ktoken/model"
	"github.com/khanghh/ktoken/params"
)

type TokenService struct {
	tokenRepo  TokenRepository
	now        func() time.Time
	randReader io.Reader
}

type Option func(*TokenService)

// WithClock overrides the source of the issuance time.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// WithRandReader overrides the source of token secret material.
func WithRandReader(r io.Reader) Option {
	return func(s *TokenService) {
		s.randReader = r
	}
}

func validateCreateParams(userID string, scopes []string, expiresInMinutes int) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	if len(scopes) == 0 {
		return ErrScopesEmpty
	}
	if expiresInMinutes <= 0 {
		return ErrExpiresInNotPositive
	}
	if expiresInMinutes > params.MaxTokenLifetime {
		return ErrExpiresInTooLarge
	}
	for _, scope := range scopes {
		if !model.IsValidScope(scope) {
			return ErrScopeUnknown
		}
	}
	return nil
}

// CreateToken issues a new token for userID and persists it. The returned
// record is the one handed back by the repository.
func (s *TokenService) CreateToken(ctx context.Context, userID string, scopes []string, expiresInMinutes int) (*model.Token, error) {
	if err := validateCreateParams(userID, scopes, expiresInMinutes); err != nil {
		return nil, err
	}

	secret, err := common.RandomHex(s.randReader, params.TokenSecretBytes)
	if err != nil {
		return nil, apperr.Internal(msgGenerateTokenFailed, err)
	}
	tokenUUID, err := uuid.NewRandomFromReader(s.randReader)
	if err != nil {
		return nil, apperr.Internal(msgGenerateTokenFailed, err)
	}

	createdAt := s.now().UTC().Truncate(time.Millisecond)
	token := &model.Token{
		ID:        params.TokenIDPrefix + tokenUUID.String(),
		UserID:    userID,
		Scopes:    append([]string(nil), scopes...),
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(time.Duration(expiresInMinutes) * time.Minute),
		Token:     secret,
	}
	return s.tokenRepo.Create(ctx, token)
}

// GetActiveTokensByUserID returns the tokens of userID that have not expired.
// userID is passed to the repository as given, blank values are rejected.
func (s *TokenService) GetActiveTokensByUserID(ctx context.Context, userID string) ([]*model.Token, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDBlank
	}
	return s.tokenRepo.FindActiveByUserID(ctx, userID)
}

func NewTokenService(tokenRepo TokenRepository, opts ...Option) *TokenService {
	if tokenRepo == nil {
		panic("tokens: NewTokenService called with a nil TokenRepository")
	}
	s := &TokenService{
		tokenRepo:  tokenRepo,
		now:        time.Now,
		randReader: rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
