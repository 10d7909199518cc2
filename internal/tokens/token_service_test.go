package tokens

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/khanghh/ktoken/internal/apperr"
	"github.com/khanghh/ktoken/model"
	"github.com/khanghh/ktoken/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenIDPattern     = regexp.MustCompile(`^token_[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	tokenSecretPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// mockTokenRepository records calls and returns configured results. When no
// result is configured Create passes the token through unchanged.
type mockTokenRepository struct {
	mu         sync.Mutex
	created    []*model.Token
	lookups    []string
	createFunc func(*model.Token) (*model.Token, error)
	activeRes  []*model.Token
	activeErr  error
}

func (m *mockTokenRepository) Create(ctx context.Context, token *model.Token) (*model.Token, error) {
	m.mu.Lock()
	m.created = append(m.created, token)
	m.mu.Unlock()
	if m.createFunc != nil {
		return m.createFunc(token)
	}
	return token, nil
}

func (m *mockTokenRepository) FindActiveByUserID(ctx context.Context, userID string) ([]*model.Token, error) {
	m.mu.Lock()
	m.lookups = append(m.lookups, userID)
	m.mu.Unlock()
	if m.activeErr != nil {
		return nil, m.activeErr
	}
	if m.activeRes == nil {
		return []*model.Token{}, nil
	}
	return m.activeRes, nil
}

func TestCreateToken(t *testing.T) {
	repo := &mockTokenRepository{}
	svc := NewTokenService(repo)

	before := time.Now().Truncate(time.Millisecond)
	token, err := svc.CreateToken(context.Background(), "user123", []string{"read", "write"}, 60)
	after := time.Now()
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Same(t, repo.created[0], token)
	assert.Equal(t, "user123", token.UserID)
	assert.Equal(t, []string{"read", "write"}, token.Scopes)
	assert.Regexp(t, tokenIDPattern, token.ID)
	assert.Regexp(t, tokenSecretPattern, token.Token)
	assert.False(t, token.CreatedAt.Before(before))
	assert.False(t, token.CreatedAt.After(after))
	assert.Equal(t, time.UTC, token.CreatedAt.Location())
	assert.Equal(t, int64(60*60000), token.ExpiresAt.Sub(token.CreatedAt).Milliseconds())
}

func TestCreateTokenExpiry(t *testing.T) {
	now := time.Date(2025, 1, 31, 23, 59, 59, 999_999_999, time.UTC)
	svc := NewTokenService(&mockTokenRepository{}, WithClock(func() time.Time { return now }))

	for _, minutes := range []int{1, 30, 60, 1440, 525600} {
		token, err := svc.CreateToken(context.Background(), "user123", []string{"read"}, minutes)
		require.NoError(t, err)
		assert.Equal(t, now.Truncate(time.Millisecond), token.CreatedAt)
		assert.Equal(t, int64(minutes)*60000, token.ExpiresAt.Sub(token.CreatedAt).Milliseconds(), "minutes=%d", minutes)
		assert.True(t, token.ExpiresAt.After(token.CreatedAt))
	}
}

func TestCreateTokenUsesRandReader(t *testing.T) {
	seed := bytes.Repeat([]byte{0xab}, 64)
	svc := NewTokenService(&mockTokenRepository{}, WithRandReader(bytes.NewReader(seed)))

	token, err := svc.CreateToken(context.Background(), "user123", []string{"read"}, 5)
	require.NoError(t, err)
	assert.Equal(t, string(bytes.Repeat([]byte("ab"), 32)), token.Token)
	assert.Regexp(t, tokenIDPattern, token.ID)
}

func TestCreateTokenRandFailure(t *testing.T) {
	repo := &mockTokenRepository{}
	svc := NewTokenService(repo, WithRandReader(bytes.NewReader(nil)))

	_, err := svc.CreateToken(context.Background(), "user123", []string{"read"}, 5)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Empty(t, repo.created)
}

func TestCreateTokenUnique(t *testing.T) {
	svc := NewTokenService(&mockTokenRepository{})

	first, err := svc.CreateToken(context.Background(), "user123", []string{"read"}, 30)
	require.NoError(t, err)
	second, err := svc.CreateToken(context.Background(), "user123", []string{"read"}, 30)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestCreateTokenCopiesScopes(t *testing.T) {
	svc := NewTokenService(&mockTokenRepository{})
	scopes := []string{"read", "write"}

	token, err := svc.CreateToken(context.Background(), "user123", scopes, 30)
	require.NoError(t, err)
	scopes[0] = "delete"
	assert.Equal(t, []string{"read", "write"}, token.Scopes)
}

func TestCreateTokenReturnsRepositoryResult(t *testing.T) {
	stored := &model.Token{ID: "token_stored", UserID: "user123", Scopes: []string{"read"}, Token: "abc123"}
	repo := &mockTokenRepository{
		createFunc: func(*model.Token) (*model.Token, error) { return stored, nil },
	}
	svc := NewTokenService(repo)

	token, err := svc.CreateToken(context.Background(), "user123", []string{"read"}, 60)
	require.NoError(t, err)
	assert.Same(t, stored, token)
}

func TestCreateTokenRepositoryError(t *testing.T) {
	storageErr := apperr.Internal("failed to create token", errors.New("disk full"))
	repo := &mockTokenRepository{
		createFunc: func(*model.Token) (*model.Token, error) { return nil, storageErr },
	}
	svc := NewTokenService(repo)

	token, err := svc.CreateToken(context.Background(), "user123", []string{"read"}, 60)
	assert.Nil(t, token)
	assert.Same(t, storageErr, err)
	assert.Len(t, repo.created, 1)
}

func TestCreateTokenValidation(t *testing.T) {
	tests := []struct {
		name             string
		userID           string
		scopes           []string
		expiresInMinutes int
		wantErr          error
		wantMsg          string
	}{
		{"empty userId", "", []string{"read"}, 60, ErrUserIDRequired, "userId is required"},
		{"empty scopes", "user123", []string{}, 60, ErrScopesEmpty, "scopes must be a non-empty array"},
		{"nil scopes", "user123", nil, 60, ErrScopesEmpty, "scopes must be a non-empty array"},
		{"zero expiry", "user123", []string{"read"}, 0, ErrExpiresInNotPositive, "expiresInMinutes must be a positive integer"},
		{"negative expiry", "user123", []string{"read"}, -10, ErrExpiresInNotPositive, "expiresInMinutes must be a positive integer"},
		{"expiry over ceiling", "user123", []string{"read"}, 52560001, ErrExpiresInTooLarge, "expiresInMinutes must not exceed 52560000"},
		{"expiry overflowing duration", "user123", []string{"read"}, 200_000_000, ErrExpiresInTooLarge, "expiresInMinutes must not exceed 52560000"},
		{"unknown scope", "user123", []string{"read", "admin"}, 60, ErrScopeUnknown, "scopes must only contain read, write or delete"},
		{"userId checked first", "", nil, 0, ErrUserIDRequired, "userId is required"},
		{"scopes checked before expiry", "user123", nil, 0, ErrScopesEmpty, "scopes must be a non-empty array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockTokenRepository{}
			svc := NewTokenService(repo)

			token, err := svc.CreateToken(context.Background(), tt.userID, tt.scopes, tt.expiresInMinutes)
			assert.Nil(t, token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
			assert.Empty(t, repo.created)
		})
	}
}

func TestCreateTokenMaxLifetime(t *testing.T) {
	now := time.Date(2026, 10, 19, 11, 9, 37, 469000000, time.UTC)
	svc := NewTokenService(&mockTokenRepository{}, WithClock(func() time.Time { return now }))

	token, err := svc.CreateToken(context.Background(), "user123", []string{"read"}, params.MaxTokenLifetime)
	require.NoError(t, err)
	assert.True(t, token.ExpiresAt.After(token.CreatedAt))
	assert.Equal(t, int64(params.MaxTokenLifetime)*60000, token.ExpiresAt.Sub(token.CreatedAt).Milliseconds())
	assert.Less(t, token.ExpiresAt.Year(), 10000)
}

func TestNewTokenServiceNilRepository(t *testing.T) {
	assert.PanicsWithValue(t, "tokens: NewTokenService called with a nil TokenRepository", func() {
		NewTokenService(nil)
	})
}

func TestGetActiveTokensByUserID(t *testing.T) {
	now := time.Now().UTC()
	active := []*model.Token{
		{ID: "token_1", UserID: "user123", Scopes: []string{"read"}, CreatedAt: now, ExpiresAt: now.Add(time.Hour), Token: "abc123"},
		{ID: "token_2", UserID: "user123", Scopes: []string{"write"}, CreatedAt: now, ExpiresAt: now.Add(2 * time.Hour), Token: "def456"},
	}
	repo := &mockTokenRepository{activeRes: active}
	svc := NewTokenService(repo)

	tokens, err := svc.GetActiveTokensByUserID(context.Background(), "user123")
	require.NoError(t, err)
	assert.Equal(t, active, tokens)
	assert.Equal(t, []string{"user123"}, repo.lookups)
}

func TestGetActiveTokensByUserIDEmpty(t *testing.T) {
	svc := NewTokenService(&mockTokenRepository{})

	tokens, err := svc.GetActiveTokensByUserID(context.Background(), "user123")
	require.NoError(t, err)
	assert.NotNil(t, tokens)
	assert.Empty(t, tokens)
}

func TestGetActiveTokensByUserIDPassesUntrimmed(t *testing.T) {
	repo := &mockTokenRepository{}
	svc := NewTokenService(repo)

	_, err := svc.GetActiveTokensByUserID(context.Background(), "  user123 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"  user123 "}, repo.lookups)
}

func TestGetActiveTokensByUserIDValidation(t *testing.T) {
	for _, userID := range []string{"", " ", "   ", "\t\n"} {
		repo := &mockTokenRepository{}
		svc := NewTokenService(repo)

		tokens, err := svc.GetActiveTokensByUserID(context.Background(), userID)
		assert.Nil(t, tokens)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUserIDBlank)
		assert.Equal(t, "userId is required and must be a non-empty string", err.Error())
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
		assert.Empty(t, repo.lookups)
	}
}

func TestGetActiveTokensByUserIDRepositoryError(t *testing.T) {
	storageErr := apperr.Internal("failed to find tokens", errors.New("connection reset"))
	svc := NewTokenService(&mockTokenRepository{activeErr: storageErr})

	tokens, err := svc.GetActiveTokensByUserID(context.Background(), "user123")
	assert.Nil(t, tokens)
	assert.Same(t, storageErr, err)
}
