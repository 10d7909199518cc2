package tokens

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/khanghh/ktoken/internal/store"
	"github.com/khanghh/ktoken/model"
)

// CachedTokenRepository caches active token lookups per user in a Store.
// The wrapped repository stays authoritative: cache failures are logged and
// the call falls through, and cached lists are re-filtered on every read so an
// expired token is never returned.
type CachedTokenRepository struct {
	repo  TokenRepository
	cache store.Store[[]*model.Token]
	ttl   time.Duration
	now   func() time.Time
}

func (r *CachedTokenRepository) Create(ctx context.Context, token *model.Token) (*model.Token, error) {
	created, err := r.repo.Create(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Delete(created.UserID); err != nil {
		slog.Warn("Failed to invalidate cached tokens", "userID", created.UserID, "error", err)
	}
	return created, nil
}

func (r *CachedTokenRepository) FindActiveByUserID(ctx context.Context, userID string) ([]*model.Token, error) {
	cached, err := r.cache.Get(userID)
	if err == nil {
		return filterActive(cached, r.now()), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		slog.Warn("Failed to read cached tokens", "userID", userID, "error", err)
	}

	tokens, err := r.repo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(userID, tokens, r.ttl); err != nil {
		slog.Warn("Failed to cache tokens", "userID", userID, "error", err)
	}
	return tokens, nil
}

func filterActive(tokens []*model.Token, now time.Time) []*model.Token {
	active := make([]*model.Token, 0, len(tokens))
	for _, token := range tokens {
		if token.IsActive(now) {
			active = append(active, token)
		}
	}
	return active
}

func NewCachedTokenRepository(repo TokenRepository, cache store.Store[[]*model.Token], ttl time.Duration) *CachedTokenRepository {
	return &CachedTokenRepository{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}
