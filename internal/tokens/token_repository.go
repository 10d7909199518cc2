package tokens

import (
	"context"
	"log/slog"
	"time"

	"github.com/khanghh/ktoken/internal/apperr"
	"github.com/khanghh/ktoken/model"
	"gorm.io/gorm"
)

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) (*model.Token, error)
	FindActiveByUserID(ctx context.Context, userID string) ([]*model.Token, error)
}

type tokenRepository struct {
	db *gorm.DB
}

func (r *tokenRepository) Create(ctx context.Context, token *model.Token) (*model.Token, error) {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create token", "tokenID", token.ID, "userID", token.UserID, "error", err)
		return nil, apperr.Internal(msgCreateTokenFailed, err)
	}
	return token, nil
}

func (r *tokenRepository) FindActiveByUserID(ctx context.Context, userID string) ([]*model.Token, error) {
	tokens := make([]*model.Token, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, time.Now().UTC()).
		Order("created_at").
		Find(&tokens).Error
	if err != nil {
		slog.Error("Failed to find tokens", "userID", userID, "error", err)
		return nil, apperr.Internal(msgFindTokensFailed, err)
	}
	return tokens, nil
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}
