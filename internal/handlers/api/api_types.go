package api

import (
	"context"

	"github.com/khanghh/ktoken/internal/audit"
	"github.com/khanghh/ktoken/model"
)

type TokenService interface {
	CreateToken(ctx context.Context, userID string, scopes []string, expiresInMinutes int) (*model.Token, error)
	GetActiveTokensByUserID(ctx context.Context, userID string) ([]*model.Token, error)
}

type AuditRecorder interface {
	RecordTokenIssued(ctx context.Context, record audit.TokenIssuedRecord) error
}

type CreateTokenRequest struct {
	UserID           string   `json:"userId"`
	Scopes           []string `json:"scopes"`
	ExpiresInMinutes int      `json:"expiresInMinutes"`
}

type ListTokensResponse struct {
	Tokens []*model.Token `json:"tokens"`
}
