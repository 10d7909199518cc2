package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/ktoken/internal/apperr"
	"github.com/khanghh/ktoken/internal/audit"
	"github.com/khanghh/ktoken/internal/middlewares"
	"github.com/khanghh/ktoken/model"
)

var ErrInvalidRequestBody = apperr.InvalidArgument("invalid request body")

type TokenHandler struct {
	tokenService  TokenService
	auditRecorder AuditRecorder
}

func (h *TokenHandler) recordTokenIssued(ctx *fiber.Ctx, token *model.Token) {
	if h.auditRecorder == nil {
		return
	}
	requestID, _ := ctx.Locals("requestid").(string)
	err := h.auditRecorder.RecordTokenIssued(ctx.Context(), audit.TokenIssuedRecord{
		UserID:    token.UserID,
		TokenID:   token.ID,
		Scopes:    token.Scopes,
		ExpiresAt: token.ExpiresAt,
		RequestID: requestID,
		IP:        ctx.IP(),
		UserAgent: string(ctx.Request().Header.UserAgent()),
	})
	if err != nil {
		// the token is already persisted, the response must not fail
		slog.Warn("Token issued without audit record", "tokenID", token.ID, "error", err)
	}
}

func (h *TokenHandler) PostToken(ctx *fiber.Ctx) error {
	var req CreateTokenRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ErrInvalidRequestBody
	}

	token, err := h.tokenService.CreateToken(ctx.Context(), req.UserID, req.Scopes, req.ExpiresInMinutes)
	if err != nil {
		return err
	}
	h.recordTokenIssued(ctx, token)
	return ctx.Status(fiber.StatusOK).JSON(token)
}

func (h *TokenHandler) GetTokens(ctx *fiber.Ctx) error {
	tokens, err := h.tokenService.GetActiveTokensByUserID(ctx.Context(), ctx.Query("userId"))
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(ListTokensResponse{Tokens: tokens})
}

// NewTokenHandler creates the token endpoints. auditRecorder may be nil to
// disable the issuance trail.
func NewTokenHandler(tokenService TokenService, auditRecorder AuditRecorder) *TokenHandler {
	return &TokenHandler{
		tokenService:  tokenService,
		auditRecorder: auditRecorder,
	}
}

// SetupRoutes mounts the token endpoints under /api, guarded by the API key.
func SetupRoutes(router fiber.Router, apiKeyValidator middlewares.APIKeyValidator, tokenService TokenService, auditRecorder AuditRecorder) {
	tokenHandler := NewTokenHandler(tokenService, auditRecorder)

	api := router.Group("/api", middlewares.RequireAPIKey(apiKeyValidator))
	api.Post("/tokens", tokenHandler.PostToken)
	api.Get("/tokens", tokenHandler.GetTokens)
}
