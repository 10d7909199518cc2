package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/ktoken/params"
)

type APIKeyValidator interface {
	Validate(presentedKey string) error
}

// RequireAPIKey rejects requests whose X-API-Key header does not pass the
// validator before they reach any handler.
func RequireAPIKey(validator APIKeyValidator) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := validator.Validate(ctx.Get(params.APIKeyHeader)); err != nil {
			return err
		}
		return ctx.Next()
	}
}
