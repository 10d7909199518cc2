package middlewares

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/ktoken/internal/apperr"
)

type ErrorResponse struct {
	Code    apperr.Kind `json:"code"`
	Message string      `json:"message"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindInvalidArgument: fiber.StatusBadRequest,
	apperr.KindUnauthenticated: fiber.StatusUnauthorized,
	apperr.KindNotFound:        fiber.StatusNotFound,
	apperr.KindInternal:        fiber.StatusInternalServerError,
}

func statusKind(code int) apperr.Kind {
	switch {
	case code == fiber.StatusUnauthorized:
		return apperr.KindUnauthenticated
	case code == fiber.StatusNotFound || code == fiber.StatusMethodNotAllowed:
		return apperr.KindNotFound
	case code >= 400 && code < 500:
		return apperr.KindInvalidArgument
	default:
		return apperr.KindInternal
	}
}

// ErrorHandler renders errors as JSON. Messages of internal errors are sent
// as is, their wrapped causes are only logged.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var (
		appErr   *apperr.Error
		fiberErr *fiber.Error
	)
	switch {
	case errors.As(err, &appErr):
		code, ok := kindStatus[appErr.Kind]
		if !ok {
			code = fiber.StatusInternalServerError
		}
		if code == fiber.StatusInternalServerError {
			slog.Error("Request failed", "method", ctx.Method(), "path", ctx.Path(), "error", err, "cause", appErr.Err)
		}
		return ctx.Status(code).JSON(ErrorResponse{Code: appErr.Kind, Message: appErr.Message})
	case errors.As(err, &fiberErr):
		kind := statusKind(fiberErr.Code)
		if kind == apperr.KindInternal {
			slog.Error("Request failed", "method", ctx.Method(), "path", ctx.Path(), "code", fiberErr.Code, "error", err)
		}
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse{Code: kind, Message: fiberErr.Message})
	default:
		slog.Error("Unhandled error", "method", ctx.Method(), "path", ctx.Path(), "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Code:    apperr.KindInternal,
			Message: "Internal server error",
		})
	}
}
