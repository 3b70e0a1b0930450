package httpx

import (
	"fmt"

	"github.com/Dylan-Floyd/effe81/internal/apperr"
	"github.com/gofiber/fiber/v2"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	if v := c.Locals("requestid"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func Error(c *fiber.Ctx, status int, code string, message string) error {
	if message == "" {
		message = "Request failed"
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID(c),
	})
}

func BadRequest(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

func Unauthorized(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusUnauthorized, code, message)
}

func Forbidden(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusForbidden, code, message)
}

func NotFound(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusNotFound, code, message)
}

func Conflict(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusConflict, code, message)
}

func Internal(c *fiber.Ctx, code string) error {
	return Error(c, fiber.StatusInternalServerError, code, "Internal server error")
}

// FromError maps a service-layer error onto the HTTP surface using its
// apperr code. Unknown errors surface as a generic internal error so
// persistence faults never leak details.
func FromError(c *fiber.Ctx, err error) error {
	switch apperr.CodeOf(err) {
	case apperr.CodeUnauthenticated:
		return Unauthorized(c, "unauthenticated", err.Error())
	case apperr.CodeNotFound:
		return NotFound(c, "not_found", err.Error())
	case apperr.CodeForbidden:
		return Forbidden(c, "forbidden", err.Error())
	case apperr.CodeConflict:
		return Conflict(c, "conflict", err.Error())
	case apperr.CodeInvalidArgument:
		return BadRequest(c, "invalid_argument", err.Error())
	default:
		return Internal(c, "internal_error")
	}
}

func LocalUint(c *fiber.Ctx, key string) (uint, error) {
	v := c.Locals(key)
	if v == nil {
		return 0, fmt.Errorf("missing local %s", key)
	}
	u, ok := v.(uint)
	if !ok {
		return 0, fmt.Errorf("invalid local %s", key)
	}
	return u, nil
}
