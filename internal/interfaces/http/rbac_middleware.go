package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/picking-api/internal/application/dto"
	"github.com/jhoicas/picking-api/internal/domain"
)

// RequireRole middleware que exige al menos el rol indicado (jerarquía
// operator < supervisor < admin). Debe usarse DESPUÉS de AuthMiddleware.
func RequireRole(minRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "rol no encontrado en el token",
			})
		}
		if !domain.RoleAtLeast(role, minRole) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "rol insuficiente para esta operación",
			})
		}
		return c.Next()
	}
}
