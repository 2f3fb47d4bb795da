package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sedes/pkg/jwt"
)

// LocalUserID clave en c.Locals del actor autenticado.
const LocalUserID = "user_id"

// AuthMiddleware valida el Bearer Token JWT y deja el actor en c.Locals.
// Los permisos por sede no se resuelven aquí: cada caso de uso recibe el actorID explícito.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return respondCode(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return respondCode(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "formato: Bearer <token>")
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return respondCode(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "token vacío")
		}
		userID, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return respondCode(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "")
		}
		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}

// GetUserID devuelve el actor del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
