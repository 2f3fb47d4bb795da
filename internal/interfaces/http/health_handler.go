package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck verifica una dependencia (BD, Redis). Nil se omite.
type HealthCheck func(ctx context.Context) error

// Health responde 200 si todas las dependencias responden, 503 si alguna falla.
// No expone credenciales ni detalles internos.
func Health(checks map[string]HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		status := fiber.StatusOK
		body := fiber.Map{}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				body[name] = "error"
				status = fiber.StatusServiceUnavailable
				continue
			}
			body[name] = "connected"
		}
		body["ok"] = status == fiber.StatusOK
		return c.Status(status).JSON(body)
	}
}
