package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/mdobak/go-xerrors"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Check проверка зависимости (БД, соседний сервис).
type Check func(ctx context.Context) error

const checkTimeout = 2 * time.Second

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe проверяет готовность приложения обрабатывать запросы
func ReadinessProbe(checks map[string]Check) fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), checkTimeout)
		defer cancel()

		failed := fiber.Map{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				slog.Warn("Readiness check failed", "check", name, "error", xerrors.New(err))
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"failed": failed,
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}

// Register вешает пробы на /health/*.
func Register(r fiber.Router, checks map[string]Check) {
	r.Get("/health/live", LivenessProbe)
	r.Get("/health/ready", ReadinessProbe(checks))
	r.Get("/health/startup", StartupProbe)
}
