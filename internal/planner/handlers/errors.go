package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"secureplan/internal/planner/ai"
	"secureplan/internal/planner/archive"
	"secureplan/internal/planner/repository"
	"secureplan/internal/planner/service"
	"secureplan/internal/planner/snapshot"

	"github.com/gofiber/fiber/v3"
	"github.com/mdobak/go-xerrors"
)

// ============================================================
// Error mapping
// ============================================================

type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, snapshot.ErrInvalidImage),
		errors.Is(err, archive.ErrMalformedImport):
		return http.StatusBadRequest
	case errors.Is(err, ai.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, repository.ErrStorageFull):
		return http.StatusInsufficientStorage
	}
	return http.StatusInternalServerError
}

func writeError(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"error", xerrors.New(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// writeSessionError добавляет к ошибке текущее состояние сессии, чтобы
// клиент показал сообщение модели об ошибке.
func writeSessionError(c fiber.Ctx, err error, view service.View) error {
	if view.ID == "" {
		return writeError(c, err)
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Warn("AI request failed", "session", view.ID, "status", status, "error", xerrors.New(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "session": view})
}
