package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"secureplan/internal/planner/models"
	"secureplan/internal/planner/service"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Planner Handler
// ============================================================

type PlannerHandler struct {
	planner *service.Planner
}

func NewPlannerHandler(planner *service.Planner) *PlannerHandler {
	return &PlannerHandler{planner: planner}
}

// Mount регистрирует маршруты планировщика.
func (h *PlannerHandler) Mount(r fiber.Router) {
	r.Get("/catalog", h.GetCatalog)

	r.Post("/sessions", h.Upload)
	r.Post("/sessions/import", h.Import)
	r.Get("/sessions/:id", h.GetSession)
	r.Delete("/sessions/:id", h.CloseSession)
	r.Post("/sessions/:id/analyze", h.Analyze)
	r.Post("/sessions/:id/chat", h.Chat)
	r.Delete("/sessions/:id/placements/:placementId", h.RemovePlacement)
	r.Get("/sessions/:id/overlay.svg", h.OverlaySVG)
	r.Get("/sessions/:id/overlay", h.Overlay)
	r.Get("/sessions/:id/snapshot.png", h.Snapshot)
	r.Post("/sessions/:id/save", h.Save)
	r.Get("/sessions/:id/export", h.Export)

	r.Get("/projects", h.ListProjects)
	r.Get("/projects/:timestamp", h.GetProject)
	r.Delete("/projects/:timestamp", h.DeleteProject)
	r.Post("/projects/:timestamp/load", h.LoadProject)
}

// GetCatalog отдает каталог устройств (легенда).
func (h *PlannerHandler) GetCatalog(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"devices": h.planner.Catalog().All()})
}

// ============================================================
// Sessions
// ============================================================

// Upload принимает план (multipart, поле file) и открывает сессию.
func (h *PlannerHandler) Upload(c fiber.Ctx) error {
	data, err := readFormFile(c)
	if err != nil {
		return writeError(c, err)
	}

	view, err := h.planner.Upload(data)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(view)
}

func (h *PlannerHandler) GetSession(c fiber.Ctx) error {
	view, err := h.planner.Session(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

func (h *PlannerHandler) CloseSession(c fiber.Ctx) error {
	if !h.planner.CloseSession(c.Params("id")) {
		return writeError(c, service.ErrSessionNotFound)
	}
	return c.SendStatus(http.StatusNoContent)
}

type analyzeRequest struct {
	Strategy string `json:"strategy"`
	Prompt   string `json:"prompt"`
}

// Analyze запускает анализ плана моделью.
func (h *PlannerHandler) Analyze(c fiber.Ctx) error {
	var req analyzeRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, err)
	}

	strategy, err := models.ParseStrategy(req.Strategy)
	if err != nil {
		return writeError(c, badRequest(err.Error()))
	}

	view, err := h.planner.Analyze(c.Context(), c.Params("id"), strategy, req.Prompt)
	if err != nil {
		return writeSessionError(c, err, view)
	}
	return c.JSON(view)
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat уточняет расстановку по сообщению пользователя.
func (h *PlannerHandler) Chat(c fiber.Ctx) error {
	var req chatRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, err)
	}

	view, err := h.planner.Refine(c.Context(), c.Params("id"), req.Message)
	if err != nil {
		return writeSessionError(c, err, view)
	}
	return c.JSON(view)
}

func (h *PlannerHandler) RemovePlacement(c fiber.Ctx) error {
	view, removed, err := h.planner.RemovePlacement(c.Params("id"), c.Params("placementId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed, "session": view})
}

// ============================================================
// Rendering
// ============================================================

func overlayOptions(c fiber.Ctx) service.OverlayOptions {
	return service.OverlayOptions{
		ShowCoverage: queryBool(c, "coverage", false),
		HoveredID:    c.Query("hover"),
		Width:        queryFloat(c, "width"),
		Height:       queryFloat(c, "height"),
		Background:   queryBool(c, "background", true),
		ShowCount:    queryBool(c, "count", true),
	}
}

// OverlaySVG отдает план с установками в SVG.
func (h *PlannerHandler) OverlaySVG(c fiber.Ctx) error {
	out, err := h.planner.OverlaySVG(c.Params("id"), overlayOptions(c))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.SendString(out)
}

// Overlay отдает раскладку маркеров в JSON.
func (h *PlannerHandler) Overlay(c fiber.Ctx) error {
	markers, bounds, err := h.planner.Markers(c.Params("id"), overlayOptions(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"bounds": bounds, "markers": markers})
}

func (h *PlannerHandler) Snapshot(c fiber.Ctx) error {
	out, err := h.planner.Snapshot(c.Params("id"), service.SnapshotOptions{
		ShowCoverage: queryBool(c, "coverage", true),
		HoveredID:    c.Query("hover"),
		MaxWidth:     int(queryFloat(c, "maxWidth")),
	})
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(out)
}

// ============================================================
// Persistence
// ============================================================

type saveRequest struct {
	Name string `json:"name"`
}

// Save сохраняет сессию в библиотеку проектов.
func (h *PlannerHandler) Save(c fiber.Ctx) error {
	var req saveRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, err)
	}

	summary, err := h.planner.Save(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}

// Export отдает zip с проектом и снимком плана.
func (h *PlannerHandler) Export(c fiber.Ctx) error {
	var buf bytes.Buffer
	filename, err := h.planner.Export(c.Params("id"), c.Query("name"), &buf)
	if err != nil {
		return writeError(c, err)
	}

	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, "application/zip")
	return c.Send(buf.Bytes())
}

// Import открывает сессию из файла проекта (.json или экспортированный .zip).
func (h *PlannerHandler) Import(c fiber.Ctx) error {
	data, err := readFormFile(c)
	if err != nil {
		return writeError(c, err)
	}

	view, err := h.planner.Import(data)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(view)
}

func (h *PlannerHandler) ListProjects(c fiber.Ctx) error {
	projects, err := h.planner.ListProjects(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"projects": projects})
}

func (h *PlannerHandler) GetProject(c fiber.Ctx) error {
	project, err := h.planner.GetProject(c.Context(), c.Params("timestamp"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(project)
}

func (h *PlannerHandler) DeleteProject(c fiber.Ctx) error {
	if err := h.planner.DeleteProject(c.Context(), c.Params("timestamp")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// LoadProject открывает сессию из проекта библиотеки.
func (h *PlannerHandler) LoadProject(c fiber.Ctx) error {
	view, err := h.planner.LoadProject(c.Context(), c.Params("timestamp"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(view)
}

// ============================================================
// Helpers
// ============================================================

func readFormFile(c fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		log.Printf("[PLANNER] FormFile error: %v", err)
		return nil, badRequest("file required in multipart/form-data")
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, badRequest("file is empty")
	}
	return data, nil
}

// decodeBody разбирает JSON тело; пустое тело допустимо.
func decodeBody(c fiber.Ctx, dst any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest("invalid json")
	}
	return nil
}

func queryBool(c fiber.Ctx, key string, def bool) bool {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func queryFloat(c fiber.Ctx, key string) float64 {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
