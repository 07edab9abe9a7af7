package ai

import (
	"context"
	"errors"
	"fmt"

	"secureplan/internal/planner/models"
)

// ============================================================
// AI Gateway
// ============================================================

// ErrGateway любая ошибка обращения к модели: сеть, ключ, пустой или
// неразборчивый ответ.
var ErrGateway = errors.New("ai gateway failure")

type AnalyzeRequest struct {
	Image    models.FloorPlanImage
	Strategy models.Strategy
	// Prompt дополнительный запрос пользователя, может быть пустым.
	Prompt string
}

type RefineRequest struct {
	Image      models.FloorPlanImage
	Placements []models.Placement
	History    []models.ChatMessage
	Message    string
}

type Gateway interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*models.PlacementResponse, error)
	Refine(ctx context.Context, req RefineRequest) (*models.PlacementResponse, error)
}

// Unconfigured используется, когда ключ API не задан: каждый вызов
// завершается ErrGateway.
type Unconfigured struct{}

func (Unconfigured) Analyze(context.Context, AnalyzeRequest) (*models.PlacementResponse, error) {
	return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrGateway)
}

func (Unconfigured) Refine(context.Context, RefineRequest) (*models.PlacementResponse, error) {
	return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrGateway)
}
