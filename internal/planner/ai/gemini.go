package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"secureplan/internal/planner/catalog"
	"secureplan/internal/planner/models"

	"google.golang.org/genai"
)

// ============================================================
// Gemini Gateway
// ============================================================

const DefaultModel = "gemini-2.5-flash"

type GeminiGateway struct {
	client  *genai.Client
	model   string
	catalog *catalog.Catalog
}

func NewGeminiGateway(ctx context.Context, apiKey, model string, cat *catalog.Catalog) (*GeminiGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGateway{client: client, model: model, catalog: cat}, nil
}

// Analyze запрашивает первичную расстановку для плана.
func (g *GeminiGateway) Analyze(ctx context.Context, req AnalyzeRequest) (*models.PlacementResponse, error) {
	prompt := AnalyzePrompt(g.catalog, req.Strategy, req.Prompt)
	return g.generate(ctx, "analyze", req.Image, prompt)
}

// Refine запрашивает обновленную расстановку по отзыву пользователя.
func (g *GeminiGateway) Refine(ctx context.Context, req RefineRequest) (*models.PlacementResponse, error) {
	prompt := RefinePrompt(g.catalog, req.Placements, req.History, req.Message)
	return g.generate(ctx, "refine", req.Image, prompt)
}

func (g *GeminiGateway) generate(ctx context.Context, op string, img models.FloorPlanImage, prompt string) (*models.PlacementResponse, error) {
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("%w: floor plan image is empty", ErrGateway)
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	}

	started := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrGateway, op, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: %s: no response from model", ErrGateway, op)
	}

	out, err := DecodeResponse(text)
	if err != nil {
		return nil, err
	}

	slog.Info("AI placements received",
		"op", op,
		"model", g.model,
		"placements", len(out.Placements),
		"duration", time.Since(started),
	)
	return out, nil
}
