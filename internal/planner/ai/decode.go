package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"secureplan/internal/planner/geometry"
	"secureplan/internal/planner/models"

	"github.com/google/uuid"
)

// ============================================================
// Response validation
// ============================================================

// DecodeResponse проверяет ответ модели на границе. Записи без deviceId
// или с нечисловыми координатами отбрасываются, отсутствующие и
// повторяющиеся id заменяются на uuid, orientation приводится к [0,360).
// Неизвестные deviceId сохраняются: их отсеивает рендерер.
func DecodeResponse(text string) (*models.PlacementResponse, error) {
	text = stripFences(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrGateway)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: response is not a JSON object: %v", ErrGateway, err)
	}

	resp := &models.PlacementResponse{Placements: []models.Placement{}}
	if s, ok := raw["analysis"].(string); ok {
		resp.Analysis = s
	}

	items, ok := raw["placements"].([]any)
	if !ok && raw["placements"] != nil {
		return nil, fmt.Errorf("%w: placements is not an array", ErrGateway)
	}

	seen := make(map[string]bool, len(items))
	dropped := 0
	for _, item := range items {
		p, ok := decodePlacement(item)
		if !ok {
			dropped++
			continue
		}
		if p.ID == "" || seen[p.ID] {
			p.ID = uuid.NewString()
		}
		seen[p.ID] = true
		resp.Placements = append(resp.Placements, p)
	}

	if dropped > 0 {
		slog.Warn("Dropped invalid placements from AI response", "dropped", dropped, "kept", len(resp.Placements))
	}
	return resp, nil
}

func decodePlacement(item any) (models.Placement, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return models.Placement{}, false
	}

	deviceID, _ := obj["deviceId"].(string)
	if strings.TrimSpace(deviceID) == "" {
		return models.Placement{}, false
	}
	x, okX := finite(obj["x"])
	y, okY := finite(obj["y"])
	if !okX || !okY {
		return models.Placement{}, false
	}

	p := models.Placement{DeviceID: deviceID, X: x, Y: y}
	p.ID, _ = obj["id"].(string)
	p.Reason, _ = obj["reason"].(string)
	if o, ok := finite(obj["orientation"]); ok {
		p.Orientation = geometry.NormalizeBearing(o)
	}
	return p, true
}

func finite(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}
