package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"secureplan/internal/planner/catalog"
	"secureplan/internal/planner/models"

	"google.golang.org/genai"
)

// ============================================================
// Prompts
// ============================================================

const DefaultPrompt = "Analyze this floor plan and recommend device placements."

const systemInstruction = `You are a physical security engineer. You analyze floor plan images and recommend where to install security devices.

Rules:
1. Privacy:
   - Never place cameras in bathrooms, toilets, restrooms or changing rooms. Use glass break or contact sensors on their windows and doors instead.
   - Prefer sensors over cameras in bedrooms.
   - Always cover main doors, back doors and ground floor windows.

2. Physical constraints and orientation:
   - Cameras cannot see through walls.
   - Give every device an orientation in degrees (0-360): 0 = up (north), 90 = right (east), 180 = down (south), 270 = left (west).
   - Wall cameras (120 degree FOV) go on walls and face into the room.
   - Corners suit 90-120 degree sensors and cameras.
   - Door sensors go on the door frame.
   - Ceiling cameras (360 degree FOV) need a central position.

3. Catalog:
   Use ONLY device ids from the provided catalog.

4. Coordinates:
   Positions are percentages of image width (x) and height (y). 0,0 is the top-left corner, 100,100 the bottom-right.

5. Strategy:
   - HIGHEST_SECURITY: maximize coverage, overlap fields of view to remove blind spots, cover every window and door.
   - COST_EFFECTIVE: cover choke points such as hallways and entries, low-risk corners may stay uncovered.`

type promptDevice struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Type  models.DeviceType  `json:"type,omitempty"`
	Specs models.DeviceSpecs `json:"specs"`
}

func catalogJSON(cat *catalog.Catalog, withType bool) string {
	devices := make([]promptDevice, 0, cat.Len())
	for _, d := range cat.All() {
		pd := promptDevice{ID: d.ID, Name: d.Name, Specs: d.Specs}
		if withType {
			pd.Type = d.Type
		}
		devices = append(devices, pd)
	}
	b, _ := json.Marshal(devices)
	return string(b)
}

// AnalyzePrompt текст запроса первичного анализа.
func AnalyzePrompt(cat *catalog.Catalog, strategy models.Strategy, userPrompt string) string {
	if strings.TrimSpace(userPrompt) == "" {
		userPrompt = DefaultPrompt
	}

	var b strings.Builder
	b.WriteString("Here is the floor plan.\n")
	fmt.Fprintf(&b, "Current Strategy: %s\n", strategy)
	fmt.Fprintf(&b, "Device Catalog: %s\n\n", catalogJSON(cat, true))
	fmt.Fprintf(&b, "User Request: %s\n\n", userPrompt)
	b.WriteString("Return a JSON object with the analysis and the list of placements. Provide 'orientation' for every device.")
	return b.String()
}

// RefinePrompt текст запроса уточнения по сообщению пользователя.
func RefinePrompt(cat *catalog.Catalog, placements []models.Placement, history []models.ChatMessage, message string) string {
	current, _ := json.Marshal(placements)

	var b strings.Builder
	b.WriteString("This is a follow-up request.\n\n")
	fmt.Fprintf(&b, "Device Catalog: %s\n", catalogJSON(cat, false))
	fmt.Fprintf(&b, "Current Placements: %s\n\n", current)

	if recent := recentHistory(history, historyWindow); len(recent) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range recent {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User Feedback: %q\n\n", message)
	b.WriteString("Update the placements based on the feedback. Remove devices the user asks to remove, add requested devices from the catalog. ")
	b.WriteString("Keep the JSON structure and set a correct orientation for new or moved devices.")
	return b.String()
}

const historyWindow = 10

func recentHistory(history []models.ChatMessage, n int) []models.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// ============================================================
// Response schema
// ============================================================

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"analysis": {
				Type:        genai.TypeString,
				Description: "A brief analysis of the floor plan (rooms identified, vulnerabilities).",
			},
			"placements": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":          {Type: genai.TypeString, Description: "Unique ID for this placement."},
						"deviceId":    {Type: genai.TypeString, Description: "Device ID from the catalog."},
						"x":           {Type: genai.TypeNumber, Description: "X coordinate percentage (0-100)."},
						"y":           {Type: genai.TypeNumber, Description: "Y coordinate percentage (0-100)."},
						"orientation": {Type: genai.TypeNumber, Description: "Facing direction in degrees (0=Up, 90=Right)."},
						"reason":      {Type: genai.TypeString, Description: "Short reason for this placement."},
					},
					Required: []string{"id", "deviceId", "x", "y", "orientation", "reason"},
				},
			},
		},
		Required: []string{"analysis", "placements"},
	}
}
