package models

import (
	"fmt"
	"strings"
	"time"
)

// ============================================================
// Device catalog
// ============================================================

type DeviceType string

const (
	DeviceCamera   DeviceType = "camera"
	DeviceSensor   DeviceType = "sensor"
	DeviceDetector DeviceType = "detector"
)

type MountType string

const (
	MountWall    MountType = "wall"
	MountCeiling MountType = "ceiling"
	MountSurface MountType = "surface"
)

// FullCircle угол обзора всенаправленного устройства.
const FullCircle = 360.0

type DeviceSpecs struct {
	Description string    `json:"description"`
	ViewAngle   float64   `json:"viewAngle,omitempty"` // degrees, 0 = не задан (360)
	Range       float64   `json:"range,omitempty"`     // meters, только для отображения
	Resolution  string    `json:"resolution,omitempty"`
	MountType   MountType `json:"mountType,omitempty"`
}

type DeviceSpec struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Type  DeviceType  `json:"type"`
	Color string      `json:"color"`
	Icon  string      `json:"icon"` // SVG path d, сетка 24x24
	Specs DeviceSpecs `json:"specs"`

	// IconFacingOffset поправка (в градусах) для иконок, нарисованных
	// не "вверх". Добавляется к orientation при повороте иконки.
	IconFacingOffset float64 `json:"iconFacingOffset,omitempty"`
}

// ViewAngle возвращает угол обзора, 360 если не задан.
func (d DeviceSpec) ViewAngle() float64 {
	if d.Specs.ViewAngle <= 0 {
		return FullCircle
	}
	return d.Specs.ViewAngle
}

// Directional сообщает, имеет ли устройство направленный сектор обзора.
func (d DeviceSpec) Directional() bool {
	return d.ViewAngle() < FullCircle
}

// ============================================================
// Placements
// ============================================================

type Placement struct {
	ID          string  `json:"id"`
	DeviceID    string  `json:"deviceId"`
	X           float64 `json:"x"` // percent 0-100, от левого края
	Y           float64 `json:"y"` // percent 0-100, от верхнего края
	Orientation float64 `json:"orientation"`
	Reason      string  `json:"reason"`
}

type PlacementResponse struct {
	Analysis   string      `json:"analysis"`
	Placements []Placement `json:"placements"`
}

// ============================================================
// Strategy
// ============================================================

type Strategy string

const (
	StrategyHighestSecurity Strategy = "HIGHEST_SECURITY"
	StrategyCostEffective   Strategy = "COST_EFFECTIVE"
)

// ParseStrategy проверяет строку стратегии; пустая строка дает HIGHEST_SECURITY.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return StrategyHighestSecurity, nil
	case StrategyHighestSecurity:
		return StrategyHighestSecurity, nil
	case StrategyCostEffective:
		return StrategyCostEffective, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// ============================================================
// Chat transcript
// ============================================================

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type ChatMessage struct {
	Role              Role   `json:"role"`
	Text              string `json:"text"`
	IsPlacementUpdate bool   `json:"isPlacementUpdate,omitempty"`
}

// ============================================================
// Saved projects
// ============================================================

type SavedProject struct {
	Name         string        `json:"name,omitempty"`
	Timestamp    string        `json:"timestamp"`
	Base64Data   string        `json:"base64Data"`
	Placements   []Placement   `json:"placements"`
	Strategy     Strategy      `json:"strategy"`
	ChatHistory  []ChatMessage `json:"chatHistory"`
	AnalysisText string        `json:"analysisText"`
}

// DisplayName имя проекта или timestamp, если имя пустое.
func (p SavedProject) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Timestamp
}

type ProjectSummary struct {
	Name           string   `json:"name,omitempty"`
	Timestamp      string   `json:"timestamp"`
	Strategy       Strategy `json:"strategy"`
	PlacementCount int      `json:"placementCount"`
}

// Summary краткое описание проекта для списка библиотеки.
func (p SavedProject) Summary() ProjectSummary {
	return ProjectSummary{
		Name:           p.Name,
		Timestamp:      p.Timestamp,
		Strategy:       p.Strategy,
		PlacementCount: len(p.Placements),
	}
}

// ============================================================
// Floor plan image
// ============================================================

type FloorPlanImage struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// ============================================================
// Timestamps
// ============================================================

// FormatTimestamp формирует ключ проекта: UTC YYYYMMDDHHMMSS + миллисекунды.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	return t.Format("20060102150405") + fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
}
