package overlay

import (
	"math"
	"strconv"

	"secureplan/internal/planner/catalog"
	"secureplan/internal/planner/geometry"
	"secureplan/internal/planner/models"
	"secureplan/internal/planner/placement"

	"gonum.org/v1/gonum/spatial/r2"
)

// ============================================================
// Display constants
// ============================================================

const (
	// SectorRadius условный радиус сектора обзора, px. Не зависит от range.
	SectorRadius = 80.0
	// OmniRadius радиус пунктирного круга всенаправленных устройств, px.
	OmniRadius = 50.0

	IconBadgeRadius = 18.0
	IconGlyphSize   = 20.0
	IconGridSize    = 24.0

	fillOpacity        = 0.25
	hoveredFillOpacity = 0.4
)

// ============================================================
// Layout
// ============================================================

type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Input struct {
	Placements   []models.Placement
	Catalog      *catalog.Catalog
	HoveredID    string
	ShowCoverage bool
	Bounds       Bounds
}

type Coverage struct {
	Shape       geometry.Shape `json:"-"`
	Kind        geometry.Kind  `json:"kind"`
	Path        string         `json:"path"`
	SightPath   string         `json:"sightPath,omitempty"`
	Dashed      bool           `json:"dashed"`
	FillOpacity float64        `json:"fillOpacity"`
}

type Tooltip struct {
	Title  string   `json:"title"`
	Reason string   `json:"reason"`
	Badges []string `json:"badges"`
}

type Marker struct {
	PlacementID  string            `json:"placementId"`
	Device       models.DeviceSpec `json:"device"`
	Anchor       r2.Vec            `json:"-"`
	X            float64           `json:"x"` // px
	Y            float64           `json:"y"` // px
	Orientation  float64           `json:"orientation"`
	ViewAngle    float64           `json:"viewAngle"`
	IconRotation float64           `json:"iconRotation"`
	Hovered      bool              `json:"hovered"`
	Coverage     *Coverage         `json:"coverage,omitempty"`
	Tooltip      *Tooltip          `json:"tooltip,omitempty"`
	// RemoveID id для кнопки удаления; пусто, если кнопка не показана.
	RemoveID string `json:"removeId,omitempty"`
}

// Layout вычисляет, что рисовать для каждой установки. Установки с
// неизвестным устройством пропускаются. Координаты вне [0,100] не
// корректируются.
func Layout(in Input) []Marker {
	resolved := placement.Resolve(in.Placements, in.Catalog)
	markers := make([]Marker, 0, len(resolved))

	for _, r := range resolved {
		markers = append(markers, layoutOne(r, in))
	}

	return markers
}

func layoutOne(r placement.Resolved, in Input) Marker {
	p, device := r.Placement, r.Device

	viewAngle := device.ViewAngle()
	orientation := geometry.NormalizeBearing(p.Orientation)
	hovered := in.HoveredID != "" && in.HoveredID == p.ID

	anchor := anchorPoint(p, in.Bounds)
	m := Marker{
		PlacementID:  p.ID,
		Device:       device,
		Anchor:       anchor,
		X:            anchor.X,
		Y:            anchor.Y,
		Orientation:  orientation,
		ViewAngle:    viewAngle,
		IconRotation: geometry.NormalizeBearing(orientation + device.IconFacingOffset),
		Hovered:      hovered,
	}

	if in.ShowCoverage || hovered {
		m.Coverage = coverageFor(viewAngle, orientation, hovered)
	}

	if hovered {
		m.Tooltip = tooltipFor(p, device, viewAngle, orientation)
		m.RemoveID = p.ID
	}

	return m
}

func anchorPoint(p models.Placement, b Bounds) r2.Vec {
	return r2.Vec{
		X: p.X / 100 * b.Width,
		Y: p.Y / 100 * b.Height,
	}
}

func coverageFor(viewAngle, orientation float64, hovered bool) *Coverage {
	radius := SectorRadius
	if viewAngle >= models.FullCircle {
		radius = OmniRadius
	}

	shape, err := geometry.ComputeCoverageShape(viewAngle, orientation, radius)
	if err != nil {
		return nil
	}

	c := &Coverage{
		Shape:       shape,
		Kind:        shape.Kind,
		Path:        shape.Path(),
		Dashed:      shape.Kind == geometry.KindCircle,
		FillOpacity: fillOpacity,
	}
	if hovered {
		c.FillOpacity = hoveredFillOpacity
	}
	if c.Dashed && !hovered {
		c.FillOpacity = 0
	}
	if from, to, ok := shape.SightLine(); ok {
		c.SightPath = "M " + formatPoint(from) + " L " + formatPoint(to)
	}

	return c
}

func tooltipFor(p models.Placement, device models.DeviceSpec, viewAngle, orientation float64) *Tooltip {
	t := &Tooltip{Title: device.Name, Reason: p.Reason}
	if viewAngle < models.FullCircle {
		t.Badges = []string{
			"FOV: " + formatDegrees(viewAngle) + "°",
			"DIR: " + formatDegrees(orientation) + "°",
		}
	} else {
		t.Badges = []string{"360° Coverage"}
	}
	return t
}

// ============================================================
// Formatting helpers
// ============================================================

func formatDegrees(val float64) string {
	return strconv.FormatFloat(math.Round(val*10)/10, 'f', -1, 64)
}

func formatFloat(val float64) string {
	r := math.Round(val*1000) / 1000
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func formatPoint(p r2.Vec) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
