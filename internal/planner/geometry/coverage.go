package geometry

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// ============================================================
// Coverage Geometry
// ============================================================
//
// Все углы задаются как компасный пеленг: 0 = север (вверх),
// 90 = восток (вправо), по часовой стрелке. Ось Y экрана направлена вниз.
// Точки фигуры считаются относительно вершины (точки установки).

var (
	ErrInvalidViewAngle = errors.New("view angle must be a positive finite number")
	ErrInvalidRadius    = errors.New("radius must be a positive finite number")
)

type Kind string

const (
	KindCircle Kind = "circle"
	KindSector Kind = "sector"
)

const fullTurn = 360.0

type Shape struct {
	Kind      Kind
	Radius    float64
	ViewAngle float64

	// Orientation биссектриса сектора, нормализованная в [0,360).
	// Для круга всегда 0.
	Orientation  float64
	StartBearing float64
	EndBearing   float64

	ArcStart r2.Vec
	ArcEnd   r2.Vec
	LargeArc bool

	// Sight конец линии визирования (середина дуги).
	Sight r2.Vec
}

// ComputeCoverageShape строит сектор обзора шириной viewAngle, разделенный
// пополам направлением orientation, либо круг при viewAngle >= 360.
func ComputeCoverageShape(viewAngle, orientation, radius float64) (Shape, error) {
	if math.IsNaN(viewAngle) || math.IsInf(viewAngle, 0) || viewAngle <= 0 {
		return Shape{}, ErrInvalidViewAngle
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return Shape{}, ErrInvalidRadius
	}

	if viewAngle >= fullTurn {
		return Shape{
			Kind:       KindCircle,
			Radius:     radius,
			ViewAngle:  fullTurn,
			EndBearing: fullTurn,
		}, nil
	}

	bisector := NormalizeBearing(orientation)
	half := viewAngle / 2
	start := NormalizeBearing(bisector - half)
	end := NormalizeBearing(bisector + half)

	return Shape{
		Kind:         KindSector,
		Radius:       radius,
		ViewAngle:    viewAngle,
		Orientation:  bisector,
		StartBearing: start,
		EndBearing:   end,
		ArcStart:     BearingVector(start, radius),
		ArcEnd:       BearingVector(end, radius),
		LargeArc:     viewAngle > 180,
		Sight:        BearingVector(bisector, radius),
	}, nil
}

// BearingVector переводит пеленг в вектор экрана длиной r.
func BearingVector(bearing, r float64) r2.Vec {
	rad := bearing * math.Pi / 180
	return r2.Vec{X: r * math.Sin(rad), Y: -r * math.Cos(rad)}
}

// Bearing обратное преобразование: пеленг вектора в [0,360).
func Bearing(v r2.Vec) float64 {
	deg := math.Atan2(v.X, -v.Y) * 180 / math.Pi
	return NormalizeBearing(deg)
}

// NormalizeBearing приводит угол к диапазону [0,360). NaN и Inf дают 0.
func NormalizeBearing(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	m := math.Mod(deg, fullTurn)
	if m < 0 {
		m += fullTurn
	}
	if m >= fullTurn {
		m = 0
	}
	return m
}

// ============================================================
// Path output
// ============================================================

// Path возвращает SVG path data относительно вершины.
func (s Shape) Path() string {
	return s.PathAt(r2.Vec{})
}

// PathAt возвращает SVG path data, сдвинутый в точку center.
func (s Shape) PathAt(center r2.Vec) string {
	r := formatFloat(s.Radius)
	var b strings.Builder

	if s.Kind == KindCircle {
		top := r2.Add(center, r2.Vec{Y: -s.Radius})
		bottom := r2.Add(center, r2.Vec{Y: s.Radius})
		b.WriteString("M " + formatPoint(top))
		b.WriteString(" A " + r + " " + r + " 0 1 1 " + formatPoint(bottom))
		b.WriteString(" A " + r + " " + r + " 0 1 1 " + formatPoint(top))
		b.WriteString(" Z")
		return b.String()
	}

	large := "0"
	if s.LargeArc {
		large = "1"
	}

	b.WriteString("M " + formatPoint(center))
	b.WriteString(" L " + formatPoint(r2.Add(center, s.ArcStart)))
	b.WriteString(" A " + r + " " + r + " 0 " + large + " 1 " + formatPoint(r2.Add(center, s.ArcEnd)))
	b.WriteString(" Z")
	return b.String()
}

// SightLine возвращает отрезок линии визирования. У круга его нет.
func (s Shape) SightLine() (from, to r2.Vec, ok bool) {
	if s.Kind != KindSector {
		return r2.Vec{}, r2.Vec{}, false
	}
	return r2.Vec{}, s.Sight, true
}

// Polygon аппроксимирует фигуру ломаной (для растеризации).
// Для сектора первая точка - вершина.
func (s Shape) Polygon(segments int) []r2.Vec {
	if segments < 4 {
		segments = 4
	}

	if s.Kind == KindCircle {
		pts := make([]r2.Vec, 0, segments)
		for i := 0; i < segments; i++ {
			pts = append(pts, BearingVector(fullTurn*float64(i)/float64(segments), s.Radius))
		}
		return pts
	}

	steps := int(math.Ceil(float64(segments) * s.ViewAngle / fullTurn))
	if steps < 2 {
		steps = 2
	}

	pts := make([]r2.Vec, 0, steps+2)
	pts = append(pts, r2.Vec{})
	for i := 0; i <= steps; i++ {
		bearing := s.StartBearing + s.ViewAngle*float64(i)/float64(steps)
		pts = append(pts, BearingVector(bearing, s.Radius))
	}
	return pts
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	r := math.Round(val*1000) / 1000
	if r == 0 {
		r = 0 // без "-0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func formatPoint(p r2.Vec) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
