package snapshot

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
	"gonum.org/v1/gonum/spatial/r2"
)

// ============================================================
// Polygon fill
// ============================================================

// fillPolygon заливает многоугольник с предварительным отсечением по
// границам изображения.
func fillPolygon(dst *image.RGBA, pts []r2.Vec, c color.Color) {
	b := dst.Bounds()
	pts = clipToRect(pts, float64(b.Dx()), float64(b.Dy()))
	if len(pts) < 3 {
		return
	}

	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// strokeSegment рисует отрезок как четырехугольник толщины width.
func strokeSegment(dst *image.RGBA, a, b r2.Vec, width float64, c color.Color) {
	d := r2.Sub(b, a)
	length := r2.Norm(d)
	if length == 0 {
		return
	}
	n := r2.Scale(width/2/length, r2.Vec{X: -d.Y, Y: d.X})
	fillPolygon(dst, []r2.Vec{r2.Add(a, n), r2.Add(b, n), r2.Sub(b, n), r2.Sub(a, n)}, c)
}

// strokePolyline рисует ломаную; dash > 0 включает пунктир dash/gap.
func strokePolyline(dst *image.RGBA, pts []r2.Vec, closed bool, width, dash, gap float64, c color.Color) {
	if len(pts) < 2 {
		return
	}
	if closed {
		pts = append(append([]r2.Vec{}, pts...), pts[0])
	}

	if dash <= 0 {
		for i := 1; i < len(pts); i++ {
			strokeSegment(dst, pts[i-1], pts[i], width, c)
		}
		return
	}

	on := true
	left := dash
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		seg := r2.Norm(r2.Sub(b, a))
		pos := 0.0
		for pos < seg {
			step := math.Min(left, seg-pos)
			if on {
				from := lerp(a, b, pos/seg)
				to := lerp(a, b, (pos+step)/seg)
				strokeSegment(dst, from, to, width, c)
			}
			pos += step
			left -= step
			if left <= 0 {
				on = !on
				left = dash
				if !on {
					left = gap
				}
			}
		}
	}
}

func fillCircle(dst *image.RGBA, center r2.Vec, radius float64, c color.Color) {
	fillPolygon(dst, circlePoints(center, radius, 48), c)
}

func circlePoints(center r2.Vec, radius float64, segments int) []r2.Vec {
	pts := make([]r2.Vec, segments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(segments)
		pts[i] = r2.Vec{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)}
	}
	return pts
}

func lerp(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// ============================================================
// Clipping
// ============================================================

// clipToRect отсекает многоугольник прямоугольником [0,w]x[0,h]
// (Sutherland-Hodgman).
func clipToRect(pts []r2.Vec, w, h float64) []r2.Vec {
	type edge struct {
		inside func(p r2.Vec) bool
		cross  func(a, b r2.Vec) r2.Vec
	}

	edges := []edge{
		{
			inside: func(p r2.Vec) bool { return p.X >= 0 },
			cross:  func(a, b r2.Vec) r2.Vec { return lerp(a, b, (0-a.X)/(b.X-a.X)) },
		},
		{
			inside: func(p r2.Vec) bool { return p.X <= w },
			cross:  func(a, b r2.Vec) r2.Vec { return lerp(a, b, (w-a.X)/(b.X-a.X)) },
		},
		{
			inside: func(p r2.Vec) bool { return p.Y >= 0 },
			cross:  func(a, b r2.Vec) r2.Vec { return lerp(a, b, (0-a.Y)/(b.Y-a.Y)) },
		},
		{
			inside: func(p r2.Vec) bool { return p.Y <= h },
			cross:  func(a, b r2.Vec) r2.Vec { return lerp(a, b, (h-a.Y)/(b.Y-a.Y)) },
		},
	}

	out := pts
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		in := out
		out = make([]r2.Vec, 0, len(in)+4)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur) && e.inside(prev):
				out = append(out, cur)
			case e.inside(cur):
				out = append(out, e.cross(prev, cur), cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

// ============================================================
// Colors
// ============================================================

var fallbackColor = color.NRGBA{R: 0x64, G: 0x74, B: 0x8b, A: 0xff}

// parseHex разбирает #rgb и #rrggbb.
func parseHex(s string) color.NRGBA {
	if len(s) == 0 || s[0] != '#' {
		return fallbackColor
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return fallbackColor
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallbackColor
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func withAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Round(math.Max(0, math.Min(1, opacity)) * 255))
	return c
}
