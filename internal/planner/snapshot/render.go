package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"

	"secureplan/internal/planner/catalog"
	"secureplan/internal/planner/iconpath"
	"secureplan/internal/planner/models"
	"secureplan/internal/planner/overlay"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r2"
)

// ============================================================
// Snapshot Renderer
// ============================================================
//
// Растеризует план с наложенными устройствами в PNG: то, что
// пользователь видит на экране, без интерактивных элементов.

const (
	DefaultMaxWidth = 1600

	polygonSegments = 96
	badgeFontSize   = 13
)

type Options struct {
	// MaxWidth ограничивает ширину результата; план большего размера
	// масштабируется с сохранением пропорций.
	MaxWidth     int
	ShowCoverage bool
	HoveredID    string
	// ShowCount рисует бейдж с количеством устройств.
	ShowCount bool
}

// Renderer можно вызывать параллельно; font.Face создается на каждый снимок.
type Renderer struct {
	font  *opentype.Font
	icons map[string][]iconpath.Subpath
}

// NewRenderer загружает шрифт и заранее разбирает иконки каталога.
func NewRenderer(cat *catalog.Catalog) (*Renderer, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	r := &Renderer{font: fnt, icons: make(map[string][]iconpath.Subpath)}
	face, err := r.newFace()
	if err != nil {
		return nil, err
	}
	face.Close()

	for _, d := range cat.All() {
		subs, err := iconpath.Parse(d.Icon)
		if err != nil {
			// устройство рисуется без глифа
			slog.Warn("Failed to parse device icon", "device", d.ID, "error", err)
			continue
		}
		r.icons[d.ID] = subs
	}
	return r, nil
}

// Render рисует снимок плана. base64Data - изображение плана (с data URI
// префиксом или без).
func (r *Renderer) Render(base64Data string, placements []models.Placement, cat *catalog.Catalog, opts Options) (*image.RGBA, error) {
	src, _, err := DecodeBase64(base64Data)
	if err != nil {
		return nil, err
	}

	dst := scaleToWidth(src, opts.MaxWidth)
	b := dst.Bounds()

	markers := overlay.Layout(overlay.Input{
		Placements:   placements,
		Catalog:      cat,
		HoveredID:    opts.HoveredID,
		ShowCoverage: opts.ShowCoverage,
		Bounds:       overlay.Bounds{Width: float64(b.Dx()), Height: float64(b.Dy())},
	})

	for _, m := range markers {
		r.drawCoverage(dst, m)
	}
	for _, m := range markers {
		r.drawMarker(dst, m)
	}
	if opts.ShowCount {
		face, err := r.newFace()
		if err != nil {
			return nil, err
		}
		defer face.Close()
		drawCount(dst, face, len(placements))
	}

	return dst, nil
}

// Encode пишет PNG.
func (r *Renderer) Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

func scaleToWidth(src image.Image, maxWidth int) *image.RGBA {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()

	if w > maxWidth {
		h = int(math.Max(1, math.Round(float64(h)*float64(maxWidth)/float64(w))))
		w = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	}
	return dst
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) drawCoverage(dst *image.RGBA, m overlay.Marker) {
	if m.Coverage == nil {
		return
	}
	c := m.Coverage
	base := parseHex(m.Device.Color)

	poly := translate(c.Shape.Polygon(polygonSegments), m.Anchor)
	if c.FillOpacity > 0 {
		fillPolygon(dst, poly, withAlpha(base, c.FillOpacity))
	}

	if c.Dashed {
		strokePolyline(dst, poly, true, 2, 6, 4, withAlpha(base, 0.4))
		return
	}

	strokePolyline(dst, poly, true, 1.5, 0, 0, withAlpha(base, 0.8))
	if from, to, ok := c.Shape.SightLine(); ok {
		strokePolyline(dst, []r2.Vec{r2.Add(from, m.Anchor), r2.Add(to, m.Anchor)}, false, 2, 3, 3, withAlpha(base, 0.8))
	}
}

func (r *Renderer) drawMarker(dst *image.RGBA, m overlay.Marker) {
	base := parseHex(m.Device.Color)

	scale := 1.0
	if m.Hovered {
		scale = 1.1
	}
	radius := overlay.IconBadgeRadius * scale

	fillCircle(dst, m.Anchor, radius+1, base)
	fillCircle(dst, m.Anchor, radius-1, color.White)

	subs, ok := r.icons[m.Device.ID]
	if !ok {
		return
	}

	glyph := overlay.IconGlyphSize / overlay.IconGridSize * scale
	half := overlay.IconGlyphSize / 2 * scale
	theta := m.IconRotation * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)

	for _, s := range subs {
		pts := make([]r2.Vec, len(s.Points))
		for i, p := range s.Points {
			q := r2.Vec{X: p.X*glyph - half, Y: p.Y*glyph - half}
			pts[i] = r2.Vec{
				X: m.Anchor.X + q.X*cos - q.Y*sin,
				Y: m.Anchor.Y + q.X*sin + q.Y*cos,
			}
		}
		fillPolygon(dst, pts, base)
	}
}

func (r *Renderer) newFace() (font.Face, error) {
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    badgeFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

func drawCount(dst *image.RGBA, face font.Face, count int) {
	label := fmt.Sprintf("%d devices", count)
	if count == 1 {
		label = "1 device"
	}

	width := font.MeasureString(face, label).Ceil() + 16
	rect := []r2.Vec{{X: 8, Y: 8}, {X: float64(8 + width), Y: 8}, {X: float64(8 + width), Y: 32}, {X: 8, Y: 32}}
	fillPolygon(dst, rect, color.NRGBA{R: 255, G: 255, B: 255, A: 230})
	strokePolyline(dst, rect, true, 1, 0, 0, color.NRGBA{R: 0xcb, G: 0xd5, B: 0xe1, A: 0xff})

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: 0x33, G: 0x41, B: 0x55, A: 0xff}),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(16), Y: fixed.I(25)},
	}
	d.DrawString(label)
}

func translate(pts []r2.Vec, by r2.Vec) []r2.Vec {
	out := make([]r2.Vec, len(pts))
	for i, p := range pts {
		out[i] = r2.Add(p, by)
	}
	return out
}
