package overlay

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// ============================================================
// SVG Renderer
// ============================================================

type Scene struct {
	Input

	// Background data URI плана; пусто - только оверлей.
	Background string
	// PlacementCount значение для бейджа; отрицательное - бейдж не рисуется.
	PlacementCount int
}

type SVGRenderer struct{}

func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{}
}

// Render собирает SVG оверлея установок.
func (r *SVGRenderer) Render(scene *Scene) (string, error) {
	var buf bytes.Buffer
	if err := r.Write(&buf, scene); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write пишет SVG в w.
func (r *SVGRenderer) Write(w io.Writer, scene *Scene) error {
	if scene == nil {
		return fmt.Errorf("scene is nil")
	}
	if scene.Bounds.Width <= 0 || scene.Bounds.Height <= 0 {
		return fmt.Errorf("invalid bounds %vx%v", scene.Bounds.Width, scene.Bounds.Height)
	}

	width := int(math.Round(scene.Bounds.Width))
	height := int(math.Round(scene.Bounds.Height))

	canvas := svg.New(w)
	canvas.Start(width, height, fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height))

	if scene.Background != "" {
		canvas.Image(0, 0, width, height, scene.Background, `preserveAspectRatio="none"`)
	}

	// сначала покрытие всех устройств, затем иконки поверх
	markers := Layout(scene.Input)
	for _, m := range markers {
		r.drawCoverage(canvas, m)
	}
	for _, m := range markers {
		if !m.Hovered {
			r.drawMarker(canvas, m)
		}
	}
	// наведенный маркер последним, чтобы подсказка была сверху
	for _, m := range markers {
		if m.Hovered {
			r.drawMarker(canvas, m)
		}
	}

	if scene.PlacementCount >= 0 {
		r.drawBadge(canvas, scene.PlacementCount)
	}

	canvas.End()
	return nil
}

// ============================================================
// Element renderers
// ============================================================

func (r *SVGRenderer) drawCoverage(canvas *svg.SVG, m Marker) {
	if m.Coverage == nil {
		return
	}
	c := m.Coverage
	color := safeColor(m.Device.Color)

	canvas.Group(
		fmt.Sprintf(`id="coverage-%s"`, attr(m.PlacementID)),
		`class="coverage"`,
		translate(m),
		`pointer-events="none"`,
	)

	if c.Dashed {
		fill := "none"
		if c.FillOpacity > 0 {
			fill = color
		}
		canvas.Path(c.Path, fmt.Sprintf("fill:%s;fill-opacity:%s;stroke:%s;stroke-width:2;stroke-dasharray:6 4;stroke-opacity:0.4",
			fill, formatFloat(c.FillOpacity), color))
	} else {
		canvas.Path(c.Path, fmt.Sprintf("fill:%s;fill-opacity:%s;stroke:%s;stroke-width:1.5;stroke-opacity:0.8",
			color, formatFloat(c.FillOpacity), color))
		if c.SightPath != "" {
			canvas.Path(c.SightPath, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2;stroke-dasharray:3 3;stroke-opacity:0.8", color))
		}
	}

	canvas.Gend()
}

func (r *SVGRenderer) drawMarker(canvas *svg.SVG, m Marker) {
	color := safeColor(m.Device.Color)

	canvas.Group(
		fmt.Sprintf(`id="placement-%s"`, attr(m.PlacementID)),
		`class="placement"`,
		fmt.Sprintf(`data-device-id="%s"`, attr(m.Device.ID)),
		translate(m),
	)
	canvas.Title(m.Device.Name)

	// иконка: только эта группа поворачивается
	iconTransform := "rotate(" + formatFloat(m.IconRotation) + ")"
	if m.Hovered {
		iconTransform += " scale(1.1)"
	}
	canvas.Gtransform(iconTransform)
	canvas.Circle(0, 0, int(IconBadgeRadius), fmt.Sprintf("fill:white;stroke:%s;stroke-width:2", color))
	scale := IconGlyphSize / IconGridSize
	canvas.Gtransform(fmt.Sprintf("translate(%s,%s) scale(%s)",
		formatFloat(-IconGlyphSize/2), formatFloat(-IconGlyphSize/2), formatFloat(scale)))
	canvas.Path(m.Device.Icon, fmt.Sprintf("fill:%s", color))
	canvas.Gend()
	canvas.Gend()

	// подсказка и кнопка удаления вне повернутой группы
	if m.Tooltip != nil {
		r.drawTooltip(canvas, m.Tooltip)
	}
	if m.RemoveID != "" {
		r.drawRemove(canvas, m.RemoveID)
	}

	canvas.Gend()
}

const (
	tooltipWidth   = 224
	tooltipPadding = 14
	tooltipLine    = 16
	tooltipTop     = 30
	tooltipWrap    = 34
)

func (r *SVGRenderer) drawTooltip(canvas *svg.SVG, t *Tooltip) {
	reason := wrapText(t.Reason, tooltipWrap)
	lines := 2 + len(reason)
	height := tooltipPadding*2 + lines*tooltipLine + 6

	left := -tooltipWidth / 2
	textX := left + tooltipPadding

	canvas.Group(`class="tooltip"`, `pointer-events="none"`)
	canvas.Roundrect(left, tooltipTop, tooltipWidth, height, 8, 8, "fill:#0f172a;stroke:#334155;stroke-width:1")

	y := tooltipTop + tooltipPadding + 12
	canvas.Text(textX, y, t.Title, "fill:#f1f5f9;font-family:sans-serif;font-size:14px;font-weight:bold")
	for _, line := range reason {
		y += tooltipLine
		canvas.Text(textX, y, line, "fill:#cbd5e1;font-family:sans-serif;font-size:12px")
	}
	y += tooltipLine + 6
	canvas.Text(textX, y, strings.Join(t.Badges, "  "), "fill:#94a3b8;font-family:monospace;font-size:10px")
	canvas.Gend()
}

func (r *SVGRenderer) drawRemove(canvas *svg.SVG, placementID string) {
	canvas.Group(
		`class="remove"`,
		`data-action="remove"`,
		fmt.Sprintf(`data-placement-id="%s"`, attr(placementID)),
		fmt.Sprintf(`transform="translate(%d,%d)"`, int(IconBadgeRadius)-4, -int(IconBadgeRadius)+4),
	)
	canvas.Title("Remove Device")
	canvas.Circle(0, 0, 10, "fill:white;stroke:#e2e8f0;stroke-width:1")
	canvas.Path("M -3.5 -3.5 L 3.5 3.5 M 3.5 -3.5 L -3.5 3.5", "fill:none;stroke:#ef4444;stroke-width:2;stroke-linecap:round")
	canvas.Gend()
}

func (r *SVGRenderer) drawBadge(canvas *svg.SVG, count int) {
	label := fmt.Sprintf("%d devices", count)
	if count == 1 {
		label = "1 device"
	}

	canvas.Group(`class="summary"`)
	canvas.Roundrect(8, 8, 12+len(label)*7, 24, 12, 12, "fill:#ffffff;fill-opacity:0.9;stroke:#cbd5e1")
	canvas.Text(14, 25, label, "fill:#334155;font-family:sans-serif;font-size:12px;font-weight:bold")
	canvas.Gend()
}

// ============================================================
// Helpers
// ============================================================

func translate(m Marker) string {
	return fmt.Sprintf(`transform="translate(%s,%s)"`, formatFloat(m.Anchor.X), formatFloat(m.Anchor.Y))
}

func attr(s string) string {
	return html.EscapeString(s)
}

// safeColor пропускает только #rgb/#rrggbb, иначе серый.
func safeColor(c string) string {
	if len(c) != 4 && len(c) != 7 || !strings.HasPrefix(c, "#") {
		return "#64748b"
	}
	for _, ch := range c[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", ch) {
			return "#64748b"
		}
	}
	return c
}

func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		if len([]rune(current))+1+len([]rune(w)) > width {
			lines = append(lines, current)
			current = w
			continue
		}
		current += " " + w
	}
	return append(lines, current)
}
