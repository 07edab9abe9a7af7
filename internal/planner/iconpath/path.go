package iconpath

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r2"
)

// ============================================================
// Path Parser
// ============================================================
//
// Разбирает SVG path data иконок устройств в ломаные. Поддерживаются
// команды M L H V C S Q T A Z (абсолютные и относительные), неявные
// повторы и слитные флаги дуг ("a3 3 0 11-6 0").

const (
	curveSegments  = 12
	arcStepRadians = math.Pi / 18
)

type Subpath struct {
	Points []r2.Vec
	Closed bool
}

// Parse парсит path data в список подпутей.
func Parse(d string) ([]Subpath, error) {
	p := &parser{s: d}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.out, nil
}

type parser struct {
	s   string
	pos int

	out      []Subpath
	current  *Subpath
	cur      r2.Vec
	start    r2.Vec
	lastCtrl r2.Vec
	lastCmd  byte
}

func (p *parser) run() error {
	var cmd byte

	for {
		p.skipSeparators()
		if p.eof() {
			break
		}

		c := p.s[p.pos]
		if isCommand(c) {
			cmd = c
			p.pos++
		} else if cmd == 0 {
			return fmt.Errorf("unexpected %q at %d: expected command", c, p.pos)
		}

		next, err := p.exec(cmd)
		if err != nil {
			return fmt.Errorf("command %c at %d: %w", cmd, p.pos, err)
		}
		p.lastCmd = cmd
		cmd = next
	}

	p.flush()
	return nil
}

// exec выполняет одну команду и возвращает команду для неявного повтора.
func (p *parser) exec(cmd byte) (byte, error) {
	rel := cmd >= 'a' && cmd <= 'z'
	base := r2.Vec{}
	if rel {
		base = p.cur
	}

	switch cmd {
	case 'M', 'm':
		pt, err := p.point()
		if err != nil {
			return 0, err
		}
		pt = r2.Add(base, pt)
		p.flush()
		p.current = &Subpath{Points: []r2.Vec{pt}}
		p.cur, p.start = pt, pt
		if rel {
			return 'l', nil
		}
		return 'L', nil

	case 'L', 'l':
		pt, err := p.point()
		if err != nil {
			return 0, err
		}
		p.lineTo(r2.Add(base, pt))

	case 'H', 'h':
		x, err := p.number()
		if err != nil {
			return 0, err
		}
		p.lineTo(r2.Vec{X: base.X + x, Y: p.cur.Y})

	case 'V', 'v':
		y, err := p.number()
		if err != nil {
			return 0, err
		}
		p.lineTo(r2.Vec{X: p.cur.X, Y: base.Y + y})

	case 'C', 'c':
		pts, err := p.points(3)
		if err != nil {
			return 0, err
		}
		p.cubicTo(r2.Add(base, pts[0]), r2.Add(base, pts[1]), r2.Add(base, pts[2]))

	case 'S', 's':
		pts, err := p.points(2)
		if err != nil {
			return 0, err
		}
		c1 := p.cur
		if isOneOf(p.lastCmd, "CcSs") {
			c1 = reflect(p.lastCtrl, p.cur)
		}
		p.cubicTo(c1, r2.Add(base, pts[0]), r2.Add(base, pts[1]))

	case 'Q', 'q':
		pts, err := p.points(2)
		if err != nil {
			return 0, err
		}
		p.quadTo(r2.Add(base, pts[0]), r2.Add(base, pts[1]))

	case 'T', 't':
		pt, err := p.point()
		if err != nil {
			return 0, err
		}
		ctrl := p.cur
		if isOneOf(p.lastCmd, "QqTt") {
			ctrl = reflect(p.lastCtrl, p.cur)
		}
		p.quadTo(ctrl, r2.Add(base, pt))

	case 'A', 'a':
		if err := p.arc(base); err != nil {
			return 0, err
		}

	case 'Z', 'z':
		if p.current != nil {
			p.current.Closed = true
			p.flush()
		}
		p.cur = p.start
		return 0, nil

	default:
		return 0, fmt.Errorf("unsupported command")
	}

	return cmd, nil
}

// ============================================================
// Drawing
// ============================================================

func (p *parser) ensureSubpath() {
	if p.current == nil {
		p.current = &Subpath{Points: []r2.Vec{p.cur}}
		p.start = p.cur
	}
}

func (p *parser) flush() {
	if p.current != nil && len(p.current.Points) > 0 {
		p.out = append(p.out, *p.current)
	}
	p.current = nil
}

func (p *parser) lineTo(pt r2.Vec) {
	p.ensureSubpath()
	p.current.Points = append(p.current.Points, pt)
	p.cur = pt
	p.lastCtrl = pt
}

func (p *parser) cubicTo(c1, c2, end r2.Vec) {
	p.ensureSubpath()
	from := p.cur
	for i := 1; i <= curveSegments; i++ {
		t := float64(i) / curveSegments
		mt := 1 - t
		pt := r2.Add(
			r2.Add(r2.Scale(mt*mt*mt, from), r2.Scale(3*mt*mt*t, c1)),
			r2.Add(r2.Scale(3*mt*t*t, c2), r2.Scale(t*t*t, end)),
		)
		p.current.Points = append(p.current.Points, pt)
	}
	p.cur = end
	p.lastCtrl = c2
}

func (p *parser) quadTo(ctrl, end r2.Vec) {
	p.ensureSubpath()
	from := p.cur
	for i := 1; i <= curveSegments; i++ {
		t := float64(i) / curveSegments
		mt := 1 - t
		pt := r2.Add(r2.Add(r2.Scale(mt*mt, from), r2.Scale(2*mt*t, ctrl)), r2.Scale(t*t, end))
		p.current.Points = append(p.current.Points, pt)
	}
	p.cur = end
	p.lastCtrl = ctrl
}

// arc переводит дугу из endpoint- в center-параметризацию (SVG 1.1, F.6.5).
func (p *parser) arc(base r2.Vec) error {
	rx, err := p.number()
	if err != nil {
		return err
	}
	ry, err := p.number()
	if err != nil {
		return err
	}
	rotation, err := p.number()
	if err != nil {
		return err
	}
	large, err := p.flag()
	if err != nil {
		return err
	}
	sweep, err := p.flag()
	if err != nil {
		return err
	}
	end, err := p.point()
	if err != nil {
		return err
	}
	end = r2.Add(base, end)

	from := p.cur
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		p.lineTo(end)
		return nil
	}
	if from == end {
		return nil
	}

	phi := rotation * math.Pi / 180
	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)

	dx2 := (from.X - end.X) / 2
	dy2 := (from.Y - end.Y) / 2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2

	if lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := math.Sqrt(math.Max(0, num/den))
	if large == sweep {
		coef = -coef
	}

	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx
	cx := cosPhi*cxp - sinPhi*cyp + (from.X+end.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (from.Y+end.Y)/2

	theta1 := math.Atan2((y1p-cyp)/ry, (x1p-cxp)/rx)
	theta2 := math.Atan2((-y1p-cyp)/ry, (-x1p-cxp)/rx)
	delta := theta2 - theta1
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	steps := int(math.Ceil(math.Abs(delta) / arcStepRadians))
	if steps < 1 {
		steps = 1
	}

	p.ensureSubpath()
	for i := 1; i <= steps; i++ {
		t := theta1 + delta*float64(i)/float64(steps)
		pt := r2.Vec{
			X: cx + rx*cosPhi*math.Cos(t) - ry*sinPhi*math.Sin(t),
			Y: cy + rx*sinPhi*math.Cos(t) + ry*cosPhi*math.Sin(t),
		}
		p.current.Points = append(p.current.Points, pt)
	}
	// конечная точка без накопленной погрешности
	p.current.Points[len(p.current.Points)-1] = end
	p.cur = end
	p.lastCtrl = end
	return nil
}

// ============================================================
// Tokenizer
// ============================================================

func (p *parser) eof() bool {
	return p.pos >= len(p.s)
}

func (p *parser) skipSeparators() {
	for !p.eof() {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r', ',':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) number() (float64, error) {
	p.skipSeparators()
	start := p.pos

	if !p.eof() && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
		p.pos++
	}
	digits := p.digits()
	if !p.eof() && p.s[p.pos] == '.' {
		p.pos++
		digits += p.digits()
	}
	if digits == 0 {
		p.pos = start
		return 0, fmt.Errorf("expected number at %d", start)
	}
	if !p.eof() && (p.s[p.pos] == 'e' || p.s[p.pos] == 'E') {
		mark := p.pos
		p.pos++
		if !p.eof() && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
			p.pos++
		}
		if p.digits() == 0 {
			p.pos = mark
		}
	}

	return strconv.ParseFloat(p.s[start:p.pos], 64)
}

func (p *parser) digits() int {
	n := 0
	for !p.eof() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
		n++
	}
	return n
}

func (p *parser) flag() (bool, error) {
	p.skipSeparators()
	if p.eof() {
		return false, fmt.Errorf("expected flag at %d", p.pos)
	}
	switch p.s[p.pos] {
	case '0':
		p.pos++
		return false, nil
	case '1':
		p.pos++
		return true, nil
	}
	return false, fmt.Errorf("invalid flag %q at %d", p.s[p.pos], p.pos)
}

func (p *parser) point() (r2.Vec, error) {
	x, err := p.number()
	if err != nil {
		return r2.Vec{}, err
	}
	y, err := p.number()
	if err != nil {
		return r2.Vec{}, err
	}
	return r2.Vec{X: x, Y: y}, nil
}

func (p *parser) points(n int) ([]r2.Vec, error) {
	out := make([]r2.Vec, n)
	for i := range out {
		pt, err := p.point()
		if err != nil {
			return nil, err
		}
		out[i] = pt
	}
	return out, nil
}

func isCommand(c byte) bool {
	return isOneOf(c, "MmLlHhVvCcSsQqTtAaZz")
}

func isOneOf(c byte, set string) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == c {
			return true
		}
	}
	return false
}

func reflect(ctrl, around r2.Vec) r2.Vec {
	return r2.Sub(r2.Scale(2, around), ctrl)
}
