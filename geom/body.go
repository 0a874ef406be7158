package geom

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/geodeck/rot"
)

// role tells how one slot of a body's parameter list moves under a rigid
// motion.
type role byte

const (
	scalar role = iota // unchanged
	point              // rotated and translated
	vector             // rotated only
)

// shapeRoles lists the parameter layout of the shapes that can be rotated
// and translated by moving their points and vectors.
var shapeRoles = map[string][]role{
	"SPH": {point, scalar},
	"RCC": {point, vector, scalar},
	"TRC": {point, vector, scalar, scalar},
	"REC": {point, vector, vector, vector},
	"ELL": {point, point, scalar},
	"BOX": {point, vector, vector, vector},
	"WED": {point, vector, vector, vector},
	"RAW": {point, vector, vector, vector},
	"ARB": {
		point, point, point, point, point, point, point, point,
		scalar, scalar, scalar, scalar, scalar, scalar,
	},
	"PLA": {vector, point},
}

// axisShapes are the shapes tied to a coordinate axis. They translate by
// shifting their coordinates; the indices name the axis of each leading
// coordinate parameter.
var axisShapes = map[string][]int{
	"XYP": {2},
	"XZP": {1},
	"YZP": {0},
	"XCC": {1, 2},
	"YCC": {2, 0},
	"ZCC": {0, 1},
	"XEC": {1, 2},
	"YEC": {2, 0},
	"ZEC": {0, 1},
	"RPP": {0, 0, 1, 1, 2, 2},
}

// Body is a named primitive solid.
type Body struct {
	Shape     string
	Name      string
	Params    []float64
	Comment   string
	Transform *Transformation // $start_transform link, nil when baked

	raw     string // card text as read
	rawName string // name at read time
}

// NewBody returns a body of the given shape.
func NewBody(shape, name string, params ...float64) *Body {
	return &Body{Shape: strings.ToUpper(shape), Name: name, Params: params}
}

// Label returns the body name.
func (b *Body) Label() string { return b.Name }

// parseBody reads a free-format body card: shape code, name, parameters.
func parseBody(text string) (*Body, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil, fmt.Errorf("body card needs a shape and a name, got %d fields",
			len(fields))
	}

	b := &Body{
		Shape:   strings.ToUpper(fields[0]),
		Name:    fields[1],
		Params:  make([]float64, 0, len(fields)-2),
		raw:     strings.TrimRight(text, " \t"),
		rawName: fields[1],
	}

	for i, f := range fields[2:] {
		v, err := parseNumber(f)
		if err != nil {
			return nil, fmt.Errorf("body %s parameter %d: %w", b.Name, i+1, err)
		}

		b.Params = append(b.Params, v)
	}

	if r, ok := shapeRoles[b.Shape]; ok && len(b.Params) != paramCount(r) {
		return nil, fmt.Errorf("body %s: %s takes %d parameters, got %d",
			b.Name, b.Shape, paramCount(r), len(b.Params))
	}

	if a, ok := axisShapes[b.Shape]; ok && len(b.Params) < len(a) {
		return nil, fmt.Errorf("body %s: %s takes at least %d parameters, got %d",
			b.Name, b.Shape, len(a), len(b.Params))
	}

	return b, nil
}

func paramCount(roles []role) int {
	n := 0

	for _, r := range roles {
		if r == scalar {
			n++
		} else {
			n += 3
		}
	}

	return n
}

// String renders the body card.
func (b *Body) String() string {
	if b.raw != "" && b.Name == b.rawName {
		return b.raw
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %-8s", b.Shape, b.Name)

	for _, p := range b.Params {
		sb.WriteByte(' ')
		sb.WriteString(formatFree(p))
	}

	return sb.String()
}

func (b *Body) touch() { b.raw, b.rawName = "", "" }

// Translate shifts the body by d.
func (b *Body) Translate(d rot.Vec) error {
	if d.IsZero() {
		return nil
	}

	if roles, ok := shapeRoles[b.Shape]; ok {
		b.move(roles, rot.Identity(), d)

		return nil
	}

	if axes, ok := axisShapes[b.Shape]; ok {
		for i, ax := range axes {
			b.Params[i] += d[ax]
		}

		b.touch()

		return nil
	}

	return ErrNotRotatable.With(
		slog.String("body", b.Name), slog.String("shape", b.Shape))
}

// Rotate rotates the body about the origin by m. Axis-aligned planes and
// RPP boxes are converted to PLA and BOX bodies; infinite cylinders and
// elliptical cylinders cannot be rotated.
func (b *Body) Rotate(m rot.Matrix) error {
	if m.IsIdentity(0) {
		return nil
	}

	switch b.Shape {
	case "XYP", "XZP", "YZP":
		b.toPlane()
	case "RPP":
		b.toBox()
	}

	roles, ok := shapeRoles[b.Shape]
	if !ok {
		return ErrNotRotatable.With(
			slog.String("body", b.Name), slog.String("shape", b.Shape))
	}

	b.move(roles, m, rot.Vec{})

	return nil
}

func (b *Body) move(roles []role, m rot.Matrix, d rot.Vec) {
	i := 0

	for _, r := range roles {
		if r == scalar {
			i++

			continue
		}

		v := m.Apply(rot.Vec{b.Params[i], b.Params[i+1], b.Params[i+2]})
		if r == point {
			v = v.Add(d)
		}

		copy(b.Params[i:i+3], v[:])
		i += 3
	}

	b.touch()
}

func (b *Body) toPlane() {
	ax := axisShapes[b.Shape][0]

	var n, p rot.Vec

	n[ax], p[ax] = 1, b.Params[0]

	b.Shape = "PLA"
	b.Params = append(n[:], p[:]...)
	b.touch()
}

func (b *Body) toBox() {
	p := b.Params
	b.Shape = "BOX"
	b.Params = []float64{
		p[0], p[2], p[4],
		p[1] - p[0], 0, 0,
		0, p[3] - p[2], 0,
		0, 0, p[5] - p[4],
	}
	b.touch()
}

// clone returns a copy sharing no parameter storage. The transform link
// is remapped by the caller.
func (b *Body) clone() *Body {
	c := *b
	c.Params = append([]float64(nil), b.Params...)

	return &c
}
