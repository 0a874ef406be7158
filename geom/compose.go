package geom

import (
	"context"
	"log/slog"

	"github.com/ardnew/geodeck/rot"
)

// Motion is a rigid motion of a geometry: a rotation about the origin
// followed by a translation. Angles, when given, take precedence over
// Matrix and apply in order.
type Motion struct {
	Translation rot.Vec
	Matrix      *rot.Matrix
	Angles      []rot.AxisAngle
}

// IsZero reports whether m moves nothing.
func (m Motion) IsZero() bool {
	return m.Translation.IsZero() && len(m.rotations()) == 0
}

// rotations returns the non-zero elementary rotations of m in order of
// application.
func (m Motion) rotations() []rot.AxisAngle {
	if len(m.Angles) > 0 {
		return rot.NonZero(m.Angles)
	}

	if m.Matrix != nil {
		return m.Matrix.Gimbal()
	}

	return nil
}

// rotation returns the rotation matrix of m.
func (m Motion) rotation() (rot.Matrix, error) {
	if len(m.Angles) == 0 && m.Matrix != nil {
		return *m.Matrix, nil
	}

	r, err := rot.Compose(m.rotations())
	if err != nil {
		return r, ErrUsage.Wrap(err)
	}

	return r, nil
}

// Rigid returns m as x -> R*x + T.
func (m Motion) Rigid() (Rigid, error) {
	r, err := m.rotation()
	if err != nil {
		return Rigid{}, err
	}

	return Rigid{R: r, T: m.Translation}, nil
}

// Inverse returns the motion undoing m.
func (m Motion) Inverse() (Motion, error) {
	r, err := m.rotation()
	if err != nil {
		return Motion{}, err
	}

	rt := r.Transpose()

	return Motion{
		Translation: rt.Apply(m.Translation).Neg(),
		Angles:      rot.Invert(m.rotations()),
	}, nil
}

// steps returns the ROT-DEFI steps recording m: they undo the motion, so
// the translation comes first and the rotations follow in reverse order
// with negated angles.
func (m Motion) steps() []Step {
	var out []Step

	if !m.Translation.IsZero() {
		out = append(out, Translation(m.Translation.Neg()))
	}

	for _, a := range rot.Invert(m.rotations()) {
		out = append(out, Rotation(a.Axis, a.Angle))
	}

	return out
}

// inverseSteps returns the steps redoing m, for wrapping a lattice
// transformation.
func inverseSteps(steps []Step) []Step {
	out := make([]Step, len(steps))

	for i, s := range steps {
		s.Azimuth, s.Translation, s.Comment = -s.Azimuth, s.Translation.Neg(), ""
		out[len(steps)-1-i] = s
	}

	return out
}

// TransformOption configures [Geometry.ApplyTransform].
type TransformOption func(*transformOptions)

type transformOptions struct {
	name       string
	comment    string
	directives bool
	onlyGeo    bool
	wrap       bool
}

// DefaultTransformName prefixes the transformations created by
// [Geometry.ApplyTransform].
const DefaultTransformName = "ToFinPos"

// GeometryDirectives links bodies to a transformation instead of changing
// their parameters.
func GeometryDirectives() TransformOption {
	return func(o *transformOptions) { o.directives = true }
}

// OnlyGeometry leaves the USRBIN meshes alone.
func OnlyGeometry() TransformOption {
	return func(o *transformOptions) { o.onlyGeo = true }
}

// Wrap surrounds the existing lattice transformations with the motion and
// its inverse. It is needed when the lattice prototype is itself moved.
func Wrap() TransformOption {
	return func(o *transformOptions) { o.wrap = true }
}

// TransformName sets the prefix of the created transformations.
func TransformName(name string) TransformOption {
	return func(o *transformOptions) { o.name = name }
}

// HeadComment sets the comment heading the created transformations.
func HeadComment(text string) TransformOption {
	return func(o *transformOptions) { o.comment = text }
}

func canRotate(b *Body) bool {
	switch b.Shape {
	case "XYP", "XZP", "YZP", "RPP":
		return true
	}

	_, ok := shapeRoles[b.Shape]

	return ok
}

func canTranslate(b *Body) bool {
	_, ok := shapeRoles[b.Shape]
	_, ok2 := axisShapes[b.Shape]

	return ok || ok2
}

// ApplyTransform moves the geometry by m. Bodies are rotated then
// translated, or linked to the "<name>_bdy" transformation with
// [GeometryDirectives]. Lattice regions get their transformation, or
// "<name>_lat", updated. Meshes shift their extents when the motion is a
// pure translation of an unlinked Cartesian mesh; otherwise their
// transformation, or "<name>_bin", is updated. Created transformations are
// numbered after the existing ones.
//
// The bodies are checked before any change, so a shape that cannot be moved
// leaves g untouched.
func (g *Geometry) ApplyTransform(ctx context.Context, m Motion, opts ...TransformOption) error {
	o := transformOptions{name: DefaultTransformName}

	for _, opt := range opts {
		opt(&o)
	}

	if m.IsZero() {
		return nil
	}

	r, err := m.rotation()
	if err != nil {
		return err
	}

	rotates := len(m.rotations()) > 0

	if !o.directives {
		for _, b := range g.Bodies {
			if b.Transform != nil {
				continue
			}

			if (rotates && !canRotate(b)) || (!m.Translation.IsZero() && !canTranslate(b)) {
				return ErrNotRotatable.With(
					slog.String("body", b.Name), slog.String("shape", b.Shape))
			}
		}
	}

	steps := m.steps()

	var created []*Transformation

	ensure := func(name string) *Transformation {
		if t, i := g.Transform(name); i >= 0 {
			return t
		}

		t := NewTransformation(name, len(g.Transforms)+1)
		g.AddTransform(t)
		created = append(created, t)

		return t
	}

	prepend := func(list []*Transformation, wrap bool) {
		for _, t := range list {
			t.Prepend(steps...)

			if wrap {
				t.Append(inverseSteps(steps)...)
			}
		}
	}

	// bodies
	var bodyTr []*Transformation

	for _, b := range g.Bodies {
		switch {
		case b.Transform != nil:
			bodyTr = addDistinct(bodyTr, b.Transform)

		case o.directives:
			b.Transform = ensure(o.name + "_bdy")
			bodyTr = addDistinct(bodyTr, b.Transform)

		default:
			if rotates {
				if err := b.Rotate(r); err != nil {
					return err
				}
			}

			if err := b.Translate(m.Translation); err != nil {
				return err
			}
		}
	}

	prepend(bodyTr, false)

	// lattices
	var latTr []*Transformation

	for _, reg := range g.Regions {
		if !reg.IsLattice() {
			continue
		}

		if reg.LatticeTransform == nil {
			reg.LatticeTransform = ensure(o.name + "_lat")
		}

		latTr = addDistinct(latTr, reg.LatticeTransform)
	}

	prepend(latTr, o.wrap)

	// meshes
	if !o.onlyGeo {
		var binTr []*Transformation

		for _, u := range g.Bins {
			switch {
			case u.Transform != nil:
				binTr = addDistinct(binTr, u.Transform)

			case !rotates && u.IsCartesian():
				if err := u.Move(m.Translation); err != nil {
					return err
				}

			default:
				u.Transform = ensure(o.name + "_bin")
				binTr = addDistinct(binTr, u.Transform)
			}
		}

		prepend(binTr, false)
	}

	if o.comment != "" {
		for _, t := range created {
			t.Comment = joinComment(highlight(o.comment), t.Comment)
		}
	}

	g.logger.DebugContext(ctx, "transform applied",
		slog.String("name", o.name),
		slog.Int("steps", len(steps)),
		slog.Int("created", len(created)),
		slog.Bool("directives", o.directives),
	)

	return nil
}

func addDistinct(list []*Transformation, t *Transformation) []*Transformation {
	if indexOf(list, t) < 0 {
		list = append(list, t)
	}

	return list
}
