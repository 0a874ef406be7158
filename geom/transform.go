package geom

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/geodeck/rot"
)

// Step is one ROT-DEFI card: a translation followed by a rotation of
// Azimuth degrees about Axis, applied to particle coordinates during
// tracking.
type Step struct {
	Axis        int // 1, 2, or 3
	Polar       float64
	Azimuth     float64
	Translation rot.Vec
	Comment     string
}

// Rotation returns a step rotating by deg degrees about axis.
func Rotation(axis int, deg float64) Step {
	return Step{Axis: axis, Azimuth: deg}
}

// Translation returns a step translating by d.
func Translation(d rot.Vec) Step {
	return Step{Axis: 3, Translation: d}
}

// apply returns the tracking map of s as x -> A*x + b.
func (s Step) apply() (rot.Matrix, rot.Vec, error) {
	if s.Polar != 0 {
		return rot.Identity(), rot.Vec{}, ErrUsage.Wrapf(
			"polar angle %g in ROT-DEFI step is not supported", s.Polar)
	}

	m, err := rot.Axis(s.Axis, s.Azimuth)
	if err != nil {
		return m, rot.Vec{}, ErrUsage.Wrap(err)
	}

	return m, m.Apply(s.Translation), nil
}

// Transformation is a named chain of ROT-DEFI steps, applied in order.
type Transformation struct {
	Name    string
	ID      int
	Steps   []Step
	Comment string
}

// NewTransformation returns an empty transformation.
func NewTransformation(name string, id int) *Transformation {
	return &Transformation{Name: name, ID: id}
}

// Label returns the name, or the numeric ID of an unnamed transformation.
func (t *Transformation) Label() string {
	if t.Name != "" {
		return t.Name
	}

	return strconv.Itoa(t.ID)
}

// Prepend inserts steps ahead of the existing ones.
func (t *Transformation) Prepend(steps ...Step) {
	t.Steps = append(append(make([]Step, 0, len(steps)+len(t.Steps)),
		steps...), t.Steps...)
}

// Append adds steps after the existing ones.
func (t *Transformation) Append(steps ...Step) {
	t.Steps = append(t.Steps, steps...)
}

// Rigid is a rigid body motion x -> R*x + T.
type Rigid struct {
	R rot.Matrix
	T rot.Vec
}

// Apply moves point x.
func (r Rigid) Apply(x rot.Vec) rot.Vec { return r.R.Apply(x).Add(r.T) }

// Net returns the motion the transformation imposes on the bodies, lattice
// cells, or meshes linked to it. It is the inverse of the composed tracking
// map of the steps.
func (t *Transformation) Net() (Rigid, error) {
	a, b := rot.Identity(), rot.Vec{}

	for _, s := range t.Steps {
		m, c, err := s.apply()
		if err != nil {
			return Rigid{}, WrapError(err).With(slog.String("transform", t.Label()))
		}

		a = m.Mul(a)
		b = m.Apply(b).Add(c)
	}

	r := a.Transpose()

	return Rigid{R: r, T: r.Apply(b).Neg()}, nil
}

// clone returns a deep copy.
func (t *Transformation) clone() *Transformation {
	c := *t
	c.Steps = append([]Step(nil), t.Steps...)

	return &c
}

// encodeWhat1 packs the rotation axis and numeric ID into WHAT(1).
func encodeWhat1(axis, id int) float64 {
	if axis < 1 || axis > 3 {
		axis = 3
	}

	if id >= 100 {
		return float64(axis*1000 + id)
	}

	return float64(axis*100 + id)
}

// decodeWhat1 unpacks WHAT(1). Axis 0 selects the z axis.
func decodeWhat1(v float64) (axis, id int) {
	n := nearInt(v)

	if n >= 1000 {
		axis, id = n/1000, n%1000
	} else {
		axis, id = n/100, n%100
	}

	if axis == 0 {
		axis = 3
	}

	return axis, id
}

// rotDefi holds one parsed ROT-DEFI card.
type rotDefi struct {
	step Step
	id   int
	name string
}

// parseRotDefi reads a ROT-DEFI card in free or fixed format.
func parseRotDefi(text string, free bool) (rotDefi, error) {
	var (
		what [whatCount]string
		sdum string
	)

	if free {
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
		if len(fields) < 1+whatCount || len(fields) > 2+whatCount {
			return rotDefi{}, fmt.Errorf(
				"free-format ROT-DEFI expects %d or %d fields, got %d",
				1+whatCount, 2+whatCount, len(fields))
		}

		copy(what[:], fields[1:1+whatCount])

		if len(fields) > 1+whatCount {
			sdum = fields[1+whatCount]
		}
	} else {
		for i := range what {
			lo := whatStart + i*fieldWidth
			what[i] = column(text, lo, lo+fieldWidth)
		}

		sdum = strings.TrimSpace(column(text, sdumStart, lineWidth))
	}

	var num [whatCount]float64

	for i, w := range what {
		v, err := parseNumber(w)
		if err != nil {
			return rotDefi{}, fmt.Errorf("ROT-DEFI WHAT(%d): %w", i+1, err)
		}

		num[i] = v
	}

	axis, id := decodeWhat1(num[0])

	return rotDefi{
		step: Step{
			Axis:        axis,
			Polar:       num[1],
			Azimuth:     num[2],
			Translation: rot.Vec{num[3], num[4], num[5]},
		},
		id:   id,
		name: sdum,
	}, nil
}

// echoSteps renders the ROT-DEFI cards of t in free format.
func (t *Transformation) echoSteps(b *strings.Builder) {
	writeComment(b, t.Comment)

	for _, s := range t.Steps {
		writeComment(b, s.Comment)

		fields := []string{
			formatFree(encodeWhat1(s.Axis, t.ID)),
			formatFree(s.Polar),
			formatFree(s.Azimuth),
			formatFree(s.Translation[0]),
			formatFree(s.Translation[1]),
			formatFree(s.Translation[2]),
		}

		if t.Name != "" {
			fields = append(fields, t.Name)
		}

		fmt.Fprintf(b, "%-10s%s\n", kwRotDefi, strings.Join(fields, " "))
	}
}
