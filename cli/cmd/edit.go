package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/geodeck/geom"
	"github.com/ardnew/geodeck/log"
	"github.com/ardnew/geodeck/rot"
)

// Rename gives every entity of a deck an indexed name.
type Rename struct {
	Prefix    string   `arg:""        help:"Name prefix."`
	Keep      []string `              help:"Keep a name, as CLASS=NAME (class: body, region, transform, usrbin, scoring)." placeholder:"CLASS=NAME"`
	Digits    int      `default:"2"   help:"Minimum index width of geometry names."`
	Separator string   `              help:"Text between the prefix and the index."`

	In  DeckIn  `embed:""`
	Out DeckOut `embed:""`
}

func (r *Rename) options() ([]geom.RenameOption, error) {
	opts := []geom.RenameOption{geom.Digits(r.Digits), geom.Separator(r.Separator)}

	for _, k := range r.Keep {
		class, name, ok := strings.Cut(k, "=")
		if !ok || name == "" {
			return nil, ErrArgument.Wrapf("--keep %q is not CLASS=NAME", k)
		}

		sel, err := geom.ParseSelector(class)
		if err != nil {
			return nil, ErrArgument.Wrap(err)
		}

		switch sel {
		case geom.SelBody, geom.SelRegion, geom.SelTransform, geom.SelBin, geom.SelScoring:
		default:
			return nil, ErrArgument.Wrapf("--keep class %s cannot be renamed", sel)
		}

		opts = append(opts, geom.Keep(sel, name))
	}

	return opts, nil
}

// Run executes the rename command.
func (r *Rename) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	opts, err := r.options()
	if err != nil {
		return err
	}

	g, err := r.In.read(ctx)
	if err != nil {
		return err
	}

	if err := g.Rename(ctx, r.Prefix, opts...); err != nil {
		return err
	}

	return r.Out.write(ctx, g)
}

// Transform moves a deck by a rigid motion.
type Transform struct {
	Translate    []float64 `help:"Translation applied after the rotations."                                          placeholder:"X,Y,Z" sep:","`
	Rotate       []string  `help:"Rotation about a coordinate axis in degrees; repeat to compose in order."         placeholder:"AXIS:DEG"`
	Inverse      bool      `help:"Apply the inverse motion."`
	Directives   bool      `help:"Link bodies to ROT-DEFI transformations instead of rewriting their parameters."`
	OnlyGeometry bool      `help:"Leave USRBIN meshes alone."`
	Wrap         bool      `help:"Surround existing lattice transformations with the motion and its inverse."`
	Name         string    `help:"Prefix of created transformations."                                               default:"${transformName}"`
	Comment      string    `help:"Comment heading created transformations."`

	In  DeckIn  `embed:""`
	Out DeckOut `embed:""`
}

// motion builds the motion given on the command line.
func (t *Transform) motion() (geom.Motion, error) {
	var m geom.Motion

	switch len(t.Translate) {
	case 0:
	case 3:
		m.Translation = rot.Vec{t.Translate[0], t.Translate[1], t.Translate[2]}
	default:
		return m, ErrArgument.Wrapf("--translate needs 3 components, got %d", len(t.Translate))
	}

	for _, r := range t.Rotate {
		a, err := parseAxisAngle(r)
		if err != nil {
			return m, err
		}

		m.Angles = append(m.Angles, a)
	}

	if t.Inverse {
		return m.Inverse()
	}

	return m, nil
}

// parseAxisAngle reads AXIS:DEG, the axis given as 1-3 or x, y, z.
func parseAxisAngle(s string) (rot.AxisAngle, error) {
	axis, deg, ok := strings.Cut(s, ":")
	if !ok {
		return rot.AxisAngle{}, ErrArgument.Wrapf("rotation %q is not AXIS:DEG", s)
	}

	var n int

	switch strings.ToLower(strings.TrimSpace(axis)) {
	case "1", "x":
		n = 1
	case "2", "y":
		n = 2
	case "3", "z":
		n = 3
	default:
		return rot.AxisAngle{}, ErrArgument.Wrapf("rotation axis %q is not 1, 2, 3, x, y, or z", axis)
	}

	a, err := strconv.ParseFloat(strings.TrimSpace(deg), 64)
	if err != nil {
		return rot.AxisAngle{}, ErrArgument.Wrap(err).With(slog.String("rotation", s))
	}

	return rot.AxisAngle{Axis: n, Angle: a}, nil
}

func (t *Transform) options() []geom.TransformOption {
	var opts []geom.TransformOption

	if t.Name != "" {
		opts = append(opts, geom.TransformName(t.Name))
	}

	if t.Directives {
		opts = append(opts, geom.GeometryDirectives())
	}

	if t.OnlyGeometry {
		opts = append(opts, geom.OnlyGeometry())
	}

	if t.Wrap {
		opts = append(opts, geom.Wrap())
	}

	if t.Comment != "" {
		opts = append(opts, geom.HeadComment(t.Comment))
	}

	return opts
}

// Run executes the transform command.
func (t *Transform) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	m, err := t.motion()
	if err != nil {
		return err
	}

	g, err := t.In.read(ctx)
	if err != nil {
		return err
	}

	if err := g.ApplyTransform(ctx, m, t.options()...); err != nil {
		return err
	}

	return t.Out.write(ctx, g)
}

// Units renumbers the USRBIN output units.
type Units struct {
	MaxBins   int   `help:"Open a new unit once the meshes sharing one would exceed this many bins." xor:"limit"`
	MaxMeshes int   `help:"Open a new unit once more than this many meshes would share one."         xor:"limit"`
	Used      []int `help:"Units taken by other cards."                                               sep:","`

	In  DeckIn  `embed:""`
	Out DeckOut `embed:""`
}

// Run executes the units command.
func (u *Units) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	var opts []geom.UnitOption

	if u.MaxBins > 0 {
		opts = append(opts, geom.MaxBins(u.MaxBins))
	}

	if u.MaxMeshes > 0 {
		opts = append(opts, geom.MaxMeshes(u.MaxMeshes))
	}

	if len(u.Used) > 0 {
		opts = append(opts, geom.UsedUnits(u.Used...))
	}

	g, err := u.In.read(ctx)
	if err != nil {
		return err
	}

	mapping, err := g.ReassignUnits(ctx, opts...)
	if err != nil {
		return err
	}

	for _, old := range slices.Sorted(maps.Keys(mapping)) {
		log.InfoContext(ctx, "unit reassigned",
			slog.Int("unit", old),
			slog.String("to", fmt.Sprint(mapping[old])),
		)
	}

	return u.Out.write(ctx, g)
}
