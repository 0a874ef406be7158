package layout

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/geodeck/geom"
	"github.com/ardnew/geodeck/log"
	"github.com/ardnew/geodeck/rot"
)

// Layout errors.
var (
	ErrLayout = geom.NewError("invalid layout")
	ErrExpr   = geom.NewError("expression failed")
)

// Document describes a gridded geometry: prototype decks placed at a list of
// locations, optionally merged into the container regions of a hive deck.
type Document struct {
	Title      string      `yaml:"title"`
	Vars       Vars        `yaml:"vars"`
	Prototypes []Prototype `yaml:"prototypes"`
	Cells      []Cell      `yaml:"cells"`
	Hive       *Hive       `yaml:"hive"`
	Blackhole  *Blackhole  `yaml:"blackhole"`

	Lattice    bool     `yaml:"lattice"`
	Prefix     string   `yaml:"prefix"`
	Outer      []string `yaml:"outer"`
	Directives bool     `yaml:"directives"`
	Headers    bool     `yaml:"headers"`
	Tolerance  float64  `yaml:"tolerance"`
}

// Prototype names a deck of the library. Cells refer to it by Name, which
// defaults to the deck name.
type Prototype struct {
	Name      string `yaml:"name"`
	Deck      string `yaml:"deck"`
	NoScoring bool   `yaml:"noScoring"`
}

// Angle is one elementary rotation about a coordinate axis.
type Angle struct {
	Axis  int    `yaml:"axis"`
	Angle Number `yaml:"angle"`
}

// Repeat expands a cell Count times, binding Var to 0, 1, ... Count-1.
type Repeat struct {
	Var   string `yaml:"var"`
	Count Number `yaml:"count"`
}

// Cell places one prototype.
type Cell struct {
	Proto     string   `yaml:"proto"`
	Point     Vector   `yaml:"point"`
	Angles    []Angle  `yaml:"angles"`
	Matrix    []Vector `yaml:"matrix"`
	Repeat    []Repeat `yaml:"repeat"`
	NoScoring bool     `yaml:"noScoring"`
}

// Container flags one hive region as holding the cell placed at Center.
type Container struct {
	Region string `yaml:"region"`
	Center Vector `yaml:"center"`
}

// Hive is the deck whose container regions receive the cells.
type Hive struct {
	Deck       string      `yaml:"deck"`
	Containers []Container `yaml:"containers"`
}

// Blackhole wraps the result in a blackhole shell.
type Blackhole struct {
	Outer    []string `yaml:"outer"`
	RMin     Number   `yaml:"rmin"`
	RMax     Number   `yaml:"rmax"`
	Material string   `yaml:"material"`
}

// Vars holds the document variables in declaration order.
type Vars []Var

// Var is one named expression.
type Var struct {
	Name  string
	Value Number
}

// UnmarshalYAML reads a mapping keeping its key order.
func (v *Vars) UnmarshalYAML(data []byte) error {
	var raw any
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap()); err != nil {
		return err
	}

	if raw == nil {
		*v = nil

		return nil
	}

	m, ok := raw.(yaml.MapSlice)
	if !ok {
		return ErrLayout.Wrapf("vars must be a mapping, got %T", raw)
	}

	*v = make(Vars, 0, len(m))

	for _, item := range m {
		name, ok := item.Key.(string)
		if !ok {
			return ErrLayout.Wrapf("variable name %v is not a string", item.Key)
		}

		var n Number

		switch t := item.Value.(type) {
		case string:
			n = Number(t)
		default:
			n = Number(fmt.Sprint(t))
		}

		*v = append(*v, Var{Name: name, Value: n})
	}

	return nil
}

// Decode reads a layout document.
func Decode(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, geom.ErrReadInput.Wrap(err)
	}

	var d Document
	if err := yaml.UnmarshalContext(ctx, data, &d, yaml.Strict()); err != nil {
		return nil, ErrLayout.Wrap(err)
	}

	return &d, nil
}

// DecodeFile reads the layout document at path.
func DecodeFile(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, geom.ErrReadInput.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	d, err := Decode(ctx, f)
	if err != nil {
		return nil, geom.WrapError(err).With(slog.String("path", path))
	}

	return d, nil
}

// Env evaluates the variables in order; each may use the ones before it.
func (d *Document) Env() (Env, error) {
	env := NewEnv()

	for _, v := range d.Vars {
		x, err := env.Eval(v.Value)
		if err != nil {
			return nil, geom.WrapError(err).With(slog.String("var", v.Name))
		}

		env = env.With(v.Name, x)
	}

	return env, nil
}

// Loader supplies prototype and hive geometries by deck name.
type Loader interface {
	Load(ctx context.Context, name string) (*geom.Geometry, error)
}

// Placements expands the cells into grid placements. It also returns the
// prototype names in the order their indices refer to.
func (d *Document) Placements(env Env) ([]geom.Placement, []string, error) {
	index := map[string]int{}
	names := make([]string, 0, len(d.Prototypes))

	for _, p := range d.Prototypes {
		name := p.label()
		if _, dup := index[name]; dup {
			return nil, nil, ErrLayout.Wrapf("prototype %q declared twice", name)
		}

		index[name] = len(names)
		names = append(names, name)
	}

	var out []geom.Placement

	for i, c := range d.Cells {
		proto, ok := index[c.Proto]
		if !ok {
			return nil, nil, geom.ErrLookup.With(slog.Int("cell", i)).
				Wrapf("cell refers to unknown prototype %q", c.Proto)
		}

		noScoring := c.NoScoring || d.Prototypes[proto].NoScoring

		err := c.expand(env, c.Repeat, func(env Env) error {
			p, err := c.placement(env)
			if err != nil {
				return err
			}

			p.Proto, p.NoScoring = proto, noScoring
			out = append(out, p)

			return nil
		})
		if err != nil {
			return nil, nil, geom.WrapError(err).With(slog.Int("cell", i))
		}
	}

	return out, names, nil
}

func (p Prototype) label() string {
	if p.Name != "" {
		return p.Name
	}

	return p.Deck
}

// expand calls fn once per combination of the repeat counters, the first
// counter varying slowest.
func (c Cell) expand(env Env, reps []Repeat, fn func(Env) error) error {
	if len(reps) == 0 {
		return fn(env)
	}

	r := reps[0]
	if r.Var == "" {
		return ErrLayout.Wrapf("repeat without a variable name")
	}

	n, err := env.Int(r.Count)
	if err != nil {
		return err
	}

	for k := range n {
		if err := c.expand(env.With(r.Var, float64(k)), reps[1:], fn); err != nil {
			return err
		}
	}

	return nil
}

func (c Cell) placement(env Env) (geom.Placement, error) {
	point, err := env.Vec(c.Point)
	if err != nil {
		return geom.Placement{}, err
	}

	p := geom.Placement{Point: rot.Vec(point)}

	for _, a := range c.Angles {
		deg, err := env.Eval(a.Angle)
		if err != nil {
			return p, err
		}

		p.Angles = append(p.Angles, rot.AxisAngle{Axis: a.Axis, Angle: deg})
	}

	if len(c.Matrix) > 0 {
		if len(c.Matrix) != 3 {
			return p, ErrLayout.Wrapf("matrix needs 3 rows, got %d", len(c.Matrix))
		}

		var m rot.Matrix

		for i, row := range c.Matrix {
			v, err := env.Vec(row)
			if err != nil {
				return p, err
			}

			m[i] = v
		}

		p.Matrix = &m
	}

	return p, nil
}

// Build loads the decks, builds one cell per placement, and merges them into
// the hive when the document has one. Without a hive the cells are
// concatenated.
func (d *Document) Build(ctx context.Context, l Loader, logger log.Logger) (*geom.Geometry, error) {
	env, err := d.Env()
	if err != nil {
		return nil, err
	}

	placements, names, err := d.Placements(env)
	if err != nil {
		return nil, err
	}

	protos := make([]*geom.Geometry, len(names))

	for i, p := range d.Prototypes {
		if protos[i], err = l.Load(ctx, p.Deck); err != nil {
			return nil, err
		}
	}

	var opts []geom.GridOption

	if d.Lattice {
		opts = append(opts, geom.Lattice())
	}

	if d.Prefix != "" {
		opts = append(opts, geom.NamePrefix(d.Prefix))
	}

	if len(d.Outer) > 0 {
		opts = append(opts, geom.OuterRegions(d.Outer...))
	}

	if d.Headers {
		opts = append(opts, geom.HeadComments())
	}

	if d.Directives {
		opts = append(opts, geom.CellTransform(geom.GeometryDirectives()))
	}

	cells, err := geom.BuildGrid(ctx, placements, protos, opts...)
	if err != nil {
		return nil, err
	}

	title := d.Title

	var g *geom.Geometry

	if d.Hive == nil {
		if title == "" {
			title = "grid of " + strings.Join(names, ", ")
		}

		g = geom.Append(title, cells...)
	} else {
		if g, err = d.merge(ctx, l, env, cells); err != nil {
			return nil, err
		}
	}

	if b := d.Blackhole; b != nil {
		if g, err = b.wrap(ctx, env, g); err != nil {
			return nil, err
		}
	}

	logger.InfoContext(ctx, "layout built",
		append(g.Counts(), slog.Int("cells", len(cells)))...)

	return g, nil
}

func (d *Document) merge(ctx context.Context, l Loader, env Env, cells []*geom.Geometry) (*geom.Geometry, error) {
	hive, err := l.Load(ctx, d.Hive.Deck)
	if err != nil {
		return nil, err
	}

	for _, c := range d.Hive.Containers {
		center, err := env.Vec(c.Center)
		if err != nil {
			return nil, geom.WrapError(err).With(slog.String("region", c.Region))
		}

		if err := hive.FlagRegions([]string{c.Region}, geom.ContContainer, center); err != nil {
			return nil, err
		}
	}

	var mopts []geom.MergeOption
	if d.Tolerance > 0 {
		mopts = append(mopts, geom.Tolerance(d.Tolerance))
	}

	hives := []*geom.Geometry{hive}

	m, err := geom.MapByCoordinates(hives, cells, mopts...)
	if err != nil {
		return nil, err
	}

	title := d.Title
	if title == "" {
		title = hive.Title
	}

	return geom.Merge(ctx, title, hives, cells, m)
}

func (b *Blackhole) wrap(ctx context.Context, env Env, g *geom.Geometry) (*geom.Geometry, error) {
	rMin, err := env.Eval(b.RMin)
	if err != nil {
		return nil, err
	}

	rMax, err := env.Eval(b.RMax)
	if err != nil {
		return nil, err
	}

	mat := b.Material
	if mat == "" {
		mat = "VACUUM"
	}

	return geom.WrapBlackhole(ctx, g, b.Outer, rMin, rMax, mat)
}
