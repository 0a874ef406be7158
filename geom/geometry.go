package geom

import (
	"iter"
	"log/slog"
	"strings"

	"github.com/ardnew/geodeck/log"
)

// Entity is anything a query can return.
type Entity interface {
	Label() string
}

// Geometry owns the ordered bodies, regions, transformations, and scoring
// detectors of one deck. Insertion order is echo order.
type Geometry struct {
	Title      string
	Bodies     []*Body
	Regions    []*Region
	Transforms []*Transformation
	Bins       []*Usrbin
	Scorings   []*RegionScoring

	logger log.Logger
}

// New returns an empty geometry.
func New(opts ...Option) *Geometry {
	o := makeOptions(opts...)

	return &Geometry{logger: o.logger}
}

// Logger returns the logger used by operations on g.
func (g *Geometry) Logger() log.Logger { return g.logger }

// SetLogger replaces the logger used by operations on g.
func (g *Geometry) SetLogger(l log.Logger) { g.logger = l }

// AddBody appends bodies.
func (g *Geometry) AddBody(b ...*Body) { g.Bodies = append(g.Bodies, b...) }

// AddRegion appends regions.
func (g *Geometry) AddRegion(r ...*Region) { g.Regions = append(g.Regions, r...) }

// AddTransform appends transformations.
func (g *Geometry) AddTransform(t ...*Transformation) {
	g.Transforms = append(g.Transforms, t...)
}

// AddScoring appends a detector to the bins or the region scorings.
func (g *Geometry) AddScoring(s Scoring) {
	switch s := s.(type) {
	case *Usrbin:
		g.Bins = append(g.Bins, s)
	case *RegionScoring:
		g.Scorings = append(g.Scorings, s)
	}
}

// AllScorings yields the bins followed by the region scorings.
func (g *Geometry) AllScorings() iter.Seq[Scoring] {
	return func(yield func(Scoring) bool) {
		for _, b := range g.Bins {
			if !yield(b) {
				return
			}
		}

		for _, s := range g.Scorings {
			if !yield(s) {
				return
			}
		}
	}
}

// Body returns the first body named name.
func (g *Geometry) Body(name string) (*Body, int) { return find(g.Bodies, name) }

// Region returns the first region named name.
func (g *Geometry) Region(name string) (*Region, int) { return find(g.Regions, name) }

// Transform returns the first transformation labeled name.
func (g *Geometry) Transform(name string) (*Transformation, int) {
	return find(g.Transforms, name)
}

// Bin returns the first USRBIN named name.
func (g *Geometry) Bin(name string) (*Usrbin, int) { return find(g.Bins, name) }

func find[E Entity](list []E, name string) (E, int) {
	for i, e := range list {
		if e.Label() == name {
			return e, i
		}
	}

	var zero E

	return zero, -1
}

func indexOf[E comparable](list []E, e E) int {
	for i, x := range list {
		if x == e {
			return i
		}
	}

	return -1
}

// AssignMaterial fills the regions from first to last (inclusive, every
// step-th) with mat. An empty last selects first only; a last region that
// precedes first is an [ErrUsage] error.
func (g *Geometry) AssignMaterial(mat, first, last string, step int) error {
	_, i := g.Region(first)
	if i < 0 {
		return ErrLookup.With(slog.String("region", first))
	}

	j := i
	if last != "" {
		if _, j = g.Region(last); j < 0 {
			return ErrLookup.With(slog.String("region", last))
		}
	}

	if j < i {
		return ErrUsage.With(slog.String("first", first), slog.String("last", last)).
			Wrapf("region %s precedes %s", last, first)
	}

	if step < 1 {
		step = 1
	}

	for k := i; k <= j; k += step {
		g.Regions[k].Material = mat
	}

	return nil
}

// Validate checks that every transformation linked from a body, lattice
// region, or mesh belongs to g.
func (g *Geometry) Validate() error {
	check := func(t *Transformation, kind, owner string) error {
		if t == nil || indexOf(g.Transforms, t) >= 0 {
			return nil
		}

		return ErrLookup.With(
			slog.String("transform", t.Label()),
			slog.String(kind, owner),
		)
	}

	for _, b := range g.Bodies {
		if err := check(b.Transform, "body", b.Name); err != nil {
			return err
		}
	}

	for _, r := range g.Regions {
		if err := check(r.LatticeTransform, "lattice", r.Name); err != nil {
			return err
		}
	}

	for _, b := range g.Bins {
		if err := check(b.Transform, "usrbin", b.name); err != nil {
			return err
		}
	}

	return nil
}

// Head prepends a highlighted comment to the first body, region,
// transformation, and mesh.
func (g *Geometry) Head(text string) {
	c := highlight(text)

	if len(g.Bodies) > 0 {
		g.Bodies[0].Comment = joinComment(c, g.Bodies[0].Comment)
	}

	if len(g.Regions) > 0 {
		g.Regions[0].Comment = joinComment(c, g.Regions[0].Comment)
	}

	if len(g.Transforms) > 0 {
		g.Transforms[0].Comment = joinComment(c, g.Transforms[0].Comment)
	}

	if len(g.Bins) > 0 {
		g.Bins[0].comment = joinComment(c, g.Bins[0].comment)
	}
}

// Counts returns the number of entities of each kind, for logging.
func (g *Geometry) Counts() []slog.Attr {
	return []slog.Attr{
		slog.Int("bodies", len(g.Bodies)),
		slog.Int("regions", len(g.Regions)),
		slog.Int("transforms", len(g.Transforms)),
		slog.Int("usrbins", len(g.Bins)),
		slog.Int("scorings", len(g.Scorings)),
	}
}

const highlightRule = "* " + "==============================================================="

func highlight(text string) string {
	lines := []string{highlightRule}

	for l := range strings.SplitSeq(strings.TrimRight(text, "\n"), "\n") {
		if !strings.HasPrefix(l, "*") {
			l = "* " + l
		}

		lines = append(lines, l)
	}

	return strings.Join(append(lines, highlightRule), "\n")
}

func isComment(line string) bool { return strings.HasPrefix(line, "*") }

func isSeparator(line string) bool { return strings.TrimSpace(line) == "*" }

// joinComment joins comment blocks, skipping empty ones.
func joinComment(parts ...string) string {
	var keep []string

	for _, p := range parts {
		if p != "" {
			keep = append(keep, p)
		}
	}

	return strings.Join(keep, "\n")
}

func writeComment(b *strings.Builder, c string) {
	if c != "" {
		b.WriteString(c)
		b.WriteByte('\n')
	}
}
