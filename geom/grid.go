package geom

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/geodeck/rot"
)

// Placement locates one grid cell: the prototype Proto moved to Point with
// a rotation given by Angles or, when there are none, by Matrix.
type Placement struct {
	Point     rot.Vec
	Matrix    *rot.Matrix
	Angles    []rot.AxisAngle
	Proto     int
	NoScoring bool // leave the prototype scorings out of this cell
}

// Motion returns the rigid motion of p.
func (p Placement) Motion() Motion {
	m := Motion{Translation: p.Point}

	if len(p.Angles) > 0 {
		m.Angles = p.Angles
	} else {
		m.Matrix = p.Matrix
	}

	return m
}

// undo returns the motions bringing a cell placed at p back to its
// prototype frame: the translation first, then the rotation.
func (p Placement) undo() []Motion {
	back := []Motion{{Translation: p.Point.Neg()}}

	switch {
	case len(p.Angles) > 0:
		back = append(back, Motion{Angles: rot.Invert(p.Angles)})
	case p.Matrix != nil:
		t := p.Matrix.Transpose()
		back = append(back, Motion{Matrix: &t})
	}

	return back
}

func (p Placement) describe() string {
	var b strings.Builder

	fmt.Fprintf(&b, "* point: % 13.6E % 13.6E % 13.6E", p.Point[0], p.Point[1], p.Point[2])

	switch {
	case len(p.Angles) > 0:
		for _, a := range p.Angles {
			fmt.Fprintf(&b, "\n* rotation: axis %d by % 13.6E deg", a.Axis, a.Angle)
		}

	case p.Matrix != nil:
		for _, row := range p.Matrix {
			fmt.Fprintf(&b, "\n* matrix: % 13.6E % 13.6E % 13.6E", row[0], row[1], row[2])
		}
	}

	return b.String()
}

// GridOption configures [BuildGrid].
type GridOption func(*gridOptions)

type gridOptions struct {
	prefix     string
	outer      []string
	transform  []TransformOption
	lattice    bool
	headerNote bool
}

// DefaultNamePrefix formats the name prefix of the i-th grid cell.
const DefaultNamePrefix = "GR%03d"

// Lattice builds later placements of a prototype as lattice cells of its
// first placement.
func Lattice() GridOption {
	return func(o *gridOptions) { o.lattice = true }
}

// OuterRegions names the prototype regions sized by the hive cells. They
// are flagged as contained, centered on the placement point.
func OuterRegions(names ...string) GridOption {
	return func(o *gridOptions) { o.outer = append(o.outer, names...) }
}

// NamePrefix sets the format of the per-cell name prefix; it receives the
// 0-based cell index.
func NamePrefix(format string) GridOption {
	return func(o *gridOptions) { o.prefix = format }
}

// HeadComments heads each cell with a comment naming its prototype and
// placement.
func HeadComments() GridOption {
	return func(o *gridOptions) { o.headerNote = true }
}

// CellTransform passes options to the transformations of every cell.
func CellTransform(opts ...TransformOption) GridOption {
	return func(o *gridOptions) { o.transform = append(o.transform, opts...) }
}

// BuildGrid returns one moved and renamed copy of a prototype per
// placement. In lattice mode, only the first placement of each prototype is
// a full copy; later ones are lattice stand-ins whose transformation is the
// motion from the first placement to theirs.
func BuildGrid(
	ctx context.Context,
	placements []Placement,
	protos []*Geometry,
	opts ...GridOption,
) ([]*Geometry, error) {
	o := gridOptions{prefix: DefaultNamePrefix}

	for _, opt := range opts {
		opt(&o)
	}

	for i, p := range placements {
		if p.Proto < 0 || p.Proto >= len(protos) {
			return nil, ErrLookup.With(slog.Int("cell", i), slog.Int("prototype", p.Proto)).
				Wrapf("unknown prototype %d", p.Proto)
		}
	}

	var (
		cells = make([]*Geometry, 0, len(placements))
		first = map[int]int{}
	)

	logger := firstLogger(protos)

	for i, p := range placements {
		proto := protos[p.Proto]

		var copyOpts []CopyOption
		if p.NoScoring {
			copyOpts = append(copyOpts, NoScoring())
		}

		j, seen := first[p.Proto]
		full := !o.lattice || !seen

		var cell *Geometry

		if full {
			cell = proto.Clone(copyOpts...)
			first[p.Proto] = i
		} else {
			cell = proto.LatticeCopy(LatticeRegion, copyOpts...)

			for _, m := range placements[j].undo() {
				topts := append(append([]TransformOption(nil), o.transform...), OnlyGeometry())
				if err := cell.ApplyTransform(ctx, m, topts...); err != nil {
					return nil, err
				}
			}
		}

		if err := cell.ApplyTransform(ctx, p.Motion(), o.transform...); err != nil {
			return nil, err
		}

		outer := o.outer
		if !full {
			outer = []string{LatticeRegion}
		}

		if err := cell.FlagRegions(outer, ContContained, p.Point); err != nil {
			return nil, err
		}

		prefix := fmt.Sprintf(o.prefix, i)
		if err := cell.Rename(ctx, prefix); err != nil {
			return nil, err
		}

		if o.headerNote {
			cell.Head(fmt.Sprintf("GRID cell # %3d - family name: %s - prototype: %s\n%s",
				i, prefix, proto.Title, p.describe()))
		}

		logger.TraceContext(ctx, "grid cell built",
			slog.Int("cell", i), slog.String("prefix", prefix), slog.Bool("lattice", !full))

		cells = append(cells, cell)
	}

	logger.InfoContext(ctx, "grid built", slog.Int("cells", len(cells)))

	return cells, nil
}
