package geom

import (
	"context"
	"log/slog"
)

// CheckTransformations reports every transformation serving more than one
// of the body, lattice, and mesh link classes. Each warning is logged; none
// blocks an operation.
func (g *Geometry) CheckTransformations(ctx context.Context) []*ConsistencyWarning {
	used := make(map[*Transformation]*[3]bool, len(g.Transforms))

	mark := func(t *Transformation, l Link) {
		if t == nil {
			return
		}

		u, ok := used[t]
		if !ok {
			u = new([3]bool)
			used[t] = u
		}

		u[l] = true
	}

	for _, b := range g.Bodies {
		mark(b.Transform, LinkBody)
	}

	for _, r := range g.Regions {
		mark(r.LatticeTransform, LinkLattice)
	}

	for _, u := range g.Bins {
		mark(u.Transform, LinkBin)
	}

	pairs := [][2]Link{
		{LinkBody, LinkLattice},
		{LinkLattice, LinkBin},
		{LinkBin, LinkBody},
	}

	var out []*ConsistencyWarning

	for _, t := range g.Transforms {
		u, ok := used[t]
		if !ok {
			continue
		}

		for _, p := range pairs {
			if u[p[0]] && u[p[1]] {
				w := &ConsistencyWarning{Transform: t.Label(), Kinds: p}
				out = append(out, w)

				g.logger.WarnContext(ctx, "inconsistent transformation use",
					slog.Any("warning", w))
			}
		}
	}

	return out
}
