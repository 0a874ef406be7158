package geom

import (
	"context"
	"log/slog"
	"math"
	"slices"
)

// Output unit range available to USRBIN meshes.
const (
	FirstUnit = 21
	LastUnit  = 99
)

// UnitOption configures [Geometry.ReassignUnits].
type UnitOption func(*unitOptions)

type unitOptions struct {
	used      map[int]bool
	maxBins   int
	maxMeshes int
}

// MaxBins opens a new unit once the meshes sharing one would hold more
// than n bins.
func MaxBins(n int) UnitOption {
	return func(o *unitOptions) { o.maxBins = n }
}

// MaxMeshes opens a new unit once more than n meshes would share one.
func MaxMeshes(n int) UnitOption {
	return func(o *unitOptions) { o.maxMeshes = n }
}

// UsedUnits lists units, taken by other cards, that must not be assigned.
func UsedUnits(units ...int) UnitOption {
	return func(o *unitOptions) {
		for _, u := range units {
			o.used[int(math.Abs(float64(u)))] = true
		}
	}
}

// totalBins returns the number of bins of u.
func (u *Usrbin) totalBins() (int, error) {
	n := 1

	for ax := 1; ax <= 3; ax++ {
		k, err := u.NBins(ax)
		if err != nil {
			return 0, err
		}

		n *= max(k, 1)
	}

	return n, nil
}

// ReassignUnits renumbers the USRBIN output units from [FirstUnit], keeping
// meshes that shared a unit together until the limit set by [MaxBins] or
// [MaxMeshes] is reached, then spilling into the next free unit. Exactly
// one limit must be given. The sign of each unit, which selects the output
// format, is kept. It returns the new units of each original one.
func (g *Geometry) ReassignUnits(ctx context.Context, opts ...UnitOption) (map[int][]int, error) {
	o := unitOptions{used: map[int]bool{}}

	for _, opt := range opts {
		opt(&o)
	}

	if (o.maxBins > 0) == (o.maxMeshes > 0) {
		return nil, ErrUsage.Wrapf("exactly one of a bin or a mesh limit per unit is needed")
	}

	var units []int

	for _, u := range g.Bins {
		if !slices.Contains(units, u.Unit()) {
			units = append(units, u.Unit())
		}
	}

	slices.SortStableFunc(units, func(a, b int) int {
		return int(math.Abs(float64(a))) - int(math.Abs(float64(b)))
	})

	current := make([]int, len(units))
	highest := 0

	next := func(u int) (int, error) {
		for o.used[u] || u <= highest {
			u++
		}

		if u > LastUnit {
			return 0, ErrUsage.With(slog.Int("unit", u)).
				Wrapf("more than %d output units needed", LastUnit-FirstUnit+1)
		}

		highest = max(highest, u)

		return u, nil
	}

	for i := range units {
		u, err := next(FirstUnit + i)
		if err != nil {
			return nil, err
		}

		current[i] = u
	}

	var (
		filled = make([]int, len(units))
		assign = make([]int, len(g.Bins))
		out    = map[int][]int{}
	)

	for i, u := range units {
		out[u] = []int{current[i]}
	}

	for k, b := range g.Bins {
		i := slices.Index(units, b.Unit())

		add := 1
		limit := o.maxMeshes

		if o.maxBins > 0 {
			n, err := b.totalBins()
			if err != nil {
				return nil, err
			}

			add, limit = n, o.maxBins
		}

		if filled[i] > 0 && filled[i]+add > limit {
			u, err := next(current[i])
			if err != nil {
				return nil, err
			}

			current[i], filled[i] = u, 0
			out[units[i]] = append(out[units[i]], u)
		}

		filled[i] += add
		assign[k] = current[i]
	}

	for k, b := range g.Bins {
		b.SetUnit(assign[k])
	}

	for _, u := range units {
		g.logger.DebugContext(ctx, "units reassigned",
			slog.Int("old", u), slog.Any("new", out[u]))
	}

	return out, nil
}
