package geom

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/geodeck/log"
	"github.com/ardnew/geodeck/rot"
)

// MapMode tells which side of a mapping survives the merge.
type MapMode int

// Mapping modes.
const (
	// OneHive: each location has one container region, folded into every
	// contained region it matches and then removed.
	OneHive MapMode = iota
	// OneGrid: each location has one contained region, folded into every
	// container region it matches and then removed.
	OneGrid
)

func (m MapMode) String() string {
	switch m {
	case OneHive:
		return "oneHive"
	case OneGrid:
		return "oneGrid"
	default:
		return fmt.Sprintf("MapMode(%d)", int(m))
	}
}

// RegionRef locates a region in a list of geometries.
type RegionRef struct {
	Geometry int // index in the geometry list
	Region   int // index in the geometry's regions
}

// Pair matches a container region of the hives with a contained region of
// the grids.
type Pair struct {
	Hive RegionRef
	Grid RegionRef
}

// Mapping is the result of a region mapper.
type Mapping struct {
	Mode  MapMode
	Pairs []Pair
}

// MapTolerance is the distance under which two region centers coincide.
const MapTolerance = 0.001

// MergeOption configures the region mappers.
type MergeOption func(*mergeOptions)

type mergeOptions struct {
	tolerance      float64
	allowUnmatched bool
}

func makeMergeOptions(opts []MergeOption) mergeOptions {
	o := mergeOptions{tolerance: MapTolerance}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// AllowUnmatched accepts flagged regions left without a partner.
func AllowUnmatched() MergeOption {
	return func(o *mergeOptions) { o.allowUnmatched = true }
}

// Tolerance sets the center matching distance.
func Tolerance(tol float64) MergeOption {
	return func(o *mergeOptions) { o.tolerance = tol }
}

// FlagRegions tags the named regions ("ALL" for every one) with c and
// center. An unknown name fails before any region is tagged.
func (g *Geometry) FlagRegions(names []string, c Containment, center rot.Vec) error {
	var regs []*Region

	for _, n := range names {
		if strings.EqualFold(n, All) {
			regs = g.Regions

			break
		}

		r, i := g.Region(n)
		if i < 0 {
			return ErrLookup.With(slog.String("region", n))
		}

		regs = append(regs, r)
	}

	for _, r := range regs {
		r.Flag(c, center, r.MaxLen)
	}

	return nil
}

type flagged struct {
	ref    RegionRef
	region *Region
}

func collectFlagged(geos []*Geometry, c Containment) []flagged {
	var out []flagged

	for j, g := range geos {
		for i, r := range g.Regions {
			if r.Cont == c {
				out = append(out, flagged{RegionRef{j, i}, r})
			}
		}
	}

	return out
}

func uniqueCenters(list []flagged, tol float64) bool {
	for i := range list {
		for j := i + 1; j < len(list); j++ {
			if list[i].region.Center.Dist(list[j].region.Center) < tol {
				return false
			}
		}
	}

	return true
}

func emptyFlags(hives, grids []flagged) error {
	switch {
	case len(hives) == 0:
		return ErrLookup.Wrapf("no container region flagged in the hive")
	case len(grids) == 0:
		return ErrLookup.Wrapf("no contained region flagged in the grid")
	}

	return nil
}

// MapByCoordinates pairs container regions of the hives with contained
// regions of the grids whose centers coincide. When container centers are
// unique the mode is [OneHive]; otherwise, when contained centers are
// unique, it is [OneGrid]; otherwise the mapping is ambiguous.
func MapByCoordinates(hives, grids []*Geometry, opts ...MergeOption) (*Mapping, error) {
	o := makeMergeOptions(opts)

	hs := collectFlagged(hives, ContContainer)
	gs := collectFlagged(grids, ContContained)

	if err := emptyFlags(hs, gs); err != nil {
		return nil, err
	}

	m := &Mapping{}

	near := func(h, g flagged) bool {
		return h.region.Center.Dist(g.region.Center) < o.tolerance
	}

	switch {
	case uniqueCenters(hs, o.tolerance):
		m.Mode = OneHive

		for _, h := range hs {
			for _, g := range gs {
				if near(h, g) {
					m.Pairs = append(m.Pairs, Pair{h.ref, g.ref})
				}
			}
		}

	case uniqueCenters(gs, o.tolerance):
		m.Mode = OneGrid

		for _, g := range gs {
			for _, h := range hs {
				if near(h, g) {
					m.Pairs = append(m.Pairs, Pair{h.ref, g.ref})
				}
			}
		}

	default:
		return nil, ErrCardinality.With(
			slog.Int("containers", len(hs)), slog.Int("contained", len(gs))).
			Wrapf("several container and several contained regions share a location")
	}

	if !o.allowUnmatched {
		if err := unmatched(m, hs, gs); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// unmatched reports the first flagged region no pair uses.
func unmatched(m *Mapping, hs, gs []flagged) error {
	usedH, usedG := map[RegionRef]bool{}, map[RegionRef]bool{}

	for _, p := range m.Pairs {
		usedH[p.Hive], usedG[p.Grid] = true, true
	}

	for _, h := range hs {
		if !usedH[h.ref] {
			return ErrLookup.With(slog.String("region", h.region.Name)).
				Wrapf("container region %s matches no contained region", h.region.Name)
		}
	}

	for _, g := range gs {
		if !usedG[g.ref] {
			return ErrLookup.With(slog.String("region", g.region.Name)).
				Wrapf("contained region %s matches no container region", g.region.Name)
		}
	}

	return nil
}

// MapByFlags pairs flagged regions by tag alone: one contained region with
// every container ([OneGrid]), or one container with every contained region
// ([OneHive]). Several of both is an [ErrCardinality] error.
func MapByFlags(hives, grids []*Geometry) (*Mapping, error) {
	hs := collectFlagged(hives, ContContainer)
	gs := collectFlagged(grids, ContContained)

	if err := emptyFlags(hs, gs); err != nil {
		return nil, err
	}

	m := &Mapping{}

	switch {
	case len(hs) > 1 && len(gs) > 1:
		return nil, ErrCardinality.With(
			slog.Int("containers", len(hs)), slog.Int("contained", len(gs))).
			Wrapf("cannot merge many contained regions into many container regions")

	case len(gs) == 1:
		m.Mode = OneGrid

		for _, h := range hs {
			m.Pairs = append(m.Pairs, Pair{h.ref, gs[0].ref})
		}

	default:
		m.Mode = OneHive

		for _, g := range gs {
			m.Pairs = append(m.Pairs, Pair{hs[0].ref, g.ref})
		}
	}

	return m, nil
}

func resolve(geos []*Geometry, ref RegionRef, side string) (*Geometry, *Region, error) {
	if ref.Geometry < 0 || ref.Geometry >= len(geos) {
		return nil, nil, ErrLookup.With(slog.Int(side, ref.Geometry)).
			Wrapf("%s geometry %d out of range", side, ref.Geometry)
	}

	g := geos[ref.Geometry]
	if ref.Region < 0 || ref.Region >= len(g.Regions) {
		return nil, nil, ErrLookup.With(slog.Int("region", ref.Region)).
			Wrapf("%s region %d out of range", side, ref.Region)
	}

	return g, g.Regions[ref.Region], nil
}

// Merge folds the paired regions according to m and returns the hives and
// grids concatenated, titled title. Every pair and every transformation
// link is checked before any region changes. In [OneHive] mode each grid
// region absorbs its container, which is then removed from its hive; in
// [OneGrid] mode each container absorbs its contained region, which is then
// removed from its grid. A removed region is deleted once however many
// pairs it belongs to.
func Merge(
	ctx context.Context,
	title string,
	hives, grids []*Geometry,
	m *Mapping,
) (*Geometry, error) {
	type resolved struct {
		hg, gg *Geometry
		hr, gr *Region
	}

	pairs := make([]resolved, 0, len(m.Pairs))

	for _, p := range m.Pairs {
		hg, hr, err := resolve(hives, p.Hive, "hive")
		if err != nil {
			return nil, err
		}

		gg, gr, err := resolve(grids, p.Grid, "grid")
		if err != nil {
			return nil, err
		}

		pairs = append(pairs, resolved{hg, gg, hr, gr})
	}

	for _, g := range append(append([]*Geometry(nil), hives...), grids...) {
		if err := g.Validate(); err != nil {
			return nil, err
		}
	}

	if m.Mode != OneHive && m.Mode != OneGrid {
		return nil, ErrUsage.Wrapf("unknown mapping mode %s", m.Mode)
	}

	type removal struct {
		g *Geometry
		r *Region
	}

	var (
		remove []removal
		seen   = map[*Region]bool{}
	)

	for i, p := range pairs {
		var rm removal

		if m.Mode == OneHive {
			p.gr.Absorb(p.hr, i == 0)
			rm = removal{p.hg, p.hr}
		} else {
			p.hr.Absorb(p.gr, true)
			rm = removal{p.gg, p.gr}
		}

		if !seen[rm.r] {
			seen[rm.r] = true
			remove = append(remove, rm)
		}
	}

	for _, rm := range remove {
		if i := indexOf(rm.g.Regions, rm.r); i >= 0 {
			rm.g.Regions = append(rm.g.Regions[:i], rm.g.Regions[i+1:]...)
		}
	}

	firstLogger(hives, grids).InfoContext(ctx, "geometries merged",
		slog.String("mode", m.Mode.String()),
		slog.Int("pairs", len(pairs)),
		slog.Int("removed", len(remove)),
	)

	return Append(title, append(append([]*Geometry(nil), hives...), grids...)...), nil
}

func firstLogger(lists ...[]*Geometry) log.Logger {
	for _, list := range lists {
		if len(list) > 0 {
			return list[0].logger
		}
	}

	return log.Logger{}
}

// Insert places guest inside the host regions named into: the guest
// regions named outer are folded into them, and the result is titled
// after host.
func Insert(ctx context.Context, host, guest *Geometry, outer, into []string) (*Geometry, error) {
	if err := guest.FlagRegions(outer, ContContained, rot.Vec{}); err != nil {
		return nil, err
	}

	if err := host.FlagRegions(into, ContContainer, rot.Vec{}); err != nil {
		return nil, err
	}

	hives, grids := []*Geometry{host}, []*Geometry{guest}

	m, err := MapByFlags(hives, grids)
	if err != nil {
		return nil, err
	}

	return Merge(ctx, host.Title, hives, grids, m)
}

// Blackhole wrapper names.
const (
	BlackholeInner    = "BLKINNER"
	BlackholeOuter    = "BLKOUTER"
	BlackholeLayer    = "BLKLAYER"
	BlackholeMaterial = "BLCKHOLE"
)

// WrapBlackhole surrounds g with a spherical blackhole shell between radii
// rMin and rMax centered on the origin. The regions of g named outer are
// folded into the inner sphere, filled with material.
func WrapBlackhole(
	ctx context.Context,
	g *Geometry,
	outer []string,
	rMin, rMax float64,
	material string,
) (*Geometry, error) {
	if rMin <= 0 || rMax <= rMin {
		return nil, ErrUsage.Wrapf("invalid blackhole radii %g, %g", rMin, rMax)
	}

	if err := g.FlagRegions(outer, ContContained, rot.Vec{}); err != nil {
		return nil, err
	}

	shell := &Geometry{Title: g.Title, logger: g.logger}

	for _, s := range []struct {
		name, tag string
		r         float64
	}{
		{BlackholeInner, "inner", rMin},
		{BlackholeOuter, "outer", rMax},
	} {
		b := NewBody("SPH", s.name, 0, 0, 0, s.r)
		b.Comment = fmt.Sprintf("* blackhole: %s radial boundary at R[cm]=%g", s.tag, s.r)
		shell.AddBody(b)
	}

	inner, outerB := shell.Bodies[0], shell.Bodies[1]

	zone := func(terms ...Term) Zone { return Zone{Terms: terms} }
	ref := func(op byte, b *Body) Term {
		return Term{Kind: TermBody, Op: op, Name: b.Name, Body: b}
	}

	in := NewRegion(BlackholeInner, zone(ref('+', inner)))
	in.Material, in.Comment = material, "* region inside blackhole layer"
	in.Flag(ContContainer, rot.Vec{}, 0)

	out := NewRegion(BlackholeOuter, zone(ref('-', outerB)))
	out.Material, out.Comment = material, "* region outside blackhole layer"

	layer := NewRegion(BlackholeLayer, zone(ref('+', outerB), ref('-', inner)))
	layer.Material, layer.Comment = BlackholeMaterial, "* blackhole layer"

	shell.AddRegion(in, out, layer)

	hives, grids := []*Geometry{shell}, []*Geometry{g}

	m, err := MapByCoordinates(hives, grids)
	if err != nil {
		return nil, err
	}

	return Merge(ctx, g.Title, hives, grids, m)
}
