package geom

import "fmt"

// CopyOption configures [Geometry.Clone] and [Geometry.LatticeCopy].
type CopyOption func(*copyOptions)

type copyOptions struct {
	noScoring bool
	material  string
}

// NoScoring leaves the meshes and region scorings out of the copy, along
// with the transformations only they used.
func NoScoring() CopyOption {
	return func(o *copyOptions) { o.noScoring = true }
}

// LatticeMaterial sets the material of the lattice stand-in region.
func LatticeMaterial(mat string) CopyOption {
	return func(o *copyOptions) { o.material = mat }
}

// Lattice stand-in defaults.
const (
	LatticeRegion   = "LATREG"
	LatticeFill     = "VACUUM"
	latticeTitleFmt = "LATTICE of %s"
)

// copier deep-copies entities, remapping handles to the copies.
type copier struct {
	bodies     map[*Body]*Body
	regions    map[*Region]*Region
	transforms map[*Transformation]*Transformation
}

func newCopier() *copier {
	return &copier{
		bodies:     map[*Body]*Body{},
		regions:    map[*Region]*Region{},
		transforms: map[*Transformation]*Transformation{},
	}
}

func (c *copier) transform(t *Transformation) *Transformation {
	if t == nil {
		return nil
	}

	if d, ok := c.transforms[t]; ok {
		return d
	}

	d := t.clone()
	c.transforms[t] = d

	return d
}

func (c *copier) body(b *Body) *Body {
	if b == nil {
		return nil
	}

	if d, ok := c.bodies[b]; ok {
		return d
	}

	d := b.clone()
	d.Transform = c.transform(b.Transform)
	c.bodies[b] = d

	return d
}

func (c *copier) region(r *Region) *Region {
	d := r.clone()
	d.LatticeTransform = c.transform(r.LatticeTransform)

	for i := range d.Zones {
		for j := range d.Zones[i].Terms {
			t := &d.Zones[i].Terms[j]
			if t.Body != nil {
				t.Body = c.body(t.Body)
			}
		}
	}

	c.regions[r] = d

	return d
}

func (c *copier) usrbin(u *Usrbin) *Usrbin {
	d := u.clone()
	d.Transform = c.transform(u.Transform)

	return d
}

// scoring copies s; region handles outside the copy are dropped, leaving
// the names in the card text.
func (c *copier) scoring(s *RegionScoring) *RegionScoring {
	s.sync()

	d := s.clone()
	for i, r := range d.regions {
		d.regions[i] = c.regions[r]
	}

	return d
}

// Clone returns a deep copy of g.
func (g *Geometry) Clone(opts ...CopyOption) *Geometry {
	var o copyOptions

	for _, opt := range opts {
		opt(&o)
	}

	c := newCopier()
	d := &Geometry{Title: g.Title, logger: g.logger}

	keep := map[*Transformation]bool{}

	for _, t := range g.Transforms {
		keep[t] = true
	}

	if o.noScoring {
		keep = map[*Transformation]bool{}

		for _, b := range g.Bodies {
			keep[b.Transform] = true
		}

		for _, r := range g.Regions {
			keep[r.LatticeTransform] = true
		}
	}

	for _, t := range g.Transforms {
		if keep[t] {
			d.Transforms = append(d.Transforms, c.transform(t))
		}
	}

	for _, b := range g.Bodies {
		d.Bodies = append(d.Bodies, c.body(b))
	}

	for _, r := range g.Regions {
		d.Regions = append(d.Regions, c.region(r))
	}

	if !o.noScoring {
		for _, u := range g.Bins {
			d.Bins = append(d.Bins, c.usrbin(u))
		}

		for _, s := range g.Scorings {
			d.Scorings = append(d.Scorings, c.scoring(s))
		}
	}

	return d
}

// LatticeCopy returns a stand-in for g holding one lattice region named
// name (default [LatticeRegion]) filled with [LatticeFill], plus copies of
// the scorings of g and the transformations their meshes use. The lattice
// is named after the region. With [NoScoring], the stand-in carries no
// scorings and no transformations.
func (g *Geometry) LatticeCopy(name string, opts ...CopyOption) *Geometry {
	o := copyOptions{material: LatticeFill}

	for _, opt := range opts {
		opt(&o)
	}

	if name == "" {
		name = LatticeRegion
	}

	r := NewRegion(name)
	r.LatticeName = name
	r.Material = o.material

	c := newCopier()
	d := &Geometry{
		Title:   fmt.Sprintf(latticeTitleFmt, g.Title),
		Regions: []*Region{r},
		logger:  g.logger,
	}

	if !o.noScoring {
		for _, u := range g.Bins {
			d.Bins = append(d.Bins, c.usrbin(u))
		}

		for _, s := range g.Scorings {
			d.Scorings = append(d.Scorings, c.scoring(s))
		}
	}

	// Only the meshes reference transformations; the lattice motion is
	// attached when the stand-in is placed.
	for _, t := range g.Transforms {
		if dt, ok := c.transforms[t]; ok {
			d.Transforms = append(d.Transforms, dt)
		}
	}

	return d
}

// Append concatenates geometries into a new one titled title. Entities are
// moved, not copied, and the transformations are renumbered in order.
func Append(title string, geos ...*Geometry) *Geometry {
	d := &Geometry{Title: title}

	for i, g := range geos {
		if i == 0 {
			d.logger = g.logger
		}

		d.Bodies = append(d.Bodies, g.Bodies...)
		d.Regions = append(d.Regions, g.Regions...)
		d.Transforms = append(d.Transforms, g.Transforms...)
		d.Bins = append(d.Bins, g.Bins...)
		d.Scorings = append(d.Scorings, g.Scorings...)
	}

	for i, t := range d.Transforms {
		t.ID = i + 1
	}

	return d
}
