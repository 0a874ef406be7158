package geom

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/geodeck/rot"
)

func TestBuildGrid(t *testing.T) {
	proto := mustParse(t, pairDeck)

	placements := []Placement{
		{Point: rot.Vec{1, 0, 0}},
		{Point: rot.Vec{6, 0, 0}},
	}

	cells, err := BuildGrid(context.Background(), placements, []*Geometry{proto},
		OuterRegions("R1"))
	if err != nil {
		t.Fatal(err)
	}

	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}

	tests := []struct {
		cell   int
		body   string
		params []float64
		region string
	}{
		{0, "GR00001", []float64{1, 0, 0, 1}, "GR00001"},
		{1, "GR00101", []float64{6, 0, 0, 1}, "GR00101"},
	}

	for _, tt := range tests {
		c := cells[tt.cell]

		b, i := c.Body(tt.body)
		if i < 0 {
			t.Fatalf("cell %d: body %s not found in %v", tt.cell, tt.body, labels(c.Bodies))
		}

		if diff := cmp.Diff(tt.params, b.Params, approx); diff != "" {
			t.Errorf("cell %d params mismatch (-want +got):\n%s", tt.cell, diff)
		}

		r, i := c.Region(tt.region)
		if i < 0 {
			t.Fatalf("cell %d: region %s not found", tt.cell, tt.region)
		}

		if r.Cont != ContContained || r.Center != placements[tt.cell].Point {
			t.Errorf("cell %d: expected contained at %v, got %s at %v",
				tt.cell, placements[tt.cell].Point, r.Cont, r.Center)
		}
	}

	if b, _ := proto.Body("B1"); b.Params[0] != 0 {
		t.Error("building the grid moved the prototype")
	}
}

func TestBuildGrid_Lattice(t *testing.T) {
	proto := mustParse(t, pairDeck)

	placements := []Placement{
		{Point: rot.Vec{1, 0, 0}},
		{Point: rot.Vec{6, 0, 0}},
	}

	cells, err := BuildGrid(context.Background(), placements, []*Geometry{proto},
		Lattice(), OuterRegions("R1"))
	if err != nil {
		t.Fatal(err)
	}

	stand := cells[1]

	if len(stand.Bodies) != 0 || len(stand.Regions) != 1 {
		t.Fatalf("expected one lattice region, got %d bodies and %d regions",
			len(stand.Bodies), len(stand.Regions))
	}

	r := stand.Regions[0]
	if !r.IsLattice() || r.LatticeName != r.Name {
		t.Errorf("expected lattice named after its region, got %q for %q", r.LatticeName, r.Name)
	}

	if r.Cont != ContContained {
		t.Errorf("expected lattice region contained, got %s", r.Cont)
	}

	net, err := r.LatticeTransform.Net()
	if err != nil {
		t.Fatal(err)
	}

	want := Rigid{R: rot.Identity(), T: rot.Vec{5, 0, 0}}
	if diff := cmp.Diff(want, net, approx); diff != "" {
		t.Errorf("lattice motion mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildGrid_Options(t *testing.T) {
	proto := mustParse(t, pairDeck)

	placements := []Placement{{
		Point:  rot.Vec{0, 0, 3},
		Angles: []rot.AxisAngle{{Axis: 3, Angle: 90}},
	}}

	cells, err := BuildGrid(context.Background(), placements, []*Geometry{proto},
		NamePrefix("C%d"), HeadComments(), CellTransform(GeometryDirectives()))
	if err != nil {
		t.Fatal(err)
	}

	c := cells[0]

	if _, i := c.Body("C001"); i < 0 {
		t.Errorf("expected body C001, got %v", labels(c.Bodies))
	}

	if _, i := c.Transform("C001"); i < 0 {
		t.Errorf("expected renamed cell transform, got %v", labels(c.Transforms))
	}

	if !strings.Contains(c.Bodies[0].Comment, "GRID cell #   0 - family name: C0 - prototype: pair") {
		t.Errorf("missing cell header in %q", c.Bodies[0].Comment)
	}

	if !strings.Contains(c.Bodies[0].Comment, "* rotation: axis 3") {
		t.Errorf("missing rotation in %q", c.Bodies[0].Comment)
	}
}

func TestBuildGrid_UnknownPrototype(t *testing.T) {
	_, err := BuildGrid(context.Background(),
		[]Placement{{Proto: 2}}, []*Geometry{mustParse(t, pairDeck)})
	if !errors.Is(err, ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
}

func TestLatticeCopy_Transforms(t *testing.T) {
	g := mustParse(t, sampleDeck)

	m := Motion{Translation: rot.Vec{0, 0, 10}}
	if err := g.ApplyTransform(context.Background(), m, GeometryDirectives(), OnlyGeometry()); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"shift", "ToFinPos_bdy"}, labels(g.Transforms)); diff != "" {
		t.Fatalf("prototype transforms mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name string
		opts []CopyOption
		want []string
	}{
		{"scoring", nil, []string{"shift"}},
		{"no scoring", []CopyOption{NoScoring()}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.LatticeCopy("", tt.opts...)

			if diff := cmp.Diff(tt.want, labels(d.Transforms)); diff != "" {
				t.Errorf("transforms mismatch (-want +got):\n%s", diff)
			}

			for _, u := range d.Bins {
				if u.Transform == nil || indexOf(d.Transforms, u.Transform) < 0 {
					t.Errorf("mesh %s not linked to a copied transform", u.Label())
				}
			}
		})
	}
}
