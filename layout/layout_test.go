package layout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ardnew/geodeck/geom"
	"github.com/ardnew/geodeck/log"
	"github.com/ardnew/geodeck/rot"
)

const pairDeck = `GEOBEGIN                                                              COMBNAME
    0    0          pair
SPH B1 0.0 0.0 0.0 1.0
RCC B2 0.0 0.0 0.0 0.0 0.0 2.0 0.5
END
R1 5 +B1 -B2
END
GEOEND
`

const hiveDeck = `GEOBEGIN                                                              COMBNAME
    0    0          hive
SPH C1B 0.0 0.0 0.0 1.0
SPH C2B 5.0 0.0 0.0 1.0
SPH WORLD 0.0 0.0 0.0 100.0
END
C1 5 +C1B
C2 5 +C2B
REST 5 +WORLD -C1B -C2B
END
GEOEND
`

type deckLoader map[string]string

func (l deckLoader) Load(ctx context.Context, name string) (*geom.Geometry, error) {
	deck, ok := l[name]
	if !ok {
		return nil, geom.ErrLookup.Wrapf("deck %q not found", name)
	}

	return geom.ParseString(ctx, deck)
}

var decks = deckLoader{"pair": pairDeck, "hive": hiveDeck}

func mustDecode(t *testing.T, doc string) *Document {
	t.Helper()

	d, err := Decode(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	return d
}

const rowDoc = `
title: row
vars:
  pitch: 2.5
  half: pitch / 2
prototypes:
  - deck: pair
cells:
  - proto: pair
    point: ["i * pitch", "j * half", 0]
    repeat:
      - {var: i, count: 2}
      - {var: j, count: 3}
`

func TestDocument_Env(t *testing.T) {
	d := mustDecode(t, rowDoc)

	if diff := cmp.Diff([]string{"pitch", "half"}, []string{d.Vars[0].Name, d.Vars[1].Name}); diff != "" {
		t.Errorf("variable order mismatch (-want +got):\n%s", diff)
	}

	env, err := d.Env()
	if err != nil {
		t.Fatal(err)
	}

	if env["half"] != 1.25 {
		t.Errorf("expected half = 1.25, got %v", env["half"])
	}
}

func TestDocument_Placements(t *testing.T) {
	d := mustDecode(t, rowDoc)

	env, err := d.Env()
	if err != nil {
		t.Fatal(err)
	}

	got, names, err := d.Placements(env)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"pair"}, names); diff != "" {
		t.Errorf("prototypes mismatch (-want +got):\n%s", diff)
	}

	want := []geom.Placement{
		{Point: rot.Vec{0, 0, 0}},
		{Point: rot.Vec{0, 1.25, 0}},
		{Point: rot.Vec{0, 2.5, 0}},
		{Point: rot.Vec{2.5, 0, 0}},
		{Point: rot.Vec{2.5, 1.25, 0}},
		{Point: rot.Vec{2.5, 2.5, 0}},
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("placements mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_PlacementRotation(t *testing.T) {
	d := mustDecode(t, `
prototypes:
  - {name: cell, deck: pair, noScoring: true}
cells:
  - proto: cell
    point: [1, 2, 3]
    angles: [{axis: 3, angle: "45 * 2"}]
  - proto: cell
    matrix:
      - [0, -1, 0]
      - [1, 0, 0]
      - [0, 0, 1]
`)

	got, _, err := d.Placements(NewEnv())
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(got))
	}

	if diff := cmp.Diff([]rot.AxisAngle{{Axis: 3, Angle: 90}}, got[0].Angles); diff != "" {
		t.Errorf("angles mismatch (-want +got):\n%s", diff)
	}

	if !got[0].NoScoring {
		t.Error("expected prototype noScoring to carry over")
	}

	want := rot.Matrix{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
	if got[1].Matrix == nil || *got[1].Matrix != want {
		t.Errorf("unexpected matrix %v", got[1].Matrix)
	}
}

func TestDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unknown prototype",
			doc:  "prototypes: [{deck: pair}]\ncells: [{proto: other}]\n",
			want: geom.ErrLookup,
		},
		{
			name: "duplicate prototype",
			doc:  "prototypes: [{deck: pair}, {deck: pair}]\n",
			want: ErrLayout,
		},
		{
			name: "bad expression",
			doc:  "prototypes: [{deck: pair}]\ncells: [{proto: pair, point: [\"x\", 0, 0]}]\n",
			want: ErrExpr,
		},
		{
			name: "short vector",
			doc:  "prototypes: [{deck: pair}]\ncells: [{proto: pair, point: [0, 0]}]\n",
			want: ErrLayout,
		},
		{
			name: "unnamed repeat",
			doc:  "prototypes: [{deck: pair}]\ncells: [{proto: pair, repeat: [{count: 2}]}]\n",
			want: ErrLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDecode(t, tt.doc)

			env, err := d.Env()
			if err != nil {
				t.Fatal(err)
			}

			if _, _, err := d.Placements(env); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecode_Strict(t *testing.T) {
	_, err := Decode(context.Background(), strings.NewReader("title: x\nunknown: 1\n"))
	if !errors.Is(err, ErrLayout) {
		t.Errorf("expected ErrLayout, got %v", err)
	}
}

func TestDocument_BuildConcatenated(t *testing.T) {
	d := mustDecode(t, `
prototypes: [{deck: pair}]
cells:
  - {proto: pair, point: [0, 0, 0]}
  - {proto: pair, point: [5, 0, 0]}
`)

	g, err := d.Build(context.Background(), decks, log.Logger{})
	if err != nil {
		t.Fatal(err)
	}

	if g.Title != "grid of pair" {
		t.Errorf("unexpected title %q", g.Title)
	}

	if len(g.Bodies) != 4 || len(g.Regions) != 2 {
		t.Errorf("expected 4 bodies and 2 regions, got %d and %d", len(g.Bodies), len(g.Regions))
	}

	b, i := g.Body("GR00101")
	if i < 0 {
		t.Fatalf("body GR00101 not found")
	}

	if b.Params[0] != 5 {
		t.Errorf("expected second cell moved to x=5, got %v", b.Params)
	}
}

func TestDocument_BuildHive(t *testing.T) {
	d := mustDecode(t, `
prototypes: [{deck: pair}]
outer: [R1]
hive:
  deck: hive
  containers:
    - {region: C1, center: [0, 0, 0]}
    - {region: C2, center: [5, 0, 0]}
cells:
  - {proto: pair, point: [0, 0, 0]}
  - {proto: pair, point: [5, 0, 0]}
`)

	g, err := d.Build(context.Background(), decks, log.Logger{})
	if err != nil {
		t.Fatal(err)
	}

	if g.Title != "hive" {
		t.Errorf("unexpected title %q", g.Title)
	}

	var names []string
	for _, r := range g.Regions {
		names = append(names, r.Name)
	}

	if diff := cmp.Diff([]string{"REST", "GR00001", "GR00101"}, names); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}

	r, _ := g.Region("GR00101")
	if got := r.Zones[0].String(); got != "+GR00101 -GR00102 +C2B" {
		t.Errorf("unexpected merged zone %q", got)
	}
}

func TestDocument_BuildBlackhole(t *testing.T) {
	d := mustDecode(t, `
vars: {r: 100}
prototypes: [{deck: pair}]
outer: [R1]
cells: [{proto: pair}]
blackhole: {outer: [GR00001], rmin: r, rmax: "r * 10"}
`)

	g, err := d.Build(context.Background(), decks, log.Logger{})
	if err != nil {
		t.Fatal(err)
	}

	if _, i := g.Region(geom.BlackholeLayer); i < 0 {
		t.Error("expected blackhole layer region")
	}

	if _, i := g.Region(geom.BlackholeInner); i >= 0 {
		t.Error("expected inner blackhole region merged away")
	}
}

func TestDocument_BuildMissingDeck(t *testing.T) {
	d := mustDecode(t, "prototypes: [{deck: gone}]\n")

	if _, err := d.Build(context.Background(), decks, log.Logger{}); !errors.Is(err, geom.ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
}
