package cmd

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/geodeck/geom"
	"github.com/ardnew/geodeck/pkg"
)

func TestInsert_Run(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pair.inp", pairDeck)
	out := filepath.Join(dir, "inserted.inp")

	ctx, _ := captured()
	ctx = WithLibrary(ctx, []string{dir})

	i := &Insert{
		Guest: "pair",
		Into:  []string{"AIR"},
		Outer: []string{"R1"},
		In:    DeckIn{Deck: writeFile(t, dir, "cell.inp", cellDeck)},
		Out:   DeckOut{Output: out},
	}

	if err := i.Run(ctx); err != nil {
		t.Fatal(err)
	}

	g := reparse(t, out)

	if diff := cmp.Diff([]string{"TARGET", "AIR"}, labels(g.Regions)); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}

	air, _ := g.Region("AIR")
	if got := air.Zones[0].String(); got != "+VOID -TARG +B1 -B2" {
		t.Errorf("unexpected zone %q", got)
	}
}

func TestWrap_Run(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "wrapped.inp")

	ctx, _ := captured()

	w := &Wrap{
		Outer:    []string{"R1"},
		RMin:     100,
		RMax:     1000,
		Material: "VACUUM",
		In:       DeckIn{Deck: writeFile(t, dir, "pair.inp", pairDeck)},
		Out:      DeckOut{Output: out},
	}

	if err := w.Run(ctx); err != nil {
		t.Fatal(err)
	}

	g := reparse(t, out)

	want := []string{geom.BlackholeOuter, geom.BlackholeLayer, "R1"}
	if diff := cmp.Diff(want, labels(g.Regions)); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestGrid_Run(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pair.inp", pairDeck)

	doc := writeFile(t, dir, "grid.yaml", `
prototypes: [{deck: pair}]
cells:
  - {proto: pair, point: [0, 0, 0]}
  - {proto: pair, point: [5, 0, 0]}
`)
	out := filepath.Join(dir, "grid.inp")

	ctx, _ := captured()
	ctx = WithLibrary(ctx, []string{dir})

	g := &Grid{Layout: doc, Out: DeckOut{Output: out}}
	if err := g.Run(ctx); err != nil {
		t.Fatal(err)
	}

	geo := reparse(t, out)

	if len(geo.Bodies) != 4 || len(geo.Regions) != 2 {
		t.Errorf("expected 4 bodies and 2 regions, got %d and %d",
			len(geo.Bodies), len(geo.Regions))
	}
}

func TestVersion(t *testing.T) {
	ctx, buf := captured()

	if err := (Version{}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if want := pkg.Name + " " + pkg.Version + "\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
