package geom

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSection(t *testing.T) {
	tests := []struct {
		in      string
		want    Section
		wantErr bool
	}{
		{in: "bodies", want: SectionBodies},
		{in: "REG", want: SectionRegions},
		{in: "lattice", want: SectionLattices},
		{in: "materials", want: SectionMaterials},
		{in: "transforms", want: SectionTransforms},
		{in: "bins", want: SectionBins},
		{in: "scorings", want: SectionScorings},
		{in: "all", want: SectionAll},
		{in: "", wantErr: true},
		{in: "geometry", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSection(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUsage) {
					t.Errorf("expected ErrUsage, got %v", err)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestEchoSections(t *testing.T) {
	g := mustParse(t, sampleDeck)

	var b strings.Builder
	if err := g.EchoSections(&b, SectionBodies|SectionMaterials); err != nil {
		t.Fatal(err)
	}

	out := b.String()

	for _, want := range []string{"SPH TARG", "ASSIGNMA", "* target body"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}

	for _, unwanted := range []string{"GEOBEGIN", "ROT-DEFI", "USRBIN"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("unexpected %q in output", unwanted)
		}
	}
}

func TestEcho_DanglingTransform(t *testing.T) {
	g := mustParse(t, pairDeck)
	g.Bodies[0].Transform = NewTransformation("lost", 1)

	if err := g.Echo(&strings.Builder{}); !errors.Is(err, ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
}

func TestEchoFile(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		path  string
		split bool
		want  []string
	}{
		{
			name: "extension added",
			path: "deck",
			want: []string{"deck.inp"},
		},
		{
			name:  "split",
			path:  "deck.inp",
			split: true,
			want: []string{
				"deck_bodies.inp", "deck_regions.inp", "deck_assignmats.inp",
				"deck_rotdefis.inp", "deck_scorings.inp",
			},
		},
		{
			name: "geo",
			path: "deck.geo",
			want: []string{
				"deck.geo", "deck_assignmats.inp", "deck_rotdefis.inp", "deck_scorings.inp",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			g := mustParse(t, sampleDeck)

			files, err := g.EchoFile(ctx, filepath.Join(dir, tt.path), tt.split)
			if err != nil {
				t.Fatal(err)
			}

			got := make([]string, len(files))
			for i, f := range files {
				got[i] = filepath.Base(f)

				if _, err := os.Stat(f); err != nil {
					t.Errorf("file %s not written: %v", f, err)
				}
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("files mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEchoFile_Reparse(t *testing.T) {
	ctx := context.Background()
	g := mustParse(t, sampleDeck)

	files, err := g.EchoFile(ctx, filepath.Join(t.TempDir(), "deck.inp"), false)
	if err != nil {
		t.Fatal(err)
	}

	back, err := ParseFile(ctx, files[0])
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(g.String(), back.String()); diff != "" {
		t.Errorf("reparsed deck mismatch (-want +got):\n%s", diff)
	}
}

func TestEchoFile_GeoHeader(t *testing.T) {
	g := mustParse(t, sampleDeck)
	path := filepath.Join(t.TempDir(), "deck.geo")

	if _, err := g.EchoFile(context.Background(), path, false); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(string(data), "    0    0          Sample target\n") {
		t.Errorf("unexpected .geo header %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	if strings.Contains(string(data), "GEOBEGIN") {
		t.Error(".geo file should not hold GEOBEGIN")
	}
}
