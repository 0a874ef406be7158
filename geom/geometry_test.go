package geom

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssignMaterial(t *testing.T) {
	tests := []struct {
		name        string
		first, last string
		step        int
		want        []string
	}{
		{"single", "PIPEREG", "", 1, []string{"ALUMINUM", "LEAD", "AIR", "BLCKHOLE"}},
		{"range", "TARGET", "AIR", 1, []string{"LEAD", "LEAD", "LEAD", "BLCKHOLE"}},
		{"stepped", "TARGET", "BLKHOLE", 2, []string{"LEAD", "VACUUM", "LEAD", "BLCKHOLE"}},
		{"zero step", "AIR", "BLKHOLE", 0, []string{"ALUMINUM", "VACUUM", "LEAD", "LEAD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, sampleDeck)

			if err := g.AssignMaterial("LEAD", tt.first, tt.last, tt.step); err != nil {
				t.Fatal(err)
			}

			got := make([]string, len(g.Regions))
			for i, r := range g.Regions {
				got[i] = r.Material
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("materials mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssignMaterial_Errors(t *testing.T) {
	tests := []struct {
		name        string
		first, last string
		is          error
	}{
		{"unknown first", "NOPE", "", ErrLookup},
		{"unknown last", "TARGET", "NOPE", ErrLookup},
		{"reversed range", "AIR", "TARGET", ErrUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, sampleDeck)

			err := g.AssignMaterial("LEAD", tt.first, tt.last, 1)
			if !errors.Is(err, tt.is) {
				t.Fatalf("expected %v, got %v", tt.is, err)
			}

			if g.Regions[0].Material != "ALUMINUM" || g.Regions[2].Material != "AIR" {
				t.Error("failed assignment changed a material")
			}
		})
	}
}

func TestParse_ReversedAssignma(t *testing.T) {
	deck := sampleDeck + "ASSIGNMA        LEAD       AIR    TARGET\n"

	_, err := ParseString(t.Context(), deck)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected %v, got %v", ErrUsage, err)
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}

	if want := strings.Count(sampleDeck, "\n") + 1; pe.Line != want {
		t.Errorf("expected line %d, got %d", want, pe.Line)
	}
}
