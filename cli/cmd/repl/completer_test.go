package repl

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/geodeck/geom"
)

const browseDeck = `GEOBEGIN                                                              COMBNAME
    0    0          browse
SPH TARG 0.0 0.0 0.0 5.0
SPH VOID 0.0 0.0 0.0 100.0
END
TARGET 5 +TARG
AIR 5 +VOID -TARG
END
GEOEND
`

func browseGeometry(t *testing.T) *geom.Geometry {
	t.Helper()

	g, err := geom.ParseString(context.Background(), browseDeck)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	return g
}

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"single", "REG", 3, "REG", 0, 3},
		{"second word", "REG AI", 6, "AI", 4, 6},
		{"empty after space", "REG ", 4, "", 4, 4},
		{"mid word", "BODSINREG", 3, "BODSINREG", 0, 9},
		{"leading space", "  REG", 0, "", 0, 0},
		{"cursor past end", "REG", 10, "REG", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestWordIndex(t *testing.T) {
	tests := []struct {
		input string
		start int
		want  int
	}{
		{"REG", 0, 0},
		{"REG AIR", 4, 1},
		{"REG  AIR", 5, 1},
		{"REG AIR ", 8, 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := wordIndex(tt.input, tt.start); got != tt.want {
				t.Errorf("wordIndex(%q, %d) = %d, want %d", tt.input, tt.start, got, tt.want)
			}
		})
	}
}

func TestTargetCandidates(t *testing.T) {
	g := browseGeometry(t)

	tests := []struct {
		sel  geom.Selector
		want []string
	}{
		{geom.SelRegion, []string{geom.All, "TARGET", "AIR"}},
		{geom.SelBody, []string{geom.All, "TARG", "VOID"}},
		{geom.SelBodiesInRegion, []string{geom.All, "TARGET", "AIR"}},
		{geom.SelTransformOfBody, []string{geom.All, "TARG", "VOID"}},
		{geom.SelLattice, []string{geom.All}},
		{geom.SelBinsInUnit, []string{geom.All}},
	}

	for _, tt := range tests {
		t.Run(tt.sel.String(), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, targetCandidates(g, tt.sel)); diff != "" {
				t.Errorf("candidates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQueryCandidates(t *testing.T) {
	g := browseGeometry(t)

	if diff := cmp.Diff(geom.Selectors(), queryCandidates(g, "", 0)); diff != "" {
		t.Errorf("selector candidates mismatch (-want +got):\n%s", diff)
	}

	if got := queryCandidates(g, "NOPE ", 1); got != nil {
		t.Errorf("expected no candidates for unknown selector, got %v", got)
	}

	if got := queryCandidates(g, "REG AIR ", 2); got != nil {
		t.Errorf("expected no candidates past the target, got %v", got)
	}

	want := []string{geom.All, "TARGET", "AIR"}
	if diff := cmp.Diff(want, queryCandidates(g, "region ", 1)); diff != "" {
		t.Errorf("target candidates mismatch (-want +got):\n%s", diff)
	}
}
