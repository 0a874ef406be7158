package geom

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRet_All(t *testing.T) {
	g := mustParse(t, sampleDeck)

	tests := []struct {
		sel  Selector
		want []string
	}{
		{SelBody, []string{"TARG", "PIPE", "VOID", "BLK"}},
		{SelRegion, []string{"TARGET", "PIPEREG", "AIR", "BLKHOLE"}},
		{SelTransform, []string{"shift"}},
		{SelBin, []string{"TargDose"}},
		{SelScoring, []string{"Yield"}},
		{SelUsryield, []string{"Yield"}},
		{SelUsrbdx, []string{}},
		{SelBodiesInRegion, []string{"TARG", "PIPE", "VOID", "BLK"}},
		{SelTransformOfBin, []string{"shift"}},
		{SelTransformOfBody, []string{}},
		{SelBinsInUnit, []string{"TargDose"}},
	}

	for _, tt := range tests {
		t.Run(tt.sel.String(), func(t *testing.T) {
			m, err := g.Ret(tt.sel, All)
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tt.want, m.Labels()); diff != "" {
				t.Errorf("labels mismatch (-want +got):\n%s", diff)
			}

			for i, idx := range m.Indices {
				if idx < 0 {
					t.Errorf("item %d has no index", i)
				}
			}
		})
	}
}

func TestRet_InsertionOrder(t *testing.T) {
	g := New()

	names := []string{"Z", "A", "M", "B"}
	for _, n := range names {
		g.AddBody(NewBody("SPH", n, 0, 0, 0, 1))
	}

	m, err := g.Ret(SelBody, "all")
	if err != nil {
		t.Fatal(err)
	}

	if m.Len() != len(names) {
		t.Fatalf("expected %d matches, got %d", len(names), m.Len())
	}

	if diff := cmp.Diff(names, m.Labels()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]int{0, 1, 2, 3}, m.Indices); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
}

func TestRet_ByName(t *testing.T) {
	g := mustParse(t, sampleDeck)

	m, err := g.Ret(SelRegion, "AIR")
	if err != nil {
		t.Fatal(err)
	}

	e, i := m.First()
	if i != 2 || e.Label() != "AIR" {
		t.Errorf("expected AIR at 2, got %v at %d", e, i)
	}

	m, err = g.Ret(SelBodiesInRegion, "AIR")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"VOID", "TARG", "PIPE"}, m.Labels()); diff != "" {
		t.Errorf("bodies mismatch (-want +got):\n%s", diff)
	}

	m, err = g.Ret(SelBinsInUnit, "21")
	if err != nil {
		t.Fatal(err)
	}

	if m.Len() != 1 {
		t.Errorf("expected 1 bin in unit 21, got %d", m.Len())
	}
}

func TestRet_DuplicateNamesFirstMatch(t *testing.T) {
	g := New()
	first := NewBody("SPH", "DUP", 0, 0, 0, 1)
	g.AddBody(first, NewBody("SPH", "DUP", 0, 0, 0, 2))

	m, err := g.Ret(SelBody, "DUP")
	if err != nil {
		t.Fatal(err)
	}

	if e, i := m.First(); e != first || i != 0 {
		t.Errorf("expected first DUP, got index %d", i)
	}
}

func TestRet_NotFound(t *testing.T) {
	g := mustParse(t, sampleDeck)

	for _, sel := range []Selector{
		SelBody, SelRegion, SelLattice, SelTransform, SelBin, SelScoring, SelUsrcoll,
	} {
		t.Run(sel.String(), func(t *testing.T) {
			m, err := g.Ret(sel, "NEVER")
			if err != nil {
				t.Fatal(err)
			}

			if e, i := m.First(); e != nil || i != -1 {
				t.Errorf("expected (nil, -1), got (%v, %d)", e, i)
			}
		})
	}

	for _, sel := range []Selector{
		SelBodiesInRegion, SelTransformOfBody, SelTransformOfLattice, SelTransformOfBin,
	} {
		t.Run(sel.String()+" subject", func(t *testing.T) {
			if _, err := g.Ret(sel, "NEVER"); !errors.Is(err, ErrLookup) {
				t.Errorf("expected ErrLookup, got %v", err)
			}
		})
	}
}

func TestRet_MissingBody(t *testing.T) {
	g := mustParse(t, "R 5 +A -B\n", RegionsOnly())
	g.AddBody(NewBody("SPH", "A", 0, 0, 0, 1))

	m, err := g.Ret(SelBodiesInRegion, "R")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"A"}, m.Labels()); diff != "" {
		t.Errorf("bodies mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"B"}, m.Missing); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in   string
		want Selector
	}{
		{"BOD", SelBody},
		{"body", SelBody},
		{"usrbin", SelBin},
		{"TRANSFLINKEDTOLAT", SelTransformOfLattice},
		{" bininunit ", SelBinsInUnit},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSelector(tt.in)
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParseSelector_Suggest(t *testing.T) {
	_, err := ParseSelector("BODSIN")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}

	if !strings.Contains(err.Error(), "BODSINREG") {
		t.Errorf("expected suggestion in %q", err.Error())
	}
}
