package geom

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func libraryDir(t *testing.T, decks map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, deck := range decks {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(deck), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return dir
}

func TestLibrary_Resolve(t *testing.T) {
	dir := libraryDir(t, map[string]string{"pair.inp": pairDeck, "pair.geo": pairDeck})
	lib := NewLibrary([]string{t.TempDir(), dir})

	tests := []struct {
		name string
		want string
	}{
		{"pair", filepath.Join(dir, "pair.inp")},
		{"pair.inp", filepath.Join(dir, "pair.inp")},
		{"pair.geo", filepath.Join(dir, "pair.geo")},
		{filepath.Join(dir, "pair"), filepath.Join(dir, "pair.inp")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lib.Resolve(tt.name)
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := lib.Resolve("missing"); !errors.Is(err, ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
}

func TestLibrary_LoadIndependentCopies(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary([]string{libraryDir(t, map[string]string{"pair.inp": pairDeck})})

	first, err := lib.Load(ctx, "pair")
	if err != nil {
		t.Fatal(err)
	}

	first.Bodies[0].Name = "CHANGED"

	second, err := lib.Load(ctx, "pair")
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Fatal("expected distinct geometries")
	}

	if second.Bodies[0].Name != "B1" {
		t.Errorf("cached geometry was changed through a copy: %s", second.Bodies[0].Name)
	}

	if second.Regions[0].Zones[0].Terms[0].Body != second.Bodies[0] {
		t.Error("copy zone does not refer to the copy body")
	}
}

func TestLibrary_LoadConcurrent(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary([]string{libraryDir(t, map[string]string{"pair.inp": pairDeck})})

	var (
		wg   sync.WaitGroup
		geos = make([]*Geometry, 8)
		errs = make([]error, 8)
	)

	for i := range geos {
		wg.Go(func() { geos[i], errs[i] = lib.Load(ctx, "pair") })
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("load %d: %v", i, err)
		}

		if len(geos[i].Bodies) != 2 {
			t.Errorf("load %d: expected 2 bodies, got %d", i, len(geos[i].Bodies))
		}
	}
}

func TestLibrary_LoadErrors(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary([]string{libraryDir(t, map[string]string{"bad.inp": "GEOBEGIN\n"})})

	for range 2 {
		_, err := lib.Load(ctx, "bad")

		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *ParseError, got %v", err)
		}

		if filepath.Base(pe.Source) != "bad.inp" {
			t.Errorf("expected source bad.inp, got %q", pe.Source)
		}
	}

	if _, err := lib.Load(ctx, "missing"); !errors.Is(err, ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
}
