package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/geodeck/geom"
	"github.com/ardnew/geodeck/pkg"
)

// cellDeck holds bodies TARG and VOID and regions TARGET and AIR.
const cellDeck = `GEOBEGIN                                                              COMBNAME
    0    0          cell
SPH TARG 0.0 0.0 0.0 5.0
SPH VOID 0.0 0.0 0.0 100.0
END
TARGET 5 +TARG
AIR 5 +VOID -TARG
END
GEOEND
`

// pairDeck holds bodies B1 and B2 and one region R1 using both.
const pairDeck = `GEOBEGIN                                                              COMBNAME
    0    0          pair
SPH B1 0.0 0.0 0.0 1.0
RCC B2 0.0 0.0 0.0 0.0 0.0 2.0 0.5
END
R1 5 +B1 -B2
END
GEOEND
`

// card renders a fixed-format card: keyword, six WHAT fields, SDUM.
func card(kw, sdum string, what ...string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-10s", kw)

	for i := range 6 {
		w := ""
		if i < len(what) {
			w = what[i]
		}

		fmt.Fprintf(&b, "%10s", w)
	}

	fmt.Fprintf(&b, "%-10s", sdum)

	return b.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

// captured returns a context whose command output lands in the returned
// buffer.
func captured() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer

	ktx := &kong.Context{Kong: &kong.Kong{Stdout: &buf, Stderr: io.Discard}}

	return WithContext(context.Background(), ktx), &buf
}

func reparse(t *testing.T, path string) *geom.Geometry {
	t.Helper()

	g, err := geom.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("reparse %s: %v", path, err)
	}

	return g
}

func labels[E geom.Entity](list []E) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Label()
	}

	return out
}

func TestWithSourceFiles_Empty(t *testing.T) {
	for _, sources := range [][]string{nil, {}, {"/no/such/deck.inp"}} {
		if r := sourceFilesFrom(WithSourceFiles(context.Background(), sources)); r != nil {
			t.Errorf("WithSourceFiles(%q) should store no reader", sources)
		}
	}
}

func TestWithSourceFiles_Dedup(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.inp", "A\n")
	b := writeFile(t, dir, "b.inp", "B\n")

	link := filepath.Join(dir, "link.inp")
	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	t.Chdir(dir)

	tests := []struct {
		name    string
		sources []string
		want    string
	}{
		{"order kept", []string{b, a}, "B\nA\n"},
		{"same path", []string{a, a, b}, "A\nB\n"},
		{"relative and absolute", []string{"a.inp", a}, "A\n"},
		{"symlink", []string{link, a, b}, "A\nB\n"},
		{"missing skipped", []string{a, "gone.inp", b}, "A\nB\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sourceFilesFrom(WithSourceFiles(context.Background(), tt.sources))
			if r == nil || r.IsZero() {
				t.Fatal("expected a reader")
			}

			var buf bytes.Buffer
			if _, err := r.WriteTo(&buf); err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("content mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWithSourceFiles_StdinLast(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.inp", "A\n")

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	saved := os.Stdin
	os.Stdin = r

	t.Cleanup(func() {
		os.Stdin = saved
		r.Close()
	})

	if _, err := w.WriteString("STDIN\n"); err != nil {
		t.Fatal(err)
	}

	w.Close()

	src := sourceFilesFrom(WithSourceFiles(context.Background(), []string{"-", a, "-"}))
	if src == nil || src.Stdin() == nil {
		t.Fatal("expected stdin among the sources")
	}

	data, err := io.ReadAll(src)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff("A\nSTDIN\n", string(data)); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestDeckIn_ReadSources(t *testing.T) {
	dir := t.TempDir()
	head, tail, _ := strings.Cut(cellDeck, "END\n")

	first := writeFile(t, dir, "bodies.inp", head+"END\n")
	second := writeFile(t, dir, "regions.inp", tail)

	ctx := WithSourceFiles(context.Background(), []string{first, second})

	g, err := DeckIn{}.read(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"TARG", "VOID"}, labels(g.Bodies)); diff != "" {
		t.Errorf("bodies mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"TARGET", "AIR"}, labels(g.Regions)); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestDeckIn_ReadLibrary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cell.inp", cellDeck)

	ctx := WithLibrary(context.Background(), []string{dir})

	g, err := DeckIn{Deck: "cell"}.read(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if g.Title != "cell" {
		t.Errorf("unexpected title %q", g.Title)
	}

	if _, err := (DeckIn{Deck: "gone"}).read(ctx); !errors.Is(err, pkg.ErrDeckNotFound) {
		t.Errorf("expected ErrDeckNotFound, got %v", err)
	}
}

func TestDeckIn_Defines(t *testing.T) {
	const deck = `GEOBEGIN
    0    0          defines
#if THICK
SPH A 0.0 0.0 0.0 2.0
#else
SPH A 0.0 0.0 0.0 1.0
#endif
END
R 5 +A
END
GEOEND
`
	path := writeFile(t, t.TempDir(), "defs.inp", deck)

	tests := []struct {
		defines []string
		want    float64
	}{
		{nil, 1},
		{[]string{"THICK"}, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.defines), func(t *testing.T) {
			ctx := WithDefines(context.Background(), tt.defines)

			g, err := DeckIn{Deck: path}.read(ctx)
			if err != nil {
				t.Fatal(err)
			}

			if len(g.Bodies) != 1 || g.Bodies[0].Params[3] != tt.want {
				t.Errorf("expected radius %v, got %v", tt.want, g.Bodies)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := ErrArgument.Wrapf("bad value %d", 3).With(slog.Int("value", 3))

	if !errors.Is(err, ErrArgument) {
		t.Error("wrapped copy should match its sentinel")
	}

	if errors.Is(err, ErrDangling) {
		t.Error("wrapped copy should not match another sentinel")
	}

	if got := err.Error(); got != "invalid argument: bad value 3" {
		t.Errorf("unexpected message %q", got)
	}
}
