package geom

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func collect(t *testing.T, src string, defs Defines) ([]Line, error) {
	t.Helper()

	var out []Line

	for l, err := range Preprocess(strings.Lines(src), defs) {
		if err != nil {
			return out, err
		}

		out = append(out, l)
	}

	return out, nil
}

func TestPreprocess_Active(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		defines []string
		want    []Line
	}{
		{
			name: "no directives",
			src:  "a\nb\n",
			want: []Line{{1, "a"}, {2, "b"}},
		},
		{
			name:    "if taken",
			src:     "#if X\na\n#else\nb\n#endif\nc\n",
			defines: []string{"X"},
			want:    []Line{{2, "a"}, {6, "c"}},
		},
		{
			name: "else taken",
			src:  "#if X\na\n#else\nb\n#endif\n",
			want: []Line{{4, "b"}},
		},
		{
			name:    "elif taken",
			src:     "#if X\na\n#elif Y\nb\n#else\nc\n#end\n",
			defines: []string{"Y"},
			want:    []Line{{4, "b"}},
		},
		{
			name: "define then test",
			src:  "#define X\n#if X\na\n#endif\n",
			want: []Line{{3, "a"}},
		},
		{
			name: "define inside inactive block",
			src:  "#if NOPE\n#define X\n#endif\n#if X\na\n#endif\n",
			want: []Line{{5, "a"}},
		},
		{
			name:    "nested inactive parent",
			src:     "#if NOPE\n#if X\na\n#else\nb\n#endif\n#endif\nc\n",
			defines: []string{"X"},
			want:    []Line{{8, "c"}},
		},
		{
			name:    "ifdef alias",
			src:     "#ifdef X\na\n#endif\n",
			defines: []string{"X"},
			want:    []Line{{2, "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collect(t, tt.src, NewDefines(tt.defines...))
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPreprocess_DefinesRecorded(t *testing.T) {
	defs := NewDefines()

	if _, err := collect(t, "#define A\n#if B\n#define C\n#endif\n", defs); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"A", "C"}, defs.Names()); diff != "" {
		t.Errorf("defines mismatch (-want +got):\n%s", diff)
	}
}

func TestPreprocess_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"else without if", "#else\n", 1},
		{"elif without if", "a\n#elif X\n", 2},
		{"end without if", "#endif\n", 1},
		{"unclosed block", "#if X\na\n", 0},
		{"valued define", "#define X 1\n", 1},
		{"bare define", "#define\n", 1},
		{"unsupported directive", "#include \"x.inp\"\n", 1},
		{"if without name", "#if\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := collect(t, tt.src, nil)

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}

			if pe.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, pe.Line)
			}

			if !errors.Is(err, ErrStructure) {
				t.Errorf("expected ErrStructure, got %v", err)
			}
		})
	}
}

func TestPreprocess_StopsEarly(t *testing.T) {
	var got []int

	for l, err := range Preprocess(slices.Values([]string{"a", "b", "c"}), nil) {
		if err != nil {
			t.Fatal(err)
		}

		got = append(got, l.Num)
		if l.Num == 2 {
			break
		}
	}

	if diff := cmp.Diff([]int{1, 2}, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}
