package geom

import (
	"math"
	"strconv"
	"strings"
	"testing"
)

func TestFormatFixed(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want string
	}{
		{"zero", 0, "       0.0"},
		{"integer", 10, "      10.0"},
		{"fraction", -0.25, "     -0.25"},
		{"short exponent", -1.5e-7, "  -1.5e-07"},
		{"long fraction", 1.0 / 3, "3.33333E-1"},
		{"large", 123456789012, "1.2346E+11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatFixed(tt.v); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatFixed_Extremes(t *testing.T) {
	for _, v := range []float64{
		math.MaxFloat64,
		-math.MaxFloat64,
		math.SmallestNonzeroFloat64,
		-math.SmallestNonzeroFloat64,
		-2.2250738585072014e-308,
		-9.87654321e+250,
		1.23456789012345e-300,
	} {
		t.Run(strconv.FormatFloat(v, 'g', -1, 64), func(t *testing.T) {
			s := formatFixed(v)
			if len(s) != fieldWidth {
				t.Fatalf("expected %d columns, got %q", fieldWidth, s)
			}

			got, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				t.Fatal(err)
			}

			if math.Abs(got-v) > math.Abs(v)*1e-2 {
				t.Errorf("%q reads back as %g, want about %g", s, got, v)
			}
		})
	}
}
