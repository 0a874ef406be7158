package rot

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestAxis_QuarterTurns(t *testing.T) {
	tests := []struct {
		name string
		axis int
		deg  float64
		in   Vec
		want Vec
	}{
		{"x by 90", 1, 90, Vec{0, 1, 0}, Vec{0, 0, 1}},
		{"y by 90", 2, 90, Vec{0, 0, 1}, Vec{1, 0, 0}},
		{"z by 90", 3, 90, Vec{1, 0, 0}, Vec{0, 1, 0}},
		{"z by -90", 3, -90, Vec{1, 0, 0}, Vec{0, -1, 0}},
		{"z by 180", 3, 180, Vec{1, 0, 0}, Vec{-1, 0, 0}},
		{"y by 450", 2, 450, Vec{0, 0, 1}, Vec{1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Axis(tt.axis, tt.deg)
			if err != nil {
				t.Fatal(err)
			}

			if got := m.Apply(tt.in); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAxis_Invalid(t *testing.T) {
	if _, err := Axis(4, 10); err == nil {
		t.Fatal("expected error for axis 4")
	}
}

func TestGimbal_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		list []AxisAngle
	}{
		{"single y", []AxisAngle{{2, 30}}},
		{"x then z", []AxisAngle{{1, 15}, {3, -40}}},
		{"all three", []AxisAngle{{1, 10}, {2, 20}, {3, 30}}},
		{"none", nil},
	}

	approx := cmpopts.EquateApprox(0, 1e-9)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compose(tt.list)
			if err != nil {
				t.Fatal(err)
			}

			got := m.Gimbal()
			if diff := cmp.Diff(tt.list, got, approx, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("gimbal angles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInvert(t *testing.T) {
	list := []AxisAngle{{1, 10}, {3, 25}, {2, -5}}

	m, _ := Compose(list)
	inv, _ := Compose(Invert(list))

	if !inv.Mul(m).IsIdentity(1e-12) {
		t.Errorf("expected inverse composition to be identity, got %v", inv.Mul(m))
	}

	want := []AxisAngle{{2, 5}, {3, -25}, {1, -10}}
	if diff := cmp.Diff(want, Invert(list)); diff != "" {
		t.Errorf("inverse mismatch (-want +got):\n%s", diff)
	}
}

func TestTranspose(t *testing.T) {
	m, _ := Compose([]AxisAngle{{1, 33}, {2, 44}})

	if !m.Transpose().Mul(m).IsIdentity(1e-12) {
		t.Error("expected transpose to invert a rotation")
	}
}

func TestVec(t *testing.T) {
	v := Vec{3, 4, 0}

	if v.Norm() != 5 {
		t.Errorf("expected norm 5, got %v", v.Norm())
	}

	if d := v.Dist(Vec{}); math.Abs(d-5) > 0 {
		t.Errorf("expected distance 5, got %v", d)
	}

	if got := v.Add(Vec{1, 1, 1}).Sub(Vec{1, 1, 1}); got != v {
		t.Errorf("expected %v, got %v", v, got)
	}
}
