// Package rot holds the small amount of rigid-motion math geodeck needs:
// 3-vectors, 3x3 rotation matrices, elementary rotations about the x, y, and
// z axes, and their decomposition into gimbal angles.
//
// Angles are in degrees and follow the right-hand rule. Axes are numbered
// 1 (x), 2 (y), 3 (z) as on the deck cards.
package rot

import (
	"fmt"
	"math"
)

// Vec is a point or direction in 3-D space.
type Vec [3]float64

// Add returns v+u.
func (v Vec) Add(u Vec) Vec { return Vec{v[0] + u[0], v[1] + u[1], v[2] + u[2]} }

// Sub returns v-u.
func (v Vec) Sub(u Vec) Vec { return Vec{v[0] - u[0], v[1] - u[1], v[2] - u[2]} }

// Scale returns s*v.
func (v Vec) Scale(s float64) Vec { return Vec{s * v[0], s * v[1], s * v[2]} }

// Neg returns -v.
func (v Vec) Neg() Vec { return v.Scale(-1) }

// Dot returns the scalar product of v and u.
func (v Vec) Dot(u Vec) float64 { return v[0]*u[0] + v[1]*u[1] + v[2]*u[2] }

// Norm returns the Euclidean length of v.
func (v Vec) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Dist returns the Euclidean distance between v and u.
func (v Vec) Dist(u Vec) float64 { return v.Sub(u).Norm() }

// IsZero reports whether every component of v is exactly zero.
func (v Vec) IsZero() bool { return v == Vec{} }

// Matrix is a 3x3 rotation matrix in row-major order.
type Matrix [3][3]float64

// Identity returns the identity rotation.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Axis returns the rotation by deg degrees about the given axis (1, 2, or 3).
func Axis(axis int, deg float64) (Matrix, error) {
	s, c := sincos(deg)

	switch axis {
	case 1:
		return Matrix{{1, 0, 0}, {0, c, -s}, {0, s, c}}, nil
	case 2:
		return Matrix{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}, nil
	case 3:
		return Matrix{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}, nil
	default:
		return Identity(), fmt.Errorf("invalid rotation axis %d", axis)
	}
}

// sincos returns exact values at multiples of 90 degrees so that quarter
// turns do not leave 1e-17 residues in echoed cards.
func sincos(deg float64) (s, c float64) {
	if q := deg / 90; q == math.Trunc(q) {
		switch ((int(q) % 4) + 4) % 4 {
		case 0:
			return 0, 1
		case 1:
			return 1, 0
		case 2:
			return 0, -1
		case 3:
			return -1, 0
		}
	}

	return math.Sincos(deg * math.Pi / 180)
}

// Mul returns the product m*n, the rotation applying n first and m second.
func (m Matrix) Mul(n Matrix) Matrix {
	var p Matrix

	for i := range 3 {
		for j := range 3 {
			for k := range 3 {
				p[i][j] += m[i][k] * n[k][j]
			}
		}
	}

	return p
}

// Apply returns m*v.
func (m Matrix) Apply(v Vec) Vec {
	var r Vec

	for i := range 3 {
		r[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}

	return r
}

// Transpose returns the transpose of m, which is its inverse.
func (m Matrix) Transpose() Matrix {
	var t Matrix

	for i := range 3 {
		for j := range 3 {
			t[i][j] = m[j][i]
		}
	}

	return t
}

// IsIdentity reports whether m differs from the identity by at most tol in
// every element.
func (m Matrix) IsIdentity(tol float64) bool {
	id := Identity()

	for i := range 3 {
		for j := range 3 {
			if math.Abs(m[i][j]-id[i][j]) > tol {
				return false
			}
		}
	}

	return true
}

// Gimbal decomposes m into rotations about x, y, and z (in that order of
// application, so m = Rz*Ry*Rx) and returns them as an angle list holding
// only the non-zero angles.
func (m Matrix) Gimbal() []AxisAngle {
	var x, y, z float64

	sy := -m[2][0]
	sy = math.Max(-1, math.Min(1, sy))
	y = math.Asin(sy)

	if math.Abs(math.Cos(y)) > 1e-12 {
		x = math.Atan2(m[2][1], m[2][2])
		z = math.Atan2(m[1][0], m[0][0])
	} else {
		z = math.Atan2(-m[0][1], m[1][1])
	}

	var list []AxisAngle

	for i, rad := range []float64{x, y, z} {
		if deg := clean(rad * 180 / math.Pi); deg != 0 {
			list = append(list, AxisAngle{Axis: i + 1, Angle: deg})
		}
	}

	return list
}

// clean snaps values within 1e-9 of an integer to that integer.
func clean(deg float64) float64 {
	if r := math.Round(deg); math.Abs(deg-r) < 1e-9 {
		return r + 0 // normalize -0
	}

	return deg
}

// AxisAngle is an elementary rotation of Angle degrees about Axis.
type AxisAngle struct {
	Axis  int
	Angle float64
}

// Matrix returns the rotation matrix of a.
func (a AxisAngle) Matrix() (Matrix, error) { return Axis(a.Axis, a.Angle) }

// Compose returns the matrix applying each rotation of list in order.
func Compose(list []AxisAngle) (Matrix, error) {
	m := Identity()

	for _, a := range list {
		r, err := a.Matrix()
		if err != nil {
			return m, err
		}

		m = r.Mul(m)
	}

	return m, nil
}

// Invert returns the rotation list undoing list: reversed order, negated
// angles.
func Invert(list []AxisAngle) []AxisAngle {
	inv := make([]AxisAngle, len(list))

	for i, a := range list {
		inv[len(list)-1-i] = AxisAngle{Axis: a.Axis, Angle: -a.Angle}
	}

	return inv
}

// NonZero returns the elements of list with a non-zero angle.
func NonZero(list []AxisAngle) []AxisAngle {
	var out []AxisAngle

	for _, a := range list {
		if a.Angle != 0 {
			out = append(out, a)
		}
	}

	return out
}
