package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a 4x4 row-major homogeneous transform:
// m00,m01,m02,m03, m10,..., m30,m31,m32,m33.
type Pose [16]float64

// IdentityPose returns the identity transform.
func IdentityPose() Pose {
	return Pose{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// TranslationPose returns a pure translation by t.
func TranslationPose(t r3.Vec) Pose {
	p := IdentityPose()
	p[3], p[7], p[11] = t.X, t.Y, t.Z
	return p
}

// ScalePose returns a uniform scale by s about the world origin.
func ScalePose(s float64) Pose {
	p := IdentityPose()
	p[0], p[5], p[10] = s, s, s
	return p
}

// RotationXYZPose returns the rotation Rx(a.X)·Ry(a.Y)·Rz(a.Z), angles in
// radians, matching the XYZ Euler convention of the geometry transforms.
func RotationXYZPose(angles r3.Vec) Pose {
	rx := r3.NewRotation(angles.X, r3.Vec{X: 1})
	ry := r3.NewRotation(angles.Y, r3.Vec{Y: 1})
	rz := r3.NewRotation(angles.Z, r3.Vec{Z: 1})
	rot := func(v r3.Vec) r3.Vec { return rx.Rotate(ry.Rotate(rz.Rotate(v))) }

	p := IdentityPose()
	for col, basis := range []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		c := rot(basis)
		p[col], p[4+col], p[8+col] = c.X, c.Y, c.Z
	}
	return p
}

// Apply applies the transform to point (x,y,z).
func (p Pose) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: p[0]*v.X + p[1]*v.Y + p[2]*v.Z + p[3],
		Y: p[4]*v.X + p[5]*v.Y + p[6]*v.Z + p[7],
		Z: p[8]*v.X + p[9]*v.Y + p[10]*v.Z + p[11],
	}
}

// Mul returns p·o, the transform that applies o first and then p.
func (p Pose) Mul(o Pose) Pose {
	var out Pose
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += p[r*4+k] * o[k*4+c]
			}
			out[r*4+c] = s
		}
	}
	return out
}

// Translation returns the translation column.
func (p Pose) Translation() r3.Vec {
	return r3.Vec{X: p[3], Y: p[7], Z: p[11]}
}

// Linear returns the upper-left 3x3 block.
func (p Pose) Linear() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		p[0], p[1], p[2],
		p[4], p[5], p[6],
		p[8], p[9], p[10],
	})
}

// Dense returns the full 4x4 matrix.
func (p Pose) Dense() *mat.Dense {
	data := make([]float64, 16)
	copy(data, p[:])
	return mat.NewDense(4, 4, data)
}

// Det returns the determinant of the linear part.
func (p Pose) Det() float64 {
	return mat.Det(p.Linear())
}

// IsAffine reports whether the bottom row is (0,0,0,1) and every entry is finite.
func (p Pose) IsAffine() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p[12] == 0 && p[13] == 0 && p[14] == 0 && p[15] == 1
}

// Validate checks that the pose is an invertible affine transform.
func (p Pose) Validate() error {
	if !p.IsAffine() {
		return fmt.Errorf("%w: pose is not affine (bottom row %v)", ErrInvalidParameter, p[12:])
	}
	if d := p.Det(); math.Abs(d) < 1e-12 {
		return fmt.Errorf("%w: pose is singular (det=%g)", ErrInvalidParameter, d)
	}
	return nil
}

// AboutPoint conjugates p so that it acts around center instead of the
// world origin: T(center)·p·T(-center).
func (p Pose) AboutPoint(center r3.Vec) Pose {
	return TranslationPose(center).Mul(p).Mul(TranslationPose(r3.Scale(-1, center)))
}

// FromColumnMajor builds a Pose from 16 column-major values, the layout used
// by Open3D JSON files.
func FromColumnMajor(vals []float64) (Pose, error) {
	if len(vals) != 16 {
		return Pose{}, fmt.Errorf("%w: expected 16 values, got %d", ErrInvalidParameter, len(vals))
	}
	var p Pose
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			p[r*4+c] = vals[c*4+r]
		}
	}
	return p, nil
}

// ColumnMajor is the inverse of FromColumnMajor.
func (p Pose) ColumnMajor() []float64 {
	out := make([]float64, 16)
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c*4+r] = p[r*4+c]
		}
	}
	return out
}
