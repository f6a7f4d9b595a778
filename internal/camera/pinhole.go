package camera

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/geometry"
)

// PinholeIntrinsic holds the image size and the 3x3 intrinsic matrix
// entries. Skew is usually zero.
type PinholeIntrinsic struct {
	Width  int
	Height int
	Fx, Fy float64
	Cx, Cy float64
	Skew   float64
}

// NewPinholeIntrinsic returns an intrinsic with the principal point at the
// given coordinates and no skew.
func NewPinholeIntrinsic(width, height int, fx, fy, cx, cy float64) PinholeIntrinsic {
	return PinholeIntrinsic{Width: width, Height: height, Fx: fx, Fy: fy, Cx: cx, Cy: cy}
}

// Matrix returns the 3x3 intrinsic matrix K.
func (in PinholeIntrinsic) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		in.Fx, in.Skew, in.Cx,
		0, in.Fy, in.Cy,
		0, 0, 1,
	})
}

// Validate checks focal lengths and image size.
func (in PinholeIntrinsic) Validate() error {
	if in.Width <= 0 || in.Height <= 0 {
		return fmt.Errorf("%w: camera image size must be positive, got %dx%d",
			geometry.ErrInvalidParameter, in.Width, in.Height)
	}
	if !(in.Fx > 0) || !(in.Fy > 0) || math.IsInf(in.Fx, 0) || math.IsInf(in.Fy, 0) {
		return fmt.Errorf("%w: focal length must be positive, got fx=%g fy=%g",
			geometry.ErrInvalidParameter, in.Fx, in.Fy)
	}
	return nil
}

// PinholeCameraParameters pairs an intrinsic with a world-to-camera pose.
type PinholeCameraParameters struct {
	Intrinsic PinholeIntrinsic
	Extrinsic geometry.Pose
}

// Validate checks the intrinsic and that the extrinsic is an invertible
// affine transform.
func (p PinholeCameraParameters) Validate() error {
	if err := p.Intrinsic.Validate(); err != nil {
		return err
	}
	if err := p.Extrinsic.Validate(); err != nil {
		return fmt.Errorf("extrinsic: %w", err)
	}
	return nil
}

// ProjectionMatrix returns P = K·[R|t] (3x4).
func (p PinholeCameraParameters) ProjectionMatrix() *mat.Dense {
	rt := p.Extrinsic.Dense().Slice(0, 3, 0, 4)
	var proj mat.Dense
	proj.Mul(p.Intrinsic.Matrix(), rt)
	return &proj
}

// Projector returns a flattened projection for tight per-voxel loops.
func (p PinholeCameraParameters) Projector() Projector {
	proj := p.ProjectionMatrix()
	var pr Projector
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			pr.m[r*4+c] = proj.At(r, c)
		}
	}
	pr.width, pr.height = p.Intrinsic.Width, p.Intrinsic.Height
	return pr
}

// Project maps a world point to image coordinates (u, v) and camera-frame
// depth z.
func (p PinholeCameraParameters) Project(world r3.Vec) (u, v, z float64) {
	return p.Projector().Project(world)
}

// Pixel maps a world point to the pixel it lands on.
func (p PinholeCameraParameters) Pixel(world r3.Vec) (row, col int, z float64, ok bool) {
	return p.Projector().Pixel(world)
}

// Projector is a precomputed 3x4 projection with the declared image size.
type Projector struct {
	m             [12]float64
	width, height int
}

// Project maps a world point to (u, v, z). u and v are NaN when z is zero.
func (pr Projector) Project(w r3.Vec) (u, v, z float64) {
	m := &pr.m
	x := m[0]*w.X + m[1]*w.Y + m[2]*w.Z + m[3]
	y := m[4]*w.X + m[5]*w.Y + m[6]*w.Z + m[7]
	z = m[8]*w.X + m[9]*w.Y + m[10]*w.Z + m[11]
	if z == 0 {
		return math.NaN(), math.NaN(), 0
	}
	return x / z, y / z, z
}

// Pixel returns the floored pixel of a world point. ok is false when the
// point is at or behind the camera plane or lands outside the image.
func (pr Projector) Pixel(w r3.Vec) (row, col int, z float64, ok bool) {
	u, v, z := pr.Project(w)
	if !(z > 0) || math.IsNaN(u) || math.IsNaN(v) {
		return 0, 0, z, false
	}
	col = geometry.FloorIndex(u)
	row = geometry.FloorIndex(v)
	if col < 0 || row < 0 || col >= pr.width || row >= pr.height {
		return row, col, z, false
	}
	return row, col, z, true
}

// Width returns the declared image width.
func (pr Projector) Width() int { return pr.width }

// Height returns the declared image height.
func (pr Projector) Height() int { return pr.height }
