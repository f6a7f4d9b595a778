package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// PointCloud is an ordered set of points with an optional parallel slice of
// per-point colors. Colors is either empty or the same length as Points.
type PointCloud struct {
	Points []r3.Vec
	Colors []Color
}

// NewPointCloud returns a cloud over the given points without colors.
func NewPointCloud(points ...r3.Vec) *PointCloud {
	return &PointCloud{Points: points}
}

// Len returns the number of points.
func (pc *PointCloud) Len() int {
	if pc == nil {
		return 0
	}
	return len(pc.Points)
}

// IsEmpty reports whether the cloud has no points.
func (pc *PointCloud) IsEmpty() bool { return pc.Len() == 0 }

// HasColors reports whether every point carries a color.
func (pc *PointCloud) HasColors() bool {
	return pc.Len() > 0 && len(pc.Colors) == len(pc.Points)
}

// Validate checks the color slice length contract.
func (pc *PointCloud) Validate() error {
	if pc == nil {
		return fmt.Errorf("%w: nil point cloud", ErrEmptyInput)
	}
	if len(pc.Colors) != 0 && len(pc.Colors) != len(pc.Points) {
		return fmt.Errorf("%w: %d colors for %d points", ErrInvalidParameter, len(pc.Colors), len(pc.Points))
	}
	for i, p := range pc.Points {
		if !IsFinite(p) {
			return fmt.Errorf("%w: point %d is not finite: %v", ErrInvalidParameter, i, p)
		}
	}
	return nil
}

// MinBound returns the componentwise minimum over all points, or the zero
// vector for an empty cloud.
func (pc *PointCloud) MinBound() r3.Vec {
	if pc.IsEmpty() {
		return r3.Vec{}
	}
	m := pc.Points[0]
	for _, p := range pc.Points[1:] {
		m = ComponentMin(m, p)
	}
	return m
}

// MaxBound returns the componentwise maximum over all points, or the zero
// vector for an empty cloud.
func (pc *PointCloud) MaxBound() r3.Vec {
	if pc.IsEmpty() {
		return r3.Vec{}
	}
	m := pc.Points[0]
	for _, p := range pc.Points[1:] {
		m = ComponentMax(m, p)
	}
	return m
}

// Transform applies an affine pose to every point. Exact for any pose.
func (pc *PointCloud) Transform(p Pose) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for i, v := range pc.Points {
		pc.Points[i] = p.Apply(v)
	}
	return nil
}

// Translate shifts every point by t.
func (pc *PointCloud) Translate(t r3.Vec) {
	for i, v := range pc.Points {
		pc.Points[i] = r3.Add(v, t)
	}
}

// Scale scales the cloud by s about its center or the world origin.
func (pc *PointCloud) Scale(s float64, aboutCenter bool) error {
	if s <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %g", ErrInvalidParameter, s)
	}
	pose := ScalePose(s)
	if aboutCenter && !pc.IsEmpty() {
		pose = pose.AboutPoint(Center(pc))
	}
	return pc.Transform(pose)
}

// Rotate rotates the cloud by XYZ Euler angles about its center or the
// world origin.
func (pc *PointCloud) Rotate(anglesXYZ r3.Vec, aboutCenter bool) error {
	pose := RotationXYZPose(anglesXYZ)
	if aboutCenter && !pc.IsEmpty() {
		pose = pose.AboutPoint(Center(pc))
	}
	return pc.Transform(pose)
}

var _ Transformer = (*PointCloud)(nil)
