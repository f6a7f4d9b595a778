package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Bounded is implemented by geometries with an axis-aligned extent.
type Bounded interface {
	IsEmpty() bool
	MinBound() r3.Vec
	MaxBound() r3.Vec
}

// Transformer is the capability "supports affine transform" shared by point
// clouds and voxel grids. Implementations document which transforms are
// exact for their representation.
type Transformer interface {
	Bounded
	Transform(p Pose) error
	Translate(t r3.Vec)
	Scale(s float64, aboutCenter bool) error
	Rotate(anglesXYZ r3.Vec, aboutCenter bool) error
}

// Center returns the midpoint of a Bounded's extent.
func Center(b Bounded) r3.Vec {
	return r3.Scale(0.5, r3.Add(b.MinBound(), b.MaxBound()))
}
