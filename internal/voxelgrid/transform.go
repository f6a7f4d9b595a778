package voxelgrid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/geometry"
)

// A voxel grid is axis aligned with uniform spacing, so only translation and
// positive uniform scale are represented exactly. Rotations and general
// affine poses move every voxel center and re-index it on a new axis-aligned
// lattice; voxels that land in the same cell collapse (first write wins), so
// the result approximates the transformed shape.

var _ geometry.Transformer = (*VoxelGrid)(nil)

// Translate shifts the grid by t. Grid indices are unchanged.
func (g *VoxelGrid) Translate(t r3.Vec) {
	g.origin = r3.Add(g.origin, t)
}

// Scale scales the grid by s about its bounding-box center, or about the
// world origin when aboutCenter is false. Grid indices are unchanged.
func (g *VoxelGrid) Scale(s float64, aboutCenter bool) error {
	if !(s > 0) || math.IsInf(s, 0) {
		return fmt.Errorf("%w: scale must be positive, got %g", geometry.ErrInvalidParameter, s)
	}
	var c r3.Vec
	if aboutCenter {
		c = geometry.Center(g)
	}
	g.origin = r3.Add(c, r3.Scale(s, r3.Sub(g.origin, c)))
	g.voxelSize *= s
	return nil
}

// Rotate rotates the grid by XYZ Euler angles (radians) about its
// bounding-box center or the world origin. Approximate: see Transform.
func (g *VoxelGrid) Rotate(anglesXYZ r3.Vec, aboutCenter bool) error {
	pose := geometry.RotationXYZPose(anglesXYZ)
	if aboutCenter {
		pose = pose.AboutPoint(geometry.Center(g))
	}
	return g.Transform(pose)
}

// Transform applies an affine pose. The new voxel size is scaled by the
// cube root of |det|, the origin is mapped by the pose, and each voxel
// center is re-indexed on the resulting lattice. Exact for translations and
// uniform scales; approximate otherwise. The grid is unchanged on error.
func (g *VoxelGrid) Transform(p geometry.Pose) error {
	if err := p.Validate(); err != nil {
		return err
	}
	size := g.voxelSize * math.Cbrt(math.Abs(p.Det()))
	origin := p.Apply(g.origin)
	if g.IsEmpty() {
		g.voxelSize, g.origin = size, origin
		return nil
	}
	if err := checkVoxelSize(size); err != nil {
		return err
	}

	out := &VoxelGrid{voxelSize: size, origin: origin}
	for _, v := range g.voxels {
		c := p.Apply(g.center(v.GridIndex))
		out.insert(Voxel{GridIndex: out.GridIndexOf(c), Color: v.Color})
	}
	*g = *out
	return nil
}
