package camera

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/geometry"
)

// LookAt returns the world-to-camera pose of a camera at eye looking at
// target, with up giving the world direction that appears upward in the image.
func LookAt(eye, target, up r3.Vec) (geometry.Pose, error) {
	fwd := r3.Sub(target, eye)
	if r3.Norm(fwd) < 1e-12 {
		return geometry.Pose{}, fmt.Errorf("%w: eye and target coincide", geometry.ErrInvalidParameter)
	}
	fwd = r3.Unit(fwd)

	right := r3.Cross(fwd, up)
	if r3.Norm(right) < 1e-12 {
		return geometry.Pose{}, fmt.Errorf("%w: up vector is parallel to the view direction", geometry.ErrInvalidParameter)
	}
	right = r3.Unit(right)
	down := r3.Cross(fwd, right)

	pose := geometry.IdentityPose()
	for c, rowVec := range []r3.Vec{right, down, fwd} {
		pose[c*4+0] = rowVec.X
		pose[c*4+1] = rowVec.Y
		pose[c*4+2] = rowVec.Z
		pose[c*4+3] = -r3.Dot(rowVec, eye)
	}
	return pose, nil
}
