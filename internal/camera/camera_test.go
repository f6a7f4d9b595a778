package camera

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/geometry"
)

func frontCamera(t *testing.T) PinholeCameraParameters {
	t.Helper()
	pose, err := LookAt(r3.Vec{Z: -10}, r3.Vec{}, r3.Vec{Y: 1})
	require.NoError(t, err)
	return PinholeCameraParameters{
		Intrinsic: NewPinholeIntrinsic(640, 480, 500, 500, 320, 240),
		Extrinsic: pose,
	}
}

func TestLookAt_TargetOnOpticalAxis(t *testing.T) {
	cam := frontCamera(t)
	u, v, z := cam.Project(r3.Vec{})
	assert.InDelta(t, 320, u, 1e-9)
	assert.InDelta(t, 240, v, 1e-9)
	assert.InDelta(t, 10, z, 1e-9)
}

func TestLookAt_UpAppearsAboveCenter(t *testing.T) {
	cam := frontCamera(t)
	_, v, _ := cam.Project(r3.Vec{Y: 1})
	assert.Less(t, v, 240.0, "world up should map to smaller row")
}

func TestLookAt_Degenerate(t *testing.T) {
	_, err := LookAt(r3.Vec{}, r3.Vec{}, r3.Vec{Y: 1})
	assert.ErrorIs(t, err, geometry.ErrInvalidParameter)

	_, err = LookAt(r3.Vec{}, r3.Vec{Y: 5}, r3.Vec{Y: 1})
	assert.ErrorIs(t, err, geometry.ErrInvalidParameter)
}

func TestValidate(t *testing.T) {
	cam := frontCamera(t)
	require.NoError(t, cam.Validate())

	bad := cam
	bad.Intrinsic.Fx = 0
	assert.ErrorIs(t, bad.Validate(), geometry.ErrInvalidParameter)

	bad = cam
	bad.Intrinsic.Fy = -1
	assert.ErrorIs(t, bad.Validate(), geometry.ErrInvalidParameter)

	bad = cam
	bad.Intrinsic.Width = 0
	assert.ErrorIs(t, bad.Validate(), geometry.ErrInvalidParameter)

	bad = cam
	bad.Extrinsic = geometry.Pose{}
	assert.ErrorIs(t, bad.Validate(), geometry.ErrInvalidParameter)
}

func TestPixel_FloorAndBounds(t *testing.T) {
	cam := PinholeCameraParameters{
		Intrinsic: NewPinholeIntrinsic(4, 4, 1, 1, 0, 0),
		Extrinsic: geometry.IdentityPose(),
	}

	row, col, z, ok := cam.Pixel(r3.Vec{X: 2.999, Y: 1, Z: 1})
	require.True(t, ok)
	assert.Equal(t, 1, row)
	assert.Equal(t, 2, col)
	assert.Equal(t, 1.0, z)

	// Exactly on a pixel boundary floors to the higher pixel.
	row, col, _, ok = cam.Pixel(r3.Vec{X: 3, Y: 3, Z: 1})
	require.True(t, ok)
	assert.Equal(t, 3, row)
	assert.Equal(t, 3, col)

	_, _, _, ok = cam.Pixel(r3.Vec{X: 4, Y: 0, Z: 1})
	assert.False(t, ok, "u == width is outside")

	_, _, _, ok = cam.Pixel(r3.Vec{X: -0.001, Y: 0, Z: 1})
	assert.False(t, ok)

	_, _, _, ok = cam.Pixel(r3.Vec{X: 1, Y: 1, Z: -1})
	assert.False(t, ok, "behind camera")

	_, _, _, ok = cam.Pixel(r3.Vec{X: 1, Y: 1})
	assert.False(t, ok, "on camera plane")
}

func TestProjectionMatrix_MatchesManualProjection(t *testing.T) {
	cam := frontCamera(t)
	p := r3.Vec{X: 0.3, Y: -0.7, Z: 1.1}

	cp := cam.Extrinsic.Apply(p)
	wantU := cam.Intrinsic.Fx*cp.X/cp.Z + cam.Intrinsic.Cx
	wantV := cam.Intrinsic.Fy*cp.Y/cp.Z + cam.Intrinsic.Cy

	u, v, z := cam.Project(p)
	assert.InDelta(t, wantU, u, 1e-9)
	assert.InDelta(t, wantV, v, 1e-9)
	assert.InDelta(t, cp.Z, z, 1e-9)
}

func TestParametersJSONRoundTrip(t *testing.T) {
	cam := frontCamera(t)
	cam.Intrinsic.Skew = 0.5

	path := filepath.Join(t.TempDir(), "cam.json")
	require.NoError(t, SaveParameters(path, cam))

	got, err := LoadParameters(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cam, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("camera mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshal_Open3DLayout(t *testing.T) {
	doc := `{
		"class_name": "PinholeCameraParameters",
		"extrinsic": [1,0,0,0, 0,1,0,0, 0,0,1,0, 1,2,3,1],
		"intrinsic": {"width": 640, "height": 480,
			"intrinsic_matrix": [525,0,0, 0,525,0, 319.5,239.5,1]},
		"version_major": 1, "version_minor": 0
	}`
	var cam PinholeCameraParameters
	require.NoError(t, json.Unmarshal([]byte(doc), &cam))
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, cam.Extrinsic.Translation())
	assert.Equal(t, 525.0, cam.Intrinsic.Fx)
	assert.Equal(t, 319.5, cam.Intrinsic.Cx)
	assert.Equal(t, 239.5, cam.Intrinsic.Cy)

	err := json.Unmarshal([]byte(`{"class_name":"Other","extrinsic":[]}`), &cam)
	assert.ErrorIs(t, err, geometry.ErrInvalidParameter)
}

func TestProject_ZeroDepthIsNaN(t *testing.T) {
	cam := PinholeCameraParameters{
		Intrinsic: NewPinholeIntrinsic(4, 4, 1, 1, 0, 0),
		Extrinsic: geometry.IdentityPose(),
	}
	u, v, z := cam.Project(r3.Vec{X: 1})
	assert.True(t, math.IsNaN(u))
	assert.True(t, math.IsNaN(v))
	assert.Equal(t, 0.0, z)
}
