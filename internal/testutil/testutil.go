// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/camera"
	"github.com/banshee-data/voxel.carve/internal/raster"
	"github.com/banshee-data/voxel.carve/internal/voxelgrid"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertVoxelCount checks the number of voxels in g.
func AssertVoxelCount(t testing.TB, g *voxelgrid.VoxelGrid, want int) {
	t.Helper()
	if got := g.Len(); got != want {
		t.Errorf("voxel count = %d, want %d", got, want)
	}
}

// DenseCube returns an n x n x n dense grid anchored at the world origin.
func DenseCube(t testing.TB, n int, voxelSize float64) *voxelgrid.VoxelGrid {
	t.Helper()
	ext := float64(n) * voxelSize
	g, err := voxelgrid.CreateDense(ext, ext, ext, voxelSize, r3.Vec{})
	AssertNoError(t, err)
	return g
}

// FilledImage returns a w x h raster with every pixel set to v.
func FilledImage(t testing.TB, w, h int, v float64) *raster.Float {
	t.Helper()
	img, err := raster.NewFloat(w, h)
	AssertNoError(t, err)
	img.Fill(v)
	return img
}

// LookAtCamera returns a camera at eye looking at target with world +Y up
// and a principal point at the image center.
func LookAtCamera(t testing.TB, eye, target r3.Vec, w, h int, focal float64) camera.PinholeCameraParameters {
	t.Helper()
	up := r3.Vec{Y: 1}
	if d := r3.Unit(r3.Sub(target, eye)); math.Abs(d.Y) > 0.99 {
		up = r3.Vec{Z: 1}
	}
	pose, err := camera.LookAt(eye, target, up)
	AssertNoError(t, err)
	return camera.PinholeCameraParameters{
		Intrinsic: camera.NewPinholeIntrinsic(w, h, focal, focal, float64(w)/2, float64(h)/2),
		Extrinsic: pose,
	}
}

// RingCameras returns n cameras evenly spaced on a horizontal circle of the
// given radius around center, all looking at center.
func RingCameras(t testing.TB, n int, center r3.Vec, radius float64, w, h int, focal float64) []camera.PinholeCameraParameters {
	t.Helper()
	cams := make([]camera.PinholeCameraParameters, n)
	for i := range cams {
		a := 2 * math.Pi * float64(i) / float64(n)
		eye := r3.Add(center, r3.Vec{X: radius * math.Cos(a), Z: radius * math.Sin(a)})
		cams[i] = LookAtCamera(t, eye, center, w, h, focal)
	}
	return cams
}
