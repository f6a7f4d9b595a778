package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/banshee-data/voxel.carve/internal/geometry"
)

// DefaultDepthScale converts 16-bit depth PNG values (millimetres) to metres.
const DefaultDepthScale = 1000.0

// ReadPNG decodes the PNG file at path.
func ReadPNG(path string) (image.Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// DepthFromImage converts a single-channel 16-bit image into metric depth by
// dividing each raw value by depthScale. Zero raw values stay zero, which the
// carver reads as "no measurement".
func DepthFromImage(img image.Image, depthScale float64) (*Float, error) {
	if depthScale <= 0 {
		return nil, fmt.Errorf("%w: depth scale must be positive, got %g", geometry.ErrInvalidParameter, depthScale)
	}
	b := img.Bounds()
	out, err := NewFloat(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			raw := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
			out.Set(y-b.Min.Y, x-b.Min.X, float64(raw)/depthScale)
		}
	}
	return out, nil
}

// MaskFromImage converts an image into a silhouette mask with luminance
// normalised to [0,1].
func MaskFromImage(img image.Image) (*Float, error) {
	b := img.Bounds()
	out, err := NewFloat(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			lum := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
			out.Set(y-b.Min.Y, x-b.Min.X, float64(lum)/0xffff)
		}
	}
	return out, nil
}

// ReadDepthPNG loads a 16-bit depth PNG and scales it to metres.
func ReadDepthPNG(path string, depthScale float64) (*Float, error) {
	img, err := ReadPNG(path)
	if err != nil {
		return nil, err
	}
	return DepthFromImage(img, depthScale)
}

// ReadMaskPNG loads a silhouette mask PNG.
func ReadMaskPNG(path string) (*Float, error) {
	img, err := ReadPNG(path)
	if err != nil {
		return nil, err
	}
	return MaskFromImage(img)
}
