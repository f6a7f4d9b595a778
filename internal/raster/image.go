package raster

import (
	"fmt"

	"github.com/banshee-data/voxel.carve/internal/geometry"
)

// Image is a read-only 2D grid of scalar values.
type Image interface {
	Width() int
	Height() int
	// At returns the value at (row, col). Callers must stay within bounds.
	At(row, col int) float64
}

// Float is a dense row-major image of float32 values.
type Float struct {
	width, height int
	pix           []float32
}

// NewFloat allocates a zeroed width x height image.
func NewFloat(width, height int) (*Float, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image size must be positive, got %dx%d", geometry.ErrInvalidParameter, width, height)
	}
	return &Float{width: width, height: height, pix: make([]float32, width*height)}, nil
}

// Width returns the number of columns.
func (f *Float) Width() int { return f.width }

// Height returns the number of rows.
func (f *Float) Height() int { return f.height }

// At returns the value at (row, col).
func (f *Float) At(row, col int) float64 {
	return float64(f.pix[row*f.width+col])
}

// Set stores v at (row, col). Out-of-range writes are ignored.
func (f *Float) Set(row, col int, v float64) {
	if !InBounds(f, row, col) {
		return
	}
	f.pix[row*f.width+col] = float32(v)
}

// Fill sets every pixel to v.
func (f *Float) Fill(v float64) {
	for i := range f.pix {
		f.pix[i] = float32(v)
	}
}

// FillRect sets every pixel in rows [r0,r1) and cols [c0,c1) to v, clipped
// to the image.
func (f *Float) FillRect(r0, c0, r1, c1 int, v float64) {
	for r := max(r0, 0); r < min(r1, f.height); r++ {
		for c := max(c0, 0); c < min(c1, f.width); c++ {
			f.pix[r*f.width+c] = float32(v)
		}
	}
}

// InBounds reports whether (row, col) addresses a pixel of img.
func InBounds(img Image, row, col int) bool {
	return row >= 0 && col >= 0 && row < img.Height() && col < img.Width()
}

// CheckSize returns ErrInvalidParameter when img is nil or not width x height.
func CheckSize(img Image, width, height int) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", geometry.ErrInvalidParameter)
	}
	if img.Width() != width || img.Height() != height {
		return fmt.Errorf("%w: image is %dx%d, camera expects %dx%d",
			geometry.ErrInvalidParameter, img.Width(), img.Height(), width, height)
	}
	return nil
}

var _ Image = (*Float)(nil)
