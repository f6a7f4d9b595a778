package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// GridIndex is the integer position of a voxel relative to its grid origin.
// It is comparable and used directly as a map key.
type GridIndex [3]int

// Add returns the componentwise sum of two indices.
func (g GridIndex) Add(o GridIndex) GridIndex {
	return GridIndex{g[0] + o[0], g[1] + o[1], g[2] + o[2]}
}

// Vec returns the index as a real vector.
func (g GridIndex) Vec() r3.Vec {
	return r3.Vec{X: float64(g[0]), Y: float64(g[1]), Z: float64(g[2])}
}

func (g GridIndex) String() string {
	return fmt.Sprintf("(%d,%d,%d)", g[0], g[1], g[2])
}

// Less orders indices lexicographically by X, then Y, then Z.
func (g GridIndex) Less(o GridIndex) bool {
	if g[0] != o[0] {
		return g[0] < o[0]
	}
	if g[1] != o[1] {
		return g[1] < o[1]
	}
	return g[2] < o[2]
}

// Color is an RGB triple in [0,1]. The zero value (black) is the default
// color of every voxel.
type Color struct {
	R, G, B float64
}

// Vec returns the color as a vector, convenient for averaging.
func (c Color) Vec() r3.Vec { return r3.Vec{X: c.R, Y: c.G, Z: c.B} }

// ColorFromVec is the inverse of Color.Vec.
func ColorFromVec(v r3.Vec) Color { return Color{R: v.X, G: v.Y, B: v.Z} }

// FloorIndex is the single rounding rule used to map a continuous coordinate
// onto a discrete cell, for both grid indices and image pixels.
func FloorIndex(x float64) int {
	return int(math.Floor(x))
}

// CellIndex maps a world point to the cell it falls in for a grid anchored
// at origin with the given cell size.
func CellIndex(point, origin r3.Vec, cellSize float64) GridIndex {
	rel := r3.Scale(1/cellSize, r3.Sub(point, origin))
	return GridIndex{FloorIndex(rel.X), FloorIndex(rel.Y), FloorIndex(rel.Z)}
}

// CellCenter is the world center of cell idx: origin + (idx + 0.5) * size.
func CellCenter(idx GridIndex, origin r3.Vec, cellSize float64) r3.Vec {
	half := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	return r3.Add(origin, r3.Scale(cellSize, r3.Add(idx.Vec(), half)))
}

// ComponentMin returns the componentwise minimum of a and b.
func ComponentMin(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// ComponentMax returns the componentwise maximum of a and b.
func ComponentMax(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// InBox reports whether p lies inside the closed box [min, max].
func InBox(p, min, max r3.Vec) bool {
	return p.X >= min.X && p.X <= max.X &&
		p.Y >= min.Y && p.Y <= max.Y &&
		p.Z >= min.Z && p.Z <= max.Z
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
