package voxelgrid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/geometry"
	"github.com/banshee-data/voxel.carve/internal/octree"
)

// ToOctree returns an octree whose cubic root starts at MinBound and spans the
// largest grid extent, with every voxel center inserted, in collection
// order, carrying its color.
func (g *VoxelGrid) ToOctree(maxDepth int) (*octree.Octree, error) {
	if g.IsEmpty() {
		return nil, fmt.Errorf("%w: cannot build an octree from an empty grid", geometry.ErrEmptyInput)
	}
	lo, hi := g.MinBound(), g.MaxBound()
	ext := r3Extent(lo, hi)
	oct, err := octree.New(lo, ext, maxDepth)
	if err != nil {
		return nil, err
	}
	for _, v := range g.voxels {
		if err := oct.Insert(g.center(v.GridIndex), v.Color); err != nil {
			return nil, fmt.Errorf("insert voxel %v: %w", v.GridIndex, err)
		}
	}
	return oct, nil
}

func r3Extent(lo, hi r3.Vec) float64 {
	d := r3.Sub(hi, lo)
	return math.Max(d.X, math.Max(d.Y, d.Z))
}

// FromOctree replaces the grid's voxels with one voxel per occupied octree
// leaf, placed at the index containing the leaf center and colored with the
// leaf color.
//
// When the grid already has a voxel size, its size and origin are kept.
// Otherwise the size becomes the leaf cell size and the origin the octree
// origin. If two leaves map to the same index, or an index would not fit in
// 32 bits, ErrPrecisionOverflow is returned and the grid is unchanged.
func (g *VoxelGrid) FromOctree(oct *octree.Octree) error {
	if oct == nil {
		return fmt.Errorf("%w: nil octree", geometry.ErrInvalidParameter)
	}
	if oct.IsEmpty() {
		return fmt.Errorf("%w: octree has no occupied leaves", geometry.ErrEmptyInput)
	}

	size, origin := g.voxelSize, g.origin
	if !(size > 0) {
		size, origin = oct.LeafSize(), oct.Origin()
	}
	if oct.Size()/size > math.MaxInt32 {
		return fmt.Errorf("%w: octree span %g is %g voxels of size %g",
			geometry.ErrPrecisionOverflow, oct.Size(), oct.Size()/size, size)
	}

	out := &VoxelGrid{voxelSize: size, origin: origin}
	var err error
	oct.Traverse(func(info octree.NodeInfo, leaf *octree.ColorLeaf) bool {
		idx := geometry.CellIndex(info.Center(), origin, size)
		for _, c := range idx {
			if c > math.MaxInt32 || c < math.MinInt32 {
				err = fmt.Errorf("%w: leaf at %v maps to index %v", geometry.ErrPrecisionOverflow, info.Origin, idx)
				return false
			}
		}
		if !out.insert(Voxel{GridIndex: idx, Color: leaf.Color}) {
			err = fmt.Errorf("%w: octree depth %d is too fine for voxel size %g (leaves collide at %v)",
				geometry.ErrPrecisionOverflow, oct.MaxDepth(), size, idx)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	*g = *out
	return nil
}
