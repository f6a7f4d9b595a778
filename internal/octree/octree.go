package octree

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxel.carve/internal/geometry"
)

// MaxDepthLimit bounds the subdivision depth so that leaf coordinates fit
// comfortably in an int32 grid index.
const MaxDepthLimit = 21

// ColorLeaf is the payload of an occupied leaf: the running mean color of
// every point inserted into it.
type ColorLeaf struct {
	Color geometry.Color
	Count int
}

func (l *ColorLeaf) add(c geometry.Color) {
	l.Count++
	n := float64(l.Count)
	l.Color = geometry.ColorFromVec(r3.Add(l.Color.Vec(), r3.Scale(1/n, r3.Sub(c.Vec(), l.Color.Vec()))))
}

// NodeInfo describes the cell of a visited node.
type NodeInfo struct {
	Origin     r3.Vec // min corner of the cell
	Size       float64
	Depth      int
	ChildIndex int
}

// Center returns the center of the cell.
func (n NodeInfo) Center() r3.Vec {
	h := n.Size / 2
	return r3.Add(n.Origin, r3.Vec{X: h, Y: h, Z: h})
}

type node struct {
	children [8]*node
	leaf     *ColorLeaf
}

// Octree is a cubic spatial partition rooted at Origin with edge Size.
type Octree struct {
	origin   r3.Vec
	size     float64
	maxDepth int
	root     *node
	leaves   int
}

// New returns an empty octree whose root cell spans [origin, origin+size]^3.
func New(origin r3.Vec, size float64, maxDepth int) (*Octree, error) {
	if !(size > 0) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("%w: octree size must be positive, got %g", geometry.ErrInvalidParameter, size)
	}
	if maxDepth < 0 {
		return nil, fmt.Errorf("%w: max depth must be non-negative, got %d", geometry.ErrInvalidParameter, maxDepth)
	}
	if maxDepth > MaxDepthLimit {
		return nil, fmt.Errorf("%w: max depth %d exceeds limit %d", geometry.ErrPrecisionOverflow, maxDepth, MaxDepthLimit)
	}
	if !geometry.IsFinite(origin) {
		return nil, fmt.Errorf("%w: octree origin is not finite: %v", geometry.ErrInvalidParameter, origin)
	}
	return &Octree{origin: origin, size: size, maxDepth: maxDepth}, nil
}

// Origin returns the min corner of the root cell.
func (o *Octree) Origin() r3.Vec { return o.origin }

// Size returns the edge length of the root cell.
func (o *Octree) Size() float64 { return o.size }

// MaxDepth returns the leaf depth.
func (o *Octree) MaxDepth() int { return o.maxDepth }

// LeafSize returns the edge length of a leaf cell at MaxDepth.
func (o *Octree) LeafSize() float64 { return o.size / float64(uint64(1)<<uint(o.maxDepth)) }

// Bounds returns the min and max corners of the root cell.
func (o *Octree) Bounds() (min, max r3.Vec) {
	return o.origin, r3.Add(o.origin, r3.Vec{X: o.size, Y: o.size, Z: o.size})
}

// NumLeaves returns the number of occupied leaves.
func (o *Octree) NumLeaves() int { return o.leaves }

// IsEmpty reports whether no point has been inserted.
func (o *Octree) IsEmpty() bool { return o.root == nil }

// Contains reports whether p lies inside the closed root cell.
func (o *Octree) Contains(p r3.Vec) bool {
	min, max := o.Bounds()
	return geometry.InBox(p, min, max)
}

// childIndexOf picks the octant of p inside the cell at (origin, size). Points
// on the far boundary of the root belong to the last octant.
func childIndexOf(p, origin r3.Vec, size float64) (int, r3.Vec) {
	half := size / 2
	idx := 0
	child := origin
	if p.X >= origin.X+half {
		idx |= 1
		child.X += half
	}
	if p.Y >= origin.Y+half {
		idx |= 2
		child.Y += half
	}
	if p.Z >= origin.Z+half {
		idx |= 4
		child.Z += half
	}
	return idx, child
}

// Insert adds p with color c, splitting cells down to MaxDepth. The leaf's
// color becomes the running mean of all colors inserted into it.
func (o *Octree) Insert(p r3.Vec, c geometry.Color) error {
	if !o.Contains(p) {
		min, max := o.Bounds()
		return fmt.Errorf("%w: point %v outside octree bounds [%v, %v]", geometry.ErrInvalidParameter, p, min, max)
	}
	if o.root == nil {
		o.root = &node{}
	}
	n := o.root
	origin, size := o.origin, o.size
	for d := 0; d < o.maxDepth; d++ {
		idx, childOrigin := childIndexOf(p, origin, size)
		if n.children[idx] == nil {
			n.children[idx] = &node{}
		}
		n = n.children[idx]
		origin, size = childOrigin, size/2
	}
	if n.leaf == nil {
		n.leaf = &ColorLeaf{}
		o.leaves++
	}
	n.leaf.add(c)
	return nil
}

// LocateLeaf returns the occupied leaf containing p, if any.
func (o *Octree) LocateLeaf(p r3.Vec) (*ColorLeaf, NodeInfo, bool) {
	if o.root == nil || !o.Contains(p) {
		return nil, NodeInfo{}, false
	}
	n := o.root
	info := NodeInfo{Origin: o.origin, Size: o.size}
	for n != nil && n.leaf == nil {
		idx, childOrigin := childIndexOf(p, info.Origin, info.Size)
		n = n.children[idx]
		info = NodeInfo{Origin: childOrigin, Size: info.Size / 2, Depth: info.Depth + 1, ChildIndex: idx}
	}
	if n == nil {
		return nil, NodeInfo{}, false
	}
	return n.leaf, info, true
}

// Traverse visits occupied leaves depth-first in child order. Traversal
// stops early when fn returns false.
func (o *Octree) Traverse(fn func(info NodeInfo, leaf *ColorLeaf) bool) {
	if o.root == nil {
		return
	}
	o.traverse(o.root, NodeInfo{Origin: o.origin, Size: o.size}, fn)
}

func (o *Octree) traverse(n *node, info NodeInfo, fn func(NodeInfo, *ColorLeaf) bool) bool {
	if n.leaf != nil {
		return fn(info, n.leaf)
	}
	half := info.Size / 2
	for i, child := range n.children {
		if child == nil {
			continue
		}
		childOrigin := info.Origin
		if i&1 != 0 {
			childOrigin.X += half
		}
		if i&2 != 0 {
			childOrigin.Y += half
		}
		if i&4 != 0 {
			childOrigin.Z += half
		}
		next := NodeInfo{Origin: childOrigin, Size: half, Depth: info.Depth + 1, ChildIndex: i}
		if !o.traverse(child, next, fn) {
			return false
		}
	}
	return true
}
