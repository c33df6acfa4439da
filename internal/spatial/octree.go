// Package spatial implements the tree collaborator contract the evaluator
// depends on: a recursive spatial partition exposing per-level iteration,
// per-box child/body iteration, and stable integer box indices.
//
// The partition is an octree: each internal box splits its bounding cube
// into eight octants. This is the 3D generalization of the binary k-d split
// used for N-body simulation trees, applied here over a fixed cube rather
// than a median-balanced split, which keeps sibling boxes' side lengths
// equal and makes the half-side-length MAC in internal/evaluator cheap to
// evaluate.
package spatial

import "github.com/agbru/fmmeval/pkg/geom"

// Body is a single point with a stable index into the caller's charge and
// result arrays. A box's bodies always have contiguous indices.
type Body struct {
	point geom.Vec3
	index int
}

// Point returns the body's location.
func (b Body) Point() geom.Vec3 { return b.point }

// Index returns the body's position in the tree's own contiguous,
// DFS-ordered body slots. This is the index the evaluator uses to address
// charge/result slices; it is not the position in the array passed to
// Build (see Tree.BodyOrder for that mapping).
func (b Body) Index() int { return b.index }

// node is the internal representation of a box. Children are stored as
// indices into Tree.nodes so the tree is a flat slice, not a pointer graph.
type node struct {
	center     geom.Vec3
	sideLength float64
	level      int
	bodyStart  int // first index into Tree.bodies owned by this box
	bodyCount  int
	children   [8]int // -1 when this box is a leaf
	leaf       bool
}

// Box is a handle to one node of the Tree. It is a thin value type; all
// state lives in the owning Tree.
type Box struct {
	tree *Tree
	id   int
}

// Index returns the box's unique id in [0, tree.NumBoxes()).
func (b Box) Index() int { return b.id }

// Center returns the box's geometric center.
func (b Box) Center() geom.Vec3 { return b.tree.nodes[b.id].center }

// SideLength returns the length of one edge of the box's bounding cube.
func (b Box) SideLength() float64 { return b.tree.nodes[b.id].sideLength }

// IsLeaf reports whether the box has no children.
func (b Box) IsLeaf() bool { return b.tree.nodes[b.id].leaf }

// Level returns the box's depth, with the root at level 0.
func (b Box) Level() int { return b.tree.nodes[b.id].level }

// NumBodies returns the number of bodies in this box's subtree.
func (b Box) NumBodies() int { return b.tree.nodes[b.id].bodyCount }

// Children returns the box's child boxes, or nil if the box is a leaf.
func (b Box) Children() []Box {
	n := &b.tree.nodes[b.id]
	if n.leaf {
		return nil
	}
	out := make([]Box, 0, 8)
	for _, c := range n.children {
		if c >= 0 {
			out = append(out, Box{b.tree, c})
		}
	}
	return out
}

// Bodies returns every body in the box's subtree (its own bodies if it is
// a leaf, or the concatenation of its descendants' bodies otherwise),
// contiguous in DFS order.
func (b Box) Bodies() []Body {
	n := &b.tree.nodes[b.id]
	if n.bodyCount == 0 {
		return nil
	}
	return b.tree.bodies[n.bodyStart : n.bodyStart+n.bodyCount]
}

// BodyRange returns [start, start+count) into the caller's charge/result
// arrays that this box's entire subtree occupies, licensing slice-based
// addressing without re-walking Bodies(). For an internal box this spans
// all of its descendants' bodies, not just a direct subset.
func (b Box) BodyRange() (start, count int) {
	n := &b.tree.nodes[b.id]
	return n.bodyStart, n.bodyCount
}

// Tree is a concrete octree over a fixed point set, built once and
// immutable for the lifetime of any evaluation that reads it.
type Tree struct {
	nodes     []node
	bodies    []Body
	origIndex []int // origIndex[slot] = position in the array passed to Build
	numLevels int
	maxLeaf   int
}

// NumBoxes returns the number of boxes in the tree.
func (t *Tree) NumBoxes() int { return len(t.nodes) }

// NumLevels returns the number of distinct levels, root at level 0.
func (t *Tree) NumLevels() int { return t.numLevels }

// Root returns the tree's root box.
func (t *Tree) Root() Box { return Box{t, 0} }

// BoxesAtLevel returns every box at the given level, in an arbitrary but
// stable order (ordering across levels is the caller's responsibility; only
// within-level order is free per the evaluator contract).
func (t *Tree) BoxesAtLevel(level int) []Box {
	var out []Box
	for i, n := range t.nodes {
		if n.level == level {
			out = append(out, Box{t, i})
		}
	}
	return out
}

// NumBodies returns the total body count indexed by the tree.
func (t *Tree) NumBodies() int { return len(t.bodies) }

// Build partitions points into an octree whose leaves hold at most
// maxLeafSize bodies. Body indices in the returned tree are assigned in
// depth-first order, satisfying the contiguous-indexing invariant the
// evaluator's slice-based charge/result addressing requires; the caller
// must therefore permute its own charge/result arrays to match
// tree.Root().Bodies() order (see BodyOrder).
func Build(points []geom.Vec3, maxLeafSize int) *Tree {
	if maxLeafSize < 1 {
		maxLeafSize = 1
	}
	t := &Tree{maxLeaf: maxLeafSize}

	indices := make([]int, len(points))
	for i := range indices {
		indices[i] = i
	}

	center, side := boundingCube(points)
	t.buildNode(points, indices, center, side, 0)

	maxLevel := 0
	for _, n := range t.nodes {
		if n.level > maxLevel {
			maxLevel = n.level
		}
	}
	t.numLevels = maxLevel + 1
	return t
}

// BodyOrder returns the permutation from tree body slot to original point
// index: BodyOrder()[slot] is the index into the array passed to Build.
// Callers whose charge/result arrays are ordered by the original point
// array must permute them into slot order before calling Evaluate (or use
// evaluator.Reorder, which does this for them).
func (t *Tree) BodyOrder() []int {
	order := make([]int, len(t.origIndex))
	copy(order, t.origIndex)
	return order
}

// boundingCube computes the smallest axis-aligned cube containing all
// points, centered on the points' bounding-box center.
func boundingCube(points []geom.Vec3) (center geom.Vec3, side float64) {
	if len(points) == 0 {
		return geom.Vec3{}, 1
	}
	min, max := points[0], points[0]
	for _, p := range points[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.Z < min.Z {
			min.Z = p.Z
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
		if p.Z > max.Z {
			max.Z = p.Z
		}
	}
	center = geom.Vec3{
		X: (min.X + max.X) / 2,
		Y: (min.Y + max.Y) / 2,
		Z: (min.Z + max.Z) / 2,
	}
	side = max.X - min.X
	if d := max.Y - min.Y; d > side {
		side = d
	}
	if d := max.Z - min.Z; d > side {
		side = d
	}
	if side <= 0 {
		side = 1
	}
	// Pad slightly so points exactly on the boundary still fall inside.
	side *= 1.0001
	return center, side
}

// makeLeaf turns node id into a leaf owning indices, appending bodies whose
// Index() is their contiguous slot in t.bodies (not the original point
// position, which is instead tracked in t.origIndex for BodyOrder).
func (t *Tree) makeLeaf(id int, points []geom.Vec3, indices []int) {
	start := len(t.bodies)
	for i, idx := range indices {
		t.bodies = append(t.bodies, Body{point: points[idx], index: start + i})
		t.origIndex = append(t.origIndex, idx)
	}
	t.nodes[id].leaf = true
	t.nodes[id].bodyStart = start
	t.nodes[id].bodyCount = len(indices)
	t.nodes[id].children = [8]int{-1, -1, -1, -1, -1, -1, -1, -1}
}

// buildNode recursively partitions indices (positions into points) into an
// octree box centered at center with the given side length, appending the
// new node (and its subtree) to t.nodes and the leaf's bodies to t.bodies.
// It returns the new node's id.
func (t *Tree) buildNode(points []geom.Vec3, indices []int, center geom.Vec3, side float64, level int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, node{center: center, sideLength: side, level: level})

	if len(indices) <= t.maxLeaf {
		t.makeLeaf(id, points, indices)
		return id
	}

	var buckets [8][]int
	for _, idx := range indices {
		o := points[idx].Octant(center)
		buckets[o] = append(buckets[o], idx)
	}

	// Coincident or near-coincident points can all land in the same octant
	// forever; force a leaf rather than recurse to unbounded depth.
	for _, bucket := range buckets {
		if len(bucket) == len(indices) {
			t.makeLeaf(id, points, indices)
			return id
		}
	}

	childSide := side / 2
	var children [8]int
	first := true
	for o := 0; o < 8; o++ {
		if len(buckets[o]) == 0 {
			children[o] = -1
			continue
		}
		childCenter := center.Add(geom.OctantOffset(o, side))
		children[o] = t.buildNode(points, buckets[o], childCenter, childSide, level+1)
		// DFS append order makes each child's subtree a contiguous run of
		// t.bodies; an internal node's own range is therefore just the span
		// from its first child's start to its last child's end. This lets
		// M2L/M2P address an internal box's whole subtree by BodyRange the
		// same way P2P addresses a leaf's bodies.
		cn := &t.nodes[children[o]]
		if first {
			t.nodes[id].bodyStart = cn.bodyStart
			first = false
		}
		t.nodes[id].bodyCount += cn.bodyCount
	}
	t.nodes[id].children = children
	return id
}
