// Package broadphase indexes collider bounds in a dynamic AABB tree and
// reports which pairs of colliders may be touching. Bounds are stored
// fattened so that small movements do not force a tree update every frame.
package broadphase

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/plume/actor"
)

// Defaults tuned for worlds measured in meters.
const (
	// DefaultAABBGap is the margin added on every side of a proxy's bounds.
	DefaultAABBGap = 0.1

	// DefaultAABBMultiplier scales the predicted displacement used to
	// stretch the bounds of a reinserted proxy along its direction of
	// motion.
	DefaultAABBMultiplier = 2.0
)

const nullNode int32 = -1

// treeNode is one slot of the node pool. Free slots reuse parent as the
// next pointer of the free list and carry height -1.
type treeNode struct {
	aabb     actor.AABB
	collider *actor.Collider
	parent   int32
	child1   int32
	child2   int32
	height   int32
}

func (n *treeNode) isLeaf() bool {
	return n.child1 == nullNode
}

// DynamicTree is a balanced bounding volume hierarchy over fat AABBs.
// Leaves hold colliders, internal nodes hold the union of their children.
// Node ids are stable until DestroyProxy recycles them.
type DynamicTree struct {
	root       int32
	nodes      []treeNode
	freeList   int32
	gap        float64
	multiplier float64
}

// NewDynamicTree creates an empty tree. gap is the fat AABB margin and
// multiplier scales the predicted displacement on reinsertion.
func NewDynamicTree(gap, multiplier float64) *DynamicTree {
	t := &DynamicTree{
		root:       nullNode,
		nodes:      make([]treeNode, 16),
		freeList:   0,
		gap:        gap,
		multiplier: multiplier,
	}

	// Les noeuds libres sont chaînés entre eux via parent
	for i := range t.nodes {
		t.nodes[i].parent = int32(i + 1)
		t.nodes[i].height = -1
	}
	t.nodes[len(t.nodes)-1].parent = nullNode

	return t
}

func (t *DynamicTree) allocateNode() int32 {
	if t.freeList == nullNode {
		oldCount := len(t.nodes)
		nodes := make([]treeNode, oldCount*2)
		copy(nodes, t.nodes)
		t.nodes = nodes

		for i := oldCount; i < len(t.nodes); i++ {
			t.nodes[i].parent = int32(i + 1)
			t.nodes[i].height = -1
		}
		t.nodes[len(t.nodes)-1].parent = nullNode
		t.freeList = int32(oldCount)
	}

	nodeID := t.freeList
	t.freeList = t.nodes[nodeID].parent

	node := &t.nodes[nodeID]
	node.parent = nullNode
	node.child1 = nullNode
	node.child2 = nullNode
	node.height = 0
	node.collider = nil

	return nodeID
}

func (t *DynamicTree) freeNode(nodeID int32) {
	node := &t.nodes[nodeID]
	node.collider = nil
	node.parent = t.freeList
	node.height = -1
	t.freeList = nodeID
}

// CreateProxy inserts a collider with the given tight bounds and returns
// the node id used as its broad-phase id.
func (t *DynamicTree) CreateProxy(aabb actor.AABB, collider *actor.Collider) int32 {
	nodeID := t.allocateNode()

	t.nodes[nodeID].aabb = aabb.Extend(t.gap)
	t.nodes[nodeID].collider = collider
	t.nodes[nodeID].height = 0

	t.insertLeaf(nodeID)

	return nodeID
}

// DestroyProxy removes a leaf and recycles its node id.
func (t *DynamicTree) DestroyProxy(nodeID int32) {
	if !t.nodes[nodeID].isLeaf() {
		panic("Cannot destroy an internal tree node")
	}

	t.removeLeaf(nodeID)
	t.freeNode(nodeID)
}

// MoveProxy updates a leaf's bounds. When the new tight bounds still fit
// inside the stored fat bounds nothing changes and false is returned.
// Otherwise the leaf is re-fattened, stretched along the predicted
// displacement and reinserted, and true is returned.
func (t *DynamicTree) MoveProxy(nodeID int32, aabb actor.AABB, displacement mgl64.Vec3, forceReinsert bool) bool {
	if !t.nodes[nodeID].isLeaf() {
		panic("Cannot move an internal tree node")
	}

	if !forceReinsert && t.nodes[nodeID].aabb.Contains(aabb) {
		return false
	}

	t.removeLeaf(nodeID)

	t.nodes[nodeID].aabb = aabb.Extend(t.gap).ExtendWithMotion(displacement.Mul(t.multiplier))

	t.insertLeaf(nodeID)

	return true
}

// FatAABB returns the stored fat bounds of a proxy.
func (t *DynamicTree) FatAABB(nodeID int32) actor.AABB {
	return t.nodes[nodeID].aabb
}

// ColliderAt returns the collider stored on a leaf.
func (t *DynamicTree) ColliderAt(nodeID int32) *actor.Collider {
	return t.nodes[nodeID].collider
}

// Height returns the height of the tree, zero when empty.
func (t *DynamicTree) Height() int32 {
	if t.root == nullNode {
		return 0
	}
	return t.nodes[t.root].height
}

// QueryOverlap visits every leaf whose fat bounds overlap the query box.
// The visitor returns false to stop the query early.
func (t *DynamicTree) QueryOverlap(aabb actor.AABB, visit func(nodeID int32) bool) {
	stack := make([]int32, 0, 64)
	stack = append(stack, t.root)

	for len(stack) > 0 {
		nodeID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if nodeID == nullNode {
			continue
		}

		node := &t.nodes[nodeID]
		if !node.aabb.Overlaps(aabb) {
			continue
		}

		if node.isLeaf() {
			if !visit(nodeID) {
				return
			}
		} else {
			stack = append(stack, node.child1, node.child2)
		}
	}
}

// Raycast walks the tree along a segment and visits every leaf whose fat
// bounds the segment crosses, in tree order. The visitor returns the new
// maximum fraction: zero stops the cast, a positive value clips the
// remaining segment, a negative value keeps the current clip.
func (t *DynamicTree) Raycast(ray Ray, visit func(nodeID int32, r Ray) float64) {
	maxFraction := ray.MaxFraction
	direction := ray.To.Sub(ray.From)

	stack := make([]int32, 0, 64)
	stack = append(stack, t.root)

	for len(stack) > 0 {
		nodeID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if nodeID == nullNode {
			continue
		}

		node := &t.nodes[nodeID]
		if _, hit := node.aabb.RayIntersectFraction(ray.From, direction, maxFraction); !hit {
			continue
		}

		if node.isLeaf() {
			hitFraction := visit(nodeID, Ray{From: ray.From, To: ray.To, MaxFraction: maxFraction})

			if hitFraction == 0.0 {
				return
			}
			if hitFraction > 0.0 {
				maxFraction = hitFraction
			}
		} else {
			stack = append(stack, node.child1, node.child2)
		}
	}
}

func (t *DynamicTree) insertLeaf(leaf int32) {
	if t.root == nullNode {
		t.root = leaf
		t.nodes[leaf].parent = nullNode
		return
	}

	// Descend towards the sibling whose union with the leaf costs the
	// least surface area
	leafAABB := t.nodes[leaf].aabb
	index := t.root
	for !t.nodes[index].isLeaf() {
		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2

		area := t.nodes[index].aabb.SurfaceArea()
		combinedArea := t.nodes[index].aabb.Merge(leafAABB).SurfaceArea()

		// Coût de création d'un nouveau parent pour ce noeud et la feuille
		cost := 2.0 * combinedArea

		inheritanceCost := 2.0 * (combinedArea - area)

		var cost1 float64
		if t.nodes[child1].isLeaf() {
			cost1 = leafAABB.Merge(t.nodes[child1].aabb).SurfaceArea() + inheritanceCost
		} else {
			oldArea := t.nodes[child1].aabb.SurfaceArea()
			newArea := leafAABB.Merge(t.nodes[child1].aabb).SurfaceArea()
			cost1 = (newArea - oldArea) + inheritanceCost
		}

		var cost2 float64
		if t.nodes[child2].isLeaf() {
			cost2 = leafAABB.Merge(t.nodes[child2].aabb).SurfaceArea() + inheritanceCost
		} else {
			oldArea := t.nodes[child2].aabb.SurfaceArea()
			newArea := leafAABB.Merge(t.nodes[child2].aabb).SurfaceArea()
			cost2 = (newArea - oldArea) + inheritanceCost
		}

		if cost < cost1 && cost < cost2 {
			break
		}

		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}

	sibling := index

	// Insert a new parent above the sibling
	oldParent := t.nodes[sibling].parent
	newParent := t.allocateNode()
	t.nodes[newParent].parent = oldParent
	t.nodes[newParent].aabb = leafAABB.Merge(t.nodes[sibling].aabb)
	t.nodes[newParent].height = t.nodes[sibling].height + 1

	if oldParent != nullNode {
		if t.nodes[oldParent].child1 == sibling {
			t.nodes[oldParent].child1 = newParent
		} else {
			t.nodes[oldParent].child2 = newParent
		}
	} else {
		t.root = newParent
	}

	t.nodes[newParent].child1 = sibling
	t.nodes[newParent].child2 = leaf
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	// Remonte en rééquilibrant et en réajustant les volumes
	index = t.nodes[leaf].parent
	for index != nullNode {
		index = t.balance(index)

		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2
		t.nodes[index].height = 1 + max(t.nodes[child1].height, t.nodes[child2].height)
		t.nodes[index].aabb = t.nodes[child1].aabb.Merge(t.nodes[child2].aabb)

		index = t.nodes[index].parent
	}
}

func (t *DynamicTree) removeLeaf(leaf int32) {
	if leaf == t.root {
		t.root = nullNode
		return
	}

	parent := t.nodes[leaf].parent
	grandParent := t.nodes[parent].parent

	var sibling int32
	if t.nodes[parent].child1 == leaf {
		sibling = t.nodes[parent].child2
	} else {
		sibling = t.nodes[parent].child1
	}

	if grandParent == nullNode {
		t.root = sibling
		t.nodes[sibling].parent = nullNode
		t.freeNode(parent)
		return
	}

	// Replace the parent by the sibling and refit upwards
	if t.nodes[grandParent].child1 == parent {
		t.nodes[grandParent].child1 = sibling
	} else {
		t.nodes[grandParent].child2 = sibling
	}
	t.nodes[sibling].parent = grandParent
	t.freeNode(parent)

	index := grandParent
	for index != nullNode {
		index = t.balance(index)

		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2
		t.nodes[index].aabb = t.nodes[child1].aabb.Merge(t.nodes[child2].aabb)
		t.nodes[index].height = 1 + max(t.nodes[child1].height, t.nodes[child2].height)

		index = t.nodes[index].parent
	}
}

// balance performs an AVL rotation on the subtree rooted at iA when its
// children differ in height by more than one, and returns the new root of
// the subtree.
func (t *DynamicTree) balance(iA int32) int32 {
	nodeA := &t.nodes[iA]
	if nodeA.isLeaf() || nodeA.height < 2 {
		return iA
	}

	iB := nodeA.child1
	iC := nodeA.child2
	nodeB := &t.nodes[iB]
	nodeC := &t.nodes[iC]

	heightDiff := nodeC.height - nodeB.height

	// C remonte d'un niveau
	if heightDiff > 1 {
		iF := nodeC.child1
		iG := nodeC.child2
		nodeF := &t.nodes[iF]
		nodeG := &t.nodes[iG]

		nodeC.child1 = iA
		nodeC.parent = nodeA.parent
		nodeA.parent = iC

		if nodeC.parent != nullNode {
			if t.nodes[nodeC.parent].child1 == iA {
				t.nodes[nodeC.parent].child1 = iC
			} else {
				t.nodes[nodeC.parent].child2 = iC
			}
		} else {
			t.root = iC
		}

		if nodeF.height > nodeG.height {
			nodeC.child2 = iF
			nodeA.child2 = iG
			nodeG.parent = iA

			nodeA.aabb = nodeB.aabb.Merge(nodeG.aabb)
			nodeC.aabb = nodeA.aabb.Merge(nodeF.aabb)
			nodeA.height = 1 + max(nodeB.height, nodeG.height)
			nodeC.height = 1 + max(nodeA.height, nodeF.height)
		} else {
			nodeC.child2 = iG
			nodeA.child2 = iF
			nodeF.parent = iA

			nodeA.aabb = nodeB.aabb.Merge(nodeF.aabb)
			nodeC.aabb = nodeA.aabb.Merge(nodeG.aabb)
			nodeA.height = 1 + max(nodeB.height, nodeF.height)
			nodeC.height = 1 + max(nodeA.height, nodeG.height)
		}

		return iC
	}

	// B remonte d'un niveau
	if heightDiff < -1 {
		iD := nodeB.child1
		iE := nodeB.child2
		nodeD := &t.nodes[iD]
		nodeE := &t.nodes[iE]

		nodeB.child1 = iA
		nodeB.parent = nodeA.parent
		nodeA.parent = iB

		if nodeB.parent != nullNode {
			if t.nodes[nodeB.parent].child1 == iA {
				t.nodes[nodeB.parent].child1 = iB
			} else {
				t.nodes[nodeB.parent].child2 = iB
			}
		} else {
			t.root = iB
		}

		if nodeD.height > nodeE.height {
			nodeB.child2 = iD
			nodeA.child1 = iE
			nodeE.parent = iA

			nodeA.aabb = nodeC.aabb.Merge(nodeE.aabb)
			nodeB.aabb = nodeA.aabb.Merge(nodeD.aabb)
			nodeA.height = 1 + max(nodeC.height, nodeE.height)
			nodeB.height = 1 + max(nodeA.height, nodeD.height)
		} else {
			nodeB.child2 = iE
			nodeA.child1 = iD
			nodeD.parent = iA

			nodeA.aabb = nodeC.aabb.Merge(nodeD.aabb)
			nodeB.aabb = nodeA.aabb.Merge(nodeE.aabb)
			nodeA.height = 1 + max(nodeC.height, nodeD.height)
			nodeB.height = 1 + max(nodeA.height, nodeE.height)
		}

		return iB
	}

	return iA
}
