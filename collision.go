package plume

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/plume/actor"
	"github.com/akmonengine/plume/gjk"
	"github.com/akmonengine/plume/pair"
)

// NarrowPhaseBatch gathers the sub-shape tests of one step in parallel
// arrays. Mesh pairs contribute one entry per candidate triangle, convex
// pairs exactly one. The backing arrays are reused from step to step.
type NarrowPhaseBatch struct {
	PairIDs        []pair.ID
	Colliders1     []*actor.Collider
	Colliders2     []*actor.Collider
	SubShapeIDs1   []uint32
	SubShapeIDs2   []uint32
	LastFrameInfos []*pair.LastFrameCollisionInfo

	// IsColliding is filled by the narrow phase, one result per entry
	IsColliding []bool
}

func (b *NarrowPhaseBatch) Add(pairID pair.ID, collider1, collider2 *actor.Collider, subShapeID1, subShapeID2 uint32, info *pair.LastFrameCollisionInfo) {
	b.PairIDs = append(b.PairIDs, pairID)
	b.Colliders1 = append(b.Colliders1, collider1)
	b.Colliders2 = append(b.Colliders2, collider2)
	b.SubShapeIDs1 = append(b.SubShapeIDs1, subShapeID1)
	b.SubShapeIDs2 = append(b.SubShapeIDs2, subShapeID2)
	b.LastFrameInfos = append(b.LastFrameInfos, info)
	b.IsColliding = append(b.IsColliding, false)
}

func (b *NarrowPhaseBatch) Count() int {
	return len(b.PairIDs)
}

func (b *NarrowPhaseBatch) Reset() {
	b.PairIDs = b.PairIDs[:0]
	b.Colliders1 = b.Colliders1[:0]
	b.Colliders2 = b.Colliders2[:0]
	b.SubShapeIDs1 = b.SubShapeIDs1[:0]
	b.SubShapeIDs2 = b.SubShapeIDs2[:0]
	b.LastFrameInfos = b.LastFrameInfos[:0]
	b.IsColliding = b.IsColliding[:0]
}

// NarrowPhase decides actual overlap for every entry of a batch, writing
// IsColliding and refreshing the warm-start records.
type NarrowPhase interface {
	TestCollision(batch *NarrowPhaseBatch)
}

// gjkNarrowPhase is the default tester: GJK seeded with the separating
// axis cached on the previous step.
type gjkNarrowPhase struct{}

func (gjkNarrowPhase) TestCollision(batch *NarrowPhaseBatch) {
	for i := range batch.PairIDs {
		simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
		simplex.Reset()

		supportA := supportFor(batch.Colliders1[i], batch.SubShapeIDs1[i])
		supportB := supportFor(batch.Colliders2[i], batch.SubShapeIDs2[i])

		info := batch.LastFrameInfos[i]
		colliding, axis := gjk.GJK(supportA, supportB, info.SeparatingAxis, simplex)

		batch.IsColliding[i] = colliding
		info.WasColliding = colliding
		info.WasUsingGJK = true
		info.SeparatingAxis = axis

		gjk.SimplexPool.Put(simplex)
	}
}

// supportFor adapts one batch entry to the gjk support interface: the
// collider itself when convex, one of its world-space triangles otherwise.
func supportFor(collider *actor.Collider, subShapeID uint32) gjk.Support {
	if collider.IsConvex() {
		return collider
	}

	mesh := collider.Shape.(*actor.Mesh)
	return gjk.TriangleSupport{Points: mesh.Triangle(subShapeID, collider.WorldTransform())}
}

// NotifyOverlappingNodes receives one candidate from broad-phase discovery
// and decides whether it becomes a cached pair.
func (w *World) NotifyOverlappingNodes(nodeID1, nodeID2 int32) {
	pairID := pair.NewID(nodeID1, nodeID2)
	if w.Pairs.Contains(pairID) {
		return
	}

	collider1 := w.BroadPhase.ColliderAt(nodeID1)
	collider2 := w.BroadPhase.ColliderAt(nodeID2)

	// Les filtres de catégorie doivent s'accepter dans les deux sens
	if collider1.CategoryBits&collider2.CollideWithMask == 0 ||
		collider2.CategoryBits&collider1.CollideWithMask == 0 {
		return
	}

	if w.noCollision.Contains(collider1.Body, collider2.Body) {
		return
	}

	w.Pairs.AddPair(collider1, collider2)
}

type pairRetest struct {
	pairID pair.ID
	id1    int32
	id2    int32
}

// updateOverlappingPairs re-verifies the pairs scheduled by a proxy
// reinsertion and retires the ones whose fat bounds no longer overlap.
// Untouched pairs are kept without a new tree probe.
func (w *World) updateOverlappingPairs() {
	w.retests = w.retests[:0]

	for index := 0; index < w.Pairs.Count(); index++ {
		if !w.Pairs.NeedToTestOverlapAt(index) {
			continue
		}

		id1, id2 := w.Pairs.BroadPhaseIDsAt(index)
		w.retests = append(w.retests, pairRetest{pairID: w.Pairs.IDAt(index), id1: id1, id2: id2})
	}

	for _, retest := range w.retests {
		if w.BroadPhase.TestOverlap(retest.id1, retest.id2) {
			w.Pairs.SetNeedToTestOverlap(retest.pairID, false)
		} else {
			w.retirePair(retest.pairID)
		}
	}
}

// retirePair removes a cached pair and lets the event manager emit its
// exit right away when it was overlapping.
func (w *World) retirePair(pairID pair.ID) {
	w.Pairs.RemovePair(pairID)
	w.Events.pairRemoved(pairID)
}

// computeNarrowPhase rebuilds the narrow-phase batches from the active
// cached pairs, runs the tester on them and records the overlaps for the
// event manager.
func (w *World) computeNarrowPhase() {
	w.convexBatch.Reset()
	w.concaveBatch.Reset()

	w.Pairs.EachConvexPair(func(index int) {
		if !w.Pairs.IsActiveAt(index) {
			return
		}

		pairID := w.Pairs.IDAt(index)
		collider1, collider2 := w.Pairs.CollidersAt(index)
		info := w.Pairs.AddLastFrameInfoIfNecessary(pairID, 0, 0)
		w.convexBatch.Add(pairID, collider1, collider2, 0, 0, info)
	})

	w.Pairs.EachConcavePair(func(index int) {
		if !w.Pairs.IsActiveAt(index) {
			return
		}

		collider1, collider2 := w.Pairs.CollidersAt(index)

		// Concave contre concave n'a pas d'algorithme: paire ignorée
		if !collider1.IsConvex() {
			return
		}

		mesh := collider2.Shape.(*actor.Mesh)
		meshTransform := collider2.WorldTransform()

		w.triangleScratch = w.triangleScratch[:0]
		w.triangleScratch = mesh.OverlappingTriangles(collider1.ComputeWorldAABB(), meshTransform, w.triangleScratch)

		pairID := w.Pairs.IDAt(index)
		for _, triangleID := range w.triangleScratch {
			info := w.Pairs.AddLastFrameInfoIfNecessary(pairID, 0, triangleID)
			w.concaveBatch.Add(pairID, collider1, collider2, 0, triangleID, info)
		}
	})

	w.NarrowPhase.TestCollision(&w.convexBatch)
	w.NarrowPhase.TestCollision(&w.concaveBatch)

	w.recordOverlaps(&w.convexBatch)
	w.recordOverlaps(&w.concaveBatch)
}

func (w *World) recordOverlaps(batch *NarrowPhaseBatch) {
	for i := range batch.PairIDs {
		if !batch.IsColliding[i] {
			continue
		}

		w.Events.recordOverlap(batch.PairIDs[i], batch.Colliders1[i], batch.Colliders2[i])
	}
}

// destroyPairsOf removes every cached pair the collider is part of.
// The ids are collected first because removal unregisters them.
func (w *World) destroyPairsOf(collider *actor.Collider) {
	w.pairScratch = w.pairScratch[:0]
	collider.EachOverlappingPair(func(pairID uint64) {
		w.pairScratch = append(w.pairScratch, pair.ID(pairID))
	})

	for _, pairID := range w.pairScratch {
		w.retirePair(pairID)
	}
}

// testExactOverlap runs the shape-level overlap test outside the cached
// pipeline, without touching the warm-start records.
func (w *World) testExactOverlap(collider1, collider2 *actor.Collider) bool {
	if !collider1.IsConvex() {
		collider1, collider2 = collider2, collider1
	}
	if !collider1.IsConvex() {
		// Two concave shapes cannot be tested against each other
		return false
	}

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)

	if collider2.IsConvex() {
		simplex.Reset()
		colliding, _ := gjk.GJK(collider1, collider2, mgl64.Vec3{}, simplex)
		return colliding
	}

	mesh := collider2.Shape.(*actor.Mesh)
	meshTransform := collider2.WorldTransform()

	w.triangleScratch = w.triangleScratch[:0]
	w.triangleScratch = mesh.OverlappingTriangles(collider1.ComputeWorldAABB(), meshTransform, w.triangleScratch)

	for _, triangleID := range w.triangleScratch {
		simplex.Reset()
		triangle := gjk.TriangleSupport{Points: mesh.Triangle(triangleID, meshTransform)}
		if colliding, _ := gjk.GJK(collider1, triangle, mgl64.Vec3{}, simplex); colliding {
			return true
		}
	}

	return false
}
