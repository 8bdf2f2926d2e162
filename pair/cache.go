package pair

import (
	"github.com/akmonengine/plume/actor"
)

// DefaultCapacity is the initial number of pair slots a cache allocates
const DefaultCapacity = 64

// ExclusionSet reports whether collisions between two bodies have been
// explicitly disabled
type ExclusionSet interface {
	Contains(bodyA, bodyB *actor.RigidBody) bool
}

// Cache is the packed store of all overlapping pairs reported by the broad
// phase. Every pair attribute lives in its own column, all columns parallel
// by pair index, with convex vs convex pairs packed in [0, concaveStart) and
// convex vs concave pairs in [concaveStart, count).
//
// Pair indices move when pairs are added or removed; the pair id is the only
// stable handle. The cache is not safe for concurrent use.
type Cache struct {
	ids               []ID
	broadPhaseIDs1    []int32
	broadPhaseIDs2    []int32
	colliders1        []*actor.Collider
	colliders2        []*actor.Collider
	lastFrameInfos    []map[SubShapePair]*LastFrameCollisionInfo
	needToTestOverlap []bool
	isActive          []bool

	// indexOf is at all times the exact inverse of the ids column
	indexOf map[ID]int

	count        int
	concaveStart int

	excluded ExclusionSet
}

// NewCache creates a pair cache with the given initial capacity. The
// exclusion set may be nil when no pairs are ever disabled explicitly.
func NewCache(capacity int, excluded ExclusionSet) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	c := &Cache{
		indexOf:  make(map[ID]int),
		excluded: excluded,
	}
	c.allocate(capacity)

	return c
}

// allocate resizes every column, keeping the live pairs. Any pair index
// obtained before a growth is invalid afterwards; resolve by pair id again.
func (c *Cache) allocate(capacity int) {
	ids := make([]ID, capacity)
	broadPhaseIDs1 := make([]int32, capacity)
	broadPhaseIDs2 := make([]int32, capacity)
	colliders1 := make([]*actor.Collider, capacity)
	colliders2 := make([]*actor.Collider, capacity)
	lastFrameInfos := make([]map[SubShapePair]*LastFrameCollisionInfo, capacity)
	needToTestOverlap := make([]bool, capacity)
	isActive := make([]bool, capacity)

	copy(ids, c.ids[:c.count])
	copy(broadPhaseIDs1, c.broadPhaseIDs1[:c.count])
	copy(broadPhaseIDs2, c.broadPhaseIDs2[:c.count])
	copy(colliders1, c.colliders1[:c.count])
	copy(colliders2, c.colliders2[:c.count])
	copy(lastFrameInfos, c.lastFrameInfos[:c.count])
	copy(needToTestOverlap, c.needToTestOverlap[:c.count])
	copy(isActive, c.isActive[:c.count])

	c.ids = ids
	c.broadPhaseIDs1 = broadPhaseIDs1
	c.broadPhaseIDs2 = broadPhaseIDs2
	c.colliders1 = colliders1
	c.colliders2 = colliders2
	c.lastFrameInfos = lastFrameInfos
	c.needToTestOverlap = needToTestOverlap
	c.isActive = isActive
}

// AddPair creates the overlapping pair for two colliders and returns its id.
// The caller must have checked with Contains that the pair does not exist
// yet; adding a duplicate panics.
//
// In a convex vs concave pair the convex collider is always stored first,
// whatever order the arguments came in.
func (c *Cache) AddPair(collider1, collider2 *actor.Collider) ID {
	isConvexVsConvex := collider1.IsConvex() && collider2.IsConvex()
	if !isConvexVsConvex && !collider1.IsConvex() && collider2.IsConvex() {
		collider1, collider2 = collider2, collider1
	}

	pairID := NewID(collider1.BroadPhaseID(), collider2.BroadPhaseID())
	if _, exists := c.indexOf[pairID]; exists {
		panic("Overlapping pair added twice")
	}

	index := c.prepareAdd(isConvexVsConvex)

	c.ids[index] = pairID
	c.broadPhaseIDs1[index] = collider1.BroadPhaseID()
	c.broadPhaseIDs2[index] = collider2.BroadPhaseID()
	c.colliders1[index] = collider1
	c.colliders2[index] = collider2
	c.lastFrameInfos[index] = make(map[SubShapePair]*LastFrameCollisionInfo)
	c.needToTestOverlap[index] = false
	c.isActive[index] = c.computePairActive(collider1, collider2)

	c.indexOf[pairID] = index

	collider1.RegisterOverlappingPair(uint64(pairID))
	collider2.RegisterOverlappingPair(uint64(pairID))

	c.count++

	return pairID
}

// prepareAdd grows the columns if they are full and returns the insertion
// index for a new pair, keeping the convex and concave regions contiguous
func (c *Cache) prepareAdd(isConvexVsConvex bool) int {
	if c.count == len(c.ids) {
		c.allocate(len(c.ids) * 2)
	}

	var index int
	if isConvexVsConvex {
		// A convex vs concave pair may occupy the insertion slot at the
		// region boundary; relocate it to the end first
		if c.concaveStart != c.count {
			c.movePairTo(c.concaveStart, c.count)
		}
		index = c.concaveStart
		c.concaveStart++
	} else {
		index = c.count
	}

	return index
}

// RemovePair destroys the pair with the given id. Removing an unknown pair
// panics.
func (c *Cache) RemovePair(pairID ID) {
	index, exists := c.indexOf[pairID]
	if !exists {
		panic("Overlapping pair not found")
	}

	// Retract the pair from both membership sets while the colliders are
	// still reachable from the slot
	c.colliders1[index].UnregisterOverlappingPair(uint64(pairID))
	c.colliders2[index].UnregisterOverlappingPair(uint64(pairID))

	delete(c.indexOf, pairID)
	c.destroySlot(index)

	// Repack so both regions stay contiguous. At most two pairs move.
	if index >= c.concaveStart {
		// The last convex vs concave pair fills the hole
		if index != c.count-1 {
			c.movePairTo(c.count-1, index)
		}
	} else {
		// The last convex vs convex pair fills the hole, then the last
		// convex vs concave pair fills the freed boundary slot
		if index != c.concaveStart-1 {
			c.movePairTo(c.concaveStart-1, index)
		}
		if c.concaveStart != c.count {
			c.movePairTo(c.count-1, c.concaveStart-1)
		}
		c.concaveStart--
	}

	c.count--
}

// movePairTo moves the pair at src into the destroyed slot at dest and
// updates the id mapping
func (c *Cache) movePairTo(src, dest int) {
	pairID := c.ids[src]

	c.ids[dest] = c.ids[src]
	c.broadPhaseIDs1[dest] = c.broadPhaseIDs1[src]
	c.broadPhaseIDs2[dest] = c.broadPhaseIDs2[src]
	c.colliders1[dest] = c.colliders1[src]
	c.colliders2[dest] = c.colliders2[src]
	c.lastFrameInfos[dest] = c.lastFrameInfos[src]
	c.needToTestOverlap[dest] = c.needToTestOverlap[src]
	c.isActive[dest] = c.isActive[src]

	c.destroySlot(src)

	c.indexOf[pairID] = dest
}

// destroySlot clears a slot so the garbage collector can reclaim the
// colliders and warm-start records it referenced
func (c *Cache) destroySlot(index int) {
	c.ids[index] = 0
	c.broadPhaseIDs1[index] = -1
	c.broadPhaseIDs2[index] = -1
	c.colliders1[index] = nil
	c.colliders2[index] = nil
	c.lastFrameInfos[index] = nil
	c.needToTestOverlap[index] = false
	c.isActive[index] = false
}

// Count returns the number of live pairs
func (c *Cache) Count() int {
	return c.count
}

// ConvexPairCount returns the number of convex vs convex pairs
func (c *Cache) ConvexPairCount() int {
	return c.concaveStart
}

// ConcavePairCount returns the number of convex vs concave pairs
func (c *Cache) ConcavePairCount() int {
	return c.count - c.concaveStart
}

// Contains reports whether the pair is in the cache
func (c *Cache) Contains(pairID ID) bool {
	_, exists := c.indexOf[pairID]
	return exists
}

// IndexOf returns the current index of the pair. The index is only valid
// until the next add or remove.
func (c *Cache) IndexOf(pairID ID) (int, bool) {
	index, exists := c.indexOf[pairID]
	return index, exists
}

// IDAt returns the id of the pair at the given index
func (c *Cache) IDAt(index int) ID {
	return c.ids[index]
}

// CollidersAt returns both colliders of the pair at the given index. In a
// convex vs concave pair the convex collider comes first.
func (c *Cache) CollidersAt(index int) (*actor.Collider, *actor.Collider) {
	return c.colliders1[index], c.colliders2[index]
}

// BroadPhaseIDsAt returns the proxy ids of the pair at the given index
func (c *Cache) BroadPhaseIDsAt(index int) (int32, int32) {
	return c.broadPhaseIDs1[index], c.broadPhaseIDs2[index]
}

// IsActiveAt reports whether the pair at the given index may produce
// narrow-phase work this frame
func (c *Cache) IsActiveAt(index int) bool {
	return c.isActive[index]
}

// NeedToTestOverlapAt reports whether the pair's fat bounds must be
// re-checked before the narrow phase
func (c *Cache) NeedToTestOverlapAt(index int) bool {
	return c.needToTestOverlap[index]
}

// SetNeedToTestOverlap flags or clears the deferred overlap re-check for a
// pair. Flagging an unknown pair panics.
func (c *Cache) SetNeedToTestOverlap(pairID ID, needTest bool) {
	index, exists := c.indexOf[pairID]
	if !exists {
		panic("Overlapping pair not found")
	}
	c.needToTestOverlap[index] = needTest
}

// EachConvexPair calls fn with the index of every convex vs convex pair.
// The cache must not be modified during iteration.
func (c *Cache) EachConvexPair(fn func(index int)) {
	for i := 0; i < c.concaveStart; i++ {
		fn(i)
	}
}

// EachConcavePair calls fn with the index of every convex vs concave pair.
// The cache must not be modified during iteration.
func (c *Cache) EachConcavePair(fn func(index int)) {
	for i := c.concaveStart; i < c.count; i++ {
		fn(i)
	}
}

// AddLastFrameInfoIfNecessary returns the warm-start record for one
// sub-shape combination of a pair, creating it on first request. Asking for
// an existing record keeps it alive through the next sweep.
func (c *Cache) AddLastFrameInfoIfNecessary(pairID ID, subShapeID1, subShapeID2 uint32) *LastFrameCollisionInfo {
	index, exists := c.indexOf[pairID]
	if !exists {
		panic("Overlapping pair not found")
	}

	key := SubShapePair{ShapeID1: subShapeID1, ShapeID2: subShapeID2}
	if info, found := c.lastFrameInfos[index][key]; found {
		// The record is in use again this frame
		info.isObsolete = false
		return info
	}

	info := newLastFrameCollisionInfo()
	c.lastFrameInfos[index][key] = info

	return info
}

// LastFrameInfo looks up a warm-start record without creating or
// refreshing it
func (c *Cache) LastFrameInfo(pairID ID, subShapeID1, subShapeID2 uint32) (*LastFrameCollisionInfo, bool) {
	index, exists := c.indexOf[pairID]
	if !exists {
		return nil, false
	}

	info, found := c.lastFrameInfos[index][SubShapePair{ShapeID1: subShapeID1, ShapeID2: subShapeID2}]
	return info, found
}

// LastFrameInfoCount returns the number of warm-start records a pair holds
func (c *Cache) LastFrameInfoCount(pairID ID) int {
	index, exists := c.indexOf[pairID]
	if !exists {
		return 0
	}

	return len(c.lastFrameInfos[index])
}

// ClearObsoleteLastFrameCollisionInfos sweeps the warm-start records, once
// per frame after the narrow phase. Records that were not requested since
// the previous sweep are deleted; the survivors are marked obsolete so they
// must be requested again before the next sweep to stay alive.
func (c *Cache) ClearObsoleteLastFrameCollisionInfos() {
	for i := 0; i < c.count; i++ {
		for key, info := range c.lastFrameInfos[i] {
			if info.isObsolete {
				delete(c.lastFrameInfos[i], key)
			} else {
				info.isObsolete = true
			}
		}
	}
}

// computePairActive reports whether a pair can produce narrow-phase work.
// A pair goes inactive when neither body is active, or when collisions
// between the two bodies have been explicitly disabled.
func (c *Cache) computePairActive(collider1, collider2 *actor.Collider) bool {
	body1 := collider1.Body
	body2 := collider2.Body

	if !body1.IsActive() && !body2.IsActive() {
		return false
	}
	if c.excluded != nil && c.excluded.Contains(body1, body2) {
		return false
	}

	return true
}

// RecomputeActivity refreshes the activity flag of every pair, once per
// frame before the narrow phase
func (c *Cache) RecomputeActivity() {
	for i := 0; i < c.count; i++ {
		c.isActive[i] = c.computePairActive(c.colliders1[i], c.colliders2[i])
	}
}
