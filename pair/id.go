// Package pair maintains the set of overlapping collider pairs found by the
// broad phase, together with the narrow-phase state each pair carries from
// one frame to the next.
//
// Pairs live in packed parallel arrays so the middle phase can sweep them
// linearly, with convex vs convex pairs grouped at the front of the arrays
// and convex vs concave pairs at the back.
package pair

// ID identifies an overlapping pair. It packs the two broad-phase proxy ids
// with the larger one in the high bits, so the id does not depend on the
// order the proxies were reported in and stays stable for the lifetime of
// the pair.
type ID uint64

// NewID builds the order-independent pair id from two broad-phase proxy ids
func NewID(broadPhaseID1, broadPhaseID2 int32) ID {
	id1 := uint32(broadPhaseID1)
	id2 := uint32(broadPhaseID2)
	if id1 < id2 {
		id1, id2 = id2, id1
	}

	return ID(uint64(id1)<<32 | uint64(id2))
}

// SubShapePair identifies one sub-shape combination inside an overlapping
// pair. Convex shapes always use sub-shape id 0; triangle meshes use the
// triangle index. The first id belongs to the pair's first collider.
type SubShapePair struct {
	ShapeID1 uint32
	ShapeID2 uint32
}
