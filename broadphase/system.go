package broadphase

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/plume/actor"
)

// OverlapListener receives the candidate pairs found by
// ComputeOverlappingPairs. Node ids are passed in the order
// (moved proxy, overlapping proxy).
type OverlapListener interface {
	NotifyOverlappingNodes(nodeID1, nodeID2 int32)
}

// System owns the dynamic AABB tree and tracks which proxies moved since
// the last discovery pass. Only moved proxies are queried against the
// tree, so a world full of resting bodies costs nothing per frame.
type System struct {
	tree *DynamicTree

	// Proxies to test on the next discovery pass. Removal blanks slots
	// with nullNode instead of compacting, so duplicates and holes are
	// both expected here.
	movedShapes []int32

	// Scratch buffers reused across calls
	overlappingNodes []int32
	reinserted       []*actor.Collider
}

// NewSystem creates a broad-phase system. gap is the fat AABB margin and
// multiplier scales the predicted displacement when a proxy is reinserted.
func NewSystem(gap, multiplier float64) *System {
	return &System{
		tree: NewDynamicTree(gap, multiplier),
	}
}

// AddProxy inserts the collider into the tree, assigns its broad-phase id
// and schedules it for the next discovery pass, so the new shape's pairs
// are found even if nothing else moves.
func (s *System) AddProxy(collider *actor.Collider, aabb actor.AABB) {
	if collider.BroadPhaseID() != actor.NoBroadPhaseID {
		panic("Collider is already in the broad phase")
	}

	nodeID := s.tree.CreateProxy(aabb, collider)
	collider.SetBroadPhaseID(nodeID)
	s.AddMovedShape(nodeID)
}

// RemoveProxy removes the collider from the tree and from the moved set,
// and resets its broad-phase id.
func (s *System) RemoveProxy(collider *actor.Collider) {
	nodeID := collider.BroadPhaseID()
	if nodeID == actor.NoBroadPhaseID {
		panic("Collider is not in the broad phase")
	}

	collider.SetBroadPhaseID(actor.NoBroadPhaseID)
	s.tree.DestroyProxy(nodeID)
	s.RemoveMovedShape(nodeID)
}

// UpdateProxy refreshes one proxy's bounds. The proxy is scheduled for the
// next discovery pass only when the tree had to reinsert it; a move inside
// the fat bounds cannot create or destroy an overlap.
func (s *System) UpdateProxy(collider *actor.Collider, aabb actor.AABB, displacement mgl64.Vec3, forceReinsert bool) bool {
	reinserted := s.tree.MoveProxy(collider.BroadPhaseID(), aabb, displacement, forceReinsert)

	if reinserted {
		s.AddMovedShape(collider.BroadPhaseID())
	}

	return reinserted
}

// UpdateColliders recomputes the world bounds of the colliders of every
// enabled, awake body and refreshes their proxies. It returns the
// colliders whose proxies were reinserted; the slice is reused on the
// next call.
func (s *System) UpdateColliders(bodies []*actor.RigidBody, timeStep float64) []*actor.Collider {
	s.reinserted = s.reinserted[:0]

	for _, body := range bodies {
		if !body.Enabled || body.IsSleeping {
			continue
		}

		// Déplacement prévu sur le pas de temps
		displacement := mgl64.Vec3{}
		if body.BodyType == actor.BodyTypeDynamic {
			displacement = body.Velocity.Mul(timeStep)
		}

		for _, collider := range body.Colliders {
			if collider.BroadPhaseID() == actor.NoBroadPhaseID {
				continue
			}

			if s.UpdateProxy(collider, collider.ComputeWorldAABB(), displacement, false) {
				s.reinserted = append(s.reinserted, collider)
			}
		}
	}

	return s.reinserted
}

// AddMovedShape appends a proxy to the moved set. Duplicates are allowed;
// discovery simply visits them twice and finds the same candidates.
func (s *System) AddMovedShape(nodeID int32) {
	s.movedShapes = append(s.movedShapes, nodeID)
}

// RemoveMovedShape blanks every occurrence of the proxy in the moved set.
// Slots are not compacted so pending entries keep their position;
// discovery skips the holes.
func (s *System) RemoveMovedShape(nodeID int32) {
	for i := range s.movedShapes {
		if s.movedShapes[i] == nodeID {
			s.movedShapes[i] = nullNode
		}
	}
}

// ColliderAt returns the collider registered under a broad-phase id.
func (s *System) ColliderAt(broadPhaseID int32) *actor.Collider {
	return s.tree.ColliderAt(broadPhaseID)
}

// TestOverlap checks the fat bounds of two proxies. A collider that is not
// in the broad phase overlaps nothing.
func (s *System) TestOverlap(broadPhaseID1, broadPhaseID2 int32) bool {
	if broadPhaseID1 == actor.NoBroadPhaseID || broadPhaseID2 == actor.NoBroadPhaseID {
		return false
	}

	return s.tree.FatAABB(broadPhaseID1).Overlaps(s.tree.FatAABB(broadPhaseID2))
}

// FatAABB returns the fat bounds stored for a proxy.
func (s *System) FatAABB(broadPhaseID int32) actor.AABB {
	return s.tree.FatAABB(broadPhaseID)
}

// QueryAABB visits every collider whose fat bounds overlap the box.
func (s *System) QueryAABB(aabb actor.AABB, visit func(collider *actor.Collider) bool) {
	s.tree.QueryOverlap(aabb, func(nodeID int32) bool {
		return visit(s.tree.ColliderAt(nodeID))
	})
}

// Raycast visits every collider whose fat bounds the segment crosses and
// whose category bits are accepted by the mask. The visitor returns the
// new maximum fraction: zero stops the cast, a positive value clips the
// remaining segment, a negative value keeps the current clip.
func (s *System) Raycast(ray Ray, categoryMask uint16, visit func(collider *actor.Collider, r Ray) float64) {
	s.tree.Raycast(ray, func(nodeID int32, r Ray) float64 {
		collider := s.tree.ColliderAt(nodeID)

		if collider.CategoryBits&categoryMask == 0 {
			return -1.0
		}

		return visit(collider, r)
	})
}

// TreeHeight returns the height of the underlying tree.
func (s *System) TreeHeight() int32 {
	return s.tree.Height()
}

// ComputeOverlappingPairs queries the tree for every proxy that moved
// since the last pass and reports the candidate pairs to the listener.
// Self pairs and pairs of colliders attached to the same body are
// filtered out here; everything else is the listener's decision. The
// moved set is cleared before returning.
func (s *System) ComputeOverlappingPairs(listener OverlapListener) {
	for _, shapeID := range s.movedShapes {
		if shapeID == nullNode {
			continue
		}

		s.overlappingNodes = s.overlappingNodes[:0]

		fatAABB := s.tree.FatAABB(shapeID)
		s.tree.QueryOverlap(fatAABB, func(nodeID int32) bool {
			s.overlappingNodes = append(s.overlappingNodes, nodeID)
			return true
		})

		movedCollider := s.tree.ColliderAt(shapeID)
		for _, nodeID := range s.overlappingNodes {
			if nodeID == shapeID {
				continue
			}

			// Deux colliders du même corps ne forment jamais de paire
			if s.tree.ColliderAt(nodeID).Body == movedCollider.Body {
				continue
			}

			listener.NotifyOverlappingNodes(shapeID, nodeID)
		}
	}

	s.movedShapes = s.movedShapes[:0]
}
