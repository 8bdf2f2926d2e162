package actor

import "github.com/go-gl/mathgl/mgl64"

// NoBroadPhaseID marks a collider that is not registered in the broad phase
const NoBroadPhaseID int32 = -1

// Collider attaches a collision shape to a rigid body, with an optional
// local offset transform. A body carries several colliders to build
// compound objects.
type Collider struct {
	Body  *RigidBody
	Shape ShapeInterface

	// LocalTransform places the shape in body space
	LocalTransform Transform

	// Category this collider belongs to, and categories it collides with.
	// Two colliders interact only when each one's category is accepted by
	// the other's mask.
	CategoryBits    uint16
	CollideWithMask uint16

	broadPhaseID int32

	// Ids of the overlapping pairs this collider is currently part of
	overlappingPairs map[uint64]struct{}
}

// NewCollider creates a collider for the given body and shape, centered on
// the body origin
func NewCollider(body *RigidBody, shape ShapeInterface) *Collider {
	return &Collider{
		Body:             body,
		Shape:            shape,
		LocalTransform:   NewTransform(),
		CategoryBits:     0x0001,
		CollideWithMask:  0xFFFF,
		broadPhaseID:     NoBroadPhaseID,
		overlappingPairs: make(map[uint64]struct{}),
	}
}

// WorldTransform returns the collider transform in world space
func (c *Collider) WorldTransform() Transform {
	return c.Body.Transform.Mul(c.LocalTransform)
}

// ComputeWorldAABB returns the shape bounds in world space
func (c *Collider) ComputeWorldAABB() AABB {
	return c.Shape.ComputeAABB(c.WorldTransform())
}

// IsConvex reports whether the attached shape is convex
func (c *Collider) IsConvex() bool {
	return c.Shape.IsConvex()
}

// Center returns the collider origin in world space
func (c *Collider) Center() mgl64.Vec3 {
	return c.WorldTransform().Position
}

// SupportWorld returns the furthest point of the shape in the given world
// direction. Only valid for convex shapes.
func (c *Collider) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	// 1. Transformer la direction en espace local (rotation inverse)
	t := c.WorldTransform()
	localDirection := t.Rotation.Inverse().Rotate(direction)

	// 2. Trouver le support en espace local
	localSupport := c.Shape.Support(localDirection)

	// 3. Transformer le point support en espace monde (rotation + translation)
	return t.Apply(localSupport)
}

// BroadPhaseID returns the proxy id assigned by the broad phase, or
// NoBroadPhaseID when the collider is not indexed
func (c *Collider) BroadPhaseID() int32 {
	return c.broadPhaseID
}

// SetBroadPhaseID records the proxy id; reserved for the broad phase
func (c *Collider) SetBroadPhaseID(id int32) {
	c.broadPhaseID = id
}

// RegisterOverlappingPair records that this collider belongs to the pair
func (c *Collider) RegisterOverlappingPair(pairID uint64) {
	c.overlappingPairs[pairID] = struct{}{}
}

// UnregisterOverlappingPair removes the pair from the membership set
func (c *Collider) UnregisterOverlappingPair(pairID uint64) {
	delete(c.overlappingPairs, pairID)
}

// OverlappingPairCount returns the number of pairs the collider is part of
func (c *Collider) OverlappingPairCount() int {
	return len(c.overlappingPairs)
}

// EachOverlappingPair calls fn for every pair the collider is part of.
// The set must not be modified during iteration; collect the ids first when
// tearing pairs down.
func (c *Collider) EachOverlappingPair(fn func(pairID uint64)) {
	for id := range c.overlappingPairs {
		fn(id)
	}
}
