package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeInterface is the interface that all collision shapes must implement
type ShapeInterface interface {
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform) AABB
	// IsConvex reports whether the whole shape is convex. Convex shapes
	// expose a support function; concave shapes expose sub-shapes instead.
	IsConvex() bool
	// Support returns the furthest point of the shape in the given local
	// direction. Only defined for convex shapes.
	Support(direction mgl64.Vec3) mgl64.Vec3
	// SubShapeCount returns the number of independent sub-shapes the
	// narrow phase can track (1 for convex shapes)
	SubShapeCount() int
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) ComputeAABB(transform Transform) AABB {
	// Les 8 coins de la boîte en espace local
	corners := [8]mgl64.Vec3{
		{-b.HalfExtents.X(), -b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{+b.HalfExtents.X(), -b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{-b.HalfExtents.X(), +b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{+b.HalfExtents.X(), +b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{-b.HalfExtents.X(), -b.HalfExtents.Y(), +b.HalfExtents.Z()},
		{+b.HalfExtents.X(), -b.HalfExtents.Y(), +b.HalfExtents.Z()},
		{-b.HalfExtents.X(), +b.HalfExtents.Y(), +b.HalfExtents.Z()},
		{+b.HalfExtents.X(), +b.HalfExtents.Y(), +b.HalfExtents.Z()},
	}

	// Transformer le premier coin pour initialiser min/max
	worldCorner := transform.Apply(corners[0])
	min := worldCorner
	max := worldCorner

	// Transformer tous les autres coins et étendre l'AABB
	for i := 1; i < 8; i++ {
		worldCorner = transform.Apply(corners[i])

		min[0] = math.Min(min[0], worldCorner[0])
		min[1] = math.Min(min[1], worldCorner[1])
		min[2] = math.Min(min[2], worldCorner[2])

		max[0] = math.Max(max[0], worldCorner[0])
		max[1] = math.Max(max[1], worldCorner[1])
		max[2] = math.Max(max[2], worldCorner[2])
	}

	return AABB{Min: min, Max: max}
}

func (b *Box) IsConvex() bool { return true }

func (b *Box) SubShapeCount() int { return 1 }

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) AABB {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	return AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

func (s *Sphere) IsConvex() bool { return true }

func (s *Sphere) SubShapeCount() int { return 1 }

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return direction.Normalize().Mul(s.Radius)
}

// Capsule represents a capsule collision shape: a cylinder with hemispherical
// caps, aligned on the local Y axis. HalfHeight is half the distance between
// the two cap centers.
type Capsule struct {
	Radius     float64
	HalfHeight float64
}

func (c *Capsule) ComputeAABB(transform Transform) AABB {
	top := transform.Apply(mgl64.Vec3{0, +c.HalfHeight, 0})
	bottom := transform.Apply(mgl64.Vec3{0, -c.HalfHeight, 0})

	radiusVec := mgl64.Vec3{c.Radius, c.Radius, c.Radius}
	min := mgl64.Vec3{
		math.Min(top.X(), bottom.X()),
		math.Min(top.Y(), bottom.Y()),
		math.Min(top.Z(), bottom.Z()),
	}
	max := mgl64.Vec3{
		math.Max(top.X(), bottom.X()),
		math.Max(top.Y(), bottom.Y()),
		math.Max(top.Z(), bottom.Z()),
	}

	return AABB{Min: min.Sub(radiusVec), Max: max.Add(radiusVec)}
}

func (c *Capsule) IsConvex() bool { return true }

func (c *Capsule) SubShapeCount() int { return 1 }

func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	// Furthest cap center in the direction, pushed out by the radius
	end := mgl64.Vec3{0, +c.HalfHeight, 0}
	if direction.Y() < 0 {
		end = mgl64.Vec3{0, -c.HalfHeight, 0}
	}

	if direction.LenSqr() < 1e-12 {
		return end.Add(mgl64.Vec3{c.Radius, 0, 0})
	}

	return end.Add(direction.Normalize().Mul(c.Radius))
}
