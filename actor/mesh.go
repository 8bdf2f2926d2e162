package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh represents a concave triangle mesh collision shape.
// Each triangle is an independent sub-shape identified by its index, so the
// narrow phase can keep per-triangle state between frames.
type Mesh struct {
	Vertices  []mgl64.Vec3
	Triangles [][3]uint32
}

func (m *Mesh) IsConvex() bool { return false }

func (m *Mesh) SubShapeCount() int { return len(m.Triangles) }

func (m *Mesh) ComputeAABB(transform Transform) AABB {
	if len(m.Vertices) == 0 {
		return AABB{Min: transform.Position, Max: transform.Position}
	}

	worldVertex := transform.Apply(m.Vertices[0])
	min := worldVertex
	max := worldVertex

	for _, vertex := range m.Vertices[1:] {
		worldVertex = transform.Apply(vertex)

		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], worldVertex[i])
			max[i] = math.Max(max[i], worldVertex[i])
		}
	}

	return AABB{Min: min, Max: max}
}

func (m *Mesh) Support(direction mgl64.Vec3) mgl64.Vec3 {
	panic("support function is only defined for convex shapes")
}

// Triangle returns the world-space vertices of triangle i
func (m *Mesh) Triangle(i uint32, transform Transform) [3]mgl64.Vec3 {
	tri := m.Triangles[i]
	return [3]mgl64.Vec3{
		transform.Apply(m.Vertices[tri[0]]),
		transform.Apply(m.Vertices[tri[1]]),
		transform.Apply(m.Vertices[tri[2]]),
	}
}

// TriangleAABB returns the world-space bounds of triangle i
func (m *Mesh) TriangleAABB(i uint32, transform Transform) AABB {
	vertices := m.Triangle(i, transform)

	min := vertices[0]
	max := vertices[0]
	for _, v := range vertices[1:] {
		for axis := 0; axis < 3; axis++ {
			min[axis] = math.Min(min[axis], v[axis])
			max[axis] = math.Max(max[axis], v[axis])
		}
	}

	return AABB{Min: min, Max: max}
}

// OverlappingTriangles appends to indices the triangles whose world bounds
// intersect the query AABB, and returns the extended slice
func (m *Mesh) OverlappingTriangles(aabb AABB, transform Transform, indices []uint32) []uint32 {
	for i := range m.Triangles {
		if m.TriangleAABB(uint32(i), transform).Overlaps(aabb) {
			indices = append(indices, uint32(i))
		}
	}

	return indices
}
