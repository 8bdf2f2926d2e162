package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and orientation in 3D space
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// Apply transforms a point from local space to this transform's space
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(point).Add(t.Position)
}

// ApplyInverse transforms a point back into local space
func (t Transform) ApplyInverse(point mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Inverse().Rotate(point.Sub(t.Position))
}

// Mul composes two transforms, applying other in the space of t.
// A collider's world transform is bodyTransform.Mul(localTransform).
func (t Transform) Mul(other Transform) Transform {
	return Transform{
		Position: t.Apply(other.Position),
		Rotation: t.Rotation.Mul(other.Rotation).Normalize(),
	}
}
