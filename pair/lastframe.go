package pair

import "github.com/go-gl/mathgl/mgl64"

// LastFrameCollisionInfo stores the narrow-phase outcome for one sub-shape
// combination of an overlapping pair, so the next frame can warm start from
// it instead of solving from scratch.
type LastFrameCollisionInfo struct {
	// isObsolete marks a record that the narrow phase has not refreshed
	// during the current frame. The cache owns this flag; records that
	// stay obsolete through a whole frame are swept.
	isObsolete bool

	// WasColliding is the narrow-phase verdict of the last frame
	WasColliding bool

	// WasUsingGJK reports which algorithm produced the cached state
	WasUsingGJK bool

	// SeparatingAxis is the last separating direction found by GJK.
	// Testing it first usually proves separation in a single iteration
	// when the shapes have barely moved.
	SeparatingAxis mgl64.Vec3
}

func newLastFrameCollisionInfo() *LastFrameCollisionInfo {
	return &LastFrameCollisionInfo{
		SeparatingAxis: mgl64.Vec3{0, 1, 0},
	}
}

// IsObsolete reports whether the record missed the current frame's narrow
// phase and is one sweep away from deletion
func (info *LastFrameCollisionInfo) IsObsolete() bool {
	return info.isObsolete
}
