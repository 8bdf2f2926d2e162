package actor

import "github.com/go-gl/mathgl/mgl64"

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies move through the world and generate collisions
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable (e.g., ground, walls).
	// A pair of static bodies never reaches the narrow phase.
	BodyTypeStatic
)

// RigidBody represents a rigid body in the collision world
type RigidBody struct {
	// Spatial properties
	Transform Transform

	// Linear velocity (m/s), used to predict motion when fattening the
	// broad-phase bounds
	Velocity mgl64.Vec3

	IsSleeping bool
	SleepTimer float64

	// Enabled toggles collision detection for the whole body; disabled
	// bodies keep their colliders but leave the broad phase.
	// Use World.SetBodyEnabled so the proxies follow.
	Enabled bool

	// IsTrigger bodies report trigger events instead of collision events
	IsTrigger bool

	BodyType BodyType // Dynamic or Static

	// Colliders attached to this body, managed by the world
	Colliders []*Collider
}

// NewRigidBody creates a new rigid body with the given transform.
// Colliders are attached afterwards through World.AddCollider.
func NewRigidBody(transform Transform, bodyType BodyType) *RigidBody {
	return &RigidBody{
		Transform: transform,
		BodyType:  bodyType,
		Enabled:   true,
	}
}

// TrySleep sets the body to sleep if its velocity stays lower than the
// threshold for a given duration
func (rb *RigidBody) TrySleep(dt float64, timeThreshold float64, velocityThreshold float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	if rb.Velocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timeThreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0
	rb.Velocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// IsActive reports whether the body can currently produce collisions.
// Static, disabled and sleeping bodies are passive: an overlapping pair
// needs at least one active body to reach the narrow phase.
func (rb *RigidBody) IsActive() bool {
	return rb.BodyType != BodyTypeStatic && rb.Enabled && !rb.IsSleeping
}
