// Package plume tracks which pairs of collision shapes are close enough to
// interact in a 3D world. Bodies carry colliders, colliders are indexed in
// a broad-phase AABB tree, and the set of overlapping pairs is maintained
// incrementally from frame to frame, with enter/stay/exit events.
package plume

import (
	"unsafe"

	"github.com/akmonengine/plume/actor"
	"github.com/akmonengine/plume/broadphase"
	"github.com/akmonengine/plume/pair"
)

// Settings groups the tunables of a world. Zero values are not usable,
// start from DefaultSettings.
type Settings struct {
	// Margin added around every collider's bounds in the broad phase
	AABBGap float64
	// Factor applied to the predicted displacement when a proxy is reinserted
	AABBMultiplier float64
	// Initial capacity of the overlapping pair cache
	InitialPairCapacity int
	// Time below the velocity threshold before a body falls asleep (seconds)
	SleepTimeThreshold float64
	// Velocity under which a body is considered immobile (m/s)
	SleepVelocityThreshold float64
}

func DefaultSettings() Settings {
	return Settings{
		AABBGap:                broadphase.DefaultAABBGap,
		AABBMultiplier:         broadphase.DefaultAABBMultiplier,
		InitialPairCapacity:    pair.DefaultCapacity,
		SleepTimeThreshold:     0.1,
		SleepVelocityThreshold: 0.05,
	}
}

type bodyPairKey struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

// makeBodyPairKey creates a normalized pair key with consistent ordering
func makeBodyPairKey(bodyA, bodyB *actor.RigidBody) bodyPairKey {
	ptrA := uintptr(unsafe.Pointer(bodyA))
	ptrB := uintptr(unsafe.Pointer(bodyB))

	if ptrB < ptrA {
		bodyA, bodyB = bodyB, bodyA
	}

	return bodyPairKey{bodyA: bodyA, bodyB: bodyB}
}

// exclusionRegistry is the set of body pairs the user excluded from
// collision detection.
type exclusionRegistry map[bodyPairKey]struct{}

func (r exclusionRegistry) Contains(bodyA, bodyB *actor.RigidBody) bool {
	_, excluded := r[makeBodyPairKey(bodyA, bodyB)]
	return excluded
}

type World struct {
	// List of all rigid bodies in the world
	Bodies []*actor.RigidBody

	Settings Settings

	BroadPhase *broadphase.System
	Pairs      *pair.Cache

	// NarrowPhase decides actual overlap for the candidate pairs. The
	// default is the warm-started GJK tester.
	NarrowPhase NarrowPhase

	Events Events

	noCollision exclusionRegistry

	// Scratch buffers reused between steps
	convexBatch     NarrowPhaseBatch
	concaveBatch    NarrowPhaseBatch
	retests         []pairRetest
	pairScratch     []pair.ID
	triangleScratch []uint32
}

// NewWorld creates an empty world with the given settings
func NewWorld(settings Settings) *World {
	w := &World{
		Settings:    settings,
		BroadPhase:  broadphase.NewSystem(settings.AABBGap, settings.AABBMultiplier),
		NarrowPhase: gjkNarrowPhase{},
		Events:      NewEvents(),
		noCollision: make(exclusionRegistry),
	}
	w.Pairs = pair.NewCache(settings.InitialPairCapacity, w.noCollision)

	return w
}

// AddBody adds a rigid body to the world and indexes its colliders
func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)

	if !body.Enabled {
		return
	}

	for _, collider := range body.Colliders {
		if collider.BroadPhaseID() == actor.NoBroadPhaseID {
			w.BroadPhase.AddProxy(collider, collider.ComputeWorldAABB())
		}
	}
}

// RemoveBody removes a rigid body from the world. Its pairs are destroyed
// before its proxies, so pending exit events still reference live state.
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k == -1 {
		return
	}

	for _, collider := range body.Colliders {
		if collider.BroadPhaseID() != actor.NoBroadPhaseID {
			w.destroyPairsOf(collider)
			w.BroadPhase.RemoveProxy(collider)
		}
	}

	w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)

	for key := range w.noCollision {
		if key.bodyA == body || key.bodyB == body {
			delete(w.noCollision, key)
		}
	}
	w.Events.removeBody(body)
}

// AddCollider attaches a new collider with an identity local transform
func (w *World) AddCollider(body *actor.RigidBody, shape actor.ShapeInterface) *actor.Collider {
	return w.AddColliderWithTransform(body, shape, actor.NewTransform())
}

// AddColliderWithTransform attaches a new collider to the body, placed by
// localTransform in body space, and indexes it in the broad phase
func (w *World) AddColliderWithTransform(body *actor.RigidBody, shape actor.ShapeInterface, localTransform actor.Transform) *actor.Collider {
	collider := actor.NewCollider(body, shape)
	collider.LocalTransform = localTransform
	body.Colliders = append(body.Colliders, collider)

	if body.Enabled {
		w.BroadPhase.AddProxy(collider, collider.ComputeWorldAABB())
	}

	return collider
}

// RemoveCollider detaches a collider from its body. Its pairs are
// destroyed before its proxy.
func (w *World) RemoveCollider(collider *actor.Collider) {
	if collider.BroadPhaseID() != actor.NoBroadPhaseID {
		w.destroyPairsOf(collider)
		w.BroadPhase.RemoveProxy(collider)
	}

	body := collider.Body
	for i, c := range body.Colliders {
		if c == collider {
			body.Colliders = append(body.Colliders[:i], body.Colliders[i+1:]...)
			break
		}
	}
}

// DisableCollisionBetween excludes a body pair from collision detection,
// in both orders. Live pairs between the two bodies are retired
// immediately.
func (w *World) DisableCollisionBetween(bodyA, bodyB *actor.RigidBody) {
	w.noCollision[makeBodyPairKey(bodyA, bodyB)] = struct{}{}

	for _, collider := range bodyA.Colliders {
		w.pairScratch = w.pairScratch[:0]
		collider.EachOverlappingPair(func(pairID uint64) {
			w.pairScratch = append(w.pairScratch, pair.ID(pairID))
		})

		for _, pairID := range w.pairScratch {
			index, _ := w.Pairs.IndexOf(pairID)
			collider1, collider2 := w.Pairs.CollidersAt(index)
			if collider1.Body == bodyB || collider2.Body == bodyB {
				w.retirePair(pairID)
			}
		}
	}
}

// EnableCollisionBetween removes the exclusion of a body pair. The bodies'
// proxies are scheduled for a discovery pass so their pairs reappear
// without waiting for motion.
func (w *World) EnableCollisionBetween(bodyA, bodyB *actor.RigidBody) {
	delete(w.noCollision, makeBodyPairKey(bodyA, bodyB))

	for _, collider := range bodyA.Colliders {
		if collider.BroadPhaseID() != actor.NoBroadPhaseID {
			w.BroadPhase.AddMovedShape(collider.BroadPhaseID())
		}
	}
	for _, collider := range bodyB.Colliders {
		if collider.BroadPhaseID() != actor.NoBroadPhaseID {
			w.BroadPhase.AddMovedShape(collider.BroadPhaseID())
		}
	}
}

// SetBodyEnabled removes a disabled body's proxies from the broad phase
// entirely, and restores them when the body is re-enabled.
func (w *World) SetBodyEnabled(body *actor.RigidBody, enabled bool) {
	if body.Enabled == enabled {
		return
	}
	body.Enabled = enabled

	if enabled {
		body.Awake()
		for _, collider := range body.Colliders {
			w.BroadPhase.AddProxy(collider, collider.ComputeWorldAABB())
		}
	} else {
		for _, collider := range body.Colliders {
			w.destroyPairsOf(collider)
			w.BroadPhase.RemoveProxy(collider)
		}
	}
}

// TestOverlap tests two colliders for actual overlap right now, regardless
// of the cached pair state: broad-phase bounds first, exact shapes second.
func (w *World) TestOverlap(collider1, collider2 *actor.Collider) bool {
	if !w.BroadPhase.TestOverlap(collider1.BroadPhaseID(), collider2.BroadPhaseID()) {
		return false
	}

	return w.testExactOverlap(collider1, collider2)
}

// QueryAABB visits every collider whose broad-phase bounds overlap the box
func (w *World) QueryAABB(aabb actor.AABB, visit func(collider *actor.Collider) bool) {
	w.BroadPhase.QueryAABB(aabb, visit)
}

// Step advances the pair bookkeeping by one time step. It refreshes the
// broad-phase proxies, discovers new candidate pairs, retires separated
// ones, runs the narrow phase on what remains and delivers the events.
func (w *World) Step(timeStep float64) {
	// Phase 1: sleep state first, so a body woken this step is narrow
	// phased this step and a body falling asleep is carried over without
	// an exit
	w.trySleep(timeStep)

	// Phase 2: refresh the proxies, then schedule a re-check for every
	// pair touching a reinserted proxy
	reinserted := w.BroadPhase.UpdateColliders(w.Bodies, timeStep)
	for _, collider := range reinserted {
		collider.EachOverlappingPair(func(pairID uint64) {
			w.Pairs.SetNeedToTestOverlap(pair.ID(pairID), true)
		})
	}

	// Phase 3: discovery of new candidate pairs around moved proxies
	w.BroadPhase.ComputeOverlappingPairs(w)

	// Phase 4: retire the scheduled pairs whose fat bounds separated,
	// then refresh pair activity
	w.updateOverlappingPairs()
	w.Pairs.RecomputeActivity()

	// Phase 5: narrow phase over the active pairs
	w.computeNarrowPhase()

	// Phase 6: warm-start records not refreshed above are dropped
	w.Pairs.ClearObsoleteLastFrameCollisionInfos()

	// Phase 7: event delivery
	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

// trySleep sets each body to sleep if its velocity stays under the
// threshold for long enough
func (w *World) trySleep(h float64) {
	for _, body := range w.Bodies {
		body.TrySleep(h, w.Settings.SleepTimeThreshold, w.Settings.SleepVelocityThreshold)
	}
}
