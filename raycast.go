package plume

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/plume/actor"
	"github.com/akmonengine/plume/broadphase"
)

// RaycastHit describes one collider whose broad-phase bounds a ray
// crossed, with the entry point along the segment.
type RaycastHit struct {
	Collider *actor.Collider
	Fraction float64
	Point    mgl64.Vec3
}

// Raycast reports every collider whose broad-phase bounds the segment
// crosses and whose category is accepted by the mask, in tree order. The
// callback returns the new maximum fraction: zero stops the cast, a
// positive value clips the remaining segment, a negative value keeps the
// current clip.
func (w *World) Raycast(ray broadphase.Ray, categoryMask uint16, callback func(hit RaycastHit) float64) {
	direction := ray.To.Sub(ray.From)

	w.BroadPhase.Raycast(ray, categoryMask, func(collider *actor.Collider, r broadphase.Ray) float64 {
		fatAABB := w.BroadPhase.FatAABB(collider.BroadPhaseID())

		fraction, hit := fatAABB.RayIntersectFraction(r.From, direction, r.MaxFraction)
		if !hit {
			return -1.0
		}

		return callback(RaycastHit{
			Collider: collider,
			Fraction: fraction,
			Point:    r.Point(fraction),
		})
	})
}
