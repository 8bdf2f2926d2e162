package broadphase

import "github.com/go-gl/mathgl/mgl64"

// Ray is a segment from From to To, optionally clipped by MaxFraction in
// (0, 1]. A fraction t maps to the point From + t*(To - From).
type Ray struct {
	From        mgl64.Vec3
	To          mgl64.Vec3
	MaxFraction float64
}

// NewRay creates a ray covering the whole segment
func NewRay(from, to mgl64.Vec3) Ray {
	return Ray{From: from, To: to, MaxFraction: 1.0}
}

// Point returns the position at the given fraction along the segment
func (r Ray) Point(fraction float64) mgl64.Vec3 {
	return r.From.Add(r.To.Sub(r.From).Mul(fraction))
}
