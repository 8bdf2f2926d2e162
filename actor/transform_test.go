package actor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewTransform(t *testing.T) {
	transform := NewTransform()

	if !vec3Equal(transform.Position, mgl64.Vec3{0, 0, 0}, 1e-10) {
		t.Errorf("Position = %v, want zero", transform.Position)
	}

	// La transformation identité ne déplace aucun point
	point := mgl64.Vec3{3, -1, 7}
	if !vec3Equal(transform.Apply(point), point, 1e-10) {
		t.Errorf("Apply(%v) = %v, want the point unchanged", point, transform.Apply(point))
	}
}

func TestTransformApply(t *testing.T) {
	tests := []struct {
		name      string
		transform Transform
		point     mgl64.Vec3
		expected  mgl64.Vec3
	}{
		{
			name: "translation only",
			transform: Transform{
				Position: mgl64.Vec3{1, 2, 3},
				Rotation: mgl64.QuatIdent(),
			},
			point:    mgl64.Vec3{10, 20, 30},
			expected: mgl64.Vec3{11, 22, 33},
		},
		{
			name: "rotation 90° around Z",
			transform: Transform{
				Position: mgl64.Vec3{0, 0, 0},
				Rotation: mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 0, 1}),
			},
			point:    mgl64.Vec3{1, 0, 0},
			expected: mgl64.Vec3{0, 1, 0},
		},
		{
			name: "rotation then translation",
			transform: Transform{
				Position: mgl64.Vec3{5, 0, 0},
				Rotation: mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 0, 1}),
			},
			point:    mgl64.Vec3{1, 0, 0},
			expected: mgl64.Vec3{5, 1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.transform.Apply(tt.point)
			if !vec3Equal(result, tt.expected, 1e-9) {
				t.Errorf("Apply(%v) = %v, want %v", tt.point, result, tt.expected)
			}
		})
	}
}

func TestTransformApplyInverse(t *testing.T) {
	transforms := []Transform{
		{Position: mgl64.Vec3{1, 2, 3}, Rotation: mgl64.QuatIdent()},
		{Position: mgl64.Vec3{0, 0, 0}, Rotation: mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 0, 1})},
		{Position: mgl64.Vec3{-4, 7, 2}, Rotation: mgl64.QuatRotate(mgl64.DegToRad(37), mgl64.Vec3{1, 1, 0}.Normalize())},
	}
	points := []mgl64.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{3, -2, 5},
	}

	// Aller-retour: ApplyInverse doit défaire Apply exactement
	for _, transform := range transforms {
		for _, point := range points {
			roundTrip := transform.ApplyInverse(transform.Apply(point))
			if !vec3Equal(roundTrip, point, 1e-9) {
				t.Errorf("ApplyInverse(Apply(%v)) = %v, want the original point", point, roundTrip)
			}
		}
	}
}

func TestTransformMul(t *testing.T) {
	body := Transform{
		Position: mgl64.Vec3{1, 0, 0},
		Rotation: mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 0, 1}),
	}
	local := Transform{
		Position: mgl64.Vec3{1, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}

	composed := body.Mul(local)

	// La position composée place l'offset local dans l'espace du corps
	if !vec3Equal(composed.Position, mgl64.Vec3{1, 1, 0}, 1e-9) {
		t.Errorf("Mul().Position = %v, want {1 1 0}", composed.Position)
	}

	// Appliquer la composition équivaut à appliquer local puis body
	point := mgl64.Vec3{1, 0, 0}
	viaComposed := composed.Apply(point)
	viaChain := body.Apply(local.Apply(point))
	if !vec3Equal(viaComposed, viaChain, 1e-9) {
		t.Errorf("composed.Apply(%v) = %v, want %v (body after local)", point, viaComposed, viaChain)
	}
}
