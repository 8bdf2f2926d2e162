// Profiling:
// go build ./profile/broadphase
// go tool pprof -http=":8000" -nodefraction=0.001 ./broadphase mem.pprof

package main

import (
	"math"

	"github.com/akmonengine/plume"
	"github.com/akmonengine/plume/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/profile"
)

func main() {
	bodies := 500
	steps := 2000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(bodies, steps)
	p.Stop()
}

// run fills a world with spheres on a grid and makes them oscillate so
// that pairs keep forming and separating across the steps.
func run(count, steps int) {
	world := plume.NewWorld(plume.DefaultSettings())

	side := int(math.Ceil(math.Cbrt(float64(count))))
	spacing := 2.5

	added := 0
	for x := 0; x < side && added < count; x++ {
		for y := 0; y < side && added < count; y++ {
			for z := 0; z < side && added < count; z++ {
				transform := actor.NewTransform()
				transform.Position = mgl64.Vec3{
					float64(x) * spacing,
					float64(y) * spacing,
					float64(z) * spacing,
				}

				body := actor.NewRigidBody(transform, actor.BodyTypeDynamic)
				world.AddBody(body)
				world.AddCollider(body, &actor.Sphere{Radius: 1.0})
				added++
			}
		}
	}

	const dt = 1.0 / 60.0
	for step := 0; step < steps; step++ {
		phase := float64(step) * dt

		// Chaque corps oscille autour de sa cellule
		for i, body := range world.Bodies {
			body.Velocity = mgl64.Vec3{
				math.Sin(phase + float64(i)),
				math.Cos(phase + float64(i)*0.7),
				math.Sin(phase*0.5 + float64(i)*1.3),
			}
			body.Transform.Position = body.Transform.Position.Add(body.Velocity.Mul(dt))
		}

		world.Step(dt)
	}
}
