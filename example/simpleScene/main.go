package main

import (
	"fmt"

	"github.com/akmonengine/plume"
	"github.com/akmonengine/plume/actor"
	"github.com/akmonengine/plume/broadphase"
	"github.com/go-gl/mathgl/mgl64"
)

// SetupScene creates the test scene: a ground mesh, a box trigger gate and
// a sphere crossing both
func SetupScene() (*plume.World, *actor.RigidBody) {
	world := plume.NewWorld(plume.DefaultSettings())

	// Sol: un maillage de deux triangles à y=0
	groundShape := &actor.Mesh{
		Vertices: []mgl64.Vec3{
			{-20, 0, -20}, {20, 0, -20}, {20, 0, 20}, {-20, 0, 20},
		},
		Triangles: [][3]uint32{{0, 1, 2}, {0, 2, 3}},
	}
	groundBody := actor.NewRigidBody(actor.NewTransform(), actor.BodyTypeStatic)
	world.AddBody(groundBody)
	world.AddCollider(groundBody, groundShape)

	// Un portique déclencheur au milieu du parcours
	gateTransform := actor.NewTransform()
	gateTransform.Position = mgl64.Vec3{0, 2, 0}
	gateBody := actor.NewRigidBody(gateTransform, actor.BodyTypeStatic)
	gateBody.IsTrigger = true
	world.AddBody(gateBody)
	world.AddCollider(gateBody, &actor.Box{HalfExtents: mgl64.Vec3{0.5, 2, 2}})

	// La sphère qui traverse la scène
	sphereTransform := actor.NewTransform()
	sphereTransform.Position = mgl64.Vec3{-8, 0.4, 0}
	sphereBody := actor.NewRigidBody(sphereTransform, actor.BodyTypeDynamic)
	sphereBody.Velocity = mgl64.Vec3{4, 0, 0}
	world.AddBody(sphereBody)
	world.AddCollider(sphereBody, &actor.Sphere{Radius: 0.5})

	return world, sphereBody
}

// TestSphereFlyby pushes a sphere across the scene and prints the overlap,
// trigger and sleep events as they fire
func TestSphereFlyby() {
	fmt.Println("🧪 Scène simple: sphère en traversée")
	fmt.Println("====================================")

	world, sphereBody := SetupScene()

	world.Events.Subscribe(plume.OVERLAP_ENTER, func(event plume.Event) {
		e := event.(plume.OverlapEnterEvent)
		fmt.Printf("  ➡️  OVERLAP ENTER entre %v et %v\n",
			e.ColliderA.Body.Transform.Position, e.ColliderB.Body.Transform.Position)
	})
	world.Events.Subscribe(plume.OVERLAP_EXIT, func(event plume.Event) {
		e := event.(plume.OverlapExitEvent)
		fmt.Printf("  ⬅️  OVERLAP EXIT entre %v et %v\n",
			e.ColliderA.Body.Transform.Position, e.ColliderB.Body.Transform.Position)
	})
	world.Events.Subscribe(plume.TRIGGER_ENTER, func(event plume.Event) {
		fmt.Println("  🚪 TRIGGER ENTER: la sphère entre dans le portique")
	})
	world.Events.Subscribe(plume.TRIGGER_EXIT, func(event plume.Event) {
		fmt.Println("  🚪 TRIGGER EXIT: la sphère sort du portique")
	})
	world.Events.Subscribe(plume.ON_SLEEP, func(event plume.Event) {
		e := event.(plume.SleepEvent)
		fmt.Printf("  💤 SLEEP: corps endormi à %v\n", e.Body.Transform.Position)
	})

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 240

	for step := 0; step < maxSteps; step++ {
		// Pas d'intégrateur ici: la scène déplace la sphère elle-même
		sphereBody.Transform.Position = sphereBody.Transform.Position.Add(sphereBody.Velocity.Mul(dt))

		world.Step(dt)

		if step%30 == 0 {
			fmt.Printf("--- étape %d: sphère à %v, %d paires en cache, arbre de hauteur %d\n",
				step, sphereBody.Transform.Position, world.Pairs.Count(), world.BroadPhase.TreeHeight())
		}

		// Passé le portique, la sphère s'arrête et finit par s'endormir
		if step == 150 {
			sphereBody.Velocity = mgl64.Vec3{}
		}
	}

	fmt.Println()
	fmt.Println("🔦 Raycast à travers la scène:")
	ray := broadphase.NewRay(mgl64.Vec3{-10, 0.5, 0}, mgl64.Vec3{10, 0.5, 0})
	world.Raycast(ray, 0xFFFF, func(hit plume.RaycastHit) float64 {
		fmt.Printf("  touché: fraction %.3f au point %v\n", hit.Fraction, hit.Point)
		return -1.0
	})

	fmt.Println()
	fmt.Println("Test terminé!")
}

func main() {
	TestSphereFlyby()
}
