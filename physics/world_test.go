package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestStepIntegratesPosition(t *testing.T) {
	w := NewWorld()
	h := w.InsertBody(BodyDynamic, mgl32.Vec3{0, 0, 0}, mgl32.QuatIdent())
	w.SetVelocity(h, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{})

	w.Step(0.5)

	pos, _, _ := w.GetTransform(h)
	if pos.X() != 0.5 {
		t.Fatalf("expected x=0.5 after stepping 0.5s at 1 m/s, got %v", pos.X())
	}
}

func TestRayCastHitsNearestBody(t *testing.T) {
	w := NewWorld()
	near := w.InsertBody(BodyFixed, mgl32.Vec3{2, 0, 0}, mgl32.QuatIdent())
	far := w.InsertBody(BodyFixed, mgl32.Vec3{5, 0, 0}, mgl32.QuatIdent())
	w.InsertCollider(near, ShapeSphere, mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{}, mgl32.QuatIdent(), false)
	w.InsertCollider(far, ShapeSphere, mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{}, mgl32.QuatIdent(), false)
	w.Label("near", near)
	w.Label("far", far)

	hit := w.RayCast(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, 10, nil)
	if !hit.Hit || hit.Label != "near" {
		t.Fatalf("expected hit on near body, got %+v", hit)
	}
}

func TestIntersectionsDetectOverlap(t *testing.T) {
	w := NewWorld()
	sensorBody := w.InsertBody(BodyFixed, mgl32.Vec3{0, 0, 0}, mgl32.QuatIdent())
	otherBody := w.InsertBody(BodyFixed, mgl32.Vec3{0.2, 0, 0}, mgl32.QuatIdent())
	sensor := w.InsertCollider(sensorBody, ShapeSphere, mgl32.Vec3{0.3, 0, 0}, mgl32.Vec3{}, mgl32.QuatIdent(), true)
	w.InsertCollider(otherBody, ShapeSphere, mgl32.Vec3{0.3, 0, 0}, mgl32.Vec3{}, mgl32.QuatIdent(), false)
	w.Label("obstacle", otherBody)

	w.Step(0) // recompute intersections

	set := w.Intersections(sensor)
	if !set["obstacle"] {
		t.Fatalf("expected obstacle to be in the sensor's intersection set, got %v", set)
	}
}

func TestRemoveBodyDropsItsColliders(t *testing.T) {
	w := NewWorld()
	b := w.InsertBody(BodyDynamic, mgl32.Vec3{}, mgl32.QuatIdent())
	c := w.InsertCollider(b, ShapeBox, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, mgl32.QuatIdent(), true)
	w.RemoveBody(b)

	if _, ok := w.GetBody(b); ok {
		t.Fatal("expected body to be removed")
	}
	if set := w.Intersections(c); set != nil && len(set) != 0 {
		t.Fatal("expected removed collider's intersection set to be gone")
	}
}
