package physics

import "github.com/go-gl/mathgl/mgl32"

// Shape enumerates the collider/visual primitive kinds a block or entity
// can use (§3 VisualInfo).
type Shape string

const (
	ShapeBox      Shape = "box"
	ShapeSphere   Shape = "sphere"
	ShapeCylinder Shape = "cylinder"
	ShapeCapsule  Shape = "capsule"
)

// OrientationKind tags which of the two representations a Transform's
// rotation is carried in. Mixing them inside one interpolation is an error
// (§7, ErrInterpolationDomainMismatch).
type OrientationKind int

const (
	OrientationEuler OrientationKind = iota
	OrientationQuaternion
)

// Transform is position + rotation (Euler or quaternion, tagged) + scale.
// Quaternion variants are normalized before being broadcast (§3 invariant).
type Transform struct {
	Position mgl32.Vec3
	Kind     OrientationKind
	Euler    mgl32.Vec3 // radians, valid when Kind == OrientationEuler
	Quat     mgl32.Quat // valid when Kind == OrientationQuaternion
	Scale    mgl32.Vec3
}

// DefaultScale is the scale a Transform carries when none is specified.
var DefaultScale = mgl32.Vec3{1, 1, 1}

func NewTransform(pos mgl32.Vec3, quat mgl32.Quat) Transform {
	return Transform{
		Position: pos,
		Kind:     OrientationQuaternion,
		Quat:     quat.Normalize(),
		Scale:    DefaultScale,
	}
}

// Normalize re-normalizes a quaternion-kind transform's rotation in place.
// No-op for Euler transforms.
func (t *Transform) Normalize() {
	if t.Kind == OrientationQuaternion {
		t.Quat = t.Quat.Normalize()
	}
}

// Rotation returns the transform's orientation as a quaternion regardless of
// which variant it was stored in, for use by physics and beam-direction math.
func (t Transform) Rotation() mgl32.Quat {
	if t.Kind == OrientationQuaternion {
		return t.Quat
	}
	return mgl32.AnglesToQuat(t.Euler.Y(), t.Euler.X(), t.Euler.Z(), mgl32.YXZ)
}

// VisualInfoKind tags the four VisualInfo variants (§3).
type VisualInfoKind int

const (
	VisualNone VisualInfoKind = iota
	VisualColor
	VisualTexture
	VisualMesh
)

// VisualInfo is a tagged union: None; Color(r,g,b,Shape); Texture(name,u,v,Shape); Mesh(assetPath).
type VisualInfo struct {
	Kind      VisualInfoKind
	R, G, B   float32
	Texture   string
	UScale    float32
	VScale    float32
	AssetPath string
	Shape     Shape
}

// ObjectData is a named entry in a room's object table mirrored to clients.
type ObjectData struct {
	Name        string
	Transform   Transform
	Visual      *VisualInfo // nil == VisualInfoKind None
	IsKinematic bool
	// Updated is set whenever Transform or Visual diverges from the last
	// value broadcast to clients; cleared by a delta or full broadcast.
	Updated bool
}
