package particles

import "github.com/go-gl/mathgl/mgl32"

// EmitterShape selects where newborn particles appear and how their initial
// direction is chosen. The set is closed: every shape is compiled into the
// spawn stage of the simulate kernel and selected per frame by uniform, so
// changing shape never rebuilds the program.
type EmitterShape interface {
	shapeKind() uint32
	shapeParams() [4]float32
}

// PointShape emits from the emitter origin.
type PointShape struct{}

// BoxShape emits uniformly inside an axis-aligned box centered on the
// emitter origin.
type BoxShape struct {
	HalfExtents mgl32.Vec3
}

// SphereShape emits inside a sphere around the origin, or on its surface
// with ShellOnly; initial direction is radial, ignoring the cone angle.
type SphereShape struct {
	Radius    float32
	ShellOnly bool
}

// ConeShape emits from a disc of the given radius in the plane perpendicular
// to the emitter axis, spraying within the system cone angle.
type ConeShape struct {
	Radius float32
}

func (PointShape) shapeKind() uint32       { return 0 }
func (PointShape) shapeParams() [4]float32 { return [4]float32{} }

func (s BoxShape) shapeKind() uint32 { return 1 }
func (s BoxShape) shapeParams() [4]float32 {
	return [4]float32{s.HalfExtents.X(), s.HalfExtents.Y(), s.HalfExtents.Z(), 0}
}

func (s SphereShape) shapeKind() uint32 { return 2 }
func (s SphereShape) shapeParams() [4]float32 {
	shell := float32(0)
	if s.ShellOnly {
		shell = 1
	}
	return [4]float32{s.Radius, shell, 0, 0}
}

func (s ConeShape) shapeKind() uint32       { return 3 }
func (s ConeShape) shapeParams() [4]float32 { return [4]float32{s.Radius, 0, 0, 0} }
