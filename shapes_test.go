package particles

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestShapeKindsDistinct(t *testing.T) {
	shapes := []EmitterShape{PointShape{}, BoxShape{}, SphereShape{}, ConeShape{}}
	seen := map[uint32]bool{}
	for _, s := range shapes {
		k := s.shapeKind()
		if seen[k] {
			t.Errorf("duplicate shape kind %d", k)
		}
		seen[k] = true
	}
}

func TestShapeParams(t *testing.T) {
	box := BoxShape{HalfExtents: mgl32.Vec3{1, 2, 3}}
	if got := box.shapeParams(); got != [4]float32{1, 2, 3, 0} {
		t.Errorf("box params = %v", got)
	}

	solid := SphereShape{Radius: 4}
	if got := solid.shapeParams(); got != [4]float32{4, 0, 0, 0} {
		t.Errorf("solid sphere params = %v", got)
	}
	shell := SphereShape{Radius: 4, ShellOnly: true}
	if got := shell.shapeParams(); got[1] < 0.5 {
		t.Errorf("shell flag not set: %v", got)
	}

	cone := ConeShape{Radius: 0.5}
	if got := cone.shapeParams(); got[0] != 0.5 {
		t.Errorf("cone params = %v", got)
	}
}
