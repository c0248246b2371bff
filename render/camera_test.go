package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraPositionDistance(t *testing.T) {
	c := NewCamera()
	for _, tc := range []struct{ yaw, pitch float32 }{
		{0, 0}, {1.2, 0.5}, {-2.5, -1.0}, {3.0, 1.4},
	} {
		c.Yaw, c.Pitch = tc.yaw, tc.pitch
		d := c.Position().Sub(c.Target).Len()
		if math.Abs(float64(d-c.Distance)) > 1e-3 {
			t.Errorf("yaw=%v pitch=%v: |pos-target| = %v, want %v", tc.yaw, tc.pitch, d, c.Distance)
		}
	}
}

func TestCameraOrbitClampsPitch(t *testing.T) {
	c := NewCamera()
	c.Orbit(0, 1e6)
	if c.Pitch >= float32(math.Pi/2) {
		t.Errorf("pitch %v reached the pole", c.Pitch)
	}
	up := c.Up()
	if up.Len() < 0.5 {
		t.Errorf("up degenerated at clamped pitch: %v", up)
	}

	c.Orbit(0, -1e9)
	if c.Pitch <= -float32(math.Pi/2) {
		t.Errorf("pitch %v reached the lower pole", c.Pitch)
	}
}

func TestCameraZoomClamps(t *testing.T) {
	c := NewCamera()
	c.Zoom(-1000)
	if c.Distance < 0.5 {
		t.Errorf("distance %v below minimum", c.Distance)
	}
	c.Zoom(1000)
	if c.Distance > c.Far*0.5 {
		t.Errorf("distance %v beyond maximum", c.Distance)
	}
}

func TestCameraZoomDirection(t *testing.T) {
	c := NewCamera()
	before := c.Distance
	c.Zoom(-1)
	if c.Distance >= before {
		t.Errorf("negative notches should zoom in: %v -> %v", before, c.Distance)
	}
	c.Zoom(2)
	if c.Distance <= before {
		t.Errorf("positive notches should zoom out past start: %v", c.Distance)
	}
}

func TestCameraBasisOrthonormal(t *testing.T) {
	c := NewCamera()
	c.Yaw, c.Pitch = 0.8, 0.4

	f, r, u := c.Forward(), c.Right(), c.Up()
	for name, v := range map[string]mgl32.Vec3{"forward": f, "right": r, "up": u} {
		if math.Abs(float64(v.Len()-1)) > 1e-4 {
			t.Errorf("%s not unit: %v", name, v.Len())
		}
	}
	if d := f.Dot(r); math.Abs(float64(d)) > 1e-4 {
		t.Errorf("forward.right = %v", d)
	}
	if d := f.Dot(u); math.Abs(float64(d)) > 1e-4 {
		t.Errorf("forward.up = %v", d)
	}
	if u.Y() <= 0 {
		t.Errorf("up points down: %v", u)
	}
}

func TestCameraPanMovesTargetInPlane(t *testing.T) {
	c := NewCamera()
	before := c.Target
	f := c.Forward()

	c.Pan(100, 0)
	delta := c.Target.Sub(before)
	if delta.Len() == 0 {
		t.Fatal("pan did not move the target")
	}
	if d := delta.Normalize().Dot(f); math.Abs(float64(d)) > 1e-3 {
		t.Errorf("pan moved along the view axis: dot = %v", d)
	}
}

func TestCameraViewProjFinite(t *testing.T) {
	c := NewCamera()
	vp := c.ViewProj(16.0 / 9.0)
	for i, v := range vp {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("viewproj[%d] = %v", i, v)
		}
	}

	// The target must land in front of the camera in clip space.
	clip := vp.Mul4x1(c.Target.Vec4(1))
	if clip.W() <= 0 {
		t.Errorf("target behind camera: w = %v", clip.W())
	}
}
