// Package render draws particle systems: camera math, a procedural sprite
// atlas, and the billboard and ribbon pipelines. It never owns a window or
// surface; the host passes a target view each frame.
package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera orbits a Y-up target: yaw spins around the vertical, pitch lifts
// above the horizon, distance zooms.
type Camera struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32

	Fov  float32
	Near float32
	Far  float32

	Sensitivity float32
	ZoomSpeed   float32
}

func NewCamera() *Camera {
	return &Camera{
		Target:      mgl32.Vec3{0, 2, 0},
		Distance:    14,
		Yaw:         0.6,
		Pitch:       0.35,
		Fov:         mgl32.DegToRad(55),
		Near:        0.1,
		Far:         500,
		Sensitivity: 0.005,
		ZoomSpeed:   1.1,
	}
}

func (c *Camera) Position() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	return c.Target.Add(mgl32.Vec3{
		c.Distance * cp * float32(math.Sin(float64(c.Yaw))),
		c.Distance * float32(math.Sin(float64(c.Pitch))),
		c.Distance * cp * float32(math.Cos(float64(c.Yaw))),
	})
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.Target.Sub(c.Position()).Normalize()
}

// Right is the camera's world-space right axis, the billboard X basis.
func (c *Camera) Right() mgl32.Vec3 {
	f := c.Forward()
	r := f.Cross(mgl32.Vec3{0, 1, 0})
	if r.Len() < 1e-6 {
		return mgl32.Vec3{1, 0, 0}
	}
	return r.Normalize()
}

// Up is the camera's world-space up axis, the billboard Y basis.
func (c *Camera) Up() mgl32.Vec3 {
	return c.Right().Cross(c.Forward())
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *Camera) Proj(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(c.Fov, aspect, c.Near, c.Far)
}

func (c *Camera) ViewProj(aspect float32) mgl32.Mat4 {
	return c.Proj(aspect).Mul4(c.View())
}

// Orbit applies a mouse delta in pixels, scaled by Sensitivity. Pitch stays
// just short of the poles so the up vector never degenerates.
func (c *Camera) Orbit(dx, dy float32) {
	c.Yaw -= dx * c.Sensitivity
	c.Pitch += dy * c.Sensitivity
	const lim = math.Pi/2 - 0.01
	if c.Pitch > lim {
		c.Pitch = lim
	}
	if c.Pitch < -lim {
		c.Pitch = -lim
	}
}

// Zoom scales the orbit distance by ZoomSpeed per scroll notch; negative
// notches zoom in.
func (c *Camera) Zoom(notches float32) {
	scale := float32(math.Pow(float64(c.ZoomSpeed), float64(notches)))
	c.Distance *= scale
	if c.Distance < 0.5 {
		c.Distance = 0.5
	}
	if c.Distance > c.Far*0.5 {
		c.Distance = c.Far * 0.5
	}
}

// Pan slides the target in the camera plane, pixels scaled to world units by
// the current distance.
func (c *Camera) Pan(dx, dy float32) {
	scale := c.Distance * c.Sensitivity * 0.5
	c.Target = c.Target.
		Add(c.Right().Mul(-dx * scale)).
		Add(c.Up().Mul(dy * scale))
}
