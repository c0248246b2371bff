package particles

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/aiira-co/three-particles/gpu"
)

// Built-in providers. Each one is a plain struct with exported knobs; mutate
// them between frames and the new values reach the kernel on the next uniform
// pack. Changing knobs never rebuilds the program, only adding or removing
// providers does.
//
// Priority conventions: ambient fields (wind) run at -10, local fields
// (vortex, attractor) at 0, per-particle jitter (wander) at 10.

// Gravity adds a constant acceleration field. The system already carries a
// base gravity parameter; this provider exists for stacking extra constant
// fields on top of it.
type Gravity struct {
	Accel mgl32.Vec3
}

func NewGravity(accel mgl32.Vec3) *Gravity { return &Gravity{Accel: accel} }

func (g *Gravity) Name() string  { return "gravity_field" }
func (g *Gravity) Priority() int { return -100 }

func (g *Gravity) ForceWGSL() string {
	return "accel += gravity_field.accel;"
}

func (g *Gravity) UniformName() string { return "gravity_field" }
func (g *Gravity) UniformFields() string {
	return "    accel: vec3<f32>,\n    _pad0: f32,"
}
func (g *Gravity) UniformSize() int { return 16 }

func (g *Gravity) PackUniform(t, dt float64) []byte {
	out := make([]byte, 16)
	gpu.PutFloat32(out, 0, g.Accel.X())
	gpu.PutFloat32(out, 4, g.Accel.Y())
	gpu.PutFloat32(out, 8, g.Accel.Z())
	return out
}

// Wind pushes every particle along a direction. GustAmplitude and
// GustFrequency modulate the strength sinusoidally on the host.
type Wind struct {
	Direction     mgl32.Vec3
	Strength      float32
	GustAmplitude float32
	GustFrequency float32

	gusted float32
}

func NewWind(dir mgl32.Vec3, strength float32) *Wind {
	return &Wind{Direction: dir, Strength: strength, gusted: strength}
}

func (w *Wind) Name() string  { return "wind" }
func (w *Wind) Priority() int { return -10 }

func (w *Wind) HostUpdate(t, dt float64) {
	w.gusted = w.Strength * (1 + w.GustAmplitude*float32(math.Sin(2*math.Pi*float64(w.GustFrequency)*t)))
}

func (w *Wind) ForceWGSL() string {
	return "accel += wind.direction * wind.strength;"
}

func (w *Wind) UniformName() string { return "wind" }
func (w *Wind) UniformFields() string {
	return "    direction: vec3<f32>,\n    strength: f32,"
}
func (w *Wind) UniformSize() int { return 16 }

func (w *Wind) PackUniform(t, dt float64) []byte {
	dir := w.Direction
	if l := dir.Len(); l > 1e-6 {
		dir = dir.Mul(1 / l)
	}
	out := make([]byte, 16)
	gpu.PutFloat32(out, 0, dir.X())
	gpu.PutFloat32(out, 4, dir.Y())
	gpu.PutFloat32(out, 8, dir.Z())
	gpu.PutFloat32(out, 12, w.gusted)
	return out
}

// Vortex swirls particles around an axis through Center. Strength falls off
// with a gaussian of Radius so distant particles barely feel it.
type Vortex struct {
	Center   mgl32.Vec3
	Axis     mgl32.Vec3
	Strength float32
	Radius   float32
}

func NewVortex(center, axis mgl32.Vec3, strength, radius float32) *Vortex {
	return &Vortex{Center: center, Axis: axis, Strength: strength, Radius: radius}
}

func (v *Vortex) Name() string  { return "vortex" }
func (v *Vortex) Priority() int { return 0 }

func (v *Vortex) ForceWGSL() string {
	return `let d = p - vortex.center;
let tangent = cross(vortex.axis, d);
let tl = length(tangent);
if (tl > 1e-5) {
    let falloff = exp(-dot(d, d) / (vortex.radius * vortex.radius));
    accel += vortex.strength * falloff * (tangent / tl);
}`
}

func (v *Vortex) UniformName() string { return "vortex" }
func (v *Vortex) UniformFields() string {
	return "    center: vec3<f32>,\n    strength: f32,\n    axis: vec3<f32>,\n    radius: f32,"
}
func (v *Vortex) UniformSize() int { return 32 }

func (v *Vortex) PackUniform(t, dt float64) []byte {
	axis := v.Axis
	if l := axis.Len(); l > 1e-6 {
		axis = axis.Mul(1 / l)
	}
	r := v.Radius
	if r < 1e-3 {
		r = 1e-3
	}
	out := make([]byte, 32)
	gpu.PutFloat32(out, 0, v.Center.X())
	gpu.PutFloat32(out, 4, v.Center.Y())
	gpu.PutFloat32(out, 8, v.Center.Z())
	gpu.PutFloat32(out, 12, v.Strength)
	gpu.PutFloat32(out, 16, axis.X())
	gpu.PutFloat32(out, 20, axis.Y())
	gpu.PutFloat32(out, 24, axis.Z())
	gpu.PutFloat32(out, 28, r)
	return out
}

// PointAttractor pulls particles toward Center with inverse-square falloff,
// clamped inside MinDistance to keep the acceleration finite. Negative
// Strength repels.
type PointAttractor struct {
	Center      mgl32.Vec3
	Strength    float32
	MinDistance float32
}

func NewPointAttractor(center mgl32.Vec3, strength float32) *PointAttractor {
	return &PointAttractor{Center: center, Strength: strength, MinDistance: 0.25}
}

func (a *PointAttractor) Name() string  { return "attractor" }
func (a *PointAttractor) Priority() int { return 0 }

func (a *PointAttractor) ForceWGSL() string {
	return `let d = attractor.center - p;
let dist2 = max(dot(d, d), attractor.min_dist * attractor.min_dist);
accel += d * (attractor.strength / (dist2 * sqrt(dist2)));`
}

func (a *PointAttractor) UniformName() string { return "attractor" }
func (a *PointAttractor) UniformFields() string {
	return "    center: vec3<f32>,\n    strength: f32,\n    min_dist: f32,\n    _pad0: f32,\n    _pad1: f32,\n    _pad2: f32,"
}
func (a *PointAttractor) UniformSize() int { return 32 }

func (a *PointAttractor) PackUniform(t, dt float64) []byte {
	md := a.MinDistance
	if md < 1e-3 {
		md = 1e-3
	}
	out := make([]byte, 32)
	gpu.PutFloat32(out, 0, a.Center.X())
	gpu.PutFloat32(out, 4, a.Center.Y())
	gpu.PutFloat32(out, 8, a.Center.Z())
	gpu.PutFloat32(out, 12, a.Strength)
	gpu.PutFloat32(out, 16, md)
	return out
}

// SpeedLimit clamps velocity magnitude after force integration. Registered
// last among overrides it caps whatever the others produced.
type SpeedLimit struct {
	Max float32
}

func NewSpeedLimit(max float32) *SpeedLimit { return &SpeedLimit{Max: max} }

func (s *SpeedLimit) Name() string { return "speedlimit" }

func (s *SpeedLimit) VelocityWGSL() string {
	return `let vl = length(v);
if (vl > speedlimit.max) {
    v = v * (speedlimit.max / vl);
}`
}

func (s *SpeedLimit) UniformName() string { return "speedlimit" }
func (s *SpeedLimit) UniformFields() string {
	return "    max: f32,\n    _pad0: f32,\n    _pad1: f32,\n    _pad2: f32,"
}
func (s *SpeedLimit) UniformSize() int { return 16 }

func (s *SpeedLimit) PackUniform(t, dt float64) []byte {
	out := make([]byte, 16)
	gpu.PutFloat32(out, 0, s.Max)
	return out
}

// Floor keeps particles above a horizontal plane. The position stage clamps
// penetration; the velocity stage reflects downward motion once a particle
// rests on the plane, scaled by Restitution.
type Floor struct {
	Height      float32
	Restitution float32
}

func NewFloor(height, restitution float32) *Floor {
	return &Floor{Height: height, Restitution: restitution}
}

func (f *Floor) Name() string { return "floor" }

func (f *Floor) VelocityWGSL() string {
	return `if (p.y <= floor_plane.height + 1e-4 && v.y < 0.0) {
    v = vec3<f32>(v.x, -v.y * floor_plane.restitution, v.z);
}`
}

func (f *Floor) PositionWGSL() string {
	return `if (p.y < floor_plane.height) {
    p = vec3<f32>(p.x, floor_plane.height, p.z);
}`
}

func (f *Floor) UniformName() string { return "floor_plane" }
func (f *Floor) UniformFields() string {
	return "    height: f32,\n    restitution: f32,\n    _pad0: f32,\n    _pad1: f32,"
}
func (f *Floor) UniformSize() int { return 16 }

func (f *Floor) PackUniform(t, dt float64) []byte {
	out := make([]byte, 16)
	gpu.PutFloat32(out, 0, f.Height)
	gpu.PutFloat32(out, 4, f.Restitution)
	return out
}

// Wander adds smooth pseudo-random drift. The host samples a simplex noise
// field at four staggered phases each frame; the kernel blends between the
// samples by particle seed, so neighbors wander apart without per-particle
// noise evaluation on the GPU.
type Wander struct {
	Strength  float32
	Frequency float32

	noise   opensimplex.Noise
	samples [4]mgl32.Vec3
}

func NewWander(strength, frequency float32, seed int64) *Wander {
	return &Wander{
		Strength:  strength,
		Frequency: frequency,
		noise:     opensimplex.New(seed),
	}
}

func (w *Wander) Name() string  { return "wander" }
func (w *Wander) Priority() int { return 10 }

func (w *Wander) HostUpdate(t, dt float64) {
	phase := t * float64(w.Frequency)
	for k := range w.samples {
		off := float64(k) * 7.31
		w.samples[k] = mgl32.Vec3{
			float32(w.noise.Eval3(phase+off, 0, 0)),
			float32(w.noise.Eval3(0, phase+off, 11.7)),
			float32(w.noise.Eval3(23.4, 0, phase+off)),
		}
	}
}

func (w *Wander) ForceWGSL() string {
	return `let s = seed * 3.0;
let k = u32(floor(s));
let f = fract(s);
let dir = mix(wander.samples[k].xyz, wander.samples[k + 1u].xyz, f);
accel += wander.strength * dir;`
}

func (w *Wander) UniformName() string { return "wander" }
func (w *Wander) UniformFields() string {
	return "    strength: f32,\n    _pad0: f32,\n    _pad1: f32,\n    _pad2: f32,\n    samples: array<vec4<f32>, 4>,"
}
func (w *Wander) UniformSize() int { return 80 }

func (w *Wander) PackUniform(t, dt float64) []byte {
	out := make([]byte, 80)
	gpu.PutFloat32(out, 0, w.Strength)
	for k, s := range w.samples {
		base := 16 + k*16
		gpu.PutFloat32(out, base, s.X())
		gpu.PutFloat32(out, base+4, s.Y())
		gpu.PutFloat32(out, base+8, s.Z())
	}
	return out
}
