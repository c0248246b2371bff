package sim

import (
	"github.com/aiira-co/three-particles/gpu"
)

// Params is the host-side image of the SimParams uniform block consumed by
// the simulate kernel. Pack must match the WGSL struct layout exactly.
//
// Layout (144 bytes):
//
//	offset   0: dt            f32
//	offset   4: time          f32
//	offset   8: capacity      u32
//	offset  12: spawn_offset  u32
//	offset  16: spawn_count   u32
//	offset  20: time_key      u32
//	offset  24: drag          f32
//	offset  28: shape_kind    u32
//	offset  32: gravity       vec3<f32>
//	offset  44: lifetime_min  f32
//	offset  48: lifetime_max  f32
//	offset  52: speed_min     f32
//	offset  56: speed_max     f32
//	offset  60: size_min      f32
//	offset  64: emitter_origin vec3<f32>
//	offset  76: size_max      f32
//	offset  80: emitter_axis  vec3<f32>
//	offset  92: cone_angle    f32
//	offset  96: shape_params  vec4<f32>
//	offset 112: color_min     vec4<f32>
//	offset 128: color_max     vec4<f32>
type Params struct {
	Dt          float32
	Time        float32
	Capacity    uint32
	SpawnOffset uint32
	SpawnCount  uint32
	TimeKey     uint32
	Drag        float32
	ShapeKind   uint32

	Gravity       [3]float32
	LifetimeMin   float32
	LifetimeMax   float32
	SpeedMin      float32
	SpeedMax      float32
	SizeMin       float32
	EmitterOrigin [3]float32
	SizeMax       float32
	EmitterAxis   [3]float32
	ConeAngle     float32
	ShapeParams   [4]float32
	ColorMin      [4]float32
	ColorMax      [4]float32
}

const ParamsSize = 144

func (p *Params) Pack() []byte {
	buf := make([]byte, ParamsSize)
	gpu.PutFloat32(buf, 0, p.Dt)
	gpu.PutFloat32(buf, 4, p.Time)
	gpu.PutUint32(buf, 8, p.Capacity)
	gpu.PutUint32(buf, 12, p.SpawnOffset)
	gpu.PutUint32(buf, 16, p.SpawnCount)
	gpu.PutUint32(buf, 20, p.TimeKey)
	gpu.PutFloat32(buf, 24, p.Drag)
	gpu.PutUint32(buf, 28, p.ShapeKind)
	gpu.PutFloat32(buf, 32, p.Gravity[0])
	gpu.PutFloat32(buf, 36, p.Gravity[1])
	gpu.PutFloat32(buf, 40, p.Gravity[2])
	gpu.PutFloat32(buf, 44, p.LifetimeMin)
	gpu.PutFloat32(buf, 48, p.LifetimeMax)
	gpu.PutFloat32(buf, 52, p.SpeedMin)
	gpu.PutFloat32(buf, 56, p.SpeedMax)
	gpu.PutFloat32(buf, 60, p.SizeMin)
	gpu.PutFloat32(buf, 64, p.EmitterOrigin[0])
	gpu.PutFloat32(buf, 68, p.EmitterOrigin[1])
	gpu.PutFloat32(buf, 72, p.EmitterOrigin[2])
	gpu.PutFloat32(buf, 76, p.SizeMax)
	gpu.PutFloat32(buf, 80, p.EmitterAxis[0])
	gpu.PutFloat32(buf, 84, p.EmitterAxis[1])
	gpu.PutFloat32(buf, 88, p.EmitterAxis[2])
	gpu.PutFloat32(buf, 92, p.ConeAngle)
	for i, v := range p.ShapeParams {
		gpu.PutFloat32(buf, 96+i*4, v)
	}
	for i, v := range p.ColorMin {
		gpu.PutFloat32(buf, 112+i*4, v)
	}
	for i, v := range p.ColorMax {
		gpu.PutFloat32(buf, 128+i*4, v)
	}
	return buf
}

// TimeKey quantizes simulation time to milliseconds. Spawns in the same
// frame share a key; a slot respawned in a later frame gets a fresh random
// stream even though its index is unchanged.
func TimeKey(t float64) uint32 {
	if t < 0 {
		return 0
	}
	return uint32(t*1000.0 + 0.5)
}
