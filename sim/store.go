package sim

import (
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aiira-co/three-particles/gpu"
)

// DeadSpawnTime marks a slot that has never spawned (or was cleared). Any
// finite sim time minus it overflows the lifetime test, so cleared slots are
// dead without touching their other attributes.
const DeadSpawnTime = -math.MaxFloat32

// Store holds every particle attribute as its own GPU buffer, structure-of-
// arrays, fixed capacity. Age is never stored; a particle is alive iff
// 0 <= t - spawnTime < lifetime, so the only per-spawn write is spawnTime
// and the attributes stamped at birth.
type Store struct {
	Capacity uint32

	Position  *wgpu.Buffer // vec3, 16-byte stride
	Velocity  *wgpu.Buffer // vec3, 16-byte stride
	SpawnTime *wgpu.Buffer // f32
	Lifetime  *wgpu.Buffer // f32
	Seed      *wgpu.Buffer // f32 in [0,1), fixed at spawn
	Size      *wgpu.Buffer // f32
	Color     *wgpu.Buffer // vec4
}

func NewStore(bm *gpu.BufferManager, capacity uint32) *Store {
	n := uint64(capacity)
	s := &Store{
		Capacity:  capacity,
		Position:  bm.CreateZeroed("ParticlePosition", n*16, wgpu.BufferUsageStorage),
		Velocity:  bm.CreateZeroed("ParticleVelocity", n*16, wgpu.BufferUsageStorage),
		SpawnTime: bm.CreateZeroed("ParticleSpawnTime", n*4, wgpu.BufferUsageStorage),
		Lifetime:  bm.CreateZeroed("ParticleLifetime", n*4, wgpu.BufferUsageStorage),
		Seed:      bm.CreateZeroed("ParticleSeed", n*4, wgpu.BufferUsageStorage),
		Size:      bm.CreateZeroed("ParticleSize", n*4, wgpu.BufferUsageStorage),
		Color:     bm.CreateZeroed("ParticleColor", n*16, wgpu.BufferUsageStorage),
	}
	s.Clear(bm.Device.GetQueue())
	return s
}

// Clear kills every particle by rewriting spawnTime with the dead sentinel.
// Other attributes are left as-is; dead slots are never read.
func (s *Store) Clear(queue *wgpu.Queue) {
	dead := make([]float32, s.Capacity)
	for i := range dead {
		dead[i] = DeadSpawnTime
	}
	queue.WriteBuffer(s.SpawnTime, 0, gpu.Float32SliceToBytes(dead))
}

func (s *Store) Release() {
	for _, b := range []*wgpu.Buffer{s.Position, s.Velocity, s.SpawnTime, s.Lifetime, s.Seed, s.Size, s.Color} {
		if b != nil {
			b.Release()
		}
	}
}
