// Package cpu contains CPU implementations of the compute kernels: the
// simulate stage machinery, the bitonic sort network, and the trail
// recorder. They follow the WGSL step for step (same hash, same spawn
// window, same stage order) and exist as a debug and test tool. They are not
// a usable fallback at real particle counts.
package cpu

import (
	"math"

	"github.com/aiira-co/three-particles/sim"
)

type Vec3 [3]float32

func (a Vec3) Add(b Vec3) Vec3      { return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a Vec3) Sub(b Vec3) Vec3      { return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a Vec3) Scale(s float32) Vec3 { return Vec3{a[0] * s, a[1] * s, a[2] * s} }
func (a Vec3) Dot(b Vec3) float32   { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a Vec3) Len() float32         { return float32(math.Sqrt(float64(a.Dot(a)))) }

func (a Vec3) Normalize() Vec3 {
	l := a.Len()
	if l == 0 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// State is the host-side particle store, same attributes as the GPU SoA
// buffers.
type State struct {
	Capacity  uint32
	Pos       []Vec3
	Vel       []Vec3
	SpawnTime []float32
	Lifetime  []float32
	Seed      []float32
	Size      []float32
	Color     [][4]float32
}

func NewState(capacity uint32) *State {
	s := &State{
		Capacity:  capacity,
		Pos:       make([]Vec3, capacity),
		Vel:       make([]Vec3, capacity),
		SpawnTime: make([]float32, capacity),
		Lifetime:  make([]float32, capacity),
		Seed:      make([]float32, capacity),
		Size:      make([]float32, capacity),
		Color:     make([][4]float32, capacity),
	}
	s.Clear()
	return s
}

func (s *State) Clear() {
	for i := range s.SpawnTime {
		s.SpawnTime[i] = sim.DeadSpawnTime
	}
}

// Alive applies the canonical aliveness rule: spawn time is the only stored
// birth fact, age is always derived.
func (s *State) Alive(i uint32, t float32) bool {
	age := t - s.SpawnTime[i]
	return age >= 0 && age < s.Lifetime[i]
}

func (s *State) AliveCount(t float32) int {
	n := 0
	for i := uint32(0); i < s.Capacity; i++ {
		if s.Alive(i, t) {
			n++
		}
	}
	return n
}

// Pcg mirrors the kernel hash.
func Pcg(x uint32) uint32 {
	h := x*747796405 + 2891336453
	h = ((h >> ((h >> 28) + 4)) ^ h) * 277803737
	return (h >> 22) ^ h
}

// Rand01 mirrors the kernel's per-(index, frame, salt) random stream.
func Rand01(idx, tkey, salt uint32) float32 {
	h := Pcg(idx ^ Pcg(tkey^Pcg(salt)))
	return float32(float64(h) * (1.0 / 4294967296.0))
}
