package cpu

import (
	"math"
	"sort"

	"github.com/aiira-co/three-particles/sim"
)

// Ctx is the per-particle view a force or override sees, matching the
// identifiers in scope for WGSL snippets.
type Ctx struct {
	Index     uint32
	Pos, Vel  Vec3
	Age, Life float32
	NAge      float32
	Seed      float32
	Time, Dt  float32
}

// Force contributes acceleration; forces apply in ascending Priority, ties
// in registration order.
type Force struct {
	Priority int
	Apply    func(c Ctx) Vec3
}

// Override rewrites velocity or position outright, registration order.
type Override func(c Ctx) Vec3

// Kernel mirrors the generated simulate program for one provider set.
type Kernel struct {
	Forces       []Force
	VelOverrides []Override
	PosOverrides []Override
}

// Step runs one simulate dispatch over the whole store.
func (k *Kernel) Step(st *State, p *sim.Params) {
	forces := make([]Force, len(k.Forces))
	copy(forces, k.Forces)
	sort.SliceStable(forces, func(i, j int) bool { return forces[i].Priority < forces[j].Priority })

	cap := p.Capacity
	for idx := uint32(0); idx < cap; idx++ {
		rel := (idx + cap - (p.SpawnOffset % cap)) % cap
		if rel < p.SpawnCount {
			spawn(st, idx, p)
			continue
		}

		stime := st.SpawnTime[idx]
		age := p.Time - stime
		life := st.Lifetime[idx]
		if age < 0 || age >= life {
			continue
		}

		c := Ctx{
			Index: idx,
			Pos:   st.Pos[idx],
			Vel:   st.Vel[idx],
			Age:   age,
			Life:  life,
			NAge:  age / max32(life, 1e-6),
			Seed:  st.Seed[idx],
			Time:  p.Time,
			Dt:    p.Dt,
		}

		accel := Vec3(p.Gravity)
		for _, f := range forces {
			accel = accel.Add(f.Apply(c))
		}

		c.Vel = c.Vel.Add(accel.Scale(p.Dt))

		for _, o := range k.VelOverrides {
			c.Vel = o(c)
		}

		// Drag after the overrides, matching the kernel stage order.
		c.Vel = c.Vel.Scale(max32(0, 1-p.Drag*p.Dt))

		c.Pos = c.Pos.Add(c.Vel.Scale(p.Dt))

		for _, o := range k.PosOverrides {
			c.Pos = o(c)
		}

		st.Pos[idx] = c.Pos
		st.Vel[idx] = c.Vel
	}
}

func spawn(st *State, idx uint32, p *sim.Params) {
	tk := p.TimeKey
	rDir0 := Rand01(idx, tk, 1)
	rDir1 := Rand01(idx, tk, 2)
	rSpeed := Rand01(idx, tk, 3)
	rLife := Rand01(idx, tk, 4)
	rSize := Rand01(idx, tk, 5)
	rCol := Rand01(idx, tk, 6)
	rSeed := Rand01(idx, tk, 7)
	rPos0 := Rand01(idx, tk, 8)
	rPos1 := Rand01(idx, tk, 9)
	rPos2 := Rand01(idx, tk, 10)

	axis := Vec3(p.EmitterAxis).Normalize()
	tan, bit := basisFor(axis)

	pos := Vec3(p.EmitterOrigin)
	dir := axis

	switch p.ShapeKind {
	case 1: // box
		pos = pos.Add(Vec3{
			p.ShapeParams[0] * (2*rPos0 - 1),
			p.ShapeParams[1] * (2*rPos1 - 1),
			p.ShapeParams[2] * (2*rPos2 - 1),
		})
	case 2: // sphere
		z := 2*rPos0 - 1
		phi := 2 * math.Pi * float64(rPos1)
		s := float32(math.Sqrt(math.Max(0, float64(1-z*z))))
		radial := Vec3{s * float32(math.Cos(phi)), s * float32(math.Sin(phi)), z}
		r := p.ShapeParams[0]
		if p.ShapeParams[1] < 0.5 {
			r *= float32(math.Pow(float64(rPos2), 1.0/3.0))
		}
		pos = pos.Add(radial.Scale(r))
		dir = radial
	case 3: // cone base disc
		phi := 2 * math.Pi * float64(rPos0)
		rad := p.ShapeParams[0] * float32(math.Sqrt(float64(rPos1)))
		local := Vec3{float32(math.Cos(phi)) * rad, float32(math.Sin(phi)) * rad, 0}
		pos = pos.Add(mulBasis(tan, bit, axis, local))
	}

	if p.ShapeKind != 2 {
		cosMax := float32(math.Cos(float64(p.ConeAngle)))
		cz := mix(cosMax, 1, rDir0)
		sz := float32(math.Sqrt(math.Max(0, float64(1-cz*cz))))
		phi := 2 * math.Pi * float64(rDir1)
		local := Vec3{sz * float32(math.Cos(phi)), sz * float32(math.Sin(phi)), cz}
		dir = mulBasis(tan, bit, axis, local)
	}

	speed := mix(p.SpeedMin, p.SpeedMax, rSpeed)
	st.Pos[idx] = pos
	st.Vel[idx] = dir.Scale(speed)
	st.SpawnTime[idx] = p.Time
	st.Lifetime[idx] = mix(p.LifetimeMin, p.LifetimeMax, rLife)
	st.Seed[idx] = rSeed
	st.Size[idx] = mix(p.SizeMin, p.SizeMax, rSize)
	for ch := 0; ch < 4; ch++ {
		st.Color[idx][ch] = mix(p.ColorMin[ch], p.ColorMax[ch], rCol)
	}
}

func basisFor(axis Vec3) (tan, bit Vec3) {
	up := Vec3{0, 1, 0}
	if abs32(axis[1]) > 0.99 {
		up = Vec3{1, 0, 0}
	}
	tan = up.Cross(axis).Normalize()
	bit = axis.Cross(tan)
	return tan, bit
}

func mulBasis(tan, bit, axis, v Vec3) Vec3 {
	return tan.Scale(v[0]).Add(bit.Scale(v[1])).Add(axis.Scale(v[2]))
}

func mix(a, b, t float32) float32 { return a + (b-a)*t }

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func abs32(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}
