package cpu

import "github.com/aiira-co/three-particles/sim"

// TrailState mirrors the GPU ring: slot s of particle i at s*capacity+i,
// sample w holds the record time.
type TrailState struct {
	Capacity uint32
	Segments uint32
	Ring     [][4]float32
	Heads    []uint32
}

func NewTrailState(capacity, segments uint32) *TrailState {
	ts := &TrailState{
		Capacity: capacity,
		Segments: segments,
		Ring:     make([][4]float32, capacity*segments),
		Heads:    make([]uint32, capacity),
	}
	for i := range ts.Ring {
		ts.Ring[i][3] = sim.DeadSpawnTime
	}
	return ts
}

// Record mirrors the trail record kernel for one sampling tick.
func (ts *TrailState) Record(st *State, t float32) {
	for i := uint32(0); i < ts.Capacity; i++ {
		stime := st.SpawnTime[i]
		age := t - stime
		if age < 0 || age >= st.Lifetime[i] {
			continue
		}
		pos := st.Pos[i]
		head := ts.Heads[i]
		cur := ts.Ring[head*ts.Capacity+i]
		if cur[3] < stime {
			// first record of this life stamps every segment
			for s := uint32(0); s < ts.Segments; s++ {
				ts.Ring[s*ts.Capacity+i] = [4]float32{pos[0], pos[1], pos[2], t}
			}
			continue
		}
		nh := (head + 1) % ts.Segments
		ts.Ring[nh*ts.Capacity+i] = [4]float32{pos[0], pos[1], pos[2], t}
		ts.Heads[i] = nh
	}
}

// Samples walks particle i's ring newest-first, the order the ribbon shader
// reads it.
func (ts *TrailState) Samples(i uint32) [][4]float32 {
	out := make([][4]float32, 0, ts.Segments)
	head := ts.Heads[i]
	for k := uint32(0); k < ts.Segments; k++ {
		s := (head + ts.Segments - k) % ts.Segments
		out = append(out, ts.Ring[s*ts.Capacity+i])
	}
	return out
}
