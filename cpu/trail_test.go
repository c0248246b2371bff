package cpu

import (
	"testing"

	"github.com/aiira-co/three-particles/sim"
)

func spawnOne(st *State, idx uint32, t float32, life float32, pos Vec3) {
	st.SpawnTime[idx] = t
	st.Lifetime[idx] = life
	st.Pos[idx] = pos
}

func TestFirstRecordStampsEverySegment(t *testing.T) {
	st := NewState(2)
	ts := NewTrailState(2, 4)
	spawnOne(st, 0, 1.0, 10, Vec3{3, 4, 5})

	ts.Record(st, 1.0)

	for s := uint32(0); s < 4; s++ {
		got := ts.Ring[s*2+0]
		if got != [4]float32{3, 4, 5, 1.0} {
			t.Errorf("segment %d = %v, want stamp at spawn position", s, got)
		}
	}
	// dead particle's ring untouched
	for s := uint32(0); s < 4; s++ {
		if ts.Ring[s*2+1][3] != sim.DeadSpawnTime {
			t.Errorf("dead particle segment %d was written", s)
		}
	}
}

func TestRingAdvancesAfterStamp(t *testing.T) {
	st := NewState(1)
	ts := NewTrailState(1, 3)
	spawnOne(st, 0, 1.0, 100, Vec3{0, 0, 0})

	ts.Record(st, 1.0) // stamp
	st.Pos[0] = Vec3{1, 0, 0}
	ts.Record(st, 1.5)
	st.Pos[0] = Vec3{2, 0, 0}
	ts.Record(st, 2.0)

	samples := ts.Samples(0)
	if samples[0] != [4]float32{2, 0, 0, 2.0} {
		t.Errorf("newest sample = %v", samples[0])
	}
	if samples[1] != [4]float32{1, 0, 0, 1.5} {
		t.Errorf("second sample = %v", samples[1])
	}
}

func TestRingWrapsOverwritingOldest(t *testing.T) {
	st := NewState(1)
	ts := NewTrailState(1, 3)
	spawnOne(st, 0, 1.0, 100, Vec3{0, 0, 0})
	ts.Record(st, 1.0) // stamp

	for i := 1; i <= 5; i++ {
		st.Pos[0] = Vec3{float32(i), 0, 0}
		ts.Record(st, 1.0+float32(i))
	}

	samples := ts.Samples(0)
	// only the 3 newest survive: 5, 4, 3
	want := []float32{5, 4, 3}
	for i, w := range want {
		if samples[i][0] != w {
			t.Errorf("sample %d x=%v, want %v", i, samples[i][0], w)
		}
	}
}

func TestRespawnRestampsRing(t *testing.T) {
	st := NewState(1)
	ts := NewTrailState(1, 3)
	spawnOne(st, 0, 1.0, 2, Vec3{0, 0, 0})
	ts.Record(st, 1.0)
	st.Pos[0] = Vec3{9, 9, 9}
	ts.Record(st, 1.5)

	// particle dies, new life begins in the same slot elsewhere
	spawnOne(st, 0, 5.0, 2, Vec3{100, 0, 0})
	ts.Record(st, 5.0)

	for s := uint32(0); s < 3; s++ {
		got := ts.Ring[s]
		if got != [4]float32{100, 0, 0, 5.0} {
			t.Errorf("segment %d = %v, old life leaked into new trail", s, got)
		}
	}
}

func TestDeadParticlesNeverRecord(t *testing.T) {
	st := NewState(1)
	ts := NewTrailState(1, 3)
	spawnOne(st, 0, 1.0, 1.0, Vec3{1, 1, 1})

	ts.Record(st, 2.5) // already dead
	for s := uint32(0); s < 3; s++ {
		if ts.Ring[s][3] != sim.DeadSpawnTime {
			t.Errorf("dead particle recorded at segment %d", s)
		}
	}
}
