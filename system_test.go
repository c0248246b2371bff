package particles

import (
	"testing"

	"github.com/aiira-co/three-particles/sim"
)

// estimator builds just enough of a System to drive the spawn log. The GPU
// paths stay untouched.
func estimator(capacity uint32, lifeMin, lifeMax float32) *System {
	cfg := DefaultConfig()
	cfg.Lifetime = Range{Min: lifeMin, Max: lifeMax}
	return &System{
		cfg:   cfg,
		clock: NewClock(),
		store: &sim.Store{Capacity: capacity},
	}
}

func TestAliveEstimateCohortDecay(t *testing.T) {
	s := estimator(10000, 1, 2)
	s.recordSpawn(0, 100)

	cases := []struct {
		now  float64
		want int
	}{
		{0.0, 100},  // just born
		{0.5, 100},  // still under min lifetime
		{1.0, 100},  // at min, decay starts
		{1.5, 50},   // halfway through [min, max]
		{1.75, 25},  // three quarters
		{2.0, 0},    // past max
		{10.0, 0},
	}
	for _, tc := range cases {
		s.clock.Now = tc.now
		if got := s.AliveEstimate(); got != tc.want {
			t.Errorf("estimate at t=%v = %d, want %d", tc.now, got, tc.want)
		}
	}
}

func TestAliveEstimateSumsCohorts(t *testing.T) {
	s := estimator(10000, 2, 2.0001)
	s.recordSpawn(0, 50)
	s.recordSpawn(1, 70)

	s.clock.Now = 1.5
	if got := s.AliveEstimate(); got != 120 {
		t.Errorf("estimate = %d, want 120", got)
	}
}

func TestAliveEstimateClampsToCapacity(t *testing.T) {
	s := estimator(64, 5, 6)
	s.recordSpawn(0, 1000)
	s.clock.Now = 1
	if got := s.AliveEstimate(); got != 64 {
		t.Errorf("estimate = %d, want capacity 64", got)
	}
}

func TestRecordSpawnPrunesDeadCohorts(t *testing.T) {
	s := estimator(10000, 1, 2)
	s.recordSpawn(0, 10)
	s.recordSpawn(0.5, 10)
	if len(s.spawnLog) != 2 {
		t.Fatalf("log len = %d", len(s.spawnLog))
	}

	// By t=3 the first two cohorts are fully dead and must drop out.
	s.recordSpawn(3, 10)
	if len(s.spawnLog) != 1 {
		t.Errorf("log len after prune = %d, want 1", len(s.spawnLog))
	}
	if s.spawnLog[0].t != 3 {
		t.Errorf("surviving event t = %v", s.spawnLog[0].t)
	}
}

func TestPlayStateString(t *testing.T) {
	cases := map[PlayState]string{
		StateStopped:  "stopped",
		StatePlaying:  "playing",
		StatePaused:   "paused",
		PlayState(42): "PlayState(42)",
	}
	for st, want := range cases {
		if got := st.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(st), got, want)
		}
	}
}

func TestWGSLIdent(t *testing.T) {
	valid := []string{"wind", "floor_plane", "_x", "a1", "Camel"}
	for _, s := range valid {
		if !isWGSLIdent(s) {
			t.Errorf("%q rejected", s)
		}
	}
	invalid := []string{"", "1st", "has space", "dash-name", "dot.name", "ünicode"}
	for _, s := range invalid {
		if isWGSLIdent(s) {
			t.Errorf("%q accepted", s)
		}
	}
}
