package particles

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/aiira-co/three-particles/gpu"
	"github.com/aiira-co/three-particles/sim"
)

// PlayState is the lifecycle state of a System.
type PlayState int

const (
	StateStopped PlayState = iota
	StatePlaying
	StatePaused
)

func (s PlayState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	}
	return fmt.Sprintf("PlayState(%d)", int(s))
}

// spawnEvent is one frame's worth of spawns, kept host-side so Stats can
// estimate the live count without a GPU readback.
type spawnEvent struct {
	t        float64
	n        uint32
	min, max float32
}

// System is one particle emitter: a fixed-capacity GPU store, the generated
// simulate program, and optional depth sorter and trail recorder. All state
// lives on the GPU; the host never reads it back.
//
// A System is not safe for concurrent use. Drive it from one goroutine and
// funnel remote tuning through that goroutine (see tuning.Server).
type System struct {
	cfg   *Config
	ctx   *gpu.Context
	bm    *gpu.BufferManager
	log   Logger
	clock *Clock

	store    *sim.Store
	pipeline *sim.Pipeline
	sorter   *sim.Sorter
	trail    *sim.Trail

	shape  EmitterShape
	camPos mgl32.Vec3

	state       PlayState
	providers   []Provider
	spawnOffset uint32
	spawnAcc    float64
	burst       int

	// A provider set that failed to compile is remembered so the frame loop
	// does not retry an identical compile every frame.
	failedSig string
	failedErr error

	spawnLog []spawnEvent
	frames   uint64
}

// NewSystem builds a system on a shared GPU context. A nil cfg means the
// embedded defaults; a nil log discards. The zero-provider program is
// compiled eagerly so template errors surface here, not mid-run.
func NewSystem(ctx *gpu.Context, cfg *Config, log Logger) (*System, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = NewNopLogger()
	}
	shape, err := cfg.Shape()
	if err != nil {
		return nil, err
	}

	own := *cfg
	s := &System{
		cfg:   &own,
		ctx:   ctx,
		bm:    gpu.NewBufferManager(ctx.Device),
		log:   log,
		clock: NewClock(),
		shape: shape,
		state: StateStopped,
	}
	s.clock.Scale = own.Clock.TimeScale
	s.clock.MaxDt = own.Clock.MaxDt

	s.store = sim.NewStore(s.bm, uint32(own.Capacity))
	s.pipeline = sim.NewPipeline(s.bm, s.store, log)

	if own.Render.Sorted {
		if s.sorter, err = sim.NewSorter(s.bm, s.store); err != nil {
			s.Release()
			return nil, err
		}
	}
	if own.Trail.Enabled {
		if s.trail, err = sim.NewTrail(s.bm, s.store, uint32(own.Trail.Segments), own.Trail.Interval); err != nil {
			s.Release()
			return nil, err
		}
	}

	if _, err := s.pipeline.EnsureProgram(nil); err != nil {
		s.Release()
		return nil, fmt.Errorf("building zero-provider program: %w", err)
	}
	return s, nil
}

// State returns the current lifecycle state.
func (s *System) State() PlayState { return s.state }

// Play starts a stopped system from a clean slate, or resumes a paused one
// without losing particles. Playing is a no-op.
func (s *System) Play() {
	switch s.state {
	case StateStopped:
		s.reset()
		s.state = StatePlaying
	case StatePaused:
		// The pause gap must not integrate; rebase so the next Tick is dt=0.
		s.clock.Rebase()
		s.state = StatePlaying
	}
}

// Pause freezes simulation time. Particles hold their positions; a renderer
// keeps drawing the frozen frame.
func (s *System) Pause() {
	if s.state == StatePlaying {
		s.state = StatePaused
	}
}

// Stop kills every particle and rewinds time. Stopping a stopped system is a
// no-op.
func (s *System) Stop() {
	if s.state == StateStopped {
		return
	}
	s.reset()
	s.state = StateStopped
}

func (s *System) reset() {
	if !s.ctx.Lost() {
		s.store.Clear(s.ctx.Queue)
		if s.trail != nil {
			s.trail.Clear(s.ctx.Queue)
		}
	}
	s.clock.Reset()
	s.spawnOffset = 0
	s.spawnAcc = 0
	s.burst = 0
	s.spawnLog = s.spawnLog[:0]
	s.frames = 0
}

// Frame advances the system by the wall time elapsed since the last Frame,
// scaled and clamped per the clock config, and submits one frame of GPU
// work. While stopped or paused it does nothing.
//
// A provider-set rebuild failure is returned, but the frame still runs on
// the previous program; the error clears once the offending provider is
// removed or replaced.
func (s *System) Frame() error {
	if s.state != StatePlaying {
		return nil
	}
	return s.update(s.clock.Tick())
}

// Update advances the system by an explicit dt. For fixed-step hosts;
// otherwise identical to Frame.
func (s *System) Update(dt float64) error {
	if s.state != StatePlaying {
		return nil
	}
	return s.update(s.clock.Advance(dt))
}

// Step advances exactly one frame while paused, a debugging affordance.
func (s *System) Step(dt float64) error {
	switch s.state {
	case StatePaused:
		return s.update(s.clock.Advance(dt))
	case StateStopped:
		return ErrStopped
	default:
		return fmt.Errorf("step requires a paused system, state is %s", s.state)
	}
}

func (s *System) update(dt float64) error {
	if s.ctx.Lost() {
		// Device is gone. Keep the host state machine alive and skip GPU
		// work; the owner decides when to tear down.
		return nil
	}

	now := s.clock.Now

	s.spawnAcc += s.cfg.EmissionRate * dt
	want := math.Floor(s.spawnAcc)
	s.spawnAcc -= want
	want += float64(s.burst)
	s.burst = 0
	if want > float64(s.store.Capacity) {
		s.log.Warnf("spawning %.0f particles exceeds capacity %d, clamping", want, s.store.Capacity)
		want = float64(s.store.Capacity)
	}
	spawnCount := uint32(want)

	for _, p := range s.providers {
		if hu, ok := p.(HostUpdater); ok {
			hu.HostUpdate(now, dt)
		}
	}

	var rebuildErr error
	sig := sim.Signature(s.providers)
	if s.failedSig != "" && sig == s.failedSig {
		rebuildErr = s.failedErr
	} else if _, err := s.pipeline.EnsureProgram(s.providers); err != nil {
		s.failedSig, s.failedErr = sig, err
		s.log.Errorf("simulate program rebuild failed: %v", err)
		rebuildErr = err
	} else {
		s.failedSig, s.failedErr = "", nil
	}
	if !s.pipeline.Ready() {
		return rebuildErr
	}

	params := s.frameParams(dt, now, spawnCount)
	s.pipeline.WriteUniforms(params, now, dt)

	encoder, err := s.ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create frame encoder: %w", err)
	}

	pass := encoder.BeginComputePass(nil)
	s.pipeline.Encode(pass)
	if s.trail != nil && s.trail.ShouldRecord(dt) {
		s.trail.Encode(pass, now)
	}
	if s.sorter != nil {
		s.sorter.Encode(pass, [3]float32{s.camPos.X(), s.camPos.Y(), s.camPos.Z()}, now)
	}
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish frame encoder: %w", err)
	}
	s.ctx.Queue.Submit(cmd)

	if spawnCount > 0 {
		s.spawnOffset = (s.spawnOffset + spawnCount) % s.store.Capacity
		s.recordSpawn(now, spawnCount)
	}
	s.frames++
	return rebuildErr
}

func (s *System) frameParams(dt, now float64, spawnCount uint32) *sim.Params {
	c := s.cfg
	return &sim.Params{
		Dt:          float32(dt),
		Time:        float32(now),
		Capacity:    s.store.Capacity,
		SpawnOffset: s.spawnOffset,
		SpawnCount:  spawnCount,
		TimeKey:     sim.TimeKey(now),
		Drag:        c.Drag,
		ShapeKind:   s.shape.shapeKind(),

		Gravity:       c.Gravity,
		LifetimeMin:   c.Lifetime.Min,
		LifetimeMax:   c.Lifetime.Max,
		SpeedMin:      c.Speed.Min,
		SpeedMax:      c.Speed.Max,
		SizeMin:       c.Size.Min,
		SizeMax:       c.Size.Max,
		EmitterOrigin: c.Emitter.Origin,
		EmitterAxis:   c.Emitter.Axis,
		ConeAngle:     c.ConeAngle(),
		ShapeParams:   s.shape.shapeParams(),
		ColorMin:      c.Color.Min,
		ColorMax:      c.Color.Max,
	}
}

// RegisterProvider adds a provider to the simulate program. The program is
// rebuilt lazily before the next dispatch; registering a set identical to
// the current one never recompiles.
func (s *System) RegisterProvider(p Provider) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("%w: provider name must not be empty", ErrInvalidConfig)
	}
	for _, q := range s.providers {
		if q.Name() == name {
			return fmt.Errorf("%w: %q", ErrProviderRegistered, name)
		}
	}
	if us, ok := p.(UniformSource); ok {
		un := us.UniformName()
		if !isWGSLIdent(un) || un == "params" {
			return fmt.Errorf("%w: uniform name %q is not usable", ErrProviderConflict, un)
		}
		for _, q := range s.providers {
			if qs, ok := q.(UniformSource); ok && qs.UniformName() == un {
				return fmt.Errorf("%w: uniform %q claimed by %q and %q", ErrProviderConflict, un, q.Name(), name)
			}
		}
	}
	s.providers = append(s.providers, p)
	return nil
}

// RemoveProvider drops a provider by name, reporting whether it was found.
func (s *System) RemoveProvider(name string) bool {
	for i, p := range s.providers {
		if p.Name() == name {
			s.providers = append(s.providers[:i], s.providers[i+1:]...)
			return true
		}
	}
	return false
}

// ProviderNames lists registered providers in registration order.
func (s *System) ProviderNames() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

// Burst queues n extra spawns for the next frame, on top of the continuous
// emission rate. The per-frame total is still clamped to capacity.
func (s *System) Burst(n int) {
	if n > 0 {
		s.burst += n
	}
}

// SetEmissionRate changes the continuous spawn rate, particles per second.
// Negative rates clamp to zero.
func (s *System) SetEmissionRate(rate float64) {
	if rate < 0 {
		s.log.Warnf("emission rate %g clamped to 0", rate)
		rate = 0
	}
	s.cfg.EmissionRate = rate
}

// SetGravity changes the base acceleration applied to every particle.
func (s *System) SetGravity(g mgl32.Vec3) {
	s.cfg.Gravity = [3]float32{g.X(), g.Y(), g.Z()}
}

// SetDrag changes the velocity damping coefficient, 1/s. Negative drag
// clamps to zero.
func (s *System) SetDrag(drag float32) {
	if drag < 0 {
		s.log.Warnf("drag %g clamped to 0", drag)
		drag = 0
	}
	s.cfg.Drag = drag
}

// SetShape swaps the emitter shape. Takes effect for the next frame's
// newborns; nil restores a point emitter.
func (s *System) SetShape(shape EmitterShape) {
	if shape == nil {
		shape = PointShape{}
	}
	s.shape = shape
}

// SetEmitterOrigin moves the emitter.
func (s *System) SetEmitterOrigin(origin mgl32.Vec3) {
	s.cfg.Emitter.Origin = [3]float32{origin.X(), origin.Y(), origin.Z()}
}

// SetEmitterAxis re-aims the emitter. A zero axis is ignored.
func (s *System) SetEmitterAxis(axis mgl32.Vec3) {
	if axis.Len() < 1e-6 {
		s.log.Warnf("emitter axis near zero, keeping previous")
		return
	}
	s.cfg.Emitter.Axis = [3]float32{axis.X(), axis.Y(), axis.Z()}
}

// SetCamera updates the camera position used for depth-sort keys. Harmless
// on an unsorted system.
func (s *System) SetCamera(pos mgl32.Vec3) { s.camPos = pos }

// Config returns a copy of the current configuration.
func (s *System) Config() Config { return *s.cfg }

// Time returns the current simulation time in seconds.
func (s *System) Time() float64 { return s.clock.Now }

// Store exposes the attribute buffers for renderers.
func (s *System) Store() *sim.Store { return s.store }

// OrderBuffer is the sorted draw-order indirection, nil when sorting is off.
func (s *System) OrderBuffer() *wgpu.Buffer {
	if s.sorter == nil {
		return nil
	}
	return s.sorter.OrderBuffer()
}

// TrailData exposes the trail ring for ribbon rendering, nil when trails are
// off.
func (s *System) TrailData() *sim.Trail { return s.trail }

func (s *System) recordSpawn(now float64, n uint32) {
	s.spawnLog = append(s.spawnLog, spawnEvent{
		t:   now,
		n:   n,
		min: s.cfg.Lifetime.Min,
		max: s.cfg.Lifetime.Max,
	})
	// Prune events no particle can survive.
	cut := 0
	for cut < len(s.spawnLog) && now-s.spawnLog[cut].t >= float64(s.spawnLog[cut].max) {
		cut++
	}
	if cut > 0 {
		s.spawnLog = append(s.spawnLog[:0], s.spawnLog[cut:]...)
	}
}

// AliveEstimate approximates the live particle count from the host-side
// spawn history: lifetimes are uniform in [min, max], so a cohort of age a
// retains everyone below min, nobody past max, linear in between. Ring
// recycling makes this an upper bound; it is clamped to capacity.
func (s *System) AliveEstimate() int {
	now := s.clock.Now
	est := 0.0
	for _, e := range s.spawnLog {
		age := now - e.t
		if age < 0 {
			continue
		}
		switch {
		case age < float64(e.min):
			est += float64(e.n)
		case age < float64(e.max):
			frac := (float64(e.max) - age) / float64(e.max-e.min)
			est += float64(e.n) * frac
		}
	}
	if est > float64(s.store.Capacity) {
		est = float64(s.store.Capacity)
	}
	return int(est + 0.5)
}

// Stats is a point-in-time snapshot of the system.
type Stats struct {
	State         PlayState
	Time          float64
	Frames        uint64
	Capacity      int
	AliveEstimate int
	Rebuilds      int
	SortPasses    int
	TrailSegments int
}

func (s *System) Stats() Stats {
	st := Stats{
		State:         s.state,
		Time:          s.clock.Now,
		Frames:        s.frames,
		Capacity:      int(s.store.Capacity),
		AliveEstimate: s.AliveEstimate(),
		Rebuilds:      s.pipeline.Rebuilds(),
	}
	if s.sorter != nil {
		st.SortPasses = s.sorter.PassCount()
	}
	if s.trail != nil {
		st.TrailSegments = int(s.trail.Segments)
	}
	return st
}

// Release frees every GPU object the system owns. The system is unusable
// afterwards.
func (s *System) Release() {
	if s.trail != nil {
		s.trail.Release()
		s.trail = nil
	}
	if s.sorter != nil {
		s.sorter.Release()
		s.sorter = nil
	}
	if s.pipeline != nil {
		s.pipeline.Release()
		s.pipeline = nil
	}
	if s.store != nil {
		s.store.Release()
		s.store = nil
	}
}

func isWGSLIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
