package sim

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aiira-co/three-particles/gpu"
	"github.com/aiira-co/three-particles/shaders"
)

const trailParamsSize = 16

// Trail keeps a GPU ring of past positions per particle: segments slots of
// vec4 (xyz position, w record time), slot s of particle i at s*capacity+i.
// Recording runs at a fixed interval driven by a host accumulator, not every
// frame.
type Trail struct {
	bm    *gpu.BufferManager
	store *Store

	Segments uint32
	Interval float64

	ring      *wgpu.Buffer
	heads     *wgpu.Buffer
	paramsBuf *wgpu.Buffer
	pipeline  *wgpu.ComputePipeline
	group     *wgpu.BindGroup

	acc float64
}

func NewTrail(bm *gpu.BufferManager, store *Store, segments uint32, interval float64) (*Trail, error) {
	if segments < 2 {
		return nil, fmt.Errorf("trail segments must be >= 2, got %d", segments)
	}
	t := &Trail{
		bm:       bm,
		store:    store,
		Segments: segments,
		Interval: interval,
	}
	n := uint64(store.Capacity)
	t.ring = bm.CreateZeroed("TrailRing", n*uint64(segments)*16, wgpu.BufferUsageStorage)
	t.heads = bm.CreateZeroed("TrailHeads", n*4, wgpu.BufferUsageStorage)
	t.paramsBuf = bm.CreateZeroed("TrailParams", trailParamsSize, wgpu.BufferUsageUniform)

	module, err := bm.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "TrailRecordShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TrailWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trail shader module: %w", err)
	}
	defer module.Release()

	t.pipeline, err = bm.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "TrailRecordPipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "record",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trail pipeline: %w", err)
	}

	t.group, err = bm.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "TrailRecordGroup",
		Layout: t.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: t.paramsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: store.Position, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: store.SpawnTime, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: store.Lifetime, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: t.ring, Size: wgpu.WholeSize},
			{Binding: 5, Buffer: t.heads, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trail bind group: %w", err)
	}

	t.Clear(bm.Device.GetQueue())
	return t, nil
}

// Clear invalidates every ring slot (record time older than any possible
// spawn) and rewinds the heads and the interval accumulator.
func (t *Trail) Clear(queue *wgpu.Queue) {
	n := int(t.store.Capacity) * int(t.Segments)
	ring := make([]float32, n*4)
	for i := 0; i < n; i++ {
		ring[i*4+3] = DeadSpawnTime
	}
	queue.WriteBuffer(t.ring, 0, gpu.Float32SliceToBytes(ring))
	queue.WriteBuffer(t.heads, 0, make([]byte, t.store.Capacity*4))
	t.acc = 0
}

// ShouldRecord advances the interval accumulator and reports whether this
// frame records. A frame longer than several intervals still records once;
// the ring has no notion of catch-up.
func (t *Trail) ShouldRecord(dt float64) bool {
	t.acc += dt
	if t.acc < t.Interval {
		return false
	}
	t.acc -= t.Interval
	if t.acc > t.Interval {
		t.acc = 0
	}
	return true
}

// Encode writes the frame uniform and adds the record dispatch to an open
// compute pass.
func (t *Trail) Encode(pass *wgpu.ComputePassEncoder, now float64) {
	data := make([]byte, trailParamsSize)
	gpu.PutFloat32(data, 0, float32(now))
	gpu.PutUint32(data, 4, t.store.Capacity)
	gpu.PutUint32(data, 8, t.Segments)
	t.bm.Device.GetQueue().WriteBuffer(t.paramsBuf, 0, data)

	pass.SetPipeline(t.pipeline)
	pass.SetBindGroup(0, t.group, nil)
	workgroups := (t.store.Capacity + 63) / 64
	pass.DispatchWorkgroups(workgroups, 1, 1)
}

// RingBuffer exposes the position ring for the ribbon renderer.
func (t *Trail) RingBuffer() *wgpu.Buffer { return t.ring }

// HeadsBuffer exposes the per-particle head indices for the ribbon renderer.
func (t *Trail) HeadsBuffer() *wgpu.Buffer { return t.heads }

func (t *Trail) Release() {
	if t.group != nil {
		t.group.Release()
	}
	if t.pipeline != nil {
		t.pipeline.Release()
	}
	if t.paramsBuf != nil {
		t.paramsBuf.Release()
	}
	if t.heads != nil {
		t.heads.Release()
	}
	if t.ring != nil {
		t.ring.Release()
	}
}
