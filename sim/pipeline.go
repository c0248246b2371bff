package sim

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aiira-co/three-particles/gpu"
)

// Logger is the subset of the engine logger the simulation layer needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Pipeline owns the simulate program and its bindings. The program is
// recompiled only when the provider set signature changes; a failed rebuild
// leaves the previous program running.
type Pipeline struct {
	bm    *gpu.BufferManager
	store *Store
	log   Logger

	pipeline *wgpu.ComputePipeline
	group0   *wgpu.BindGroup
	group1   *wgpu.BindGroup

	paramsBuf   *wgpu.Buffer
	uniformBufs []*wgpu.Buffer
	uniformSrcs []UniformSource

	sig      string
	rebuilds int
}

func NewPipeline(bm *gpu.BufferManager, store *Store, log Logger) *Pipeline {
	if log == nil {
		log = nopLogger{}
	}
	return &Pipeline{
		bm:        bm,
		store:     store,
		log:       log,
		paramsBuf: bm.CreateZeroed("SimParams", ParamsSize, wgpu.BufferUsageUniform),
	}
}

// Rebuilds reports how many times the program has been compiled.
func (pl *Pipeline) Rebuilds() int { return pl.rebuilds }

// Ready reports whether a program has been built at least once.
func (pl *Pipeline) Ready() bool { return pl.pipeline != nil }

// EnsureProgram compiles the simulate program for the given provider set if
// its signature differs from the current one. Returns whether a rebuild
// happened. On error the previous program, if any, stays installed.
func (pl *Pipeline) EnsureProgram(providers []Provider) (bool, error) {
	sig := Signature(providers)
	if pl.pipeline != nil && sig == pl.sig {
		return false, nil
	}

	code := GenerateSimulateWGSL(providers)
	module, err := pl.bm.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "ParticleSimulateShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return false, fmt.Errorf("failed to create simulate shader module: %w", err)
	}
	defer module.Release()

	pipe, err := pl.bm.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "ParticleSimulatePipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "simulate",
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to create simulate pipeline: %w", err)
	}

	srcs := UniformBindings(providers)
	bufs := make([]*wgpu.Buffer, len(srcs))
	for i, us := range srcs {
		bufs[i] = pl.bm.CreateZeroed("ProviderUniform_"+us.UniformName(), uint64(us.UniformSize()), wgpu.BufferUsageUniform)
	}

	s := pl.store
	group0, err := pl.bm.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "SimulateGroup0",
		Layout: pipe.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: pl.paramsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: s.Position, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: s.Velocity, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: s.SpawnTime, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: s.Lifetime, Size: wgpu.WholeSize},
			{Binding: 5, Buffer: s.Seed, Size: wgpu.WholeSize},
			{Binding: 6, Buffer: s.Size, Size: wgpu.WholeSize},
			{Binding: 7, Buffer: s.Color, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		pipe.Release()
		for _, b := range bufs {
			b.Release()
		}
		return false, fmt.Errorf("failed to create simulate bind group 0: %w", err)
	}

	var group1 *wgpu.BindGroup
	if len(srcs) > 0 {
		entries := make([]wgpu.BindGroupEntry, len(srcs))
		for i, b := range bufs {
			entries[i] = wgpu.BindGroupEntry{Binding: uint32(i), Buffer: b, Size: wgpu.WholeSize}
		}
		group1, err = pl.bm.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   "SimulateGroup1",
			Layout:  pipe.GetBindGroupLayout(1),
			Entries: entries,
		})
		if err != nil {
			group0.Release()
			pipe.Release()
			for _, b := range bufs {
				b.Release()
			}
			return false, fmt.Errorf("failed to create simulate bind group 1: %w", err)
		}
	}

	pl.releaseProgram()
	pl.pipeline = pipe
	pl.group0 = group0
	pl.group1 = group1
	pl.uniformBufs = bufs
	pl.uniformSrcs = srcs
	pl.sig = sig
	pl.rebuilds++
	pl.log.Debugf("simulate program built (%d providers, %d uniform blocks)", len(providers), len(srcs))
	return true, nil
}

// WriteUniforms packs the frame params and every provider uniform block.
// Queue writes land before any command buffer submitted afterwards, so this
// runs right before the pass is encoded.
func (pl *Pipeline) WriteUniforms(p *Params, t, dt float64) {
	queue := pl.bm.Device.GetQueue()
	queue.WriteBuffer(pl.paramsBuf, 0, p.Pack())
	for i, us := range pl.uniformSrcs {
		data := us.PackUniform(t, dt)
		if len(data) != us.UniformSize() {
			pl.log.Errorf("provider %q packed %d bytes, declared %d; skipping write", us.Name(), len(data), us.UniformSize())
			continue
		}
		queue.WriteBuffer(pl.uniformBufs[i], 0, data)
	}
}

// Encode adds the simulate dispatch to an open compute pass.
func (pl *Pipeline) Encode(pass *wgpu.ComputePassEncoder) {
	if pl.pipeline == nil {
		return
	}
	pass.SetPipeline(pl.pipeline)
	pass.SetBindGroup(0, pl.group0, nil)
	if pl.group1 != nil {
		pass.SetBindGroup(1, pl.group1, nil)
	}
	workgroups := (pl.store.Capacity + 63) / 64
	pass.DispatchWorkgroups(workgroups, 1, 1)
}

func (pl *Pipeline) releaseProgram() {
	if pl.group1 != nil {
		pl.group1.Release()
		pl.group1 = nil
	}
	if pl.group0 != nil {
		pl.group0.Release()
		pl.group0 = nil
	}
	if pl.pipeline != nil {
		pl.pipeline.Release()
		pl.pipeline = nil
	}
	for _, b := range pl.uniformBufs {
		b.Release()
	}
	pl.uniformBufs = nil
	pl.uniformSrcs = nil
}

func (pl *Pipeline) Release() {
	pl.releaseProgram()
	if pl.paramsBuf != nil {
		pl.paramsBuf.Release()
		pl.paramsBuf = nil
	}
	pl.sig = ""
}
