package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aiira-co/three-particles/gpu"
	"github.com/aiira-co/three-particles/shaders"
	"github.com/aiira-co/three-particles/sim"
)

const ribbonParamsSize = 96

// RibbonOptions configures the trail ribbon pipeline.
type RibbonOptions struct {
	Format      wgpu.TextureFormat
	DepthFormat wgpu.TextureFormat
	Blend       string  // alpha | additive
	Width       float32 // world units at the head
	Fade        float32 // overall alpha multiplier
}

// Ribbon draws each particle's trail ring as a camera-perpendicular strip,
// one quad per recorded segment pair, tapering and fading toward the tail.
type Ribbon struct {
	device *wgpu.Device
	store  *sim.Store
	trail  *sim.Trail

	pipeline  *wgpu.RenderPipeline
	paramsBuf *wgpu.Buffer
	group     *wgpu.BindGroup

	opts RibbonOptions
}

func NewRibbon(device *wgpu.Device, store *sim.Store, trail *sim.Trail, opts RibbonOptions) (*Ribbon, error) {
	if opts.Width == 0 {
		opts.Width = 0.03
	}
	if opts.Fade == 0 {
		opts.Fade = 1
	}

	r := &Ribbon{
		device: device,
		store:  store,
		trail:  trail,
		opts:   opts,
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "RibbonShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.RibbonWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ribbon shader module: %w", err)
	}
	defer module.Release()

	r.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "RibbonPipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    opts.Format,
				Blend:     blendState(opts.Blend),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		DepthStencil: depthState(opts.DepthFormat),
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("failed to create ribbon pipeline: %w", err)
	}

	r.paramsBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "RibbonParams",
		Size:  ribbonParamsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("failed to create ribbon params: %w", err)
	}

	r.group, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "RibbonGroup",
		Layout: r.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.paramsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: store.SpawnTime, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: store.Lifetime, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: store.Color, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: trail.RingBuffer(), Size: wgpu.WholeSize},
			{Binding: 5, Buffer: trail.HeadsBuffer(), Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("failed to create ribbon bind group: %w", err)
	}

	return r, nil
}

// Draw encodes the ribbons into an open render pass.
func (r *Ribbon) Draw(pass *wgpu.RenderPassEncoder, cam *Camera, aspect float32, t float64) {
	data := make([]byte, ribbonParamsSize)
	copy(data, gpu.Mat4ToBytes([16]float32(cam.ViewProj(aspect))))

	pos := cam.Position()
	gpu.PutFloat32(data, 64, pos.X())
	gpu.PutFloat32(data, 68, pos.Y())
	gpu.PutFloat32(data, 72, pos.Z())
	gpu.PutFloat32(data, 76, float32(t))
	gpu.PutUint32(data, 80, r.store.Capacity)
	gpu.PutUint32(data, 84, r.trail.Segments)
	gpu.PutFloat32(data, 88, r.opts.Width)
	gpu.PutFloat32(data, 92, r.opts.Fade)
	r.device.GetQueue().WriteBuffer(r.paramsBuf, 0, data)

	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.group, nil)
	quads := r.trail.Segments - 1
	pass.Draw(quads*6, r.store.Capacity, 0, 0)
}

func (r *Ribbon) Release() {
	if r.group != nil {
		r.group.Release()
		r.group = nil
	}
	if r.paramsBuf != nil {
		r.paramsBuf.Release()
		r.paramsBuf = nil
	}
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
}
