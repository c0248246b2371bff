package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aiira-co/three-particles/gpu"
	"github.com/aiira-co/three-particles/shaders"
	"github.com/aiira-co/three-particles/sim"
)

const renderParamsSize = 128

// BillboardOptions configures the particle quad pipeline.
type BillboardOptions struct {
	Format      wgpu.TextureFormat // color target, usually the surface format
	DepthFormat wgpu.TextureFormat // zero renders without a depth attachment
	Blend       string             // alpha | additive
	FadeIn      float32            // fraction of lifetime
	FadeOut     float32
	SizeScale   float32
	UVRect      [4]float32 // atlas cell; zero value means the whole texture
}

// Billboard draws every particle as a camera-facing textured quad, pulling
// attributes straight from the store buffers. With an order buffer the
// instances walk the sorted indirection back to front; without one they draw
// in store order.
type Billboard struct {
	device *wgpu.Device
	store  *sim.Store

	pipeline  *wgpu.RenderPipeline
	paramsBuf *wgpu.Buffer
	group0    *wgpu.BindGroup
	group1    *wgpu.BindGroup

	order      *wgpu.Buffer
	ownedOrder *wgpu.Buffer
	sorted     bool

	opts BillboardOptions
}

func NewBillboard(device *wgpu.Device, store *sim.Store, order *wgpu.Buffer, tex *SpriteTexture, opts BillboardOptions) (*Billboard, error) {
	if opts.SizeScale == 0 {
		opts.SizeScale = 1
	}
	if opts.UVRect == ([4]float32{}) {
		opts.UVRect = [4]float32{0, 0, 1, 1}
	}

	b := &Billboard{
		device: device,
		store:  store,
		order:  order,
		sorted: order != nil,
		opts:   opts,
	}
	if b.order == nil {
		// The shader binds an order buffer unconditionally; give it one
		// element it will never read.
		dummy, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "BillboardOrderDummy",
			Size:  4,
			Usage: wgpu.BufferUsageStorage,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create order stub: %w", err)
		}
		b.ownedOrder = dummy
		b.order = dummy
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "BillboardShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.BillboardWGSL},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to create billboard shader module: %w", err)
	}
	defer module.Release()

	b.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "BillboardPipeline",
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
		b.Release()
		return nil, fmt.Errorf("failed to create billboard pipeline: %w", err)
	}

	b.paramsBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "BillboardParams",
		Size:  renderParamsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to create billboard params: %w", err)
	}

	b.group0, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "BillboardGroup0",
		Layout: b.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.paramsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: store.Position, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: store.SpawnTime, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: store.Lifetime, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: store.Size, Size: wgpu.WholeSize},
			{Binding: 5, Buffer: store.Color, Size: wgpu.WholeSize},
			{Binding: 6, Buffer: b.order, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to create billboard bind group 0: %w", err)
	}

	b.group1, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "BillboardGroup1",
		Layout: b.pipeline.GetBindGroupLayout(1),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: tex.View},
			{Binding: 1, Sampler: tex.Sampler},
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to create billboard bind group 1: %w", err)
	}

	return b, nil
}

// Draw encodes the particle quads into an open render pass.
func (b *Billboard) Draw(pass *wgpu.RenderPassEncoder, cam *Camera, aspect float32, t float64) {
	data := make([]byte, renderParamsSize)
	copy(data, gpu.Mat4ToBytes([16]float32(cam.ViewProj(aspect))))

	right := cam.Right()
	up := cam.Up()
	gpu.PutFloat32(data, 64, right.X())
	gpu.PutFloat32(data, 68, right.Y())
	gpu.PutFloat32(data, 72, right.Z())
	gpu.PutFloat32(data, 76, float32(t))
	gpu.PutFloat32(data, 80, up.X())
	gpu.PutFloat32(data, 84, up.Y())
	gpu.PutFloat32(data, 88, up.Z())
	if b.sorted {
		gpu.PutUint32(data, 92, 1)
	}
	gpu.PutFloat32(data, 96, b.opts.FadeIn)
	gpu.PutFloat32(data, 100, b.opts.FadeOut)
	gpu.PutFloat32(data, 104, b.opts.SizeScale)
	for i, v := range b.opts.UVRect {
		gpu.PutFloat32(data, 112+i*4, v)
	}
	b.device.GetQueue().WriteBuffer(b.paramsBuf, 0, data)

	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, b.group0, nil)
	pass.SetBindGroup(1, b.group1, nil)
	pass.Draw(6, b.store.Capacity, 0, 0)
}

func (b *Billboard) Release() {
	if b.group1 != nil {
		b.group1.Release()
		b.group1 = nil
	}
	if b.group0 != nil {
		b.group0.Release()
		b.group0 = nil
	}
	if b.paramsBuf != nil {
		b.paramsBuf.Release()
		b.paramsBuf = nil
	}
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.ownedOrder != nil {
		b.ownedOrder.Release()
		b.ownedOrder = nil
	}
}

// blendState maps the config blend mode: alpha composites, additive
// accumulates light and ignores destination alpha ordering.
func blendState(mode string) *wgpu.BlendState {
	if mode == "additive" {
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

// depthState tests against an existing depth buffer without writing it, so
// transparent particles never occlude each other. Zero format disables the
// attachment entirely.
func depthState(format wgpu.TextureFormat) *wgpu.DepthStencilState {
	if format == wgpu.TextureFormatUndefined {
		return nil
	}
	keep := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
	return &wgpu.DepthStencilState{
		Format:            format,
		DepthWriteEnabled: false,
		DepthCompare:      wgpu.CompareFunctionLess,
		StencilFront:      keep,
		StencilBack:       keep,
		StencilReadMask:   0xFFFFFFFF,
		StencilWriteMask:  0xFFFFFFFF,
	}
}
