package sim

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aiira-co/three-particles/gpu"
	"github.com/aiira-co/three-particles/shaders"
)

// SortPass is one step of the bitonic network: outer block size k, compare
// distance j.
type SortPass struct {
	K uint32
	J uint32
}

// BitonicPlan returns the full pass sequence for a padded (power of two)
// element count: log2(p)*(log2(p)+1)/2 passes, empty for p <= 1.
func BitonicPlan(padded uint32) []SortPass {
	var plan []SortPass
	for k := uint32(2); k <= padded && k != 0; k <<= 1 {
		for j := k >> 1; j > 0; j >>= 1 {
			plan = append(plan, SortPass{K: k, J: j})
		}
	}
	return plan
}

// NextPow2 rounds n up to the next power of two; 0 maps to 1.
func NextPow2(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}

const sortParamsSize = 32

// Sorter orders particle indices back-to-front by camera distance with an
// in-place bitonic network, all on the GPU. The plan, its per-pass uniforms,
// and the pass bind groups are fixed at construction; per frame only the
// camera uniform is rewritten and the dispatches encoded.
type Sorter struct {
	bm    *gpu.BufferManager
	store *Store

	padded uint32
	plan   []SortPass

	keys      *wgpu.Buffer
	order     *wgpu.Buffer
	paramsBuf *wgpu.Buffer
	passBufs  []*wgpu.Buffer

	initPipeline *wgpu.ComputePipeline
	passPipeline *wgpu.ComputePipeline
	initGroup    *wgpu.BindGroup
	passGroup0   *wgpu.BindGroup
	passGroups1  []*wgpu.BindGroup
}

func NewSorter(bm *gpu.BufferManager, store *Store) (*Sorter, error) {
	padded := NextPow2(store.Capacity)
	s := &Sorter{
		bm:     bm,
		store:  store,
		padded: padded,
		plan:   BitonicPlan(padded),
	}

	s.keys = bm.CreateZeroed("SortKeys", uint64(padded)*4, wgpu.BufferUsageStorage)
	s.order = bm.CreateZeroed("SortOrder", uint64(padded)*4, wgpu.BufferUsageStorage)
	s.paramsBuf = bm.CreateZeroed("SortParams", sortParamsSize, wgpu.BufferUsageUniform)

	initModule, err := bm.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "SortInitShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.SortInitWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sort init shader module: %w", err)
	}
	defer initModule.Release()

	s.initPipeline, err = bm.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "SortInitPipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     initModule,
			EntryPoint: "init_keys",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sort init pipeline: %w", err)
	}

	passModule, err := bm.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "SortPassShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.SortPassWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sort pass shader module: %w", err)
	}
	defer passModule.Release()

	s.passPipeline, err = bm.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "SortPassPipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     passModule,
			EntryPoint: "sort_step",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sort pass pipeline: %w", err)
	}

	s.initGroup, err = bm.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "SortInitGroup",
		Layout: s.initPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: s.paramsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: s.keys, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: s.order, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: store.Position, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: store.SpawnTime, Size: wgpu.WholeSize},
			{Binding: 5, Buffer: store.Lifetime, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sort init bind group: %w", err)
	}

	s.passGroup0, err = bm.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "SortPassGroup0",
		Layout: s.passPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: s.keys, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: s.order, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sort pass bind group: %w", err)
	}

	// Pass uniforms never change for a fixed capacity; write them once and
	// cache one bind group per pass.
	s.passBufs = make([]*wgpu.Buffer, len(s.plan))
	s.passGroups1 = make([]*wgpu.BindGroup, len(s.plan))
	queue := bm.Device.GetQueue()
	for i, p := range s.plan {
		data := make([]byte, 16)
		gpu.PutUint32(data, 0, p.K)
		gpu.PutUint32(data, 4, p.J)
		gpu.PutUint32(data, 8, s.padded)
		s.passBufs[i] = bm.CreateZeroed(fmt.Sprintf("SortPassParams_%d", i), 16, wgpu.BufferUsageUniform)
		queue.WriteBuffer(s.passBufs[i], 0, data)

		s.passGroups1[i], err = bm.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: s.passPipeline.GetBindGroupLayout(1),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: s.passBufs[i], Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create sort pass bind group %d: %w", i, err)
		}
	}

	return s, nil
}

// OrderBuffer is the sorted index indirection consumed by the renderer.
// Entries [0, capacity) are particle indices, back-to-front; dead and
// padding indices occupy the tail.
func (s *Sorter) OrderBuffer() *wgpu.Buffer { return s.order }

func (s *Sorter) PassCount() int { return len(s.plan) }

func (s *Sorter) PaddedCapacity() uint32 { return s.padded }

// Encode writes the camera uniform and adds key init plus every network pass
// to an open compute pass. Dispatches in a pass are ordered, so no
// intermediate submits are needed.
func (s *Sorter) Encode(pass *wgpu.ComputePassEncoder, camPos [3]float32, t float64) {
	data := make([]byte, sortParamsSize)
	gpu.PutFloat32(data, 0, camPos[0])
	gpu.PutFloat32(data, 4, camPos[1])
	gpu.PutFloat32(data, 8, camPos[2])
	gpu.PutFloat32(data, 12, float32(t))
	gpu.PutUint32(data, 16, s.store.Capacity)
	gpu.PutUint32(data, 20, s.padded)
	s.bm.Device.GetQueue().WriteBuffer(s.paramsBuf, 0, data)

	workgroups := (s.padded + 63) / 64

	pass.SetPipeline(s.initPipeline)
	pass.SetBindGroup(0, s.initGroup, nil)
	pass.DispatchWorkgroups(workgroups, 1, 1)

	pass.SetPipeline(s.passPipeline)
	pass.SetBindGroup(0, s.passGroup0, nil)
	for i := range s.plan {
		pass.SetBindGroup(1, s.passGroups1[i], nil)
		pass.DispatchWorkgroups(workgroups, 1, 1)
	}
}

func (s *Sorter) Release() {
	for _, g := range s.passGroups1 {
		if g != nil {
			g.Release()
		}
	}
	if s.passGroup0 != nil {
		s.passGroup0.Release()
	}
	if s.initGroup != nil {
		s.initGroup.Release()
	}
	if s.passPipeline != nil {
		s.passPipeline.Release()
	}
	if s.initPipeline != nil {
		s.initPipeline.Release()
	}
	for _, b := range s.passBufs {
		if b != nil {
			b.Release()
		}
	}
	if s.paramsBuf != nil {
		s.paramsBuf.Release()
	}
	if s.order != nil {
		s.order.Release()
	}
	if s.keys != nil {
		s.keys.Release()
	}
}
