package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/acescore/render/driver"
)

// GPU implements driver.GPU against a real hal.Device/hal.Queue pair.
// Only the compute pipeline surface is wired with real dispatch logic
// (NewPipeline on a *driver.CompState): the render pipeline branch
// builds a minimal hal.RenderPipeline for completeness but SPEC_FULL.md's
// color pipeline never creates one.
type GPU struct {
	drv    *Driver
	device hal.Device
	queue  hal.Queue
}

func newGPU(d *Driver, device hal.Device, queue hal.Queue) *GPU {
	return &GPU{drv: d, device: device, queue: queue}
}

func (g *GPU) Driver() driver.Driver { return g.drv }

// Commit replays every recorded cmdBuffer against a fresh
// hal.CommandEncoder and submits the result on the real queue,
// matching sched.Executor.Run's contract of a single Commit call per
// frame across every node it dispatched into cb.
func (g *GPU) Commit(cbs []driver.CmdBuffer, ch chan<- error) {
	ch <- g.commit(cbs)
}

func (g *GPU) commit(cbs []driver.CmdBuffer) error {
	fence, err := g.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer g.device.DestroyFence(fence)

	halBufs := make([]hal.CommandBuffer, 0, len(cbs))
	for _, c := range cbs {
		cb, ok := c.(*cmdBuffer)
		if !ok {
			return fmt.Errorf("wgpu: command buffer %T not produced by this driver", c)
		}
		hb, err := cb.replay(g.device)
		if err != nil {
			return err
		}
		halBufs = append(halBufs, hb)
	}
	if len(halBufs) == 0 {
		return nil
	}

	if err := g.queue.Submit(halBufs, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := g.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait: %w", err)
	}
	if !ok {
		return fmt.Errorf("wgpu: fence timed out after %s", submitTimeout)
	}
	return nil
}

func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	return &cmdBuffer{gpu: g}, nil
}

func (g *GPU) NewRenderPass(att []driver.Attachment, sub []driver.Subpass) (driver.RenderPass, error) {
	return &renderPass{attachments: att, subpasses: sub}, nil
}

func (g *GPU) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	mod, err := g.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Source: hal.ShaderSource{WGSL: string(data)},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module: %w", err)
	}
	return &shaderCode{hal: mod, device: g.device}, nil
}

func (g *GPU) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	return newDescHeap(g.device, ds)
}

func (g *GPU) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	return newDescTable(g.device, dh)
}

func (g *GPU) NewPipeline(state any) (driver.Pipeline, error) {
	switch st := state.(type) {
	case *driver.CompState:
		return g.newComputePipeline(st)
	case *driver.GraphState:
		return g.newRenderPipeline(st)
	default:
		return nil, fmt.Errorf("wgpu: unsupported pipeline state %T", state)
	}
}

func (g *GPU) newComputePipeline(st *driver.CompState) (driver.Pipeline, error) {
	table, ok := st.Desc.(*descTable)
	if !ok {
		return nil, fmt.Errorf("wgpu: desc table %T not produced by this driver", st.Desc)
	}
	code, ok := st.Func.Code.(*shaderCode)
	if !ok {
		return nil, fmt.Errorf("wgpu: shader code %T not produced by this driver", st.Func.Code)
	}
	cp, err := g.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Layout: table.layout,
		Compute: hal.ComputeState{
			Module:     code.hal,
			EntryPoint: st.Func.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create compute pipeline: %w", err)
	}
	return &pipeline{device: g.device, compute: cp, table: table}, nil
}

// newRenderPipeline builds a minimal real hal.RenderPipeline. No
// rasterization state beyond the shader stages is threaded through:
// draw commands are unreachable in SPEC_FULL.md's compute-only color
// pipeline (see driver/refsw's matching doc comment), so this exists
// only so driver.GPU's interface contract is fully implemented.
func (g *GPU) newRenderPipeline(st *driver.GraphState) (driver.Pipeline, error) {
	table, ok := st.Desc.(*descTable)
	if !ok {
		return nil, fmt.Errorf("wgpu: desc table %T not produced by this driver", st.Desc)
	}
	vert, ok := st.VertFunc.Code.(*shaderCode)
	if !ok {
		return nil, fmt.Errorf("wgpu: vertex shader code %T not produced by this driver", st.VertFunc.Code)
	}
	frag, ok := st.FragFunc.Code.(*shaderCode)
	if !ok {
		return nil, fmt.Errorf("wgpu: fragment shader code %T not produced by this driver", st.FragFunc.Code)
	}
	rp, err := g.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Layout: table.layout,
		Vertex: hal.VertexState{Module: vert.hal, EntryPoint: st.VertFunc.Name},
		Fragment: &hal.FragmentState{
			Module:     frag.hal,
			EntryPoint: st.FragFunc.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create render pipeline: %w", err)
	}
	return &renderPipeline{device: g.device, hal: rp}, nil
}

func (g *GPU) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	hb, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Size:             uint64(size),
		Usage:            toBufferUsage(usg, visible),
		MappedAtCreation: visible,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create buffer: %w", err)
	}
	b := &buffer{hal: hb, device: g.device, size: size, visible: visible}
	if visible {
		b.shadow = make([]byte, size)
	}
	return b, nil
}

func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	dim := gputypes.TextureDimension2D
	if size.Depth > 1 {
		dim = gputypes.TextureDimension3D
	}
	ht, err := g.device.CreateTexture(&hal.TextureDescriptor{
		Size: hal.Extent3D{
			Width:              uint32(size.Width),
			Height:             uint32(size.Height),
			DepthOrArrayLayers: uint32(maxInt(size.Depth, layers)),
		},
		MipLevelCount: uint32(maxInt(levels, 1)),
		SampleCount:   uint32(maxInt(samples, 1)),
		Dimension:     dim,
		Format:        toTextureFormat(pf),
		Usage:         toTextureUsage(usg),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture: %w", err)
	}
	return &image{hal: ht, device: g.device, format: pf, width: size.Width, height: size.Height}, nil
}

func (g *GPU) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	s, err := g.device.CreateSampler(&hal.SamplerDescriptor{
		AddressModeU: toAddressMode(spln.AddrU),
		AddressModeV: toAddressMode(spln.AddrV),
		AddressModeW: toAddressMode(spln.AddrW),
		MagFilter:    toFilterMode(spln.Mag),
		MinFilter:    toFilterMode(spln.Min),
		MipmapFilter: toMipmapFilterMode(spln.Mipmap),
		LodMinClamp:  spln.MinLOD,
		LodMaxClamp:  spln.MaxLOD,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler: %w", err)
	}
	return &sampler{hal: s, device: g.device}, nil
}

// Limits returns fixed values; it does not query the adapter's own
// limits (pipeline/heap/dispatch counts are this driver's own
// bookkeeping, not a hal-reported limit).
func (g *GPU) Limits() driver.Limits {
	return driver.Limits{
		MaxImage1D:   16384,
		MaxImage2D:   16384,
		MaxImageCube: 16384,
		MaxImage3D:   2048,
		MaxLayers:    2048,

		MaxDescHeaps: 8,
		MaxDBuffer:   64,
		MaxDImage:    64,
		MaxDConstant: 64,
		MaxDTexture:  64,
		MaxDSampler:  64,

		MaxColorTargets: 8,
		MaxFBSize:       [2]int{16384, 16384},
		MaxFBLayers:     2048,
		MaxPointSize:    64,
		MaxViewports:    16,

		MaxVertexIn:   32,
		MaxFragmentIn: 32,

		MaxDispatch: [3]int{65535, 65535, 65535},
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type renderPipeline struct {
	device hal.Device
	hal    hal.RenderPipeline
}

func (p *renderPipeline) Destroy() { p.device.DestroyRenderPipeline(p.hal) }
