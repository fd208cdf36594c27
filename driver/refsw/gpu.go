package refsw

import "github.com/acescore/render/driver"

// GPU is the CPU reference driver.GPU implementation. Only the calls
// the scheduler and texture pool actually issue (NewImage, NewCmdBuffer,
// Commit) do real work; the rest of the driver.GPU surface (render
// passes, buffers, samplers, descriptor heaps) exists only so GPU
// satisfies the interface and returns harmless stand-ins, since
// SPEC_FULL.md's compute-only color pipeline never exercises them.
type GPU struct {
	drv *Driver
}

func newGPU(d *Driver) *GPU { return &GPU{drv: d} }

func (g *GPU) Driver() driver.Driver { return g.drv }

// Commit runs every command buffer's recorded Begin/End lifecycle
// synchronously (the actual kernel work already ran inline, during
// sched.Executor.Run's call to Exec.Execute) and reports success.
func (g *GPU) Commit(cb []driver.CmdBuffer, ch chan<- error) {
	ch <- nil
}

func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) { return &cmdBuffer{}, nil }

func (g *GPU) NewRenderPass(att []driver.Attachment, sub []driver.Subpass) (driver.RenderPass, error) {
	return &renderPass{}, nil
}

func (g *GPU) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	return &shaderCode{}, nil
}

func (g *GPU) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	return &descHeap{}, nil
}

func (g *GPU) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	return &descTable{}, nil
}

func (g *GPU) NewPipeline(state any) (driver.Pipeline, error) { return &pipeline{}, nil }

func (g *GPU) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	return &buffer{size: size, visible: visible, data: make([]byte, size)}, nil
}

func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	return newImage(pf, size.Width, size.Height), nil
}

func (g *GPU) NewSampler(spln *driver.Sampling) (driver.Sampler, error) { return &sampler{}, nil }

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

// renderPass, shaderCode, descHeap, descTable, pipeline, buffer and
// sampler are inert stand-ins: nothing in SPEC_FULL.md's compute-only
// color pipeline reads their state back, so they carry none.
type renderPass struct{}

func (r *renderPass) Destroy() {}
func (r *renderPass) NewFB(iv []driver.ImageView, width, height, layers int) (driver.Framebuf, error) {
	return &framebuf{}, nil
}

type framebuf struct{}

func (f *framebuf) Destroy() {}

type shaderCode struct{}

func (s *shaderCode) Destroy() {}

type descHeap struct{ n int }

func (d *descHeap) Destroy() {}
func (d *descHeap) New(n int) error {
	d.n = n
	return nil
}
func (d *descHeap) SetBuffer(cpy, nr, start int, buf []driver.Buffer, off, size []int64) {}
func (d *descHeap) SetImage(cpy, nr, start int, iv []driver.ImageView)                   {}
func (d *descHeap) SetSampler(cpy, nr, start int, splr []driver.Sampler)                 {}
func (d *descHeap) Count() int                                                           { return d.n }

type descTable struct{}

func (d *descTable) Destroy() {}

type pipeline struct{}

func (p *pipeline) Destroy() {}

type buffer struct {
	size    int64
	visible bool
	data    []byte
}

func (b *buffer) Destroy()        {}
func (b *buffer) Visible() bool   { return b.visible }
func (b *buffer) Cap() int64      { return b.size }
func (b *buffer) Bytes() []byte {
	if !b.visible {
		return nil
	}
	return b.data
}

type sampler struct{}

func (s *sampler) Destroy() {}
