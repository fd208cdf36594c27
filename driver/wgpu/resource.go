package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/acescore/render/driver"
)

// buffer wraps a real hal.Buffer. shadow mirrors every WriteBuffer this
// package itself performs (NewBuffer's initial zero-fill, any future
// host write helper); it is the package's honest answer to the pinned
// gogpu/wgpu release carrying no public buffer-mapping accessor on the
// generic hal.Buffer interface (see the package doc). shadow is kept
// only for buffers the caller asked to be host visible: GPU-resident
// storage a real node never writes from the host reports Bytes() as
// nil, exactly as driver.Buffer's own doc requires.
type buffer struct {
	hal     hal.Buffer
	device  hal.Device
	size    int64
	visible bool
	shadow  []byte
}

func (b *buffer) Destroy() { b.device.DestroyBuffer(b.hal) }
func (b *buffer) Visible() bool { return b.visible }
func (b *buffer) Cap() int64    { return b.size }

func (b *buffer) Bytes() []byte {
	if !b.visible {
		return nil
	}
	return b.shadow
}

type image struct {
	hal           hal.Texture
	device        hal.Device
	format        driver.PixelFmt
	width, height int
}

// bytesPerPixel mirrors texpool's format/size table; cmdbuffer.go's
// CopyImgToBuf/CopyBufToImg replay needs it to turn a BufImgCopy's
// pixel-addressed Stride into hal's byte-addressed BytesPerRow.
func bytesPerPixel(f driver.PixelFmt) int {
	switch f {
	case driver.R8un, driver.R8n, driver.S8ui:
		return 1
	case driver.RG8un, driver.RG8n, driver.D16un, driver.R16f:
		return 2
	case driver.RGBA8un, driver.RGBA8n, driver.RGBA8sRGB,
		driver.BGRA8un, driver.BGRA8sRGB, driver.D32f,
		driver.D24unS8ui, driver.R32f, driver.RG16f, driver.D32fS8ui:
		return 4
	case driver.RGBA16f, driver.RG32f:
		return 8
	case driver.RGBA32f:
		return 16
	default:
		return 4
	}
}

func (im *image) Destroy() { im.device.DestroyTexture(im.hal) }

func (im *image) NewView(typ driver.ViewType, layer, layers, level, levels int) (driver.ImageView, error) {
	dim, err := toViewDimension(typ)
	if err != nil {
		return nil, err
	}
	v, err := im.device.CreateTextureView(im.hal, &hal.TextureViewDescriptor{
		Format:          toTextureFormat(im.format),
		Dimension:       dim,
		BaseArrayLayer:  uint32(layer),
		ArrayLayerCount: uint32(layers),
		BaseMipLevel:    uint32(level),
		MipLevelCount:   uint32(levels),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture view: %w", err)
	}
	return &view{hal: v, device: im.device}, nil
}

func toViewDimension(typ driver.ViewType) (gputypes.TextureViewDimension, error) {
	switch typ {
	case driver.IView1D:
		return gputypes.TextureViewDimension1D, nil
	case driver.IView2D:
		return gputypes.TextureViewDimension2D, nil
	case driver.IView2DArray:
		return gputypes.TextureViewDimension2DArray, nil
	case driver.IView3D:
		return gputypes.TextureViewDimension3D, nil
	case driver.IViewCube:
		return gputypes.TextureViewDimensionCube, nil
	case driver.IViewCubeArray:
		return gputypes.TextureViewDimensionCubeArray, nil
	default:
		return 0, fmt.Errorf("wgpu: unsupported view type %v", typ)
	}
}

type view struct {
	hal    hal.TextureView
	device hal.Device
}

func (v *view) Destroy() { v.device.DestroyTextureView(v.hal) }

type sampler struct {
	hal    hal.Sampler
	device hal.Device
}

func (s *sampler) Destroy() { s.device.DestroySampler(s.hal) }

type shaderCode struct {
	hal    hal.ShaderModule
	device hal.Device
}

func (s *shaderCode) Destroy() { s.device.DestroyShaderModule(s.hal) }

// descHeap mirrors driver.DescHeap: one hal.BindGroupLayout plus a
// family of hal.BindGroups (one per New(n) copy), built lazily as
// Set{Buffer,Image,Sampler} supplies concrete resources. The binding
// type recorded at NewDescHeap time (from each driver.Descriptor) is
// reused when a later SetBuffer call must decide between a uniform and
// a storage BufferBinding entry.
type descHeap struct {
	device  hal.Device
	layout  hal.BindGroupLayout
	entries []driver.Descriptor

	mu     sync.Mutex
	groups []hal.BindGroup // one per copy, built on first Set* touching the copy
	staged []map[uint32]gputypes.BindGroupEntry
}

func newDescHeap(device hal.Device, ds []driver.Descriptor) (*descHeap, error) {
	layoutEntries := make([]gputypes.BindGroupLayoutEntry, 0, len(ds))
	binding := uint32(0)
	for _, d := range ds {
		isBuf, isTex, isSplr := toDescType(d.Type)
		for i := 0; i < d.Len; i++ {
			e := gputypes.BindGroupLayoutEntry{Binding: binding, Visibility: toShaderStages(d.Stages)}
			switch {
			case isBuf:
				e.Buffer = &gputypes.BufferBindingLayout{Type: toBufferBindingType(d.Type)}
			case isTex:
				e.Texture = &gputypes.TextureBindingLayout{}
			case isSplr:
				e.Sampler = &gputypes.SamplerBindingLayout{}
			}
			layoutEntries = append(layoutEntries, e)
			binding++
		}
	}

	layout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Entries: layoutEntries})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	return &descHeap{device: device, layout: layout, entries: ds}, nil
}

func (d *descHeap) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, g := range d.groups {
		if g != nil {
			d.device.DestroyBindGroup(g)
		}
	}
	d.device.DestroyBindGroupLayout(d.layout)
}

func (d *descHeap) New(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.groups = make([]hal.BindGroup, n)
	d.staged = make([]map[uint32]gputypes.BindGroupEntry, n)
	for i := range d.staged {
		d.staged[i] = map[uint32]gputypes.BindGroupEntry{}
	}
	return nil
}

func (d *descHeap) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.groups)
}

func (d *descHeap) SetBuffer(cpy, nr, start int, buf []driver.Buffer, off, size []int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cpy < 0 || cpy >= len(d.staged) {
		return
	}
	for i, b := range buf {
		bb, ok := b.(*buffer)
		if !ok {
			continue
		}
		nb, ok := nativeBuffer(bb.hal)
		if !ok {
			continue
		}
		d.staged[cpy][uint32(start+i)] = gputypes.BindGroupEntry{
			Binding:  uint32(start + i),
			Resource: gputypes.BufferBinding{Buffer: nb, Offset: uint64(off[i]), Size: uint64(size[i])},
		}
	}
	d.rebuild(cpy)
}

func (d *descHeap) SetImage(cpy, nr, start int, iv []driver.ImageView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cpy < 0 || cpy >= len(d.staged) {
		return
	}
	for i, v := range iv {
		vv, ok := v.(*view)
		if !ok {
			continue
		}
		nv, ok := nativeTextureView(vv.hal)
		if !ok {
			continue
		}
		d.staged[cpy][uint32(start+i)] = gputypes.BindGroupEntry{
			Binding:  uint32(start + i),
			Resource: gputypes.TextureViewBinding{TextureView: nv},
		}
	}
	d.rebuild(cpy)
}

func (d *descHeap) SetSampler(cpy, nr, start int, splr []driver.Sampler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cpy < 0 || cpy >= len(d.staged) {
		return
	}
	for i, s := range splr {
		ss, ok := s.(*sampler)
		if !ok {
			continue
		}
		ns, ok := nativeSampler(ss.hal)
		if !ok {
			continue
		}
		d.staged[cpy][uint32(start+i)] = gputypes.BindGroupEntry{
			Binding:  uint32(start + i),
			Resource: gputypes.SamplerBinding{Sampler: ns},
		}
	}
	d.rebuild(cpy)
}

// rebuild recreates the hal.BindGroup for copy cpy from every entry
// staged so far. A bind group is immutable once created, so each
// Set* call that touches a copy must replace it wholesale; this
// mirrors how DescHeap.New documents one heap as "n independent
// copies of the same layout" rather than one mutable binding set.
func (d *descHeap) rebuild(cpy int) {
	entries := make([]gputypes.BindGroupEntry, 0, len(d.staged[cpy]))
	for _, e := range d.staged[cpy] {
		entries = append(entries, e)
	}
	if old := d.groups[cpy]; old != nil {
		d.device.DestroyBindGroup(old)
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{Layout: d.layout, Entries: entries})
	if err != nil {
		// Leave the copy unbound; the next dispatch using it will
		// surface a nil bind group through SetDescTableComp.
		d.groups[cpy] = nil
		return
	}
	d.groups[cpy] = bg
}

func (d *descHeap) bindGroup(cpy int) hal.BindGroup {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cpy < 0 || cpy >= len(d.groups) {
		return nil
	}
	return d.groups[cpy]
}

// descTable binds one or more descHeaps' layouts into a
// hal.PipelineLayout, mirroring compute-copy's single-bind-group
// layout-per-pipeline pattern generalized to N heaps.
type descTable struct {
	device hal.Device
	layout hal.PipelineLayout
	heaps  []*descHeap
}

func newDescTable(device hal.Device, heaps []driver.DescHeap) (*descTable, error) {
	bgl := make([]hal.BindGroupLayout, 0, len(heaps))
	dh := make([]*descHeap, 0, len(heaps))
	for _, h := range heaps {
		w, ok := h.(*descHeap)
		if !ok {
			return nil, fmt.Errorf("wgpu: desc heap %T not produced by this driver", h)
		}
		bgl = append(bgl, w.layout)
		dh = append(dh, w)
	}
	layout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{BindGroupLayouts: bgl})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	return &descTable{device: device, layout: layout, heaps: dh}, nil
}

func (d *descTable) Destroy() { d.device.DestroyPipelineLayout(d.layout) }

// pipeline wraps a real hal.ComputePipeline (render pipelines are out
// of scope: SPEC_FULL.md's color pipeline is compute-only, matching
// driver/refsw's own GPU.Limits doc).
type pipeline struct {
	device  hal.Device
	compute hal.ComputePipeline
	table   *descTable
}

func (p *pipeline) Destroy() {
	if p.compute != nil {
		p.device.DestroyComputePipeline(p.compute)
	}
}

// renderPass and framebuf are configuration-only: the pinned hal
// package has no persistent render-pass or framebuffer object (a
// hal.CommandEncoder opens a render pass on the fly from a
// RenderPassDescriptor), and the color pipeline this driver backs
// never issues BeginPass. They exist solely to satisfy driver.GPU.
type renderPass struct {
	attachments []driver.Attachment
	subpasses   []driver.Subpass
}

func (r *renderPass) Destroy() {}

func (r *renderPass) NewFB(iv []driver.ImageView, width, height, layers int) (driver.Framebuf, error) {
	return &framebuf{}, nil
}

type framebuf struct{}

func (f *framebuf) Destroy() {}
