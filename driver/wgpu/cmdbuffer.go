package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/acescore/render/driver"
)

// opKind distinguishes the handful of recorded operations sched.go's
// Executor.Run and driver/refsw's Exec-equivalent GPU executor
// actually issue against a single cmdBuffer over one frame: compute
// dispatch, buffer-to-buffer copy, buffer fill, and buffer<->image
// copies. Render-pass and vertex/index
// drawing calls are recorded as no-ops (see SetVertexBuf etc. below)
// since the color pipeline this driver backs is compute-only.
type opKind int

const (
	opDispatch opKind = iota
	opCopyBuffer
	opFill
	opCopyBufToImg
	opCopyImgToBuf
)

type recordedOp struct {
	kind opKind

	pipeline *pipeline
	heapCopy []int
	grpX     int
	grpY     int
	grpZ     int

	copy *driver.BufferCopy

	fillBuf   *buffer
	fillOff   int64
	fillValue byte
	fillSize  int64

	bufImgCopy *driver.BufImgCopy
}

// cmdBuffer records operations during Begin/End and replays them
// against a real hal.CommandEncoder at GPU.Commit time. This two-phase
// design exists because driver.CmdBuffer's SetDescTableComp/Dispatch
// calls happen outside any encoder (sched.Executor.Run interleaves
// them with Go-side scheduling logic across many nodes), while hal's
// ComputePassEncoder is only valid between BeginComputePass and End on
// one escoder obtained from the device at submission time.
type cmdBuffer struct {
	gpu *GPU

	recording   bool
	curPipeline *pipeline
	table       *descTable
	curHeapCpy  []int
	ops         []recordedOp
}

func (c *cmdBuffer) Destroy() {}

func (c *cmdBuffer) Begin() error {
	c.recording = true
	c.ops = c.ops[:0]
	return nil
}

func (c *cmdBuffer) End() error {
	c.recording = false
	return nil
}

func (c *cmdBuffer) Reset() error {
	c.recording = false
	c.ops = c.ops[:0]
	return nil
}

func (c *cmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue) {}
func (c *cmdBuffer) NextSubpass()                                                                    {}
func (c *cmdBuffer) EndPass()                                                                        {}
func (c *cmdBuffer) BeginWork(wait bool)                                                             {}
func (c *cmdBuffer) EndWork()                                                                        {}
func (c *cmdBuffer) BeginBlit(wait bool)                                                             {}
func (c *cmdBuffer) EndBlit()                                                                        {}

func (c *cmdBuffer) SetPipeline(pl driver.Pipeline) {
	p, ok := pl.(*pipeline)
	if !ok {
		return
	}
	c.curPipeline = p
}

func (c *cmdBuffer) SetViewport(vp []driver.Viewport)                                 {}
func (c *cmdBuffer) SetScissor(sciss []driver.Scissor)                                {}
func (c *cmdBuffer) SetBlendColor(r, g, b, a float32)                                 {}
func (c *cmdBuffer) SetStencilRef(value uint32)                                       {}
func (c *cmdBuffer) SetVertexBuf(start int, buf []driver.Buffer, off []int64)         {}
func (c *cmdBuffer) SetIndexBuf(format driver.IndexFmt, buf driver.Buffer, off int64) {}
func (c *cmdBuffer) SetDescTableGraph(table driver.DescTable, start int, heapCopy []int) {
}

func (c *cmdBuffer) SetDescTableComp(table driver.DescTable, start int, heapCopy []int) {
	t, ok := table.(*descTable)
	if !ok {
		return
	}
	c.table = t
	c.curHeapCpy = heapCopy
}

func (c *cmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int)                {}
func (c *cmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {}

func (c *cmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {
	if c.curPipeline == nil {
		return
	}
	c.ops = append(c.ops, recordedOp{
		kind:     opDispatch,
		pipeline: c.curPipeline,
		heapCopy: append([]int(nil), c.curHeapCpy...),
		grpX:     grpCountX, grpY: grpCountY, grpZ: grpCountZ,
	})
}

func (c *cmdBuffer) CopyBuffer(param *driver.BufferCopy) {
	c.ops = append(c.ops, recordedOp{kind: opCopyBuffer, copy: param})
}

func (c *cmdBuffer) CopyImage(param *driver.ImageCopy) {}

func (c *cmdBuffer) CopyBufToImg(param *driver.BufImgCopy) {
	c.ops = append(c.ops, recordedOp{kind: opCopyBufToImg, bufImgCopy: param})
}

// CopyImgToBuf backs sched.readback's staging blit: the root node's
// output image is copied into a host-visible buffer so its bytes can
// be read back after Commit, since a hal.Texture itself is never
// directly host-addressable.
func (c *cmdBuffer) CopyImgToBuf(param *driver.BufImgCopy) {
	c.ops = append(c.ops, recordedOp{kind: opCopyImgToBuf, bufImgCopy: param})
}

func (c *cmdBuffer) Fill(buf driver.Buffer, off int64, value byte, size int64) {
	b, ok := buf.(*buffer)
	if !ok {
		return
	}
	c.ops = append(c.ops, recordedOp{kind: opFill, fillBuf: b, fillOff: off, fillValue: value, fillSize: size})
}

func (c *cmdBuffer) Barrier(b []driver.Barrier)       {}
func (c *cmdBuffer) Transition(t []driver.Transition) {}

// replay encodes every recorded op into a fresh hal.CommandEncoder and
// returns the finished hal.CommandBuffer, ready for Queue.Submit.
func (c *cmdBuffer) replay(device hal.Device) (hal.CommandBuffer, error) {
	enc, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(""); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	for _, op := range c.ops {
		switch op.kind {
		case opDispatch:
			if err := replayDispatch(enc, op); err != nil {
				enc.DiscardEncoding()
				return nil, err
			}
		case opCopyBuffer:
			if err := replayCopyBuffer(enc, op); err != nil {
				enc.DiscardEncoding()
				return nil, err
			}
		case opCopyBufToImg:
			if err := replayCopyBufToImg(enc, op); err != nil {
				enc.DiscardEncoding()
				return nil, err
			}
		case opCopyImgToBuf:
			if err := replayCopyImgToBuf(enc, op); err != nil {
				enc.DiscardEncoding()
				return nil, err
			}
		case opFill:
			// hal.CommandEncoder only clears to zero, so a Fill is
			// replayed as a zero clear of its range: its byte value
			// is honored only when it is zero.
			enc.ClearBuffer(op.fillBuf.hal, uint64(op.fillOff), uint64(op.fillSize))
		}
	}

	cb, err := enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	return cb, nil
}

func replayDispatch(enc hal.CommandEncoder, op recordedOp) error {
	if op.pipeline.compute == nil {
		return fmt.Errorf("wgpu: dispatch on a pipeline with no compute stage")
	}
	pass := enc.BeginComputePass(&hal.ComputePassDescriptor{})
	pass.SetPipeline(op.pipeline.compute)
	for i, h := range op.pipeline.table.heaps {
		cpy := 0
		if i < len(op.heapCopy) {
			cpy = op.heapCopy[i]
		}
		bg := h.bindGroup(cpy)
		if bg == nil {
			pass.End()
			return fmt.Errorf("wgpu: desc heap %d copy %d has no bound resources", i, cpy)
		}
		pass.SetBindGroup(uint32(i), bg, nil)
	}
	pass.Dispatch(uint32(op.grpX), uint32(op.grpY), uint32(op.grpZ))
	pass.End()
	return nil
}

func replayCopyBuffer(enc hal.CommandEncoder, op recordedOp) error {
	src, ok := op.copy.From.(*buffer)
	if !ok {
		return fmt.Errorf("wgpu: copy source %T not produced by this driver", op.copy.From)
	}
	dst, ok := op.copy.To.(*buffer)
	if !ok {
		return fmt.Errorf("wgpu: copy destination %T not produced by this driver", op.copy.To)
	}
	enc.CopyBufferToBuffer(src.hal, dst.hal, []hal.BufferCopy{{
		SrcOffset: uint64(op.copy.FromOff),
		DstOffset: uint64(op.copy.ToOff),
		Size:      uint64(op.copy.Size),
	}})
	return nil
}

func replayCopyBufToImg(enc hal.CommandEncoder, op recordedOp) error {
	p := op.bufImgCopy
	buf, ok := p.Buf.(*buffer)
	if !ok {
		return fmt.Errorf("wgpu: copy source %T not produced by this driver", p.Buf)
	}
	img, ok := p.Img.(*image)
	if !ok {
		return fmt.Errorf("wgpu: copy destination %T not produced by this driver", p.Img)
	}
	enc.CopyBufferToTexture(buf.hal, img.hal, []hal.BufferTextureCopy{bufImgCopyRegion(p)})
	return nil
}

func replayCopyImgToBuf(enc hal.CommandEncoder, op recordedOp) error {
	p := op.bufImgCopy
	img, ok := p.Img.(*image)
	if !ok {
		return fmt.Errorf("wgpu: copy source %T not produced by this driver", p.Img)
	}
	buf, ok := p.Buf.(*buffer)
	if !ok {
		return fmt.Errorf("wgpu: copy destination %T not produced by this driver", p.Buf)
	}
	enc.CopyTextureToBuffer(img.hal, buf.hal, []hal.BufferTextureCopy{bufImgCopyRegion(p)})
	return nil
}

// bufImgCopyRegion translates driver.BufImgCopy's pixel-addressed
// layout into hal's byte-addressed ImageDataLayout. Stride is given
// in pixels per driver.BufImgCopy's own doc, so it is scaled by the
// image's bytes-per-pixel to get BytesPerRow.
func bufImgCopyRegion(p *driver.BufImgCopy) hal.BufferTextureCopy {
	img := p.Img.(*image)
	bpp := uint32(bytesPerPixel(img.format))
	aspect := gputypes.TextureAspectAll
	if p.DepthCopy {
		aspect = gputypes.TextureAspectDepthOnly
	}
	return hal.BufferTextureCopy{
		BufferLayout: hal.ImageDataLayout{
			Offset:       uint64(p.BufOff),
			BytesPerRow:  uint32(p.Stride[0]) * bpp,
			RowsPerImage: uint32(p.Stride[1]),
		},
		TextureBase: hal.ImageCopyTexture{
			Texture:  img.hal,
			MipLevel: uint32(p.Level),
			Origin:   hal.Origin3D{X: uint32(p.ImgOff.X), Y: uint32(p.ImgOff.Y), Z: uint32(p.ImgOff.Z)},
			Aspect:   aspect,
		},
		Size: hal.Extent3D{
			Width:              uint32(p.Size.Width),
			Height:             uint32(p.Size.Height),
			DepthOrArrayLayers: uint32(maxInt(p.Size.Depth, 1)),
		},
	}
}
