package refsw

import "github.com/acescore/render/driver"

// cmdBuffer only tracks whether recording is open; the kernel work it
// would otherwise defer until Commit has already run inline, during
// sched.Executor.Run's direct call to Exec.Execute (see the package
// doc). Every Set*/Draw*/Copy*/Barrier method is a no-op: this backend
// never builds a graphics or render-pass pipeline.
type cmdBuffer struct {
	recording bool
}

func (c *cmdBuffer) Destroy() {}

func (c *cmdBuffer) Begin() error {
	c.recording = true
	return nil
}

func (c *cmdBuffer) End() error {
	c.recording = false
	return nil
}

func (c *cmdBuffer) Reset() error {
	c.recording = false
	return nil
}

func (c *cmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue) {}
func (c *cmdBuffer) NextSubpass()                                                                    {}
func (c *cmdBuffer) EndPass()                                                                        {}
func (c *cmdBuffer) BeginWork(wait bool)                                                             {}
func (c *cmdBuffer) EndWork()                                                                        {}
func (c *cmdBuffer) BeginBlit(wait bool)                                                             {}
func (c *cmdBuffer) EndBlit()                                                                        {}

func (c *cmdBuffer) SetPipeline(pl driver.Pipeline)                        {}
func (c *cmdBuffer) SetViewport(vp []driver.Viewport)                      {}
func (c *cmdBuffer) SetScissor(sciss []driver.Scissor)                    {}
func (c *cmdBuffer) SetBlendColor(r, g, b, a float32)                     {}
func (c *cmdBuffer) SetStencilRef(value uint32)                           {}
func (c *cmdBuffer) SetVertexBuf(start int, buf []driver.Buffer, off []int64) {}
func (c *cmdBuffer) SetIndexBuf(format driver.IndexFmt, buf driver.Buffer, off int64) {}
func (c *cmdBuffer) SetDescTableGraph(table driver.DescTable, start int, heapCopy []int) {}
func (c *cmdBuffer) SetDescTableComp(table driver.DescTable, start int, heapCopy []int)  {}

func (c *cmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int)                {}
func (c *cmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {}
func (c *cmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int)                     {}

func (c *cmdBuffer) CopyBuffer(param *driver.BufferCopy)   {}
func (c *cmdBuffer) CopyImage(param *driver.ImageCopy)     {}
func (c *cmdBuffer) CopyBufToImg(param *driver.BufImgCopy) {}
func (c *cmdBuffer) CopyImgToBuf(param *driver.BufImgCopy) {}
func (c *cmdBuffer) Fill(buf driver.Buffer, off int64, value byte, size int64) {}

func (c *cmdBuffer) Barrier(b []driver.Barrier)         {}
func (c *cmdBuffer) Transition(t []driver.Transition)   {}
