package sched

import (
	"fmt"
	"sync"
	"time"

	worker "github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/acescore/render/driver"
	"github.com/acescore/render/graph"
	"github.com/acescore/render/texpool"
)

// FrameResult is what a single Executor.Run call returns: the root's
// readback bytes (nil if SkipReadback), compile/execute-time warning
// tags, and the formatted node-timings report (empty unless
// CaptureNodeTimings was set).
type FrameResult struct {
	Bytes       []byte
	Warnings    []string
	NodeTimings string
}

// Executor runs a compiled graph.Graph against a RenderContext,
// implementing the topological-order / transient-lifetime / edge-
// policy / timing-capture algorithm of spec.md §4.3.
type Executor struct {
	ctx  *RenderContext
	pool worker.DynamicWorkerPool
}

// NewExecutor creates an Executor bound to ctx. A small persistent
// worker pool is used only for the CPU-side per-node size precompute
// pass (Draft-mode determinism requires every size-derived parameter
// to be recomputed from the fixed frame size); actual GPU dispatch
// stays single-writer and strictly ordered, per spec.md §5.
func NewExecutor(ctx *RenderContext) *Executor {
	return &Executor{
		ctx:  ctx,
		pool: worker.NewDynamicWorkerPool(4, 256, time.Second),
	}
}

// nodeSize is the precomputed output dimension for one node.
type nodeSize struct{ w, h int }

// precomputeSizes resolves every node's concrete output dimensions
// against the frame size concurrently, since Draft-mode determinism
// demands this recomputation happen fresh each frame regardless of
// what the manifest originally requested.
func (e *Executor) precomputeSizes(nodes []graph.RenderNode, frameW, frameH int) map[graph.NodeID]nodeSize {
	out := make(map[graph.NodeID]nodeSize, len(nodes))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, n := range nodes {
		wg.Add(1)
		node := n
		taskID := i
		e.pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				w, h := node.Output.Resolve(frameW, frameH)
				mu.Lock()
				out[node.ID] = nodeSize{w: w, h: h}
				mu.Unlock()
				return nil, nil
			},
		})
	}
	wg.Wait()
	return out
}

// lastReader computes, for every node's output, the topological
// position of its last reader. The root's position counts as its own
// last reader if nothing consumes it downstream (it is the frame's
// terminal output).
func lastReader(g *graph.Graph, order []graph.NodeID) map[graph.NodeID]int {
	pos := make(map[graph.NodeID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	last := make(map[graph.NodeID]int, len(order))
	for i, id := range order {
		n, _ := g.Node(id)
		for _, producer := range n.Inputs {
			if cur, ok := last[producer]; !ok || i > cur {
				last[producer] = i
			}
		}
	}
	if _, ok := last[g.Root()]; !ok {
		last[g.Root()] = len(order) - 1
	}
	return last
}

func descriptorFor(n graph.RenderNode, sz nodeSize) texpool.Descriptor {
	return texpool.Descriptor{
		Width:  sz.w,
		Height: sz.h,
		Format: n.Output.PixelFormat.DriverFormat(),
		Usage:  driver.UShaderWrite | driver.UShaderSample | driver.UShaderRead,
	}
}

// Run executes g per spec.md §4.3 and returns the root's result.
func (e *Executor) Run(g *graph.Graph) (*FrameResult, error) {
	order, err := graph.TopologicalOrder(g)
	if err != nil {
		return nil, err
	}
	frameW, frameH := e.ctx.frameSize()
	sizes := e.precomputeSizes(g.Nodes(), frameW, frameH)
	lasts := lastReader(g, order)

	type binding struct {
		handle texpool.Handle
		img    driver.Image
	}
	inFlight := make(map[graph.NodeID]binding, len(order))
	var warnings []string
	var timings []timingEntry

	release := func(id graph.NodeID) {
		if b, ok := inFlight[id]; ok {
			e.ctx.Pool.Release(b.handle)
			delete(inFlight, id)
		}
	}
	releaseAll := func() {
		for id := range inFlight {
			release(id)
		}
	}

	cb, err := e.ctx.GPU.NewCmdBuffer()
	if err != nil {
		releaseAll()
		return nil, &CommandBufferFailedError{Err: err}
	}
	if err := cb.Begin(); err != nil {
		releaseAll()
		return nil, &CommandBufferFailedError{Err: err}
	}

	for _, id := range order {
		node, _ := g.Node(id)

		inputs := make(map[graph.PortName]driver.Image, len(node.Inputs))
		for port, producerID := range node.Inputs {
			b, ok := inFlight[producerID]
			if !ok {
				releaseAll()
				return nil, &KernelDispatchFailedError{NodeName: node.Name, Err: fmt.Errorf("producer %d not in flight", producerID)}
			}
			if mismatch := e.checkMismatch(g, producerID, node, port, sizes); mismatch {
				switch e.ctx.EdgePolicy {
				case graph.RequireExplicitAdapters:
					warnings = append(warnings, "size_mismatch")
				case graph.AutoResizeBilinear:
					warnings = append(warnings, "auto_resize")
				}
			}
			inputs[port] = b.img
		}

		outDesc := descriptorFor(node, sizes[id])
		img, handle, err := e.ctx.Pool.Acquire(outDesc)
		if err != nil {
			releaseAll()
			return nil, &TextureAllocationFailedError{Node: node.Name, Err: err}
		}

		start := time.Now()
		if e.ctx.Exec == nil {
			releaseAll()
			return nil, &PipelineNotFoundError{Shader: node.Shader}
		}
		if err := e.ctx.Exec.Execute(cb, e.ctx.GPU, node, inputs, img); err != nil {
			e.ctx.Pool.Release(handle)
			releaseAll()
			return nil, &KernelDispatchFailedError{NodeName: node.Name, Err: err}
		}

		if e.ctx.CaptureNodeTimings {
			if timer, ok := e.ctx.Exec.(Timer); ok {
				ms, ok := timer.ElapsedMS(node)
				timings = append(timings, timingEntry{name: node.Name, shader: node.Shader, ms: ms, ok: ok})
			} else {
				timings = append(timings, timingEntry{name: node.Name, shader: node.Shader})
			}
			_ = start
		}

		inFlight[id] = binding{handle: handle, img: img}

		for _, producerID := range node.Inputs {
			if lasts[producerID] == indexOf(order, id) {
				release(producerID)
			}
		}
	}

	result := &FrameResult{Warnings: dedup(warnings)}
	if e.ctx.CaptureNodeTimings {
		result.NodeTimings = formatTimings(timings)
	}

	if err := cb.End(); err != nil {
		releaseAll()
		return nil, &CommandBufferFailedError{Err: err}
	}
	ch := make(chan error, 1)
	e.ctx.GPU.Commit([]driver.CmdBuffer{cb}, ch)
	if err := <-ch; err != nil {
		releaseAll()
		return nil, &CommandBufferFailedError{Err: err}
	}

	if !e.ctx.SkipReadback {
		root, ok := inFlight[g.Root()]
		if !ok {
			releaseAll()
			return nil, &KernelDispatchFailedError{NodeName: "root", Err: fmt.Errorf("root output not retained")}
		}
		rootNode, _ := g.Node(g.Root())
		bytes, err := readback(e.ctx.GPU, root.img, rootNode.Output.PixelFormat.DriverFormat(), sizes[g.Root()])
		if err != nil {
			releaseAll()
			return nil, &CommandBufferFailedError{Err: err}
		}
		result.Bytes = bytes
	}
	releaseAll()
	return result, nil
}

// checkMismatch reports whether producer's output is not
// Full-resolution while the consumer is not itself a resize_bilinear
// adapter (compiler-built consumers expect a Full-frame, scene-linear
// input; see the compiler's fullSpec). Pixel formats are not compared.
func (e *Executor) checkMismatch(g *graph.Graph, producerID graph.NodeID, consumer graph.RenderNode, port graph.PortName, sizes map[graph.NodeID]nodeSize) bool {
	producer, ok := g.Node(producerID)
	if !ok {
		return false
	}
	return producer.Output.Resolution != graph.Full && consumer.Shader != "resize_bilinear"
}

func indexOf(order []graph.NodeID, id graph.NodeID) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func dedup(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// readback copies an image's contents to a host-visible buffer via a
// staging blit and returns its bytes. driver/refsw's images are
// already host-addressable and implement a direct Bytes() accessor,
// so they short-circuit the copy; driver/wgpu and any other backend
// whose driver.Image is not directly host-visible fall through to
// stagedReadback, which records a CopyImgToBuf into a fresh host-
// visible driver.Buffer, commits it, and reads the result back.
func readback(gpu driver.GPU, img driver.Image, format driver.PixelFmt, sz nodeSize) ([]byte, error) {
	type directReadback interface {
		Bytes() []byte
	}
	if d, ok := img.(directReadback); ok {
		return d.Bytes(), nil
	}
	return stagedReadback(gpu, img, format, sz)
}

// stagedReadback implements spec.md §4.3 step 4 (copy the root
// texture to a CPU-visible buffer) for backends whose driver.Image
// carries no direct host accessor: it allocates a host-visible
// driver.Buffer sized for one tightly packed sz.w x sz.h image of
// format, records a single CopyImgToBuf into its own command buffer,
// commits and waits for it, then returns the buffer's bytes.
func stagedReadback(gpu driver.GPU, img driver.Image, format driver.PixelFmt, sz nodeSize) ([]byte, error) {
	rowBytes := texpool.BytesPerPixel(format) * int64(sz.w)
	size := rowBytes * int64(sz.h)

	staging, err := gpu.NewBuffer(size, true, driver.UGeneric)
	if err != nil {
		return nil, fmt.Errorf("sched: readback staging buffer: %w", err)
	}
	defer staging.Destroy()

	cb, err := gpu.NewCmdBuffer()
	if err != nil {
		return nil, fmt.Errorf("sched: readback command buffer: %w", err)
	}
	defer cb.Destroy()

	if err := cb.Begin(); err != nil {
		return nil, fmt.Errorf("sched: readback command buffer: %w", err)
	}
	cb.BeginBlit(true)
	cb.CopyImgToBuf(&driver.BufImgCopy{
		Buf:    staging,
		Stride: [2]int64{int64(sz.w), int64(sz.h)},
		Img:    img,
		Size:   driver.Dim3D{Width: sz.w, Height: sz.h, Depth: 1},
	})
	cb.EndBlit()
	if err := cb.End(); err != nil {
		return nil, fmt.Errorf("sched: readback command buffer: %w", err)
	}

	ch := make(chan error, 1)
	gpu.Commit([]driver.CmdBuffer{cb}, ch)
	if err := <-ch; err != nil {
		return nil, fmt.Errorf("sched: readback commit: %w", err)
	}

	out := staging.Bytes()
	if out == nil {
		return nil, fmt.Errorf("sched: staging buffer did not report host-visible bytes")
	}
	return append([]byte(nil), out...), nil
}

// MonitorMemoryPressure drains signals and invokes the texture
// pool's memory-pressure handler once per signal. The caller owns
// the goroutine this runs in; RenderContext.Pool remains
// single-writer because only this loop (driven by the monitoring
// task's messages) and Run's own acquire/release calls ever touch it,
// and Run does not run concurrently with this loop by contract
// (spec.md §5).
func (e *Executor) MonitorMemoryPressure(signals <-chan struct{}) {
	for range signals {
		e.ctx.Pool.HandleMemoryPressure()
	}
}
