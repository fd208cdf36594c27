package sched

import (
	"github.com/acescore/render/driver"
	"github.com/acescore/render/graph"
)

// NodeExecutor binds a node's inputs and parameters and dispatches
// its kernel, writing into output. Real GPU dispatch (descriptor
// table construction from a node's shader-library pipeline, compute
// grid sizing, render-pass encoding) lives behind this interface so
// the scheduler's topological/lifetime/edge-policy bookkeeping stays
// independent of any one backend; driver/refsw and driver/wgpu each
// provide a concrete implementation.
type NodeExecutor interface {
	// Execute runs node's kernel with the given resolved input
	// images bound by port name, writing its result into output.
	Execute(cb driver.CmdBuffer, gpu driver.GPU, node graph.RenderNode, inputs map[graph.PortName]driver.Image, output driver.Image) error
}

// Timer is an optional capability a NodeExecutor may implement to
// report a completed node's GPU duration for the node-timings report
// (spec.md §4.3 step 5). When a NodeExecutor does not implement
// Timer, every node's entry in the report reads "n/a".
type Timer interface {
	ElapsedMS(node graph.RenderNode) (ms float64, ok bool)
}
