// Package sched implements the Pass Scheduler / Executor: topological
// execution of a compiled graph.Graph against a GPU device, transient
// texture lifetime analysis, edge-policy enforcement on mismatched
// producer/consumer descriptors, and per-node GPU timing capture.
package sched

import (
	"github.com/acescore/render/driver"
	"github.com/acescore/render/graph"
	"github.com/acescore/render/shaderlib"
	"github.com/acescore/render/texpool"
)

// CameraState is the virtual camera's per-frame framing state
// (track/clip offset and zoom); the compiler positions content within
// the frame, the executor only threads this through to kernels that
// declare a "camera" parameter.
type CameraState struct {
	OffsetX, OffsetY float32
	Zoom             float32
}

// AssetResolver resolves a source shader's named external asset
// (file path, decoded frame) to a GPU-compatible image. EXR assets
// must already have HDR sanitization applied (color.SanitizeHDR)
// before this callback returns (spec.md §4.6(5)); that rule binds the
// external resolver, not the scheduler.
type AssetResolver func(name string) (driver.Image, error)

// RenderContext is the per-frame execution state the Executor runs
// against: device, command buffer inputs, resolution, time, quality
// settings, texture pool, virtual camera, asset resolver callback,
// and edge-policy selector (spec.md §3).
type RenderContext struct {
	GPU     driver.GPU
	Pool    *texpool.Pool
	Library *shaderlib.Library
	Exec    NodeExecutor

	Width, Height int
	Time          float64
	Quality       graph.QualityProfile
	EdgePolicy    graph.EdgePolicy
	Camera        CameraState
	Resolver      AssetResolver

	SkipReadback       bool
	CaptureNodeTimings bool
}

// frameSize resolves the actual dimensions this frame executes at,
// forcing the deterministic Draft size regardless of the context's
// requested Width/Height (spec.md §4.3 "Draft-mode determinism").
func (c *RenderContext) frameSize() (w, h int) {
	return c.Quality.FrameSize(c.Width, c.Height)
}
