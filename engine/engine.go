// Package engine is the top-level facade gluing the Graph Compiler,
// the Scheduler/Executor, and the Encode Handoff into a single
// explicit init/free lifecycle. There is no process-wide state: every
// piece of mutable state (shader library, texture pool, frame pacer)
// lives on the Engine value a caller constructs and frees, per
// spec.md §9's re-architecture of the teacher's global shader-library
// singleton into "an engine-owned handle passed through the
// executor."
package engine

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/acescore/render/color"
	"github.com/acescore/render/compiler"
	"github.com/acescore/render/driver"
	"github.com/acescore/render/encode"
	"github.com/acescore/render/graph"
	"github.com/acescore/render/sched"
	"github.com/acescore/render/shaderlib"
	"github.com/acescore/render/texpool"
)

// Config configures an Engine at construction time, in the teacher's
// own style of a plain defaulted struct rather than a dynamic option
// bag (spec.md §9: "Configuration via dynamic option bags ... the
// manifest parser fills it, the core never consumes untyped maps").
type Config struct {
	// MaxFramesInFlight bounds concurrent command-buffer submission
	// (spec.md §6: 1-4, default 3).
	MaxFramesInFlight int

	// EdgePolicy is an edge-mismatch policy value kept with the
	// configuration. RenderFrame does not read it: the compiler and
	// scheduler apply the manifest's own EdgePolicy.
	EdgePolicy graph.EdgePolicy

	// Banding is the default dithering policy for the encode handoff.
	Banding encode.BandingMitigation

	// Tunables are the PQ ODT's highlight-handling coefficients.
	Tunables color.PQTunables

	// Codec is the external backend Frame results are handed to;
	// nil is valid when the caller drives FramePacer.Finish itself
	// (e.g. diagnostic/offline rendering that only wants raw dumps).
	Codec encode.CodecBackend
}

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() Config {
	return Config{
		MaxFramesInFlight: 3,
		EdgePolicy:        graph.AutoResizeBilinear,
		Banding:           encode.BandingAuto,
		Tunables:          color.DefaultPQTunables,
	}
}

// Engine owns the per-process resources a render session needs: the
// GPU device, the shader library, the transient texture pool, and the
// frame-pacing semaphore. Callers create one Engine per rendering
// session and call Close when done; nothing here is a package-level
// global.
type Engine struct {
	gpu     driver.GPU
	library *shaderlib.Library
	pool    *texpool.Pool
	pacer   *encode.FramePacer
	cfg     Config
}

// New constructs an Engine bound to gpu. The shader library starts
// empty; register sources and LUTs via Library() before compiling any
// manifest that references them.
func New(gpu driver.GPU, cfg Config) *Engine {
	if cfg.MaxFramesInFlight <= 0 {
		cfg.MaxFramesInFlight = 3
	}
	lib := shaderlib.New()
	return &Engine{
		gpu:     gpu,
		library: lib,
		pool:    texpool.New(gpu),
		pacer:   encode.NewFramePacer(cfg.MaxFramesInFlight, cfg.Codec),
		cfg:     cfg,
	}
}

// Library exposes the engine-owned shader library handle so a caller
// can register WGSL sources and warm LUTs before rendering.
func (e *Engine) Library() *shaderlib.Library { return e.library }

// Pool exposes the engine-owned transient texture pool, e.g. so a
// caller can wire a memory-pressure monitor via sched.Executor.
func (e *Engine) Pool() *texpool.Pool { return e.pool }

// Close releases the engine's resources: drains the frame pacer
// (inline Finish with the default encoder timeout) and clears the
// shader pipeline cache. Close is not safe to call concurrently with
// RenderFrame.
func (e *Engine) Close() error {
	if err := e.pacer.Finish(encode.DefaultEncoderTimeout); err != nil {
		return err
	}
	e.library.Clear()
	return nil
}

// FrameOutput is the result of rendering and encoding one frame.
type FrameOutput struct {
	Frame       *encode.Frame
	NodeTimings string
	Warnings    []string
}

// RenderFrame compiles m, executes the resulting graph against ctx
// (whose Exec is the concrete backend's NodeExecutor), and hands the root's output
// to the Encode Handoff. The compiler always appends a terminal ODT
// or LUT-apply node as the graph root (see compiler.Compile), so the
// root is already display-encoded by the time it reaches Handoff;
// RenderFrame therefore always passes RootIsSceneLinear: false,
// resolving spec.md §9's open question on terminal-ODT placement in
// favor of the render graph rather than the handoff.
func (e *Engine) RenderFrame(m compiler.Manifest, ctx *sched.RenderContext, format encode.FrameFormat, bypassColorConvert bool) (*FrameOutput, error) {
	result, err := compiler.Compile(m, e.library)
	if err != nil {
		return nil, fmt.Errorf("engine: compile: %w", err)
	}
	if err := graph.Validate(result.Graph, e.library); err != nil {
		return nil, fmt.Errorf("engine: validate: %w", err)
	}

	ctx.GPU = e.gpu
	ctx.Pool = e.pool
	ctx.Library = e.library
	ctx.EdgePolicy = m.EdgePolicy
	ctx.Quality = m.Quality
	if m.RequestedWidth > 0 {
		ctx.Width = m.RequestedWidth
	}
	if m.RequestedHeight > 0 {
		ctx.Height = m.RequestedHeight
	}

	exec := sched.NewExecutor(ctx)
	release := e.pacer.Submit(nil)
	frameResult, err := exec.Run(result.Graph)
	if err != nil {
		release(err)
		return nil, fmt.Errorf("engine: render: %w", err)
	}
	release(nil)

	linear, err := bytesToRGBAFloat32(frameResult.Bytes)
	if err != nil {
		return nil, err
	}
	w, h := ctx.Width, ctx.Height
	if ctx.Quality.Fidelity == graph.Draft {
		w, h = graph.DraftSize, graph.DraftSize
	}

	frame, err := encode.Handoff(linear, w, h, encode.Options{
		Target:             m.DisplayTarget,
		Tunables:           m.PQTunables,
		Format:             format,
		RootIsSceneLinear:  false,
		BypassColorConvert: bypassColorConvert,
		Banding:            e.cfg.Banding,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: encode handoff: %w", err)
	}

	warnings := append(append([]string{}, result.Warnings...), frameResult.Warnings...)
	return &FrameOutput{Frame: frame, NodeTimings: frameResult.NodeTimings, Warnings: warnings}, nil
}

// bytesToRGBAFloat32 decodes a little-endian float32 RGBA byte buffer
// (the readback format sched.Executor.Run produces for a Linear32
// root) into its per-channel values.
func bytesToRGBAFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("engine: readback buffer length %d not a multiple of 4 bytes", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}
