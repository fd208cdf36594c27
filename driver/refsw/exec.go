package refsw

import (
	"fmt"
	"sync"
	"time"

	"github.com/acescore/render/color"
	"github.com/acescore/render/driver"
	"github.com/acescore/render/graph"
	"github.com/acescore/render/shaderlib"
)

// sourceBuffer is one registered source or mask's raw pixel data, in
// whatever native encoding its MediaSource.Encoding declared (the
// compiler-inserted IDT node, if any, converts it to ACEScg).
type sourceBuffer struct {
	w, h int
	px   []float32 // len == w*h*4, RGBA
}

// Exec is the CPU reference sched.NodeExecutor. It evaluates the
// fixed color-pipeline kernel vocabulary the compiler emits (source
// read, IDT family, ODT family, lut_apply_3d, resize_bilinear,
// composite_over, text_overlay) against color's CPU reference
// functions. Any other shader name is treated as a transparent
// pass-through: per spec.md §1, individual effect kernel bodies
// (bloom, halation, bokeh, volumetrics, text SDF) are external
// collaborators out of this repo's scope, so the reference backend
// exercises the plumbing around them without reimplementing their
// numeric content.
type Exec struct {
	Library  *shaderlib.Library
	Tunables color.PQTunables

	mu      sync.Mutex
	sources map[string]sourceBuffer
	elapsed map[graph.NodeID]float64
}

// NewExec returns an Exec with no registered sources; register camera
// and mask inputs with RegisterSource before running a graph that
// references them.
func NewExec() *Exec {
	return &Exec{
		Tunables: color.DefaultPQTunables,
		sources:  map[string]sourceBuffer{},
		elapsed:  map[graph.NodeID]float64{},
	}
}

// RegisterSource attaches raw RGBA pixel data (len == w*h*4) under a
// shader name, so a compiler-built "source" or "mask_source" node
// referencing that name has something to read.
func (e *Exec) RegisterSource(name string, w, h int, px []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources[name] = sourceBuffer{w: w, h: h, px: px}
}

// ElapsedMS satisfies sched.Timer by wall-clock-timing each Execute
// call; the CPU reference backend has no GPU counter to sample.
func (e *Exec) ElapsedMS(node graph.RenderNode) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ms, ok := e.elapsed[node.ID]
	return ms, ok
}

func asImage(img driver.Image) (*image, error) {
	im, ok := img.(*image)
	if !ok {
		return nil, fmt.Errorf("refsw: image is not a CPU reference image (%T)", img)
	}
	return im, nil
}

// Execute dispatches node.Shader to the matching CPU kernel.
func (e *Exec) Execute(cb driver.CmdBuffer, gpu driver.GPU, node graph.RenderNode, inputs map[graph.PortName]driver.Image, output driver.Image) error {
	start := time.Now()
	err := e.dispatch(node, inputs, output)
	e.mu.Lock()
	e.elapsed[node.ID] = time.Since(start).Seconds() * 1000
	e.mu.Unlock()
	return err
}

func (e *Exec) dispatch(node graph.RenderNode, inputs map[graph.PortName]driver.Image, output driver.Image) error {
	out, err := asImage(output)
	if err != nil {
		return err
	}

	if len(node.Inputs) == 0 {
		return e.runSource(node, out)
	}

	switch node.Shader {
	case "idt_rec709_to_acescg":
		return e.runPerPixel(inputs, out, color.IDTRec709ToACEScg)
	case "idt_srgb_to_acescg":
		return e.runPerPixel(inputs, out, color.IDTSRGBToACEScg)
	case "idt_linear_rec709_to_acescg":
		return e.runPerPixel(inputs, out, color.IDTLinearRec709ToACEScg)
	case "odt_acescg_to_rec709_studio":
		return e.runPerPixel(inputs, out, color.ODTACEScgToRec709Studio)
	case "odt_acescg_to_pq1000":
		return e.runPerPixel(inputs, out, color.ODTACEScgToPQ1000(e.Tunables))
	case "lut_apply_3d":
		return e.runLUT(node, inputs, out)
	case "resize_bilinear":
		return e.runResize(inputs, out)
	case "composite_over":
		return e.runComposite(node, inputs, out)
	case "text_overlay":
		return e.runPassthrough(inputs, out, "input")
	default:
		// Masked or unmasked effect kernel: out of scope to
		// reimplement, so every effect is a deterministic
		// pass-through of its "input" port.
		return e.runPassthrough(inputs, out, "input")
	}
}

func (e *Exec) runSource(node graph.RenderNode, out *image) error {
	e.mu.Lock()
	src, ok := e.sources[node.Shader]
	e.mu.Unlock()
	if !ok {
		// No registered source data: zero-fill (scene-linear black),
		// which keeps the graph runnable for structural tests that
		// don't care about pixel content.
		return nil
	}
	for y := 0; y < out.h; y++ {
		sy := y
		if src.h != out.h {
			sy = y * src.h / out.h
		}
		for x := 0; x < out.w; x++ {
			sx := x
			if src.w != out.w {
				sx = x * src.w / out.w
			}
			off := (sy*src.w + sx) * 4
			out.SetRGBA(x, y, [4]float32{src.px[off], src.px[off+1], src.px[off+2], src.px[off+3]})
		}
	}
	return nil
}

func inputImage(inputs map[graph.PortName]driver.Image, port graph.PortName) (*image, error) {
	img, ok := inputs[port]
	if !ok {
		return nil, fmt.Errorf("refsw: missing input port %q", port)
	}
	return asImage(img)
}

func (e *Exec) runPerPixel(inputs map[graph.PortName]driver.Image, out *image, f func(color.RGB) color.RGB) error {
	in, err := inputImage(inputs, "input")
	if err != nil {
		return err
	}
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			c := in.RGBA(x, y)
			r := f(color.RGB{R: c[0], G: c[1], B: c[2]})
			out.SetRGBA(x, y, [4]float32{r.R, r.G, r.B, c[3]})
		}
	}
	return nil
}

func (e *Exec) runPassthrough(inputs map[graph.PortName]driver.Image, out *image, port graph.PortName) error {
	in, err := inputImage(inputs, port)
	if err != nil {
		return err
	}
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			out.SetRGBA(x, y, in.RGBA(x, y))
		}
	}
	return nil
}

func (e *Exec) runLUT(node graph.RenderNode, inputs map[graph.PortName]driver.Image, out *image) error {
	in, err := inputImage(inputs, "input")
	if err != nil {
		return err
	}
	name := node.Parameters["lut_name"].Str
	var lut *color.LUT3D
	if e.Library != nil {
		lut, _ = e.Library.LUT(name)
	}
	if lut == nil {
		lut = color.IdentityLUT(17)
	}
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			c := in.RGBA(x, y)
			r := lut.Sample(color.RGB{R: c[0], G: c[1], B: c[2]})
			out.SetRGBA(x, y, [4]float32{r.R, r.G, r.B, c[3]})
		}
	}
	return nil
}

func (e *Exec) runResize(inputs map[graph.PortName]driver.Image, out *image) error {
	in, err := inputImage(inputs, "input")
	if err != nil {
		return err
	}
	if in.w == out.w && in.h == out.h {
		return e.runPassthrough(inputs, out, "input")
	}
	for y := 0; y < out.h; y++ {
		fy := (float64(y) + 0.5) * float64(in.h) / float64(out.h) - 0.5
		for x := 0; x < out.w; x++ {
			fx := (float64(x) + 0.5) * float64(in.w) / float64(out.w) - 0.5
			out.SetRGBA(x, y, bilinearSample(in, fx, fy))
		}
	}
	return nil
}

func bilinearSample(in *image, fx, fy float64) [4]float32 {
	x0 := clampInt(int(fx), 0, in.w-1)
	y0 := clampInt(int(fy), 0, in.h-1)
	x1 := clampInt(x0+1, 0, in.w-1)
	y1 := clampInt(y0+1, 0, in.h-1)
	tx := float32(fx - float64(x0))
	ty := float32(fy - float64(y0))
	if tx < 0 {
		tx = 0
	}
	if ty < 0 {
		ty = 0
	}

	c00 := in.RGBA(x0, y0)
	c10 := in.RGBA(x1, y0)
	c01 := in.RGBA(x0, y1)
	c11 := in.RGBA(x1, y1)

	var out [4]float32
	for i := 0; i < 4; i++ {
		top := c00[i] + (c10[i]-c00[i])*tx
		bot := c01[i] + (c11[i]-c01[i])*tx
		out[i] = top + (bot-top)*ty
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// runComposite blends top over bottom with the premultiplied-alpha
// over operator: out = top + bottom*(1 - top.a), per channel.
func (e *Exec) runComposite(node graph.RenderNode, inputs map[graph.PortName]driver.Image, out *image) error {
	bottom, err := inputImage(inputs, "bottom")
	if err != nil {
		return err
	}
	top, err := inputImage(inputs, "top")
	if err != nil {
		return err
	}
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			b := bottom.RGBA(x, y)
			t := top.RGBA(x, y)
			a := t[3]
			out.SetRGBA(x, y, [4]float32{
				t[0] + b[0]*(1-a),
				t[1] + b[1]*(1-a),
				t[2] + b[2]*(1-a),
				a + b[3]*(1-a),
			})
		}
	}
	return nil
}
