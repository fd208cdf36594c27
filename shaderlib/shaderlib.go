// Package shaderlib is the compiled-kernel registry the scheduler
// looks shader names up in. Entries are WGSL source compiled lazily
// on first reference, validated with naga, and cached by name. Parsed
// .cube LUTs (the terminal ODT LUTs) are registered by name; WarmLUT
// allocates a 3D image for one but does not copy its table into it.
package shaderlib

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/naga"

	"github.com/acescore/render/color"
	"github.com/acescore/render/driver"
	"github.com/acescore/render/graph"
)

const prefix = "shaderlib: "

// NotFoundError means the library has no source registered under the
// requested name.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return prefix + "shader not found: " + e.Name }

// CycleError means a chain of #include directives forms a cycle.
type CycleError struct{ Chain []string }

func (e *CycleError) Error() string {
	return fmt.Sprintf(prefix+"include cycle: %s", strings.Join(e.Chain, " -> "))
}

// Source is one registered WGSL module, keyed by name.
type Source struct {
	Name string
	WGSL string
}

// compiled is a cache entry: resolved WGSL (includes expanded),
// validated by naga, and the driver.Pipeline built from it (nil
// until a GPU successfully compiles it).
type compiled struct {
	resolvedWGSL string
	pipeline     driver.Pipeline
}

// Library holds registered shader sources and the pipelines compiled
// from them, plus any warmed-up 3D LUT textures.
type Library struct {
	mu       sync.Mutex
	sources  map[string]Source
	cache    map[string]*compiled
	luts     map[string]*color.LUT3D
	lutAttach map[string]driver.Image
}

// New returns an empty Library.
func New() *Library {
	return &Library{
		sources:   map[string]Source{},
		cache:     map[string]*compiled{},
		luts:      map[string]*color.LUT3D{},
		lutAttach: map[string]driver.Image{},
	}
}

// Register adds (or replaces) a named WGSL source. Replacing a name
// invalidates its cache entry.
func (l *Library) Register(name, wgsl string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[name] = Source{Name: name, WGSL: wgsl}
	delete(l.cache, name)
}

// RequiredPorts satisfies graph.SignatureLookup: it resolves shader's
// includes (compiling it first if this is the first reference) and
// scans the result for "#port name" directives, the same line-based
// directive convention #include already uses. A kernel that consumes
// a graph input port declares it with one directive per port, e.g.
// "#port input" or "#port matte"; graph.Validate then rejects any
// node whose Inputs map leaves a declared port unbound.
func (l *Library) RequiredPorts(shader string) ([]graph.PortName, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.cache[shader]
	if !ok {
		if _, known := l.sources[shader]; !known {
			return nil, false
		}
		if err := l.validateLocked(shader); err != nil {
			return nil, false
		}
		c = l.cache[shader]
	}
	return portDirectives(c.resolvedWGSL), true
}

func portDirectives(wgsl string) []graph.PortName {
	var ports []graph.PortName
	for _, line := range strings.Split(wgsl, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#port ") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(trimmed, "#port "))
		if name != "" {
			ports = append(ports, graph.PortName(name))
		}
	}
	return ports
}

// RegisterLUT attaches a parsed 3D LUT under name (e.g. a
// DisplayTarget's LUTName()); WarmLUT allocates a matching GPU
// texture for it.
func (l *Library) RegisterLUT(name string, lut *color.LUT3D) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.luts[name] = lut
}

// HasLUT reports whether a 3D LUT is registered under name. This
// satisfies compiler.LUTAvailability, letting the graph compiler
// prefer a LUT-form terminal transform over the analytic path only
// when one has actually been registered with the library.
func (l *Library) HasLUT(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.luts[name]
	return ok
}

// LUT returns the raw parsed 3D LUT registered under name, for
// backends (e.g. driver/refsw) that evaluate lut_apply_3d on the CPU
// rather than sampling a GPU texture.
func (l *Library) LUT(name string) (*color.LUT3D, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lut, ok := l.luts[name]
	return lut, ok
}

// resolveIncludes expands #include "name" directives by substituting
// the referenced source's body, detecting cycles and duplicate
// (repeated) includes of the same name within one chain.
func (l *Library) resolveIncludes(name string, chain []string) (string, error) {
	for _, seen := range chain {
		if seen == name {
			return "", &CycleError{Chain: append(append([]string{}, chain...), name)}
		}
	}
	src, ok := l.sources[name]
	if !ok {
		return "", &NotFoundError{Name: name}
	}
	chain = append(chain, name)

	lines := strings.Split(src.WGSL, "\n")
	var out strings.Builder
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#include ") {
			inc := strings.Trim(strings.TrimPrefix(trimmed, "#include "), ` "`)
			body, err := l.resolveIncludes(inc, chain)
			if err != nil {
				return "", err
			}
			out.WriteString(body)
			out.WriteString("\n")
			continue
		}
		out.WriteString(line)
		out.WriteString("\n")
	}
	return out.String(), nil
}

// Validate resolves includes for name and runs the result through
// naga's WGSL parser/lowering pass, returning a descriptive error if
// the shader fails to parse.
func (l *Library) Validate(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.validateLocked(name)
}

func (l *Library) validateLocked(name string) error {
	resolved, err := l.resolveIncludes(name, nil)
	if err != nil {
		return err
	}
	ast, err := naga.Parse(resolved)
	if err != nil {
		return fmt.Errorf(prefix+"parse %s: %w", name, err)
	}
	if _, err := naga.Lower(ast); err != nil {
		return fmt.Errorf(prefix+"lower %s: %w", name, err)
	}
	l.cache[name] = &compiled{resolvedWGSL: resolved}
	return nil
}

// Pipeline returns the compiled driver.Pipeline for name, building it
// lazily on first reference (resolving includes, validating with
// naga, then asking gpu to create a compute or graphics pipeline from
// the resolved WGSL via state). Subsequent calls with the same name
// return the cached pipeline without recompiling.
func (l *Library) Pipeline(gpu driver.GPU, name string, state any) (driver.Pipeline, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.cache[name]
	if !ok {
		if err := l.validateLocked(name); err != nil {
			return nil, err
		}
		c = l.cache[name]
	}
	if c.pipeline != nil {
		return c.pipeline, nil
	}
	code, err := gpu.NewShaderCode([]byte(c.resolvedWGSL))
	if err != nil {
		return nil, fmt.Errorf(prefix+"shader code %s: %w", name, err)
	}
	pipe, err := buildPipeline(gpu, code, state)
	if err != nil {
		return nil, fmt.Errorf(prefix+"pipeline %s: %w", name, err)
	}
	c.pipeline = pipe
	return pipe, nil
}

func buildPipeline(gpu driver.GPU, code driver.ShaderCode, state any) (driver.Pipeline, error) {
	switch st := state.(type) {
	case *driver.CompState:
		st.Func = driver.ShaderFunc{Code: code, Name: "main"}
		return gpu.NewPipeline(st)
	case *driver.GraphState:
		return gpu.NewPipeline(st)
	default:
		return nil, fmt.Errorf(prefix+"unsupported pipeline state type %T", state)
	}
}

// WarmLUT allocates a Size x Size x Size RGBA16f 3D driver.Image for
// a previously registered LUT and caches it by name, returning the
// cached image on later calls. The LUT's table is not copied into the
// image.
func (l *Library) WarmLUT(gpu driver.GPU, name string) (driver.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if img, ok := l.lutAttach[name]; ok {
		return img, nil
	}
	lut, ok := l.luts[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	img, err := gpu.NewImage(driver.RGBA16f, driver.Dim3D{Width: lut.Size, Height: lut.Size, Depth: lut.Size}, 1, 1, 1, driver.UShaderSample)
	if err != nil {
		return nil, fmt.Errorf(prefix+"warm LUT %s: %w", name, err)
	}
	l.lutAttach[name] = img
	return img, nil
}

// Clear invalidates every cached pipeline and LUT attachment (source
// registrations and LUT data are kept), forcing full recompilation
// and a fresh LUT image allocation on next reference.
func (l *Library) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = map[string]*compiled{}
	l.lutAttach = map[string]driver.Image{}
}
