// Package refsw implements driver.Driver/driver.GPU entirely in CPU
// memory: images are plain byte slices of little-endian RGBA32f
// pixels, command buffers
// only record that Begin/End were called in order, and Commit runs
// its command buffers' already-completed work synchronously. It has
// no dependency on any graphics API and exists strictly for tests and
// conformance checks (spec.md §9 resolves the "no non-GPU fallback in
// production" non-goal by scoping any CPU path to here, never to
// driver/wgpu's production path).
//
// Pair refsw.GPU with refsw.Exec (a sched.NodeExecutor) to run a
// compiled graph.Graph end to end without a real GPU: Exec evaluates
// the fixed color-pipeline kernels (source read, IDT, ODT, LUT apply,
// resize, composite, text overlay) against the color package's CPU
// reference functions, which is exactly what color/space.go's package
// doc describes those functions as being for.
package refsw

import "github.com/acescore/render/driver"

const driverName = "refsw"

// Driver registers the CPU reference backend with the driver package
// so test code can select it via driver.Drivers() the same way a
// production caller selects driver/wgpu, rather than importing refsw
// types directly everywhere.
type Driver struct {
	gpu *GPU
}

func init() {
	driver.Register(&Driver{})
}

// Name returns "refsw".
func (d *Driver) Name() string { return driverName }

// Open returns the singleton CPU GPU instance, creating it on first
// call.
func (d *Driver) Open() (driver.GPU, error) {
	if d.gpu == nil {
		d.gpu = newGPU(d)
	}
	return d.gpu, nil
}

// Close releases the CPU GPU instance. A subsequent Open creates a
// fresh one.
func (d *Driver) Close() { d.gpu = nil }
