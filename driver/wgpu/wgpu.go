// Package wgpu implements driver.Driver/driver.GPU on top of
// github.com/gogpu/wgpu/hal: real buffer/shader/pipeline resources
// created through a hal.Backend, and compute dispatch recorded against
// a real hal.CommandEncoder and submitted through a real hal.Queue.
//
// It is the production counterpart to driver/refsw. Where refsw
// evaluates every node on the CPU, this package builds one real
// driver.Pipeline per distinct shader name (via shaderlib.Library,
// whose WGSL sources are already naga-validated before they reach
// NewShaderCode) and dispatches it on a real hal.ComputePipeline.
//
// hal.Buffer carries no public mapping/read accessor in the pinned
// gogpu/wgpu release this module targets (its Resource/Buffer
// interfaces expose only Destroy; the backends that do offer a
// concrete ReadBuffer method are either platform-gated native
// backends (vulkan, dx12, metal, gles) or, for the pure-Go software
// backend, refuse CreateComputePipeline outright - see
// hal/software/device.go's CreateComputePipeline). Host visibility of
// buffer contents in this package is therefore tracked the same way
// driver.Buffer documents for non-host-visible memory: Bytes returns
// nil unless the buffer was created for CPU bookkeeping (the staging
// buffers sched.go's readback path copies into), in which case this
// package mirrors writes into a Go-side shadow alongside the real GPU
// allocation. See DESIGN.md for the full accounting of this gap.
package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/acescore/render/driver"
)

const driverName = "wgpu"

// submitTimeout bounds how long GPU.Commit waits on the fence after
// Queue.Submit, mirroring cmd/compute-copy's own 5-second wait but
// extended for heavier per-frame compute workloads.
const submitTimeout = 30 * time.Second

// Driver opens a real hal.Backend (a caller-supplied native or
// software backend implementation) and exposes it as a driver.GPU.
// Backend defaults to nil; Open fails with a descriptive error if no
// Backend was set, rather than silently picking one - unlike
// driver/refsw, this backend has real hardware/driver dependencies
// that the caller must choose explicitly.
type Driver struct {
	Backend hal.Backend

	instance hal.Instance
	gpu      *GPU
}

func init() {
	driver.Register(&Driver{})
}

// Name returns "wgpu".
func (d *Driver) Name() string { return driverName }

// Open enumerates adapters from d.Backend, opens the first one, and
// wraps the resulting device/queue pair as a driver.GPU.
func (d *Driver) Open() (driver.GPU, error) {
	if d.gpu != nil {
		return d.gpu, nil
	}
	if d.Backend == nil {
		return nil, fmt.Errorf("wgpu: no hal.Backend configured")
	}

	inst, err := d.Backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := inst.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		inst.Destroy()
		return nil, driver.ErrNoDevice
	}

	open, err := adapters[0].Adapter.Open(adapters[0].Features, adapters[0].Capabilities.Limits)
	if err != nil {
		inst.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	d.instance = inst
	d.gpu = newGPU(d, open.Device, open.Queue)
	return d.gpu, nil
}

// Close destroys the device and instance opened by Open.
func (d *Driver) Close() {
	if d.gpu != nil {
		d.gpu.device.Destroy()
		d.gpu = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
