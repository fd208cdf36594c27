package wgpu

import (
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/acescore/render/driver"
)

// fakeDevice/fakeQueue/fakeEncoder/fakeComputePass/fakeBackend form a
// minimal in-memory stand-in for the hal package, grounded on the same
// embed-the-interface-and-override style texpool/sched/engine's own
// test fakes use for driver.GPU (see e.g. sched/sched_test.go's
// fakeGPU). They exist purely so this package's glue between
// driver.GPU and hal.Device/hal.Queue can be exercised without a real
// GPU driver, windows build tag, or native library.
type fakeBuffer struct{ hal.Buffer }
type fakeShaderModule struct{ hal.ShaderModule }
type fakeBindGroupLayout struct{ hal.BindGroupLayout }
type fakeBindGroup struct{ hal.BindGroup }
type fakePipelineLayout struct{ hal.PipelineLayout }
type fakeComputePipeline struct{ hal.ComputePipeline }
type fakeFence struct{ hal.Fence }
type fakeCommandBuffer struct{ hal.CommandBuffer }

type fakeComputePass struct {
	hal.ComputePassEncoder
	setPipeline int
	setGroups   []uint32
	dispatched  [3]uint32
	ended       bool
}

func (p *fakeComputePass) SetPipeline(pl hal.ComputePipeline) { p.setPipeline++ }
func (p *fakeComputePass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.setGroups = append(p.setGroups, index)
}
func (p *fakeComputePass) Dispatch(x, y, z uint32) { p.dispatched = [3]uint32{x, y, z} }
func (p *fakeComputePass) End()                    { p.ended = true }

type fakeEncoder struct {
	hal.CommandEncoder
	pass      *fakeComputePass
	copies    int
	discarded bool
}

func (e *fakeEncoder) BeginEncoding(label string) error { return nil }
func (e *fakeEncoder) BeginComputePass(desc *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	e.pass = &fakeComputePass{}
	return e.pass
}
func (e *fakeEncoder) CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy) { e.copies++ }
func (e *fakeEncoder) ClearBuffer(buffer hal.Buffer, offset, size uint64)               {}
func (e *fakeEncoder) DiscardEncoding()                                                 { e.discarded = true }
func (e *fakeEncoder) EndEncoding() (hal.CommandBuffer, error)                          { return &fakeCommandBuffer{}, nil }

type fakeQueue struct {
	hal.Queue
	submitted int
}

func (q *fakeQueue) Submit(cbs []hal.CommandBuffer, fence hal.Fence, fenceValue uint64) error {
	q.submitted++
	return nil
}

type fakeDevice struct {
	hal.Device
	lastEncoder *fakeEncoder
}

func (d *fakeDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	return &fakeBuffer{}, nil
}
func (d *fakeDevice) DestroyBuffer(buffer hal.Buffer) {}
func (d *fakeDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	return &fakeShaderModule{}, nil
}
func (d *fakeDevice) DestroyShaderModule(module hal.ShaderModule) {}
func (d *fakeDevice) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return &fakeBindGroupLayout{}, nil
}
func (d *fakeDevice) DestroyBindGroupLayout(layout hal.BindGroupLayout) {}
func (d *fakeDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	return &fakeBindGroup{}, nil
}
func (d *fakeDevice) DestroyBindGroup(group hal.BindGroup) {}
func (d *fakeDevice) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return &fakePipelineLayout{}, nil
}
func (d *fakeDevice) DestroyPipelineLayout(layout hal.PipelineLayout) {}
func (d *fakeDevice) CreateComputePipeline(desc *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	return &fakeComputePipeline{}, nil
}
func (d *fakeDevice) DestroyComputePipeline(pipeline hal.ComputePipeline) {}
func (d *fakeDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	d.lastEncoder = &fakeEncoder{}
	return d.lastEncoder, nil
}
func (d *fakeDevice) CreateFence() (hal.Fence, error) { return &fakeFence{}, nil }
func (d *fakeDevice) DestroyFence(fence hal.Fence)     {}
func (d *fakeDevice) Wait(fence hal.Fence, value uint64, timeout time.Duration) (bool, error) {
	return true, nil
}
func (d *fakeDevice) Destroy() {}

type fakeAdapter struct{ hal.Adapter }

func (a *fakeAdapter) Open(features gputypes.Features, limits gputypes.Limits) (hal.OpenDevice, error) {
	return hal.OpenDevice{Device: &fakeDevice{}, Queue: &fakeQueue{}}, nil
}

type fakeInstance struct{ hal.Instance }

func (i *fakeInstance) EnumerateAdapters(surfaceHint hal.Surface) []hal.ExposedAdapter {
	return []hal.ExposedAdapter{{Adapter: &fakeAdapter{}}}
}
func (i *fakeInstance) Destroy() {}

type fakeBackend struct{}

func (fakeBackend) Variant() gputypes.Backend { return gputypes.BackendVulkan }
func (fakeBackend) CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error) {
	return &fakeInstance{}, nil
}

func openFakeGPU(t *testing.T) (*GPU, *Driver) {
	t.Helper()
	drv := &Driver{Backend: fakeBackend{}}
	gpu, err := drv.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return gpu.(*GPU), drv
}

func TestOpenWithoutBackendFails(t *testing.T) {
	drv := &Driver{}
	if _, err := drv.Open(); err == nil {
		t.Fatal("expected error opening a driver with no Backend configured")
	}
}

func TestOpenWiresDeviceAndQueue(t *testing.T) {
	gpu, drv := openFakeGPU(t)
	defer drv.Close()
	if gpu.device == nil || gpu.queue == nil {
		t.Fatal("Open did not wire a device/queue pair")
	}
}

func TestNewBufferHonorsVisibility(t *testing.T) {
	gpu, drv := openFakeGPU(t)
	defer drv.Close()

	visible, err := gpu.NewBuffer(256, true, driver.UShaderRead)
	if err != nil {
		t.Fatalf("NewBuffer(visible): %v", err)
	}
	if visible.Bytes() == nil {
		t.Fatal("host-visible buffer should report non-nil Bytes")
	}
	if !visible.Visible() {
		t.Fatal("expected Visible() true")
	}

	hidden, err := gpu.NewBuffer(256, false, driver.UShaderRead)
	if err != nil {
		t.Fatalf("NewBuffer(hidden): %v", err)
	}
	if hidden.Bytes() != nil {
		t.Fatal("device-local buffer must report nil Bytes, matching driver.Buffer's documented contract")
	}
}

// TestComputeDispatchRecordsAndReplaysOnCommit exercises the full
// pipeline/desc-table/dispatch/commit lifecycle: NewDescHeap,
// NewDescTable, NewPipeline(*driver.CompState), SetDescTableComp,
// Dispatch, and a final Commit that must replay into a real
// hal.ComputePassEncoder and submit on the queue exactly once.
func TestComputeDispatchRecordsAndReplaysOnCommit(t *testing.T) {
	gpu, drv := openFakeGPU(t)
	defer drv.Close()

	heap, err := gpu.NewDescHeap([]driver.Descriptor{
		{Type: driver.DBuffer, Stages: driver.SCompute, Nr: 0, Len: 1},
	})
	if err != nil {
		t.Fatalf("NewDescHeap: %v", err)
	}
	if err := heap.New(1); err != nil {
		t.Fatalf("DescHeap.New: %v", err)
	}

	table, err := gpu.NewDescTable([]driver.DescHeap{heap})
	if err != nil {
		t.Fatalf("NewDescTable: %v", err)
	}

	code, err := gpu.NewShaderCode([]byte("@compute @workgroup_size(1) fn main() {}"))
	if err != nil {
		t.Fatalf("NewShaderCode: %v", err)
	}

	pl, err := gpu.NewPipeline(&driver.CompState{
		Func: driver.ShaderFunc{Code: code, Name: "main"},
		Desc: table,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	// A buffer bound into the heap so the replay step finds a real
	// bind group rather than failing on an empty one.
	buf, err := gpu.NewBuffer(64, false, driver.UShaderRead)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	heap.(*descHeap).SetBuffer(0, 0, 0, []driver.Buffer{buf}, []int64{0}, []int64{64})

	cb, err := gpu.NewCmdBuffer()
	if err != nil {
		t.Fatalf("NewCmdBuffer: %v", err)
	}
	if err := cb.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	cb.BeginWork(false)
	cb.SetPipeline(pl)
	cb.SetDescTableComp(table, 0, []int{0})
	cb.Dispatch(4, 1, 1)
	cb.EndWork()
	if err := cb.End(); err != nil {
		t.Fatalf("End: %v", err)
	}

	ch := make(chan error, 1)
	gpu.Commit([]driver.CmdBuffer{cb}, ch)
	if err := <-ch; err != nil {
		t.Fatalf("Commit: %v", err)
	}

	fd := gpu.device.(*fakeDevice)
	if fd.lastEncoder == nil || fd.lastEncoder.pass == nil {
		t.Fatal("Commit did not replay a compute pass")
	}
	if fd.lastEncoder.pass.dispatched != [3]uint32{4, 1, 1} {
		t.Fatalf("dispatch group counts = %v, want [4 1 1]", fd.lastEncoder.pass.dispatched)
	}
	if !fd.lastEncoder.pass.ended {
		t.Fatal("compute pass was never ended")
	}
	if q := gpu.queue.(*fakeQueue); q.submitted != 1 {
		t.Fatalf("queue.Submit called %d times, want 1", q.submitted)
	}
}

// TestDispatchWithUnboundHeapFailsCommit covers the descHeap-copy-not-bound
// edge case: a heap copy that never received SetBuffer/SetImage/SetSampler
// has no hal.BindGroup, and Commit must surface that as an error rather
// than submitting a broken dispatch.
func TestDispatchWithUnboundHeapFailsCommit(t *testing.T) {
	gpu, drv := openFakeGPU(t)
	defer drv.Close()

	heap, _ := gpu.NewDescHeap([]driver.Descriptor{{Type: driver.DBuffer, Stages: driver.SCompute, Len: 1}})
	heap.New(1)
	table, _ := gpu.NewDescTable([]driver.DescHeap{heap})
	code, _ := gpu.NewShaderCode([]byte("@compute @workgroup_size(1) fn main() {}"))
	pl, err := gpu.NewPipeline(&driver.CompState{Func: driver.ShaderFunc{Code: code, Name: "main"}, Desc: table})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	cb, _ := gpu.NewCmdBuffer()
	cb.Begin()
	cb.SetPipeline(pl)
	cb.SetDescTableComp(table, 0, []int{0})
	cb.Dispatch(1, 1, 1)
	cb.End()

	ch := make(chan error, 1)
	gpu.Commit([]driver.CmdBuffer{cb}, ch)
	if err := <-ch; err == nil {
		t.Fatal("expected Commit to fail on an unbound desc heap copy")
	}
}
