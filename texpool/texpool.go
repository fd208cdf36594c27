// Package texpool implements the transient texture pool that the
// scheduler draws from when executing a compiled render graph: nodes
// declare an output descriptor, the pool hands back a matching
// previously-retired image where one exists, and otherwise allocates
// a fresh one from the active driver.GPU.
package texpool

import (
	"fmt"
	"sync"

	"github.com/acescore/render/driver"
	"github.com/acescore/render/internal/bitvec"
)

const prefix = "texpool: "

// Descriptor is the equality key the pool matches images against:
// two requests with equal descriptors may share the same underlying
// driver.Image.
type Descriptor struct {
	Width, Height int
	Format        driver.PixelFmt
	Usage         driver.Usage
	HostVisible   bool
}

// UsageMismatchError describes a retired image whose size and format
// match a request but whose usage flags differ from it. Acquire does
// not return it: it passes over such an image and allocates a fresh
// one, so the pool never hands back an image with other usage flags.
type UsageMismatchError struct {
	Want, Have driver.Usage
}

func (e *UsageMismatchError) Error() string {
	return fmt.Sprintf(prefix+"usage mismatch: want %v, have %v", e.Want, e.Have)
}

// entry tracks one allocated image and its current descriptor.
type entry struct {
	desc Descriptor
	img  driver.Image
	// idleFrames is 0 while the entry is idle and -1 while it is
	// checked out (in use); nothing in the pool advances it past 0.
	idleFrames int
}

// Handle is an opaque reference returned by Acquire; pass it to
// Release when the node that requested it has finished using the
// image (i.e. after its last reader in the graph has executed).
type Handle struct {
	index int
}

// Pool is the transient texture pool described by spec.md §5: nodes
// acquire a descriptor-matched image at dispatch time and release it
// once their output's last reader has executed, so the pool never
// holds more live images than the graph's actual concurrent footprint
// requires.
type Pool struct {
	mu      sync.Mutex
	gpu     driver.GPU
	entries []entry
	inUse   bitvec.V[uint64]
	budget  int64 // soft byte budget; 0 means unconstrained
}

// New creates a texture pool bound to the given GPU.
func New(gpu driver.GPU) *Pool {
	return &Pool{gpu: gpu}
}

func byteSize(d Descriptor) int64 {
	bpp := BytesPerPixel(d.Format)
	return int64(d.Width) * int64(d.Height) * bpp
}

// BytesPerPixel returns the storage size of one pixel in f. Exported
// so callers outside this package (sched's readback staging blit) can
// size a host-visible buffer for a given image format without
// duplicating this table.
func BytesPerPixel(f driver.PixelFmt) int64 {
	switch f {
	case driver.R8un, driver.R8n, driver.S8ui:
		return 1
	case driver.RG8un, driver.RG8n, driver.D16un:
		return 2
	case driver.RGBA8un, driver.RGBA8n, driver.RGBA8sRGB,
		driver.BGRA8un, driver.BGRA8sRGB, driver.D32f,
		driver.D24unS8ui, driver.R32f:
		return 4
	case driver.RG16f, driver.D32fS8ui:
		return 4
	case driver.R16f:
		return 2
	case driver.RGBA16f, driver.RG32f:
		return 8
	case driver.RGBA32f:
		return 16
	default:
		return 4
	}
}

// Acquire returns an image satisfying desc, reusing a retired entry
// when one with an equal descriptor is idle, or allocating a new one
// from the GPU otherwise.
func (p *Pool) Acquire(desc Descriptor) (driver.Image, Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.entries {
		e := &p.entries[i]
		if e.idleFrames < 0 {
			continue // checked out
		}
		if e.desc.Width != desc.Width || e.desc.Height != desc.Height || e.desc.Format != desc.Format {
			continue
		}
		if e.desc.Usage != desc.Usage || e.desc.HostVisible != desc.HostVisible {
			// Usage flags and host visibility must match exactly:
			// refuse rather than hand back an image whose usage
			// differs from what the caller asked for.
			continue
		}
		e.idleFrames = -1
		p.inUse.Set(i)
		return e.img, Handle{index: i}, nil
	}

	img, err := p.gpu.NewImage(desc.Format, driver.Dim3D{Width: desc.Width, Height: desc.Height, Depth: 1}, 1, 1, 1, desc.Usage)
	if err != nil {
		return nil, Handle{}, fmt.Errorf(prefix+"allocate %dx%d: %w", desc.Width, desc.Height, err)
	}
	idx := len(p.entries)
	p.entries = append(p.entries, entry{desc: desc, img: img, idleFrames: -1})
	if idx >= p.inUse.Len() {
		p.inUse.Grow(1)
	}
	p.inUse.Set(idx)
	return img, Handle{index: idx}, nil
}

// Release returns an image to the pool for reuse by a later node in
// the same or a later frame. It does not destroy the underlying GPU
// resource.
func (p *Pool) Release(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h.index < 0 || h.index >= len(p.entries) {
		return
	}
	p.entries[h.index].idleFrames = 0
	p.inUse.Unset(h.index)
}

// SetBudget sets a soft byte budget enforced by ShrinkToBudget. A
// value of 0 disables the budget.
func (p *Pool) SetBudget(bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.budget = bytes
}

// InUseCount reports how many entries are currently checked out.
func (p *Pool) InUseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries) - p.inUse.Rem()
}

// totalBytes sums the byte footprint of every entry, in or out of use.
func (p *Pool) totalBytes() int64 {
	var n int64
	for _, e := range p.entries {
		n += byteSize(e.desc)
	}
	return n
}

// ShrinkToBudget destroys idle entries, largest first, until the
// pool's total footprint is at or under budget (or every idle entry
// has been freed). In-use entries are never touched.
func (p *Pool) ShrinkToBudget(budget int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shrinkLocked(budget)
}

func (p *Pool) shrinkLocked(budget int64) {
	for p.totalBytes() > budget {
		victim := -1
		var victimSize int64
		for i, e := range p.entries {
			if e.idleFrames < 0 {
				continue
			}
			sz := byteSize(e.desc)
			if sz > victimSize {
				victim = i
				victimSize = sz
			}
		}
		if victim < 0 {
			return // nothing idle left to free
		}
		p.destroyLocked(victim)
	}
}

func (p *Pool) destroyLocked(i int) {
	p.entries[i].img.Destroy()
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
	// Rebuild the in-use bit vector: indices shift on removal and
	// bitvec.V has no splice primitive, so this is simplest done by
	// replaying the remaining entries' state.
	p.inUse = bitvec.V[uint64]{}
	if len(p.entries) > 0 {
		p.inUse.Grow((len(p.entries) + 63) / 64)
		for idx, e := range p.entries {
			if e.idleFrames < 0 {
				p.inUse.Set(idx)
			}
		}
	}
}

// HandleMemoryPressure is the callback the scheduler wires into the
// host's memory-pressure signal (spec.md §5): it aggressively shrinks
// the pool to half its current footprint, freeing idle entries before
// any in-flight frame would otherwise fail to allocate.
func (p *Pool) HandleMemoryPressure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shrinkLocked(p.totalBytes() / 2)
}

// Len reports the total number of tracked entries (in use or idle).
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
