package refsw

import (
	"encoding/binary"
	"math"

	"github.com/acescore/render/driver"
)

// bytesPerPixel mirrors texpool's format/size table for the small set
// of formats this backend actually allocates: the compiler's fullSpec
// nodes (RGBA32f), warmed LUT textures (RGBA16f), and packed encode
// handoff previews (BGRA8un), should a caller round-trip one through
// an Image for inspection.
func bytesPerPixel(f driver.PixelFmt) int {
	switch f {
	case driver.RGBA32f:
		return 16
	case driver.RGBA16f:
		return 8
	case driver.BGRA8un, driver.BGRA8sRGB, driver.RGBA8un, driver.RGBA8n, driver.RGBA8sRGB:
		return 4
	default:
		return 4
	}
}

// image is a CPU-resident pixel buffer: Pix holds raw little-endian
// bytes, already in the layout driver.Image readers (sched's readback,
// engine's bytesToRGBAFloat32) expect for RGBA32f.
type image struct {
	w, h   int
	format driver.PixelFmt
	Pix    []byte
}

func newImage(format driver.PixelFmt, w, h int) *image {
	return &image{w: w, h: h, format: format, Pix: make([]byte, w*h*bytesPerPixel(format))}
}

func (im *image) Destroy() {}

func (im *image) NewView(typ driver.ViewType, layer, layers, level, levels int) (driver.ImageView, error) {
	return &view{}, nil
}

// Bytes satisfies sched.go's directReadback capability, letting this
// backend's images skip the staging-buffer blit a real GPU backend
// needs.
func (im *image) Bytes() []byte { return im.Pix }

// RGBA reads pixel (x, y) as four float32 channels, assuming an
// RGBA32f-format image (true of every node the compiler builds).
func (im *image) RGBA(x, y int) [4]float32 {
	off := (y*im.w + x) * 16
	var c [4]float32
	for i := 0; i < 4; i++ {
		bits := binary.LittleEndian.Uint32(im.Pix[off+i*4:])
		c[i] = math.Float32frombits(bits)
	}
	return c
}

// SetRGBA writes pixel (x, y) as four float32 channels.
func (im *image) SetRGBA(x, y int, c [4]float32) {
	off := (y*im.w + x) * 16
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(im.Pix[off+i*4:], math.Float32bits(c[i]))
	}
}

type view struct{}

func (v *view) Destroy() {}
