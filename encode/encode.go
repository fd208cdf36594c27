// Package encode implements the Encode Handoff of spec.md §4.7: the
// stage that converts the render graph's root texture into the
// bitstream a codec backend expects, and the frame-pacing contract
// that bounds how many frames may be in flight at once.
package encode

import (
	"github.com/acescore/render/color"
)

const prefix = "encode: "

// FrameFormat selects the packed pixel layout the handoff produces.
type FrameFormat int

// Frame formats.
const (
	FormatBGRA8 FrameFormat = iota
	FormatYUV10Biplanar
)

// BandingMitigation selects the dithering policy (spec.md §6).
type BandingMitigation int

// Banding mitigation policies.
const (
	BandingAuto BandingMitigation = iota
	BandingNone
	BandingDither
)

// resolve returns whether dithering is active for a given format
// under the policy, applying the default (on for 8-bit, off for
// 10-bit) when the policy is Auto.
func (b BandingMitigation) resolve(format FrameFormat) bool {
	switch b {
	case BandingDither:
		return true
	case BandingNone:
		return false
	default: // BandingAuto
		return format == FormatBGRA8
	}
}

// Options configures a single handoff invocation.
type Options struct {
	Target             color.DisplayTarget
	Tunables           color.PQTunables
	Format             FrameFormat
	RootIsSceneLinear  bool
	BypassColorConvert bool
	Banding            BandingMitigation
	DumpRawFrame       bool
}

// ColorMetadata is attached to the produced pixel-buffer stream so
// the external encoder tags the container correctly (spec.md §6).
type ColorMetadata struct {
	ColorPrimaries string
	TransferFunc   string
	YCbCrMatrix    string
}

// metadataFor returns the color metadata spec.md §6 requires for a
// given display target.
func metadataFor(target color.DisplayTarget) ColorMetadata {
	switch target {
	case color.HDRPQ1000:
		return ColorMetadata{ColorPrimaries: "bt2020", TransferFunc: "smpte2084", YCbCrMatrix: "bt2020nc"}
	default:
		return ColorMetadata{ColorPrimaries: "bt709", TransferFunc: "bt709", YCbCrMatrix: "bt709"}
	}
}

// Frame is the handoff's output: the packed pixel bytes for the
// selected format plus the metadata the external encoder attaches to
// the container.
type Frame struct {
	Format   FrameFormat
	Width    int
	Height   int
	BGRA8    []byte // valid when Format == FormatBGRA8
	Y        []byte // valid when Format == FormatYUV10Biplanar (full res, r16)
	UV       []byte // valid when Format == FormatYUV10Biplanar (half res, rg16 interleaved)
	Metadata ColorMetadata
}

// Handoff converts linear (scene-referred) RGBA pixels at the graph
// root into a Frame ready for a CodecBackend, implementing the two
// conversion stages of spec.md §4.7. linearRGBA is a flat, row-major
// float32 buffer (4 floats/pixel).
func Handoff(linearRGBA []float32, w, h int, opt Options) (*Frame, error) {
	gamma, err := applyDisplayGamma(linearRGBA, w, h, opt)
	if err != nil {
		return nil, err
	}

	f := &Frame{Format: opt.Format, Width: w, Height: h, Metadata: metadataFor(opt.Target)}
	dither := opt.Banding.resolve(opt.Format)
	switch opt.Format {
	case FormatYUV10Biplanar:
		f.Y, f.UV = packYUV10Biplanar(gamma, w, h)
	default:
		f.BGRA8 = packBGRA8(gamma, w, h, dither)
	}
	return f, nil
}
