// Package color implements the color-pipeline invariants of spec.md
// §4.6: scene-linear ACEScg as the working space, the analytic and
// LUT-form Input/Output Device Transforms, the ΔE2000 conformance
// metric, and the PQ/Rec.2020 helpers the encode handoff needs.
//
// These are plain numeric functions operating on in-memory pixel
// buffers, not GPU kernels: they serve as the reference
// implementation that the shader library's compiled kernels must
// agree with (spec.md §8), and as the CPU-side evaluator the
// driver/refsw backend runs when no real GPU kernel is present.
package color

import "github.com/acescore/render/linear"

// SourceEncoding classifies a media source's native color encoding,
// as inferred by the graph compiler (spec.md §4.2 step 1).
type SourceEncoding int

// Source encodings.
const (
	Rec709Gamma SourceEncoding = iota
	SRGB
	LinearRec709
	ACEScg
)

// DisplayTarget selects the terminal ODT family (spec.md §4.2 step 4).
type DisplayTarget int

// Display targets.
const (
	SDRRec709 DisplayTarget = iota
	HDRPQ1000
)

// RGB is a working-space (or display-encoded) color triple.
type RGB struct{ R, G, B float32 }

func (c RGB) vec() linear.V3 { return linear.V3{c.R, c.G, c.B} }
func fromVec(v linear.V3) RGB { return RGB{v[0], v[1], v[2]} }

func mulM3(m *linear.M3, c RGB) RGB {
	v := c.vec()
	var out linear.V3
	out.Mul(m, &v)
	return fromVec(out)
}

// Primary conversion matrices. Coefficients follow the published
// ACES primary-conversion constants (AP0/AP1 <-> CIE XYZ, and the
// standard Rec.709/Rec.2020 RGB<->XYZ pairs), expressed column-major
// to match linear.M3's convention (m[col][row]).

// rec709ToXYZ converts linear Rec.709 (D65) to CIE XYZ.
var rec709ToXYZ = linear.M3{
	{0.4124564, 0.2126729, 0.0193339},
	{0.3575761, 0.7151522, 0.1191920},
	{0.1804375, 0.0721750, 0.9503041},
}

// xyzToAP1 converts CIE XYZ (D65) to ACEScg's AP1 primaries (D60),
// via the Bradford-adapted ACES XYZ<->AP1 matrix.
var xyzToAP1 = linear.M3{
	{1.6410234, -0.6636629, 0.0117219},
	{-0.3248033, 1.6153316, -0.0082844},
	{-0.2364247, 0.0167563, 0.9883949},
}

// ap1ToXYZ is the inverse of xyzToAP1.
var ap1ToXYZ = linear.M3{
	{0.6624541811, 0.2722287168, -0.0055746495},
	{0.1340042065, 0.6740817658, 0.0040607335},
	{0.1561876870, 0.0536895174, 1.0103391003},
}

// xyzToRec709 is the inverse of rec709ToXYZ.
var xyzToRec709 = linear.M3{
	{3.2404542, -0.9692660, 0.0556434},
	{-1.5371385, 1.8760108, -0.2040259},
	{-0.4985314, 0.0415560, 1.0572252},
}

// xyzToRec2020 converts CIE XYZ (D65) to linear Rec.2020.
var xyzToRec2020 = linear.M3{
	{1.7166512, -0.6666844, 0.0176399},
	{-0.3556708, 1.6164812, -0.0427706},
	{-0.2533663, 0.0157685, 0.9421031},
}

// Rec709ToACEScg converts linear Rec.709 (D65) to scene-linear
// ACEScg (AP1, D60).
func Rec709ToACEScg(c RGB) RGB {
	xyz := mulM3(&rec709ToXYZ, c)
	return mulM3(&xyzToAP1, xyz)
}

// ACEScgToRec709 converts scene-linear ACEScg back to linear
// Rec.709 (D65). Used by the analytic SDR ODT prior to the display
// gamma encode.
func ACEScgToRec709(c RGB) RGB {
	xyz := mulM3(&ap1ToXYZ, c)
	return mulM3(&xyzToRec709, xyz)
}

// ACEScgToRec2020 converts scene-linear ACEScg to linear Rec.2020.
// Used by the analytic PQ1000 ODT prior to the PQ encode.
func ACEScgToRec2020(c RGB) RGB {
	xyz := mulM3(&ap1ToXYZ, c)
	return mulM3(&xyzToRec2020, xyz)
}

// Rec2020Luma returns the Rec.2020 relative luminance of a linear
// Rec.2020 triple, per spec.md §8 scenario 3 (monotonicity check).
func Rec2020Luma(c RGB) float32 {
	return 0.2627*c.R + 0.6780*c.G + 0.0593*c.B
}

func clamp01(x float32) float32 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

func clampRGB01(c RGB) RGB { return RGB{clamp01(c.R), clamp01(c.G), clamp01(c.B)} }
