package color

import "math"

// IDT converts a source-encoded color to scene-linear ACEScg.
type IDT func(RGB) RGB

// srgbToLinear applies the sRGB EOTF to a single channel.
func srgbToLinear(v float32) float32 {
	v64 := float64(v)
	if v64 <= 0.04045 {
		return float32(v64 / 12.92)
	}
	return float32(math.Pow((v64+0.055)/1.055, 2.4))
}

// rec709EOTF linearizes a camera-gamma Rec.709 channel by inverting
// the Rec.709 OETF: a 1/0.45 power segment above 0.081 and a linear
// toe (v/4.5) below it.
func rec709EOTF(v float32) float32 {
	v64 := float64(v)
	if v64 < 0.081 {
		return float32(v64 / 4.5)
	}
	return float32(math.Pow((v64+0.099)/1.099, 1/0.45))
}

// IDTRec709ToACEScg implements idt_rec709_to_acescg: a camera-gamma
// Rec.709 source is linearized, then converted to ACEScg.
func IDTRec709ToACEScg(c RGB) RGB {
	lin := RGB{rec709EOTF(c.R), rec709EOTF(c.G), rec709EOTF(c.B)}
	return Rec709ToACEScg(lin)
}

// IDTSRGBToACEScg implements the sRGB-encoded source variant of the
// IDT family: the sRGB EOTF is applied before the same Rec.709
// primaries conversion (sRGB and Rec.709 share primaries/white).
func IDTSRGBToACEScg(c RGB) RGB {
	lin := RGB{srgbToLinear(c.R), srgbToLinear(c.G), srgbToLinear(c.B)}
	return Rec709ToACEScg(lin)
}

// IDTLinearRec709ToACEScg implements idt_linear_rec709_to_acescg:
// the source (e.g. an EXR plate authored in linear Rec.709) is
// already linear, so only the primaries conversion applies.
func IDTLinearRec709ToACEScg(c RGB) RGB {
	return Rec709ToACEScg(c)
}

// IDTPassthrough implements the no-op IDT for sources that natively
// emit ACEScg (e.g. procedural generators already in working space).
func IDTPassthrough(c RGB) RGB { return c }

// SelectIDT returns the IDT function for a given source classification,
// per spec.md §4.2 step 2. It returns (nil, false) for encodings the
// compiler must reject with UnknownSourceEncoding rather than guess.
func SelectIDT(enc SourceEncoding) (IDT, bool) {
	switch enc {
	case Rec709Gamma:
		return IDTRec709ToACEScg, true
	case SRGB:
		return IDTSRGBToACEScg, true
	case LinearRec709:
		return IDTLinearRec709ToACEScg, true
	case ACEScg:
		return IDTPassthrough, true
	default:
		return nil, false
	}
}

// ShaderName returns the shader-library key for the IDT of the given
// source classification (spec.md §4.2 step 2 names these explicitly;
// ACEScg sources get no node at all, since the transform is a no-op).
func ShaderName(enc SourceEncoding) (name string, insertNode bool) {
	switch enc {
	case Rec709Gamma:
		return "idt_rec709_to_acescg", true
	case SRGB:
		return "idt_srgb_to_acescg", true
	case LinearRec709:
		return "idt_linear_rec709_to_acescg", true
	case ACEScg:
		return "", false
	default:
		return "", false
	}
}
