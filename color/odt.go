package color

import "math"

// ODT converts a scene-linear ACEScg color to a display-encoded
// color for a specific DisplayTarget.
type ODT func(RGB) RGB

// rec709OETF applies the Rec.709 OETF (camera gamma) to a single
// linear channel, clamped to [0,1] domain/range.
func rec709OETF(v float32) float32 {
	v64 := float64(clamp01(v))
	if v64 < 0.018 {
		return float32(4.5 * v64)
	}
	return float32(1.099*math.Pow(v64, 0.45) - 0.099)
}

// rrtShoulder is a simple filmic shoulder used by the analytic SDR
// ODT to roll off highlights before the Rec.709 OETF, patterned
// after the ACES RRT's global tonemap shape: the rational curve
// x(ax+b) / (x(cx+d)+e) with fixed constants a..e, clamped to [0,1].
func rrtShoulder(x float32) float32 {
	const a = 2.51
	const b = 0.03
	const c = 2.43
	const d = 0.59
	const e = 0.14
	num := x * (a*x + b)
	den := x*(c*x+d) + e
	if den == 0 {
		return 0
	}
	return clamp01(num / den)
}

// ODTACEScgToRec709 implements odt_acescg_to_rec709: the analytic
// SDR Output Device Transform, full range.
func ODTACEScgToRec709(c RGB) RGB {
	lin := ACEScgToRec709(c)
	toned := RGB{rrtShoulder(lin.R), rrtShoulder(lin.G), rrtShoulder(lin.B)}
	return RGB{rec709OETF(toned.R), rec709OETF(toned.G), rec709OETF(toned.B)}
}

// studio range constants (SMPTE legal range within a [0,1]-coded
// signal): black at 16/255, white at 235/255.
const (
	studioBlack = 16.0 / 255.0
	studioWhite = 235.0 / 255.0
)

// ODTACEScgToRec709Studio implements odt_acescg_to_rec709_studio:
// the same analytic transform, re-quantized to studio (legal) range.
func ODTACEScgToRec709Studio(c RGB) RGB {
	full := ODTACEScgToRec709(c)
	scale := float32(studioWhite - studioBlack)
	return RGB{
		full.R*scale + studioBlack,
		full.G*scale + studioBlack,
		full.B*scale + studioBlack,
	}
}

// ODTACEScgToPQ1000 implements odt_acescg_to_pq1000: the analytic
// HDR Output Device Transform targeting a 1000 cd/m^2 PQ display,
// using the tuned highlight-handling coefficients from t.
func ODTACEScgToPQ1000(t PQTunables) ODT {
	return func(c RGB) RGB {
		rec2020 := ACEScgToRec2020(c)
		luma := Rec2020Luma(rec2020)

		// Desaturate highlights above reference white by blending
		// towards the achromatic luma, proportional to how far the
		// max channel exceeds 1.0.
		maxCh := rec2020.R
		if rec2020.G > maxCh {
			maxCh = rec2020.G
		}
		if rec2020.B > maxCh {
			maxCh = rec2020.B
		}
		over := maxCh - 1
		if over < 0 {
			over = 0
		}
		desat := clamp01(over * t.HighlightDesat)
		blended := RGB{
			lerp(rec2020.R, luma, desat*t.GamutCompress),
			lerp(rec2020.G, luma, desat*t.GamutCompress),
			lerp(rec2020.B, luma, desat*t.GamutCompress),
		}

		scaled := RGB{blended.R * t.PQScale, blended.G * t.PQScale, blended.B * t.PQScale}
		encoded := RGB{PQEncode(scaled.R), PQEncode(scaled.G), PQEncode(scaled.B)}
		return clampRGB01(encoded)
	}
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

// SelectODT resolves the analytic ODT function for a display target,
// per spec.md §4.2 step 4.
func SelectODT(target DisplayTarget, t PQTunables) (ODT, error) {
	switch target {
	case SDRRec709:
		return ODTACEScgToRec709Studio, nil
	case HDRPQ1000:
		return ODTACEScgToPQ1000(t), nil
	default:
		return nil, &NoDisplayTransformError{Target: target}
	}
}

// NoDisplayTransformError means the compiler has no ODT registered
// for the requested display target.
type NoDisplayTransformError struct{ Target DisplayTarget }

func (e *NoDisplayTransformError) Error() string {
	return "color: no display transform for target"
}

// ShaderName returns the shader-library key for the analytic ODT of
// a display target.
func (d DisplayTarget) ShaderName() string {
	switch d {
	case SDRRec709:
		return "odt_acescg_to_rec709_studio"
	case HDRPQ1000:
		return "odt_acescg_to_pq1000"
	default:
		return ""
	}
}

// LUTName returns the committed 3D-LUT resource name for a display
// target, per spec.md §4.2 step 4.
func (d DisplayTarget) LUTName() string {
	switch d {
	case SDRRec709:
		return "ACES13_SDR_sRGB_33"
	case HDRPQ1000:
		return "ACES13_HDR_PQ1000_33"
	default:
		return ""
	}
}
