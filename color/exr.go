package color

import "math"

// Float16Max is the largest finite value representable in IEEE
// binary16 (Float16), used as the sanitization clamp target for
// HDR EXR ingest (spec.md §4.6(5)).
const Float16Max float32 = 65504.0

// SanitizeHDR implements the EXR-ingest sanitization rule: NaN and
// +/-Inf become 0, and finite magnitudes beyond Float16 range are
// clamped to Float16Max (sign-preserving). Every external EXR asset
// callback must apply this per-channel before a texture reaches the
// graph (spec.md §6 "Media assets").
func SanitizeHDR(v float32) float32 {
	switch {
	case math.IsNaN(float64(v)):
		return 0
	case math.IsInf(float64(v), 0):
		return 0
	case v > Float16Max:
		return Float16Max
	case v < -Float16Max:
		return -Float16Max
	default:
		return v
	}
}

// SanitizeHDRPixels applies SanitizeHDR in place to a flat RGBA
// float32 buffer (len must be a multiple of 4).
func SanitizeHDRPixels(px []float32) {
	for i := range px {
		px[i] = SanitizeHDR(px[i])
	}
}
