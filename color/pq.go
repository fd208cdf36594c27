package color

import "math"

// SMPTE ST 2084 (PQ) constants.
const (
	pqM1 = 2610.0 / 16384.0
	pqM2 = 2523.0 / 4096.0 * 128.0
	pqC1 = 3424.0 / 4096.0
	pqC2 = 2413.0 / 4096.0 * 32.0
	pqC3 = 2392.0 / 4096.0 * 32.0
)

// PQEncode applies the ST 2084 OETF to a linear sample normalized
// such that 1.0 corresponds to 10,000 cd/m^2.
func PQEncode(linear float32) float32 {
	l := float64(linear)
	if l < 0 {
		l = 0
	}
	lm1 := math.Pow(l, pqM1)
	num := pqC1 + pqC2*lm1
	den := 1 + pqC3*lm1
	return float32(math.Pow(num/den, pqM2))
}

// PQDecode applies the ST 2084 EOTF (inverse of PQEncode).
func PQDecode(encoded float32) float32 {
	e := float64(encoded)
	if e < 0 {
		e = 0
	}
	em := math.Pow(e, 1/pqM2)
	num := em - pqC1
	if num < 0 {
		num = 0
	}
	den := pqC2 - pqC3*em
	return float32(math.Pow(num/den, 1/pqM1))
}

// PQTunables are the tunable coefficients of the analytic PQ ODT's
// highlight handling, per the Open Question in spec.md §9: they
// must be named parameters on the tuned-kernel path, never silent
// magic numbers.
type PQTunables struct {
	// PQScale maps scene-linear 1.0 (reference white) to a target
	// luminance, expressed as a fraction of the 10,000 cd/m^2 PQ
	// code-value range (e.g. 0.1 == 1000 cd/m^2 peak, "PQ1000").
	PQScale float32
	// HighlightDesat pulls saturation out of values above 1.0 to
	// soften gamut clipping near the display's peak.
	HighlightDesat float32
	// GamutCompress blends towards Rec.2020 luma as magnitude grows,
	// keeping the compressed result in-gamut.
	GamutCompress float32
}

// DefaultPQTunables is the committed "tuned defaults" constant for
// the PQ1000 target.
var DefaultPQTunables = PQTunables{
	PQScale:        0.1,
	HighlightDesat: 0.35,
	GamutCompress:  0.6,
}
