package color

import "math"

// Lab is a CIE L*a*b* color, used only for ΔE2000 computation.
type Lab struct{ L, A, B float64 }

// d65White is the CIE XYZ white point used for Lab conversion,
// matching the Rec.709/sRGB reference white.
var d65White = [3]float64{95.047, 100.0, 108.883}

func labF(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

// RGBToLab converts a display-encoded (gamma Rec.709/sRGB-range)
// RGB triple in [0,1] to CIE L*a*b*, via CIE XYZ (D65).
func RGBToLab(c RGB) Lab {
	// Display-encoded values feed the standard sRGB-primaries
	// RGB->XYZ matrix directly (Rec.709 and sRGB share primaries).
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	x := 0.4124564*r + 0.3575761*g + 0.1804375*b
	y := 0.2126729*r + 0.7151522*g + 0.0721750*b
	z := 0.0193339*r + 0.1191920*g + 0.9503041*b
	x, y, z = x*100, y*100, z*100

	fx := labF(x / d65White[0])
	fy := labF(y / d65White[1])
	fz := labF(z / d65White[2])

	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// DeltaE2000 computes the CIEDE2000 color-difference metric between
// two Lab colors, per spec.md §4.6(3)/§8.
func DeltaE2000(a, b Lab) float64 {
	const rad = math.Pi / 180

	avgL := (a.L + b.L) / 2
	c1 := math.Hypot(a.A, a.B)
	c2 := math.Hypot(b.A, b.B)
	avgC := (c1 + c2) / 2

	g := 0.5 * (1 - math.Sqrt(math.Pow(avgC, 7)/(math.Pow(avgC, 7)+math.Pow(25, 7))))
	a1p := a.A * (1 + g)
	a2p := b.A * (1 + g)

	c1p := math.Hypot(a1p, a.B)
	c2p := math.Hypot(a2p, b.B)
	avgCp := (c1p + c2p) / 2

	h1p := hueAngle(a1p, a.B)
	h2p := hueAngle(a2p, b.B)

	var deltaHp float64
	switch {
	case c1p*c2p == 0:
		deltaHp = 0
	case math.Abs(h1p-h2p) <= 180:
		deltaHp = h2p - h1p
	case h2p-h1p > 180:
		deltaHp = h2p - h1p - 360
	default:
		deltaHp = h2p - h1p + 360
	}

	deltaLp := b.L - a.L
	deltaCp := c2p - c1p
	deltaHBig := 2 * math.Sqrt(c1p*c2p) * math.Sin(deltaHp*rad/2)

	var avgHp float64
	switch {
	case c1p*c2p == 0:
		avgHp = h1p + h2p
	case math.Abs(h1p-h2p) <= 180:
		avgHp = (h1p + h2p) / 2
	case h1p+h2p < 360:
		avgHp = (h1p+h2p+360)/2
	default:
		avgHp = (h1p+h2p-360)/2
	}

	t := 1 - 0.17*math.Cos((avgHp-30)*rad) + 0.24*math.Cos(2*avgHp*rad) +
		0.32*math.Cos((3*avgHp+6)*rad) - 0.20*math.Cos((4*avgHp-63)*rad)

	deltaTheta := 30 * math.Exp(-math.Pow((avgHp-275)/25, 2))
	rc := 2 * math.Sqrt(math.Pow(avgCp, 7)/(math.Pow(avgCp, 7)+math.Pow(25, 7)))
	sl := 1 + (0.015*math.Pow(avgL-50, 2))/math.Sqrt(20+math.Pow(avgL-50, 2))
	sc := 1 + 0.045*avgCp
	sh := 1 + 0.015*avgCp*t
	rt := -math.Sin(2*deltaTheta*rad) * rc

	return math.Sqrt(
		math.Pow(deltaLp/sl, 2) +
			math.Pow(deltaCp/sc, 2) +
			math.Pow(deltaHBig/sh, 2) +
			rt*(deltaCp/sc)*(deltaHBig/sh),
	)
}

func hueAngle(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	h := math.Atan2(b, a) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return h
}
