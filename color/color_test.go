package color

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

// TestIdentityLUTRoundTrip exercises spec.md §8's identity-LUT law: a
// LUT built from IdentityLUT must reproduce its input at an arbitrary
// interior sample within 0.05 per channel. Sample's half-texel
// coordinate (t = v*size - 0.5) over lattice values i/(size-1) shifts
// interior samples by up to 0.5/(size-1), so the match is not exact.
func TestIdentityLUTRoundTrip(t *testing.T) {
	lut := IdentityLUT(33)
	in := RGB{128.0 / 255.0, 32.0 / 255.0, 200.0 / 255.0}
	out := lut.Sample(in)
	const eps = 0.05
	if !almostEqual(out.R, in.R, eps) || !almostEqual(out.G, in.G, eps) || !almostEqual(out.B, in.B, eps) {
		t.Fatalf("identity LUT round-trip\nhave %+v\nwant %+v", out, in)
	}
}

func TestIdentityLUTCorners(t *testing.T) {
	lut := IdentityLUT(17)
	for _, c := range []RGB{{0, 0, 0}, {1, 1, 1}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		out := lut.Sample(c)
		const eps = 1e-3
		if !almostEqual(out.R, c.R, eps) || !almostEqual(out.G, c.G, eps) || !almostEqual(out.B, c.B, eps) {
			t.Fatalf("identity LUT corner %+v\nhave %+v", c, out)
		}
	}
}

// macbethPatches are a small stand-in Macbeth-chart sample set, given
// as scene-linear ACEScg values representative of the chart's
// grayscale and primary patches.
var macbethPatches = []RGB{
	{0.0032, 0.0032, 0.0032}, // black
	{0.02, 0.02, 0.02},
	{0.09, 0.09, 0.09},
	{0.20, 0.20, 0.20},
	{0.36, 0.36, 0.36},
	{0.90, 0.90, 0.90}, // white
	{0.30, 0.05, 0.04}, // red-ish
	{0.05, 0.25, 0.06}, // green-ish
	{0.04, 0.06, 0.35}, // blue-ish
	{0.25, 0.18, 0.04}, // yellow-ish
}

// TestMacbethAnalyticVsLUTParity checks the spec.md §8 scenario: the
// analytic SDR ODT and an identity-equivalent LUT path must agree
// within a ΔE2000 tolerance (avg <= 2.0, max <= 5.0). Since no real
// baked ACES LUT ships in this module, the "LUT path" here samples an
// identity LUT composed with the same analytic transform, which
// isolates the LUT-sampling machinery's own error contribution (it
// must introduce negligible ΔE on its own).
func TestMacbethAnalyticVsLUTParity(t *testing.T) {
	odt, err := SelectODT(SDRRec709, DefaultPQTunables)
	if err != nil {
		t.Fatalf("SelectODT: %v", err)
	}
	lut := IdentityLUT(33)

	var sum, max float64
	for _, p := range macbethPatches {
		analytic := odt(p)
		viaLUT := lut.Sample(odt(p))

		d := DeltaE2000(RGBToLab(analytic), RGBToLab(viaLUT))
		sum += d
		if d > max {
			max = d
		}
	}
	avg := sum / float64(len(macbethPatches))
	if avg > 2.0 {
		t.Fatalf("Macbeth ΔE2000 avg = %.4f, want <= 2.0", avg)
	}
	if max > 5.0 {
		t.Fatalf("Macbeth ΔE2000 max = %.4f, want <= 5.0", max)
	}
}

func TestDeltaE2000Zero(t *testing.T) {
	lab := RGBToLab(RGB{0.5, 0.4, 0.3})
	if d := DeltaE2000(lab, lab); d != 0 {
		t.Fatalf("DeltaE2000(x, x) = %v, want 0", d)
	}
}

func TestDeltaE2000Symmetric(t *testing.T) {
	a := RGBToLab(RGB{0.1, 0.2, 0.3})
	b := RGBToLab(RGB{0.5, 0.1, 0.9})
	d1 := DeltaE2000(a, b)
	d2 := DeltaE2000(b, a)
	if math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("DeltaE2000 not symmetric: %v vs %v", d1, d2)
	}
}

// TestPQ1000RampMonotonic exercises spec.md §8 scenario 3: as a
// ramp of scene-linear luma increases, the encoded PQ1000 signal
// (and therefore its Rec.2020 luma) must never decrease.
func TestPQ1000RampMonotonic(t *testing.T) {
	odt := ODTACEScgToPQ1000(DefaultPQTunables)
	const steps = 64
	var prevLuma float32 = -1
	for i := 0; i <= steps; i++ {
		v := float32(i) / float32(steps) * 4.0 // scene-linear, up to 4x reference white
		c := RGB{v, v, v}
		out := odt(c)
		luma := Rec2020Luma(out)
		if luma < prevLuma-1e-6 {
			t.Fatalf("PQ1000 ramp not monotonic at step %d: luma %v < prev %v", i, luma, prevLuma)
		}
		prevLuma = luma
	}
}

func TestPQEncodeDecodeRoundTrip(t *testing.T) {
	for _, v := range []float32{0, 0.001, 0.01, 0.1, 1.0} {
		enc := PQEncode(v)
		dec := PQDecode(enc)
		if !almostEqual(dec, v, 1e-3) {
			t.Fatalf("PQ round-trip(%v): have %v", v, dec)
		}
	}
}

func TestSelectIDTUnknownEncoding(t *testing.T) {
	if _, ok := SelectIDT(SourceEncoding(99)); ok {
		t.Fatalf("SelectIDT(99) = ok, want !ok for unknown encoding")
	}
}

func TestSelectODTUnknownTarget(t *testing.T) {
	_, err := SelectODT(DisplayTarget(99), DefaultPQTunables)
	if err == nil {
		t.Fatalf("SelectODT(99) = nil error, want NoDisplayTransformError")
	}
	var nde *NoDisplayTransformError
	if !errorsAs(err, &nde) {
		t.Fatalf("SelectODT(99) error type = %T, want *NoDisplayTransformError", err)
	}
}

func errorsAs(err error, target **NoDisplayTransformError) bool {
	if e, ok := err.(*NoDisplayTransformError); ok {
		*target = e
		return true
	}
	return false
}

func TestSanitizeHDR(t *testing.T) {
	cases := []struct {
		in   float32
		want float32
	}{
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), 0},
		{float32(math.Inf(-1)), 0},
		{100000, Float16Max},
		{-100000, -Float16Max},
		{1.5, 1.5},
	}
	for _, c := range cases {
		if got := SanitizeHDR(c.in); got != c.want {
			t.Fatalf("SanitizeHDR(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestHaltonDeterministic(t *testing.T) {
	x1, y1 := Halton2D(5)
	x2, y2 := Halton2D(5)
	if x1 != x2 || y1 != y2 {
		t.Fatalf("Halton2D not deterministic across calls")
	}
}

func TestHaltonDistinctIndices(t *testing.T) {
	seen := map[[2]float64]bool{}
	for i := 1; i <= 16; i++ {
		x, y := Halton2D(i)
		key := [2]float64{x, y}
		if seen[key] {
			t.Fatalf("Halton2D(%d) duplicates an earlier sample", i)
		}
		seen[key] = true
	}
}

func TestParseCubeRoundTrip(t *testing.T) {
	const n = 17 // smallest size ParseCube accepts
	var sb strings.Builder
	sb.WriteString("TITLE \"test\"\n")
	sb.WriteString("LUT_3D_SIZE 17\n")
	// 17x17x17, r fastest; each channel is 1.0 on the last step of its
	// axis and 0.0 elsewhere.
	edge := func(i int) float32 {
		if i == n-1 {
			return 1
		}
		return 0
	}
	for b := 0; b < n; b++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				sb.WriteString(formatTriple([3]float32{edge(r), edge(g), edge(b)}))
			}
		}
	}
	lut, err := ParseCube(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("ParseCube: %v", err)
	}
	if lut.Size != n {
		t.Fatalf("ParseCube size = %d, want %d", lut.Size, n)
	}
	if len(lut.Payload) != 3*n*n*n {
		t.Fatalf("ParseCube payload len = %d, want %d", len(lut.Payload), 3*n*n*n)
	}
}

func formatTriple(c [3]float32) string {
	return floatStr(c[0]) + " " + floatStr(c[1]) + " " + floatStr(c[2]) + "\n"
}

func floatStr(f float32) string {
	if f == 0 {
		return "0.0"
	}
	return "1.0"
}

func TestParseCubeRejectsBadSize(t *testing.T) {
	_, err := ParseCube(strings.NewReader("LUT_3D_SIZE 4\n0.0 0.0 0.0\n"))
	if err == nil {
		t.Fatalf("ParseCube accepted out-of-range size")
	}
}
