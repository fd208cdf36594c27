package color

// Halton returns the 1-based-index Halton sequence value for the
// given base, per spec.md §5 ("jitter sequences (Halton index
// 1-based)"). index must be >= 1.
func Halton(index int, base int) float64 {
	f := 1.0
	r := 0.0
	i := index
	for i > 0 {
		f /= float64(base)
		r += f * float64(i%base)
		i /= base
	}
	return r
}

// Halton2D returns a deterministic 2D jitter sample using bases 2
// and 3, the conventional low-discrepancy pair.
func Halton2D(index int) (x, y float64) {
	return Halton(index, 2), Halton(index, 3)
}
