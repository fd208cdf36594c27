package encode

import "github.com/acescore/render/color"

// applyDisplayGamma runs stage 1 of spec.md §4.7: the ACES RRT+ODT
// chain when the root is scene-linear, or a pass-through copy when
// the root is already display-encoded. The if/else below is the
// enforcement mechanism for "one of the two must be true — never
// both, never neither": there is no third branch, and
// BypassColorConvert short-circuits both for validation dumps.
func applyDisplayGamma(linearRGBA []float32, w, h int, opt Options) ([]float32, error) {
	if opt.BypassColorConvert {
		out := make([]float32, len(linearRGBA))
		copy(out, linearRGBA)
		return out, nil
	}

	if !opt.RootIsSceneLinear {
		out := make([]float32, len(linearRGBA))
		copy(out, linearRGBA)
		return out, nil
	}

	odt, err := color.SelectODT(opt.Target, opt.Tunables)
	if err != nil {
		return nil, &NoDisplayTransformError{Err: err}
	}

	out := make([]float32, len(linearRGBA))
	for i := 0; i+3 < len(linearRGBA); i += 4 {
		c := odt(color.RGB{R: linearRGBA[i], G: linearRGBA[i+1], B: linearRGBA[i+2]})
		out[i], out[i+1], out[i+2] = c.R, c.G, c.B
		out[i+3] = linearRGBA[i+3]
	}
	return out, nil
}
