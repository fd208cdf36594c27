package encode

import "encoding/binary"

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// quantize8 rounds a [0,1] channel to an 8-bit value, optionally
// adding the tiled blue-noise offset before rounding (spec.md §4.7:
// "add (noise - 0.5) / 255 before quantization").
func quantize8(v float32, x, y int, dither bool) byte {
	if dither {
		v += (sampleDither(x, y) - 0.5) / 255
	}
	return byte(clamp01(v)*255 + 0.5)
}

// packBGRA8 packs gamma-encoded RGBA pixels into a BGRA8 byte buffer,
// applying dithering when enabled (spec.md §4.7 stage 2, 8-bit path).
func packBGRA8(gamma []float32, w, h int, dither bool) []byte {
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pi := (y*w + x) * 4
			oi := pi
			r, g, b, a := gamma[pi], gamma[pi+1], gamma[pi+2], gamma[pi+3]
			out[oi+0] = quantize8(b, x, y, dither)
			out[oi+1] = quantize8(g, x, y, dither)
			out[oi+2] = quantize8(r, x, y, dither)
			out[oi+3] = quantize8(a, x, y, false)
		}
	}
	return out
}

// bt2020RGBToYCbCr converts a gamma-encoded RGB triple to BT.2020
// non-constant-luminance Y'CbCr, Y in [0,1] and Cb/Cr centered on 0.
func bt2020RGBToYCbCr(r, g, b float32) (y, cb, cr float32) {
	y = 0.2627*r + 0.6780*g + 0.0593*b
	cb = (b - y) / 1.8814
	cr = (r - y) / 1.4746
	return
}

// quantize10 maps a value to the 10-bit range and places it in the
// top 10 bits of a 16-bit word, the P010 convention spec.md §6
// references ("P010-equivalent biplanar 10-bit YUV").
func quantize10(v float32) uint16 {
	v10 := clamp01(v)*1023 + 0.5
	return uint16(v10) << 6
}

func quantizeChroma10(v float32) uint16 {
	// Cb/Cr are centered on 0 with range [-0.5, 0.5]; remap to [0,1023].
	v10 := (clamp01(v+0.5))*1023 + 0.5
	return uint16(v10) << 6
}

// packYUV10Biplanar packs gamma-encoded (PQ-for-HDR) RGBA pixels into
// a full-resolution Y plane and a half-resolution interleaved UV
// plane, per spec.md §4.7 stage 2, 10-bit path. Chroma is averaged
// over each 2x2 luma block before quantization.
func packYUV10Biplanar(gamma []float32, w, h int) (yPlane, uvPlane []byte) {
	yPlane = make([]byte, w*h*2)
	cw, ch := (w+1)/2, (h+1)/2
	uvPlane = make([]byte, cw*ch*4)

	cbSum := make([]float32, cw*ch)
	crSum := make([]float32, cw*ch)
	cbCount := make([]int, cw*ch)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pi := (y*w + x) * 4
			lum, cb, cr := bt2020RGBToYCbCr(gamma[pi], gamma[pi+1], gamma[pi+2])
			binary.LittleEndian.PutUint16(yPlane[(y*w+x)*2:], quantize10(lum))

			ci := (y/2)*cw + (x / 2)
			cbSum[ci] += cb
			crSum[ci] += cr
			cbCount[ci]++
		}
	}

	for ci := 0; ci < cw*ch; ci++ {
		n := cbCount[ci]
		if n == 0 {
			continue
		}
		cb := cbSum[ci] / float32(n)
		cr := crSum[ci] / float32(n)
		binary.LittleEndian.PutUint16(uvPlane[ci*4:], quantizeChroma10(cb))
		binary.LittleEndian.PutUint16(uvPlane[ci*4+2:], quantizeChroma10(cr))
	}
	return yPlane, uvPlane
}
