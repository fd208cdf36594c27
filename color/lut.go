package color

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LUT3D is a parsed 3D LUT: Size^3 RGB triples, row-major over
// (r, g, b) with r fastest, per spec.md §6.
type LUT3D struct {
	Size    int
	Payload []float32 // len == 3 * Size^3
}

// ParseCube parses a binary/text .cube file (spec.md §6: sizes
// 17-65 supported, typical 33). Only the LUT_3D_SIZE and the
// row-major data lines are required; title/domain directives are
// accepted and ignored.
func ParseCube(r io.Reader) (*LUT3D, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	size := 0
	var data []float32
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "TITLE"):
			continue
		case strings.HasPrefix(line, "DOMAIN_MIN"), strings.HasPrefix(line, "DOMAIN_MAX"):
			continue
		case strings.HasPrefix(line, "LUT_3D_SIZE"):
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return nil, fmt.Errorf("color: malformed LUT_3D_SIZE line %q", line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("color: bad LUT_3D_SIZE: %w", err)
			}
			if n < 17 || n > 65 {
				return nil, fmt.Errorf("color: unsupported LUT size %d (want 17-65)", n)
			}
			size = n
			data = make([]float32, 0, 3*n*n*n)
		default:
			fields := strings.Fields(line)
			if len(fields) != 3 {
				continue
			}
			for _, f := range fields {
				v, err := strconv.ParseFloat(f, 32)
				if err != nil {
					return nil, fmt.Errorf("color: bad LUT sample %q: %w", f, err)
				}
				data = append(data, float32(v))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, fmt.Errorf("color: missing LUT_3D_SIZE directive")
	}
	want := 3 * size * size * size
	if len(data) != want {
		return nil, fmt.Errorf("color: LUT payload has %d samples, want %d", len(data), want)
	}
	return &LUT3D{Size: size, Payload: data}, nil
}

// IdentityLUT builds an identity 3D LUT of the given size, used by
// the round-trip law in spec.md §8 ("Identity 3D-LUT").
func IdentityLUT(size int) *LUT3D {
	data := make([]float32, 3*size*size*size)
	i := 0
	for b := 0; b < size; b++ {
		for g := 0; g < size; g++ {
			for r := 0; r < size; r++ {
				data[i] = float32(r) / float32(size-1)
				data[i+1] = float32(g) / float32(size-1)
				data[i+2] = float32(b) / float32(size-1)
				i += 3
			}
		}
	}
	return &LUT3D{Size: size, Payload: data}
}

func (l *LUT3D) at(r, g, b int) RGB {
	n := l.Size
	i := (b*n*n + g*n + r) * 3
	return RGB{l.Payload[i], l.Payload[i+1], l.Payload[i+2]}
}

// clampEdge implements clamp-to-edge addressing over [0, size-1].
func clampEdge(v, size int) int {
	if v < 0 {
		return 0
	}
	if v > size-1 {
		return size - 1
	}
	return v
}

// Sample performs trilinear interpolation of the LUT at an input
// RGB in [0,1], per spec.md §4.6(4): normalized coordinate
// t = v*size - 0.5, clamp-to-edge on both sides. This is the CPU
// reference evaluator ("cpu_trilinear_lut") that the GPU sampler's
// behavior is validated against.
func (l *LUT3D) Sample(in RGB) RGB {
	n := l.Size
	sample := func(v float32) (lo int, hi int, frac float32) {
		t := v*float32(n) - 0.5
		lo = clampEdge(int(floor(t)), n)
		hi = clampEdge(lo+1, n)
		frac = t - floor(t)
		if t < 0 {
			frac = 0
		}
		return
	}
	rlo, rhi, rf := sample(in.R)
	glo, ghi, gf := sample(in.G)
	blo, bhi, bf := sample(in.B)

	lerpRGB := func(a, b RGB, t float32) RGB {
		return RGB{lerp(a.R, b.R, t), lerp(a.G, b.G, t), lerp(a.B, b.B, t)}
	}

	c000 := l.at(rlo, glo, blo)
	c100 := l.at(rhi, glo, blo)
	c010 := l.at(rlo, ghi, blo)
	c110 := l.at(rhi, ghi, blo)
	c001 := l.at(rlo, glo, bhi)
	c101 := l.at(rhi, glo, bhi)
	c011 := l.at(rlo, ghi, bhi)
	c111 := l.at(rhi, ghi, bhi)

	c00 := lerpRGB(c000, c100, rf)
	c10 := lerpRGB(c010, c110, rf)
	c01 := lerpRGB(c001, c101, rf)
	c11 := lerpRGB(c011, c111, rf)

	c0 := lerpRGB(c00, c10, gf)
	c1 := lerpRGB(c01, c11, gf)

	return lerpRGB(c0, c1, bf)
}

func floor(v float32) float32 {
	i := float32(int(v))
	if v < 0 && i != v {
		return i - 1
	}
	return i
}
