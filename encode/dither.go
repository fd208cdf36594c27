package encode

import "github.com/acescore/render/color"

// ditherTileSize is the fixed blue-noise tile dimension spec.md §4.7
// specifies ("sample a 64x64 tiled blue-noise texture").
const ditherTileSize = 64

// blueNoiseTile is generated once, lazily, from the Halton(2,3)
// low-discrepancy sequence already wired for jitter sampling
// (spec.md §5): each tile cell is assigned the sequence value whose
// 2D coordinate falls in that cell, which spreads samples with the
// same low-clumping property a blue-noise mask targets, without
// needing a packaged noise texture asset. Deterministic across runs,
// satisfying the determinism requirement on dithering (spec.md §5).
var blueNoiseTile = buildBlueNoiseTile()

func buildBlueNoiseTile() [ditherTileSize * ditherTileSize]float32 {
	var tile [ditherTileSize * ditherTileSize]float32
	var filled [ditherTileSize * ditherTileSize]bool
	n := ditherTileSize * ditherTileSize
	placed := 0
	for idx := 1; placed < n; idx++ {
		fx, fy := color.Halton2D(idx)
		x := int(fx * ditherTileSize)
		y := int(fy * ditherTileSize)
		if x >= ditherTileSize {
			x = ditherTileSize - 1
		}
		if y >= ditherTileSize {
			y = ditherTileSize - 1
		}
		cell := y*ditherTileSize + x
		if filled[cell] {
			continue
		}
		filled[cell] = true
		tile[cell] = float32(placed) / float32(n-1)
		placed++
	}
	return tile
}

// sampleDither returns the tiled blue-noise value for a pixel
// coordinate, wrapping at the tile boundary.
func sampleDither(x, y int) float32 {
	tx := x % ditherTileSize
	ty := y % ditherTileSize
	if tx < 0 {
		tx += ditherTileSize
	}
	if ty < 0 {
		ty += ditherTileSize
	}
	return blueNoiseTile[ty*ditherTileSize+tx]
}
