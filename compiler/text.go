package compiler

import (
	"encoding/binary"
	"math"

	"golang.org/x/text/unicode/bidi"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// baseDirection resolves the overlay text's paragraph embedding
// direction via the Unicode Bidi Algorithm, so right-to-left scripts
// (Arabic, Hebrew) shape correctly without the caller having to state
// a direction explicitly.
func baseDirection(text string) di.Direction {
	var p bidi.Paragraph
	if _, err := p.SetString(text); err != nil {
		return di.DirectionLTR
	}
	order, err := p.Order()
	if err != nil || order.NumRuns() == 0 {
		return di.DirectionLTR
	}
	if order.Run(0).Direction() == bidi.RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// shapeOverlay runs the overlay's text through the HarfBuzz-backed
// shaper to get a positioned glyph run, then packs the advances into
// a flat byte payload the text_overlay kernel reads as its glyph
// parameter. Rasterization of the resulting glyph IDs is out of
// scope (spec.md §1); only shaping happens here.
func shapeOverlay(t TextOverlay) []byte {
	runes := []rune(t.Text)
	if len(runes) == 0 {
		return nil
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: baseDirection(t.Text),
		Size:      floatToFixed(t.FontSize),
		Language:  language.NewLanguage("en"),
	}

	var shaper shaping.HarfbuzzShaper
	output := shaper.Shape(input)

	buf := make([]byte, 0, len(output.Glyphs)*12)
	for _, g := range output.Glyphs {
		var rec [12]byte
		binary.LittleEndian.PutUint32(rec[0:4], uint32(g.GlyphID))
		binary.LittleEndian.PutUint32(rec[4:8], uint32(g.XAdvance))
		binary.LittleEndian.PutUint32(rec[8:12], uint32(g.YAdvance))
		buf = append(buf, rec[:]...)
	}
	return buf
}

func floatToFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(float64(v) * 64))
}
