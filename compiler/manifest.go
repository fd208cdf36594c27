// Package compiler lowers a scene manifest (tracks, clips, effects,
// background, text overlays, camera, quality, display target) into a
// graph.Graph, performing the color-correctness expansion: wrapping
// every source with an Input Device Transform, ordering effects,
// compositing multiple generators, and capping the graph with
// exactly one terminal Output Device Transform.
package compiler

import (
	"github.com/acescore/render/color"
	"github.com/acescore/render/graph"
)

// EffectFamily classifies an effect for ordering purposes: effects
// are inserted between IDT and ODT in the order
// geometric -> radiometric -> optical -> grain.
type EffectFamily int

// Effect families, in application order.
const (
	Geometric EffectFamily = iota
	Radiometric
	Optical
	Grain
)

// MediaSource describes one media input: a shader key resolving a
// generator/decoder node in the shader library, plus the encoding the
// compiler must classify it as (source_classification, spec.md §4.2
// step 1).
type MediaSource struct {
	ShaderName string
	Encoding   color.SourceEncoding
}

// Mask is a single-channel input bound to a masked effect's "mask"
// port, with the threshold at which the kernel must pass through
// unmodified.
type Mask struct {
	Source    MediaSource
	Threshold float32
}

// Effect is one compiled-in transform applied to a clip, in between
// its IDT and the track's eventual composite/ODT stage.
type Effect struct {
	Name       string
	Family     EffectFamily
	Parameters map[string]graph.NodeValue
	Mask       *Mask
	// Resolution overrides the effect node's output resolution tier
	// (zero value graph.Full is the common case); set to Half or
	// Quarter to exercise edge-policy adapter insertion on the next
	// consumer.
	Resolution graph.Resolution
}

// Clip is one media source plus its effect chain.
type Clip struct {
	Source  MediaSource
	Effects []Effect
}

// Track is a sequence of clips; when more than one are concurrently
// active they composite via over with premultiplied alpha.
type Track struct {
	Clips []Clip
}

// TextOverlay is a shaped text layer, composited over the frame after
// all track content. Shaping (not rasterization) happens at compile
// time via go-text/typesetting; the resulting glyph run is bound as
// a parameter on a text_overlay node.
type TextOverlay struct {
	Text     string
	FontSize float32
	Position [2]float32
}

// Manifest is the pre-parsed scene description the compiler consumes.
// File-format parsing is out of scope; callers hand in this struct
// directly (spec.md §6).
type Manifest struct {
	Tracks        []Track
	TextOverlays  []TextOverlay
	DisplayTarget color.DisplayTarget
	Quality       graph.QualityProfile
	EdgePolicy    graph.EdgePolicy
	PQTunables    color.PQTunables
	// RequestedWidth/Height are the manifest's intended frame size;
	// QualityProfile.FrameSize overrides them in Draft fidelity.
	RequestedWidth  int
	RequestedHeight int
}
