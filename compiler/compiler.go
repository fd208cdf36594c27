package compiler

import (
	"sort"

	"github.com/acescore/render/color"
	"github.com/acescore/render/graph"
)

// LUTAvailability reports whether a named 3D-LUT resource (as named
// by a color.DisplayTarget's LUTName()) has been warmed up and is
// ready to attach to a terminal ODT node. *shaderlib.Library
// satisfies it directly through its HasLUT method; the compiler
// declares the interface rather than importing shaderlib (shaderlib
// already imports color; the compiler stays one layer up from
// GPU/pipeline concerns).
type LUTAvailability interface {
	HasLUT(name string) bool
}

// noLUTs always reports unavailable, forcing the analytic ODT path.
type noLUTs struct{}

func (noLUTs) HasLUT(string) bool { return false }

// NoLUTs is the LUTAvailability that never has a baked LUT, forcing
// the compiler onto the analytic ODT path.
var NoLUTs LUTAvailability = noLUTs{}

// Result is the compiler's output: the finished graph plus any
// compile-time warnings (e.g. auto_resize, size_mismatch tags).
type Result struct {
	Graph    *graph.Graph
	Warnings []string
}

type builder struct {
	nodes    []graph.RenderNode
	nextID   graph.NodeID
	edge     graph.EdgePolicy
	warnings []string
}

func (b *builder) alloc() graph.NodeID {
	id := b.nextID
	b.nextID++
	return id
}

func (b *builder) add(n graph.RenderNode) graph.NodeID {
	n.ID = b.alloc()
	if n.Inputs == nil {
		n.Inputs = map[graph.PortName]graph.NodeID{}
	}
	if n.Parameters == nil {
		n.Parameters = map[string]graph.NodeValue{}
	}
	b.nodes = append(b.nodes, n)
	return n.ID
}

func (b *builder) node(id graph.NodeID) *graph.RenderNode {
	for i := range b.nodes {
		if b.nodes[i].ID == id {
			return &b.nodes[i]
		}
	}
	return nil
}

// fullSpec is the default scene-linear working-space output spec
// every compiler-built node carries unless an effect overrides it.
var fullSpec = graph.OutputSpec{Resolution: graph.Full, PixelFormat: graph.Linear32}

// wireInput binds producer as the given input port on consumerID,
// inserting a resize_bilinear adapter (and recording a warning) when
// the producer's resolution is not Full and the edge policy calls
// for it.
func (b *builder) wireInput(consumerID graph.NodeID, port graph.PortName, producerID graph.NodeID) {
	producer := b.node(producerID)
	if producer == nil {
		return
	}
	if producer.Output.Resolution == graph.Full {
		b.node(consumerID).Inputs[port] = producerID
		return
	}
	switch b.edge {
	case graph.AutoResizeBilinear:
		resizeID := b.add(graph.RenderNode{
			Name:   "resize_bilinear",
			Shader: "resize_bilinear",
			Output: fullSpec,
			Inputs: map[graph.PortName]graph.NodeID{"input": producerID},
		})
		b.node(consumerID).Inputs[port] = resizeID
		b.warnings = append(b.warnings, "auto_resize")
	case graph.RequireExplicitAdapters:
		b.node(consumerID).Inputs[port] = producerID
		b.warnings = append(b.warnings, "size_mismatch")
	default: // ReadWithClamp
		b.node(consumerID).Inputs[port] = producerID
	}
}

// buildClip compiles one clip into its IDT-wrapped, effect-chained
// node, returning the id of its final output node.
func (b *builder) buildClip(c Clip) (graph.NodeID, error) {
	srcID := b.add(graph.RenderNode{
		Name:   "source",
		Shader: c.Source.ShaderName,
		Output: fullSpec,
	})

	_, ok := color.SelectIDT(c.Source.Encoding)
	if !ok {
		return 0, &UnknownSourceEncodingError{Source: c.Source.ShaderName}
	}
	current := srcID
	if shaderName, insert := color.ShaderName(c.Source.Encoding); insert {
		current = b.add(graph.RenderNode{
			Name:   shaderName,
			Shader: shaderName,
			Output: fullSpec,
			Inputs: map[graph.PortName]graph.NodeID{"input": srcID},
		})
	}

	ordered := make([]Effect, len(c.Effects))
	copy(ordered, c.Effects)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Family < ordered[j].Family })

	for _, eff := range ordered {
		out := fullSpec
		out.Resolution = eff.Resolution
		params := map[string]graph.NodeValue{}
		for k, v := range eff.Parameters {
			params[k] = v
		}
		effID := b.add(graph.RenderNode{
			Name:       eff.Name,
			Shader:     eff.Name,
			Output:     out,
			Parameters: params,
		})
		b.wireInput(effID, "input", current)

		if eff.Mask != nil {
			maskSrc := b.add(graph.RenderNode{
				Name:   "mask_source",
				Shader: eff.Mask.Source.ShaderName,
				Output: fullSpec,
			})
			b.wireInput(effID, "mask", maskSrc)
			node := b.node(effID)
			node.Parameters["threshold"] = graph.ScalarValue(eff.Mask.Threshold)
		} else {
			node := b.node(effID)
			if _, has := node.Parameters["threshold"]; !has {
				node.Parameters["threshold"] = graph.ScalarValue(0.0)
			}
		}
		current = effID
	}
	return current, nil
}

// compositeOver inserts a premultiplied-alpha over node combining
// bottom (the earlier/background layer) with top.
func (b *builder) compositeOver(bottom, top graph.NodeID) graph.NodeID {
	id := b.add(graph.RenderNode{
		Name:   "composite_over",
		Shader: "composite_over",
		Output: fullSpec,
	})
	b.wireInput(id, "bottom", bottom)
	b.wireInput(id, "top", top)
	return id
}

// buildTrack compiles all clips in a track and composites multiple
// concurrently active generators via sequential over nodes.
func (b *builder) buildTrack(t Track) (graph.NodeID, error) {
	var outs []graph.NodeID
	for _, c := range t.Clips {
		id, err := b.buildClip(c)
		if err != nil {
			return 0, err
		}
		outs = append(outs, id)
	}
	if len(outs) == 0 {
		return 0, &CompilerInternalError{Reason: "track has no clips"}
	}
	current := outs[0]
	for _, next := range outs[1:] {
		current = b.compositeOver(current, next)
	}
	return current, nil
}

// Compile lowers a Manifest into a graph.Graph, applying the full
// color-correctness expansion (spec.md §4.2).
func Compile(m Manifest, luts LUTAvailability) (*Result, error) {
	if luts == nil {
		luts = NoLUTs
	}
	b := &builder{edge: m.EdgePolicy}

	if len(m.Tracks) == 0 {
		return nil, &CompilerInternalError{Reason: "manifest has no tracks"}
	}

	var trackOuts []graph.NodeID
	for _, t := range m.Tracks {
		id, err := b.buildTrack(t)
		if err != nil {
			return nil, err
		}
		trackOuts = append(trackOuts, id)
	}
	current := trackOuts[0]
	for _, next := range trackOuts[1:] {
		current = b.compositeOver(current, next)
	}

	for _, overlay := range m.TextOverlays {
		glyphs := shapeOverlay(overlay)
		id := b.add(graph.RenderNode{
			Name:   "text_overlay",
			Shader: "text_overlay",
			Output: fullSpec,
			Parameters: map[string]graph.NodeValue{
				"glyphs":   graph.BytesValue(glyphs),
				"position": graph.Vec2Value(overlay.Position[0], overlay.Position[1]),
			},
		})
		b.wireInput(id, "input", current)
		current = id
	}

	lutName := m.DisplayTarget.LUTName()
	shaderName := m.DisplayTarget.ShaderName()
	if lutName == "" && shaderName == "" {
		return nil, &NoDisplayTransformForTargetError{Target: int(m.DisplayTarget)}
	}

	var rootID graph.NodeID
	if lutName != "" && luts.HasLUT(lutName) {
		rootID = b.add(graph.RenderNode{
			Name:   "lut_apply_3d",
			Shader: "lut_apply_3d",
			Output: fullSpec,
			Parameters: map[string]graph.NodeValue{
				"lut_name": graph.StringValue(lutName),
			},
		})
	} else {
		rootID = b.add(graph.RenderNode{
			Name:   shaderName,
			Shader: shaderName,
			Output: fullSpec,
		})
	}
	b.wireInput(rootID, "input", current)

	g, err := graph.Build(b.nodes, rootID)
	if err != nil {
		return nil, &CompilerInternalError{Reason: err.Error()}
	}
	return &Result{Graph: g, Warnings: b.warnings}, nil
}
