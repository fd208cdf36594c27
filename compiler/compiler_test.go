package compiler

import (
	"testing"

	"github.com/acescore/render/color"
	"github.com/acescore/render/graph"
)

func simpleManifest(encoding color.SourceEncoding, target color.DisplayTarget, edge graph.EdgePolicy) Manifest {
	return Manifest{
		Tracks: []Track{
			{Clips: []Clip{
				{Source: MediaSource{ShaderName: "source_test_color", Encoding: encoding}},
			}},
		},
		DisplayTarget: target,
		EdgePolicy:    edge,
	}
}

func TestCompileProducesExactlyOneTerminalODT(t *testing.T) {
	res, err := Compile(simpleManifest(color.Rec709Gamma, color.SDRRec709, graph.AutoResizeBilinear), NoLUTs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	root, ok := res.Graph.Node(res.Graph.Root())
	if !ok {
		t.Fatalf("root node missing from graph")
	}
	if root.Shader != color.SDRRec709.ShaderName() {
		t.Fatalf("root shader = %q, want %q", root.Shader, color.SDRRec709.ShaderName())
	}

	count := 0
	for _, n := range res.Graph.Nodes() {
		if n.Shader == color.SDRRec709.ShaderName() || n.Shader == "lut_apply_3d" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("terminal ODT node count = %d, want 1", count)
	}
}

func TestCompileInsertsIDTForRec709Source(t *testing.T) {
	res, err := Compile(simpleManifest(color.Rec709Gamma, color.SDRRec709, graph.AutoResizeBilinear), NoLUTs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	found := false
	for _, n := range res.Graph.Nodes() {
		if n.Shader == "idt_rec709_to_acescg" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no idt_rec709_to_acescg node inserted for a Rec709Gamma source")
	}
}

func TestCompileACEScgSourceSkipsIDT(t *testing.T) {
	res, err := Compile(simpleManifest(color.ACEScg, color.SDRRec709, graph.AutoResizeBilinear), NoLUTs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, n := range res.Graph.Nodes() {
		if n.Shader == "idt_rec709_to_acescg" || n.Shader == "idt_srgb_to_acescg" {
			t.Fatalf("unexpected IDT node for an already-ACEScg source: %q", n.Shader)
		}
	}
}

func TestCompileUnknownSourceEncoding(t *testing.T) {
	m := simpleManifest(color.SourceEncoding(99), color.SDRRec709, graph.AutoResizeBilinear)
	_, err := Compile(m, NoLUTs)
	if err == nil {
		t.Fatalf("expected UnknownSourceEncodingError")
	}
	if _, ok := err.(*UnknownSourceEncodingError); !ok {
		t.Fatalf("error type = %T, want *UnknownSourceEncodingError", err)
	}
}

func TestCompileNoDisplayTransformForTarget(t *testing.T) {
	m := simpleManifest(color.ACEScg, color.DisplayTarget(99), graph.AutoResizeBilinear)
	_, err := Compile(m, NoLUTs)
	if err == nil {
		t.Fatalf("expected NoDisplayTransformForTargetError")
	}
	if _, ok := err.(*NoDisplayTransformForTargetError); !ok {
		t.Fatalf("error type = %T, want *NoDisplayTransformForTargetError", err)
	}
}

type alwaysHasLUT struct{}

func (alwaysHasLUT) HasLUT(string) bool { return true }

func TestCompilePrefersLUTWhenAvailable(t *testing.T) {
	res, err := Compile(simpleManifest(color.ACEScg, color.SDRRec709, graph.AutoResizeBilinear), alwaysHasLUT{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	root, _ := res.Graph.Node(res.Graph.Root())
	if root.Shader != "lut_apply_3d" {
		t.Fatalf("root shader = %q, want lut_apply_3d when a LUT is available", root.Shader)
	}
}

func TestCompileAutoResizeInsertsAdapterAndWarning(t *testing.T) {
	m := simpleManifest(color.ACEScg, color.SDRRec709, graph.AutoResizeBilinear)
	m.Tracks[0].Clips[0].Effects = []Effect{
		{Name: "fx_blur_h", Family: Optical, Resolution: graph.Half},
	}
	res, err := Compile(m, NoLUTs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	found := false
	for _, n := range res.Graph.Nodes() {
		if n.Shader == "resize_bilinear" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a resize_bilinear adapter node after a Half-resolution producer")
	}
	hasWarning := false
	for _, w := range res.Warnings {
		if w == "auto_resize" {
			hasWarning = true
		}
	}
	if !hasWarning {
		t.Fatalf("expected an auto_resize warning, got %v", res.Warnings)
	}
}

func TestCompileRequireExplicitAdaptersInsertsNoResizeNode(t *testing.T) {
	m := simpleManifest(color.ACEScg, color.SDRRec709, graph.RequireExplicitAdapters)
	m.Tracks[0].Clips[0].Effects = []Effect{
		{Name: "fx_blur_h", Family: Optical, Resolution: graph.Half},
	}
	res, err := Compile(m, NoLUTs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, n := range res.Graph.Nodes() {
		if n.Shader == "resize_bilinear" {
			t.Fatalf("RequireExplicitAdapters must insert zero resize nodes")
		}
	}
	hasWarning := false
	for _, w := range res.Warnings {
		if w == "size_mismatch" {
			hasWarning = true
		}
	}
	if !hasWarning {
		t.Fatalf("expected a size_mismatch warning, got %v", res.Warnings)
	}
}

func TestCompileMultipleTracksComposite(t *testing.T) {
	m := Manifest{
		Tracks: []Track{
			{Clips: []Clip{{Source: MediaSource{ShaderName: "source_a", Encoding: color.ACEScg}}}},
			{Clips: []Clip{{Source: MediaSource{ShaderName: "source_b", Encoding: color.ACEScg}}}},
		},
		DisplayTarget: color.SDRRec709,
		EdgePolicy:    graph.AutoResizeBilinear,
	}
	res, err := Compile(m, NoLUTs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	found := false
	for _, n := range res.Graph.Nodes() {
		if n.Shader == "composite_over" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a composite_over node combining two tracks")
	}
}

func TestCompileMaskedEffectDefaultsThreshold(t *testing.T) {
	m := simpleManifest(color.ACEScg, color.SDRRec709, graph.AutoResizeBilinear)
	m.Tracks[0].Clips[0].Effects = []Effect{
		{
			Name:   "fx_color_correct",
			Family: Radiometric,
			Mask:   &Mask{Source: MediaSource{ShaderName: "source_mask", Encoding: color.ACEScg}},
		},
	}
	res, err := Compile(m, NoLUTs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, n := range res.Graph.Nodes() {
		if n.Shader == "fx_color_correct" {
			v, ok := n.Parameters["threshold"]
			if !ok || v.Kind != graph.KScalar || v.Scalar != 0.0 {
				t.Fatalf("masked effect threshold default = %+v, want scalar 0.0", v)
			}
			if _, ok := n.Inputs["mask"]; !ok {
				t.Fatalf("masked effect missing bound mask port")
			}
		}
	}
}

func TestCompileEffectOrderingRespectsFamily(t *testing.T) {
	m := simpleManifest(color.ACEScg, color.SDRRec709, graph.AutoResizeBilinear)
	m.Tracks[0].Clips[0].Effects = []Effect{
		{Name: "fx_grain", Family: Grain},
		{Name: "fx_geom", Family: Geometric},
		{Name: "fx_radio", Family: Radiometric},
	}
	res, err := Compile(m, NoLUTs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	order := map[string]int{}
	for i, n := range res.Graph.Nodes() {
		order[n.Shader] = i
	}
	if !(order["fx_geom"] < order["fx_radio"] && order["fx_radio"] < order["fx_grain"]) {
		t.Fatalf("effect nodes not reordered by family: geom=%d radio=%d grain=%d",
			order["fx_geom"], order["fx_radio"], order["fx_grain"])
	}
}
