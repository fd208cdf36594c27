package shaderlib

import (
	"strings"
	"testing"

	"github.com/acescore/render/color"
	"github.com/acescore/render/graph"
)

func TestResolveIncludesExpandsBody(t *testing.T) {
	l := New()
	l.Register("common", "fn helper() -> f32 { return 1.0; }")
	l.Register("main", "#include \"common\"\nfn main() {}")

	resolved, err := l.resolveIncludes("main", nil)
	if err != nil {
		t.Fatalf("resolveIncludes: %v", err)
	}
	if !strings.Contains(resolved, "fn helper()") {
		t.Fatalf("resolved source missing included body:\n%s", resolved)
	}
	if !strings.Contains(resolved, "fn main()") {
		t.Fatalf("resolved source missing own body:\n%s", resolved)
	}
}

func TestResolveIncludesDetectsCycle(t *testing.T) {
	l := New()
	l.Register("a", "#include \"b\"")
	l.Register("b", "#include \"a\"")

	_, err := l.resolveIncludes("a", nil)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	var ce *CycleError
	if e, ok := err.(*CycleError); ok {
		ce = e
	} else {
		t.Fatalf("error type = %T, want *CycleError", err)
	}
	if len(ce.Chain) < 2 {
		t.Fatalf("CycleError chain too short: %v", ce.Chain)
	}
}

func TestResolveIncludesMissingSource(t *testing.T) {
	l := New()
	l.Register("main", "#include \"missing\"")
	_, err := l.resolveIncludes("main", nil)
	if err == nil {
		t.Fatalf("expected NotFoundError")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("error type = %T, want *NotFoundError", err)
	}
}

func TestRegisterInvalidatesCache(t *testing.T) {
	l := New()
	l.Register("x", "fn main() {}")
	l.cache["x"] = &compiled{resolvedWGSL: "stale"}
	l.Register("x", "fn main() { return; }")
	if _, ok := l.cache["x"]; ok {
		t.Fatalf("Register did not invalidate the existing cache entry")
	}
}

func TestRegisterLUTAndWarmRequiresGPU(t *testing.T) {
	l := New()
	lut := color.IdentityLUT(17)
	l.RegisterLUT("test_lut", lut)
	if _, ok := l.luts["test_lut"]; !ok {
		t.Fatalf("RegisterLUT did not store the LUT")
	}
	if _, err := l.WarmLUT(nil, "absent_lut"); err == nil {
		t.Fatalf("WarmLUT(absent) = nil error, want NotFoundError")
	}
}

func TestRequiredPortsScansDirectivesFromCache(t *testing.T) {
	l := New()
	l.Register("lut_apply_3d", "#port input\n#port matte\nfn main() {}")
	l.cache["lut_apply_3d"] = &compiled{resolvedWGSL: "#port input\n#port matte\nfn main() {}"}

	ports, ok := l.RequiredPorts("lut_apply_3d")
	if !ok {
		t.Fatalf("RequiredPorts(lut_apply_3d) ok = false, want true")
	}
	want := []graph.PortName{"input", "matte"}
	if len(ports) != len(want) {
		t.Fatalf("RequiredPorts = %v, want %v", ports, want)
	}
	for i, p := range ports {
		if string(p) != string(want[i]) {
			t.Fatalf("RequiredPorts[%d] = %q, want %q", i, p, want[i])
		}
	}
}

func TestRequiredPortsUnknownShader(t *testing.T) {
	l := New()
	if _, ok := l.RequiredPorts("nonexistent"); ok {
		t.Fatalf("RequiredPorts(nonexistent) ok = true, want false")
	}
}

func TestClearDropsPipelineCacheNotSources(t *testing.T) {
	l := New()
	l.Register("x", "fn main() {}")
	l.cache["x"] = &compiled{resolvedWGSL: "fn main() {}"}
	l.Clear()
	if _, ok := l.cache["x"]; ok {
		t.Fatalf("Clear left a stale cache entry")
	}
	if _, ok := l.sources["x"]; !ok {
		t.Fatalf("Clear must not drop registered sources")
	}
}
