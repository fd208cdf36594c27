package graph

import "testing"

func node(id NodeID, shader string, inputs map[PortName]NodeID) RenderNode {
	return RenderNode{
		ID:         id,
		Name:       shader,
		Shader:     shader,
		Inputs:     inputs,
		Parameters: map[string]NodeValue{},
		Output:     OutputSpec{Resolution: Full, PixelFormat: Linear16},
	}
}

func TestBuildLinearChain(t *testing.T) {
	nodes := []RenderNode{
		node(1, "source_test_color", nil),
		node(2, "idt_rec709_to_acescg", map[PortName]NodeID{"input": 1}),
		node(3, "odt_acescg_to_rec709", map[PortName]NodeID{"input": 2}),
	}
	g, err := Build(nodes, 3)
	if err != nil {
		t.Fatalf("Build: unexpected error: %v", err)
	}
	order, err := TopologicalOrder(g)
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	want := []NodeID{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("TopologicalOrder\nhave %v\nwant %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("TopologicalOrder\nhave %v\nwant %v", order, want)
		}
	}
}

func TestBuildDetectsCycle(t *testing.T) {
	nodes := []RenderNode{
		node(1, "a", map[PortName]NodeID{"input": 2}),
		node(2, "b", map[PortName]NodeID{"input": 1}),
	}
	_, err := Build(nodes, 1)
	if err == nil {
		t.Fatal("Build: expected cycle error, got nil")
	}
	var cerr *CycleError
	if !asCycleError(err, &cerr) {
		t.Fatalf("Build: expected *CycleError, got %T: %v", err, err)
	}
}

func asCycleError(err error, out **CycleError) bool {
	c, ok := err.(*CycleError)
	if ok {
		*out = c
	}
	return ok
}

func TestBuildDetectsDanglingInput(t *testing.T) {
	nodes := []RenderNode{
		node(1, "a", map[PortName]NodeID{"input": 99}),
	}
	_, err := Build(nodes, 1)
	if _, ok := err.(*DanglingInputError); !ok {
		t.Fatalf("Build: expected *DanglingInputError, got %T: %v", err, err)
	}
}

func TestBuildDetectsDuplicateID(t *testing.T) {
	nodes := []RenderNode{
		node(1, "a", nil),
		node(1, "b", nil),
	}
	_, err := Build(nodes, 1)
	if _, ok := err.(*DuplicateIDError); !ok {
		t.Fatalf("Build: expected *DuplicateIDError, got %T: %v", err, err)
	}
}

func TestBuildDetectsUnknownRoot(t *testing.T) {
	nodes := []RenderNode{node(1, "a", nil)}
	_, err := Build(nodes, 42)
	if _, ok := err.(*UnknownRootError); !ok {
		t.Fatalf("Build: expected *UnknownRootError, got %T: %v", err, err)
	}
}

func TestBuildDeepAcyclicChain(t *testing.T) {
	// Acyclic validation must accept graphs up to depth ==
	// node-count, with no artificial depth limit.
	const n = 256
	nodes := make([]RenderNode, n)
	nodes[0] = node(0, "source", nil)
	for i := 1; i < n; i++ {
		nodes[i] = node(NodeID(i), "pass", map[PortName]NodeID{"input": NodeID(i - 1)})
	}
	g, err := Build(nodes, NodeID(n-1))
	if err != nil {
		t.Fatalf("Build: unexpected error on deep chain: %v", err)
	}
	order, err := TopologicalOrder(g)
	if err != nil || len(order) != n {
		t.Fatalf("TopologicalOrder: len=%d err=%v", len(order), err)
	}
}

type fakeLookup map[string][]PortName

func (f fakeLookup) RequiredPorts(shader string) ([]PortName, bool) {
	p, ok := f[shader]
	return p, ok
}

func TestValidateMissingInputBinding(t *testing.T) {
	nodes := []RenderNode{
		node(1, "source", nil),
		node(2, "masked_effect", map[PortName]NodeID{"input": 1}),
	}
	g, err := Build(nodes, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	lookup := fakeLookup{"masked_effect": {"input", "mask"}}
	err = Validate(g, lookup)
	if _, ok := err.(*MissingInputBindingError); !ok {
		t.Fatalf("Validate: expected *MissingInputBindingError, got %T: %v", err, err)
	}
}

func TestTopologicalOrderTieBreakDeterministic(t *testing.T) {
	// Two independent sources feeding one composite: with no
	// dependency between them, order must break ties by ID.
	nodes := []RenderNode{
		node(5, "source", nil),
		node(2, "source", nil),
		node(9, "composite", map[PortName]NodeID{"a": 5, "b": 2}),
	}
	g, err := Build(nodes, 9)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	order, err := TopologicalOrder(g)
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	if order[0] != 2 || order[1] != 5 || order[2] != 9 {
		t.Fatalf("TopologicalOrder tie-break\nhave %v\nwant [2 5 9]", order)
	}
}
