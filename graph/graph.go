package graph

import (
	"fmt"
	"sort"
)

const prefix = "graph: "

// CycleError means that the graph contains a cycle.
// IDs lists the participating node IDs, in ascending order.
type CycleError struct{ IDs []NodeID }

func (e *CycleError) Error() string {
	return fmt.Sprintf(prefix+"cycle detected among nodes %v", e.IDs)
}

// DanglingInputError means that a node's input port refers to a
// node ID that does not exist in the graph.
type DanglingInputError struct {
	Node NodeID
	Port PortName
}

func (e *DanglingInputError) Error() string {
	return fmt.Sprintf(prefix+"node %d: dangling input at port %q", e.Node, e.Port)
}

// DuplicateIDError means that two nodes in the input slice share
// the same ID.
type DuplicateIDError struct{ ID NodeID }

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf(prefix+"duplicate node id %d", e.ID)
}

// UnknownRootError means that the designated root ID is not one of
// the graph's nodes.
type UnknownRootError struct{ Root NodeID }

func (e *UnknownRootError) Error() string {
	return fmt.Sprintf(prefix+"root id %d is not a node in the graph", e.Root)
}

// MissingInputBindingError means that a shader's declared input port
// was not bound by the node that uses it.
type MissingInputBindingError struct {
	Node NodeID
	Port PortName
}

func (e *MissingInputBindingError) Error() string {
	return fmt.Sprintf(prefix+"node %d: shader requires port %q but it is unbound", e.Node, e.Port)
}

// SignatureLookup resolves the set of input ports a shader requires.
// The shader library implements this; validate accepts it as an
// interface so the graph package has no dependency on shaderlib.
type SignatureLookup interface {
	// RequiredPorts returns the input port names the named shader
	// declares. It returns (nil, false) if the shader is unknown;
	// Validate does not fail on an unknown shader, since resolving
	// the shader itself is the scheduler's concern (PipelineNotFound).
	RequiredPorts(shader string) (ports []PortName, ok bool)
}

// Graph is an immutable, validated render graph: a DAG of
// RenderNode values plus a distinguished root.
type Graph struct {
	nodes map[NodeID]RenderNode
	order []NodeID // insertion order, for deterministic iteration
	root  NodeID
}

// Build validates the invariants in spec.md §3 and returns an
// immutable Graph handle. nodes is copied; callers may reuse the
// backing slice afterwards.
func Build(nodes []RenderNode, root NodeID) (*Graph, error) {
	g := &Graph{
		nodes: make(map[NodeID]RenderNode, len(nodes)),
		order: make([]NodeID, 0, len(nodes)),
	}
	for _, n := range nodes {
		if _, dup := g.nodes[n.ID]; dup {
			return nil, &DuplicateIDError{ID: n.ID}
		}
		g.nodes[n.ID] = n.Clone()
		g.order = append(g.order, n.ID)
	}
	if _, ok := g.nodes[root]; !ok {
		return nil, &UnknownRootError{Root: root}
	}
	g.root = root

	for _, n := range g.nodes {
		for port, src := range n.Inputs {
			if _, ok := g.nodes[src]; !ok {
				return nil, &DanglingInputError{Node: n.ID, Port: port}
			}
		}
	}
	if _, err := TopologicalOrder(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Root returns the graph's root node ID.
func (g *Graph) Root() NodeID { return g.root }

// Node returns the node with the given ID and whether it exists.
func (g *Graph) Node(id NodeID) (RenderNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns the graph's nodes in stable (insertion) order.
func (g *Graph) Nodes() []RenderNode {
	out := make([]RenderNode, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// TopologicalOrder computes a Kahn-style topological order over g.
// Ties (nodes simultaneously ready) are broken by ascending NodeID,
// so the order is a deterministic function of the graph alone.
func TopologicalOrder(g *Graph) ([]NodeID, error) {
	indeg := make(map[NodeID]int, len(g.nodes))
	children := make(map[NodeID][]NodeID, len(g.nodes))
	for id := range g.nodes {
		indeg[id] = 0
	}
	for id, n := range g.nodes {
		seen := make(map[NodeID]bool, len(n.Inputs))
		for _, src := range n.Inputs {
			if seen[src] {
				continue // multiple ports from the same producer count once
			}
			seen[src] = true
			indeg[id]++
			children[src] = append(children[src], id)
		}
	}

	ready := make([]NodeID, 0, len(g.nodes))
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

	order := make([]NodeID, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, c := range children[id] {
			indeg[c]--
			if indeg[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, cycleFrom(indeg)
	}
	return order, nil
}

// cycleFrom collects the IDs with unresolved in-degree (i.e. the
// nodes that participate in at least one cycle) once Kahn's
// algorithm has stalled.
func cycleFrom(indeg map[NodeID]int) error {
	var ids []NodeID
	for id, d := range indeg {
		if d > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &CycleError{IDs: ids}
}

// Validate re-checks acyclicity and unique-root, and, when lookup is
// non-nil, that every input port a node's shader declares is bound.
func Validate(g *Graph, lookup SignatureLookup) error {
	if _, ok := g.nodes[g.root]; !ok {
		return &UnknownRootError{Root: g.root}
	}
	if _, err := TopologicalOrder(g); err != nil {
		return err
	}
	if lookup == nil {
		return nil
	}
	for _, id := range g.order {
		n := g.nodes[id]
		ports, ok := lookup.RequiredPorts(n.Shader)
		if !ok {
			continue
		}
		for _, p := range ports {
			if _, bound := n.Inputs[p]; !bound {
				return &MissingInputBindingError{Node: n.ID, Port: p}
			}
		}
	}
	return nil
}
