// Package graph defines the render graph's node/edge model: the
// immutable DAG of passes that the compiler produces and the
// scheduler executes.
package graph

import "github.com/acescore/render/driver"

// NodeID is a stable, opaque node identity.
// IDs are assigned by the compiler and never reused within a
// single RenderGraph.
type NodeID uint32

// PortName identifies a named input port on a node.
// The manifest boundary uses strings (DESIGN NOTES: stringly-typed
// port names); the compiler interns them to NodeID/PortName pairs
// once and the rest of the core operates on those.
type PortName string

// ValueKind is the tag of a NodeValue.
type ValueKind int

// NodeValue kinds.
const (
	KScalar ValueKind = iota
	KInt
	KVec2
	KVec3
	KVec4
	KMatrix3
	KMatrix4
	KBytes
	KString
)

// NodeValue is a sum-typed parameter value bound to a shader.
// Exactly one field is meaningful, selected by Kind; this mirrors
// the teacher's preference for plain structs over reflection-driven
// option bags (DESIGN NOTES §9).
type NodeValue struct {
	Kind ValueKind

	Scalar float32
	Int    int64
	Vec2   [2]float32
	Vec3   [3]float32
	Vec4   [4]float32
	Mat3   [9]float32
	Mat4   [16]float32
	Bytes  []byte
	Str    string
}

// ScalarValue returns a NodeValue holding a single float.
func ScalarValue(f float32) NodeValue { return NodeValue{Kind: KScalar, Scalar: f} }

// IntValue returns a NodeValue holding a single integer.
func IntValue(i int64) NodeValue { return NodeValue{Kind: KInt, Int: i} }

// Vec2Value returns a NodeValue holding a 2-component vector.
func Vec2Value(x, y float32) NodeValue { return NodeValue{Kind: KVec2, Vec2: [2]float32{x, y}} }

// Vec3Value returns a NodeValue holding a 3-component vector.
func Vec3Value(x, y, z float32) NodeValue {
	return NodeValue{Kind: KVec3, Vec3: [3]float32{x, y, z}}
}

// Vec4Value returns a NodeValue holding a 4-component vector.
func Vec4Value(x, y, z, w float32) NodeValue {
	return NodeValue{Kind: KVec4, Vec4: [4]float32{x, y, z, w}}
}

// BytesValue returns a NodeValue holding an opaque byte payload
// (e.g. a parsed .cube LUT table, prior to being attached to the
// node as a prebuilt 3D texture by the shader library).
func BytesValue(b []byte) NodeValue { return NodeValue{Kind: KBytes, Bytes: b} }

// StringValue returns a NodeValue holding a string.
func StringValue(s string) NodeValue { return NodeValue{Kind: KString, Str: s} }

// Resolution describes how a node's output dimensions are derived
// from the frame's requested resolution.
type Resolution int

// Resolution kinds.
const (
	Full Resolution = iota
	Half
	Quarter
	Fixed
)

// PixelFormat is the pixel encoding of a node's output texture.
type PixelFormat int

// Pixel formats.
const (
	Linear16 PixelFormat = iota
	Linear32
	BGRA8
	YUV10Biplanar
)

// OutputSpec describes the texture a node produces.
type OutputSpec struct {
	Resolution  Resolution
	FixedWidth  int
	FixedHeight int
	PixelFormat PixelFormat
}

// Resolve computes the concrete pixel dimensions of the output,
// given the frame's base resolution.
func (o OutputSpec) Resolve(frameW, frameH int) (w, h int) {
	switch o.Resolution {
	case Half:
		return max(1, frameW/2), max(1, frameH/2)
	case Quarter:
		return max(1, frameW/4), max(1, frameH/4)
	case Fixed:
		return o.FixedWidth, o.FixedHeight
	default:
		return frameW, frameH
	}
}

// DriverFormat maps a graph PixelFormat to the driver package's
// PixelFmt used to allocate the backing texture.
func (p PixelFormat) DriverFormat() driver.PixelFmt {
	switch p {
	case Linear16:
		return driver.RGBA16f
	case Linear32:
		return driver.RGBA32f
	case BGRA8:
		return driver.BGRA8un
	case YUV10Biplanar:
		// Packed as two separate planes (Y: R16f-addressed
		// 10-bit range, UV: RG16f-addressed); the encode
		// package allocates the plane pair explicitly and
		// uses this tag only for descriptor bookkeeping.
		return driver.RG16f
	default:
		return driver.RGBA16f
	}
}

// EdgePolicy controls how a size/format mismatch between a
// producer's output and a consumer's declared input expectation is
// handled at dispatch time.
type EdgePolicy int

// Edge policies.
const (
	// AutoResizeBilinear inserts a resize_bilinear adapter node at
	// compile time and tags the graph with an auto_resize warning.
	AutoResizeBilinear EdgePolicy = iota
	// RequireExplicitAdapters inserts no adapter node; a mismatch is
	// tagged size_mismatch and left for the executor to read-with-clamp.
	RequireExplicitAdapters
	// ReadWithClamp has the executor sample the mismatched input with
	// clamp-to-edge addressing, without any compile-time adapter node.
	ReadWithClamp
)

// Fidelity is the render quality tier, driving deterministic sizing
// and sample-count selection.
type Fidelity int

// Fidelity tiers.
const (
	Draft Fidelity = iota
	High
	Master
)

// DraftSize is the fixed frame size forced whenever Fidelity == Draft,
// chosen for bit-stable golden tests regardless of manifest intent.
const DraftSize = 256

// QualityProfile drives deterministic sizing in Draft (fixed 256x256
// for reproducibility), shader loop counts, and sampling counts
// across effect components.
type QualityProfile struct {
	Fidelity   Fidelity
	Height     int
	ColorDepth int
}

// FrameSize resolves the profile's frame dimensions against a
// manifest-requested width/height, forcing DraftSize x DraftSize
// whenever Fidelity is Draft.
func (q QualityProfile) FrameSize(wantW, wantH int) (w, h int) {
	if q.Fidelity == Draft {
		return DraftSize, DraftSize
	}
	return wantW, wantH
}

// RenderNode is a pure value describing a single pass. Nodes are
// created by the compiler and never mutated afterwards.
type RenderNode struct {
	ID     NodeID
	Name   string
	Shader string

	// Inputs maps a named input port to the producing node's ID.
	Inputs map[PortName]NodeID

	// Parameters maps a parameter name to its bound value.
	Parameters map[string]NodeValue

	Output OutputSpec
}

// Clone returns a deep copy of n, suitable for building a new
// RenderGraph without aliasing the original node's maps.
func (n RenderNode) Clone() RenderNode {
	c := n
	c.Inputs = make(map[PortName]NodeID, len(n.Inputs))
	for k, v := range n.Inputs {
		c.Inputs[k] = v
	}
	c.Parameters = make(map[string]NodeValue, len(n.Parameters))
	for k, v := range n.Parameters {
		c.Parameters[k] = v
	}
	return c
}
