package compiler

import "fmt"

const prefix = "compiler: "

// UnknownSourceEncodingError means the compiler could not classify a
// media source's color encoding; it never guesses (spec.md §4.2).
type UnknownSourceEncodingError struct{ Source string }

func (e *UnknownSourceEncodingError) Error() string {
	return fmt.Sprintf(prefix+"unknown source encoding for %q", e.Source)
}

// NoDisplayTransformForTargetError means no ODT (analytic or LUT) is
// registered for the manifest's requested display target.
type NoDisplayTransformForTargetError struct{ Target int }

func (e *NoDisplayTransformForTargetError) Error() string {
	return fmt.Sprintf(prefix+"no display transform for target %d", e.Target)
}

// UnsupportedEffectError means an effect name has no corresponding
// shader-library entry known to the compiler.
type UnsupportedEffectError struct{ Name string }

func (e *UnsupportedEffectError) Error() string {
	return prefix + "unsupported effect: " + e.Name
}

// CompilerInternalError wraps an unexpected internal invariant
// violation (e.g. graph construction failing on compiler-built
// input, which should never happen).
type CompilerInternalError struct{ Reason string }

func (e *CompilerInternalError) Error() string {
	return prefix + "internal error: " + e.Reason
}
