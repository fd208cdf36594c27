package encode

import "fmt"

// NoDisplayTransformError wraps a color.NoDisplayTransformError when
// the gamma stage cannot resolve an ODT for the requested target.
type NoDisplayTransformError struct{ Err error }

func (e *NoDisplayTransformError) Error() string {
	return fmt.Sprintf(prefix+"no display transform: %v", e.Err)
}
func (e *NoDisplayTransformError) Unwrap() error { return e.Err }

// FrameCancelledError means a frame was unwound mid-handoff; the
// caller must still release its acquired FramePacer slot.
type FrameCancelledError struct{ Reason string }

func (e *FrameCancelledError) Error() string { return prefix + "frame cancelled: " + e.Reason }

// EncoderTimeoutError means the codec backend did not return encoded
// frames within the finalize escalation window (spec.md §5, 30s).
type EncoderTimeoutError struct{ PendingFrames int }

func (e *EncoderTimeoutError) Error() string {
	return fmt.Sprintf(prefix+"encoder timeout at finalize, %d frame(s) may remain unmuxed", e.PendingFrames)
}

// CodecBackendError wraps a failure returned by a CodecBackend.
type CodecBackendError struct{ Err error }

func (e *CodecBackendError) Error() string { return fmt.Sprintf(prefix+"codec backend: %v", e.Err) }
func (e *CodecBackendError) Unwrap() error { return e.Err }
