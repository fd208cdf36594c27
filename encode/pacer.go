package encode

import "time"

// DefaultEncoderTimeout is the finalize escalation window of
// spec.md §5 ("escalate to EncoderTimeout after 30s").
const DefaultEncoderTimeout = 30 * time.Second

// CodecBackend is the common surface both codec variants of
// spec.md §4.7 implement: strict-order stream finalization.
type CodecBackend interface {
	// MarkVideoStreamEnd signals no further video frames will
	// arrive. Must be called before Finalize.
	MarkVideoStreamEnd() error
	// Finalize completes muxing/session teardown.
	Finalize() error
}

// PassthroughMuxer accepts frames already compressed by a system
// video encoder; the core only muxes.
type PassthroughMuxer interface {
	CodecBackend
	MuxEncodedFrame(data []byte, presentationTimestamp int64) error
}

// ReencodingWriter accepts raw pixel buffers with color metadata and
// performs the compression itself.
type ReencodingWriter interface {
	CodecBackend
	WritePixelBuffer(f *Frame, presentationTimestamp int64) error
}

// FramePacer bounds in-flight command-buffer submissions to a fixed
// capacity, per the frame-pacing contract of spec.md §4.7: a
// semaphore of capacity maxFramesInFlight (default 3). It is
// implemented as a buffered channel used as a counting semaphore,
// the idiom the teacher's own driver.GPU.Commit(cb, ch) completion
// channel already exercises one frame at a time; FramePacer
// generalizes that to N frames in flight.
type FramePacer struct {
	slots chan struct{}
	codec CodecBackend
}

// NewFramePacer creates a pacer with the given capacity (a
// non-positive capacity selects the default of 3; spec.md §6 allows
// 1-4) bound to codec, whose
// MarkVideoStreamEnd/Finalize are invoked by Finish.
func NewFramePacer(maxFramesInFlight int, codec CodecBackend) *FramePacer {
	if maxFramesInFlight <= 0 {
		maxFramesInFlight = 3
	}
	return &FramePacer{slots: make(chan struct{}, maxFramesInFlight), codec: codec}
}

// Submit blocks until a frame slot is available and returns the
// completion handler the caller must invoke exactly once, with the
// command buffer's result, when that frame's GPU work completes (or
// when the frame is abandoned on a failure path). Passing a non-nil
// ready is used for zero-copy targets: it is invoked only on success,
// notifying the codec its pixel buffer is ready.
func (p *FramePacer) Submit(ready func()) (release func(err error)) {
	p.slots <- struct{}{}
	return func(err error) {
		<-p.slots
		if err == nil && ready != nil {
			ready()
		}
	}
}

// InFlight reports how many slots are currently held.
func (p *FramePacer) InFlight() int { return len(p.slots) }

// Capacity reports the pacer's configured maxFramesInFlight.
func (p *FramePacer) Capacity() int { return cap(p.slots) }

// Finish drains the semaphore (blocking until every previously
// submitted frame's release has run), then invokes the codec's
// strict shutdown order: MarkVideoStreamEnd before Finalize. If
// drain does not complete within timeout, it releases the slots it
// had reacquired and returns *EncoderTimeoutError without touching
// the codec, so a caller can
// retry or abandon; partial frames may remain in the container per
// spec.md §5.
func (p *FramePacer) Finish(timeout time.Duration) error {
	total := cap(p.slots)
	acquired := 0
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for acquired < total {
		select {
		case p.slots <- struct{}{}:
			acquired++
		case <-deadline.C:
			for i := 0; i < acquired; i++ {
				<-p.slots
			}
			return &EncoderTimeoutError{PendingFrames: total - acquired}
		}
	}
	// Release what we just reacquired so the pacer can be reused
	// (e.g. by a retrying caller) rather than left permanently full.
	for i := 0; i < acquired; i++ {
		<-p.slots
	}
	if p.codec == nil {
		return nil
	}
	if err := p.codec.MarkVideoStreamEnd(); err != nil {
		return &CodecBackendError{Err: err}
	}
	if err := p.codec.Finalize(); err != nil {
		return &CodecBackendError{Err: err}
	}
	return nil
}
