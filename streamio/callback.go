package streamio

import (
	"fmt"
	"log/slog"
	"sync"
)

// StreamCallback is the application callback for callback-mode streams.
// The audio layer invokes it on its own real-time thread once per buffer
// period with the captured input samples (nil for output-only streams),
// the frame count, timing info, and status flags.
//
// It returns the output data for this period and a continuation code.
// Returning nil or short data for an output stream is permitted: the
// remainder of the device buffer is zero-filled and the stream completes
// after this buffer. The input slice is a private copy, so a passthrough
// callback may return it directly.
//
// The callback must not block and must return quickly, or the device will
// underrun. Panics do not escape: the bridge aborts the stream and the
// fault surfaces through [Stream.CallbackFault].
type StreamCallback func(input []byte, frames int, timeInfo TimeInfo, flags CallbackFlags) ([]byte, CallbackResult)

// faultMailbox hands faults from the real-time thread to the stream
// owner. It keeps the first undelivered fault; later faults from an
// already-doomed stream are dropped.
type faultMailbox struct {
	mu    sync.Mutex
	fault error
}

func (m *faultMailbox) post(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fault == nil {
		m.fault = err
	}
}

func (m *faultMailbox) take() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.fault
	m.fault = nil
	return err
}

// callbackContext holds what the bridge needs on the real-time thread:
// the retained callback reference, the negotiated frame size, and the
// mailbox for delivering faults back to the owner. The callback thread
// only reads it; no lock is required.
type callbackContext struct {
	fn            StreamCallback
	bytesPerFrame int
	faults        *faultMailbox
	log           *slog.Logger
}

func newCallbackContext(fn StreamCallback, bytesPerFrame int, faults *faultMailbox, log *slog.Logger) (*callbackContext, error) {
	if fn == nil {
		return nil, ErrInvalidCallback
	}
	return &callbackContext{fn: fn, bytesPerFrame: bytesPerFrame, faults: faults, log: log}, nil
}

// release drops the retained callback reference. Called from stream
// teardown; the audio layer guarantees no callback is in flight by then.
func (c *callbackContext) release() {
	c.fn = nil
}

// bridge adapts one real-time buffer period to the application callback.
// It is registered with the Host as the stream's DeviceCallback.
//
// Faults — a panic in the callback or an invalid continuation code — are
// posted to the mailbox and the bridge returns Abort; nothing ever
// unwinds into the audio layer.
func (c *callbackContext) bridge(input, output []byte, frames int, timeInfo TimeInfo, flags CallbackFlags) (result CallbackResult) {
	defer func() {
		if r := recover(); r != nil {
			c.post(&CallbackFault{Reason: "panic in stream callback", Value: r})
			result = Abort
		}
	}()

	fn := c.fn
	if fn == nil {
		return Abort
	}

	// The device owns the input buffer only for the duration of this
	// call, so hand the callback a copy. That also makes the echo
	// pattern safe: returned data may alias the copy.
	var in []byte
	if input != nil {
		in = make([]byte, c.bytesPerFrame*frames)
		copy(in, input)
	}

	data, code := fn(in, frames, timeInfo, flags)

	switch code {
	case Continue, Complete, Abort:
	default:
		c.post(&CallbackFault{Reason: fmt.Sprintf("invalid continuation code %d from callback", int(code))})
		return Abort
	}

	if output != nil {
		n := copy(output, data)
		if n < len(output) {
			// The device must never play uninitialized memory: pad with
			// silence and stop after this buffer regardless of the code
			// the callback asked for.
			clear(output[n:])
			code = Complete
		}
	}
	return code
}

func (c *callbackContext) post(fault error) {
	c.faults.post(fault)
	c.log.Error("audio callback fault", "error", fault)
}
