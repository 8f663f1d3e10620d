package streamio

import (
	"fmt"
	"log/slog"
)

// Stream is an open audio stream. It exclusively owns the underlying
// native stream and its parameter blocks, and releases them on Close or
// on any unrecoverable error encountered during another operation.
//
// A Stream is not safe for concurrent use: operations must be issued from
// one goroutine at a time. The audio layer's callback thread never
// touches the Stream itself, only the callback context.
type Stream struct {
	dev       DeviceStream
	inParams  *StreamParameters
	outParams *StreamParameters
	info      StreamInfo
	cb        *callbackContext
	faults    *faultMailbox
	open      bool
	log       *slog.Logger
}

func (s *Stream) isOpen() bool {
	return s != nil && s.open && s.dev != nil
}

// teardown releases everything the stream owns: the native stream, both
// parameter blocks, and the callback context with its retained callback
// reference. It is idempotent and shared by Close and every
// unrecoverable-error path, so a half-torn-down stream can never be
// double-freed or used after release.
func (s *Stream) teardown() {
	if s.dev != nil {
		if err := s.dev.Close(); err != nil {
			s.log.Debug("closing native stream", "error", err)
		}
		s.dev = nil
	}
	s.inParams = nil
	s.outParams = nil
	if s.cb != nil {
		s.cb.release()
		s.cb = nil
	}
	s.open = false
}

// Close releases the stream. Closing an already-closed stream is a no-op.
func (s *Stream) Close() error {
	if !s.open {
		return nil
	}
	s.log.Debug("closing stream")
	s.teardown()
	return nil
}

// Start begins audio processing. Starting an already-started stream is a
// no-op. Any other native failure tears the stream down.
func (s *Stream) Start() error {
	if !s.isOpen() {
		return ErrStreamClosed
	}
	if err := s.dev.Start(); err != nil {
		if hostCode(err) == StreamIsNotStopped {
			return nil
		}
		s.teardown()
		return err
	}
	return nil
}

// Stop halts the stream after pending buffers have played out. Stopping
// an already-stopped stream is a no-op.
func (s *Stream) Stop() error {
	if !s.isOpen() {
		return ErrStreamClosed
	}
	if err := s.dev.Stop(); err != nil {
		if hostCode(err) == StreamIsStopped {
			return nil
		}
		s.teardown()
		return err
	}
	return nil
}

// Abort halts the stream immediately, discarding pending buffers.
// Aborting an already-stopped stream is a no-op.
func (s *Stream) Abort() error {
	if !s.isOpen() {
		return ErrStreamClosed
	}
	if err := s.dev.Abort(); err != nil {
		if hostCode(err) == StreamIsStopped {
			return nil
		}
		s.teardown()
		return err
	}
	return nil
}

// IsActive reports whether the stream is processing audio.
func (s *Stream) IsActive() (bool, error) {
	if !s.isOpen() {
		return false, ErrStreamClosed
	}
	active, err := s.dev.IsActive()
	if err != nil {
		s.teardown()
		return false, err
	}
	return active, nil
}

// IsStopped reports whether the stream is stopped.
func (s *Stream) IsStopped() (bool, error) {
	if !s.isOpen() {
		return false, ErrStreamClosed
	}
	stopped, err := s.dev.IsStopped()
	if err != nil {
		s.teardown()
		return false, err
	}
	return stopped, nil
}

// Time returns the stream clock in seconds. A clock reading of exactly
// zero means the native layer lost the stream; the stream is torn down.
func (s *Stream) Time() (float64, error) {
	if !s.isOpen() {
		return 0, ErrStreamClosed
	}
	t := s.dev.Time()
	if t == 0 {
		s.teardown()
		return 0, fmt.Errorf("%w: stream time unavailable", ErrInternal)
	}
	return t, nil
}

// CPULoad returns the fraction of real time the stream spends in its
// callback. Always 0 for blocking-mode streams.
func (s *Stream) CPULoad() (float64, error) {
	if !s.isOpen() {
		return 0, ErrStreamClosed
	}
	return s.dev.CPULoad(), nil
}

// The stream-info snapshot is captured once at open time and read-only
// thereafter; there are no setters, per ErrImmutableField.

// StructVersion returns the version of the negotiated stream-info record.
func (s *Stream) StructVersion() (int, error) {
	if !s.isOpen() {
		return 0, ErrStreamClosed
	}
	return s.info.StructVersion, nil
}

// InputLatency returns the negotiated input latency in seconds.
func (s *Stream) InputLatency() (float64, error) {
	if !s.isOpen() {
		return 0, ErrStreamClosed
	}
	return s.info.InputLatency, nil
}

// OutputLatency returns the negotiated output latency in seconds.
func (s *Stream) OutputLatency() (float64, error) {
	if !s.isOpen() {
		return 0, ErrStreamClosed
	}
	return s.info.OutputLatency, nil
}

// SampleRate returns the negotiated sample rate.
func (s *Stream) SampleRate() (float64, error) {
	if !s.isOpen() {
		return 0, ErrStreamClosed
	}
	return s.info.SampleRate, nil
}

// CallbackFault returns and clears the oldest fault delivered from the
// real-time callback thread, or nil if none occurred. Faults are never
// raised on the callback thread itself; the owner observes them here
// after the bridge has already aborted the stream.
func (s *Stream) CallbackFault() error {
	return s.faults.take()
}
