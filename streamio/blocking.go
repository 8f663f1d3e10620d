package streamio

import "fmt"

// Write sends frames worth of interleaved samples to the device, blocking
// until the device has accepted them. buf must hold exactly
// frames × channels × sample-size bytes.
//
// An output underflow is a soft condition and is silently ignored unless
// failOnUnderflow is set, in which case it is treated like any other
// native failure: the stream is torn down and the error returned.
func (s *Stream) Write(buf []byte, frames int, failOnUnderflow bool) error {
	if frames < 0 {
		return fmt.Errorf("%w: invalid number of frames", ErrInvalidArgument)
	}
	if !s.isOpen() {
		return ErrStreamClosed
	}
	if s.outParams == nil {
		return fmt.Errorf("%w: stream has no output direction", ErrInvalidArgument)
	}

	sampleSize, err := SampleSize(s.outParams.SampleFormat)
	if err != nil {
		return err
	}
	if want := frames * s.outParams.ChannelCount * sampleSize; len(buf) != want {
		return fmt.Errorf("%w: buffer is %d bytes, want %d for %d frames",
			ErrInvalidArgument, len(buf), want, frames)
	}

	if err := s.dev.Write(buf, frames); err != nil {
		if hostCode(err) == OutputUnderflowed && !failOnUnderflow {
			return nil
		}
		s.teardown()
		return err
	}
	return nil
}

// Read captures frames worth of interleaved samples from the device,
// blocking until the buffer is filled, and returns it. The buffer is
// always exactly frames × channels × sample-size bytes; there is no
// partial-fill reporting, and a failed read's partial buffer is
// discarded.
//
// An input overflow is a soft condition and is silently ignored unless
// failOnOverflow is set.
func (s *Stream) Read(frames int, failOnOverflow bool) ([]byte, error) {
	if frames < 0 {
		return nil, fmt.Errorf("%w: invalid number of frames", ErrInvalidArgument)
	}
	if !s.isOpen() {
		return nil, ErrStreamClosed
	}
	if s.inParams == nil {
		return nil, fmt.Errorf("%w: stream has no input direction", ErrInvalidArgument)
	}

	sampleSize, err := SampleSize(s.inParams.SampleFormat)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, frames*s.inParams.ChannelCount*sampleSize)

	if err := s.dev.Read(buf, frames); err != nil {
		if hostCode(err) == InputOverflowed && !failOnOverflow {
			return buf, nil
		}
		s.teardown()
		return nil, err
	}
	return buf, nil
}

// WriteAvailable reports how many frames can be written without blocking.
func (s *Stream) WriteAvailable() (int, error) {
	if !s.isOpen() {
		return 0, ErrStreamClosed
	}
	return s.dev.WriteAvailable()
}

// ReadAvailable reports how many frames can be read without blocking.
func (s *Stream) ReadAvailable() (int, error) {
	if !s.isOpen() {
		return 0, ErrStreamClosed
	}
	return s.dev.ReadAvailable()
}
