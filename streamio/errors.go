package streamio

import (
	"errors"
	"fmt"
)

// ErrorCode is a native audio-layer error code. The values mirror the
// PortAudio PaError enumeration so a Host built on any conforming driver
// can report conditions the core needs to distinguish (soft overflow and
// underflow, the already-started and already-stopped no-op cases).
type ErrorCode int

const (
	NoError                 ErrorCode = 0
	NotInitialized          ErrorCode = -10000
	UnanticipatedHostError  ErrorCode = -9999
	InvalidChannelCount     ErrorCode = -9998
	InvalidSampleRate       ErrorCode = -9997
	InvalidDevice           ErrorCode = -9996
	InvalidFlag             ErrorCode = -9995
	SampleFormatUnsupported ErrorCode = -9994
	BadIODeviceCombination  ErrorCode = -9993
	InsufficientMemory      ErrorCode = -9992
	BufferTooBig            ErrorCode = -9991
	BufferTooSmall          ErrorCode = -9990
	NullCallback            ErrorCode = -9989
	BadStreamPtr            ErrorCode = -9988
	TimedOut                ErrorCode = -9987
	InternalError           ErrorCode = -9986
	DeviceUnavailable       ErrorCode = -9985
	IncompatibleStreamInfo  ErrorCode = -9984
	StreamIsStopped         ErrorCode = -9983
	StreamIsNotStopped      ErrorCode = -9982
	InputOverflowed         ErrorCode = -9981
	OutputUnderflowed       ErrorCode = -9980
	HostAPINotFound         ErrorCode = -9979
	InvalidHostAPI          ErrorCode = -9978
	CanNotReadFromACallbackStream    ErrorCode = -9977
	CanNotWriteToACallbackStream     ErrorCode = -9976
	CanNotReadFromAnOutputOnlyStream ErrorCode = -9975
	CanNotWriteToAnInputOnlyStream   ErrorCode = -9974
	IncompatibleStreamHostAPI        ErrorCode = -9973
	BadBufferPtr                     ErrorCode = -9972
)

// Sentinel errors for failures the core detects itself, before the native
// layer is involved. Match with errors.Is.
var (
	// ErrInvalidDevice reports a device index that does not resolve to a
	// device, including the no-default-device case.
	ErrInvalidDevice = errors.New("invalid device")

	// ErrInvalidArgument reports a malformed request: a negative frame
	// count, zero channels, a buffer of the wrong length, or an operation
	// issued against a stream direction that was never opened.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidCallback reports a nil callback where one is required.
	ErrInvalidCallback = errors.New("invalid stream callback")

	// ErrStreamClosed reports an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrImmutableField reports an attempted write to a field of the
	// stream-info snapshot, which is captured once at open time and
	// read-only for the life of the stream.
	ErrImmutableField = errors.New("field is read-only")

	// ErrInternal reports an invariant violation in the native layer,
	// such as a stream clock that reads exactly zero.
	ErrInternal = errors.New("internal error")
)

// HostError is a failure reported by the native audio layer. It always
// carries the driver's numeric code and human-readable text.
type HostError struct {
	Code ErrorCode
	Text string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("%s [code %d]", e.Text, e.Code)
}

// hostCode extracts the native error code from err, or NoError when err
// did not originate in the native layer.
func hostCode(err error) ErrorCode {
	var he *HostError
	if errors.As(err, &he) {
		return he.Code
	}
	return NoError
}

// CallbackFault records a failure inside a stream callback: a panic, or a
// continuation code outside {Continue, Complete, Abort}. Faults are never
// propagated across the real-time thread boundary; the bridge parks them
// for [Stream.CallbackFault] and aborts the stream.
type CallbackFault struct {
	Reason string
	Value  any // recovered panic value, nil for non-panic faults
}

func (f *CallbackFault) Error() string {
	if f.Value != nil {
		return fmt.Sprintf("stream callback fault: %s: %v", f.Reason, f.Value)
	}
	return "stream callback fault: " + f.Reason
}
