package portaudio

/*
#cgo pkg-config: portaudio-2.0
#include <portaudio.h>
#include <stdlib.h>
*/
import "C"
import (
	"unsafe"

	"github.com/audiohw/go-streamio/streamio"
)

// paStream is a native PortAudio stream. The streamio core serializes
// operations on it, so no locking happens here; the only bookkeeping is
// the callback registry entry, released on Close.
type paStream struct {
	stream unsafe.Pointer
	// callbackID is 0 for blocking-mode streams
	callbackID int
	// callbackIDPtr is the malloc'd C long holding the stream ID, passed
	// to PortAudio as userData. Freed after the native stream is closed,
	// never before: the real-time thread reads it until then.
	callbackIDPtr unsafe.Pointer
}

var _ streamio.DeviceStream = (*paStream)(nil)

func (s *paStream) Start() error {
	return newError(C.Pa_StartStream(s.stream))
}

func (s *paStream) Stop() error {
	return newError(C.Pa_StopStream(s.stream))
}

func (s *paStream) Abort() error {
	return newError(C.Pa_AbortStream(s.stream))
}

func (s *paStream) Close() error {
	errCode := C.Pa_CloseStream(s.stream)

	if s.callbackID != 0 {
		unregisterCallback(s.callbackID)
		s.callbackID = 0
	}
	if s.callbackIDPtr != nil {
		C.free(s.callbackIDPtr)
		s.callbackIDPtr = nil
	}

	return newError(errCode)
}

func (s *paStream) Info() (*streamio.StreamInfo, error) {
	si := C.Pa_GetStreamInfo(s.stream)
	if si == nil {
		return nil, &streamio.HostError{
			Code: streamio.BadStreamPtr,
			Text: "stream information unavailable",
		}
	}

	return &streamio.StreamInfo{
		StructVersion: int(si.structVersion),
		InputLatency:  float64(si.inputLatency),
		OutputLatency: float64(si.outputLatency),
		SampleRate:    float64(si.sampleRate),
	}, nil
}

func (s *paStream) IsActive() (bool, error) {
	r := C.Pa_IsStreamActive(s.stream)
	if r < 0 {
		return false, newError(C.PaError(r))
	}
	return r == 1, nil
}

func (s *paStream) IsStopped() (bool, error) {
	r := C.Pa_IsStreamStopped(s.stream)
	if r < 0 {
		return false, newError(C.PaError(r))
	}
	return r == 1, nil
}

func (s *paStream) Time() float64 {
	return float64(C.Pa_GetStreamTime(s.stream))
}

func (s *paStream) CPULoad() float64 {
	return float64(C.Pa_GetStreamCpuLoad(s.stream))
}

// Read blocks until frames worth of input has been captured into buf.
// The caller has already sized buf; only interleaved frames are
// supported.
func (s *paStream) Read(buf []byte, frames int) error {
	if frames == 0 {
		return nil
	}
	return newError(C.Pa_ReadStream(s.stream, unsafe.Pointer(&buf[0]), C.ulong(frames)))
}

// Write blocks until the device has accepted frames worth of buf.
func (s *paStream) Write(buf []byte, frames int) error {
	if frames == 0 {
		return nil
	}
	return newError(C.Pa_WriteStream(s.stream, unsafe.Pointer(&buf[0]), C.ulong(frames)))
}

func (s *paStream) ReadAvailable() (int, error) {
	ra := C.Pa_GetStreamReadAvailable(s.stream)
	if ra < 0 {
		return 0, newError(C.PaError(ra))
	}
	return int(ra), nil
}

func (s *paStream) WriteAvailable() (int, error) {
	wa := C.Pa_GetStreamWriteAvailable(s.stream)
	if wa < 0 {
		return 0, newError(C.PaError(wa))
	}
	return int(wa), nil
}
