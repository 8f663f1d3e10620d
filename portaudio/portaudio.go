// Package portaudio implements streamio.Host on top of the PortAudio C
// library, giving the core package device audio on Windows, macOS, and
// Linux.
//
//	host := portaudio.NewHost()
//	sys, err := streamio.NewSystem(host)
//
// Initialization is reference counted: the C library is brought up on
// the first Initialize and torn down on the matching Terminate, so
// several Systems can share one process safely.
//
// Stream callbacks run in a real-time context managed by PortAudio, not
// on a Go-scheduled goroutine. The streamio callback bridge keeps panics
// from crossing that boundary; the code here keeps Go pointers from
// crossing it (stream identities travel through malloc'd C memory, never
// as Go pointers in userData).
package portaudio

/*
#cgo pkg-config: portaudio-2.0
#include <portaudio.h>

// Ensure these PortAudio functions are available
PaDeviceIndex Pa_GetDefaultInputDevice(void);
PaDeviceIndex Pa_GetDefaultOutputDevice(void);
PaHostApiIndex Pa_GetDefaultHostApi(void);
const PaHostErrorInfo* Pa_GetLastHostErrorInfo(void);
*/
import "C"
import (
	"fmt"
	"sync"

	"github.com/audiohw/go-streamio/streamio"
)

var (
	// initialized tracks the initialization reference count
	initialized int
	// initMu protects the initialized counter
	initMu sync.Mutex
)

// Host is the PortAudio-backed native audio layer.
type Host struct{}

// NewHost returns the PortAudio backend. Pass it to streamio.NewSystem,
// which calls Initialize.
func NewHost() *Host {
	return &Host{}
}

var _ streamio.Host = (*Host)(nil)

// newError maps a PortAudio error code to a *streamio.HostError. For
// unanticipated host errors the host-API-specific code and text are
// folded into the message, since that detail is otherwise lost.
func newError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}

	text := C.GoString(C.Pa_GetErrorText(code))
	if code == C.paUnanticipatedHostError {
		if hostErr := C.Pa_GetLastHostErrorInfo(); hostErr != nil {
			text = fmt.Sprintf("%s [host API error %d: %s]",
				text, int(hostErr.errorCode), C.GoString(hostErr.errorText))
		}
	}

	return &streamio.HostError{Code: streamio.ErrorCode(code), Text: text}
}

// Initialize initializes the PortAudio library. Each call must be
// matched by a Terminate; the library is only torn down when the count
// reaches zero. Thread-safe.
func (h *Host) Initialize() error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized == 0 {
		if errCode := C.Pa_Initialize(); errCode != C.paNoError {
			return newError(errCode)
		}
	}
	initialized++
	return nil
}

// Terminate releases the PortAudio library once the reference count
// reaches zero. Thread-safe.
func (h *Host) Terminate() error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized == 0 {
		return nil
	}

	initialized--
	if initialized == 0 {
		if errCode := C.Pa_Terminate(); errCode != C.paNoError {
			initialized++ // restore count on error
			return newError(errCode)
		}
	}
	return nil
}

func (h *Host) VersionText() string {
	vi := C.Pa_GetVersionInfo()
	return C.GoString(vi.versionText)
}

func (h *Host) DeviceCount() (int, error) {
	dc := C.Pa_GetDeviceCount()
	if dc < 0 {
		return 0, newError(C.PaError(dc))
	}
	return int(dc), nil
}

func (h *Host) DefaultInputDevice() int {
	return int(C.Pa_GetDefaultInputDevice())
}

func (h *Host) DefaultOutputDevice() int {
	return int(C.Pa_GetDefaultOutputDevice())
}

func (h *Host) DeviceInfo(device int) (*streamio.DeviceInfo, error) {
	di := C.Pa_GetDeviceInfo(C.int(device))
	if di == nil {
		return nil, &streamio.HostError{
			Code: streamio.InvalidDevice,
			Text: "invalid device index",
		}
	}

	return &streamio.DeviceInfo{
		Index:                    device,
		Name:                     C.GoString(di.name),
		HostAPIIndex:             int(di.hostApi),
		MaxInputChannels:         int(di.maxInputChannels),
		MaxOutputChannels:        int(di.maxOutputChannels),
		DefaultLowInputLatency:   float64(di.defaultLowInputLatency),
		DefaultLowOutputLatency:  float64(di.defaultLowOutputLatency),
		DefaultHighInputLatency:  float64(di.defaultHighInputLatency),
		DefaultHighOutputLatency: float64(di.defaultHighOutputLatency),
		DefaultSampleRate:        float64(di.defaultSampleRate),
	}, nil
}

func (h *Host) HostAPICount() (int, error) {
	hc := C.Pa_GetHostApiCount()
	if hc < 0 {
		return 0, newError(C.PaError(hc))
	}
	return int(hc), nil
}

func (h *Host) DefaultHostAPI() (int, error) {
	idx := C.Pa_GetDefaultHostApi()
	if idx < 0 {
		return 0, newError(C.PaError(idx))
	}
	return int(idx), nil
}

func (h *Host) HostAPIInfo(index int) (*streamio.HostAPIInfo, error) {
	hi := C.Pa_GetHostApiInfo(C.int(index))
	if hi == nil {
		return nil, &streamio.HostError{
			Code: streamio.InvalidHostAPI,
			Text: "invalid host API index",
		}
	}

	return &streamio.HostAPIInfo{
		Type:                streamio.HostAPITypeID(hi._type),
		Name:                C.GoString(hi.name),
		DeviceCount:         int(hi.deviceCount),
		DefaultInputDevice:  int(hi.defaultInputDevice),
		DefaultOutputDevice: int(hi.defaultOutputDevice),
	}, nil
}

func (h *Host) HostAPITypeIDToIndex(id streamio.HostAPITypeID) (int, error) {
	idx := C.Pa_HostApiTypeIdToHostApiIndex(C.PaHostApiTypeId(id))
	if idx < 0 {
		return 0, newError(C.PaError(idx))
	}
	return int(idx), nil
}

func (h *Host) HostAPIDeviceIndexToDeviceIndex(hostAPI, device int) (int, error) {
	idx := C.Pa_HostApiDeviceIndexToDeviceIndex(C.PaHostApiIndex(hostAPI), C.int(device))
	if idx < 0 {
		return 0, newError(C.PaError(idx))
	}
	return int(idx), nil
}

// cParams converts resolved stream parameters to the C struct, or nil
// for an absent direction. Host-API-specific extension structs are not
// carried through this backend.
func cParams(p *streamio.StreamParameters) *C.PaStreamParameters {
	if p == nil {
		return nil
	}
	return &C.PaStreamParameters{
		device:           C.int(p.DeviceIndex),
		channelCount:     C.int(p.ChannelCount),
		sampleFormat:     C.PaSampleFormat(p.SampleFormat),
		suggestedLatency: C.double(p.SuggestedLatency),
	}
}

func (h *Host) IsFormatSupported(input, output *streamio.StreamParameters, sampleRate float64) error {
	errCode := C.Pa_IsFormatSupported(cParams(input), cParams(output), C.double(sampleRate))
	if errCode != C.paFormatIsSupported {
		return newError(errCode)
	}
	return nil
}

// OpenStream opens a native PortAudio stream. Blocking-mode streams go
// straight through Pa_OpenStream; callback-mode streams route through
// the registry in callback.go so no Go pointer reaches C.
func (h *Host) OpenStream(input, output *streamio.StreamParameters, sampleRate float64, framesPerBuffer int, flags streamio.StreamFlags, callback streamio.DeviceCallback) (streamio.DeviceStream, error) {
	if callback != nil {
		return openCallbackStream(input, output, sampleRate, framesPerBuffer, flags, callback)
	}

	st := &paStream{}
	errCode := C.Pa_OpenStream(&st.stream,
		cParams(input),
		cParams(output),
		C.double(sampleRate),
		C.ulong(framesPerBuffer),
		C.PaStreamFlags(flags),
		nil,
		nil)
	if errCode != C.paNoError {
		return nil, newError(errCode)
	}
	return st, nil
}
