package streamio

// StreamParameters describe one direction of a stream, fully resolved:
// the device index is valid and the suggested latency is populated.
type StreamParameters struct {
	DeviceIndex      int
	ChannelCount     int
	SampleFormat     SampleFormat
	SuggestedLatency float64 // seconds
	// HostSpecific carries an optional host-API-specific extension struct
	// (for example CoreAudio channel maps). Opaque to the core; the Host
	// implementation interprets it or rejects it.
	HostSpecific any
}

// StreamInfo is the immutable snapshot of negotiated stream properties,
// captured once when the stream opens.
type StreamInfo struct {
	StructVersion int
	InputLatency  float64 // seconds
	OutputLatency float64 // seconds
	SampleRate    float64
}

// TimeInfo carries the timestamps the audio layer supplies with every
// callback invocation, in stream-time seconds.
type TimeInfo struct {
	InputBufferADCTime  float64
	CurrentTime         float64
	OutputBufferDACTime float64
}

// CallbackFlags report exceptional buffer conditions to a callback.
type CallbackFlags uint

const (
	InputUnderflow  CallbackFlags = 0x00000001
	InputOverflow   CallbackFlags = 0x00000002
	OutputUnderflow CallbackFlags = 0x00000004
	OutputOverflow  CallbackFlags = 0x00000008
	PrimingOutput   CallbackFlags = 0x00000010
)

// CallbackResult is the continuation code a callback returns to control
// whether the audio layer keeps invoking it.
type CallbackResult int

const (
	// Continue keeps the stream running.
	Continue CallbackResult = 0
	// Complete plays out pending buffers, then stops the stream.
	Complete CallbackResult = 1
	// Abort stops the stream immediately, discarding pending buffers.
	Abort CallbackResult = 2
)

// DeviceCallback is the function a Host invokes on its real-time thread
// for every buffer period. input is nil for output-only streams and
// output is nil for input-only streams; non-nil slices are sized to
// exactly frames worth of samples. Implementations must not retain either
// slice past the call.
type DeviceCallback func(input, output []byte, frames int, timeInfo TimeInfo, flags CallbackFlags) CallbackResult

// DeviceInfo describes one audio device.
type DeviceInfo struct {
	Index                    int
	Name                     string
	HostAPIIndex             int
	MaxInputChannels         int
	MaxOutputChannels        int
	DefaultLowInputLatency   float64
	DefaultLowOutputLatency  float64
	DefaultHighInputLatency  float64
	DefaultHighOutputLatency float64
	DefaultSampleRate        float64
}

// HostAPIInfo describes one host audio API.
type HostAPIInfo struct {
	Type                HostAPITypeID
	Name                string
	DeviceCount         int
	DefaultInputDevice  int
	DefaultOutputDevice int
}

// Host is the native audio layer: device and host-API enumeration plus
// stream creation. The portaudio package provides the production
// implementation; streamiotest provides a hardware-free one.
//
// Every native failure is reported as *HostError carrying the driver's
// code and text.
type Host interface {
	Initialize() error
	Terminate() error
	VersionText() string

	DeviceCount() (int, error)
	// DefaultInputDevice and DefaultOutputDevice return NoDevice when the
	// system has no default device for that direction.
	DefaultInputDevice() int
	DefaultOutputDevice() int
	DeviceInfo(device int) (*DeviceInfo, error)

	HostAPICount() (int, error)
	DefaultHostAPI() (int, error)
	HostAPIInfo(index int) (*HostAPIInfo, error)
	HostAPITypeIDToIndex(id HostAPITypeID) (int, error)
	HostAPIDeviceIndexToDeviceIndex(hostAPI, device int) (int, error)

	IsFormatSupported(input, output *StreamParameters, sampleRate float64) error

	// OpenStream opens a native stream. Either parameter block may be
	// nil, never both. callback is nil for blocking-mode streams. On
	// failure no resources are retained.
	OpenStream(input, output *StreamParameters, sampleRate float64, framesPerBuffer int, flags StreamFlags, callback DeviceCallback) (DeviceStream, error)
}

// DeviceStream is an open native stream. The audio layer serializes
// Stop/Abort/Close against an in-flight callback; callers must not issue
// concurrent operations on the same stream.
type DeviceStream interface {
	Start() error
	Stop() error
	Abort() error
	Close() error

	Info() (*StreamInfo, error)
	IsActive() (bool, error)
	IsStopped() (bool, error)
	// Time returns the stream clock in seconds. Zero means the clock is
	// unavailable.
	Time() float64
	// CPULoad returns the fraction of real time spent in the callback.
	// The underlying query cannot fail.
	CPULoad() float64

	// Read blocks until buf is filled with frames worth of input.
	Read(buf []byte, frames int) error
	// Write blocks until the device has accepted frames worth of buf.
	Write(buf []byte, frames int) error
	ReadAvailable() (int, error)
	WriteAvailable() (int, error)
}
