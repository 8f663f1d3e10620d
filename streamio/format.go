package streamio

import "fmt"

// SampleFormat identifies the in-memory encoding of one sample. The bit
// values match the PortAudio sample format flags.
type SampleFormat int

const (
	FormatFloat32 SampleFormat = 0x00000001
	FormatInt32   SampleFormat = 0x00000002
	FormatInt24   SampleFormat = 0x00000004
	FormatInt16   SampleFormat = 0x00000008
	FormatInt8    SampleFormat = 0x00000010
	FormatUInt8   SampleFormat = 0x00000020
)

// SampleSize returns the size in bytes of one sample in the given format.
func SampleSize(format SampleFormat) (int, error) {
	switch format {
	case FormatFloat32, FormatInt32:
		return 4, nil
	case FormatInt24:
		return 3, nil
	case FormatInt16:
		return 2, nil
	case FormatInt8, FormatUInt8:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: unknown sample format %#x", ErrInvalidArgument, int(format))
	}
}

// HostAPITypeID identifies a host audio API independently of its index in
// the current enumeration.
type HostAPITypeID int

const (
	InDevelopment   HostAPITypeID = 0
	DirectSound     HostAPITypeID = 1
	MME             HostAPITypeID = 2
	ASIO            HostAPITypeID = 3
	SoundManager    HostAPITypeID = 4
	CoreAudio       HostAPITypeID = 5
	OSS             HostAPITypeID = 7
	ALSA            HostAPITypeID = 8
	AL              HostAPITypeID = 9
	BeOS            HostAPITypeID = 10
	WDMKS           HostAPITypeID = 11
	JACK            HostAPITypeID = 12
	WASAPI          HostAPITypeID = 13
	AudioScienceHPI HostAPITypeID = 14
)

// StreamFlags specify special options when opening a stream.
type StreamFlags int

const (
	NoFlag StreamFlags = 0x00000000
	// ClipOff disables automatic output clipping. Streams opened by this
	// package use it by default: the device receives samples in exactly
	// the format the caller requested, unmodified.
	ClipOff        StreamFlags = 0x00000001
	DitherOff      StreamFlags = 0x00000002
	NeverDropInput StreamFlags = 0x00000004
	PrimeOutputBuffersUsingStreamCallback StreamFlags = 0x00000008
)

// NoDevice is the index reported by a Host when no default device exists
// for a direction.
const NoDevice = -1

// FramesPerBufferUnspecified lets the native layer choose its own buffer
// granularity. It is the default for StreamConfig.FramesPerBuffer.
const FramesPerBufferUnspecified = 0
