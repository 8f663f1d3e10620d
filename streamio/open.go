package streamio

import "fmt"

// StreamConfig carries the recognized open options. Zero values select
// the documented defaults: nil device index means the system default
// device, zero FramesPerBuffer lets the driver choose, zero suggested
// latency means the device's default low latency for that direction, and
// a nil Callback opens the stream for blocking I/O.
type StreamConfig struct {
	SampleRate float64
	Channels   int
	Format     SampleFormat

	// At least one of Input and Output must be set.
	Input  bool
	Output bool

	InputDeviceIndex  *int
	OutputDeviceIndex *int

	FramesPerBuffer int

	SuggestedInputLatency  float64 // seconds
	SuggestedOutputLatency float64 // seconds

	// Host-API-specific extension structs, passed through opaquely.
	InputHostSpecific  any
	OutputHostSpecific any

	Callback StreamCallback
}

// Device wraps a device index for use in a StreamConfig.
func Device(index int) *int {
	return &index
}

// Open opens a stream with the given configuration. On success the
// stream is open and stopped, with its stream-info snapshot captured; on
// failure no resources are retained and no stream exists.
func (s *System) Open(cfg StreamConfig) (*Stream, error) {
	if !cfg.Input && !cfg.Output {
		return nil, fmt.Errorf("%w: must specify input or output", ErrInvalidArgument)
	}
	if cfg.Channels < 1 {
		return nil, fmt.Errorf("%w: invalid channel count %d", ErrInvalidArgument, cfg.Channels)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %v", ErrInvalidArgument, cfg.SampleRate)
	}
	sampleSize, err := SampleSize(cfg.Format)
	if err != nil {
		return nil, err
	}
	if cfg.FramesPerBuffer < 0 {
		return nil, fmt.Errorf("%w: invalid frames per buffer %d", ErrInvalidArgument, cfg.FramesPerBuffer)
	}

	var inParams, outParams *StreamParameters
	if cfg.Output {
		outParams, err = s.resolveParameters(cfg, cfg.OutputDeviceIndex, cfg.OutputHostSpecific, false)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Input {
		inParams, err = s.resolveParameters(cfg, cfg.InputDeviceIndex, cfg.InputHostSpecific, true)
		if err != nil {
			return nil, err
		}
	}

	stream := &Stream{
		faults: &faultMailbox{},
		log:    s.log,
	}

	var deviceCB DeviceCallback
	if cfg.Callback != nil {
		ctx, err := newCallbackContext(cfg.Callback, sampleSize*cfg.Channels, stream.faults, s.log)
		if err != nil {
			return nil, err
		}
		stream.cb = ctx
		deviceCB = ctx.bridge
	}

	dev, err := s.host.OpenStream(inParams, outParams, cfg.SampleRate,
		cfg.FramesPerBuffer, ClipOff, deviceCB)
	if err != nil {
		return nil, err
	}

	info, err := dev.Info()
	if err != nil || info == nil {
		// The handle must not outlive a failed open.
		_ = dev.Close()
		return nil, fmt.Errorf("%w: could not get stream information", ErrInternal)
	}

	stream.dev = dev
	stream.inParams = inParams
	stream.outParams = outParams
	stream.info = *info
	stream.open = true

	s.log.Debug("stream opened",
		"rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"input", cfg.Input,
		"output", cfg.Output,
		"callback", cfg.Callback != nil)
	return stream, nil
}

// resolveParameters builds one direction's parameter block: the device
// index falls back to the system default and must land in range, and an
// unset suggested latency takes the device's default low latency.
func (s *System) resolveParameters(cfg StreamConfig, index *int, hostSpecific any, isInput bool) (*StreamParameters, error) {
	direction := "output"
	device := s.host.DefaultOutputDevice()
	latency := cfg.SuggestedOutputLatency
	if isInput {
		direction = "input"
		device = s.host.DefaultInputDevice()
		latency = cfg.SuggestedInputLatency
	}
	if index != nil {
		device = *index
	}

	count, err := s.host.DeviceCount()
	if err != nil {
		return nil, err
	}
	if device < 0 || device >= count {
		if index == nil {
			return nil, fmt.Errorf("%w: no default %s device", ErrInvalidDevice, direction)
		}
		return nil, fmt.Errorf("%w: %s device index %d out of range", ErrInvalidDevice, direction, device)
	}

	if latency == 0 {
		info, err := s.host.DeviceInfo(device)
		if err != nil {
			return nil, err
		}
		if isInput {
			latency = info.DefaultLowInputLatency
		} else {
			latency = info.DefaultLowOutputLatency
		}
	}

	return &StreamParameters{
		DeviceIndex:      device,
		ChannelCount:     cfg.Channels,
		SampleFormat:     cfg.Format,
		SuggestedLatency: latency,
		HostSpecific:     hostSpecific,
	}, nil
}
