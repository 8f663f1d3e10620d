package streamio

import (
	"fmt"
	"io"
	"log/slog"
)

// System owns an initialized audio layer. All device and host-API
// queries, format checks, and stream opens go through it. Call Terminate
// when done; open streams should be closed first.
type System struct {
	host Host
	log  *slog.Logger
}

// Option configures a System.
type Option func(*System)

// WithLogger routes the system's diagnostics to l. The default discards
// them.
func WithLogger(l *slog.Logger) Option {
	return func(s *System) { s.log = l }
}

// NewSystem initializes the audio layer and returns a System bound to it.
func NewSystem(host Host, opts ...Option) (*System, error) {
	s := &System{
		host: host,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := host.Initialize(); err != nil {
		return nil, err
	}
	s.log.Debug("audio layer initialized", "version", host.VersionText())
	return s, nil
}

// Terminate releases the audio layer.
func (s *System) Terminate() error {
	return s.host.Terminate()
}

// VersionText returns the audio layer's version string.
func (s *System) VersionText() string {
	return s.host.VersionText()
}

// DeviceCount returns the number of available devices.
func (s *System) DeviceCount() (int, error) {
	return s.host.DeviceCount()
}

// DeviceInfo returns the descriptor for one device.
func (s *System) DeviceInfo(device int) (*DeviceInfo, error) {
	return s.host.DeviceInfo(device)
}

// Devices returns descriptors for all available devices.
func (s *System) Devices() ([]*DeviceInfo, error) {
	count, err := s.host.DeviceCount()
	if err != nil {
		return nil, err
	}
	devices := make([]*DeviceInfo, count)
	for i := 0; i < count; i++ {
		devices[i], err = s.host.DeviceInfo(i)
		if err != nil {
			return nil, err
		}
	}
	return devices, nil
}

// DefaultInputDevice returns the index of the system default input
// device, or ErrInvalidDevice when none exists.
func (s *System) DefaultInputDevice() (int, error) {
	device := s.host.DefaultInputDevice()
	if device == NoDevice {
		return 0, fmt.Errorf("%w: no default input device", ErrInvalidDevice)
	}
	return device, nil
}

// DefaultOutputDevice returns the index of the system default output
// device, or ErrInvalidDevice when none exists.
func (s *System) DefaultOutputDevice() (int, error) {
	device := s.host.DefaultOutputDevice()
	if device == NoDevice {
		return 0, fmt.Errorf("%w: no default output device", ErrInvalidDevice)
	}
	return device, nil
}

// HostAPICount returns the number of available host APIs.
func (s *System) HostAPICount() (int, error) {
	return s.host.HostAPICount()
}

// DefaultHostAPI returns the index of the default host API.
func (s *System) DefaultHostAPI() (int, error) {
	return s.host.DefaultHostAPI()
}

// HostAPIInfo returns the descriptor for one host API.
func (s *System) HostAPIInfo(index int) (*HostAPIInfo, error) {
	return s.host.HostAPIInfo(index)
}

// HostAPIs returns descriptors for all available host APIs.
func (s *System) HostAPIs() ([]*HostAPIInfo, error) {
	count, err := s.host.HostAPICount()
	if err != nil {
		return nil, err
	}
	apis := make([]*HostAPIInfo, count)
	for i := 0; i < count; i++ {
		apis[i], err = s.host.HostAPIInfo(i)
		if err != nil {
			return nil, err
		}
	}
	return apis, nil
}

// HostAPITypeIDToIndex translates a stable host-API type ID into an index
// in the current enumeration.
func (s *System) HostAPITypeIDToIndex(id HostAPITypeID) (int, error) {
	return s.host.HostAPITypeIDToIndex(id)
}

// HostAPIDeviceIndexToDeviceIndex translates a per-host-API device index
// into a global device index.
func (s *System) HostAPIDeviceIndexToDeviceIndex(hostAPI, device int) (int, error) {
	return s.host.HostAPIDeviceIndexToDeviceIndex(hostAPI, device)
}

// IsFormatSupported reports whether the given parameter combination is
// supported. Either direction may be nil. On rejection the returned
// *HostError carries the driver's reason code.
func (s *System) IsFormatSupported(input, output *StreamParameters, sampleRate float64) (bool, error) {
	if err := s.host.IsFormatSupported(input, output, sampleRate); err != nil {
		return false, err
	}
	return true, nil
}
