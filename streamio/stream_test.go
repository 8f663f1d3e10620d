package streamio_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiohw/go-streamio/streamio"
	"github.com/audiohw/go-streamio/streamio/streamiotest"
)

func newTestSystem(t *testing.T) (*streamio.System, *streamiotest.Host) {
	t.Helper()
	host := streamiotest.NewHost()
	sys, err := streamio.NewSystem(host)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sys.Terminate() })
	return sys, host
}

func outputConfig() streamio.StreamConfig {
	return streamio.StreamConfig{
		SampleRate: 44100,
		Channels:   2,
		Format:     streamio.FormatInt16,
		Output:     true,
	}
}

func inputConfig() streamio.StreamConfig {
	return streamio.StreamConfig{
		SampleRate: 44100,
		Channels:   1,
		Format:     streamio.FormatInt16,
		Input:      true,
	}
}

func TestOpenCloseReleasesResources(t *testing.T) {
	sys, host := newTestSystem(t)

	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, host.OpenStreams())

	require.NoError(t, stream.Close())
	assert.Equal(t, 0, host.OpenStreams())

	// Closing again is a no-op.
	require.NoError(t, stream.Close())
	assert.Equal(t, 0, host.OpenStreams())
}

func TestOpenValidation(t *testing.T) {
	sys, _ := newTestSystem(t)

	tests := []struct {
		name    string
		mutate  func(*streamio.StreamConfig)
		wantErr error
	}{
		{
			name:    "no direction",
			mutate:  func(c *streamio.StreamConfig) { c.Output = false },
			wantErr: streamio.ErrInvalidArgument,
		},
		{
			name:    "zero channels",
			mutate:  func(c *streamio.StreamConfig) { c.Channels = 0 },
			wantErr: streamio.ErrInvalidArgument,
		},
		{
			name:    "zero sample rate",
			mutate:  func(c *streamio.StreamConfig) { c.SampleRate = 0 },
			wantErr: streamio.ErrInvalidArgument,
		},
		{
			name:    "unknown sample format",
			mutate:  func(c *streamio.StreamConfig) { c.Format = 0x4000 },
			wantErr: streamio.ErrInvalidArgument,
		},
		{
			name:    "negative frames per buffer",
			mutate:  func(c *streamio.StreamConfig) { c.FramesPerBuffer = -1 },
			wantErr: streamio.ErrInvalidArgument,
		},
		{
			name:    "out of range device",
			mutate:  func(c *streamio.StreamConfig) { c.OutputDeviceIndex = streamio.Device(99) },
			wantErr: streamio.ErrInvalidDevice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := outputConfig()
			tt.mutate(&cfg)
			_, err := sys.Open(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOpenNoDefaultDevice(t *testing.T) {
	sys, host := newTestSystem(t)
	host.SetDefaultDevices(streamio.NoDevice, streamio.NoDevice)

	_, err := sys.Open(outputConfig())
	assert.ErrorIs(t, err, streamio.ErrInvalidDevice)

	_, err = sys.Open(inputConfig())
	assert.ErrorIs(t, err, streamio.ErrInvalidDevice)

	// An explicit index still works without a default.
	cfg := outputConfig()
	cfg.OutputDeviceIndex = streamio.Device(1)
	stream, err := sys.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, stream.Close())
}

func TestOpenHostFailureRetainsNothing(t *testing.T) {
	sys, host := newTestSystem(t)
	host.OpenErr = streamio.DeviceUnavailable

	_, err := sys.Open(outputConfig())
	require.Error(t, err)

	var he *streamio.HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, streamio.DeviceUnavailable, he.Code)
	assert.Equal(t, 0, host.OpenStreams())
}

func TestStartIsIdempotent(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	defer stream.Close()

	require.NoError(t, stream.Start())

	// The fake reports the already-started condition; the stream
	// swallows it and stays usable.
	require.NoError(t, stream.Start())

	active, err := stream.IsActive()
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 1, host.OpenStreams())
}

func TestStopAndAbortAreIdempotent(t *testing.T) {
	sys, _ := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	defer stream.Close()

	require.NoError(t, stream.Start())
	require.NoError(t, stream.Stop())
	require.NoError(t, stream.Stop())
	require.NoError(t, stream.Abort())

	stopped, err := stream.IsStopped()
	require.NoError(t, err)
	assert.True(t, stopped)
}

func TestStartFailureTearsDown(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	host.LastStream().StartErr = streamio.DeviceUnavailable

	err = stream.Start()
	require.Error(t, err)

	var he *streamio.HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, streamio.DeviceUnavailable, he.Code)

	// The stream released its native handle and now reports closed.
	assert.Equal(t, 0, host.OpenStreams())
	assert.ErrorIs(t, stream.Start(), streamio.ErrStreamClosed)
}

func TestStateQueryFailureTearsDown(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	host.LastStream().StateErr = streamio.InternalError

	_, err = stream.IsActive()
	require.Error(t, err)
	assert.Equal(t, 0, host.OpenStreams())
}

func TestClosedStreamOperations(t *testing.T) {
	sys, _ := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	assert.ErrorIs(t, stream.Start(), streamio.ErrStreamClosed)
	assert.ErrorIs(t, stream.Stop(), streamio.ErrStreamClosed)
	assert.ErrorIs(t, stream.Abort(), streamio.ErrStreamClosed)

	_, err = stream.IsActive()
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)
	_, err = stream.IsStopped()
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)
	_, err = stream.Time()
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)
	_, err = stream.CPULoad()
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)
	_, err = stream.StructVersion()
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)
	_, err = stream.InputLatency()
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)
	_, err = stream.OutputLatency()
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)
	_, err = stream.SampleRate()
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)

	assert.ErrorIs(t, stream.Write(nil, 0, false), streamio.ErrStreamClosed)
	_, err = stream.Read(0, false)
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)
	_, err = stream.WriteAvailable()
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)
	_, err = stream.ReadAvailable()
	assert.ErrorIs(t, err, streamio.ErrStreamClosed)
}

func TestStreamInfoSnapshot(t *testing.T) {
	sys, _ := newTestSystem(t)

	cfg := outputConfig()
	cfg.SuggestedOutputLatency = 0.07
	stream, err := sys.Open(cfg)
	require.NoError(t, err)
	defer stream.Close()

	version, err := stream.StructVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	rate, err := stream.SampleRate()
	require.NoError(t, err)
	assert.Equal(t, 44100.0, rate)

	outLatency, err := stream.OutputLatency()
	require.NoError(t, err)
	assert.Equal(t, 0.07, outLatency)

	// Output-only stream has no input latency.
	inLatency, err := stream.InputLatency()
	require.NoError(t, err)
	assert.Equal(t, 0.0, inLatency)
}

func TestDefaultLatencyFromDevice(t *testing.T) {
	sys, _ := newTestSystem(t)

	// No suggested latency: the device's default low latency applies.
	stream, err := sys.Open(inputConfig())
	require.NoError(t, err)
	defer stream.Close()

	inLatency, err := stream.InputLatency()
	require.NoError(t, err)
	assert.Equal(t, 0.01, inLatency)
}

func TestStreamTime(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	defer stream.Close()

	tm, err := stream.Time()
	require.NoError(t, err)
	assert.Equal(t, 0.25, tm)

	load, err := stream.CPULoad()
	require.NoError(t, err)
	assert.Equal(t, 0.01, load)

	// A clock reading of exactly zero means the native layer lost the
	// stream: internal error plus teardown.
	host.LastStream().SetClock(0)
	_, err = stream.Time()
	require.Error(t, err)
	assert.ErrorIs(t, err, streamio.ErrInternal)
	assert.Equal(t, 0, host.OpenStreams())
}

func TestBlockingWrite(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	defer stream.Close()
	require.NoError(t, stream.Start())

	// Stereo 16-bit: 4 bytes per frame.
	frames := 256
	buf := make([]byte, frames*4)
	for i := range buf {
		buf[i] = byte(i)
	}
	require.NoError(t, stream.Write(buf, frames, false))
	assert.Equal(t, buf, host.LastStream().Written())

	avail, err := stream.WriteAvailable()
	require.NoError(t, err)
	assert.Greater(t, avail, 0)
}

func TestWriteValidation(t *testing.T) {
	sys, _ := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	defer stream.Close()

	// Negative frame counts are rejected before anything else.
	err = stream.Write(nil, -1, false)
	assert.ErrorIs(t, err, streamio.ErrInvalidArgument)

	// Buffer length must match the frame count exactly.
	err = stream.Write(make([]byte, 10), 256, false)
	assert.ErrorIs(t, err, streamio.ErrInvalidArgument)

	// Stream is still usable after rejected calls.
	require.NoError(t, stream.Write(make([]byte, 4), 1, false))
}

func TestWriteWrongDirection(t *testing.T) {
	sys, _ := newTestSystem(t)
	stream, err := sys.Open(inputConfig())
	require.NoError(t, err)
	defer stream.Close()

	err = stream.Write(make([]byte, 4), 1, false)
	assert.ErrorIs(t, err, streamio.ErrInvalidArgument)
}

func TestWriteUnderflowIsSoft(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	defer stream.Close()

	host.LastStream().WriteErr = streamio.OutputUnderflowed
	require.NoError(t, stream.Write(make([]byte, 4), 1, false))
	assert.Equal(t, 1, host.OpenStreams())
}

func TestWriteUnderflowEscalated(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)

	host.LastStream().WriteErr = streamio.OutputUnderflowed
	err = stream.Write(make([]byte, 4), 1, true)
	require.Error(t, err)

	var he *streamio.HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, streamio.OutputUnderflowed, he.Code)
	assert.Equal(t, 0, host.OpenStreams())
}

func TestWriteHardFailureTearsDown(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)

	host.LastStream().WriteErr = streamio.DeviceUnavailable
	err = stream.Write(make([]byte, 4), 1, false)
	require.Error(t, err)
	assert.Equal(t, 0, host.OpenStreams())
	assert.ErrorIs(t, stream.Write(make([]byte, 4), 1, false), streamio.ErrStreamClosed)
}

func TestBlockingRead(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(inputConfig())
	require.NoError(t, err)
	defer stream.Close()
	require.NoError(t, stream.Start())

	// Mono 16-bit: 2 bytes per frame.
	fed := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	host.LastStream().FeedInput(fed)

	avail, err := stream.ReadAvailable()
	require.NoError(t, err)
	assert.Equal(t, 4, avail)

	buf, err := stream.Read(4, false)
	require.NoError(t, err)
	require.Len(t, buf, 8)
	assert.Equal(t, fed, buf)
}

func TestReadValidation(t *testing.T) {
	sys, _ := newTestSystem(t)
	stream, err := sys.Open(inputConfig())
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Read(-1, false)
	assert.ErrorIs(t, err, streamio.ErrInvalidArgument)
}

func TestReadWrongDirection(t *testing.T) {
	sys, _ := newTestSystem(t)
	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Read(4, false)
	assert.ErrorIs(t, err, streamio.ErrInvalidArgument)
}

func TestReadOverflowIsSoft(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(inputConfig())
	require.NoError(t, err)
	defer stream.Close()

	// A soft overflow still yields the full buffer.
	host.LastStream().ReadErr = streamio.InputOverflowed
	buf, err := stream.Read(4, false)
	require.NoError(t, err)
	assert.Len(t, buf, 8)
	assert.Equal(t, 1, host.OpenStreams())
}

func TestReadOverflowEscalated(t *testing.T) {
	sys, host := newTestSystem(t)
	stream, err := sys.Open(inputConfig())
	require.NoError(t, err)

	host.LastStream().ReadErr = streamio.InputOverflowed
	buf, err := stream.Read(4, true)
	require.Error(t, err)
	assert.Nil(t, buf)

	var he *streamio.HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, streamio.InputOverflowed, he.Code)
	assert.Equal(t, 0, host.OpenStreams())
}

func TestTerminateAfterStreams(t *testing.T) {
	host := streamiotest.NewHost()
	sys, err := streamio.NewSystem(host)
	require.NoError(t, err)

	stream, err := sys.Open(outputConfig())
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	require.NoError(t, sys.Terminate())
	assert.Equal(t, 0, host.OpenStreams())
}

func TestHostErrorMessage(t *testing.T) {
	err := &streamio.HostError{Code: streamio.DeviceUnavailable, Text: "Device unavailable"}
	assert.Equal(t, "Device unavailable [code -9985]", err.Error())
	assert.False(t, errors.Is(err, streamio.ErrInternal))
}
