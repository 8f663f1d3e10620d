package streamio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiohw/go-streamio/streamio"
)

func TestDeviceCatalog(t *testing.T) {
	sys, _ := newTestSystem(t)

	assert.NotEmpty(t, sys.VersionText())

	count, err := sys.DeviceCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	devices, err := sys.Devices()
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Fake Microphone", devices[0].Name)
	assert.Equal(t, "Fake Speakers", devices[1].Name)

	di, err := sys.DeviceInfo(0)
	require.NoError(t, err)
	assert.Equal(t, 2, di.MaxInputChannels)
	assert.Equal(t, 0, di.MaxOutputChannels)

	_, err = sys.DeviceInfo(7)
	require.Error(t, err)
	var he *streamio.HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, streamio.InvalidDevice, he.Code)
}

func TestDefaultDevices(t *testing.T) {
	sys, host := newTestSystem(t)

	in, err := sys.DefaultInputDevice()
	require.NoError(t, err)
	assert.Equal(t, 0, in)

	out, err := sys.DefaultOutputDevice()
	require.NoError(t, err)
	assert.Equal(t, 1, out)

	host.SetDefaultDevices(streamio.NoDevice, streamio.NoDevice)

	_, err = sys.DefaultInputDevice()
	assert.ErrorIs(t, err, streamio.ErrInvalidDevice)
	_, err = sys.DefaultOutputDevice()
	assert.ErrorIs(t, err, streamio.ErrInvalidDevice)
}

func TestHostAPICatalog(t *testing.T) {
	sys, _ := newTestSystem(t)

	count, err := sys.HostAPICount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	def, err := sys.DefaultHostAPI()
	require.NoError(t, err)
	assert.Equal(t, 0, def)

	apis, err := sys.HostAPIs()
	require.NoError(t, err)
	require.Len(t, apis, 1)
	assert.Equal(t, "Fake Host API", apis[0].Name)
	assert.Equal(t, 2, apis[0].DeviceCount)

	idx, err := sys.HostAPITypeIDToIndex(apis[0].Type)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	_, err = sys.HostAPITypeIDToIndex(streamio.WASAPI)
	require.Error(t, err)

	device, err := sys.HostAPIDeviceIndexToDeviceIndex(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, device)

	_, err = sys.HostAPIDeviceIndexToDeviceIndex(0, 9)
	require.Error(t, err)
	_, err = sys.HostAPIDeviceIndexToDeviceIndex(3, 0)
	require.Error(t, err)
}

func TestIsFormatSupportedQuery(t *testing.T) {
	sys, host := newTestSystem(t)

	out := &streamio.StreamParameters{
		DeviceIndex:  1,
		ChannelCount: 2,
		SampleFormat: streamio.FormatInt16,
	}
	ok, err := sys.IsFormatSupported(nil, out, 44100)
	require.NoError(t, err)
	assert.True(t, ok)

	// Too many channels for the fake speakers.
	bad := *out
	bad.ChannelCount = 8
	ok, err = sys.IsFormatSupported(nil, &bad, 44100)
	assert.False(t, ok)
	var he *streamio.HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, streamio.InvalidChannelCount, he.Code)

	// Injected rejection surfaces its code.
	host.FormatErr = streamio.InvalidSampleRate
	ok, err = sys.IsFormatSupported(nil, out, 44100)
	assert.False(t, ok)
	require.ErrorAs(t, err, &he)
	assert.Equal(t, streamio.InvalidSampleRate, he.Code)
}

func TestSampleSize(t *testing.T) {
	tests := []struct {
		name   string
		format streamio.SampleFormat
		want   int
	}{
		{"Float32", streamio.FormatFloat32, 4},
		{"Int32", streamio.FormatInt32, 4},
		{"Int24", streamio.FormatInt24, 3},
		{"Int16", streamio.FormatInt16, 2},
		{"Int8", streamio.FormatInt8, 1},
		{"UInt8", streamio.FormatUInt8, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := streamio.SampleSize(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, size)
		})
	}

	_, err := streamio.SampleSize(streamio.SampleFormat(0x4000))
	assert.ErrorIs(t, err, streamio.ErrInvalidArgument)
}
