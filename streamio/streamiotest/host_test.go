package streamiotest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiohw/go-streamio/streamio"
)

func TestOpenStreamCounting(t *testing.T) {
	h := NewHost()
	require.NoError(t, h.Initialize())

	out := &streamio.StreamParameters{DeviceIndex: 1, ChannelCount: 2, SampleFormat: streamio.FormatInt16}
	a, err := h.OpenStream(nil, out, 44100, 0, streamio.ClipOff, nil)
	require.NoError(t, err)
	b, err := h.OpenStream(nil, out, 44100, 0, streamio.ClipOff, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, h.OpenStreams())
	assert.Same(t, b, h.LastStream())

	require.NoError(t, a.Close())
	// Double close releases the slot once.
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 0, h.OpenStreams())
}

func TestRoundTripThroughRings(t *testing.T) {
	h := NewHost()
	require.NoError(t, h.Initialize())

	in := &streamio.StreamParameters{DeviceIndex: 0, ChannelCount: 1, SampleFormat: streamio.FormatInt16}
	out := &streamio.StreamParameters{DeviceIndex: 1, ChannelCount: 1, SampleFormat: streamio.FormatInt16}
	dev, err := h.OpenStream(in, out, 44100, 0, streamio.ClipOff, nil)
	require.NoError(t, err)
	defer dev.Close()

	st := h.LastStream()
	st.FeedInput([]byte{1, 2, 3, 4})

	buf := make([]byte, 4)
	require.NoError(t, dev.Read(buf, 2))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)

	// Underfed reads pad with silence instead of blocking.
	require.NoError(t, dev.Read(buf, 2))
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)

	require.NoError(t, dev.Write([]byte{9, 8, 7, 6}, 2))
	assert.Equal(t, []byte{9, 8, 7, 6}, st.Written())
}

func TestTickAdvancesClock(t *testing.T) {
	h := NewHost()
	require.NoError(t, h.Initialize())

	cb := func(input, output []byte, frames int, ti streamio.TimeInfo, flags streamio.CallbackFlags) streamio.CallbackResult {
		return streamio.Continue
	}
	out := &streamio.StreamParameters{DeviceIndex: 1, ChannelCount: 1, SampleFormat: streamio.FormatInt16}
	dev, err := h.OpenStream(nil, out, 44100, 0, streamio.ClipOff, cb)
	require.NoError(t, err)
	defer dev.Close()

	st := h.LastStream()
	before := dev.Time()
	st.Tick(4410)
	assert.InDelta(t, before+0.1, dev.Time(), 1e-9)
}
