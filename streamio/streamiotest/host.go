// Package streamiotest provides a hardware-free streamio.Host for tests.
//
// The fake host keeps a device table, counts every resource it hands out,
// and lets tests inject native error codes per operation. Fake streams
// buffer their samples in ring buffers, so blocking reads and writes are
// observable, and callback-mode streams are driven manually with
// [Stream.Tick].
package streamiotest

import (
	"fmt"
	"sync"

	"github.com/smallnest/ringbuffer"

	"github.com/audiohw/go-streamio/streamio"
)

// ringSize is generous enough that fake blocking I/O never stalls a test.
const ringSize = 1 << 20

// Host is a fake streamio.Host. The zero value is not usable; construct
// with NewHost.
type Host struct {
	mu          sync.Mutex
	initialized bool
	devices     []streamio.DeviceInfo
	hostAPIs    []streamio.HostAPIInfo
	defaultIn   int
	defaultOut  int
	streams     []*Stream
	openCount   int

	// OpenErr, when nonzero, makes OpenStream fail with that code.
	OpenErr streamio.ErrorCode
	// FormatErr, when nonzero, makes IsFormatSupported fail with that code.
	FormatErr streamio.ErrorCode
}

// NewHost returns a fake host with two devices — a mono-capable input
// device at index 0 and a stereo output device at index 1, which are also
// the defaults — and a single host API covering both.
func NewHost() *Host {
	return &Host{
		devices: []streamio.DeviceInfo{
			{
				Index:                    0,
				Name:                     "Fake Microphone",
				MaxInputChannels:         2,
				DefaultLowInputLatency:   0.01,
				DefaultHighInputLatency:  0.1,
				DefaultSampleRate:        44100,
			},
			{
				Index:                    1,
				Name:                     "Fake Speakers",
				MaxOutputChannels:        2,
				DefaultLowOutputLatency:  0.02,
				DefaultHighOutputLatency: 0.2,
				DefaultSampleRate:        44100,
			},
		},
		hostAPIs: []streamio.HostAPIInfo{
			{
				Type:                streamio.InDevelopment,
				Name:                "Fake Host API",
				DeviceCount:         2,
				DefaultInputDevice:  0,
				DefaultOutputDevice: 1,
			},
		},
		defaultIn:  0,
		defaultOut: 1,
	}
}

func hostErr(code streamio.ErrorCode, text string) error {
	return &streamio.HostError{Code: code, Text: text}
}

// SetDefaultDevices overrides the default device indices. Pass
// streamio.NoDevice to simulate a system without a default.
func (h *Host) SetDefaultDevices(input, output int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.defaultIn, h.defaultOut = input, output
}

// OpenStreams returns the number of native streams currently held open —
// the resource count a leak-free caller drives back to zero.
func (h *Host) OpenStreams() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.openCount
}

// LastStream returns the most recently opened fake stream, for error
// injection and callback driving.
func (h *Host) LastStream() *Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.streams) == 0 {
		return nil
	}
	return h.streams[len(h.streams)-1]
}

func (h *Host) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initialized = true
	return nil
}

func (h *Host) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initialized = false
	return nil
}

func (h *Host) VersionText() string { return "fake audio layer 1.0" }

func (h *Host) DeviceCount() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized {
		return 0, hostErr(streamio.NotInitialized, "audio layer not initialized")
	}
	return len(h.devices), nil
}

func (h *Host) DefaultInputDevice() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.defaultIn
}

func (h *Host) DefaultOutputDevice() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.defaultOut
}

func (h *Host) DeviceInfo(device int) (*streamio.DeviceInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if device < 0 || device >= len(h.devices) {
		return nil, hostErr(streamio.InvalidDevice, "invalid device index")
	}
	info := h.devices[device]
	return &info, nil
}

func (h *Host) HostAPICount() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hostAPIs), nil
}

func (h *Host) DefaultHostAPI() (int, error) { return 0, nil }

func (h *Host) HostAPIInfo(index int) (*streamio.HostAPIInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || index >= len(h.hostAPIs) {
		return nil, hostErr(streamio.InvalidHostAPI, "invalid host API index")
	}
	info := h.hostAPIs[index]
	return &info, nil
}

func (h *Host) HostAPITypeIDToIndex(id streamio.HostAPITypeID) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, api := range h.hostAPIs {
		if api.Type == id {
			return i, nil
		}
	}
	return 0, hostErr(streamio.HostAPINotFound, "host API not found")
}

func (h *Host) HostAPIDeviceIndexToDeviceIndex(hostAPI, device int) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hostAPI < 0 || hostAPI >= len(h.hostAPIs) {
		return 0, hostErr(streamio.InvalidHostAPI, "invalid host API index")
	}
	if device < 0 || device >= h.hostAPIs[hostAPI].DeviceCount {
		return 0, hostErr(streamio.InvalidDevice, "invalid host API device index")
	}
	return device, nil
}

func (h *Host) IsFormatSupported(input, output *streamio.StreamParameters, sampleRate float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FormatErr != 0 {
		return hostErr(h.FormatErr, "format not supported")
	}
	if input == nil && output == nil {
		return hostErr(streamio.InvalidDevice, "no parameters given")
	}
	check := func(p *streamio.StreamParameters, maxChannels func(streamio.DeviceInfo) int) error {
		if p == nil {
			return nil
		}
		if p.DeviceIndex < 0 || p.DeviceIndex >= len(h.devices) {
			return hostErr(streamio.InvalidDevice, "invalid device index")
		}
		if p.ChannelCount < 1 || p.ChannelCount > maxChannels(h.devices[p.DeviceIndex]) {
			return hostErr(streamio.InvalidChannelCount, "invalid channel count")
		}
		return nil
	}
	if err := check(input, func(d streamio.DeviceInfo) int { return d.MaxInputChannels }); err != nil {
		return err
	}
	if err := check(output, func(d streamio.DeviceInfo) int { return d.MaxOutputChannels }); err != nil {
		return err
	}
	if sampleRate <= 0 {
		return hostErr(streamio.InvalidSampleRate, "invalid sample rate")
	}
	return nil
}

func (h *Host) OpenStream(input, output *streamio.StreamParameters, sampleRate float64, framesPerBuffer int, flags streamio.StreamFlags, callback streamio.DeviceCallback) (streamio.DeviceStream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized {
		return nil, hostErr(streamio.NotInitialized, "audio layer not initialized")
	}
	if h.OpenErr != 0 {
		return nil, hostErr(h.OpenErr, "open stream failed")
	}
	if input == nil && output == nil {
		return nil, hostErr(streamio.InvalidDevice, "no parameters given")
	}

	st := &Stream{
		host:     h,
		in:       input,
		out:      output,
		callback: callback,
		clock:    0.25,
		stopped:  true,
		info: streamio.StreamInfo{
			StructVersion: 1,
			SampleRate:    sampleRate,
		},
	}
	if input != nil {
		size, err := streamio.SampleSize(input.SampleFormat)
		if err != nil {
			return nil, hostErr(streamio.SampleFormatUnsupported, "unsupported input sample format")
		}
		st.bytesPerInFrame = size * input.ChannelCount
		st.inRing = ringbuffer.New(ringSize)
		st.info.InputLatency = input.SuggestedLatency
	}
	if output != nil {
		size, err := streamio.SampleSize(output.SampleFormat)
		if err != nil {
			return nil, hostErr(streamio.SampleFormatUnsupported, "unsupported output sample format")
		}
		st.bytesPerOutFrame = size * output.ChannelCount
		st.outRing = ringbuffer.New(ringSize)
		st.info.OutputLatency = output.SuggestedLatency
	}

	h.streams = append(h.streams, st)
	h.openCount++
	return st, nil
}

var _ streamio.Host = (*Host)(nil)

func (h *Host) release(st *Stream) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !st.released {
		st.released = true
		h.openCount--
	}
}

// Stream is the fake native stream handed out by Host.OpenStream. The
// exported error-code fields inject failures into the corresponding
// operation; zero means success.
type Stream struct {
	host     *Host
	mu       sync.Mutex
	in, out  *streamio.StreamParameters
	callback streamio.DeviceCallback
	info     streamio.StreamInfo

	inRing  *ringbuffer.RingBuffer
	outRing *ringbuffer.RingBuffer

	bytesPerInFrame  int
	bytesPerOutFrame int

	active   bool
	stopped  bool
	closed   bool
	released bool

	clock float64

	lastOutput []byte // device buffer from the most recent Tick

	StartErr streamio.ErrorCode
	StopErr  streamio.ErrorCode
	AbortErr streamio.ErrorCode
	ReadErr  streamio.ErrorCode
	WriteErr streamio.ErrorCode
	StateErr streamio.ErrorCode // injected into IsActive / IsStopped
}

var _ streamio.DeviceStream = (*Stream)(nil)

// SetClock sets the value the fake stream clock reports. Zero simulates
// a lost stream.
func (s *Stream) SetClock(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = t
}

// FeedInput queues raw bytes for subsequent blocking reads and callback
// ticks to consume.
func (s *Stream) FeedInput(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inRing != nil {
		s.inRing.Write(data)
	}
}

// Written drains and returns everything blocking writes and callback
// ticks have delivered to the fake device so far.
func (s *Stream) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outRing == nil {
		return nil
	}
	buf := make([]byte, s.outRing.Length())
	s.outRing.Read(buf)
	return buf
}

// LastOutput returns the raw device output buffer from the most recent
// Tick, including any zero padding the bridge added.
func (s *Stream) LastOutput() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutput
}

func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StartErr != 0 {
		return hostErr(s.StartErr, "start failed")
	}
	if s.closed {
		return hostErr(streamio.BadStreamPtr, "stream closed")
	}
	if s.active {
		return hostErr(streamio.StreamIsNotStopped, "stream is already started")
	}
	s.active = true
	s.stopped = false
	return nil
}

func (s *Stream) Stop() error {
	return s.halt(&s.StopErr, false)
}

func (s *Stream) Abort() error {
	return s.halt(&s.AbortErr, true)
}

// halt implements Stop and Abort; abort discards pending output instead
// of draining it.
func (s *Stream) halt(inject *streamio.ErrorCode, discard bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *inject != 0 {
		return hostErr(*inject, "stop failed")
	}
	if s.closed {
		return hostErr(streamio.BadStreamPtr, "stream closed")
	}
	if s.stopped {
		return hostErr(streamio.StreamIsStopped, "stream is stopped")
	}
	if discard && s.outRing != nil {
		s.outRing.Reset()
	}
	s.active = false
	s.stopped = true
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.active = false
	s.mu.Unlock()
	s.host.release(s)
	return nil
}

func (s *Stream) Info() (*streamio.StreamInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, hostErr(streamio.BadStreamPtr, "stream closed")
	}
	info := s.info
	return &info, nil
}

func (s *Stream) IsActive() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StateErr != 0 {
		return false, hostErr(s.StateErr, "state query failed")
	}
	return s.active, nil
}

func (s *Stream) IsStopped() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StateErr != 0 {
		return false, hostErr(s.StateErr, "state query failed")
	}
	return s.stopped, nil
}

func (s *Stream) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

func (s *Stream) CPULoad() float64 { return 0.01 }

func (s *Stream) Read(buf []byte, frames int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != 0 {
		return hostErr(s.ReadErr, "read failed")
	}
	if s.closed {
		return hostErr(streamio.BadStreamPtr, "stream closed")
	}
	if s.inRing == nil {
		return hostErr(streamio.CanNotReadFromAnOutputOnlyStream, "stream has no input")
	}
	// A real device blocks until the buffer fills; the fake serves what
	// was fed and pads with silence so tests never hang.
	n, _ := s.inRing.TryRead(buf)
	clear(buf[n:])
	return nil
}

func (s *Stream) Write(buf []byte, frames int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != 0 {
		return hostErr(s.WriteErr, "write failed")
	}
	if s.closed {
		return hostErr(streamio.BadStreamPtr, "stream closed")
	}
	if s.outRing == nil {
		return hostErr(streamio.CanNotWriteToAnInputOnlyStream, "stream has no output")
	}
	s.outRing.Write(buf)
	return nil
}

func (s *Stream) ReadAvailable() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inRing == nil || s.bytesPerInFrame == 0 {
		return 0, nil
	}
	return s.inRing.Length() / s.bytesPerInFrame, nil
}

func (s *Stream) WriteAvailable() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outRing == nil || s.bytesPerOutFrame == 0 {
		return 0, nil
	}
	return s.outRing.Free() / s.bytesPerOutFrame, nil
}

// Tick drives one callback buffer period, standing in for the real-time
// thread: it hands the registered callback frames worth of queued input
// (zero-padded if the test fed less), collects the output buffer into the
// stream, applies the continuation code to the stream state, and returns
// it. Tick panics if no callback was registered.
func (s *Stream) Tick(frames int) streamio.CallbackResult {
	s.mu.Lock()
	if s.callback == nil {
		s.mu.Unlock()
		panic("streamiotest: Tick on a blocking-mode stream")
	}
	cb := s.callback

	var input []byte
	if s.inRing != nil {
		input = make([]byte, s.bytesPerInFrame*frames)
		n, _ := s.inRing.TryRead(input)
		clear(input[n:])
	}
	var output []byte
	if s.outRing != nil {
		output = make([]byte, s.bytesPerOutFrame*frames)
	}
	timeInfo := streamio.TimeInfo{
		InputBufferADCTime:  s.clock,
		CurrentTime:         s.clock,
		OutputBufferDACTime: s.clock + 0.01,
	}
	s.clock += float64(frames) / s.info.SampleRate
	s.mu.Unlock()

	// Invoked without the lock, as the real callback thread would be.
	result := cb(input, output, frames, timeInfo, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	if output != nil {
		s.lastOutput = output
		s.outRing.Write(output)
	}
	if result != streamio.Continue {
		s.active = false
		s.stopped = true
	}
	return result
}

// String identifies the stream in test failure output.
func (s *Stream) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := "duplex"
	switch {
	case s.in == nil:
		dir = "output"
	case s.out == nil:
		dir = "input"
	}
	return fmt.Sprintf("fake %s stream (active=%v closed=%v)", dir, s.active, s.closed)
}
