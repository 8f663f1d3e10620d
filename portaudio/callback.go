package portaudio

/*
#cgo pkg-config: portaudio-2.0
#include <portaudio.h>
#include <stdlib.h>

// Forward declaration of Go callback bridge
extern int goDeviceCallback(void *input, void *output,
                            unsigned long frameCount,
                            void *timeInfo,
                            unsigned long statusFlags,
                            long streamId);

// C wrapper that can be used as a PaStreamCallback function pointer
static int paStreamCallbackWrapper(const void *input, void *output,
                                   unsigned long frameCount,
                                   const PaStreamCallbackTimeInfo* timeInfo,
                                   PaStreamCallbackFlags statusFlags,
                                   void *userData) {
    // userData points to a malloc'd long containing the stream ID
    long streamId = *(long*)userData;
    return goDeviceCallback((void*)input, output, frameCount,
                            (void*)timeInfo, (unsigned long)statusFlags, streamId);
}

// Helper function to open a stream with our callback
static int openStreamWithCallback(void** stream,
                                  void* inputParameters,
                                  void* outputParameters,
                                  double sampleRate,
                                  unsigned long framesPerBuffer,
                                  unsigned long streamFlags,
                                  void *userData) {
    return Pa_OpenStream((PaStream**)stream,
                        (const PaStreamParameters*)inputParameters,
                        (const PaStreamParameters*)outputParameters,
                        sampleRate, framesPerBuffer,
                        (PaStreamFlags)streamFlags,
                        paStreamCallbackWrapper, userData);
}
*/
import "C"
import (
	"sync"
	"unsafe"

	"github.com/audiohw/go-streamio/streamio"
)

// deviceCallbackInfo holds the callback and the per-direction frame
// sizes needed to slice the raw C buffers.
type deviceCallbackInfo struct {
	fn               streamio.DeviceCallback
	inBytesPerFrame  int // 0 for output-only streams
	outBytesPerFrame int // 0 for input-only streams
}

// Callback registry mapping stream IDs to callback info. Integer IDs
// instead of pointers keep Go pointers out of C-owned memory.
var (
	callbackRegistry   = make(map[int]*deviceCallbackInfo)
	callbackRegistryMu sync.RWMutex
	nextStreamID       = 1
)

func registerCallback(info *deviceCallbackInfo) int {
	callbackRegistryMu.Lock()
	defer callbackRegistryMu.Unlock()

	id := nextStreamID
	nextStreamID++
	callbackRegistry[id] = info
	return id
}

func unregisterCallback(id int) {
	callbackRegistryMu.Lock()
	defer callbackRegistryMu.Unlock()
	delete(callbackRegistry, id)
}

func getCallbackInfo(id int) (*deviceCallbackInfo, bool) {
	callbackRegistryMu.RLock()
	defer callbackRegistryMu.RUnlock()
	info, ok := callbackRegistry[id]
	return info, ok
}

// openCallbackStream opens a callback-mode stream. The callback is
// registered under an integer ID, and the ID is passed to PortAudio in
// C-allocated memory. unsafe.Pointer(uintptr(id)) would fail Go's
// checkptr validation under -race; a malloc'd long does not.
func openCallbackStream(input, output *streamio.StreamParameters, sampleRate float64, framesPerBuffer int, flags streamio.StreamFlags, callback streamio.DeviceCallback) (streamio.DeviceStream, error) {
	info := &deviceCallbackInfo{fn: callback}

	if input != nil {
		size, err := streamio.SampleSize(input.SampleFormat)
		if err != nil {
			return nil, err
		}
		info.inBytesPerFrame = input.ChannelCount * size
	}
	if output != nil {
		size, err := streamio.SampleSize(output.SampleFormat)
		if err != nil {
			return nil, err
		}
		info.outBytesPerFrame = output.ChannelCount * size
	}

	streamID := registerCallback(info)

	streamIDPtr := (*C.long)(C.malloc(C.size_t(unsafe.Sizeof(C.long(0)))))
	*streamIDPtr = C.long(streamID)

	st := &paStream{
		callbackID:    streamID,
		callbackIDPtr: unsafe.Pointer(streamIDPtr),
	}

	errCode := C.openStreamWithCallback(&st.stream,
		unsafe.Pointer(cParams(input)),
		unsafe.Pointer(cParams(output)),
		C.double(sampleRate),
		C.ulong(framesPerBuffer),
		C.ulong(flags),
		unsafe.Pointer(streamIDPtr))

	if errCode != C.paNoError {
		C.free(unsafe.Pointer(streamIDPtr))
		unregisterCallback(streamID)
		return nil, newError(C.PaError(errCode))
	}

	return st, nil
}

//export goDeviceCallback
func goDeviceCallback(input, output unsafe.Pointer,
	frameCount C.ulong,
	timeInfo unsafe.Pointer,
	statusFlags C.ulong,
	streamID C.long) (result C.int) {

	// Last-resort recovery. The streamio bridge recovers callback panics
	// itself; this catches faults in the slicing below so a panic never
	// unwinds into C.
	defer func() {
		if r := recover(); r != nil {
			result = C.int(streamio.Abort)
		}
	}()

	info, ok := getCallbackInfo(int(streamID))
	if !ok {
		// Stream already closed, tell PortAudio to abort
		return C.int(streamio.Abort)
	}

	frames := int(frameCount)

	var inputBuf []byte
	var outputBuf []byte

	if input != nil && info.inBytesPerFrame > 0 {
		inputSize := frames * info.inBytesPerFrame
		if inputSize > 0 && inputSize <= (1<<20) { // Sanity check: max 1MB
			inputBuf = (*[1 << 20]byte)(input)[:inputSize:inputSize]
		}
	}

	if output != nil && info.outBytesPerFrame > 0 {
		outputSize := frames * info.outBytesPerFrame
		if outputSize > 0 && outputSize <= (1<<20) { // Sanity check: max 1MB
			outputBuf = (*[1 << 20]byte)(output)[:outputSize:outputSize]
		}
	}

	var ti streamio.TimeInfo
	if timeInfo != nil {
		cTimeInfo := (*C.PaStreamCallbackTimeInfo)(timeInfo)
		ti = streamio.TimeInfo{
			InputBufferADCTime:  float64(cTimeInfo.inputBufferAdcTime),
			CurrentTime:         float64(cTimeInfo.currentTime),
			OutputBufferDACTime: float64(cTimeInfo.outputBufferDacTime),
		}
	}

	return C.int(info.fn(inputBuf, outputBuf, frames, ti, streamio.CallbackFlags(statusFlags)))
}
