// Package streamio implements device audio streaming on top of a pluggable
// native audio layer.
//
// A [System] wraps a [Host] (the native layer — see the portaudio package
// for the production implementation) and opens streams that move raw
// interleaved sample frames between the application and a sound device.
// Two modes are supported:
//
// Callback mode: the application registers a [StreamCallback] at open time
// and the audio layer invokes it on its own real-time thread once per
// buffer period. The callback returns the next chunk of output data and a
// [CallbackResult] that tells the device whether to keep going.
//
//	stream, _ := sys.Open(streamio.StreamConfig{
//	    SampleRate: 44100,
//	    Channels:   2,
//	    Format:     streamio.FormatInt16,
//	    Output:     true,
//	    Callback: func(in []byte, frames int, t streamio.TimeInfo, f streamio.CallbackFlags) ([]byte, streamio.CallbackResult) {
//	        return nextChunk(frames), streamio.Continue
//	    },
//	})
//	stream.Start()
//
// Blocking mode: no callback is registered and the application calls
// [Stream.Write] and [Stream.Read], which block until the device accepts
// or supplies the requested frames.
//
// # Real-time constraints
//
// The callback runs on a thread owned by the audio layer, not on a
// goroutine the application controls. It must return quickly and must not
// block. A panic inside the callback never unwinds across the real-time
// boundary: the bridge recovers it, aborts the stream, and parks the
// fault where [Stream.CallbackFault] can collect it.
//
// # Error handling
//
// Failures detected before any native resource is touched are returned
// as-is with no side effects. Once a native stream exists, any hard
// failure first tears the stream fully down — a caller never holds a
// stream in an undefined state. Output underflow and input overflow
// during blocking I/O are soft conditions, ignored unless explicitly
// escalated.
package streamio
