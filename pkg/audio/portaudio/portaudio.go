// Package portaudio binds the PortAudio C library to the capture and
// playback devices used by the voice call pipeline.
//
// Requires portaudio installed via pkg-config (brew install portaudio).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrappers using void* to avoid CGO type issues with PaStream.
static PaError pa_open_stream(void **stream,
                              const PaStreamParameters *inputParams,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer) {
    return Pa_OpenStream((PaStream**)stream, inputParams, outputParams, sampleRate,
                         framesPerBuffer, paClipOff, NULL, NULL);
}

static PaError pa_start_stream(void *stream)  { return Pa_StartStream((PaStream*)stream); }
static PaError pa_stop_stream(void *stream)   { return Pa_StopStream((PaStream*)stream); }
static PaError pa_close_stream(void *stream)  { return Pa_CloseStream((PaStream*)stream); }

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	initOnce sync.Once
	initErr  error
)

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New(C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library. Safe to call multiple times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// stream wraps a mono int16 PortAudio stream.
type stream struct {
	handle unsafe.Pointer
	buf    unsafe.Pointer
	frames int

	mu     sync.Mutex
	closed bool
}

// openStream opens a started mono int16 stream. Exactly one of input/output
// must be true.
func openStream(input bool, sampleRate float64, framesPerBuffer int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	var params C.PaStreamParameters
	if input {
		device := C.Pa_GetDefaultInputDevice()
		if device == C.paNoDevice {
			return nil, errors.New("no default input device")
		}
		params = C.PaStreamParameters{
			device:           device,
			channelCount:     1,
			sampleFormat:     C.paInt16,
			suggestedLatency: C.Pa_GetDeviceInfo(device).defaultLowInputLatency,
		}
	} else {
		device := C.Pa_GetDefaultOutputDevice()
		if device == C.paNoDevice {
			return nil, errors.New("no default output device")
		}
		params = C.PaStreamParameters{
			device:           device,
			channelCount:     1,
			sampleFormat:     C.paInt16,
			suggestedLatency: C.Pa_GetDeviceInfo(device).defaultLowOutputLatency,
		}
	}

	var handle unsafe.Pointer
	var err error
	if input {
		err = paError(C.pa_open_stream(&handle, &params, nil, C.double(sampleRate), C.ulong(framesPerBuffer)))
	} else {
		err = paError(C.pa_open_stream(&handle, nil, &params, C.double(sampleRate), C.ulong(framesPerBuffer)))
	}
	if err != nil {
		return nil, err
	}
	if err := paError(C.pa_start_stream(handle)); err != nil {
		C.pa_close_stream(handle)
		return nil, err
	}

	return &stream{
		handle: handle,
		buf:    C.malloc(C.size_t(framesPerBuffer * 2)),
		frames: framesPerBuffer,
	}, nil
}

func (s *stream) read(buf []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("stream closed")
	}
	n := s.frames
	if n > len(buf) {
		n = len(buf)
	}
	if err := paError(C.pa_read_stream(s.handle, s.buf, C.ulong(n))); err != nil {
		return 0, err
	}
	C.memcpy(unsafe.Pointer(&buf[0]), s.buf, C.size_t(n*2))
	return n, nil
}

func (s *stream) write(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("stream closed")
	}
	for len(samples) > 0 {
		n := s.frames
		if n > len(samples) {
			n = len(samples)
		}
		C.memcpy(s.buf, unsafe.Pointer(&samples[0]), C.size_t(n*2))
		if err := paError(C.pa_write_stream(s.handle, s.buf, C.ulong(n))); err != nil {
			return err
		}
		samples = samples[n:]
	}
	return nil
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	C.pa_stop_stream(s.handle)
	err := paError(C.pa_close_stream(s.handle))
	C.free(s.buf)
	return err
}
