package portaudio

import (
	"time"

	"github.com/elits-ai/elits/pkg/audio/pcm"
)

// Microphone captures mono int16 samples from the default input device.
// It implements the capture.Device interface.
type Microphone struct {
	stream *stream
	format pcm.Format
}

// OpenMicrophone opens the default input device for the given format,
// reading bufferDuration of samples per call.
func OpenMicrophone(format pcm.Format, bufferDuration time.Duration) (*Microphone, error) {
	frames := int(format.SamplesInDuration(bufferDuration))
	s, err := openStream(true, float64(format.SampleRate()), frames)
	if err != nil {
		return nil, err
	}
	return &Microphone{stream: s, format: format}, nil
}

// SampleRate returns the device sample rate in Hz.
func (m *Microphone) SampleRate() int { return m.format.SampleRate() }

// ReadFrame fills buf with captured samples and returns the count read.
func (m *Microphone) ReadFrame(buf []int16) (int, error) {
	return m.stream.read(buf)
}

// Close releases the device. Idempotent.
func (m *Microphone) Close() error { return m.stream.close() }

// Speaker plays mono int16 samples on the default output device.
// It implements the playback.Sink interface.
type Speaker struct {
	stream *stream
	format pcm.Format
}

// OpenSpeaker opens the default output device for the given format, writing
// bufferDuration of samples per device call.
func OpenSpeaker(format pcm.Format, bufferDuration time.Duration) (*Speaker, error) {
	frames := int(format.SamplesInDuration(bufferDuration))
	s, err := openStream(false, float64(format.SampleRate()), frames)
	if err != nil {
		return nil, err
	}
	return &Speaker{stream: s, format: format}, nil
}

// WriteFrame plays one chunk of little-endian PCM16 bytes, blocking until the
// device has consumed it.
func (s *Speaker) WriteFrame(b []byte) error {
	return s.stream.write(pcm.BytesToInt16(b))
}

// Close releases the device. Idempotent.
func (s *Speaker) Close() error { return s.stream.close() }
