// Package pcm provides PCM audio formats and sample codecs for the voice
// pipeline: float⇄int16 conversion, linear resampling, and base64 transcoding
// for embedding raw frames in a JSON transport.
package pcm
