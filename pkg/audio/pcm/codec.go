package pcm

import (
	"encoding/base64"
	"math"
)

// Float32ToInt16 converts normalized float samples to 16-bit signed PCM.
// Samples are clamped to [-1, 1] before scaling. Negative samples scale by
// 32768 and non-negative ones by 32767 so the full signed range is usable
// without overflow.
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s < -1 {
			s = -1
		} else if s > 1 {
			s = 1
		}
		if s < 0 {
			out[i] = int16(s * 32768)
		} else {
			out[i] = int16(s * 32767)
		}
	}
	return out
}

// Int16ToFloat32 converts 16-bit signed PCM samples to normalized floats,
// using the same asymmetric divisor per sign as Float32ToInt16.
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		if s < 0 {
			out[i] = float32(s) / 32768
		} else {
			out[i] = float32(s) / 32767
		}
	}
	return out
}

// ResampleLinear converts samples from one sample rate to another using
// linear interpolation between the two nearest input samples. Resampling to
// the same rate returns the input unchanged.
func ResampleLinear(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(fromRate) / float64(toRate)
	outLen := int(math.Round(float64(len(samples)) / ratio))
	out := make([]float32, outLen)
	for i := range out {
		src := float64(i) * ratio
		lo := int(src)
		hi := lo + 1
		if hi > len(samples)-1 {
			hi = len(samples) - 1
		}
		frac := float32(src - float64(lo))
		out[i] = samples[lo]*(1-frac) + samples[hi]*frac
	}
	return out
}

// Int16ToBytes encodes samples as little-endian bytes.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// BytesToInt16 decodes little-endian bytes into samples. A trailing odd byte
// is ignored.
func BytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return out
}

// EncodeBase64 transcodes raw audio bytes to text for the JSON transport.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBase64 is the inverse of EncodeBase64.
func DecodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
