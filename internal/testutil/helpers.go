// Package testutil provides reusable test helper functions for sampler
// engine tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// SilenceThreshold is the peak amplitude below which a buffer counts as
// silent in tests.
const SilenceThreshold = 1e-6

// Peak returns the largest absolute sample value in the buffer.
func Peak(s []float32) float32 {
	var peak float32
	for _, v := range s {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// GenerateSine fills a new buffer with frames samples of a sine wave at
// the given frequency and sample rate, scaled by amplitude.
func GenerateSine(frames int, frequency, sampleRate, amplitude float64) []float32 {
	buf := make([]float32, frames)
	for i := range buf {
		t := float64(i) / sampleRate
		buf[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
	return buf
}

// AssertSilent verifies that every sample in the buffer is below the
// silence threshold.
func AssertSilent(t *testing.T, s []float32, msgAndArgs ...any) bool {
	t.Helper()
	if peak := Peak(s); peak > SilenceThreshold {
		return assert.Fail(t, "buffer not silent", "peak %e exceeds %e", peak, SilenceThreshold)
	}
	return true
}

// AssertNotSilent verifies that the buffer contains audible output.
func AssertNotSilent(t *testing.T, s []float32, msgAndArgs ...any) bool {
	t.Helper()
	if peak := Peak(s); peak <= SilenceThreshold {
		return assert.Fail(t, "buffer silent", "peak %e below %e", peak, SilenceThreshold)
	}
	return true
}

// AssertAllInRange verifies that all samples are within [minVal, maxVal].
func AssertAllInRange(t *testing.T, s []float32, minVal, maxVal float32, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that no samples are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float32, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		f := float64(v)
		if math.IsNaN(f) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(f, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}
