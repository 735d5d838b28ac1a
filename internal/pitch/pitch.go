// Package pitch estimates fundamental frequency and aggregates per-frame
// note histograms.
//
// Estimation is autocorrelation through the FFT: a Hann-windowed frame is
// zero-padded, its power spectrum inverted back into the time domain, and
// the first well-correlated lag inside the vocal range wins. Unvoiced
// frames simply do not report.
package pitch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// FrameSize is the analysis window, in samples.
	FrameSize = 2048
	// HopSize advances the analysis window between frames.
	HopSize = FrameSize / 2

	// The search band matches common voice pitch trackers.
	minFrequency = 75.0
	maxFrequency = 600.0

	// Normalized autocorrelation below this is treated as unvoiced.
	voicingThreshold = 0.45
)

var noteNames = []string{"C", "C♯", "D", "D♯", "E", "F", "F♯", "G", "G♯", "A", "A♯", "B"}

// Estimator tracks fundamental frequency over mono float64 samples. It owns
// a reusable FFT plan, so one instance per goroutine.
type Estimator struct {
	fft    *fourier.FFT
	window []float64
	padded []float64
}

// NewEstimator builds an estimator with a plan for the package frame size.
func NewEstimator() *Estimator {
	// Zero-padding to twice the frame length keeps the circular
	// autocorrelation linear over the lags searched.
	padSize := FrameSize * 2

	window := make([]float64, FrameSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(FrameSize-1)))
	}

	return &Estimator{
		fft:    fourier.NewFFT(padSize),
		window: window,
		padded: make([]float64, padSize),
	}
}

// Frame estimates the fundamental frequency of one frame. The second return
// is false for frames judged unvoiced.
func (estimator *Estimator) Frame(samples []float64, sampleRate int) (float64, bool) {
	if len(samples) < FrameSize || sampleRate <= 0 {
		return 0, false
	}

	for i := range estimator.padded {
		estimator.padded[i] = 0
	}

	for i := range FrameSize {
		estimator.padded[i] = samples[i] * estimator.window[i]
	}

	coeffs := estimator.fft.Coefficients(nil, estimator.padded)
	for i, c := range coeffs {
		power := real(c)*real(c) + imag(c)*imag(c)
		coeffs[i] = complex(power, 0)
	}

	correlation := estimator.fft.Sequence(nil, coeffs)

	energy := correlation[0]
	if energy <= 0 {
		return 0, false
	}

	minLag := int(float64(sampleRate) / maxFrequency)
	maxLag := int(float64(sampleRate) / minFrequency)

	if minLag < 2 {
		minLag = 2
	}

	if maxLag >= len(correlation)/2 {
		maxLag = len(correlation)/2 - 1
	}

	bestLag := 0
	bestValue := 0.0

	for lag := minLag; lag <= maxLag; lag++ {
		value := correlation[lag] / energy
		if value > bestValue {
			bestValue = value
			bestLag = lag
		}
	}

	if bestLag == 0 || bestValue < voicingThreshold {
		return 0, false
	}

	// Parabolic interpolation around the peak refines the lag beyond
	// integer resolution.
	lag := float64(bestLag)

	if bestLag > minLag && bestLag < maxLag {
		left := correlation[bestLag-1] / energy
		right := correlation[bestLag+1] / energy

		denom := left - 2*bestValue + right
		if denom != 0 {
			lag += 0.5 * (left - right) / denom
		}
	}

	return float64(sampleRate) / lag, true
}

// Track walks the samples frame by frame and returns the voiced frequency
// estimates in order.
func (estimator *Estimator) Track(samples []float64, sampleRate int) []float64 {
	var frequencies []float64

	for offset := 0; offset+FrameSize <= len(samples); offset += HopSize {
		if frequency, voiced := estimator.Frame(samples[offset:offset+FrameSize], sampleRate); voiced {
			frequencies = append(frequencies, frequency)
		}
	}

	return frequencies
}

// HzToMidi converts a frequency to its fractional MIDI note number.
func HzToMidi(frequency float64) float64 {
	return 69 + 12*math.Log2(frequency/440.0)
}

// NoteName renders a MIDI note number as a pitch name with octave, C4 being
// middle C.
func NoteName(midi int) string {
	octave := midi/12 - 1

	return fmt.Sprintf("%s%d", noteNames[((midi%12)+12)%12], octave)
}

// NoteNameCents renders a fractional MIDI number with its cent deviation
// from the nearest semitone.
func NoteNameCents(midi float64) string {
	nearest := int(math.Round(midi))
	cents := int(math.Round((midi - float64(nearest)) * 100))

	if cents == 0 {
		return NoteName(nearest)
	}

	return fmt.Sprintf("%s%+d¢", NoteName(nearest), cents)
}

// Counter accumulates per-note frame counts keyed by rounded MIDI number.
type Counter map[int]uint64

// Count adds every voiced frame of the samples to the counter.
func (counter Counter) Count(estimator *Estimator, samples []float64, sampleRate int) {
	for _, frequency := range estimator.Track(samples, sampleRate) {
		counter[int(math.Round(HzToMidi(frequency)))]++
	}
}

// Merge folds another counter into this one.
func (counter Counter) Merge(other Counter) {
	for midi, count := range other {
		counter[midi] += count
	}
}

// Total returns the number of voiced frames counted.
func (counter Counter) Total() uint64 {
	var total uint64

	for _, count := range counter {
		total += count
	}

	return total
}
