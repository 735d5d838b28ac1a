package sonance

import (
	"fmt"
	"math"

	"github.com/farcloser/sonance/internal/meter/blocks"
	"github.com/farcloser/sonance/internal/meter/gate"
	"github.com/farcloser/sonance/internal/meter/kweight"
	"github.com/farcloser/sonance/internal/meter/peak"
)

/*
Usage:

	buf := &sonance.Buffer{Channels: samples, Rate: 48000}

	lufs, err := sonance.Measure(buf, blocks.DefaultDuration)

	result, err := sonance.Normalize(buf, sonance.DefaultParameters())
	fmt.Printf("%.1f LUFS -> %.1f LUFS (gain %.2f dB)\n",
	    result.InputLUFS, result.OutputLUFS, result.GainDb)

	// Custom targets
	params := sonance.DefaultParameters()
	params.LoudnessTargetLUFS = -16.0
	result, err := sonance.Normalize(buf, params)
*/

// Parameters configures one normalization call. Immutable per invocation;
// normalization is a pure function of (buffer, parameters).
type Parameters struct {
	// PeakTargetDb caps the output sample peak (default -1.0 dB).
	// Positive values denote intentional over-unity gain.
	PeakTargetDb float64

	// LoudnessTargetLUFS is the integrated loudness target (default -23.0).
	LoudnessTargetLUFS float64

	// BlockDuration is the gating block length in seconds (default 0.400).
	BlockDuration float64
}

// DefaultParameters returns the EBU broadcast targets.
func DefaultParameters() Parameters {
	return Parameters{
		PeakTargetDb:       -1.0,
		LoudnessTargetLUFS: -23.0,
		BlockDuration:      blocks.DefaultDuration,
	}
}

// Validate fails fast on out-of-range parameters, before any computation.
// Targets may be any real value; only the block duration is constrained.
func (p Parameters) Validate() error {
	if p.BlockDuration <= 0 {
		return fmt.Errorf("%w: block duration %v must be > 0", ErrInvalidParameters, p.BlockDuration)
	}

	return nil
}

// Result reports one normalization outcome.
type Result struct {
	InputLUFS    float64 // integrated loudness before gain (-Inf for silence)
	OutputLUFS   float64 // integrated loudness after gain (-Inf for silence)
	SamplePeakDb float64 // input sample peak in dBFS (-Inf for silence)
	Gain         float64 // linear gain applied to every sample
	GainDb       float64 // the same gain in dB
	PeakLimited  bool    // true when the peak ceiling bound the gain
	Buffer       *Buffer // the gained buffer
}

// Measure computes the integrated loudness of a buffer in LUFS per
// ITU-R BS.1770-4: K-weighting per channel, overlapping block energies,
// then two-stage gated integration. Digital silence measures as -Inf,
// never NaN.
func Measure(buf *Buffer, blockDuration float64) (float64, error) {
	if err := buf.validate(); err != nil {
		return 0, err
	}

	if blockDuration <= 0 {
		return 0, fmt.Errorf("%w: block duration %v must be > 0", ErrInvalidParameters, blockDuration)
	}

	filtered := make([][]float64, len(buf.Channels))
	for ch, samples := range buf.Channels {
		filtered[ch] = kweight.Apply(samples, buf.Rate)
	}

	return gate.Integrate(blocks.Powers(filtered, buf.Rate, blockDuration)), nil
}

// Normalize measures the buffer and applies a single uniform gain that
// moves the integrated loudness to the target, clamped so the output
// sample peak never exceeds the peak target. Peak capping is the final,
// binding constraint. The input buffer is not modified.
//
// The transformation is total: every signal shape (silence, clipping,
// very short clips) produces a defined result; only invalid parameters
// or a malformed buffer return an error.
func Normalize(buf *Buffer, params Parameters) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	lufs, err := Measure(buf, params.BlockDuration)
	if err != nil {
		return nil, err
	}

	// Loudness gain. Silence measures -Inf; an infinite corrective gain is
	// useless, so silence passes through untouched.
	loudnessGain := 1.0
	if !math.IsInf(lufs, -1) {
		loudnessGain = math.Pow(10, (params.LoudnessTargetLUFS-lufs)/20)
	}

	// Peak-capping gain on the raw, unweighted samples.
	samplePeak := peak.Sample(buf.Channels)
	peakGain := peak.Gain(samplePeak, params.PeakTargetDb)

	gain := loudnessGain
	limited := false

	if peakGain < gain {
		gain = peakGain
		limited = true
	}

	outputLUFS := math.Inf(-1)
	if !math.IsInf(lufs, -1) {
		outputLUFS = lufs + 20*math.Log10(gain)
	}

	samplePeakDb := math.Inf(-1)
	if samplePeak > 0 {
		samplePeakDb = 20 * math.Log10(samplePeak)
	}

	return &Result{
		InputLUFS:    lufs,
		OutputLUFS:   outputLUFS,
		SamplePeakDb: samplePeakDb,
		Gain:         gain,
		GainDb:       20 * math.Log10(gain),
		PeakLimited:  limited,
		Buffer:       buf.scaled(gain),
	}, nil
}
