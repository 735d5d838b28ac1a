// Package gate implements the two-stage gated integration of BS.1770-4:
// an absolute gate discarding near-silent blocks, then a relative gate
// discarding blocks far below the running average, so pauses cannot drag
// the integrated loudness of a predominantly louder signal downward.
package gate

import (
	"iter"
	"math"
)

const (
	// loudnessOffset is the -0.691 LKFS calibration term from the standard.
	loudnessOffset = -0.691

	// absoluteThreshold gates out blocks below -70 LUFS.
	absoluteThreshold = -70.0

	// relativeOffset places the second gate 10 LU under the survivor mean.
	relativeOffset = -10.0
)

// Loudness converts a block power (weighted mean square) to block loudness
// in LUFS. Zero power maps to -Inf, never NaN.
func Loudness(power float64) float64 {
	if power <= 0 {
		return math.Inf(-1)
	}

	return loudnessOffset + 10*math.Log10(power)
}

// Integrate runs the two-pass gating procedure over a sequence of block
// powers and returns the integrated loudness in LUFS. A fully silent input
// (no block survives the gates) yields -Inf.
func Integrate(powers iter.Seq[float64]) float64 {
	// First pass: absolute gate at -70 LUFS.
	var (
		absSum   float64
		absCount int
		survived []float64
	)

	for power := range powers {
		if Loudness(power) > absoluteThreshold {
			survived = append(survived, power)
			absSum += power
			absCount++
		}
	}

	if absCount == 0 {
		return math.Inf(-1)
	}

	// Second pass: relative gate 10 LU below the survivor mean.
	relativeThreshold := Loudness(absSum/float64(absCount)) + relativeOffset

	var (
		sum   float64
		count int
	)

	for _, power := range survived {
		if Loudness(power) > relativeThreshold {
			sum += power
			count++
		}
	}

	if count == 0 {
		return math.Inf(-1)
	}

	return Loudness(sum / float64(count))
}
