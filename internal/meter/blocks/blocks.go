// Package blocks partitions K-weighted audio into overlapping gating blocks
// and reduces each to a single channel-weighted mean-square power, per
// ITU-R BS.1770-4 §3 (400 ms blocks, 75% overlap).
package blocks

import (
	"iter"
	"math"
)

// DefaultDuration is the standard gating block length in seconds.
const DefaultDuration = 0.400

const overlapDivisor = 4 // 75% overlap: hop is a quarter block

// Weights returns the per-channel weighting factors for a given channel
// count: 1.0 for left/right/center, 1.41 for surround, 0 for the LFE
// channel in layouts that carry one (5.1 and larger).
func Weights(channels int) []float64 {
	weights := make([]float64, channels)
	for i := range weights {
		weights[i] = 1.0
	}

	switch {
	case channels == 5:
		// 5.0: L R C Ls Rs
		weights[3] = 1.41
		weights[4] = 1.41
	case channels >= 6:
		// 5.1 and up: L R C LFE Ls Rs — LFE is excluded from the sum.
		weights[3] = 0
		weights[4] = 1.41
		weights[5] = 1.41
	}

	return weights
}

// Length returns the gating block length in samples for a duration and rate.
func Length(duration float64, sampleRate int) int {
	return int(math.Round(duration * float64(sampleRate)))
}

// Powers lazily yields one weighted mean-square power per gating block.
// It is a pure function of its inputs: re-ranging the sequence restarts it.
// A buffer shorter than one block is measured as a single block averaged
// over the available samples only, so padding never distorts the mean.
func Powers(channels [][]float64, sampleRate int, duration float64) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if len(channels) == 0 {
			return
		}

		frames := len(channels[0])
		if frames == 0 {
			return
		}

		blockLen := Length(duration, sampleRate)
		if blockLen < 1 {
			blockLen = 1
		}

		hop := max(blockLen/overlapDivisor, 1)
		weights := Weights(len(channels))

		if frames < blockLen {
			yield(blockPower(channels, weights, 0, frames))

			return
		}

		for offset := 0; offset+blockLen <= frames; offset += hop {
			if !yield(blockPower(channels, weights, offset, blockLen)) {
				return
			}
		}
	}
}

func blockPower(channels [][]float64, weights []float64, offset, length int) float64 {
	var power float64

	for ch, samples := range channels {
		if weights[ch] == 0 {
			continue
		}

		var sumSq float64
		for _, sample := range samples[offset : offset+length] {
			sumSq += sample * sample
		}

		power += weights[ch] * sumSq / float64(length)
	}

	return power
}
