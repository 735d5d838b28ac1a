// Package peak measures sample peaks and derives peak-capping gain.
// Peaks are taken on the raw, unweighted signal; true-peak (oversampled)
// measurement is deliberately out of scope.
package peak

import "math"

// Sample returns the maximum absolute sample value across all channels.
func Sample(channels [][]float64) float64 {
	var peak float64

	for _, samples := range channels {
		for _, sample := range samples {
			if abs := math.Abs(sample); abs > peak {
				peak = abs
			}
		}
	}

	return peak
}

// Gain returns the linear gain that places the given sample peak exactly at
// the target level in dB. A silent buffer (peak 0) has no peak constraint,
// so the gain is unity rather than a division by zero.
func Gain(samplePeak, targetDb float64) float64 {
	if samplePeak == 0 {
		return 1.0
	}

	return math.Pow(10, targetDb/20) / samplePeak
}
