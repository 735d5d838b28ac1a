// Package kweight implements the ITU-R BS.1770-4 K-weighting pre-filter:
// a high-frequency shelf modelling the acoustic effects of the head,
// cascaded with the RLB high-pass weighting curve.
package kweight

import "math"

// Biquad holds second-order IIR filter coefficients (a0 normalized out).
type Biquad struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// state holds the two delay taps of a transposed direct form II section.
type state struct {
	z1, z2 float64
}

func (s *state) process(b *Biquad, in float64) float64 {
	out := b.B0*in + s.z1
	s.z1 = b.B1*in - b.A1*out + s.z2
	s.z2 = b.B2*in - b.A2*out

	return out
}

// Design computes the K-weighting sections for the given sample rate.
// The standard tabulates coefficients for 48 kHz only; other rates are
// re-derived from the analog prototype via the bilinear transform, which
// reproduces the tabulated values at 48 kHz.
func Design(sampleRate int) (pre, rlb Biquad) {
	fs := float64(sampleRate)

	// Pre-filter (high shelf), ~+4 dB above ~1.5 kHz.
	f0 := 1681.974450955533
	gain := 3.999843853973347
	q := 0.7071752369554196

	k := math.Tan(math.Pi * f0 / fs)
	vh := math.Pow(10, gain/20)
	vb := math.Pow(vh, 0.4996667741545416)

	a0 := 1 + k/q + k*k
	pre.B0 = (vh + vb*k/q + k*k) / a0
	pre.B1 = 2 * (k*k - vh) / a0
	pre.B2 = (vh - vb*k/q + k*k) / a0
	pre.A1 = 2 * (k*k - 1) / a0
	pre.A2 = (1 - k/q + k*k) / a0

	// RLB weighting (high pass), shelving at ~38 Hz.
	f0 = 38.13547087602444
	q = 0.5003270373238773

	k = math.Tan(math.Pi * f0 / fs)

	a0 = 1 + k/q + k*k
	rlb.B0 = 1 / a0
	rlb.B1 = -2 / a0
	rlb.B2 = 1 / a0
	rlb.A1 = 2 * (k*k - 1) / a0
	rlb.A2 = (1 - k/q + k*k) / a0

	return pre, rlb
}

// Apply runs one channel through the K-weighting cascade and returns the
// filtered samples. Filter state starts cold (zeroed taps) and is local to
// this single pass; the short warm-up transient is accepted per the standard.
func Apply(samples []float64, sampleRate int) []float64 {
	pre, rlb := Design(sampleRate)

	var preState, rlbState state

	out := make([]float64, len(samples))

	for i, sample := range samples {
		filtered := preState.process(&pre, sample)
		out[i] = rlbState.process(&rlb, filtered)
	}

	return out
}
