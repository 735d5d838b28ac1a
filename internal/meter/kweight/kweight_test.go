package kweight_test

import (
	"math"
	"testing"

	"github.com/farcloser/sonance/internal/meter/kweight"
)

// Reference pre-filter coefficients tabulated in BS.1770-4 for 48 kHz.
func TestDesign48kMatchesStandardTable(t *testing.T) {
	t.Parallel()

	pre, _ := kweight.Design(48000)

	want := kweight.Biquad{
		B0: 1.53512485958697,
		B1: -2.69169618940638,
		B2: 1.19839281085285,
		A1: -1.69065929318241,
		A2: 0.73248077421585,
	}

	const tol = 1e-6

	checks := []struct {
		name      string
		got, want float64
	}{
		{"b0", pre.B0, want.B0},
		{"b1", pre.B1, want.B1},
		{"b2", pre.B2, want.B2},
		{"a1", pre.A1, want.A1},
		{"a2", pre.A2, want.A2},
	}

	for _, c := range checks {
		if math.Abs(c.got-c.want) > tol {
			t.Errorf("pre-filter %s = %.12f, want %.12f", c.name, c.got, c.want)
		}
	}
}

func TestDesignRLBDenominator48k(t *testing.T) {
	t.Parallel()

	_, rlb := kweight.Design(48000)

	const tol = 1e-6

	if math.Abs(rlb.A1 - -1.99004745483398) > tol {
		t.Errorf("rlb a1 = %.12f, want -1.99004745483398", rlb.A1)
	}

	if math.Abs(rlb.A2-0.99007225036621) > tol {
		t.Errorf("rlb a2 = %.12f, want 0.99007225036621", rlb.A2)
	}

	// High-pass numerator keeps the 1:-2:1 shape after a0 normalization.
	if math.Abs(rlb.B1+2*rlb.B0) > 1e-12 || math.Abs(rlb.B2-rlb.B0) > 1e-12 {
		t.Errorf("rlb numerator shape broken: b0=%v b1=%v b2=%v", rlb.B0, rlb.B1, rlb.B2)
	}
}

func TestApplyRejectsSubsonics(t *testing.T) {
	t.Parallel()

	const (
		rate = 48000
		dur  = 2 * rate
	)

	low := make([]float64, dur)
	mid := make([]float64, dur)

	for i := range dur {
		low[i] = math.Sin(2 * math.Pi * 10 * float64(i) / rate)
		mid[i] = math.Sin(2 * math.Pi * 997 * float64(i) / rate)
	}

	lowOut := kweight.Apply(low, rate)
	midOut := kweight.Apply(mid, rate)

	// Skip the warm-up transient, compare steady-state energy.
	energy := func(s []float64) float64 {
		var sum float64
		for _, v := range s[rate:] {
			sum += v * v
		}

		return sum
	}

	if energy(lowOut) > 0.1*energy(midOut) {
		t.Errorf("10 Hz energy %.4f not attenuated vs 997 Hz energy %.4f", energy(lowOut), energy(midOut))
	}
}

func TestApplyPreservesLength(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 7, 4800} {
		in := make([]float64, n)
		if got := len(kweight.Apply(in, 48000)); got != n {
			t.Errorf("Apply length = %d, want %d", got, n)
		}
	}
}
