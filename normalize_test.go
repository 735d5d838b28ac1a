package sonance_test

import (
	"math"
	"testing"

	"github.com/farcloser/sonance"
)

const testRate = 48000

func sineBuffer(t *testing.T, freq, amp float64, seconds float64, channels int) *sonance.Buffer {
	t.Helper()

	frames := int(seconds * testRate)
	buf := &sonance.Buffer{
		Channels: make([][]float64, channels),
		Rate:     testRate,
	}

	for ch := range channels {
		samples := make([]float64, frames)
		for i := range samples {
			samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testRate)
		}

		buf.Channels[ch] = samples
	}

	return buf
}

func silentBuffer(frames, channels int) *sonance.Buffer {
	buf := &sonance.Buffer{
		Channels: make([][]float64, channels),
		Rate:     testRate,
	}

	for ch := range channels {
		buf.Channels[ch] = make([]float64, frames)
	}

	return buf
}

// BS.1770-4 conformance: a full-scale 997 Hz sine in one channel of a
// stereo file measures -3.01 LUFS.
func TestMeasureConformanceSine(t *testing.T) {
	t.Parallel()

	buf := sineBuffer(t, 997, 1.0, 2.0, 1)
	buf.Channels = append(buf.Channels, make([]float64, buf.Frames())) // silent right

	lufs, err := sonance.Measure(buf, 0.400)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(lufs - -3.01) > 0.1 {
		t.Errorf("997 Hz full-scale sine = %.3f LUFS, want -3.01 +/- 0.1", lufs)
	}
}

// Measurement is gain-consistent: a 6.02 dB input gain shifts the measured
// loudness by 6.02 dB.
func TestMeasureGainConsistency(t *testing.T) {
	t.Parallel()

	quiet := sineBuffer(t, 997, 0.25, 2.0, 2)
	loud := sineBuffer(t, 997, 0.5, 2.0, 2)

	quietLUFS, err := sonance.Measure(quiet, 0.400)
	if err != nil {
		t.Fatal(err)
	}

	loudLUFS, err := sonance.Measure(loud, 0.400)
	if err != nil {
		t.Fatal(err)
	}

	if shift := loudLUFS - quietLUFS; math.Abs(shift-6.0206) > 0.05 {
		t.Errorf("doubling amplitude shifted loudness by %.4f dB, want 6.02 +/- 0.05", shift)
	}
}

func TestMeasureSilenceIsNegativeInfinity(t *testing.T) {
	t.Parallel()

	for _, frames := range []int{1, 100, testRate} {
		lufs, err := sonance.Measure(silentBuffer(frames, 2), 0.400)
		if err != nil {
			t.Fatal(err)
		}

		if !math.IsInf(lufs, -1) {
			t.Errorf("silence (%d frames) = %v, want -Inf", frames, lufs)
		}
	}
}

func TestMeasureRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := sonance.Measure(&sonance.Buffer{}, 0.400); err == nil {
		t.Error("empty buffer should fail")
	}

	if _, err := sonance.Measure(&sonance.Buffer{Channels: [][]float64{{0}}, Rate: 0}, 0.400); err == nil {
		t.Error("zero sample rate should fail")
	}

	ragged := &sonance.Buffer{Channels: [][]float64{{0, 0}, {0}}, Rate: testRate}
	if _, err := sonance.Measure(ragged, 0.400); err == nil {
		t.Error("unequal channel lengths should fail")
	}

	valid := sineBuffer(t, 440, 0.5, 0.5, 1)
	if _, err := sonance.Measure(valid, 0); err == nil {
		t.Error("zero block duration should fail")
	}
}

func TestNormalizeReachesLoudnessTarget(t *testing.T) {
	t.Parallel()

	buf := sineBuffer(t, 997, 0.5, 3.0, 2)

	result, err := sonance.Normalize(buf, sonance.DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}

	if result.PeakLimited {
		t.Fatalf("attenuating to -23 LUFS should not hit the peak ceiling (gain %.3f)", result.Gain)
	}

	got, err := sonance.Measure(result.Buffer, 0.400)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(got - -23.0) > 0.05 {
		t.Errorf("normalized loudness = %.3f LUFS, want -23.0", got)
	}
}

// Normalizing an already-normalized buffer is a near no-op.
func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	params := sonance.DefaultParameters()

	first, err := sonance.Normalize(sineBuffer(t, 997, 0.5, 3.0, 2), params)
	if err != nil {
		t.Fatal(err)
	}

	second, err := sonance.Normalize(first.Buffer, params)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(second.OutputLUFS-first.OutputLUFS) > 0.1 {
		t.Errorf("second pass moved loudness from %.3f to %.3f", first.OutputLUFS, second.OutputLUFS)
	}

	if math.Abs(second.GainDb) > 0.1 {
		t.Errorf("second pass applied %.3f dB, want ~0", second.GainDb)
	}
}

// The output sample peak never exceeds the peak target, whatever the
// loudness target asks for.
func TestNormalizePeakCeilingBinds(t *testing.T) {
	t.Parallel()

	params := sonance.DefaultParameters()
	params.LoudnessTargetLUFS = -3.0 // hotter than a 0.9 mono sine: forces the ceiling

	buf := sineBuffer(t, 997, 0.9, 2.0, 1)

	result, err := sonance.Normalize(buf, params)
	if err != nil {
		t.Fatal(err)
	}

	if !result.PeakLimited {
		t.Error("expected the peak ceiling to bind")
	}

	ceiling := math.Pow(10, params.PeakTargetDb/20)

	var outPeak float64

	for _, samples := range result.Buffer.Channels {
		for _, sample := range samples {
			if abs := math.Abs(sample); abs > outPeak {
				outPeak = abs
			}
		}
	}

	if outPeak > ceiling+1e-9 {
		t.Errorf("output peak %.6f exceeds ceiling %.6f", outPeak, ceiling)
	}
}

// An all-zero buffer normalizes to an all-zero buffer, -Inf loudness,
// and no NaN anywhere.
func TestNormalizeSilence(t *testing.T) {
	t.Parallel()

	for _, channels := range []int{1, 2, 6} {
		result, err := sonance.Normalize(silentBuffer(testRate/2, channels), sonance.DefaultParameters())
		if err != nil {
			t.Fatal(err)
		}

		if !math.IsInf(result.InputLUFS, -1) {
			t.Errorf("%d-channel silence measured %v, want -Inf", channels, result.InputLUFS)
		}

		if result.Gain != 1.0 {
			t.Errorf("silence gain = %v, want 1", result.Gain)
		}

		for ch, samples := range result.Buffer.Channels {
			for i, sample := range samples {
				if sample != 0 {
					t.Fatalf("channel %d sample %d = %v, want 0", ch, i, sample)
				}

				if math.IsNaN(sample) {
					t.Fatalf("NaN in output at channel %d sample %d", ch, i)
				}
			}
		}
	}
}

// The same scalar gain applies to every channel: stereo balance survives.
func TestNormalizeChannelUniformGain(t *testing.T) {
	t.Parallel()

	buf := sineBuffer(t, 997, 0.5, 2.0, 2)
	for i := range buf.Channels[1] {
		buf.Channels[1][i] *= 0.5 // right channel 6 dB down
	}

	result, err := sonance.Normalize(buf, sonance.DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}

	for i := range result.Buffer.Channels[0] {
		left := result.Buffer.Channels[0][i]
		right := result.Buffer.Channels[1][i]

		if math.Abs(left*0.5-right) > 1e-12 {
			t.Fatalf("channel balance broken at sample %d: L=%v R=%v", i, left, right)
		}
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	buf := sineBuffer(t, 440, 0.5, 1.0, 1)
	original := make([]float64, len(buf.Channels[0]))
	copy(original, buf.Channels[0])

	if _, err := sonance.Normalize(buf, sonance.DefaultParameters()); err != nil {
		t.Fatal(err)
	}

	for i := range original {
		if buf.Channels[0][i] != original[i] {
			t.Fatalf("input buffer mutated at sample %d", i)
		}
	}
}

func TestNormalizeRejectsInvalidParameters(t *testing.T) {
	t.Parallel()

	buf := sineBuffer(t, 440, 0.5, 0.5, 1)

	params := sonance.DefaultParameters()
	params.BlockDuration = 0

	if _, err := sonance.Normalize(buf, params); err == nil {
		t.Error("zero block duration should fail fast")
	}

	params.BlockDuration = -1

	if _, err := sonance.Normalize(buf, params); err == nil {
		t.Error("negative block duration should fail fast")
	}
}
