package sonance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBuffer reports a malformed audio buffer (no channels,
	// unequal channel lengths, or a non-positive sample rate).
	ErrInvalidBuffer = errors.New("invalid audio buffer")

	// ErrInvalidParameters reports out-of-range normalization parameters.
	ErrInvalidParameters = errors.New("invalid normalization parameters")
)

// Buffer is a channel-major multichannel audio clip: one sample slice per
// channel, samples normalized to [-1, 1]. The caller owns the buffer; the
// library never retains it past a call.
type Buffer struct {
	Channels [][]float64
	Rate     int // sample rate in Hz
}

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}

	return len(b.Channels[0])
}

func (b *Buffer) validate() error {
	if b == nil || len(b.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidBuffer)
	}

	if b.Rate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidBuffer, b.Rate)
	}

	frames := len(b.Channels[0])
	for ch, samples := range b.Channels {
		if len(samples) != frames {
			return fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrInvalidBuffer, ch, len(samples), frames)
		}
	}

	return nil
}

// scaled returns a new buffer with every sample multiplied by gain. The
// same scalar applies to all channels, preserving multichannel balance.
func (b *Buffer) scaled(gain float64) *Buffer {
	out := &Buffer{
		Channels: make([][]float64, len(b.Channels)),
		Rate:     b.Rate,
	}

	for ch, samples := range b.Channels {
		scaled := make([]float64, len(samples))
		for i, sample := range samples {
			scaled[i] = sample * gain
		}

		out.Channels[ch] = scaled
	}

	return out
}
