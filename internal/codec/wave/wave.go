// Package wave reads and writes RIFF WAVE files.
//
// Decoding produces channel-major float64 samples in [-1, 1], the shape the
// loudness engine consumes. Encoding streams the samples back out in bounded
// chunks so large files never require a second full-size integer buffer.
package wave

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/sonance/internal/codec/pcm"
	"github.com/farcloser/sonance/internal/types"
)

const encodeChunkFrames = 100_000

// Decode reads an entire WAV file into channel-major float64 samples and
// reports the source format so encoding can round-trip it.
func Decode(path string) ([][]float64, types.PCMFormat, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, types.PCMFormat{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, types.PCMFormat{}, fmt.Errorf("%w: %s is not a valid wav file", fault.ErrReadFailure, path)
	}

	intBuf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, types.PCMFormat{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	numChannels := intBuf.Format.NumChannels
	if numChannels <= 0 {
		return nil, types.PCMFormat{}, fmt.Errorf("%w: %s has no audio channels", fault.ErrReadFailure, path)
	}

	bitDepth := types.BitDepth(decoder.BitDepth)

	var maxVal float64

	switch bitDepth {
	case types.Depth16:
		maxVal = pcm.MaxValue16
	case types.Depth24:
		maxVal = pcm.MaxValue24
	case types.Depth32:
		maxVal = pcm.MaxValue32
	default:
		return nil, types.PCMFormat{}, fmt.Errorf("%w: unsupported bit depth %d", fault.ErrReadFailure, decoder.BitDepth)
	}

	frames := len(intBuf.Data) / numChannels

	channels := make([][]float64, numChannels)
	for ch := range channels {
		channels[ch] = make([]float64, frames)
	}

	for frame := range frames {
		for ch := range numChannels {
			channels[ch][frame] = float64(intBuf.Data[frame*numChannels+ch]) / maxVal
		}
	}

	format := types.PCMFormat{
		SampleRate: intBuf.Format.SampleRate,
		BitDepth:   bitDepth,
		Channels:   uint(numChannels),
	}

	return channels, format, nil
}

// Encode writes channel-major float64 samples as a WAV file, clamping
// anything outside [-1, 1] at the target bit depth.
func Encode(path string, channels [][]float64, format types.PCMFormat) error {
	if len(channels) == 0 {
		return fmt.Errorf("%w: no channels to encode", fault.ErrReadFailure)
	}

	var maxVal float64

	switch format.BitDepth {
	case types.Depth16:
		maxVal = pcm.MaxValue16
	case types.Depth24:
		maxVal = pcm.MaxValue24
	case types.Depth32:
		maxVal = pcm.MaxValue32
	default:
		return fmt.Errorf("%w: unsupported bit depth %d", fault.ErrReadFailure, format.BitDepth)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	encoder := wav.NewEncoder(file, format.SampleRate, int(format.BitDepth), len(channels), 1)

	numChannels := len(channels)
	frames := len(channels[0])

	chunk := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  format.SampleRate,
		},
		SourceBitDepth: int(format.BitDepth),
	}

	for start := 0; start < frames; start += encodeChunkFrames {
		end := min(start+encodeChunkFrames, frames)

		chunk.Data = chunk.Data[:0]
		for frame := start; frame < end; frame++ {
			for ch := range numChannels {
				chunk.Data = append(chunk.Data, quantize(channels[ch][frame], maxVal))
			}
		}

		if err := encoder.Write(chunk); err != nil {
			_ = encoder.Close()
			_ = file.Close()

			return fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
		}
	}

	if err := encoder.Close(); err != nil {
		_ = file.Close()

		return fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return nil
}

func quantize(sample, maxVal float64) int {
	value := math.Round(sample * maxVal)
	if value > maxVal-1 {
		value = maxVal - 1
	}

	if value < -maxVal {
		value = -maxVal
	}

	return int(value)
}
