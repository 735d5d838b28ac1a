// Package pcm converts raw little-endian signed integer PCM streams into
// channel-major float64 samples normalized to [-1, 1].
package pcm

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/sonance/internal/types"
)

const (
	MaxValue16 = 32768.0      // 2^15
	MaxValue24 = 8388608.0    // 2^23
	MaxValue32 = 2147483648.0 // 2^31
)

const readFrames = 4096

// DecodeChannels reads an entire PCM stream and de-interleaves it into one
// float64 slice per channel. Trailing partial frames are dropped.
func DecodeChannels(reader io.Reader, format types.PCMFormat) ([][]float64, error) {
	decode, err := sampleDecoder(format.BitDepth)
	if err != nil {
		return nil, err
	}

	bytesPerSample := int(format.BitDepth) / 8
	numChannels := int(format.Channels)
	frameSize := bytesPerSample * numChannels

	channels := make([][]float64, numChannels)
	for ch := range channels {
		channels[ch] = []float64{}
	}

	buf := make([]byte, frameSize*readFrames)

	var leftover []byte

	for {
		count, err := reader.Read(buf)
		if count > 0 {
			data := buf[:count]
			if len(leftover) > 0 {
				data = append(leftover, data...)
				leftover = nil
			}

			completeBytes := (len(data) / frameSize) * frameSize
			if rest := data[completeBytes:]; len(rest) > 0 {
				leftover = append([]byte{}, rest...)
			}

			for index := 0; index < completeBytes; index += frameSize {
				for ch := range numChannels {
					channels[ch] = append(channels[ch], decode(data[index+ch*bytesPerSample:]))
				}
			}
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
		}
	}

	return channels, nil
}

func sampleDecoder(depth types.BitDepth) (func([]byte) float64, error) {
	switch depth {
	case types.Depth16:
		return func(data []byte) float64 {
			return float64(int16(binary.LittleEndian.Uint16(data))) / MaxValue16
		}, nil
	case types.Depth24:
		return func(data []byte) float64 {
			raw := int32(data[0]) | int32(data[1])<<8 | int32(data[2])<<16
			if raw&0x800000 != 0 {
				raw |= ^0xFFFFFF
			}

			return float64(raw) / MaxValue24
		}, nil
	case types.Depth32:
		return func(data []byte) float64 {
			return float64(int32(binary.LittleEndian.Uint32(data))) / MaxValue32
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", fault.ErrReadFailure, depth)
	}
}
