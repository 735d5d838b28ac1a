// Package codec turns audio files into channel-major float64 samples and
// back. WAV files are handled natively; everything else is decoded through
// the external ffmpeg binary.
package codec

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/sonance/internal/codec/pcm"
	"github.com/farcloser/sonance/internal/codec/wave"
	"github.com/farcloser/sonance/internal/integration/ffmpeg"
	"github.com/farcloser/sonance/internal/integration/ffprobe"
	"github.com/farcloser/sonance/internal/types"
)

// extractDepth is the bit depth ffmpeg is asked to decode to. 32-bit covers
// every source depth without precision loss.
const extractDepth = types.Depth32

// DecodeFile reads any supported audio file into channel-major float64
// samples in [-1, 1], along with the format an encoded result should use.
func DecodeFile(ctx context.Context, path string) ([][]float64, types.PCMFormat, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return wave.Decode(path)
	}

	probed, err := ffprobe.Probe(ctx, path)
	if err != nil {
		return nil, types.PCMFormat{}, err
	}

	audioStreams := probed.Audio()
	if len(audioStreams) == 0 {
		return nil, types.PCMFormat{}, fmt.Errorf("%w: %s has no audio stream", fault.ErrReadFailure, path)
	}

	if len(audioStreams) > 1 {
		slog.Debug("codec.DecodeFile", "file path", path, "note", "multiple audio streams, using the first")
	}

	stream := audioStreams[0]

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, types.PCMFormat{}, fmt.Errorf("%w: %s reports sample rate %q", fault.ErrReadFailure, path, stream.SampleRate)
	}

	if stream.Channels <= 0 {
		return nil, types.PCMFormat{}, fmt.Errorf("%w: %s reports %d channels", fault.ErrReadFailure, path, stream.Channels)
	}

	extractFormat := types.PCMFormat{
		SampleRate: sampleRate,
		BitDepth:   extractDepth,
		Channels:   uint(stream.Channels),
	}

	var raw bytes.Buffer

	if err := ffmpeg.Extract(ctx, path, &raw, 0, &extractFormat); err != nil {
		return nil, types.PCMFormat{}, err
	}

	channels, err := pcm.DecodeChannels(&raw, extractFormat)
	if err != nil {
		return nil, types.PCMFormat{}, err
	}

	outputFormat := types.PCMFormat{
		SampleRate: sampleRate,
		BitDepth:   streamDepth(stream),
		Channels:   uint(stream.Channels),
	}

	return channels, outputFormat, nil
}

// EncodeFile writes channel-major samples as a WAV file. Non-WAV inputs come
// back out as WAV too, which is what dataset preparation pipelines expect.
func EncodeFile(path string, channels [][]float64, format types.PCMFormat) error {
	return wave.Encode(path, channels, format)
}

// streamDepth resolves the bit depth an output file should carry. Lossy
// sources have no native depth and fall back to 16-bit.
func streamDepth(stream ffprobe.Stream) types.BitDepth {
	depth := stream.BitsPerSample
	if depth == 0 {
		depth, _ = strconv.Atoi(stream.BitsPerRawSample)
	}

	switch types.BitDepth(depth) {
	case types.Depth16, types.Depth24, types.Depth32:
		return types.BitDepth(depth)
	default:
		return types.Depth16
	}
}
