package types

// BitDepth of integer PCM samples.
type BitDepth uint

const (
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// PCMFormat describes a raw little-endian signed integer PCM stream as
// produced by the ffmpeg extraction path.
type PCMFormat struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   uint
}
