package ffmpeg

import "time"

const (
	name = "ffmpeg"
	// Decoding a long file on a slow disk can legitimately take a while.
	timeout = 10 * time.Minute
)
