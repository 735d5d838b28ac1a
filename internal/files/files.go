// Package files lists the audio files a batch run should touch.
package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/farcloser/primordium/fault"
)

// DefaultExtensions are the audio container suffixes a batch run picks up
// when the caller does not narrow them.
func DefaultExtensions() []string {
	return []string{".wav", ".flac", ".mp3", ".ogg", ".m4a", ".opus", ".aac", ".wma"}
}

// List returns the audio files under root carrying one of the given
// extensions, sorted. With recursive unset only root's immediate entries are
// considered.
func List(root string, extensions []string, recursive bool) ([]string, error) {
	lowered := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		lowered = append(lowered, strings.ToLower(ext))
	}

	var collected []string

	if recursive {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if entry.IsDir() {
				return nil
			}

			if matches(path, lowered) {
				collected = append(collected, path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			path := filepath.Join(root, entry.Name())
			if matches(path, lowered) {
				collected = append(collected, path)
			}
		}
	}

	slices.Sort(collected)

	return collected, nil
}

func matches(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))

	return slices.Contains(extensions, ext)
}
