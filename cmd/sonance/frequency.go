//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/sonance/internal/codec"
	"github.com/farcloser/sonance/internal/files"
	"github.com/farcloser/sonance/internal/pitch"
	"github.com/farcloser/sonance/internal/pool"
)

var errFrequencyArgs = errors.New("expected exactly one argument: input directory")

const chartWidth = 50

// detailScale buckets fractional MIDI numbers at 10-cent resolution.
const detailScale = 10

func frequencyCommand() *cli.Command {
	return &cli.Command{
		Name:      "frequency",
		Usage:     "Estimate the note distribution across a directory of audio files",
		ArgsUsage: "<input-dir>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"r"},
				Usage:   "Search input directory recursively",
				Value:   true,
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of parallel workers (0 = one per CPU, minus one)",
			},
			&cli.BoolFlag{
				Name:  "visualize",
				Usage: "Render the distribution as a bar chart",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "detail",
				Usage: "Count at 10-cent resolution instead of semitones",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errFrequencyArgs, cmd.NArg())
			}

			inputDir := cmd.Args().First()
			detail := cmd.Bool("detail")

			paths, err := files.List(inputDir, files.DefaultExtensions(), cmd.Bool("recursive"))
			if err != nil {
				return err
			}

			if len(paths) == 0 {
				return fmt.Errorf("%q: %w", inputDir, errNoAudioFiles)
			}

			fmt.Fprintf(os.Stderr, "Found %d files, calculating note distribution\n", len(paths))

			var mutex sync.Mutex

			total := pitch.Counter{}

			failures := pool.Run(ctx, paths, cmd.Int("workers"), true, func(path string) error {
				counter, err := countFile(ctx, path, detail)
				if err != nil {
					return err
				}

				mutex.Lock()
				total.Merge(counter)
				mutex.Unlock()

				return nil
			})

			printDistribution(total, detail)

			if cmd.Bool("visualize") && !detail {
				printChart(total)
			}

			if len(failures) > 0 {
				return fmt.Errorf("%w: %d of %d", errBatchFailures, len(failures), len(paths))
			}

			return nil
		},
	}
}

// countFile estimates pitch over the mono mixdown of one file and buckets
// the voiced frames, by semitone or by 10-cent step.
func countFile(ctx context.Context, path string, detail bool) (pitch.Counter, error) {
	channels, format, err := codec.DecodeFile(ctx, path)
	if err != nil {
		return nil, err
	}

	mono := mixdown(channels)
	estimator := pitch.NewEstimator()
	counter := pitch.Counter{}

	if !detail {
		counter.Count(estimator, mono, format.SampleRate)

		return counter, nil
	}

	for _, frequency := range estimator.Track(mono, format.SampleRate) {
		counter[int(math.Round(pitch.HzToMidi(frequency)*detailScale))]++
	}

	return counter, nil
}

func mixdown(channels [][]float64) []float64 {
	if len(channels) == 1 {
		return channels[0]
	}

	mono := make([]float64, len(channels[0]))
	for _, channel := range channels {
		for index, sample := range channel {
			mono[index] += sample
		}
	}

	for index := range mono {
		mono[index] /= float64(len(channels))
	}

	return mono
}

func printDistribution(counter pitch.Counter, detail bool) {
	type entry struct {
		key   int
		count uint64
	}

	entries := make([]entry, 0, len(counter))
	for key, count := range counter {
		entries = append(entries, entry{key: key, count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}

		return entries[i].key < entries[j].key
	})

	for _, item := range entries {
		fmt.Fprintf(os.Stdout, "%s: %d\n", keyLabel(item.key, detail), item.count)
	}
}

// printChart renders the histogram in note order, scaled to the busiest
// note.
func printChart(counter pitch.Counter) {
	keys := make([]int, 0, len(counter))

	var maxCount uint64

	for key, count := range counter {
		keys = append(keys, key)

		if count > maxCount {
			maxCount = count
		}
	}

	if maxCount == 0 {
		return
	}

	sort.Ints(keys)

	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, "Notes distribution")

	for _, key := range keys {
		count := counter[key]
		width := int(count * chartWidth / maxCount)

		fmt.Fprintf(os.Stdout, "%5s %s %d\n", keyLabel(key, false), strings.Repeat("█", width), count)
	}
}

func keyLabel(key int, detail bool) string {
	if detail {
		return pitch.NoteNameCents(float64(key) / detailScale)
	}

	return pitch.NoteName(key)
}
