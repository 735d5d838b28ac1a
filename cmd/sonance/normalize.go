//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	sonance "github.com/farcloser/sonance"
	"github.com/farcloser/sonance/internal/codec"
	"github.com/farcloser/sonance/internal/files"
	"github.com/farcloser/sonance/internal/pool"
)

var (
	errNormalizeArgs = errors.New("expected exactly two arguments: input directory and output directory")
	errSameDir       = errors.New("input and output directories must differ")
	errNoAudioFiles  = errors.New("no audio files found")
	errBatchFailures = errors.New("some files could not be processed")
)

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "normalize",
		Usage:     "Loudness-normalize every audio file in a directory",
		ArgsUsage: "<input-dir> <output-dir>",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:    "peak",
				Aliases: []string{"p"},
				Usage:   "Peak ceiling in dBFS",
				Value:   sonance.DefaultParameters().PeakTargetDb,
			},
			&cli.FloatFlag{
				Name:    "loudness",
				Aliases: []string{"l"},
				Usage:   "Integrated loudness target in LUFS",
				Value:   sonance.DefaultParameters().LoudnessTargetLUFS,
			},
			&cli.FloatFlag{
				Name:  "block-size",
				Usage: "Gating block duration in seconds",
				Value: sonance.DefaultParameters().BlockDuration,
			},
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
				Name:  "clean",
				Usage: "Wipe the output directory before processing",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Reprocess files whose output already exists",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("%w: got %d", errNormalizeArgs, cmd.NArg())
			}

			inputDir := cmd.Args().Get(0)
			outputDir := cmd.Args().Get(1)

			absInput, err := filepath.Abs(inputDir)
			if err != nil {
				return err
			}

			absOutput, err := filepath.Abs(outputDir)
			if err != nil {
				return err
			}

			if absInput == absOutput {
				return errSameDir
			}

			params := sonance.Parameters{
				PeakTargetDb:       cmd.Float("peak"),
				LoudnessTargetLUFS: cmd.Float("loudness"),
				BlockDuration:      cmd.Float("block-size"),
			}

			if err := params.Validate(); err != nil {
				return err
			}

			if cmd.Bool("clean") {
				if err := os.RemoveAll(absOutput); err != nil {
					return fmt.Errorf("cleaning output directory: %w", err)
				}
			}

			paths, err := files.List(absInput, files.DefaultExtensions(), cmd.Bool("recursive"))
			if err != nil {
				return err
			}

			if len(paths) == 0 {
				return fmt.Errorf("%q: %w", inputDir, errNoAudioFiles)
			}

			fmt.Fprintf(os.Stderr, "Found %d files to normalize\n", len(paths))

			overwrite := cmd.Bool("overwrite")

			failures := pool.Run(ctx, paths, cmd.Int("workers"), true, func(path string) error {
				return normalizeFile(ctx, path, absInput, absOutput, params, overwrite)
			})

			if len(failures) > 0 {
				return fmt.Errorf("%w: %d of %d", errBatchFailures, len(failures), len(paths))
			}

			return nil
		},
	}
}

// normalizeFile processes one file end to end: decode, normalize, encode to
// the mirrored path under the output directory.
func normalizeFile(
	ctx context.Context,
	path string,
	inputDir string,
	outputDir string,
	params sonance.Parameters,
	overwrite bool,
) error {
	relative, err := filepath.Rel(inputDir, path)
	if err != nil {
		return err
	}

	// Output is always WAV, whatever the input container was.
	extension := filepath.Ext(relative)
	outputPath := filepath.Join(outputDir, strings.TrimSuffix(relative, extension)+".wav")

	if !overwrite {
		if _, err := os.Stat(outputPath); err == nil {
			return nil
		}
	}

	channels, format, err := codec.DecodeFile(ctx, path)
	if err != nil {
		return err
	}

	result, err := sonance.Normalize(&sonance.Buffer{
		Channels: channels,
		Rate:     format.SampleRate,
	}, params)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	return codec.EncodeFile(outputPath, result.Buffer.Channels, format)
}
