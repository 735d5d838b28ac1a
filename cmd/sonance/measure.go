//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/primordium/format"

	sonance "github.com/farcloser/sonance"
	"github.com/farcloser/sonance/internal/codec"
)

var errMeasureArgs = errors.New("expected exactly one argument: file path")

func measureCommand() *cli.Command {
	return &cli.Command{
		Name:      "measure",
		Usage:     "Report integrated loudness and sample peak for one file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:    "peak",
				Aliases: []string{"p"},
				Usage:   "Peak ceiling in dBFS used for the would-be gain",
				Value:   sonance.DefaultParameters().PeakTargetDb,
			},
			&cli.FloatFlag{
				Name:    "loudness",
				Aliases: []string{"l"},
				Usage:   "Integrated loudness target in LUFS used for the would-be gain",
				Value:   sonance.DefaultParameters().LoudnessTargetLUFS,
			},
			&cli.FloatFlag{
				Name:  "block-size",
				Usage: "Gating block duration in seconds",
				Value: sonance.DefaultParameters().BlockDuration,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: console, json, markdown",
				Value:   "console",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errMeasureArgs, cmd.NArg())
			}

			filePath := cmd.Args().First()

			params := sonance.Parameters{
				PeakTargetDb:       cmd.Float("peak"),
				LoudnessTargetLUFS: cmd.Float("loudness"),
				BlockDuration:      cmd.Float("block-size"),
			}

			if err := params.Validate(); err != nil {
				return err
			}

			channels, pcmFormat, err := codec.DecodeFile(ctx, filePath)
			if err != nil {
				return err
			}

			result, err := sonance.Normalize(&sonance.Buffer{
				Channels: channels,
				Rate:     pcmFormat.SampleRate,
			}, params)
			if err != nil {
				return err
			}

			return outputMeasurement(filePath, result, cmd.String("format"))
		},
	}
}

func outputMeasurement(filePath string, result *sonance.Result, formatName string) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	meta := map[string]any{
		"integrated_loudness": lufsLabel(result.InputLUFS),
		"sample_peak":         dbLabel(result.SamplePeakDb),
		"suggested_gain":      fmt.Sprintf("%+.2f dB", result.GainDb),
		"peak_limited":        result.PeakLimited,
		"projected_loudness":  lufsLabel(result.OutputLUFS),
	}

	data := &format.Data{
		Object: filePath,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

func lufsLabel(lufs float64) string {
	if math.IsInf(lufs, -1) {
		return "silence"
	}

	return fmt.Sprintf("%.2f LUFS", lufs)
}

func dbLabel(db float64) string {
	if math.IsInf(db, -1) {
		return "silence"
	}

	return fmt.Sprintf("%.2f dBFS", db)
}
