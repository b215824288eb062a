/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/matrix"
)

func matrixCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate-matrix",
		Usage: "Print the CI build matrix for the generated tree",
		Description: `Reads <data-dir>/build_summary.json and prints one compact JSON line:

  {"include":[{"runtime":"17.3 LTS","image_type":"python","variant":"","suffix":"-ubuntu2404-py312"}]}

Only python image types are included. When the summary is missing an empty
matrix is printed and the command exits non-zero.`,
		Flags: []cli.Flag{
			dataDirFlag(),
			&cli.BoolFlag{
				Name:  "only-lts",
				Usage: "only include LTS runtimes",
			},
			&cli.StringFlag{
				Name:  "image-type",
				Usage: "only include this image type",
			},
			latestLTSCountFlag(0),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			out := stdout(cmd)
			path := filepath.Join(cmd.String("data-dir"), defaults.SummaryFileName)

			summary, err := matrix.Load(path)
			if err != nil {
				if werr := writeMatrix(out, matrix.Empty()); werr != nil {
					slog.Warn("failed to write empty matrix", "error", werr)
				}
				return err
			}

			m := matrix.Generate(summary, matrix.Options{
				OnlyLTS:        cmd.Bool("only-lts"),
				ImageType:      cmd.String("image-type"),
				LatestLTSCount: cmd.Int("latest-lts-count"),
			})
			slog.Debug("generated matrix", "entries", len(m.Include), "summary", path)

			return writeMatrix(out, m)
		},
	}
}

// writeMatrix prints m as a single JSON line.
func writeMatrix(w io.Writer, m matrix.Matrix) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode matrix: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
