/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/engine"
)

func buildCmd() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Generate Dockerfiles, metadata and the build summary",
		Description: `Fetches the runtime catalog and writes, for every runtime and image type:
  - <data-dir>/<image-type>/<runtime-dir>/Dockerfile
  - <data-dir>/<image-type>/<runtime-dir>/runtime_metadata.json
  - <data-dir>/<image-type>/<runtime-dir>/requirements.txt (python images)

Shared base images are written once under <data-dir>/<image-type>/latest/.
A full build ends with <data-dir>/build_summary.json. Builds narrowed with
--runtime-version or --image-type leave the summary untouched.`,
		Flags: []cli.Flag{
			dataDirFlag(),
			catalogFlag(),
			&cli.StringFlag{
				Name:    "registry",
				Usage:   fmt.Sprintf("registry prefix for base image references (e.g. %s)", defaults.ImageNamespace),
				Sources: cli.EnvVars(envPrefix + "REGISTRY"),
			},
			&cli.StringFlag{
				Name:  "runtime-version",
				Usage: `build a single runtime (e.g. "17.3 LTS" or "17.3-LTS")`,
			},
			&cli.BoolFlag{
				Name:  "ml",
				Usage: "with --runtime-version, build the ML runtime",
			},
			&cli.StringFlag{
				Name:  "image-type",
				Usage: "build a single image type",
			},
			latestLTSCountFlag(defaults.LatestLTSCount),
			&cli.StringFlag{
				Name:    "force-os-version",
				Usage:   "use this Ubuntu release for every runtime (e.g. 22.04)",
				Sources: cli.EnvVars(envPrefix + "FORCE_OS_VERSION"),
			},
			&cli.BoolFlag{
				Name:  "no-os-upgrade",
				Usage: "keep each runtime's own Ubuntu release instead of the pinned one",
			},
			&cli.BoolFlag{
				Name:  "include-ml",
				Usage: "include ML runtimes when filtering LTS runtimes",
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"workers"},
				Value:   defaults.MaxWorkers,
				Usage:   "maximum runtimes built concurrently",
				Sources: cli.EnvVars(envPrefix + "THREADS"),
			},
			&cli.BoolFlag{
				Name:  "checksums",
				Usage: "write checksums.txt for every generated file",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write run metrics in Prometheus text format to this file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := newCatalogClient(cfg)
			if err != nil {
				return err
			}
			eng, err := engine.New(cfg, client)
			if err != nil {
				return err
			}

			res, runErr := eng.RunTarget(ctx, engine.Target{
				RuntimeVersion: cmd.String("runtime-version"),
				ML:             cmd.Bool("ml"),
				ImageType:      cmd.String("image-type"),
			})
			if res != nil {
				fmt.Fprintln(stdout(cmd), res.String())
			}

			if path := cmd.String("metrics-file"); path != "" {
				if err := engine.WriteMetricsFile(path); err != nil {
					slog.Warn("failed to write metrics file", "path", path, "error", err)
				}
			}

			return runErr
		},
	}
}
