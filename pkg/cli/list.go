/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/serializer"
)

// runtimeList renders runtimes as a table; JSON and YAML see the plain slice.
type runtimeList []catalog.Runtime

func (l runtimeList) TableHeader() []string {
	return []string{"VERSION", "RELEASED", "END OF SUPPORT", "SPARK", "LTS", "ML"}
}

func (l runtimeList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, rt := range l {
		rows = append(rows, []string{
			rt.Version,
			rt.ReleaseDate.String(),
			rt.EndOfSupportDate.String(),
			rt.SparkVersion,
			strconv.FormatBool(rt.IsLTS),
			strconv.FormatBool(rt.IsML),
		})
	}
	return rows
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List runtimes published in the catalog",
		Flags: []cli.Flag{
			catalogFlag(),
			formatFlag(),
			&cli.BoolFlag{
				Name:  "lts",
				Usage: "only list LTS runtimes",
			},
			&cli.BoolFlag{
				Name:  "include-ml",
				Value: true,
				Usage: "include ML runtimes",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := newCatalogClient(cfg)
			if err != nil {
				return err
			}

			runtimes, err := client.SupportedRuntimes(ctx)
			if err != nil {
				return err
			}

			out := make(runtimeList, 0, len(runtimes))
			for _, rt := range runtimes {
				if cmd.Bool("lts") && !rt.IsLTS {
					continue
				}
				if !cmd.Bool("include-ml") && rt.IsML {
					continue
				}
				out = append(out, rt)
			}
			catalog.SortByReleaseDate(out)

			slog.Debug("listing runtimes", "count", len(out), "catalog", cfg.Catalog())

			w := serializer.NewWriter(format, stdout(cmd))
			defer func() {
				if cerr := w.Close(); cerr != nil {
					slog.Warn("failed to close serializer", "error", cerr)
				}
			}()
			return w.Serialize(ctx, out)
		},
	}
}
