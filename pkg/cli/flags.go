/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/engine/config"
	"github.com/NVIDIA/dbx-container/pkg/serializer"
)

func dataDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Aliases: []string{"output-dir", "o"},
		Value:   defaults.DataDir,
		Usage:   "directory holding the generated tree",
		Sources: cli.EnvVars(envPrefix + "DATA_DIR"),
	}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "catalog",
		Value:   defaults.CatalogIndex,
		Usage:   "runtime catalog index (file path or http(s) URL)",
		Sources: cli.EnvVars(envPrefix + "CATALOG"),
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatTable),
		Usage:   fmt.Sprintf("output format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func latestLTSCountFlag(value int) cli.Flag {
	return &cli.IntFlag{
		Name:    "latest-lts-count",
		Value:   value,
		Usage:   "keep only the N most recent LTS runtimes (0 keeps all)",
		Sources: cli.EnvVars(envPrefix + "LATEST_LTS_COUNT"),
	}
}

// parseOutputFormat returns the --format value or an error for unknown formats.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, supported values: %v", f, serializer.SupportedFormats())
	}
	return f, nil
}

// loadConfig layers the optional config file under explicitly set flags.
// Flags left at their default do not override file values.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	opts := []config.Option{config.WithVersion(version)}

	if path := cmd.String("config"); path != "" {
		fileOpts, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpts...)
	}

	if cmd.IsSet("data-dir") {
		opts = append(opts, config.WithDataDir(cmd.String("data-dir")))
	}
	if cmd.IsSet("catalog") {
		opts = append(opts, config.WithCatalog(cmd.String("catalog")))
	}
	if cmd.IsSet("registry") {
		opts = append(opts, config.WithRegistry(cmd.String("registry")))
	}
	if cmd.IsSet("latest-lts-count") {
		opts = append(opts, config.WithLatestLTSCount(cmd.Int("latest-lts-count")))
	}
	if cmd.IsSet("force-os-version") {
		opts = append(opts, config.WithForceOSVersion(cmd.String("force-os-version")))
	}
	if cmd.IsSet("no-os-upgrade") {
		opts = append(opts, config.WithAllowOSUpgrade(!cmd.Bool("no-os-upgrade")))
	}
	if cmd.IsSet("include-ml") {
		opts = append(opts, config.WithSkipMLVariants(!cmd.Bool("include-ml")))
	}
	if cmd.IsSet("threads") {
		opts = append(opts, config.WithMaxWorkers(cmd.Int("threads")))
	}
	if cmd.IsSet("checksums") {
		opts = append(opts, config.WithIncludeChecksums(cmd.Bool("checksums")))
	}

	cfg := config.NewConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCatalogClient returns a client for the catalog named by cfg.
func newCatalogClient(cfg *config.Config) (*catalog.Client, error) {
	return catalog.NewClient(cfg.Catalog(), catalog.WithWorkers(cfg.MaxWorkers()))
}
