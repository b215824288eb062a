/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/oci"
)

const (
	defaultOCITag     = "latest"
	defaultRepository = "dbx-runtime-dockerfiles"
)

func publishCmd() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Package the generated tree as an OCI artifact and push it",
		Description: `Archives <data-dir> into an OCI artifact. With an oci:// target the
artifact is pushed using Docker credentials:

  dbxc publish --target oci://ghcr.io/twsl/dbx-runtime-dockerfiles:2025.10.01

Any other target is a local directory that receives the OCI Image Layout.`,
		Flags: []cli.Flag{
			dataDirFlag(),
			&cli.StringFlag{
				Name:    "target",
				Value:   oci.URIScheme + defaults.ImageNamespace + "/" + defaultRepository,
				Usage:   "oci://registry/repository[:tag] or a local directory",
				Sources: cli.EnvVars(envPrefix + "PUBLISH_TARGET"),
			},
			&cli.StringFlag{
				Name:  "tag",
				Value: defaultOCITag,
				Usage: "tag used when the target names none",
			},
			&cli.StringFlag{
				Name:  "store-dir",
				Usage: "keep the OCI Image Layout in this directory (default: temporary)",
			},
			&cli.StringFlag{
				Name:  "reproducible-timestamp",
				Usage: "fixed RFC 3339 created timestamp for a reproducible digest",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "use HTTP instead of HTTPS for the registry",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "skip registry TLS certificate verification",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ref, err := oci.ParseOutputTarget(cmd.String("target"))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, defaults.CLIPublishTimeout)
			defer cancel()

			res, err := oci.Publish(ctx, oci.PublishConfig{
				SourceDir:             cmd.String("data-dir"),
				StoreDir:              cmd.String("store-dir"),
				Reference:             ref,
				Tag:                   cmd.String("tag"),
				Version:               version,
				ReproducibleTimestamp: cmd.String("reproducible-timestamp"),
				PlainHTTP:             cmd.Bool("plain-http"),
				InsecureTLS:           cmd.Bool("insecure-tls"),
			})
			if err != nil {
				return err
			}

			out := stdout(cmd)
			if res.Pushed {
				fmt.Fprintf(out, "pushed %s@%s\n", res.Reference, res.Digest)
				return nil
			}
			fmt.Fprintf(out, "packaged %s@%s in %s\n", res.Reference, res.Digest, res.StorePath)
			return nil
		},
	}
}
