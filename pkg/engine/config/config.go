// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/imagetype"
	"github.com/NVIDIA/dbx-container/pkg/variation"
)

var osVersionRe = regexp.MustCompile(`^\d{2}\.\d{2}$`)

// Config holds engine settings. It is immutable once built; use the getters.
type Config struct {
	// dataDir is the root of the generated tree.
	dataDir string

	// catalog is the location of the catalog index.
	catalog string

	// registry prefixes parent image references; empty uses the local
	// namespace.
	registry string

	// latestLTSCount keeps only the N most recent LTS versions; 0 keeps
	// every runtime.
	latestLTSCount int

	// forceOSVersion pins every base image to one Ubuntu release.
	forceOSVersion string

	// allowOSUpgrade moves runtimes on older releases to the default one.
	allowOSUpgrade bool

	// skipMLVariants drops ML runtimes from the LTS selection.
	skipMLVariants bool

	// maxWorkers bounds concurrent runtime builds and catalog fetches.
	maxWorkers int

	// includeChecksums writes checksums.txt next to the summary.
	includeChecksums bool

	// version is the generator version recorded in logs.
	version string
}

// DataDir returns the output directory.
func (c *Config) DataDir() string {
	return c.dataDir
}

// Catalog returns the catalog index location.
func (c *Config) Catalog() string {
	return c.catalog
}

// Registry returns the registry prefix, empty for local builds.
func (c *Config) Registry() string {
	return c.registry
}

// LatestLTSCount returns how many LTS versions are kept, 0 for all runtimes.
func (c *Config) LatestLTSCount() int {
	return c.latestLTSCount
}

// ForceOSVersion returns the pinned Ubuntu release, if any.
func (c *Config) ForceOSVersion() string {
	return c.forceOSVersion
}

// AllowOSUpgrade returns whether older releases are upgraded.
func (c *Config) AllowOSUpgrade() bool {
	return c.allowOSUpgrade
}

// SkipMLVariants returns whether ML runtimes are dropped.
func (c *Config) SkipMLVariants() bool {
	return c.skipMLVariants
}

// MaxWorkers returns the worker pool size.
func (c *Config) MaxWorkers() int {
	return c.maxWorkers
}

// IncludeChecksums returns whether checksums.txt is written.
func (c *Config) IncludeChecksums() bool {
	return c.includeChecksums
}

// Version returns the generator version.
func (c *Config) Version() string {
	return c.version
}

// OSPolicy returns the base image release policy derived from the config.
func (c *Config) OSPolicy() variation.OSPolicy {
	return variation.OSPolicy{
		Pinned:       defaults.OSVersion,
		Force:        c.forceOSVersion,
		AllowUpgrade: c.allowOSUpgrade,
	}
}

// Validate checks if the Config has valid settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.dataDir) == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if c.maxWorkers < 1 {
		return fmt.Errorf("max workers must be at least 1, got %d", c.maxWorkers)
	}
	if c.latestLTSCount < 0 {
		return fmt.Errorf("latest LTS count cannot be negative, got %d", c.latestLTSCount)
	}
	if c.forceOSVersion != "" && !osVersionRe.MatchString(c.forceOSVersion) {
		return fmt.Errorf("invalid OS version: %s (expected major.minor, e.g. 22.04)", c.forceOSVersion)
	}
	if err := imagetype.ValidateRegistryPrefix(c.registry); err != nil {
		return err
	}
	return nil
}

type Option func(*Config)

// WithDataDir sets the output directory.
func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.dataDir = dir
	}
}

// WithCatalog sets the catalog index location, a path or http(s) URL.
func WithCatalog(location string) Option {
	return func(c *Config) {
		c.catalog = location
	}
}

// WithRegistry sets the registry prefix for parent image references.
func WithRegistry(registry string) Option {
	return func(c *Config) {
		c.registry = strings.TrimSuffix(registry, "/")
	}
}

// WithLatestLTSCount keeps only the n most recent LTS versions; 0 keeps
// every runtime.
func WithLatestLTSCount(n int) Option {
	return func(c *Config) {
		c.latestLTSCount = n
	}
}

// WithForceOSVersion pins every base image to one Ubuntu release.
func WithForceOSVersion(version string) Option {
	return func(c *Config) {
		c.forceOSVersion = version
	}
}

// WithAllowOSUpgrade sets whether older releases are upgraded.
func WithAllowOSUpgrade(enabled bool) Option {
	return func(c *Config) {
		c.allowOSUpgrade = enabled
	}
}

// WithSkipMLVariants sets whether ML runtimes are dropped.
func WithSkipMLVariants(enabled bool) Option {
	return func(c *Config) {
		c.skipMLVariants = enabled
	}
}

// WithMaxWorkers sets the worker pool size.
func WithMaxWorkers(n int) Option {
	return func(c *Config) {
		c.maxWorkers = n
	}
}

// WithIncludeChecksums sets whether checksums.txt is written.
func WithIncludeChecksums(enabled bool) Option {
	return func(c *Config) {
		c.includeChecksums = enabled
	}
}

// WithVersion sets the generator version.
func WithVersion(version string) Option {
	return func(c *Config) {
		c.version = version
	}
}

// NewConfig returns a Config with default values.
func NewConfig(options ...Option) *Config {
	c := &Config{
		allowOSUpgrade:   true,
		catalog:          defaults.CatalogIndex,
		dataDir:          defaults.DataDir,
		includeChecksums: false,
		latestLTSCount:   defaults.LatestLTSCount,
		maxWorkers:       defaults.MaxWorkers,
		skipMLVariants:   true,
		version:          "dev",
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}
