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
	"github.com/NVIDIA/dbx-container/pkg/errors"
	"github.com/NVIDIA/dbx-container/pkg/serializer"
)

// File is the on-disk form of the configuration. Unset fields keep their
// defaults.
type File struct {
	DataDir          *string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	Catalog          *string `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	Registry         *string `json:"registry,omitempty" yaml:"registry,omitempty"`
	LatestLTSCount   *int    `json:"latest_lts_count,omitempty" yaml:"latest_lts_count,omitempty"`
	ForceOSVersion   *string `json:"force_os_version,omitempty" yaml:"force_os_version,omitempty"`
	AllowOSUpgrade   *bool   `json:"allow_os_upgrade,omitempty" yaml:"allow_os_upgrade,omitempty"`
	SkipMLVariants   *bool   `json:"skip_ml_variants,omitempty" yaml:"skip_ml_variants,omitempty"`
	MaxWorkers       *int    `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	IncludeChecksums *bool   `json:"include_checksums,omitempty" yaml:"include_checksums,omitempty"`
}

// LoadFile reads a YAML or JSON configuration file and returns the options
// it sets. Apply them before command-line overrides.
func LoadFile(path string) ([]Option, error) {
	f, err := serializer.FromFile[File](path)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"failed to load config file", err, map[string]any{"path": path})
	}
	return f.Options(), nil
}

// Options converts the set fields to Options.
func (f *File) Options() []Option {
	var opts []Option
	if f.DataDir != nil {
		opts = append(opts, WithDataDir(*f.DataDir))
	}
	if f.Catalog != nil {
		opts = append(opts, WithCatalog(*f.Catalog))
	}
	if f.Registry != nil {
		opts = append(opts, WithRegistry(*f.Registry))
	}
	if f.LatestLTSCount != nil {
		opts = append(opts, WithLatestLTSCount(*f.LatestLTSCount))
	}
	if f.ForceOSVersion != nil {
		opts = append(opts, WithForceOSVersion(*f.ForceOSVersion))
	}
	if f.AllowOSUpgrade != nil {
		opts = append(opts, WithAllowOSUpgrade(*f.AllowOSUpgrade))
	}
	if f.SkipMLVariants != nil {
		opts = append(opts, WithSkipMLVariants(*f.SkipMLVariants))
	}
	if f.MaxWorkers != nil {
		opts = append(opts, WithMaxWorkers(*f.MaxWorkers))
	}
	if f.IncludeChecksums != nil {
		opts = append(opts, WithIncludeChecksums(*f.IncludeChecksums))
	}
	return opts
}
