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

// Package config provides the immutable configuration of the build engine.
//
// A Config is built from functional options and read through getters:
//
//	cfg := config.NewConfig(
//	    config.WithDataDir("out"),
//	    config.WithLatestLTSCount(3),
//	    config.WithSkipMLVariants(false),
//	)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// Settings can also come from a YAML or JSON file:
//
//	data_dir: data
//	catalog: https://example.com/dbr/index.yaml
//	registry: ghcr.io/acme/dbx-runtime
//	latest_lts_count: 2
//	allow_os_upgrade: true
//	skip_ml_variants: true
//	max_workers: 5
//
// LoadFile returns the options the file sets, so later options (command
// line flags) override them.
package config
