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

package defaults

// Build defaults shared by the engine, the variation resolver and the CLI.
const (
	// DataDir is the root directory for generated artifacts.
	DataDir = "data"

	// CatalogIndex is the default location of the runtime catalog index.
	CatalogIndex = "catalog/index.yaml"

	// OSVersion is the pinned Ubuntu release used for foundation images and
	// as the fallback when a runtime's operating system cannot be parsed.
	OSVersion = "24.04"

	// PythonVersion is the fallback when a runtime's Python version cannot
	// be parsed.
	PythonVersion = "3.12"

	// MaxWorkers bounds concurrent runtime builds and catalog fetches.
	MaxWorkers = 5

	// LatestLTSCount is the number of LTS runtime groups built by default.
	LatestLTSCount = 2

	// LocalNamespace is the image name used for parent references when no
	// registry prefix is configured.
	LocalNamespace = "dbx-runtime"

	// ImageNamespace prefixes generated image names.
	ImageNamespace = "ghcr.io/twsl"

	// SummaryFileName is the build summary written under DataDir.
	SummaryFileName = "build_summary.json"

	// NonRuntimeSpecificKey is the summary bucket for version independent images.
	NonRuntimeSpecificKey = "non_runtime_specific"

	// LatestDir is the directory name for version independent images.
	LatestDir = "latest"
)
