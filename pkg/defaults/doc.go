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

// Package defaults provides centralized configuration constants for dbx-container.
//
// This package defines timeout values, rate limits and build defaults used
// across the codebase. Centralizing these values keeps the CLI, the engine and
// the catalog client consistent.
//
// # Categories
//
//   - Catalog timeouts and rate limits: for fetching runtime descriptors
//   - HTTP client timeouts: for outbound HTTP requests
//   - CLI timeouts: for long running commands such as publish
//   - Build defaults: pinned OS, fallback Python, worker count, LTS count
//
// # Usage
//
//	import "github.com/NVIDIA/dbx-container/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.CatalogFetchTimeout)
//	defer cancel()
//
// Only the external catalog fetch is bounded by a timeout. Local generation
// and file writes run to completion unless the parent context is canceled.
package defaults
