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

// Package engine orchestrates Dockerfile generation across a runtime catalog.
//
// A run moves through fixed states:
//
//	init -> fetch_catalog -> filter_runtimes -> build_non_runtime_specific
//	     -> build_runtimes -> write_summary -> done
//
// Image types that are not tied to a runtime are generated once under
// data/<type>/latest. Runtime-specific types are generated per runtime and
// variation under data/<type>/<version>-<suffix>[-ml], each with a
// runtime_metadata.json and, for python types, a requirements.txt:
//
//	data/python/17.3-LTS-ubuntu2404-py312/Dockerfile
//	data/python/17.3-LTS-ubuntu2404-py312/runtime_metadata.json
//	data/python/17.3-LTS-ubuntu2404-py312/requirements.txt
//
// When a runtime stays on an older Ubuntu release, or a release is forced,
// the base chain (minimal, standard and their GPU siblings) is also written
// under data/<type>/ubuntu<digits>.
//
// Runtimes are built on a bounded worker pool. Workers never touch the
// summary; they report to one collector goroutine, and the summary is
// written once at the end. A failed image is logged, counted in the Result
// and left out of the summary. Only catalog and summary errors fail a run.
//
// Usage:
//
//	cfg := config.NewConfig(config.WithDataDir("data"))
//	e, err := engine.New(cfg, provider)
//	if err != nil {
//	    return err
//	}
//	res, err := e.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res) // 2/2 runtimes completed
package engine
