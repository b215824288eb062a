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

// Package variation derives the OS and Python versions a runtime is built
// against.
//
// A runtime has one canonical variation, taken from its published system
// environment:
//
//	r := variation.NewResolver("", "")
//	v := r.Derive(rt) // {OSVersion: "22.04", PythonVersion: "3.12", Suffix: "ubuntu2204-py312"}
//
// OSPolicy decides whether base images follow the runtime's release or are
// moved to a pinned one. Metadata always records the runtime's own release.
package variation
