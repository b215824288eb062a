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

// Package matrix turns a build summary into a CI job matrix.
//
// Each python image of each runtime becomes one entry:
//
//	{"include": [
//	  {"runtime": "17.3 LTS", "image_type": "python", "variant": "", "suffix": "-ubuntu2404-py312"},
//	  {"runtime": "17.3 LTS", "image_type": "python", "variant": ".ml", "suffix": "-ubuntu2404-py312"}
//	]}
//
// The suffix is read back from the artifact directory by removing the
// sanitized runtime version. Directories that do not start with it fall back
// to a pattern match and log a warning, since that only happens when the
// directory naming changed.
package matrix
