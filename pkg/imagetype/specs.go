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

package imagetype

// CUDAImage is the foundation of the GPU chain.
const CUDAImage = "nvidia/cuda:11.8.0-cudnn8-runtime-ubuntu2204"

// DefaultSpecs returns the built-in image types. Two chains share the same
// layers, one on plain Ubuntu and one on CUDA:
//
//	ubuntu -> minimal -> standard -> python
//	cuda   -> gpu -> minimal-gpu -> standard-gpu -> python-gpu
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:        GPU,
			Description: "Standalone GPU-enabled container with CUDA support",
			GPU:         true,
			Foundation:  func(string) string { return CUDAImage },
			Generate:    generateGPU,
		},
		{
			Name:        Minimal,
			Description: "Minimal Ubuntu container with Java",
			Foundation:  func(os string) string { return "ubuntu:" + os },
			Generate:    generateMinimal,
		},
		{
			Name:        MinimalGPU,
			Description: "Minimal GPU container with CUDA and Java",
			Parent:      GPU,
			GPU:         true,
			Generate:    generateMinimal,
		},
		{
			Name:        Standard,
			Description: "Standard container with FUSE and SSH server support",
			Parent:      Minimal,
			Generate:    generateStandard,
		},
		{
			Name:        StandardGPU,
			Description: "GPU standard container with FUSE and SSH support",
			Parent:      MinimalGPU,
			GPU:         true,
			Generate:    generateStandard,
		},
		{
			Name:            Python,
			Description:     "Python-enabled container with virtualenv support",
			Parent:          Standard,
			RuntimeSpecific: true,
			Generate:        generatePython,
		},
		{
			Name:            PythonGPU,
			Description:     "GPU Python container with CUDA support",
			Parent:          StandardGPU,
			RuntimeSpecific: true,
			GPU:             true,
			Generate:        generatePython,
		},
	}
}
