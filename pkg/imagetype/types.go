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

import (
	"strings"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/dockerfile"
	"github.com/NVIDIA/dbx-container/pkg/variation"
)

// Image type names.
const (
	GPU         = "gpu"
	Minimal     = "minimal"
	MinimalGPU  = "minimal-gpu"
	Standard    = "standard"
	StandardGPU = "standard-gpu"
	Python      = "python"
	PythonGPU   = "python-gpu"

	gpuSuffix = "-gpu"
)

// Generator builds the Dockerfile of one image type.
type Generator func(Params) (*dockerfile.Builder, error)

// Foundation returns the external base image for a type without a parent,
// given the Ubuntu release to build on.
type Foundation func(osVersion string) string

// Spec declares one image type.
type Spec struct {
	Name        string
	Description string

	// Parent is the image type this one is built FROM, empty for none.
	Parent string

	// RuntimeSpecific types are generated once per runtime variation and
	// are the only ones that receive a runtime.
	RuntimeSpecific bool

	// GPU marks types in the CUDA chain.
	GPU bool

	// Foundation is required when Parent is empty.
	Foundation Foundation

	Generate Generator
}

// PythonVersions pins the Python toolchain installed by python images.
type PythonVersions struct {
	Python     string
	Pip        string
	Setuptools string
	Wheel      string
	Virtualenv string
}

// DefaultPythonVersions returns the pinned toolchain for Python 3.12.
func DefaultPythonVersions() PythonVersions {
	return PythonVersions{
		Python:     "3.12",
		Pip:        "24.0",
		Setuptools: "74.0.0",
		Wheel:      "0.38.4",
		Virtualenv: "20.26.2",
	}
}

func (v PythonVersions) withDefaults() PythonVersions {
	def := DefaultPythonVersions()
	set := func(dst *string, fallback string) {
		if *dst == "" {
			*dst = fallback
		}
	}
	set(&v.Python, def.Python)
	set(&v.Pip, def.Pip)
	set(&v.Setuptools, def.Setuptools)
	set(&v.Wheel, def.Wheel)
	set(&v.Virtualenv, def.Virtualenv)
	return v
}

// Params is the input of a Generator.
type Params struct {
	// Name is the image type being generated; Registry.Generate sets it.
	Name string

	// BaseImage is the resolved FROM reference.
	BaseImage string

	// Namespace prefixes the builder's full name.
	Namespace string

	// Runtime and Variation are set for runtime-specific types only.
	Runtime   *catalog.Runtime
	Variation *variation.Variation

	Python PythonVersions

	// RequirementsPath is the build-context path of the generated
	// requirements.txt copied into python images.
	RequirementsPath string

	// LSPRequirementsPath is the build-context path of the python-lsp
	// requirements.
	LSPRequirementsPath string
}

// BaseType strips the GPU suffix, "python-gpu" becomes "python".
func BaseType(name string) string {
	return strings.TrimSuffix(name, gpuSuffix)
}

// IsPythonFlavored reports whether name is python or its GPU sibling.
func IsPythonFlavored(name string) bool {
	return BaseType(name) == Python
}
