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

package engine

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/serializer"
	"github.com/NVIDIA/dbx-container/pkg/variation"
)

// Artifact file names.
const (
	DockerfileName   = "Dockerfile"
	MetadataFileName = "runtime_metadata.json"
	RequirementsName = "requirements.txt"

	// LSPRequirementsName pins the python-lsp environment of python images.
	LSPRequirementsName = "python-lsp-requirements.txt"

	genericNote = "This is a generic image not tied to a specific runtime version"
	mlDirSuffix = "-ml"
)

// Metadata is written next to each runtime-specific Dockerfile.
type Metadata struct {
	Version           string                    `json:"version"`
	ReleaseDate       catalog.Date              `json:"release_date"`
	EndOfSupportDate  catalog.Date              `json:"end_of_support_date"`
	SparkVersion      string                    `json:"spark_version"`
	URL               string                    `json:"url"`
	IsML              bool                      `json:"is_ml"`
	IsLTS             bool                      `json:"is_lts"`
	SystemEnvironment catalog.SystemEnvironment `json:"system_environment"`
	IncludedLibraries catalog.Libraries         `json:"included_libraries"`
	Variation         *variation.Variation      `json:"variation,omitempty"`
}

// GenericMetadata is written next to Dockerfiles that are not tied to a
// runtime.
type GenericMetadata struct {
	Note                      string                    `json:"note"`
	ReferenceRuntimeVersion   string                    `json:"reference_runtime_version"`
	ReferenceReleaseDate      catalog.Date              `json:"reference_release_date"`
	ReferenceEndOfSupportDate catalog.Date              `json:"reference_end_of_support_date"`
	ReferenceSparkVersion     string                    `json:"reference_spark_version"`
	ReferenceURL              string                    `json:"reference_url"`
	SystemEnvironment         catalog.SystemEnvironment `json:"system_environment"`
	IncludedLibraries         catalog.Libraries         `json:"included_libraries"`
}

// NewMetadata describes rt built for v.
func NewMetadata(rt catalog.Runtime, v *variation.Variation) Metadata {
	libs := rt.IncludedLibraries.Clone()
	return Metadata{
		Version:           rt.Version,
		ReleaseDate:       rt.ReleaseDate,
		EndOfSupportDate:  rt.EndOfSupportDate,
		SparkVersion:      rt.SparkVersion,
		URL:               rt.URL,
		IsML:              rt.IsML,
		IsLTS:             rt.IsLTS,
		SystemEnvironment: rt.SystemEnvironment.WithDefaults(),
		IncludedLibraries: libs,
		Variation:         v,
	}
}

// NewGenericMetadata describes an image built from the placeholder runtime.
func NewGenericMetadata(rt catalog.Runtime) GenericMetadata {
	return GenericMetadata{
		Note:                      genericNote,
		ReferenceRuntimeVersion:   rt.Version,
		ReferenceReleaseDate:      rt.ReleaseDate,
		ReferenceEndOfSupportDate: rt.EndOfSupportDate,
		ReferenceSparkVersion:     rt.SparkVersion,
		ReferenceURL:              rt.URL,
		SystemEnvironment:         rt.SystemEnvironment.WithDefaults(),
		IncludedLibraries:         rt.IncludedLibraries.Clone(),
	}
}

// RuntimeDirName returns the directory of one runtime build, e.g.
// "17.3-LTS-ubuntu2404-py312" or "16.4-LTS-ubuntu2204-py312-ml".
func RuntimeDirName(rt catalog.Runtime, v *variation.Variation) string {
	name := rt.SanitizedVersion()
	if v != nil && v.Suffix != "" {
		sep := v.Separator
		if sep == "" {
			sep = variation.DefaultSeparator
		}
		name += sep + v.Suffix
	}
	if rt.IsML {
		name += mlDirSuffix
	}
	return name
}

// ArtifactDir returns data/<type>/<runtime dir>.
func ArtifactDir(dataDir, imageType string, rt catalog.Runtime, v *variation.Variation) string {
	return filepath.Join(dataDir, imageType, RuntimeDirName(rt, v))
}

// GenericDir returns data/<type>/<dir> for images not tied to a runtime,
// where dir is "latest" or an OS release directory.
func GenericDir(dataDir, imageType, dir string) string {
	if dir == "" {
		dir = defaults.LatestDir
	}
	return filepath.Join(dataDir, imageType, dir)
}

// RenderRequirements returns the requirements.txt of rt: a header followed
// by "name==version" lines sorted by name.
func RenderRequirements(rt catalog.Runtime) string {
	libs := rt.PythonLibraries()
	names := make([]string, 0, len(libs))
	for name := range libs {
		names = append(names, name)
	}
	slices.Sort(names)

	var sb strings.Builder
	sb.WriteString("# Python requirements for Databricks runtime\n")
	fmt.Fprintf(&sb, "# Runtime version: %s\n", rt.Version)
	sb.WriteString("# Generated from included_libraries\n\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "%s==%s\n", name, libs[name])
	}
	return sb.String()
}

// lspRequirements are installed into /databricks/python-lsp, separate from
// the notebook environment.
var lspRequirements = []string{
	"jedi==0.19.2",
	"pycodestyle==2.12.1",
	"pyflakes==3.2.0",
	"python-lsp-server==1.12.0",
}

// RenderLSPRequirements returns the python-lsp-requirements.txt written next
// to each python requirements file.
func RenderLSPRequirements() string {
	var sb strings.Builder
	sb.WriteString("# Python language server used by notebooks\n\n")
	for _, line := range lspRequirements {
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func writeText(path, content string) error {
	return serializer.WriteFileAtomic(path, []byte(content), 0o644)
}

// relPath returns path relative to the build context, slash separated.
func (e *Engine) relPath(path string) string {
	rel, err := filepath.Rel(e.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
