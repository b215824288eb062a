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

package catalog

import (
	"maps"
	"strings"
)

const (
	// PlaceholderVersion is the version of the synthetic runtime used for
	// images that are not tied to a runtime.
	PlaceholderVersion = "generic"

	// NotAvailable fills environment fields the catalog does not provide.
	NotAvailable = "N/A"

	// PythonEcosystem is the IncludedLibraries key for Python packages.
	PythonEcosystem = "python"

	// GPUEcosystem is the IncludedLibraries key ML runtimes add for GPU
	// packages.
	GPUEcosystem = "gpu"

	mlKeySuffix = "_ml"
)

// SystemEnvironment describes the software stack of a runtime. Values are
// free text as published, e.g. "Ubuntu 24.04.2 LTS" or "3.12.3".
type SystemEnvironment struct {
	OperatingSystem  string `json:"operating_system" yaml:"operating_system"`
	JavaVersion      string `json:"java_version" yaml:"java_version"`
	ScalaVersion     string `json:"scala_version" yaml:"scala_version"`
	PythonVersion    string `json:"python_version" yaml:"python_version"`
	RVersion         string `json:"r_version" yaml:"r_version"`
	DeltaLakeVersion string `json:"delta_lake_version" yaml:"delta_lake_version"`
}

// IsZero reports whether no field is set.
func (e SystemEnvironment) IsZero() bool {
	return e == SystemEnvironment{}
}

// WithDefaults returns a copy where empty fields are NotAvailable.
func (e SystemEnvironment) WithDefaults() SystemEnvironment {
	fill := func(s *string) {
		if strings.TrimSpace(*s) == "" {
			*s = NotAvailable
		}
	}
	fill(&e.OperatingSystem)
	fill(&e.JavaVersion)
	fill(&e.ScalaVersion)
	fill(&e.PythonVersion)
	fill(&e.RVersion)
	fill(&e.DeltaLakeVersion)
	return e
}

// Libraries maps an ecosystem ("python", "r", "java", "gpu") to package
// name and version.
type Libraries map[string]map[string]string

// Clone returns a deep copy.
func (l Libraries) Clone() Libraries {
	if l == nil {
		return Libraries{}
	}
	out := make(Libraries, len(l))
	for eco, pkgs := range l {
		out[eco] = maps.Clone(pkgs)
	}
	return out
}

// Runtime is one catalog entry. The engine treats it as read-only.
type Runtime struct {
	Version           string            `json:"version" yaml:"version"`
	ReleaseDate       Date              `json:"release_date" yaml:"release_date"`
	EndOfSupportDate  Date              `json:"end_of_support_date" yaml:"end_of_support_date"`
	SparkVersion      string            `json:"spark_version" yaml:"spark_version"`
	URL               string            `json:"url" yaml:"url"`
	IsML              bool              `json:"is_ml" yaml:"is_ml"`
	IsLTS             bool              `json:"is_lts" yaml:"is_lts"`
	SystemEnvironment SystemEnvironment `json:"system_environment" yaml:"system_environment"`
	IncludedLibraries Libraries         `json:"included_libraries" yaml:"included_libraries"`
}

// Key identifies the runtime in build summaries: the version, plus "_ml"
// for ML runtimes.
func (r Runtime) Key() string {
	if r.IsML {
		return r.Version + mlKeySuffix
	}
	return r.Version
}

// SanitizedVersion replaces whitespace runs in the version with "-",
// e.g. "17.3 LTS" becomes "17.3-LTS".
func (r Runtime) SanitizedVersion() string {
	return SanitizeVersion(r.Version)
}

// SanitizeVersion replaces whitespace runs in v with "-".
func SanitizeVersion(v string) string {
	return strings.Join(strings.Fields(v), "-")
}

// SplitKey reverses Runtime.Key.
func SplitKey(key string) (version string, ml bool) {
	if v, ok := strings.CutSuffix(key, mlKeySuffix); ok {
		return v, true
	}
	return key, false
}

// PythonLibraries returns the Python packages included in the runtime.
func (r Runtime) PythonLibraries() map[string]string {
	return r.IncludedLibraries[PythonEcosystem]
}

// Placeholder returns the synthetic runtime used for images that do not
// depend on a runtime. Its dates are zero so repeated builds render
// identical metadata.
func Placeholder(osVersion string) Runtime {
	return Runtime{
		Version:      PlaceholderVersion,
		SparkVersion: NotAvailable,
		SystemEnvironment: SystemEnvironment{
			OperatingSystem: "Ubuntu " + osVersion + " LTS",
		}.WithDefaults(),
		IncludedLibraries: Libraries{},
	}
}

// Release is one row of the catalog index. URL and MLURL point at runtime
// documents and may be relative to the index.
type Release struct {
	Version          string `json:"version" yaml:"version"`
	ReleaseDate      Date   `json:"release_date" yaml:"release_date"`
	EndOfSupportDate Date   `json:"end_of_support_date" yaml:"end_of_support_date"`
	SparkVersion     string `json:"spark_version" yaml:"spark_version"`
	URL              string `json:"url" yaml:"url"`
	MLURL            string `json:"ml_url,omitempty" yaml:"ml_url,omitempty"`
}

// Index is the catalog index document.
type Index struct {
	Releases []Release `json:"releases" yaml:"releases"`
}

// Document is the per-runtime document referenced from the index.
type Document struct {
	SystemEnvironment SystemEnvironment `json:"system_environment" yaml:"system_environment"`
	IncludedLibraries Libraries         `json:"included_libraries" yaml:"included_libraries"`
	GPULibraries      map[string]string `json:"gpu_libraries,omitempty" yaml:"gpu_libraries,omitempty"`
}
