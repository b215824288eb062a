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

package matrix

import (
	"log/slog"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/engine"
	"github.com/NVIDIA/dbx-container/pkg/errors"
	"github.com/NVIDIA/dbx-container/pkg/imagetype"
	"github.com/NVIDIA/dbx-container/pkg/version"
)

const (
	// MLVariant marks entries built from ML runtimes.
	MLVariant = ".ml"

	ltsMarker = "LTS"
	mlSuffix  = "-ml"
)

var suffixRe = regexp.MustCompile(`(-ubuntu\d+-py\d+)`)

// Entry is one CI job.
type Entry struct {
	Runtime   string `json:"runtime" yaml:"runtime"`
	ImageType string `json:"image_type" yaml:"image_type"`
	Variant   string `json:"variant" yaml:"variant"`
	Suffix    string `json:"suffix" yaml:"suffix"`
}

// Matrix is the CI fan-out document.
type Matrix struct {
	Include []Entry `json:"include" yaml:"include"`
}

// Empty returns a matrix without entries that still serializes its list.
func Empty() Matrix {
	return Matrix{Include: []Entry{}}
}

// Options filter the generated matrix.
type Options struct {
	// OnlyLTS keeps LTS runtimes.
	OnlyLTS bool

	// ImageType keeps one image type.
	ImageType string

	// LatestLTSCount keeps the first N distinct runtimes after sorting; 0
	// keeps all.
	LatestLTSCount int
}

// Load reads a build summary. A missing file is ErrCodeNotFound.
func Load(summaryPath string) (*engine.Summary, error) {
	if _, err := os.Stat(summaryPath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithContext(errors.ErrCodeNotFound,
				"build summary not found, run build first", err, map[string]any{"path": summaryPath})
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to stat build summary", err)
	}
	s, err := engine.ReadSummary(summaryPath)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"failed to parse build summary", err, map[string]any{"path": summaryPath})
	}
	return s, nil
}

// Generate derives one entry per runtime, python image type and variation
// from a build summary. Entries are unique and ordered by major version
// (newest first), then runtime, image type and variant.
func Generate(s *engine.Summary, opts Options) Matrix {
	m := Empty()
	if s == nil {
		return m
	}

	type key struct{ runtime, imageType, variant, suffix string }
	seen := make(map[key]bool)

	for _, runtimeKey := range sortedKeys(s.BuildDetails) {
		if runtimeKey == defaults.NonRuntimeSpecificKey {
			continue
		}
		runtime, ml := catalog.SplitKey(runtimeKey)
		if opts.OnlyLTS && !strings.Contains(runtime, ltsMarker) {
			continue
		}
		variant := ""
		if ml {
			variant = MLVariant
		}

		images := s.BuildDetails[runtimeKey]
		for _, imageType := range sortedKeys(images) {
			if opts.ImageType != "" && imageType != opts.ImageType {
				continue
			}
			if !imagetype.IsPythonFlavored(imageType) {
				continue
			}
			files := images[imageType]
			if len(files) == 0 {
				continue
			}

			e := Entry{
				Runtime:   runtime,
				ImageType: imageType,
				Variant:   variant,
				Suffix:    extractSuffix(runtime, files[0]),
			}
			k := key{e.Runtime, e.ImageType, e.Variant, e.Suffix}
			if seen[k] {
				continue
			}
			seen[k] = true
			m.Include = append(m.Include, e)
		}
	}

	sort.SliceStable(m.Include, func(i, j int) bool {
		a, b := m.Include[i], m.Include[j]
		if ma, mb := major(a.Runtime), major(b.Runtime); ma != mb {
			return ma > mb
		}
		if a.Runtime != b.Runtime {
			return a.Runtime < b.Runtime
		}
		if a.ImageType != b.ImageType {
			return a.ImageType < b.ImageType
		}
		return a.Variant < b.Variant
	})

	if opts.LatestLTSCount > 0 {
		m.Include = latest(m.Include, opts.LatestLTSCount)
	}
	return m
}

// extractSuffix returns the variation part of the artifact directory,
// e.g. "-ubuntu2404-py312" for data/python/17.3-LTS-ubuntu2404-py312/Dockerfile.
func extractSuffix(runtime, file string) string {
	dir := path.Base(path.Dir(strings.ReplaceAll(file, "\\", "/")))
	if dir == "." || dir == "/" {
		return ""
	}
	if rest, ok := strings.CutPrefix(dir, catalog.SanitizeVersion(runtime)); ok {
		return strings.TrimSuffix(rest, mlSuffix)
	}

	suffix := ""
	if match := suffixRe.FindStringSubmatch(dir); match != nil {
		suffix = match[1]
	}
	slog.Warn("artifact directory does not start with the runtime version",
		"runtime", runtime,
		"dir", dir,
		"suffix", suffix)
	return suffix
}

// major returns the major version of a runtime, -1 when it has none.
func major(runtime string) int {
	v, err := version.Find(runtime)
	if err != nil {
		return -1
	}
	return v.Major
}

func latest(entries []Entry, n int) []Entry {
	keep := make(map[string]bool, n)
	for _, e := range entries {
		if len(keep) == n {
			break
		}
		keep[e.Runtime] = true
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if keep[e.Runtime] {
			out = append(out, e)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
