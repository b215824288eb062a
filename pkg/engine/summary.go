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
	"slices"
	"sort"
	"sync"

	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/serializer"
)

// Summary records every file one run produced, keyed by runtime key and
// image type. Version independent images are under
// defaults.NonRuntimeSpecificKey.
type Summary struct {
	TotalRuntimes       int                            `json:"total_runtimes" yaml:"total_runtimes"`
	ImageTypes          []string                       `json:"image_types" yaml:"image_types"`
	TotalFilesGenerated int                            `json:"total_files_generated" yaml:"total_files_generated"`
	BuildDetails        map[string]map[string][]string `json:"build_details" yaml:"build_details"`

	mu sync.Mutex
}

// NewSummary returns an empty summary for the given image types.
func NewSummary(imageTypes []string) *Summary {
	return &Summary{
		ImageTypes:   slices.Clone(imageTypes),
		BuildDetails: make(map[string]map[string][]string),
	}
}

// Add merges files into the entry of key and updates the totals.
func (s *Summary) Add(key string, files map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.BuildDetails == nil {
		s.BuildDetails = make(map[string]map[string][]string)
	}
	entry, ok := s.BuildDetails[key]
	if !ok {
		entry = make(map[string][]string, len(files))
		s.BuildDetails[key] = entry
	}
	for imageType, paths := range files {
		if _, ok := entry[imageType]; !ok {
			entry[imageType] = []string{}
		}
		entry[imageType] = append(entry[imageType], paths...)
	}
	s.recount()
}

func (s *Summary) recount() {
	s.TotalRuntimes = len(s.BuildDetails)
	total := 0
	for _, entry := range s.BuildDetails {
		for _, paths := range entry {
			total += len(paths)
		}
	}
	s.TotalFilesGenerated = total
}

// Files returns every recorded path, sorted.
func (s *Summary) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, entry := range s.BuildDetails {
		for _, paths := range entry {
			out = append(out, paths...)
		}
	}
	sort.Strings(out)
	return out
}

// RuntimeKeys returns the runtime keys, sorted, without the non-runtime
// bucket.
func (s *Summary) RuntimeKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.BuildDetails))
	for key := range s.BuildDetails {
		if key == defaults.NonRuntimeSpecificKey {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Write saves the summary as indented JSON, replacing the file whole.
func (s *Summary) Write(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return serializer.WriteJSONFile(path, s)
}

// ReadSummary loads a summary written by Write.
func ReadSummary(path string) (*Summary, error) {
	s, err := serializer.FromFile[Summary](path)
	if err != nil {
		return nil, err
	}
	if s.BuildDetails == nil {
		s.BuildDetails = make(map[string]map[string][]string)
	}
	return s, nil
}

