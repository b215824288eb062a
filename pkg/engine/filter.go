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
	"sort"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
)

// FilterLatestLTS keeps the n most recently released LTS versions. Base and
// ML runtimes of one version form a group dated by its first member; groups
// with equal dates keep catalog order. ML runtimes are dropped when skipML
// is set. A non-positive n returns runtimes unchanged.
func FilterLatestLTS(runtimes []catalog.Runtime, n int, skipML bool) []catalog.Runtime {
	if n <= 0 {
		return runtimes
	}

	type group struct {
		version  string
		runtimes []catalog.Runtime
	}
	var groups []*group
	byVersion := make(map[string]*group)
	for _, rt := range runtimes {
		if !rt.IsLTS {
			continue
		}
		g, ok := byVersion[rt.Version]
		if !ok {
			g = &group{version: rt.Version}
			byVersion[rt.Version] = g
			groups = append(groups, g)
		}
		g.runtimes = append(g.runtimes, rt)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].runtimes[0].ReleaseDate.After(groups[j].runtimes[0].ReleaseDate)
	})
	if len(groups) > n {
		groups = groups[:n]
	}

	out := make([]catalog.Runtime, 0, len(groups)*2)
	for _, g := range groups {
		for _, rt := range g.runtimes {
			if skipML && rt.IsML {
				continue
			}
			out = append(out, rt)
		}
	}
	return out
}

// findRuntime returns the first runtime whose version matches v, either as
// published ("17.3 LTS") or sanitized ("17.3-LTS").
func findRuntime(runtimes []catalog.Runtime, v string, ml bool) (catalog.Runtime, bool) {
	want := catalog.SanitizeVersion(v)
	for _, rt := range runtimes {
		if rt.IsML != ml {
			continue
		}
		if rt.Version == v || rt.SanitizedVersion() == want {
			return rt, true
		}
	}
	return catalog.Runtime{}, false
}
