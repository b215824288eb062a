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
	"context"
	"slices"
	"sort"

	"github.com/NVIDIA/dbx-container/pkg/errors"
)

// Provider supplies the runtimes artifacts are generated for.
type Provider interface {
	// SupportedRuntimes returns every runtime, newest release first.
	SupportedRuntimes(ctx context.Context) ([]Runtime, error)

	// SystemEnvironment returns the environment published in the runtime
	// document at url, or nil when the document has none.
	SystemEnvironment(ctx context.Context, url string) (*SystemEnvironment, error)
}

// Static is a Provider over a fixed list, used for tests and for catalogs
// assembled in code.
type Static struct {
	Runtimes     []Runtime
	Environments map[string]SystemEnvironment

	// Err, when set, is returned from SupportedRuntimes.
	Err error
}

var _ Provider = (*Static)(nil)

// SupportedRuntimes returns a copy of the runtimes sorted newest first.
func (s *Static) SupportedRuntimes(ctx context.Context) ([]Runtime, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, "catalog fetch canceled", err)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	out := slices.Clone(s.Runtimes)
	SortByReleaseDate(out)
	return out, nil
}

func (s *Static) SystemEnvironment(_ context.Context, url string) (*SystemEnvironment, error) {
	if env, ok := s.Environments[url]; ok {
		return &env, nil
	}
	for _, rt := range s.Runtimes {
		if rt.URL == url && !rt.SystemEnvironment.IsZero() {
			env := rt.SystemEnvironment
			return &env, nil
		}
	}
	return nil, nil
}

// SortByReleaseDate orders runtimes newest first, keeping catalog order for
// equal dates.
func SortByReleaseDate(runtimes []Runtime) {
	sort.SliceStable(runtimes, func(i, j int) bool {
		return runtimes[i].ReleaseDate.After(runtimes[j].ReleaseDate)
	})
}
