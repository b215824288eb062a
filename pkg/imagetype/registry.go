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
	"fmt"
	"slices"

	"github.com/NVIDIA/dbx-container/pkg/dockerfile"
	"github.com/NVIDIA/dbx-container/pkg/errors"
)

// Registry is the immutable table of image types. Parent links are checked
// once at construction.
type Registry struct {
	specs map[string]Spec
	order []string
	chain map[string][]string
}

// NewRegistry validates specs and returns a Registry. Names must be unique,
// parents must exist, the parent relation must be acyclic, and types
// without a parent need a foundation.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{
		specs: make(map[string]Spec, len(specs)),
		chain: make(map[string][]string, len(specs)),
	}

	for _, s := range specs {
		if s.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidRequest, "image type name is required")
		}
		if _, dup := r.specs[s.Name]; dup {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"duplicate image type", map[string]any{"image_type": s.Name})
		}
		if s.Generate == nil {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"image type has no generator", map[string]any{"image_type": s.Name})
		}
		if s.Parent == "" && s.Foundation == nil {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"root image type has no foundation", map[string]any{"image_type": s.Name})
		}
		r.specs[s.Name] = s
		r.order = append(r.order, s.Name)
	}

	for _, name := range r.order {
		c, err := r.walk(name)
		if err != nil {
			return nil, err
		}
		r.chain[name] = c
	}
	return r, nil
}

// walk follows parent links from name to its root and returns the chain
// root first.
func (r *Registry) walk(name string) ([]string, error) {
	var chain []string
	seen := make(map[string]bool)
	for cur := name; cur != ""; cur = r.specs[cur].Parent {
		if seen[cur] {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"image type dependency cycle", map[string]any{"image_type": name, "at": cur})
		}
		seen[cur] = true
		if _, ok := r.specs[cur]; !ok {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"unknown parent image type", map[string]any{"image_type": name, "parent": cur})
		}
		chain = append(chain, cur)
	}
	slices.Reverse(chain)
	return chain, nil
}

// MustNewRegistry is NewRegistry that panics on invalid specs.
func MustNewRegistry(specs ...Spec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(fmt.Sprintf("invalid image type registry: %v", err))
	}
	return r
}

// Default returns the registry of the built-in image types.
func Default() *Registry {
	return MustNewRegistry(DefaultSpecs()...)
}

// Get returns the spec for name.
func (r *Registry) Get(name string) (Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return Spec{}, errors.NewWithContext(errors.ErrCodeNotFound,
			"unknown image type", map[string]any{"image_type": name})
	}
	return s, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.specs[name]
	return ok
}

// Names returns every type in declaration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Chain returns the dependency chain of name, root first and name last.
func (r *Registry) Chain(name string) []string {
	return slices.Clone(r.chain[name])
}

// RuntimeSpecific returns the names of runtime-specific types in
// declaration order.
func (r *Registry) RuntimeSpecific() []string {
	return r.filter(func(s Spec) bool { return s.RuntimeSpecific })
}

// NonRuntimeSpecific returns the names of the remaining types.
func (r *Registry) NonRuntimeSpecific() []string {
	return r.filter(func(s Spec) bool { return !s.RuntimeSpecific })
}

func (r *Registry) filter(keep func(Spec) bool) []string {
	var out []string
	for _, name := range r.order {
		if keep(r.specs[name]) {
			out = append(out, name)
		}
	}
	return out
}

// Generate runs the generator of name.
func (r *Registry) Generate(name string, p Params) (*dockerfile.Builder, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if s.RuntimeSpecific && p.Runtime == nil {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"runtime-specific image type requires a runtime", map[string]any{"image_type": name})
	}
	if !s.RuntimeSpecific {
		p.Runtime = nil
	}
	p.Name = name
	b, err := s.Generate(p)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal,
			"failed to generate image", err, map[string]any{"image_type": name})
	}
	return b, nil
}
