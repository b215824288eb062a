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

package dockerfile

import (
	"strings"

	apperrors "github.com/NVIDIA/dbx-container/pkg/errors"
)

// DefaultNamespace prefixes image names when no namespace is set.
const DefaultNamespace = "ghcr.io/twsl"

// Builder accumulates rendered instruction lines on top of a base image.
// The base line is always first and lines are never removed or reordered.
//
// Instructions are validated when added. The first invalid instruction is
// recorded and every later Add is ignored, so generators can chain calls and
// check Err once at the end.
type Builder struct {
	name      string
	namespace string
	base      From
	lines     []string
	err       error
}

// New creates a Builder for the named image on top of base and applies steps.
func New(name string, base From, steps ...Instruction) *Builder {
	b := &Builder{
		name:      name,
		namespace: DefaultNamespace,
		base:      base,
	}
	b.Add(base)
	return b.Apply(steps...)
}

// WithNamespace sets the namespace used by FullName.
func (b *Builder) WithNamespace(namespace string) *Builder {
	if namespace != "" {
		b.namespace = strings.TrimSuffix(namespace, "/")
	}
	return b
}

// Add validates and appends one instruction.
func (b *Builder) Add(step Instruction) *Builder {
	if b.err != nil {
		return b
	}
	if step == nil {
		b.err = apperrors.New(apperrors.ErrCodeInvalidRequest, "nil instruction")
		return b
	}
	if err := step.Validate(); err != nil {
		b.err = apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
			"instruction rejected", err, map[string]any{
				"image":    b.name,
				"position": len(b.lines),
			})
		return b
	}
	b.lines = append(b.lines, step.Render())
	return b
}

// Apply adds each step in order.
func (b *Builder) Apply(steps ...Instruction) *Builder {
	for _, s := range steps {
		b.Add(s)
	}
	return b
}

// Err returns the first validation error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Name returns the image name.
func (b *Builder) Name() string {
	return b.name
}

// Namespace returns the image namespace.
func (b *Builder) Namespace() string {
	return b.namespace
}

// FullName returns namespace/name.
func (b *Builder) FullName() string {
	return b.namespace + "/" + b.name
}

// Base returns the base image declaration.
func (b *Builder) Base() From {
	return b.base
}

// Lines returns a copy of the rendered lines.
func (b *Builder) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of rendered lines including the base.
func (b *Builder) Len() int {
	return len(b.lines)
}

// Render returns every line terminated by a newline. It never fails and is
// byte-identical across calls.
func (b *Builder) Render() string {
	if len(b.lines) == 0 {
		return ""
	}
	return strings.Join(b.lines, "\n") + "\n"
}
