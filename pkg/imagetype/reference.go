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
	"log/slog"
	"strings"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/errors"
	"github.com/NVIDIA/dbx-container/pkg/variation"
	"github.com/distribution/reference"
)

// ValidateRegistryPrefix checks that prefix is a repository name without a
// tag or digest, e.g. "ghcr.io/acme/dbx-runtime". An empty prefix is valid
// and means the local namespace. Uppercase is refused in every component,
// including the host.
func ValidateRegistryPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if prefix != strings.ToLower(prefix) {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"registry prefix must be lowercase", map[string]any{"registry": prefix})
	}
	named, err := reference.ParseNormalizedNamed(prefix)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"invalid registry prefix", err, map[string]any{"registry": prefix})
	}
	if !reference.IsNameOnly(named) {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"registry prefix must not carry a tag or digest", map[string]any{"registry": prefix})
	}
	return nil
}

// RuntimeTag returns the tag component binding a reference to one runtime
// build: the lowercased version without parentheses, then the variation
// suffix and "-ml" when present.
func RuntimeTag(rt catalog.Runtime, v *variation.Variation) string {
	tag := strings.NewReplacer("(", "", ")", "").Replace(rt.SanitizedVersion())
	tag = strings.ToLower(tag)
	if v != nil && v.Suffix != "" {
		tag += "-" + v.Suffix
	}
	if rt.IsML {
		tag += "-ml"
	}
	return tag
}

// ResolveBaseReference returns the FROM reference for name.
//
// A type without a parent starts from its foundation image on the release
// chosen by policy. Otherwise the reference is "<prefix>:<parent>", where
// prefix defaults to the local namespace. A python-flavored parent adds the
// "-py<digits>" tag component, and a runtime-specific parent adds
// ":<runtime tag>" for the exact runtime build it depends on. A missing
// variation for a runtime falls back to the runtime's own.
func (r *Registry) ResolveBaseReference(name string, rt *catalog.Runtime, v *variation.Variation, registryPrefix string, policy variation.OSPolicy) (string, error) {
	s, err := r.Get(name)
	if err != nil {
		return "", err
	}

	if v == nil && rt != nil && s.RuntimeSpecific {
		derived := variation.Resolve(*rt)
		v = &derived
	}

	if s.Parent == "" {
		native := ""
		if v != nil {
			native = v.OSVersion
		}
		osVersion, upgraded := policy.Effective(native)
		if upgraded {
			slog.Warn("runtime uses an older Ubuntu release, upgrading base image",
				"image_type", name,
				"runtime_os", native,
				"os", osVersion)
		}
		return s.Foundation(osVersion), nil
	}

	parent, err := r.Get(s.Parent)
	if err != nil {
		return "", err
	}

	prefix := registryPrefix
	if prefix == "" {
		prefix = defaults.LocalNamespace
	}

	tag := parent.Name
	if IsPythonFlavored(parent.Name) && v != nil {
		tag += "-" + v.PythonTag()
	}
	ref := prefix + ":" + tag

	if parent.RuntimeSpecific && rt != nil {
		ref += ":" + RuntimeTag(*rt, v)
	}
	return ref, nil
}
