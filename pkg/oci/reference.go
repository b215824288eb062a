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


package oci

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/distribution/reference"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"

	apperrors "github.com/NVIDIA/dbx-container/pkg/errors"
)

// URIScheme is the URI scheme for registry targets (e.g., "oci://ghcr.io/org/repo:tag").
const URIScheme = "oci://"

// Reference is a parsed publish target: either a registry reference or a
// local directory that receives only the OCI Image Layout.
type Reference struct {
	IsOCI      bool
	Registry   string
	Repository string
	// Tag is empty when the target named none.
	Tag       string
	LocalPath string
}

// ParseOutputTarget parses "oci://registry/repository[:tag]" into its
// components. Anything without the scheme is treated as a local directory.
func ParseOutputTarget(target string) (*Reference, error) {
	if !strings.HasPrefix(target, URIScheme) {
		return &Reference{LocalPath: target}, nil
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest, "invalid OCI reference", err,
			map[string]any{"target": target})
	}

	registry := reference.Domain(ref)
	repository := reference.Path(ref)

	var tag string
	if tagged, ok := ref.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	if err := ValidateRegistryReference(registry, repository); err != nil {
		return nil, err
	}

	return &Reference{
		IsOCI:      true,
		Registry:   registry,
		Repository: repository,
		Tag:        tag,
	}, nil
}

// String returns the target in the form it was parsed from.
func (r *Reference) String() string {
	if !r.IsOCI {
		return r.LocalPath
	}
	return URIScheme + r.ImageReference()
}

// ImageReference returns registry/repository[:tag], or "" for local targets.
func (r *Reference) ImageReference() string {
	if !r.IsOCI {
		return ""
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of an OCI reference with tag set. Local
// references are returned unchanged.
func (r *Reference) WithTag(tag string) *Reference {
	if !r.IsOCI {
		return r
	}
	c := *r
	c.Tag = tag
	return &c
}

// PublishConfig configures packaging of a data tree and its optional push.
type PublishConfig struct {
	// SourceDir is the generated data directory.
	SourceDir string
	// StoreDir holds the OCI Image Layout for registry targets. A temporary
	// directory is used when empty.
	StoreDir string
	// Reference is the parsed target. Local targets receive the layout and
	// nothing is pushed.
	Reference *Reference
	// Tag is used when Reference carries none.
	Tag string
	// Version is recorded as org.opencontainers.image.version.
	Version string
	// ReproducibleTimestamp pins the created annotation.
	ReproducibleTimestamp string
	PlainHTTP             bool
	InsecureTLS           bool
	// Annotations replace the default annotations when non-nil.
	Annotations map[string]string
}

// PublishResult describes a published or locally packaged artifact.
type PublishResult struct {
	Digest    string
	Reference string
	StorePath string
	Pushed    bool
}

// DefaultAnnotations returns the manifest annotations for a Dockerfile tree.
func DefaultAnnotations(version string) map[string]string {
	return map[string]string{
		ociv1.AnnotationVersion:     version,
		ociv1.AnnotationTitle:       "dbx-runtime Dockerfiles",
		ociv1.AnnotationDescription: "Generated Dockerfiles and metadata for Databricks runtime images",
		ociv1.AnnotationSource:      "https://github.com/NVIDIA/dbx-container",
	}
}

// Publish packages SourceDir and, for registry targets, pushes it.
func Publish(ctx context.Context, cfg PublishConfig) (*PublishResult, error) {
	if cfg.Reference == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "publish target is required")
	}

	ref := cfg.Reference
	if ref.Tag == "" {
		ref = ref.WithTag(cfg.Tag)
	}
	tag := ref.Tag
	if !ref.IsOCI {
		tag = cfg.Tag
	}
	if tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required for OCI packaging")
	}

	annotations := cfg.Annotations
	if annotations == nil {
		annotations = DefaultAnnotations(cfg.Version)
	}

	storeDir := cfg.StoreDir
	if !ref.IsOCI {
		storeDir = ref.LocalPath
	}
	temporary := storeDir == ""
	if temporary {
		tmp, err := os.MkdirTemp("", "dbxc-publish-")
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create temporary store", err)
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		storeDir = tmp
	}

	pkg, err := Package(ctx, PackageOptions{
		SourceDir:             cfg.SourceDir,
		OutputDir:             storeDir,
		Registry:              ref.Registry,
		Repository:            ref.Repository,
		Tag:                   tag,
		Annotations:           annotations,
		ReproducibleTimestamp: cfg.ReproducibleTimestamp,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("OCI artifact packaged",
		"reference", pkg.Reference,
		"digest", pkg.Digest,
		"store_path", pkg.StorePath,
	)

	if !ref.IsOCI {
		return &PublishResult{Digest: pkg.Digest, Reference: pkg.Reference, StorePath: pkg.StorePath}, nil
	}

	pushed, err := PushFromStore(ctx, pkg.StorePath, PushOptions{
		Registry:    ref.Registry,
		Repository:  ref.Repository,
		Tag:         tag,
		PlainHTTP:   cfg.PlainHTTP,
		InsecureTLS: cfg.InsecureTLS,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("OCI artifact pushed", "reference", pushed.Reference, "digest", pushed.Digest)

	res := &PublishResult{
		Digest:    pushed.Digest,
		Reference: pushed.Reference,
		StorePath: pkg.StorePath,
		Pushed:    true,
	}
	if temporary {
		res.StorePath = ""
	}
	return res, nil
}
