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
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	apperrors "github.com/NVIDIA/dbx-container/pkg/errors"
)

// ArtifactType is the media type of a packaged Dockerfile tree.
const ArtifactType = "application/vnd.nvidia.dbx-container.dockerfiles"

// layoutDirName is the OCI Image Layout directory created under OutputDir.
const layoutDirName = "oci-layout"

// PackageOptions configures local packaging of a generated data tree.
type PackageOptions struct {
	// SourceDir is the directory to archive, usually the data directory.
	SourceDir string
	// OutputDir receives the OCI Image Layout. It must not be inside SourceDir.
	OutputDir string
	// Registry and Repository are only used to report the full reference.
	Registry   string
	Repository string
	// Tag names the manifest in the layout.
	Tag string
	// Annotations are added to the manifest.
	Annotations map[string]string
	// ReproducibleTimestamp pins org.opencontainers.image.created (RFC 3339).
	ReproducibleTimestamp string
}

// PackageResult describes a packaged artifact.
type PackageResult struct {
	Digest    string
	Reference string
	StorePath string
}

// Package archives SourceDir as a single gzip layer, packs an OCI 1.1
// manifest with ArtifactType and copies it into an OCI Image Layout under
// OutputDir, tagged with Tag.
func Package(ctx context.Context, opts PackageOptions) (*PackageResult, error) {
	if opts.Tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required for OCI packaging")
	}
	if opts.OutputDir == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "output directory is required for OCI packaging")
	}

	absSource, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve source directory", err)
	}
	info, err := os.Stat(absSource)
	if err != nil || !info.IsDir() {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound, "source directory does not exist",
			map[string]any{"path": absSource})
	}

	absOutput, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve output directory", err)
	}
	if rel, relErr := filepath.Rel(absSource, absOutput); relErr == nil && !strings.HasPrefix(rel, "..") {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"output directory must not be inside the source directory",
			map[string]any{"source": absSource, "output": absOutput})
	}

	storePath := filepath.Join(absOutput, layoutDirName)
	if mkErr := os.MkdirAll(storePath, 0o755); mkErr != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create OCI layout directory", mkErr)
	}

	fs, err := file.New(absSource)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	// deterministic tar headers
	fs.TarReproducible = true

	layerDesc, err := fs.Add(ctx, ".", ociv1.MediaTypeImageLayerGzip, absSource)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to add source directory to store", err)
	}

	annotations := make(map[string]string, len(opts.Annotations)+1)
	for k, v := range opts.Annotations {
		annotations[k] = v
	}
	if opts.ReproducibleTimestamp != "" {
		annotations[ociv1.AnnotationCreated] = opts.ReproducibleTimestamp
	}

	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layerDesc},
		ManifestAnnotations: annotations,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to pack manifest", err)
	}
	if tagErr := fs.Tag(ctx, manifestDesc, opts.Tag); tagErr != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to tag manifest in file store", tagErr)
	}

	store, err := oci.New(storePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to open OCI layout", err)
	}
	desc, err := oras.Copy(ctx, fs, opts.Tag, store, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to copy artifact into OCI layout", err)
	}

	ref := opts.Tag
	if opts.Registry != "" && opts.Repository != "" {
		ref = fmt.Sprintf("%s/%s:%s", stripProtocol(opts.Registry), opts.Repository, opts.Tag)
	}

	slog.Debug("packaged OCI artifact", "digest", desc.Digest.String(), "store", storePath)

	return &PackageResult{
		Digest:    desc.Digest.String(),
		Reference: ref,
		StorePath: storePath,
	}, nil
}

// PushOptions configures the OCI push operation.
type PushOptions struct {
	// Registry is the OCI registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the repository path (e.g., "twsl/dbx-runtime-dockerfiles").
	Repository string
	// Tag is the tag to push, which must exist in the local layout.
	Tag string
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// PushResult contains the result of a successful OCI push.
type PushResult struct {
	Digest    string
	Reference string
}

// PushFromStore copies a tagged manifest from a local OCI Image Layout to
// a remote repository, authenticating with Docker credentials when present.
func PushFromStore(ctx context.Context, storePath string, opts PushOptions) (*PushResult, error) {
	if opts.Tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required to push OCI image")
	}
	if err := ValidateRegistryReference(opts.Registry, opts.Repository); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(storePath, ociv1.ImageIndexFile)); err != nil {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound, "OCI layout not found",
			map[string]any{"path": storePath})
	}

	store, err := oci.New(storePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to open OCI layout", err)
	}

	registryHost := stripProtocol(opts.Registry)
	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", registryHost, opts.Repository))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	desc, err := oras.Copy(ctx, store, opts.Tag, repo, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to push artifact to registry", err)
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: fmt.Sprintf("%s/%s:%s", registryHost, opts.Repository, opts.Tag),
	}, nil
}

// ValidateRegistryReference checks that registry and repository form a valid
// image name. An http:// or https:// prefix on the registry is ignored.
func ValidateRegistryReference(registry, repository string) error {
	host := stripProtocol(registry)
	if host == "" || repository == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "registry and repository are required")
	}
	name := fmt.Sprintf("%s/%s", host, repository)
	named, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest, "invalid registry reference", err,
			map[string]any{"reference": name})
	}
	if reference.Domain(named) != host || reference.Path(named) != repository {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "invalid registry reference",
			map[string]any{"reference": name})
	}
	return nil
}

func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	registry = strings.TrimPrefix(registry, "http://")
	return registry
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	return &auth.Client{
		Client:     &http.Client{Transport: transport},
		Cache:      auth.NewCache(),
		Credential: credentials.Credential(credStore),
	}
}
