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
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/errors"
	"github.com/NVIDIA/dbx-container/pkg/imagetype"
	"github.com/NVIDIA/dbx-container/pkg/serializer"
	"github.com/NVIDIA/dbx-container/pkg/variation"
)

// runtimeBuild is what one worker reports to the collector.
type runtimeBuild struct {
	key      string
	files    map[string][]string
	failures []Failure
}

type buildFunc func(ctx context.Context, rt catalog.Runtime) (map[string][]string, []Failure)

// BuildNonRuntimeSpecific generates every image type that is not tied to a
// runtime once, under data/<type>/latest, on the pinned Ubuntu release.
func (e *Engine) BuildNonRuntimeSpecific(ctx context.Context) (map[string][]string, []Failure) {
	files := make(map[string][]string)
	var failures []Failure
	for _, name := range e.registry.NonRuntimeSpecific() {
		paths, err := e.buildGeneric(ctx, name, e.latestPolicy(), defaults.LatestDir, nil)
		if err != nil {
			failures = append(failures, e.fail(defaults.NonRuntimeSpecificKey, name, "", err))
			files[name] = []string{}
			continue
		}
		files[name] = paths
	}
	slog.Info("generated non-runtime-specific images", "image_types", len(files), "failures", len(failures))
	return files, failures
}

// BuildOSChains generates the base images of runtime-specific types for
// every Ubuntu release other than the pinned one that a runtime is built
// on, under data/<type>/ubuntu<digits>. Each release is built once.
func (e *Engine) BuildOSChains(ctx context.Context, runtimes []catalog.Runtime) []Failure {
	var failures []Failure
	types := e.osChainTypes()
	built := make(map[string]bool)

	for _, rt := range runtimes {
		for _, v := range e.resolver.Variations(rt) {
			if !e.policy.NeedsOSChain(v.OSVersion) {
				continue
			}
			osVersion, upgraded := e.policy.Effective(v.OSVersion)
			if upgraded {
				slog.Info("runtime uses an older Ubuntu release, base images upgraded",
					"runtime", rt.Key(),
					"runtime_os", v.OSVersion,
					"os", osVersion)
			}
			dir := e.policy.OSDir(osVersion)
			if dir == defaults.LatestDir || built[dir] {
				continue
			}
			built[dir] = true

			slog.Info("building base images for Ubuntu release",
				"os", osVersion,
				"dir", dir,
				"runtime", rt.Key())
			for _, name := range types {
				if _, err := e.buildGeneric(ctx, name, e.policy, dir, &v); err != nil {
					failures = append(failures, e.fail(rt.Key(), name, dir, err))
				}
			}
		}
	}
	return failures
}

// BuildRuntime generates every runtime-specific image type for rt. Failed
// images are logged and reported; they never stop the others.
func (e *Engine) BuildRuntime(ctx context.Context, rt catalog.Runtime) (map[string][]string, []Failure) {
	start := time.Now()
	variations := e.resolver.Variations(rt)
	files := make(map[string][]string)
	var failures []Failure

	for _, name := range e.registry.RuntimeSpecific() {
		files[name] = []string{}
		for _, v := range variations {
			paths, err := e.buildVariation(ctx, rt, name, v)
			if err != nil {
				failures = append(failures, e.fail(rt.Key(), name, v.Suffix, err))
				continue
			}
			files[name] = append(files[name], paths...)
		}
	}

	runtimeDuration.Observe(time.Since(start).Seconds())
	slog.Debug("built runtime",
		"runtime", rt.Key(),
		"failures", len(failures),
		"duration", time.Since(start).Round(time.Millisecond))
	return files, failures
}

// BuildImage generates one image type. Runtime-specific types are built for
// every variation of rt, which must be set; other types are built under
// latest. Unlike BuildRuntime the first error is returned.
func (e *Engine) BuildImage(ctx context.Context, rt *catalog.Runtime, name string) ([]string, error) {
	s, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}
	if !s.RuntimeSpecific {
		return e.buildGeneric(ctx, name, e.latestPolicy(), defaults.LatestDir, nil)
	}
	if rt == nil {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"image type requires a runtime", map[string]any{"image_type": name})
	}

	var out []string
	for _, v := range e.resolver.Variations(*rt) {
		paths, err := e.buildVariation(ctx, *rt, name, v)
		if err != nil {
			return out, err
		}
		out = append(out, paths...)
	}
	return out, nil
}

// buildRuntimes runs build for every runtime on a bounded pool. Workers send
// their files to a single collector that owns the summary.
func (e *Engine) buildRuntimes(ctx context.Context, runtimes []catalog.Runtime, summary *Summary, build buildFunc) (int, []Failure) {
	results := make(chan runtimeBuild)
	done := make(chan struct{})

	completed := 0
	var failures []Failure
	go func() {
		defer close(done)
		for r := range results {
			summary.Add(r.key, r.files)
			failures = append(failures, r.failures...)
			if len(r.failures) == 0 {
				completed++
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(e.cfg.MaxWorkers())
	for _, rt := range runtimes {
		g.Go(func() error {
			files, fails := build(ctx, rt)
			results <- runtimeBuild{key: rt.Key(), files: files, failures: fails}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-done

	return completed, failures
}

// buildVariation writes the Dockerfile, metadata and, for python types,
// both requirements files of one runtime build and returns their build-context paths.
func (e *Engine) buildVariation(ctx context.Context, rt catalog.Runtime, name string, v variation.Variation) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, "build canceled", err)
	}

	ref, err := e.registry.ResolveBaseReference(name, &rt, &v, e.cfg.Registry(), e.policy)
	if err != nil {
		return nil, err
	}

	dir := ArtifactDir(e.cfg.DataDir(), name, rt, &v)
	requirements := filepath.Join(dir, RequirementsName)
	lsp := filepath.Join(dir, LSPRequirementsName)
	python := imagetype.IsPythonFlavored(name)

	params := imagetype.Params{
		BaseImage: ref,
		Namespace: defaults.ImageNamespace,
		Runtime:   &rt,
		Variation: &v,
		Python:    imagetype.PythonVersions{Python: v.PythonVersion},
	}
	if python {
		params.RequirementsPath = e.relPath(requirements)
		params.LSPRequirementsPath = e.relPath(lsp)
	}

	b, err := e.registry.Generate(name, params)
	if err != nil {
		return nil, err
	}

	dockerfile := filepath.Join(dir, DockerfileName)
	metadata := filepath.Join(dir, MetadataFileName)
	if err := writeText(dockerfile, b.Render()); err != nil {
		return nil, e.writeError(dockerfile, err)
	}
	if err := serializer.WriteJSONFile(metadata, NewMetadata(rt, &v)); err != nil {
		return nil, e.writeError(metadata, err)
	}
	paths := []string{e.relPath(dockerfile), e.relPath(metadata)}

	if python {
		if err := writeText(requirements, RenderRequirements(rt)); err != nil {
			return nil, e.writeError(requirements, err)
		}
		if err := writeText(lsp, RenderLSPRequirements()); err != nil {
			return nil, e.writeError(lsp, err)
		}
		paths = append(paths, e.relPath(requirements), e.relPath(lsp))
	}

	imagesGenerated.WithLabelValues(name, statusSuccess).Inc()
	filesWritten.Add(float64(len(paths)))
	slog.Debug("generated image",
		"image_type", name,
		"runtime", rt.Key(),
		"variation", v.Suffix,
		"base", ref)
	return paths, nil
}

// buildGeneric writes the Dockerfile and generic metadata of a type that is
// not tied to a runtime under data/<type>/<dir>.
func (e *Engine) buildGeneric(ctx context.Context, name string, policy variation.OSPolicy, dir string, v *variation.Variation) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, "build canceled", err)
	}

	native := ""
	if v != nil {
		native = v.OSVersion
	}
	osVersion, _ := policy.Effective(native)

	ref, err := e.registry.ResolveBaseReference(name, nil, v, e.cfg.Registry(), policy)
	if err != nil {
		return nil, err
	}
	b, err := e.registry.Generate(name, imagetype.Params{
		BaseImage: ref,
		Namespace: defaults.ImageNamespace,
	})
	if err != nil {
		return nil, err
	}

	out := GenericDir(e.cfg.DataDir(), name, dir)
	dockerfile := filepath.Join(out, DockerfileName)
	metadata := filepath.Join(out, MetadataFileName)
	if err := writeText(dockerfile, b.Render()); err != nil {
		return nil, e.writeError(dockerfile, err)
	}
	if err := serializer.WriteJSONFile(metadata, NewGenericMetadata(catalog.Placeholder(osVersion))); err != nil {
		return nil, e.writeError(metadata, err)
	}

	imagesGenerated.WithLabelValues(name, statusSuccess).Inc()
	filesWritten.Add(2)
	slog.Debug("generated generic image", "image_type", name, "dir", dir, "base", ref)
	return []string{e.relPath(dockerfile), e.relPath(metadata)}, nil
}

// latestPolicy builds latest/ images on the pinned release even when a
// release is forced; forced releases get their own directory.
func (e *Engine) latestPolicy() variation.OSPolicy {
	return variation.OSPolicy{Pinned: e.policy.Pinned, AllowUpgrade: true}
}

// osChainTypes returns the non-runtime-specific ancestors of runtime-specific
// types whose foundation follows the Ubuntu release, root first.
func (e *Engine) osChainTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range e.registry.RuntimeSpecific() {
		for _, anc := range e.registry.Chain(name) {
			s, err := e.registry.Get(anc)
			if err != nil || s.RuntimeSpecific || seen[anc] {
				continue
			}
			// the CUDA root pins its own release
			if s.Parent == "" && s.GPU {
				continue
			}
			seen[anc] = true
			out = append(out, anc)
		}
	}
	return out
}

func (e *Engine) fail(key, name, variant string, err error) Failure {
	imagesGenerated.WithLabelValues(name, statusError).Inc()
	slog.Error("failed to generate image",
		"runtime", key,
		"image_type", name,
		"variation", variant,
		"error", err)
	return Failure{RuntimeKey: key, ImageType: name, Variation: variant, Err: err}
}

func (e *Engine) writeError(path string, err error) error {
	return errors.WrapWithContext(errors.ErrCodeInternal,
		"failed to write artifact", err, map[string]any{"path": e.relPath(path)})
}
