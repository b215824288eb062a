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
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/checksum"
	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/engine/config"
	"github.com/NVIDIA/dbx-container/pkg/errors"
	"github.com/NVIDIA/dbx-container/pkg/imagetype"
	"github.com/NVIDIA/dbx-container/pkg/variation"
)

// State is a step of an engine run.
type State int

const (
	StateInit State = iota
	StateFetchCatalog
	StateFilterRuntimes
	StateBuildNonRuntimeSpecific
	StateBuildRuntimes
	StateWriteSummary
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateInit:                    "init",
	StateFetchCatalog:            "fetch_catalog",
	StateFilterRuntimes:          "filter_runtimes",
	StateBuildNonRuntimeSpecific: "build_non_runtime_specific",
	StateBuildRuntimes:           "build_runtimes",
	StateWriteSummary:            "write_summary",
	StateDone:                    "done",
	StateFailed:                  "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Engine generates Dockerfiles and metadata for every runtime of a catalog.
// An Engine runs one build at a time.
type Engine struct {
	cfg      *config.Config
	provider catalog.Provider
	registry *imagetype.Registry
	resolver *variation.Resolver
	policy   variation.OSPolicy

	// root is the build context, the parent of the data directory. Paths
	// in the summary and in COPY instructions are relative to it.
	root string

	mu    sync.Mutex
	state State
	runID string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the built-in image types.
func WithRegistry(r *imagetype.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithResolver replaces the default variation resolver.
func WithResolver(r *variation.Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// New returns an Engine for cfg that reads runtimes from provider.
func New(cfg *config.Config, provider catalog.Provider, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid engine configuration", err)
	}
	if provider == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "catalog provider is required")
	}

	e := &Engine{
		cfg:      cfg,
		provider: provider,
		registry: imagetype.Default(),
		resolver: variation.NewResolver("", ""),
		policy:   cfg.OSPolicy(),
		root:     filepath.Dir(filepath.Clean(cfg.DataDir())),
		state:    StateInit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns the step the current or last run reached.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// RunID returns the identifier of the current or last run.
func (e *Engine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID
}

// Registry returns the image types the engine builds.
func (e *Engine) Registry() *imagetype.Registry {
	return e.registry
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	id := e.runID
	e.mu.Unlock()

	slog.Debug("engine state changed",
		"run_id", id,
		"from", prev.String(),
		"to", s.String())
}

func (e *Engine) begin() string {
	id := uuid.New().String()
	e.mu.Lock()
	e.runID = id
	e.state = StateInit
	e.mu.Unlock()
	return id
}

// Run fetches the catalog, builds every image type for the selected
// runtimes and writes the build summary. Per-image failures are logged and
// reported in the result; only catalog and summary failures return an error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := e.begin()

	slog.Info("starting build run",
		"run_id", runID,
		"data_dir", e.cfg.DataDir(),
		"registry", e.cfg.Registry(),
		"latest_lts_count", e.cfg.LatestLTSCount(),
		"max_workers", e.cfg.MaxWorkers())

	res, err := e.run(ctx, runID)
	recordRun(err, time.Since(start))
	if err != nil {
		e.setState(StateFailed)
		slog.Error("build run failed", "run_id", runID, "error", err)
		return res, err
	}
	e.setState(StateDone)

	slog.Info("build run complete",
		"run_id", runID,
		"summary", res.String(),
		"files", res.Summary.TotalFilesGenerated,
		"duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (e *Engine) run(ctx context.Context, runID string) (*Result, error) {
	e.setState(StateFetchCatalog)
	runtimes, err := e.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	e.setState(StateFilterRuntimes)
	if n := e.cfg.LatestLTSCount(); n > 0 {
		runtimes = FilterLatestLTS(runtimes, n, e.cfg.SkipMLVariants())
		slog.Info("selected latest LTS runtimes",
			"run_id", runID,
			"count", n,
			"runtimes", len(runtimes))
	}

	summary := NewSummary(e.registry.Names())
	res := &Result{RunID: runID, Summary: summary}

	e.setState(StateBuildNonRuntimeSpecific)
	generic, failures := e.BuildNonRuntimeSpecific(ctx)
	summary.Add(defaults.NonRuntimeSpecificKey, generic)
	res.Failures = append(res.Failures, failures...)
	res.Failures = append(res.Failures, e.BuildOSChains(ctx, runtimes)...)

	e.setState(StateBuildRuntimes)
	res.Total = len(runtimes)
	res.Completed, failures = e.buildRuntimes(ctx, runtimes, summary, e.BuildRuntime)
	res.Failures = append(res.Failures, failures...)

	if err := ctx.Err(); err != nil {
		return res, errors.Wrap(errors.ErrCodeTimeout, "build run canceled", err)
	}

	e.setState(StateWriteSummary)
	if err := e.writeSummary(ctx, summary); err != nil {
		return res, err
	}
	return res, nil
}

// FetchCatalog returns the provider's runtimes. Runtimes listed without an
// environment are completed from their runtime document. An empty catalog
// is an error.
func (e *Engine) FetchCatalog(ctx context.Context) ([]catalog.Runtime, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaults.CatalogFetchTimeout)
	defer cancel()

	runtimes, err := e.provider.SupportedRuntimes(ctx)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeInternal {
			return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to fetch runtime catalog", err)
		}
		return nil, err
	}
	if len(runtimes) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no runtimes found in catalog")
	}

	for i := range runtimes {
		if !runtimes[i].SystemEnvironment.IsZero() || runtimes[i].URL == "" {
			continue
		}
		env, err := e.provider.SystemEnvironment(ctx, runtimes[i].URL)
		if err != nil {
			slog.Warn("unable to load system environment",
				"runtime", runtimes[i].Key(),
				"url", runtimes[i].URL,
				"error", err)
			continue
		}
		if env != nil {
			runtimes[i].SystemEnvironment = *env
		}
	}

	catalogRuntimes.Set(float64(len(runtimes)))
	slog.Info("fetched runtime catalog",
		"runtimes", len(runtimes),
		"duration", time.Since(start).Round(time.Millisecond))
	return runtimes, nil
}

func (e *Engine) writeSummary(ctx context.Context, s *Summary) error {
	path := filepath.Join(e.cfg.DataDir(), defaults.SummaryFileName)
	if err := s.Write(path); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal,
			"failed to write build summary", err, map[string]any{"path": path})
	}
	slog.Info("saved build summary", "path", path)

	if !e.cfg.IncludeChecksums() {
		return nil
	}
	files := make([]string, 0, s.TotalFilesGenerated)
	for _, rel := range s.Files() {
		files = append(files, filepath.Join(e.root, filepath.FromSlash(rel)))
	}
	if err := checksum.GenerateChecksums(ctx, e.cfg.DataDir(), files); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to generate checksums", err)
	}
	return nil
}
