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
	"time"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/errors"
)

// Target narrows a build to one runtime, one image type, or both.
type Target struct {
	// RuntimeVersion selects a runtime by version, as published or
	// sanitized, e.g. "17.3 LTS" or "17.3-LTS".
	RuntimeVersion string

	// ML selects the ML runtime of RuntimeVersion.
	ML bool

	// ImageType selects one image type.
	ImageType string
}

// IsZero reports whether the target selects everything.
func (t Target) IsZero() bool {
	return t.RuntimeVersion == "" && t.ImageType == ""
}

// RunTarget builds only what t selects. A zero target is a full Run.
// Targeted builds do not rewrite the build summary. An unknown runtime or
// image type is an error.
func (e *Engine) RunTarget(ctx context.Context, t Target) (*Result, error) {
	if t.IsZero() {
		return e.Run(ctx)
	}

	start := time.Now()
	runID := e.begin()
	slog.Info("starting targeted build",
		"run_id", runID,
		"runtime_version", t.RuntimeVersion,
		"ml", t.ML,
		"image_type", t.ImageType)

	res, err := e.runTarget(ctx, runID, t)
	recordRun(err, time.Since(start))
	if err != nil {
		e.setState(StateFailed)
		slog.Error("targeted build failed", "run_id", runID, "error", err)
		return res, err
	}
	e.setState(StateDone)
	slog.Info("targeted build complete", "run_id", runID, "summary", res.String())
	return res, nil
}

func (e *Engine) runTarget(ctx context.Context, runID string, t Target) (*Result, error) {
	if t.ImageType != "" && !e.registry.Has(t.ImageType) {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound,
			"unknown image type", map[string]any{"image_type": t.ImageType})
	}

	summary := NewSummary(e.registry.Names())
	res := &Result{RunID: runID, Summary: summary}

	if t.RuntimeVersion == "" {
		spec, _ := e.registry.Get(t.ImageType)
		if !spec.RuntimeSpecific {
			e.setState(StateBuildNonRuntimeSpecific)
			res.Total = 1
			paths, err := e.BuildImage(ctx, nil, t.ImageType)
			if err != nil {
				res.Failures = append(res.Failures, e.fail(defaults.NonRuntimeSpecificKey, t.ImageType, "", err))
				return res, nil
			}
			summary.Add(defaults.NonRuntimeSpecificKey, map[string][]string{t.ImageType: paths})
			res.Completed = 1
			return res, nil
		}
	}

	e.setState(StateFetchCatalog)
	runtimes, err := e.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	e.setState(StateFilterRuntimes)
	if t.RuntimeVersion != "" {
		rt, ok := findRuntime(runtimes, t.RuntimeVersion, t.ML)
		if !ok {
			return nil, errors.NewWithContext(errors.ErrCodeNotFound,
				"runtime version not found", map[string]any{"runtime_version": t.RuntimeVersion, "ml": t.ML})
		}
		runtimes = []catalog.Runtime{rt}
	} else if n := e.cfg.LatestLTSCount(); n > 0 {
		runtimes = FilterLatestLTS(runtimes, n, e.cfg.SkipMLVariants())
	}
	res.Total = len(runtimes)

	e.setState(StateBuildRuntimes)
	build := e.BuildRuntime
	if t.ImageType != "" {
		build = func(ctx context.Context, rt catalog.Runtime) (map[string][]string, []Failure) {
			paths, err := e.BuildImage(ctx, &rt, t.ImageType)
			if err != nil {
				return map[string][]string{t.ImageType: {}}, []Failure{e.fail(rt.Key(), t.ImageType, "", err)}
			}
			return map[string][]string{t.ImageType: paths}, nil
		}
	} else {
		res.Failures = append(res.Failures, e.BuildOSChains(ctx, runtimes)...)
	}

	var failures []Failure
	res.Completed, failures = e.buildRuntimes(ctx, runtimes, summary, build)
	res.Failures = append(res.Failures, failures...)
	return res, nil
}
