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
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/checksum"
	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/dockerfile"
	"github.com/NVIDIA/dbx-container/pkg/engine/config"
	"github.com/NVIDIA/dbx-container/pkg/errors"
	"github.com/NVIDIA/dbx-container/pkg/imagetype"
)

func testRuntime(version string, released time.Time, lts, ml bool, osName, py string) catalog.Runtime {
	return catalog.Runtime{
		Version:      version,
		ReleaseDate:  catalog.Date{Time: released},
		SparkVersion: "3.5.0",
		URL:          "https://docs.databricks.com/release-notes/" + catalog.SanitizeVersion(version),
		IsML:         ml,
		IsLTS:        lts,
		SystemEnvironment: catalog.SystemEnvironment{
			OperatingSystem: osName,
			PythonVersion:   py,
		},
		IncludedLibraries: catalog.Libraries{
			catalog.PythonEcosystem: {"pandas": "2.2.2", "numpy": "1.26.4"},
		},
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func testProvider() *catalog.Static {
	return &catalog.Static{Runtimes: []catalog.Runtime{
		testRuntime("17.3 LTS", day(2025, 10, 1), true, false, "Ubuntu 24.04.2 LTS", "3.12.3"),
		testRuntime("16.4 LTS", day(2025, 5, 1), true, false, "Ubuntu 22.04.5 LTS", "3.12.3"),
	}}
}

func newTestEngine(t *testing.T, provider catalog.Provider, opts ...config.Option) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	opts = append([]config.Option{config.WithDataDir(filepath.Join(root, defaults.DataDir))}, opts...)
	e, err := New(config.NewConfig(opts...), provider)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e, root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(config.NewConfig(), nil); !errors.IsCode(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST for nil provider, got %v", err)
	}
	if _, err := New(config.NewConfig(config.WithMaxWorkers(0)), testProvider()); !errors.IsCode(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST for invalid config, got %v", err)
	}
}

func TestRun_WritesArtifacts(t *testing.T) {
	e, root := newTestEngine(t, testProvider())

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := res.String(); got != "2/2 runtimes completed" {
		t.Errorf("result = %q", got)
	}
	if !res.OK() {
		t.Errorf("unexpected failures: %v", res.Failures)
	}
	if e.State() != StateDone {
		t.Errorf("state = %s, want done", e.State())
	}
	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Errorf("run id %q is not a UUID", res.RunID)
	}

	dir := filepath.Join(root, "data", "python", "17.3-LTS-ubuntu2404-py312")
	df := readFile(t, filepath.Join(dir, DockerfileName))
	if !strings.HasPrefix(df, "FROM dbx-runtime:standard\n") {
		t.Errorf("unexpected base line: %q", strings.SplitN(df, "\n", 2)[0])
	}
	if !strings.Contains(df, "data/python/17.3-LTS-ubuntu2404-py312/requirements.txt") {
		t.Error("Dockerfile should copy the generated requirements from the build context")
	}

	req := readFile(t, filepath.Join(dir, RequirementsName))
	if !strings.HasSuffix(req, "\nnumpy==1.26.4\npandas==2.2.2\n") {
		t.Errorf("unexpected requirements:\n%s", req)
	}

	gpu := readFile(t, filepath.Join(root, "data", "python-gpu", "16.4-LTS-ubuntu2204-py312", DockerfileName))
	if !strings.HasPrefix(gpu, "FROM dbx-runtime:standard-gpu\n") {
		t.Errorf("unexpected python-gpu base line: %q", strings.SplitN(gpu, "\n", 2)[0])
	}

	minimal := readFile(t, filepath.Join(root, "data", "minimal", "latest", DockerfileName))
	if !strings.HasPrefix(minimal, "FROM ubuntu:24.04\n") {
		t.Errorf("unexpected minimal base line: %q", strings.SplitN(minimal, "\n", 2)[0])
	}

	// upgraded runtimes reuse latest/ instead of an OS directory
	if _, err := os.Stat(filepath.Join(root, "data", "minimal", "ubuntu2204")); !os.IsNotExist(err) {
		t.Errorf("expected no ubuntu2204 chain when upgrading, stat err = %v", err)
	}

	s, err := ReadSummary(filepath.Join(root, "data", defaults.SummaryFileName))
	if err != nil {
		t.Fatalf("ReadSummary() error = %v", err)
	}
	if s.TotalRuntimes != 3 {
		t.Errorf("total_runtimes = %d, want 3", s.TotalRuntimes)
	}
	if len(s.ImageTypes) != 7 {
		t.Errorf("image_types = %v", s.ImageTypes)
	}
	python := s.BuildDetails["17.3 LTS"]["python"]
	want := []string{
		"data/python/17.3-LTS-ubuntu2404-py312/Dockerfile",
		"data/python/17.3-LTS-ubuntu2404-py312/runtime_metadata.json",
		"data/python/17.3-LTS-ubuntu2404-py312/requirements.txt",
		"data/python/17.3-LTS-ubuntu2404-py312/python-lsp-requirements.txt",
	}
	if fmt.Sprint(python) != fmt.Sprint(want) {
		t.Errorf("python files = %v, want %v", python, want)
	}
	if got := s.BuildDetails[defaults.NonRuntimeSpecificKey]["minimal"]; len(got) != 2 {
		t.Errorf("minimal files = %v", got)
	}
	if s.TotalFilesGenerated != len(s.Files()) {
		t.Errorf("total_files_generated = %d, files = %d", s.TotalFilesGenerated, len(s.Files()))
	}
}

func TestRun_CopySourcesExist(t *testing.T) {
	e, root := newTestEngine(t, testProvider())

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	copies := 0
	for _, rel := range res.Summary.Files() {
		if filepath.Base(rel) != DockerfileName {
			continue
		}
		df := readFile(t, filepath.Join(root, filepath.FromSlash(rel)))
		for _, line := range strings.Split(df, "\n") {
			if !strings.HasPrefix(line, "COPY ") || strings.Contains(line, "--from=") {
				continue
			}
			fields := strings.Fields(line)
			for _, src := range fields[1 : len(fields)-1] {
				if strings.HasPrefix(src, "--") {
					continue
				}
				copies++
				if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(src))); err != nil {
					t.Errorf("%s: COPY source %s missing from build context: %v", rel, src, err)
				}
			}
		}
	}
	if copies == 0 {
		t.Fatal("expected python Dockerfiles to copy build context files")
	}

	lsp := readFile(t, filepath.Join(root, "data", "python", "17.3-LTS-ubuntu2404-py312", LSPRequirementsName))
	if !strings.Contains(lsp, "\npython-lsp-server==") {
		t.Errorf("unexpected lsp requirements:\n%s", lsp)
	}
}

func TestRun_Metadata(t *testing.T) {
	e, root := newTestEngine(t, testProvider())
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	meta := readFile(t, filepath.Join(root, "data", "python", "16.4-LTS-ubuntu2204-py312", MetadataFileName))
	for _, want := range []string{
		`"version": "16.4 LTS"`,
		`"release_date": "2025-05-01"`,
		`"is_lts": true`,
		`"java_version": "N/A"`,
		`"os_version": "22.04"`,
		`"suffix": "ubuntu2204-py312"`,
	} {
		if !strings.Contains(meta, want) {
			t.Errorf("metadata missing %s:\n%s", want, meta)
		}
	}
	if strings.Contains(meta, "separator") {
		t.Error("separator should not be persisted")
	}

	generic := readFile(t, filepath.Join(root, "data", "standard", "latest", MetadataFileName))
	if !strings.Contains(generic, genericNote) {
		t.Errorf("generic metadata missing note:\n%s", generic)
	}
	if !strings.Contains(generic, `"reference_runtime_version": "generic"`) {
		t.Errorf("generic metadata missing reference version:\n%s", generic)
	}
}

func TestRun_KeepsOlderRelease(t *testing.T) {
	e, root := newTestEngine(t, testProvider(), config.WithAllowOSUpgrade(false))
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	minimal := readFile(t, filepath.Join(root, "data", "minimal", "ubuntu2204", DockerfileName))
	if !strings.HasPrefix(minimal, "FROM ubuntu:22.04\n") {
		t.Errorf("unexpected base line: %q", strings.SplitN(minimal, "\n", 2)[0])
	}
	for _, name := range []string{"standard", "minimal-gpu", "standard-gpu"} {
		if _, err := os.Stat(filepath.Join(root, "data", name, "ubuntu2204", DockerfileName)); err != nil {
			t.Errorf("expected %s chain for ubuntu2204: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "data", "gpu", "ubuntu2204")); !os.IsNotExist(err) {
		t.Error("the CUDA root has no per-release chain")
	}

	latest := readFile(t, filepath.Join(root, "data", "minimal", "latest", DockerfileName))
	if !strings.HasPrefix(latest, "FROM ubuntu:24.04\n") {
		t.Errorf("latest must stay on the pinned release: %q", strings.SplitN(latest, "\n", 2)[0])
	}
}

func TestRun_ForcedRelease(t *testing.T) {
	e, root := newTestEngine(t, testProvider(), config.WithForceOSVersion("22.04"))
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	minimal := readFile(t, filepath.Join(root, "data", "minimal", "ubuntu2204", DockerfileName))
	if !strings.HasPrefix(minimal, "FROM ubuntu:22.04\n") {
		t.Errorf("unexpected base line: %q", strings.SplitN(minimal, "\n", 2)[0])
	}
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[path] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	return out
}

func TestRun_Idempotent(t *testing.T) {
	e, root := newTestEngine(t, testProvider())
	ctx := context.Background()

	if _, err := e.Run(ctx); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	first := snapshot(t, root)

	if _, err := e.Run(ctx); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	second := snapshot(t, root)

	if len(first) != len(second) {
		t.Fatalf("file count changed: %d -> %d", len(first), len(second))
	}
	for path, content := range first {
		if second[path] != content {
			t.Errorf("%s changed between runs", path)
		}
	}
}

func TestRun_CatalogFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *catalog.Static
		code     errors.ErrorCode
	}{
		{"empty catalog", &catalog.Static{}, errors.ErrCodeNotFound},
		{"plain error", &catalog.Static{Err: stderrors.New("connection refused")}, errors.ErrCodeUnavailable},
		{"structured error", &catalog.Static{Err: errors.New(errors.ErrCodeTimeout, "slow")}, errors.ErrCodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, root := newTestEngine(t, tt.provider)
			_, err := e.Run(context.Background())
			if !errors.IsCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if e.State() != StateFailed {
				t.Errorf("state = %s, want failed", e.State())
			}
			if _, err := os.Stat(filepath.Join(root, "data", defaults.SummaryFileName)); !os.IsNotExist(err) {
				t.Error("no summary should be written for a failed run")
			}
		})
	}
}

func TestRun_UnparseableOS(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	provider := &catalog.Static{Runtimes: []catalog.Runtime{
		testRuntime("15.4 LTS", day(2024, 8, 1), true, false, "", "3.11.0"),
	}}
	e, root := newTestEngine(t, provider)

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.OK() {
		t.Errorf("unexpected failures: %v", res.Failures)
	}
	if _, err := os.Stat(filepath.Join(root, "data", "python", "15.4-LTS-ubuntu2404-py311", DockerfileName)); err != nil {
		t.Errorf("expected artifact on the default release: %v", err)
	}
	if !strings.Contains(buf.String(), "unable to determine OS version") {
		t.Errorf("expected a warning, got %s", buf.String())
	}
}

func TestRun_Checksums(t *testing.T) {
	e, root := newTestEngine(t, testProvider(), config.WithIncludeChecksums(true))
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	dataDir := filepath.Join(root, "data")
	content := readFile(t, checksum.GetChecksumFilePath(dataDir))
	if got := strings.Count(content, "\n"); got != res.Summary.TotalFilesGenerated {
		t.Errorf("checksum lines = %d, want %d", got, res.Summary.TotalFilesGenerated)
	}
	bad, err := checksum.VerifyChecksums(context.Background(), dataDir)
	if err != nil {
		t.Fatalf("VerifyChecksums() error = %v", err)
	}
	if len(bad) != 0 {
		t.Errorf("mismatched files: %v", bad)
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	specs := append(imagetype.DefaultSpecs(), imagetype.Spec{
		Name:            "broken",
		Parent:          imagetype.Standard,
		RuntimeSpecific: true,
		Generate: func(imagetype.Params) (*dockerfile.Builder, error) {
			return nil, fmt.Errorf("boom")
		},
	})
	reg, err := imagetype.NewRegistry(specs...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	root := t.TempDir()
	cfg := config.NewConfig(config.WithDataDir(filepath.Join(root, "data")))
	e, err := New(cfg, testProvider(), WithRegistry(reg))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("per-image failures must not fail the run: %v", err)
	}
	if got := res.String(); got != "0/2 runtimes completed" {
		t.Errorf("result = %q", got)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("failures = %v", res.Failures)
	}
	for _, f := range res.Failures {
		if f.ImageType != "broken" {
			t.Errorf("unexpected failure %v", f)
		}
	}
	if got := res.Summary.BuildDetails["17.3 LTS"]["broken"]; len(got) != 0 {
		t.Errorf("failed image listed in summary: %v", got)
	}
	if got := res.Summary.BuildDetails["17.3 LTS"]["python"]; len(got) != 4 {
		t.Errorf("sibling images should still be built: %v", got)
	}
}

func TestRun_Canceled(t *testing.T) {
	e, root := newTestEngine(t, testProvider())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Run(ctx); err == nil {
		t.Fatal("expected an error for a canceled context")
	}
	if _, err := os.Stat(filepath.Join(root, "data", defaults.SummaryFileName)); !os.IsNotExist(err) {
		t.Error("no summary should be written for a canceled run")
	}
}

func TestRunTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("runtime and image type", func(t *testing.T) {
		e, root := newTestEngine(t, testProvider())
		res, err := e.RunTarget(ctx, Target{RuntimeVersion: "17.3-LTS", ImageType: imagetype.Python})
		if err != nil {
			t.Fatalf("RunTarget() error = %v", err)
		}
		if res.String() != "1/1 runtimes completed" {
			t.Errorf("result = %q", res)
		}
		if _, err := os.Stat(filepath.Join(root, "data", "python", "17.3-LTS-ubuntu2404-py312", DockerfileName)); err != nil {
			t.Errorf("expected python artifact: %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "data", "python-gpu")); !os.IsNotExist(err) {
			t.Error("only the requested image type should be built")
		}
		if _, err := os.Stat(filepath.Join(root, "data", defaults.SummaryFileName)); !os.IsNotExist(err) {
			t.Error("targeted builds do not write the summary")
		}
	})

	t.Run("non-runtime-specific type", func(t *testing.T) {
		e, root := newTestEngine(t, &catalog.Static{})
		res, err := e.RunTarget(ctx, Target{ImageType: imagetype.Minimal})
		if err != nil {
			t.Fatalf("RunTarget() error = %v", err)
		}
		if !res.OK() {
			t.Errorf("unexpected failures: %v", res.Failures)
		}
		if _, err := os.Stat(filepath.Join(root, "data", "minimal", "latest", DockerfileName)); err != nil {
			t.Errorf("expected minimal artifact: %v", err)
		}
	})

	t.Run("unknown runtime", func(t *testing.T) {
		e, _ := newTestEngine(t, testProvider())
		_, err := e.RunTarget(ctx, Target{RuntimeVersion: "9.9"})
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Errorf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("unknown image type", func(t *testing.T) {
		e, _ := newTestEngine(t, testProvider())
		_, err := e.RunTarget(ctx, Target{ImageType: "dbfsfuse"})
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Errorf("expected NOT_FOUND, got %v", err)
		}
	})
}

func TestBuildImage_RequiresRuntime(t *testing.T) {
	e, _ := newTestEngine(t, testProvider())
	_, err := e.BuildImage(context.Background(), nil, imagetype.Python)
	if !errors.IsCode(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestFetchCatalog_FillsEnvironment(t *testing.T) {
	rt := testRuntime("17.3 LTS", day(2025, 10, 1), true, false, "", "")
	rt.SystemEnvironment = catalog.SystemEnvironment{}
	provider := &catalog.Static{
		Runtimes: []catalog.Runtime{rt},
		Environments: map[string]catalog.SystemEnvironment{
			rt.URL: {OperatingSystem: "Ubuntu 24.04.2 LTS", PythonVersion: "3.12.3"},
		},
	}
	e, _ := newTestEngine(t, provider)

	runtimes, err := e.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v", err)
	}
	if got := runtimes[0].SystemEnvironment.OperatingSystem; got != "Ubuntu 24.04.2 LTS" {
		t.Errorf("operating_system = %q", got)
	}
}
