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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dbx-container/pkg/errors"
	"github.com/NVIDIA/dbx-container/pkg/matrix"
	"github.com/NVIDIA/dbx-container/pkg/serializer"
)

const testIndex = `releases:
  - version: "16.4 LTS"
    release_date: "2024-08-19"
    end_of_support_date: "2027-08-19"
    spark_version: "3.5.2"
    url: runtimes/16.4lts.yaml
  - version: "17.3 LTS"
    release_date: "2025-10-01"
    end_of_support_date: "2028-10-01"
    spark_version: "4.0.0"
    url: runtimes/17.3lts.yaml
`

const testRuntime164 = `system_environment:
  operating_system: Ubuntu 22.04.5 LTS
  python_version: 3.12.3
included_libraries:
  python:
    pandas: 2.2.2
`

const testRuntime173 = `system_environment:
  operating_system: Ubuntu 24.04.2 LTS
  python_version: 3.12.3
included_libraries:
  python:
    pyarrow: 19.0.1
`

// writeCatalog writes a two-runtime catalog and returns the index path.
func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.yaml":            testIndex,
		"runtimes/16.4lts.yaml": testRuntime164,
		"runtimes/17.3lts.yaml": testRuntime173,
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return filepath.Join(dir, "index.yaml")
}

// run executes the root command and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewCommand()
	cmd.Writer = &buf
	err := cmd.Run(context.Background(), append([]string{name}, args...))
	return buf.String(), err
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    serializer.Format
		wantErr bool
	}{
		{"yaml", serializer.FormatYAML, false},
		{"json", serializer.FormatJSON, false},
		{"table", serializer.FormatTable, false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cmd := &cli.Command{
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: tt.format},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					got, err := parseOutputFormat(c)
					if (err != nil) != tt.wantErr {
						t.Errorf("parseOutputFormat() error = %v, wantErr %v", err, tt.wantErr)
						return nil
					}
					if got != tt.want {
						t.Errorf("parseOutputFormat() = %v, want %v", got, tt.want)
					}
					return nil
				},
			}
			require.NoError(t, cmd.Run(context.Background(), []string{"test"}))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "dbxc.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("data_dir: from-file\nmax_workers: 3\nlatest_lts_count: 4\n"), 0o600))

	tests := []struct {
		name        string
		args        []string
		wantDataDir string
		wantWorkers int
		wantCount   int
		wantErr     bool
	}{
		{
			name:        "file values",
			args:        []string{"--config", cfgFile},
			wantDataDir: "from-file",
			wantWorkers: 3,
			wantCount:   4,
		},
		{
			name:        "flags override file",
			args:        []string{"--config", cfgFile, "--threads", "8", "--data-dir", "out"},
			wantDataDir: "out",
			wantWorkers: 8,
			wantCount:   4,
		},
		{
			name:    "invalid workers",
			args:    []string{"--threads", "0"},
			wantErr: true,
		},
		{
			name:    "missing config file",
			args:    []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := append(buildCmd().Flags, &cli.StringFlag{Name: "config"})
			cmd := &cli.Command{
				Name:  "test",
				Flags: flags,
				Action: func(_ context.Context, c *cli.Command) error {
					cfg, err := loadConfig(c)
					if tt.wantErr {
						assert.Error(t, err)
						return nil
					}
					require.NoError(t, err)
					assert.Equal(t, tt.wantDataDir, cfg.DataDir())
					assert.Equal(t, tt.wantWorkers, cfg.MaxWorkers())
					assert.Equal(t, tt.wantCount, cfg.LatestLTSCount())
					assert.Equal(t, version, cfg.Version())
					return nil
				},
			}
			require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, tt.args...)))
		})
	}
}

func TestList(t *testing.T) {
	idx := writeCatalog(t)

	out, err := run(t, "list", "--catalog", idx, "--format", "json")
	require.NoError(t, err)

	var runtimes []struct {
		Version string `json:"version"`
		IsLTS   bool   `json:"is_lts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runtimes))
	require.Len(t, runtimes, 2)
	assert.Equal(t, "17.3 LTS", runtimes[0].Version, "newest first")
	assert.Equal(t, "16.4 LTS", runtimes[1].Version)
	assert.True(t, runtimes[0].IsLTS)

	table, err := run(t, "list", "--catalog", idx)
	require.NoError(t, err)
	assert.Contains(t, table, "VERSION")
	assert.Contains(t, table, "17.3 LTS")
}

func TestBuildThenMatrix(t *testing.T) {
	idx := writeCatalog(t)
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	metricsFile := filepath.Join(root, "dbxc.prom")

	out, err := run(t, "build", "--catalog", idx, "--data-dir", dataDir, "--latest-lts-count", "0",
		"--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Equal(t, "2/2 runtimes completed\n", out)

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "dbxc_build_runs_total")

	assert.FileExists(t, filepath.Join(dataDir, "build_summary.json"))
	assert.FileExists(t, filepath.Join(dataDir, "minimal", "latest", "Dockerfile"))
	assert.FileExists(t, filepath.Join(dataDir, "python", "17.3-LTS-ubuntu2404-py312", "Dockerfile"))
	assert.FileExists(t, filepath.Join(dataDir, "python", "17.3-LTS-ubuntu2404-py312", "requirements.txt"))
	assert.FileExists(t, filepath.Join(dataDir, "python", "17.3-LTS-ubuntu2404-py312", "python-lsp-requirements.txt"))

	out, err = run(t, "generate-matrix", "--data-dir", dataDir, "--image-type", "python")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"), "matrix is a single line")

	var m matrix.Matrix
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	require.NotEmpty(t, m.Include)
	suffixes := map[string]string{
		"17.3 LTS": "-ubuntu2404-py312",
		"16.4 LTS": "-ubuntu2204-py312",
	}
	for _, e := range m.Include {
		assert.Equal(t, "python", e.ImageType)
		assert.Equal(t, suffixes[e.Runtime], e.Suffix, e.Runtime)
	}
	assert.Equal(t, "17.3 LTS", m.Include[0].Runtime)

	out, err = run(t, "generate-matrix", "--data-dir", dataDir, "--latest-lts-count", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	for _, e := range m.Include {
		assert.Equal(t, "17.3 LTS", e.Runtime)
	}
}

func TestBuild_UnknownImageType(t *testing.T) {
	idx := writeCatalog(t)
	dataDir := filepath.Join(t.TempDir(), "data")

	_, err := run(t, "build", "--catalog", idx, "--data-dir", dataDir, "--image-type", "nope")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	assert.NoFileExists(t, filepath.Join(dataDir, "build_summary.json"))
}

func TestBuild_MissingCatalog(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")

	_, err := run(t, "build", "--catalog", filepath.Join(t.TempDir(), "index.yaml"), "--data-dir", dataDir)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dataDir, "build_summary.json"))
}

func TestMatrix_MissingSummary(t *testing.T) {
	out, err := run(t, "generate-matrix", "--data-dir", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	assert.Equal(t, "{\"include\":[]}\n", out)
}

func TestPublish_LocalTarget(t *testing.T) {
	idx := writeCatalog(t)
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")

	_, err := run(t, "build", "--catalog", idx, "--data-dir", dataDir)
	require.NoError(t, err)

	target := filepath.Join(root, "dist")
	out, err := run(t, "publish", "--data-dir", dataDir, "--target", target, "--tag", "v1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "packaged v1@sha256:"), out)
	assert.FileExists(t, filepath.Join(target, "oci-layout", "index.json"))
}
