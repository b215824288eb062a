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

package checksum

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestGenerateChecksums(t *testing.T) {
	t.Parallel()

	t.Run("sorted relative entries", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		python := filepath.Join(dir, "python", "17.3-LTS-ubuntu2404-py312", "Dockerfile")
		minimal := filepath.Join(dir, "minimal", "latest", "Dockerfile")
		writeFile(t, python, "FROM dbx-runtime:standard\n")
		writeFile(t, minimal, "FROM ubuntu:24.04\n")

		if err := GenerateChecksums(context.Background(), dir, []string{python, minimal, python}); err != nil {
			t.Fatalf("GenerateChecksums() error = %v", err)
		}

		data, err := os.ReadFile(GetChecksumFilePath(dir))
		if err != nil {
			t.Fatalf("failed to read checksums.txt: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
		}
		if !strings.HasSuffix(lines[0], "  minimal/latest/Dockerfile") {
			t.Errorf("expected minimal first, got %q", lines[0])
		}
		if hash, _, _ := strings.Cut(lines[1], "  "); len(hash) != 64 {
			t.Errorf("expected 64 hex chars, got %d", len(hash))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := GenerateChecksums(context.Background(), dir, []string{filepath.Join(dir, "nope")}); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := GenerateChecksums(ctx, t.TempDir(), nil); err == nil {
			t.Error("expected error for canceled context")
		}
	})
}

func TestVerifyChecksums(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a", "Dockerfile")
	b := filepath.Join(dir, "b", "Dockerfile")
	writeFile(t, a, "FROM a\n")
	writeFile(t, b, "FROM b\n")

	if err := GenerateChecksums(context.Background(), dir, []string{a, b}); err != nil {
		t.Fatalf("GenerateChecksums() error = %v", err)
	}

	bad, err := VerifyChecksums(context.Background(), dir)
	if err != nil {
		t.Fatalf("VerifyChecksums() error = %v", err)
	}
	if len(bad) != 0 {
		t.Errorf("expected no mismatches, got %v", bad)
	}

	writeFile(t, b, "FROM changed\n")
	if err := os.Remove(a); err != nil {
		t.Fatal(err)
	}
	bad, err = VerifyChecksums(context.Background(), dir)
	if err != nil {
		t.Fatalf("VerifyChecksums() error = %v", err)
	}
	if len(bad) != 2 {
		t.Errorf("expected 2 mismatches, got %v", bad)
	}

	if _, err := VerifyChecksums(context.Background(), t.TempDir()); err == nil {
		t.Error("expected error without checksums file")
	}
}
