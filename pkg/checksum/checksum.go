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
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/NVIDIA/dbx-container/pkg/errors"
	"github.com/NVIDIA/dbx-container/pkg/serializer"
)

// ChecksumFileName is the standard name for checksum files.
const ChecksumFileName = "checksums.txt"

// GenerateChecksums writes checksums.txt into dir with the SHA256 of every
// file, one "<hex>  <path relative to dir>" line each, sorted by path.
func GenerateChecksums(ctx context.Context, dir string, files []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	type entry struct{ rel, sum string }
	entries := make([]entry, 0, len(files))
	seen := make(map[string]bool, len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}
		sum, err := fileSHA256(file)
		if err != nil {
			return fmt.Errorf("failed to read %s for checksum: %w", file, err)
		}

		rel, err := filepath.Rel(dir, file)
		if err != nil {
			rel = file
		}
		rel = filepath.ToSlash(rel)
		if seen[rel] {
			continue
		}
		seen[rel] = true
		entries = append(entries, entry{rel: rel, sum: sum})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })

	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s  %s\n", e.sum, e.rel)
	}

	checksumPath := GetChecksumFilePath(dir)
	if err := serializer.WriteFileAtomic(checksumPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write checksums: %w", err)
	}

	slog.Debug("checksums generated",
		"file_count", len(entries),
		"path", checksumPath,
	)

	return nil
}

// VerifyChecksums re-hashes every file listed in dir's checksums.txt and
// returns the relative paths that no longer match or are missing.
func VerifyChecksums(ctx context.Context, dir string) ([]string, error) {
	f, err := os.Open(GetChecksumFilePath(dir))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, "checksums file not found", err)
	}
	defer f.Close()

	var mismatched []string
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled: %w", err)
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		want, rel, ok := strings.Cut(text, "  ")
		if !ok {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"malformed checksum line", map[string]any{"line": line})
		}
		got, err := fileSHA256(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil || got != want {
			mismatched = append(mismatched, rel)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}
	return mismatched, nil
}

// GetChecksumFilePath returns the full path to the checksums.txt file
// in the given directory.
func GetChecksumFilePath(dir string) string {
	return filepath.Join(dir, ChecksumFileName)
}

func fileSHA256(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
