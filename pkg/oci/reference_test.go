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
	"os"
	"path/filepath"
	"testing"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"

	apperrors "github.com/NVIDIA/dbx-container/pkg/errors"
)

func TestParseOutputTarget(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIsOCI bool
		wantReg   string
		wantRepo  string
		wantTag   string
		wantDir   string
		wantErr   bool
	}{
		{name: "local directory relative", input: "./dist", wantDir: "./dist"},
		{name: "local directory absolute", input: "/tmp/dbx", wantDir: "/tmp/dbx"},
		{
			name:      "OCI with tag",
			input:     "oci://ghcr.io/twsl/dbx-runtime-dockerfiles:2025.10.01",
			wantIsOCI: true,
			wantReg:   "ghcr.io",
			wantRepo:  "twsl/dbx-runtime-dockerfiles",
			wantTag:   "2025.10.01",
		},
		{
			name:      "OCI without tag",
			input:     "oci://ghcr.io/twsl/dbx-runtime-dockerfiles",
			wantIsOCI: true,
			wantReg:   "ghcr.io",
			wantRepo:  "twsl/dbx-runtime-dockerfiles",
		},
		{
			name:      "OCI with port",
			input:     "oci://localhost:5000/test/dbx:v1",
			wantIsOCI: true,
			wantReg:   "localhost:5000",
			wantRepo:  "test/dbx",
			wantTag:   "v1",
		},
		{name: "OCI empty", input: "oci://", wantErr: true},
		{name: "OCI uppercase", input: "oci://ghcr.io/TWSL/Dbx:v1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseOutputTarget(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputTarget() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ref.IsOCI != tt.wantIsOCI {
				t.Errorf("IsOCI = %v, want %v", ref.IsOCI, tt.wantIsOCI)
			}
			if ref.Registry != tt.wantReg {
				t.Errorf("Registry = %q, want %q", ref.Registry, tt.wantReg)
			}
			if ref.Repository != tt.wantRepo {
				t.Errorf("Repository = %q, want %q", ref.Repository, tt.wantRepo)
			}
			if ref.Tag != tt.wantTag {
				t.Errorf("Tag = %q, want %q", ref.Tag, tt.wantTag)
			}
			if ref.LocalPath != tt.wantDir {
				t.Errorf("LocalPath = %q, want %q", ref.LocalPath, tt.wantDir)
			}
		})
	}
}

func TestReference_Strings(t *testing.T) {
	local := &Reference{LocalPath: "./dist"}
	tagged := &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "twsl/dbx", Tag: "v1"}
	untagged := &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "twsl/dbx"}

	tests := []struct {
		name      string
		ref       *Reference
		wantStr   string
		wantImage string
	}{
		{"local", local, "./dist", ""},
		{"tagged", tagged, "oci://ghcr.io/twsl/dbx:v1", "ghcr.io/twsl/dbx:v1"},
		{"untagged", untagged, "oci://ghcr.io/twsl/dbx", "ghcr.io/twsl/dbx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
			if got := tt.ref.ImageReference(); got != tt.wantImage {
				t.Errorf("ImageReference() = %q, want %q", got, tt.wantImage)
			}
		})
	}
}

func TestReference_WithTag(t *testing.T) {
	orig := &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "twsl/dbx", Tag: "v1"}
	got := orig.WithTag("v2")
	if got.Tag != "v2" || got.Registry != "ghcr.io" || got.Repository != "twsl/dbx" {
		t.Errorf("WithTag() = %+v", got)
	}
	if orig.Tag != "v1" {
		t.Error("WithTag() modified the receiver")
	}

	local := &Reference{LocalPath: "./dist"}
	if local.WithTag("v2") != local {
		t.Error("WithTag() should return local references unchanged")
	}
}

func TestPublish_LocalTarget(t *testing.T) {
	source := writeTree(t, t.TempDir(), sampleTree)
	out := t.TempDir()

	ref, err := ParseOutputTarget(out)
	if err != nil {
		t.Fatalf("ParseOutputTarget() error = %v", err)
	}

	res, err := Publish(context.Background(), PublishConfig{
		SourceDir: source,
		Reference: ref,
		Tag:       "v1.2.0",
		Version:   "v1.2.0",
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res.Pushed {
		t.Error("local targets must not be pushed")
	}
	if res.StorePath != filepath.Join(out, layoutDirName) {
		t.Errorf("StorePath = %q", res.StorePath)
	}
	if _, err := os.Stat(filepath.Join(res.StorePath, ociv1.ImageIndexFile)); err != nil {
		t.Errorf("index.json missing: %v", err)
	}

	manifest := readManifest(t, res.StorePath, res.Digest)
	if manifest.Annotations[ociv1.AnnotationVersion] != "v1.2.0" {
		t.Errorf("version annotation = %q", manifest.Annotations[ociv1.AnnotationVersion])
	}
}

func TestPublish_Validation(t *testing.T) {
	ctx := context.Background()

	if _, err := Publish(ctx, PublishConfig{SourceDir: "."}); !apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest) {
		t.Errorf("Publish() without target error = %v", err)
	}

	ref := &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "twsl/dbx"}
	if _, err := Publish(ctx, PublishConfig{SourceDir: ".", Reference: ref}); !apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest) {
		t.Errorf("Publish() without tag error = %v", err)
	}
}
