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


// Package oci packages a generated Dockerfile tree as an OCI artifact and
// pushes it to an OCI-compliant registry using ORAS.
//
// # Overview
//
// Two operations can be used independently or together through Publish:
//   - Package: archives a directory into a local OCI Image Layout
//   - PushFromStore: copies a tagged manifest from that layout to a registry
//
// # Usage
//
//	ref, err := oci.ParseOutputTarget("oci://ghcr.io/twsl/dbx-runtime-dockerfiles:2025.10.01")
//	if err != nil {
//	    return err
//	}
//	res, err := oci.Publish(ctx, oci.PublishConfig{
//	    SourceDir: "data",
//	    Reference: ref,
//	    Version:   "v1.2.0",
//	})
//
// A target without the oci:// scheme is a local directory; Publish then
// writes the layout there and pushes nothing.
//
// # Authentication
//
// Credentials come from the Docker configuration (~/.docker/config.json)
// through the ORAS credentials package.
//
// # Artifact Type
//
// Manifests carry the artifact type "application/vnd.nvidia.dbx-container.dockerfiles"
// with a single gzip layer holding the tree. Tar headers are reproducible,
// so a fixed created timestamp yields a stable digest.
package oci
