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

// Package imagetype declares the image types and how they depend on each
// other.
//
// Each Spec names a generator, an optional parent and whether it is built
// per runtime. A Registry is built once from a list of specs and rejects
// duplicate names, unknown parents and cycles at construction:
//
//	reg := imagetype.Default()
//	ref, err := reg.ResolveBaseReference(imagetype.Python, &rt, &v, "", variation.DefaultOSPolicy())
//	// ref == "dbx-runtime:standard"
//	b, err := reg.Generate(imagetype.Python, imagetype.Params{BaseImage: ref, Runtime: &rt, Variation: &v})
//
// Generators emit only their own layer; the layers below come from the
// parent image named in FROM.
package imagetype
