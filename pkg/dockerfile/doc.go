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

// Package dockerfile renders Dockerfiles from a closed set of instructions.
//
// Each instruction type (From, Arg, Env, Run, Workdir, Entrypoint, Copy, Cmd,
// Comment, Label, Expose, User, Volume, Healthcheck, Shell, Add, StopSignal,
// OnBuild) renders to exactly one line. A Builder starts with a From line and
// appends lines in order:
//
//	b := dockerfile.New("standard", dockerfile.From{Image: "dbx-runtime:minimal"}).
//		Add(dockerfile.AptInstall([]string{"fuse"}, true, true)).
//		Add(dockerfile.Env{Name: "USER", Value: "root"})
//	if err := b.Err(); err != nil {
//		return err
//	}
//	fmt.Print(b.Render())
//
// Validation happens when an instruction is added, never at render time.
package dockerfile
