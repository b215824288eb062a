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

package dockerfile

import "strings"

const aptCleanup = "apt-get clean && rm -rf /var/lib/apt/lists/* /tmp/* /var/tmp/*"

// AptInstall returns a RUN step installing packages with apt-get, optionally
// refreshing the index first and cleaning caches afterwards.
func AptInstall(packages []string, update, clean bool) Run {
	cmd := "apt-get install -y " + strings.Join(packages, " ")
	if update {
		cmd = "apt-get update && " + cmd
	}
	if clean {
		cmd += " && " + aptCleanup
	}
	return Run{Command: cmd}
}

// PipInstall returns a RUN step installing a requirements file with the
// given pip binary and extra flags.
func PipInstall(pip, requirements string, flags ...string) Run {
	parts := append([]string{pip, "install"}, flags...)
	parts = append(parts, "-r", requirements)
	return Run{Command: strings.Join(parts, " ")}
}

// Chain joins shell commands with "&&" into one RUN step.
func Chain(commands ...string) Run {
	return Run{Command: strings.Join(commands, " && ")}
}
