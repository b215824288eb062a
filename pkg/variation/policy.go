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

package variation

import (
	"github.com/NVIDIA/dbx-container/pkg/defaults"
)

// OSPolicy decides which Ubuntu release base images are built on.
type OSPolicy struct {
	// Pinned is the release base images are upgraded to, "24.04" when empty.
	Pinned string

	// Force, when set, is used for every base image regardless of runtime.
	Force string

	// AllowUpgrade moves runtimes on an older release to Pinned. When false
	// the runtime's own release is kept.
	AllowUpgrade bool
}

// DefaultOSPolicy upgrades every runtime to defaults.OSVersion.
func DefaultOSPolicy() OSPolicy {
	return OSPolicy{Pinned: defaults.OSVersion, AllowUpgrade: true}
}

func (p OSPolicy) pinned() string {
	if p.Pinned == "" {
		return defaults.OSVersion
	}
	return p.Pinned
}

// Effective returns the release to build on for a runtime whose native
// release is native, and whether that is an upgrade away from native.
func (p OSPolicy) Effective(native string) (osVersion string, upgraded bool) {
	if p.Force != "" {
		return p.Force, false
	}
	pinned := p.pinned()
	if native == "" || native == pinned {
		return pinned, false
	}
	if p.AllowUpgrade {
		return pinned, true
	}
	return native, false
}

// NeedsOSChain reports whether base images must be generated for a
// release other than the one under latest/.
func (p OSPolicy) NeedsOSChain(native string) bool {
	return p.Force != "" || (native != "" && native != p.pinned())
}

// OSDir returns the directory name base images for osVersion live under:
// defaults.LatestDir for the pinned release, "ubuntu<digits>" otherwise.
func (p OSPolicy) OSDir(osVersion string) string {
	if osVersion == p.pinned() {
		return defaults.LatestDir
	}
	return OSFamily + Digits(osVersion)
}
