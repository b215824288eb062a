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

package defaults

import (
	"regexp"
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		{"CatalogFetchTimeout", CatalogFetchTimeout, 30 * time.Second, 10 * time.Minute},
		{"HTTPClientTimeout", HTTPClientTimeout, 10 * time.Second, 60 * time.Second},
		{"HTTPConnectTimeout", HTTPConnectTimeout, 1 * time.Second, 15 * time.Second},
		{"CLIPublishTimeout", CLIPublishTimeout, 1 * time.Minute, 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) is above maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestCatalogFetchExceedsRequestTimeout(t *testing.T) {
	if CatalogFetchTimeout <= HTTPClientTimeout {
		t.Errorf("CatalogFetchTimeout (%v) should exceed HTTPClientTimeout (%v)",
			CatalogFetchTimeout, HTTPClientTimeout)
	}
}

func TestBuildDefaults(t *testing.T) {
	majorMinor := regexp.MustCompile(`^\d+\.\d+$`)
	if !majorMinor.MatchString(OSVersion) {
		t.Errorf("OSVersion %q is not major.minor", OSVersion)
	}
	if !majorMinor.MatchString(PythonVersion) {
		t.Errorf("PythonVersion %q is not major.minor", PythonVersion)
	}
	if MaxWorkers < 1 {
		t.Errorf("MaxWorkers must be positive, got %d", MaxWorkers)
	}
	if LatestLTSCount < 1 {
		t.Errorf("LatestLTSCount must be positive, got %d", LatestLTSCount)
	}
}
