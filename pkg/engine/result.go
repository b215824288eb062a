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

package engine

import (
	"fmt"
)

// Failure records one image that could not be generated.
type Failure struct {
	RuntimeKey string `json:"runtime"`
	ImageType  string `json:"image_type"`
	Variation  string `json:"variation,omitempty"`
	Err        error  `json:"-"`
}

func (f Failure) Error() string {
	if f.Variation == "" {
		return fmt.Sprintf("%s/%s: %v", f.RuntimeKey, f.ImageType, f.Err)
	}
	return fmt.Sprintf("%s/%s (%s): %v", f.RuntimeKey, f.ImageType, f.Variation, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result is the outcome of a run. A runtime is completed when every one of
// its images was generated.
type Result struct {
	RunID     string
	Summary   *Summary
	Total     int
	Completed int
	Failures  []Failure
}

// OK reports whether every runtime completed and no shared image failed.
func (r *Result) OK() bool {
	return r.Completed == r.Total && len(r.Failures) == 0
}

// String returns "X/Y runtimes completed".
func (r *Result) String() string {
	return fmt.Sprintf("%d/%d runtimes completed", r.Completed, r.Total)
}
