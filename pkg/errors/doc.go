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

// Package errors provides structured errors used across dbx-container.
//
// Every error that crosses a package boundary and can end a run is a
// *StructuredError carrying an ErrorCode. Per-artifact failures are wrapped
// too, but the orchestrator logs and skips them instead of returning them.
//
// Usage:
//
//	if len(runtimes) == 0 {
//	    return errors.New(errors.ErrCodeNotFound, "catalog returned no runtimes")
//	}
//
//	if err := os.WriteFile(path, data, 0o644); err != nil {
//	    return errors.WrapWithContext(errors.ErrCodeInternal, "failed to write artifact", err,
//	        map[string]any{"path": path})
//	}
//
// Callers classify errors with CodeOf and IsCode:
//
//	if errors.IsCode(err, errors.ErrCodeNotFound) {
//	    // unknown runtime or image type
//	}
package errors
