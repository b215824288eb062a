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

package imagetype

import (
	"net/url"

	"github.com/NVIDIA/dbx-container/pkg/dockerfile"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
)

// Label keys describing the runtime an image was generated for.
const (
	LabelRuntimeVersion = "com.databricks.runtime.version"
	LabelSparkVersion   = "com.databricks.spark.version"
	LabelRuntimeML      = "com.databricks.runtime.ml"
)

// labels returns the OCI annotations of a runtime-specific image. Creation
// time is left out so regenerated files stay identical.
func labels(p Params) []dockerfile.Instruction {
	rt := p.Runtime
	if rt == nil {
		return nil
	}
	title := p.Name
	if p.Variation != nil {
		title += " " + p.Variation.Suffix
	}

	out := []dockerfile.Instruction{
		dockerfile.Label{Key: ociv1.AnnotationTitle, Value: "dbx-runtime " + title},
		dockerfile.Label{Key: ociv1.AnnotationDescription, Value: "Databricks Runtime " + rt.Version + " " + p.Name + " image"},
		dockerfile.Label{Key: ociv1.AnnotationVersion, Value: rt.Version},
	}
	if isAbsoluteURL(rt.URL) {
		out = append(out, dockerfile.Label{Key: ociv1.AnnotationDocumentation, Value: rt.URL})
	}
	out = append(out,
		dockerfile.Label{Key: LabelRuntimeVersion, Value: rt.Version},
		dockerfile.Label{Key: LabelSparkVersion, Value: rt.SparkVersion},
	)
	if rt.IsML {
		out = append(out, dockerfile.Label{Key: LabelRuntimeML, Value: "true"})
	}
	return out
}

// isAbsoluteURL reports whether raw carries a scheme and host; catalog
// entries loaded from disk hold relative document paths instead.
func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}
