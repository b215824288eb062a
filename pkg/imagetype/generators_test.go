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
	"strings"
	"testing"

	"github.com/NVIDIA/dbx-container/pkg/variation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerators_BaseLineFirst(t *testing.T) {
	t.Parallel()

	r := Default()
	rt := testRuntime("17.3 LTS", "Ubuntu 24.04.2 LTS", "3.12.3", false)
	v := variation.Resolve(rt)

	for _, name := range r.Names() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ref, err := r.ResolveBaseReference(name, &rt, &v, "", variation.DefaultOSPolicy())
			require.NoError(t, err)

			b, err := r.Generate(name, Params{BaseImage: ref, Runtime: &rt, Variation: &v})
			require.NoError(t, err)
			assert.Equal(t, name, b.Name())

			out := b.Render()
			assert.True(t, strings.HasPrefix(out, "FROM "+ref+"\n"), "first line must be FROM %s, got %q", ref, strings.SplitN(out, "\n", 2)[0])
			assert.True(t, strings.HasSuffix(out, "\n"))
			assert.Equal(t, out, b.Render(), "rendering is deterministic")
		})
	}
}

func TestGenerateMinimal(t *testing.T) {
	t.Parallel()

	b, err := Default().Generate(Minimal, Params{BaseImage: "ubuntu:24.04"})
	require.NoError(t, err)
	out := b.Render()

	for _, want := range []string{
		"ENV LANG=C.UTF-8\n",
		"ENV OPENSSL_FORCE_FIPS_MODE=0\n",
		"--recv-keys 0xB1998361219BD9C9\n",
		`ARG JDK8_VERSION="8.0.432-1"`,
		`ARG JDK17_VERSION="17.0.13-1"`,
		"zulu17-ca-doc=$JDK17_VERSION\n",
		"RUN update-java-alternatives -s zulu17-ca-amd64\n",
		"RUN apt-get install --yes ca-certificates-java\n",
		"RUN useradd libraries && usermod -L libraries\n",
	} {
		assert.Contains(t, out, want)
	}
}

func TestGenerateGPU(t *testing.T) {
	t.Parallel()

	b, err := Default().Generate(GPU, Params{BaseImage: CUDAImage})
	require.NoError(t, err)
	out := b.Render()

	assert.Contains(t, out, "mv cuda-ubuntu2204-x86_64.list cuda-ubuntu2204-x86_64.list.disabled")
	assert.Contains(t, out, "ENV DEBIAN_FRONTEND=noninteractive\n")
	assert.Contains(t, out, "r-base r-base-dev")
	assert.NotContains(t, out, "useradd", "the user is added by minimal-gpu")
}

func TestGenerateStandard(t *testing.T) {
	t.Parallel()

	b, err := Default().Generate(StandardGPU, Params{BaseImage: "dbx-runtime:minimal-gpu"})
	require.NoError(t, err)
	lines := b.Lines()

	require.Len(t, lines, 6)
	assert.Equal(t, "FROM dbx-runtime:minimal-gpu", lines[0])
	assert.Equal(t, "RUN apt-get update && apt-get install -y fuse && apt-get clean && rm -rf /var/lib/apt/lists/* /tmp/* /var/tmp/*", lines[1])
	assert.Equal(t, "ENV USER=root", lines[2])
	assert.Contains(t, lines[4], "openssh-server")
}

func TestGeneratePython(t *testing.T) {
	t.Parallel()

	rt := testRuntime("16.4 LTS", "Ubuntu 22.04.4 LTS", "3.11.0", true)
	rt.URL = "https://docs.databricks.com/en/release-notes/runtime/16.4lts-ml.html"
	v := variation.Resolve(rt)

	b, err := Default().Generate(PythonGPU, Params{
		BaseImage:        "dbx-runtime:standard-gpu",
		Namespace:        "ghcr.io/acme",
		Runtime:          &rt,
		Variation:        &v,
		Python:           PythonVersions{Python: v.PythonVersion},
		RequirementsPath: "data/python-gpu/16.4-LTS-ubuntu2204-py311-ml/requirements.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io/acme/python-gpu", b.FullName())

	out := b.Render()
	for _, want := range []string{
		`ARG PYTHON_VERSION="3.11"`,
		`ARG PIP_VERSION="24.0"`,
		`ARG SETUPTOOLS_VERSION="74.0.0"`,
		`ARG WHEEL_VERSION="0.38.4"`,
		`ARG VIRTUALENV_VERSION="20.26.2"`,
		`LABEL org.opencontainers.image.version="16.4 LTS"`,
		`LABEL com.databricks.spark.version="4.0.0"`,
		`LABEL com.databricks.runtime.ml="true"`,
		`LABEL org.opencontainers.image.documentation="https://docs.databricks.com/en/release-notes/runtime/16.4lts-ml.html"`,
		`LABEL org.opencontainers.image.title="dbx-runtime python-gpu ubuntu2204-py311"`,
		"COPY data/python-gpu/16.4-LTS-ubuntu2204-py311-ml/requirements.txt /databricks/.\n",
		"RUN /databricks/python3/bin/pip install --no-deps -r /databricks/requirements.txt\n",
		"ENV PYSPARK_PYTHON=/databricks/python3/bin/python3\n",
		"COPY python-lsp-requirements.txt /databricks/.\n",
		"RUN /databricks/python-lsp/bin/pip install -r /databricks/python-lsp-requirements.txt\n",
		`s/^(PERIODIC_UPDATE_ON_BY_DEFAULT) = True$/\1 = False/`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestGeneratePython_RelativeURLHasNoDocumentationLabel(t *testing.T) {
	t.Parallel()

	rt := testRuntime("17.3 LTS", "Ubuntu 24.04.2 LTS", "3.12.3", false)
	rt.URL = "runtimes/17.3lts.yaml"
	v := variation.Resolve(rt)

	b, err := Default().Generate(Python, Params{
		BaseImage: "dbx-runtime:standard",
		Runtime:   &rt,
		Variation: &v,
		Python:    PythonVersions{Python: v.PythonVersion},
	})
	require.NoError(t, err)

	out := b.Render()
	assert.NotContains(t, out, "org.opencontainers.image.documentation")
	assert.Contains(t, out, `LABEL org.opencontainers.image.version="17.3 LTS"`)
}

func TestGeneratePython_NoRuntime(t *testing.T) {
	t.Parallel()

	_, err := generatePython(Params{Name: Python, BaseImage: "dbx-runtime:standard"})
	assert.Error(t, err)
}
