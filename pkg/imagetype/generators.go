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
	"fmt"
	"strconv"

	"github.com/NVIDIA/dbx-container/pkg/dockerfile"
)

const (
	azulKey     = "0xB1998361219BD9C9"
	zuluRepoDeb = "zulu-repo_1.0.0-3_all.deb"
	jdk8        = "8.0.432-1"
	jdk17       = "17.0.13-1"
	rKey        = "E298A3A825C0D65DFD57CBB651716619E084DAB9"
	cranRepo    = `"deb [arch=amd64,i386] https://cran.rstudio.com/bin/linux/ubuntu $(lsb_release -cs)-cran40/"`

	// DefaultLSPRequirementsPath is copied into python images when Params
	// does not name one.
	DefaultLSPRequirementsPath = "python-lsp-requirements.txt"

	// DefaultRequirementsPath is used when Params does not name one.
	DefaultRequirementsPath = "requirements.txt"
)

var (
	zulu8Packages = []string{
		"zulu8", "zulu8-jre", "zulu8-jre-headless", "zulu8-jdk", "zulu8-jdk-headless", "zulu8-doc",
		"zulu8-ca", "zulu8-ca-jre", "zulu8-ca-jre-headless", "zulu8-ca-jdk", "zulu8-ca-jdk-headless", "zulu8-ca-doc",
	}
	zulu17Packages = []string{
		"zulu17", "zulu17-jre", "zulu17-jre-headless", "zulu17-jdk", "zulu17-jdk-headless", "zulu17-doc",
		"zulu17-ca", "zulu17-ca-jre", "zulu17-ca-jre-headless", "zulu17-ca-jdk", "zulu17-ca-jdk-headless", "zulu17-ca-doc",
	}
)

func newBuilder(p Params) *dockerfile.Builder {
	return dockerfile.New(p.Name, dockerfile.From{Image: p.BaseImage}).WithNamespace(p.Namespace)
}

func pinned(packages []string, arg string) []string {
	out := make([]string, len(packages))
	for i, pkg := range packages {
		out[i] = pkg + "=$" + arg
	}
	return out
}

func quoted(s string) string {
	return strconv.Quote(s)
}

// generateGPU emits the CUDA layer: the NVIDIA apt sources are disabled and
// R is installed for the cluster driver.
func generateGPU(p Params) (*dockerfile.Builder, error) {
	b := newBuilder(p).Apply(
		dockerfile.Env{Name: "LANG", Value: "C.UTF-8"},
		dockerfile.Env{Name: "LC_ALL", Value: "C.UTF-8"},
		dockerfile.Comment{Text: "Disable NVIDIA repos to prevent accidental upgrades"},
		dockerfile.Chain(
			"cd /etc/apt/sources.list.d",
			"mv cuda-ubuntu2204-x86_64.list cuda-ubuntu2204-x86_64.list.disabled",
		),
		dockerfile.Comment{Text: "Install R since command `R` is required for setting up driver on cluster creation"},
		dockerfile.Env{Name: "DEBIAN_FRONTEND", Value: "noninteractive"},
		dockerfile.Chain(
			"apt-get update",
			"apt-get install --yes software-properties-common apt-transport-https",
			"gpg --keyserver hkp://keyserver.ubuntu.com:80 --recv-keys "+rKey,
			"gpg -a --export "+rKey+" | sudo apt-key add -",
			"add-apt-repository -y "+cranRepo,
			"apt-get update",
			"apt-get install --yes libssl-dev r-base r-base-dev",
			"add-apt-repository -r "+cranRepo,
			"apt-key del "+rKey,
			"apt-get clean",
			"rm -rf /var/lib/apt/lists/* /tmp/* /var/tmp/*",
		),
	)
	return b, b.Err()
}

// generateMinimal emits the base OS layer with both Zulu JDKs.
func generateMinimal(p Params) (*dockerfile.Builder, error) {
	b := newBuilder(p).Apply(
		dockerfile.Env{Name: "LANG", Value: "C.UTF-8"},
		dockerfile.Env{Name: "LC_ALL", Value: "C.UTF-8"},
		dockerfile.Comment{Text: "Workaround for https://bugs.launchpad.net/ubuntu/+source/ca-certificates/+bug/2066990"},
		dockerfile.Env{Name: "OPENSSL_FORCE_FIPS_MODE", Value: "0"},
		dockerfile.Chain(
			"apt-get update",
			"apt-get -y upgrade",
			"apt-get install --yes iproute2 bash sudo coreutils procps acl gnupg curl",
			"apt-get clean",
			"rm -rf /var/lib/apt/lists/* /tmp/* /var/tmp/*",
		),
		dockerfile.Comment{Text: "Import Azul's public key"},
		dockerfile.Run{Command: "apt-key adv --keyserver hkp://keyserver.ubuntu.com:80 --recv-keys " + azulKey},
		dockerfile.Comment{Text: "Add the Azul package to the APT repository"},
		dockerfile.Chain(
			"curl -O https://cdn.azul.com/zulu/bin/"+zuluRepoDeb,
			"apt-get install ./"+zuluRepoDeb,
			"rm "+zuluRepoDeb,
		),
		dockerfile.Arg{Name: "JDK8_VERSION", Default: quoted(jdk8)},
		dockerfile.Arg{Name: "JDK17_VERSION", Default: quoted(jdk17)},
		dockerfile.Run{Command: "apt-get update"},
		dockerfile.AptInstall(pinned(zulu8Packages, "JDK8_VERSION"), false, false),
		dockerfile.AptInstall(pinned(zulu17Packages, "JDK17_VERSION"), false, false),
		dockerfile.Run{Command: "update-java-alternatives -s zulu17-ca-amd64"},
		dockerfile.Comment{Text: "Install the Ubuntu Java cert store under /etc/ssl/certs/java/cacerts."},
		dockerfile.Comment{Text: "Zulu ships its own cert store, so this one is unused by default."},
		dockerfile.Run{Command: "apt-get install --yes ca-certificates-java"},
		dockerfile.Comment{Text: "Add new user for cluster library installation"},
		dockerfile.Chain("useradd libraries", "usermod -L libraries"),
	)
	return b, b.Err()
}

// generateStandard adds FUSE for DBFS and an SSH server.
func generateStandard(p Params) (*dockerfile.Builder, error) {
	b := newBuilder(p).Apply(
		dockerfile.AptInstall([]string{"fuse"}, true, true),
		dockerfile.Env{Name: "USER", Value: "root"},
		dockerfile.Comment{Text: "Install openssh-server for remote access capabilities"},
		dockerfile.AptInstall([]string{"openssh-server"}, true, true),
		dockerfile.Comment{Text: "Warning: you still need to start the ssh process with `sudo service ssh start`"},
	)
	return b, b.Err()
}

// generatePython installs the runtime's Python, the notebook virtualenv with
// the runtime's libraries, and the python-lsp virtualenv.
func generatePython(p Params) (*dockerfile.Builder, error) {
	if p.Runtime == nil {
		return nil, fmt.Errorf("python image requires a runtime")
	}
	v := p.Python.withDefaults()

	requirements := p.RequirementsPath
	if requirements == "" {
		requirements = DefaultRequirementsPath
	}
	lsp := p.LSPRequirementsPath
	if lsp == "" {
		lsp = DefaultLSPRequirementsPath
	}

	b := newBuilder(p).Apply(
		dockerfile.Arg{Name: "PYTHON_VERSION", Default: quoted(v.Python)},
		dockerfile.Arg{Name: "PIP_VERSION", Default: quoted(v.Pip)},
		dockerfile.Arg{Name: "SETUPTOOLS_VERSION", Default: quoted(v.Setuptools)},
		dockerfile.Arg{Name: "WHEEL_VERSION", Default: quoted(v.Wheel)},
		dockerfile.Arg{Name: "VIRTUALENV_VERSION", Default: quoted(v.Virtualenv)},
	)
	b.Apply(labels(p)...)
	b.Apply(
		dockerfile.Comment{Text: "Installs python and virtualenv for Spark and Notebooks"},
		dockerfile.Chain(
			"apt-get update",
			"apt-get install -y curl software-properties-common python${PYTHON_VERSION} python${PYTHON_VERSION}-dev",
			"curl https://bootstrap.pypa.io/get-pip.py -o get-pip.py",
			"/usr/bin/python${PYTHON_VERSION} get-pip.py --break-system-packages pip==${PIP_VERSION} setuptools==${SETUPTOOLS_VERSION} wheel==${WHEEL_VERSION}",
			"rm get-pip.py",
		),
		dockerfile.Chain(
			"/usr/local/bin/pip${PYTHON_VERSION} install --break-system-packages --no-cache-dir virtualenv==${VIRTUALENV_VERSION}",
			`sed -i -r 's/^(PERIODIC_UPDATE_ON_BY_DEFAULT) = True$/\1 = False/' /usr/local/lib/python${PYTHON_VERSION}/dist-packages/virtualenv/seed/embed/base_embed.py`,
			"/usr/local/bin/pip${PYTHON_VERSION} download pip==${PIP_VERSION} --dest /usr/local/lib/python${PYTHON_VERSION}/dist-packages/virtualenv_support/",
		),
		dockerfile.Comment{Text: "Initialize the default environment that Spark and notebooks will use"},
		dockerfile.Run{Command: "virtualenv --python=python${PYTHON_VERSION} --system-site-packages /databricks/python3 --no-download --no-setuptools"},
		dockerfile.Comment{Text: "Libraries used by notebooks and the Python REPL, pinned to runtime " + p.Runtime.Version + "."},
		dockerfile.Comment{Text: "pyspark is not installed here; it is injected when the cluster is launched."},
		dockerfile.AptInstall([]string{"libpq-dev", "build-essential"}, false, false),
		dockerfile.Copy{Sources: []string{requirements}, Dest: "/databricks/."},
		dockerfile.PipInstall("/databricks/python3/bin/pip", "/databricks/requirements.txt", "--no-deps"),
		dockerfile.Comment{Text: "Specifies where Spark will look for the python process"},
		dockerfile.Env{Name: "PYSPARK_PYTHON", Value: "/databricks/python3/bin/python3"},
		dockerfile.Run{Command: "virtualenv --python=python${PYTHON_VERSION} --system-site-packages /databricks/python-lsp --no-download --no-setuptools"},
		dockerfile.Copy{Sources: []string{lsp}, Dest: "/databricks/."},
		dockerfile.PipInstall("/databricks/python-lsp/bin/pip", "/databricks/python-lsp-requirements.txt"),
	)
	return b, b.Err()
}
