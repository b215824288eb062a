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
	"fmt"
	"log/slog"
	"strings"

	"github.com/NVIDIA/dbx-container/pkg/catalog"
	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/version"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// OSFamily is the only operating system family runtimes ship on.
	OSFamily = "ubuntu"

	// LanguagePrefix tags the Python component of a suffix.
	LanguagePrefix = "py"

	// DefaultSeparator joins the sanitized runtime version and the suffix.
	DefaultSeparator = "-"
)

// Variation is one (OS version, Python version) combination a runtime is
// built against.
type Variation struct {
	OSVersion     string `json:"os_version"`
	PythonVersion string `json:"python_version"`
	Suffix        string `json:"suffix"`
	Separator     string `json:"-"`
}

// New composes a Variation from normalized versions.
func New(osVersion, pythonVersion string) Variation {
	return Variation{
		OSVersion:     osVersion,
		PythonVersion: pythonVersion,
		Suffix:        Suffix(osVersion, pythonVersion),
		Separator:     DefaultSeparator,
	}
}

// Suffix returns "ubuntu<os digits>-py<python digits>".
func Suffix(osVersion, pythonVersion string) string {
	return OSFamily + Digits(osVersion) + "-" + LanguagePrefix + Digits(pythonVersion)
}

// Digits drops the dots from a version, "22.04" becomes "2204".
func Digits(v string) string {
	return strings.ReplaceAll(v, ".", "")
}

// PythonTag returns the "py312" style tag for the variation.
func (v Variation) PythonTag() string {
	return LanguagePrefix + Digits(v.PythonVersion)
}

// Resolver derives variations from runtime environments. It is safe for
// concurrent use.
type Resolver struct {
	defaultOS     string
	defaultPython string
}

// NewResolver returns a Resolver using the given fallbacks. Empty values
// use defaults.OSVersion and defaults.PythonVersion.
func NewResolver(defaultOS, defaultPython string) *Resolver {
	if defaultOS == "" {
		defaultOS = defaults.OSVersion
	}
	if defaultPython == "" {
		defaultPython = defaults.PythonVersion
	}
	return &Resolver{
		defaultOS:     defaultOS,
		defaultPython: defaultPython,
	}
}

// Derive returns the canonical variation of rt. Unparseable environment
// strings fall back to the resolver defaults with a warning.
func (r *Resolver) Derive(rt catalog.Runtime) Variation {
	env := rt.SystemEnvironment

	osVersion, ok := ParseOSVersion(env.OperatingSystem)
	if !ok {
		slog.Warn("unable to determine OS version, using default",
			"runtime", rt.Key(),
			"operating_system", env.OperatingSystem,
			"default", r.defaultOS)
		osVersion = r.defaultOS
	}

	pyVersion, ok := ParsePythonVersion(env.PythonVersion)
	if !ok {
		slog.Warn("unable to determine python version, using default",
			"runtime", rt.Key(),
			"python_version", env.PythonVersion,
			"default", r.defaultPython)
		pyVersion = r.defaultPython
	}

	return New(osVersion, pyVersion)
}

// Variations returns every variation rt is built for. A runtime has exactly
// one today.
func (r *Resolver) Variations(rt catalog.Runtime) []Variation {
	return []Variation{r.Derive(rt)}
}

// ParseOSVersion extracts "major.minor" from strings such as
// "Ubuntu 22.04.5 LTS". The minor part is zero padded to two digits.
func ParseOSVersion(s string) (string, bool) {
	// Casers keep state, so each call gets its own.
	folded := cases.Lower(language.Und).String(strings.TrimSpace(s))
	_, rest, found := strings.Cut(folded, OSFamily)
	if !found {
		return "", false
	}
	v, err := version.Find(rest)
	if err != nil || v.Precision < 2 {
		return "", false
	}
	return fmt.Sprintf("%d.%02d", v.Major, v.Minor), true
}

// ParsePythonVersion extracts "major.minor" from strings such as "3.12.3"
// or "Python 3.11".
func ParsePythonVersion(s string) (string, bool) {
	v, err := version.Find(s)
	if err != nil || v.Precision < 2 {
		return "", false
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor), true
}

// Resolve derives the variation of rt with a default Resolver.
func Resolve(rt catalog.Runtime) Variation {
	return NewResolver("", "").Derive(rt)
}
