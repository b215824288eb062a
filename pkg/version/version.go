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

package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Error types for version parsing failures
var (
	ErrEmptyVersion      = errors.New("version string is empty")
	ErrTooManyComponents = errors.New("version has more than 3 components")
	ErrNonNumeric        = errors.New("version component is not numeric")
	ErrNegativeComponent = errors.New("version component cannot be negative")
	ErrNoVersion         = errors.New("no version found in text")
)

// Version is a dotted numeric version with one to three components, such as
// an Ubuntu release ("22.04"), a Python version ("3.12.3") or a runtime
// version ("17.3"). Precision records how many components were present.
type Version struct {
	Major int `json:"major,omitempty" yaml:"major,omitempty"`
	Minor int `json:"minor,omitempty" yaml:"minor,omitempty"`
	Patch int `json:"patch,omitempty" yaml:"patch,omitempty"`

	// Precision indicates how many components are significant (1, 2, or 3)
	Precision int `json:"precision,omitempty" yaml:"precision,omitempty"`

	// Extras stores trailing metadata such as "-LTS" or "+build.1"
	Extras string `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// NewVersion creates a Version with precision 3.
func NewVersion(major, minor, patch int) Version {
	return Version{
		Major:     major,
		Minor:     minor,
		Patch:     patch,
		Precision: 3,
	}
}

// String returns the version respecting its precision. Extras are not included.
func (v Version) String() string {
	switch v.Precision {
	case 1:
		return strconv.Itoa(v.Major)
	case 2:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	default:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
}

// ParseVersion parses "1", "1.2", "1.2.3", with an optional "v" prefix and
// optional extras after '-' or '+' that follow a digit.
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, ErrEmptyVersion
	}

	s = strings.TrimPrefix(s, "v")
	var v Version

	// extras start at the first '-' or '+' that follows a digit, so "-1"
	// still fails as a negative component
	mainPart := s
	for i := 1; i < len(s); i++ {
		if (s[i] == '-' || s[i] == '+') && s[i-1] >= '0' && s[i-1] <= '9' {
			mainPart = s[:i]
			v.Extras = s[i:]
			break
		}
	}

	parts := strings.Split(mainPart, ".")
	if len(parts) > 3 {
		return Version{}, ErrTooManyComponents
	}

	for i, part := range parts {
		if part == "" {
			return Version{}, fmt.Errorf("%w: empty component", ErrNonNumeric)
		}
		num, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, part)
		}
		if num < 0 {
			return Version{}, fmt.Errorf("%w: %d", ErrNegativeComponent, num)
		}

		switch i {
		case 0:
			v.Major = num
		case 1:
			v.Minor = num
		case 2:
			v.Patch = num
		}
	}

	v.Precision = len(parts)
	return v, nil
}

// MustParseVersion parses a version string and panics if parsing fails.
// Only use it for hardcoded strings or in tests.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(fmt.Sprintf("MustParseVersion: %v", err))
	}
	return v
}

// Find returns the first dotted version embedded in free text, e.g. 22.04.5
// from "Ubuntu 22.04.5 LTS". Only whitespace separated tokens that contain a
// dot and a digit are considered. Components beyond the third are dropped.
func Find(text string) (Version, error) {
	for _, tok := range strings.Fields(text) {
		if !strings.Contains(tok, ".") || !strings.ContainsFunc(tok, unicode.IsDigit) {
			continue
		}
		num := leadingNumeric(tok)
		if !strings.Contains(num, ".") {
			continue
		}
		parts := strings.Split(num, ".")
		if len(parts) > 3 {
			parts = parts[:3]
		}
		v, err := ParseVersion(strings.Join(parts, "."))
		if err != nil {
			continue
		}
		return v, nil
	}
	return Version{}, fmt.Errorf("%w: %q", ErrNoVersion, text)
}

// leadingNumeric returns the longest prefix of digits and dots, without a
// trailing dot.
func leadingNumeric(tok string) string {
	tok = strings.TrimPrefix(tok, "v")
	end := 0
	for end < len(tok) && (tok[end] == '.' || (tok[end] >= '0' && tok[end] <= '9')) {
		end++
	}
	return strings.TrimRight(tok[:end], ".")
}

// Compare returns -1, 0 or 1 comparing v to other up to the lower of the
// two precisions.
func (v Version) Compare(other Version) int {
	precision := min(v.Precision, other.Precision)

	if c := cmpInt(v.Major, other.Major); c != 0 || precision == 1 {
		return c
	}
	if c := cmpInt(v.Minor, other.Minor); c != 0 || precision == 2 {
		return c
	}
	return cmpInt(v.Patch, other.Patch)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsValid returns true if all components are non-negative and precision is
// 1, 2, or 3.
func (v Version) IsValid() bool {
	if v.Major < 0 || v.Minor < 0 || v.Patch < 0 {
		return false
	}
	return v.Precision >= 1 && v.Precision <= 3
}
