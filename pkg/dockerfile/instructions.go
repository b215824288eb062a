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

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/NVIDIA/dbx-container/pkg/errors"
)

// Instruction is a single build step that renders to exactly one line.
// The set of implementations is closed; Render is only called after Validate
// succeeds.
type Instruction interface {
	// Keyword returns the instruction keyword, e.g. "RUN".
	Keyword() string
	// Validate reports structurally invalid data.
	Validate() error
	// Render returns the instruction as one line without a trailing newline.
	Render() string

	instruction()
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func invalid(keyword, msg string, kv ...any) error {
	ctx := map[string]any{"instruction": keyword}
	for i := 0; i+1 < len(kv); i += 2 {
		ctx[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
		fmt.Sprintf("invalid %s instruction: %s", keyword, msg), ctx)
}

// singleLine rejects empty values and values that would break the
// one-line-per-instruction layout.
func singleLine(keyword, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(keyword, field+" is required")
	}
	if strings.ContainsAny(value, "\r\n") {
		return invalid(keyword, field+" must not contain line breaks", field, value)
	}
	return nil
}

func execForm(keyword string, args []string) (string, error) {
	if len(args) == 0 {
		return "", invalid(keyword, "exec form requires at least one element")
	}
	for _, a := range args {
		if strings.ContainsAny(a, "\r\n") {
			return "", invalid(keyword, "exec form elements must not contain line breaks")
		}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", invalid(keyword, err.Error())
	}
	return string(b), nil
}

func mustExec(args []string) string {
	s, _ := execForm("", args)
	return s
}

// From declares the base image.
type From struct {
	Image    string
	Platform string
	Alias    string
}

func (From) instruction() {}
func (From) Keyword() string { return "FROM" }

func (i From) Validate() error {
	if err := singleLine("FROM", "image", i.Image); err != nil {
		return err
	}
	if strings.ContainsAny(i.Image, " \t") {
		return invalid("FROM", "image must not contain whitespace", "image", i.Image)
	}
	if i.Alias != "" && !identRe.MatchString(strings.ReplaceAll(i.Alias, "-", "_")) {
		return invalid("FROM", "invalid stage alias", "alias", i.Alias)
	}
	return nil
}

func (i From) Render() string {
	var sb strings.Builder
	sb.WriteString("FROM ")
	if i.Platform != "" {
		sb.WriteString("--platform=" + i.Platform + " ")
	}
	sb.WriteString(i.Image)
	if i.Alias != "" {
		sb.WriteString(" AS " + i.Alias)
	}
	return sb.String()
}

// Arg declares a build argument with an optional default. The default is
// rendered verbatim, so callers quote it when needed.
type Arg struct {
	Name    string
	Default string
}

func (Arg) instruction() {}
func (Arg) Keyword() string { return "ARG" }

func (i Arg) Validate() error {
	if !identRe.MatchString(i.Name) {
		return invalid("ARG", "invalid name", "name", i.Name)
	}
	if strings.ContainsAny(i.Default, "\r\n") {
		return invalid("ARG", "default must not contain line breaks", "name", i.Name)
	}
	return nil
}

func (i Arg) Render() string {
	if i.Default == "" {
		return "ARG " + i.Name
	}
	return "ARG " + i.Name + "=" + i.Default
}

// Env sets an environment variable.
type Env struct {
	Name  string
	Value string
}

func (Env) instruction() {}
func (Env) Keyword() string { return "ENV" }

func (i Env) Validate() error {
	if !identRe.MatchString(i.Name) {
		return invalid("ENV", "invalid name", "name", i.Name)
	}
	if strings.ContainsAny(i.Value, "\r\n") {
		return invalid("ENV", "value must not contain line breaks", "name", i.Name)
	}
	return nil
}

// Render quotes the value when it holds whitespace, quotes or backslashes so
// the key=value form stays a single pair.
func (i Env) Render() string {
	value := i.Value
	if value == "" || strings.ContainsAny(value, " \t\"'\\") {
		value = strconv.Quote(value)
	}
	return "ENV " + i.Name + "=" + value
}

// Run executes a shell command.
type Run struct {
	Command string
}

func (Run) instruction() {}
func (Run) Keyword() string { return "RUN" }

func (i Run) Validate() error { return singleLine("RUN", "command", i.Command) }
func (i Run) Render() string { return "RUN " + i.Command }

// Workdir sets the working directory.
type Workdir struct {
	Path string
}

func (Workdir) instruction() {}
func (Workdir) Keyword() string { return "WORKDIR" }

func (i Workdir) Validate() error { return singleLine("WORKDIR", "path", i.Path) }
func (i Workdir) Render() string { return "WORKDIR " + i.Path }

// Entrypoint sets the container entrypoint in exec form.
type Entrypoint struct {
	Command []string
}

func (Entrypoint) instruction() {}
func (Entrypoint) Keyword() string { return "ENTRYPOINT" }

func (i Entrypoint) Validate() error {
	_, err := execForm("ENTRYPOINT", i.Command)
	return err
}

func (i Entrypoint) Render() string { return "ENTRYPOINT " + mustExec(i.Command) }

// Cmd sets the default command in exec form.
type Cmd struct {
	Command []string
}

func (Cmd) instruction() {}
func (Cmd) Keyword() string { return "CMD" }

func (i Cmd) Validate() error {
	_, err := execForm("CMD", i.Command)
	return err
}

func (i Cmd) Render() string { return "CMD " + mustExec(i.Command) }

// Copy copies files from the build context or another stage.
type Copy struct {
	Sources []string
	Dest    string
	Chown   string
	From    string
}

func (Copy) instruction() {}
func (Copy) Keyword() string { return "COPY" }

func (i Copy) Validate() error { return validateTransfer("COPY", i.Sources, i.Dest) }

func (i Copy) Render() string {
	var flags []string
	if i.From != "" {
		flags = append(flags, "--from="+i.From)
	}
	if i.Chown != "" {
		flags = append(flags, "--chown="+i.Chown)
	}
	return renderTransfer("COPY", flags, i.Sources, i.Dest)
}

// Add adds files, URLs or archives to the image.
type Add struct {
	Sources  []string
	Dest     string
	Chown    string
	Checksum string
}

func (Add) instruction() {}
func (Add) Keyword() string { return "ADD" }

func (i Add) Validate() error { return validateTransfer("ADD", i.Sources, i.Dest) }

func (i Add) Render() string {
	var flags []string
	if i.Checksum != "" {
		flags = append(flags, "--checksum="+i.Checksum)
	}
	if i.Chown != "" {
		flags = append(flags, "--chown="+i.Chown)
	}
	return renderTransfer("ADD", flags, i.Sources, i.Dest)
}

func validateTransfer(keyword string, sources []string, dest string) error {
	if len(sources) == 0 {
		return invalid(keyword, "at least one source is required")
	}
	for _, s := range sources {
		if err := singleLine(keyword, "source", s); err != nil {
			return err
		}
	}
	return singleLine(keyword, "destination", dest)
}

func renderTransfer(keyword string, flags, sources []string, dest string) string {
	parts := make([]string, 0, 2+len(flags)+len(sources))
	parts = append(parts, keyword)
	parts = append(parts, flags...)
	parts = append(parts, sources...)
	parts = append(parts, dest)
	return strings.Join(parts, " ")
}

// Comment is a "#" line.
type Comment struct {
	Text string
}

func (Comment) instruction() {}
func (Comment) Keyword() string { return "#" }

func (i Comment) Validate() error {
	if strings.ContainsAny(i.Text, "\r\n") {
		return invalid("#", "comment must not contain line breaks")
	}
	return nil
}

func (i Comment) Render() string { return "# " + i.Text }

// Label adds image metadata. The value is always quoted.
type Label struct {
	Key   string
	Value string
}

func (Label) instruction() {}
func (Label) Keyword() string { return "LABEL" }

func (i Label) Validate() error {
	if err := singleLine("LABEL", "key", i.Key); err != nil {
		return err
	}
	if strings.ContainsAny(i.Key, " \t=\"") {
		return invalid("LABEL", "key must not contain whitespace, quotes or '='", "key", i.Key)
	}
	if strings.ContainsAny(i.Value, "\r\n") {
		return invalid("LABEL", "value must not contain line breaks", "key", i.Key)
	}
	return nil
}

func (i Label) Render() string { return "LABEL " + i.Key + "=" + strconv.Quote(i.Value) }

// Expose declares a listening port.
type Expose struct {
	Port     int
	Protocol string
}

func (Expose) instruction() {}
func (Expose) Keyword() string { return "EXPOSE" }

func (i Expose) Validate() error {
	if i.Port < 1 || i.Port > 65535 {
		return invalid("EXPOSE", "port out of range", "port", i.Port)
	}
	switch i.Protocol {
	case "", "tcp", "udp":
		return nil
	default:
		return invalid("EXPOSE", "protocol must be tcp or udp", "protocol", i.Protocol)
	}
}

func (i Expose) Render() string {
	if i.Protocol == "" {
		return "EXPOSE " + strconv.Itoa(i.Port)
	}
	return "EXPOSE " + strconv.Itoa(i.Port) + "/" + i.Protocol
}

// User sets the user and optional group for subsequent steps.
type User struct {
	Name  string
	Group string
}

func (User) instruction() {}
func (User) Keyword() string { return "USER" }

func (i User) Validate() error {
	if err := singleLine("USER", "name", i.Name); err != nil {
		return err
	}
	if strings.ContainsAny(i.Name+i.Group, " \t:") {
		return invalid("USER", "user and group must not contain whitespace or ':'")
	}
	return nil
}

func (i User) Render() string {
	if i.Group == "" {
		return "USER " + i.Name
	}
	return "USER " + i.Name + ":" + i.Group
}

// Volume declares mount points in exec form.
type Volume struct {
	Paths []string
}

func (Volume) instruction() {}
func (Volume) Keyword() string { return "VOLUME" }

func (i Volume) Validate() error {
	_, err := execForm("VOLUME", i.Paths)
	return err
}

func (i Volume) Render() string { return "VOLUME " + mustExec(i.Paths) }

// Healthcheck configures the container health probe. Disable renders
// "HEALTHCHECK NONE" and ignores every other field.
type Healthcheck struct {
	Command     []string
	Interval    time.Duration
	Timeout     time.Duration
	StartPeriod time.Duration
	Retries     int
	Disable     bool
}

func (Healthcheck) instruction() {}
func (Healthcheck) Keyword() string { return "HEALTHCHECK" }

func (i Healthcheck) Validate() error {
	if i.Disable {
		return nil
	}
	if i.Interval < 0 || i.Timeout < 0 || i.StartPeriod < 0 || i.Retries < 0 {
		return invalid("HEALTHCHECK", "durations and retries must not be negative")
	}
	_, err := execForm("HEALTHCHECK", i.Command)
	return err
}

func (i Healthcheck) Render() string {
	if i.Disable {
		return "HEALTHCHECK NONE"
	}
	parts := []string{"HEALTHCHECK"}
	if i.Interval > 0 {
		parts = append(parts, "--interval="+i.Interval.String())
	}
	if i.Timeout > 0 {
		parts = append(parts, "--timeout="+i.Timeout.String())
	}
	if i.StartPeriod > 0 {
		parts = append(parts, "--start-period="+i.StartPeriod.String())
	}
	if i.Retries > 0 {
		parts = append(parts, "--retries="+strconv.Itoa(i.Retries))
	}
	parts = append(parts, "CMD", mustExec(i.Command))
	return strings.Join(parts, " ")
}

// Shell overrides the default shell in exec form.
type Shell struct {
	Command []string
}

func (Shell) instruction() {}
func (Shell) Keyword() string { return "SHELL" }

func (i Shell) Validate() error {
	_, err := execForm("SHELL", i.Command)
	return err
}

func (i Shell) Render() string { return "SHELL " + mustExec(i.Command) }

// StopSignal sets the signal used to stop the container.
type StopSignal struct {
	Signal string
}

func (StopSignal) instruction() {}
func (StopSignal) Keyword() string { return "STOPSIGNAL" }

func (i StopSignal) Validate() error {
	if err := singleLine("STOPSIGNAL", "signal", i.Signal); err != nil {
		return err
	}
	if strings.ContainsAny(i.Signal, " \t") {
		return invalid("STOPSIGNAL", "signal must be a single token", "signal", i.Signal)
	}
	return nil
}

func (i StopSignal) Render() string { return "STOPSIGNAL " + i.Signal }

// OnBuild registers a trigger executed by downstream builds.
type OnBuild struct {
	Trigger Instruction
}

func (OnBuild) instruction() {}
func (OnBuild) Keyword() string { return "ONBUILD" }

func (i OnBuild) Validate() error {
	switch i.Trigger.(type) {
	case nil:
		return invalid("ONBUILD", "trigger is required")
	case From, *From, OnBuild, *OnBuild, Comment, *Comment:
		return invalid("ONBUILD", "trigger must not be FROM, ONBUILD or a comment")
	}
	return i.Trigger.Validate()
}

func (i OnBuild) Render() string { return "ONBUILD " + i.Trigger.Render() }
