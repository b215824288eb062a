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

package catalog

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/NVIDIA/dbx-container/pkg/defaults"
	"github.com/NVIDIA/dbx-container/pkg/errors"
	"github.com/NVIDIA/dbx-container/pkg/serializer"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Client reads a structured catalog: an index document listing releases and
// one document per runtime. Locations may be local paths or http(s) URLs;
// relative references resolve against the index location.
type Client struct {
	index   string
	reader  *serializer.HttpReader
	workers int
	limiter *rate.Limiter
	timeout time.Duration
}

var _ Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPReader sets the reader used for remote documents.
func WithHTTPReader(r *serializer.HttpReader) Option {
	return func(c *Client) {
		if r != nil {
			c.reader = r
		}
	}
}

// WithWorkers bounds the number of runtime documents fetched concurrently.
func WithWorkers(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRateLimit limits remote requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithTimeout bounds a whole SupportedRuntimes call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient returns a Client for the index at location.
func NewClient(location string, opts ...Option) (*Client, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "catalog location is required")
	}

	c := &Client{
		index:   location,
		reader:  serializer.NewHttpReader(),
		workers: defaults.MaxWorkers,
		limiter: rate.NewLimiter(rate.Limit(defaults.CatalogRequestsPerSecond), defaults.CatalogRequestBurst),
		timeout: defaults.CatalogFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SupportedRuntimes loads the index and every runtime document it lists.
// A release whose documents cannot be loaded is logged and skipped; an
// unreadable index fails the call.
func (c *Client) SupportedRuntimes(ctx context.Context) ([]Runtime, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var idx Index
	if err := c.fetch(ctx, c.index, &idx); err != nil {
		return nil, classify(ctx, "failed to load catalog index", err, c.index)
	}
	slog.Debug("loaded catalog index", "location", c.index, "releases", len(idx.Releases))

	// Each goroutine owns one slot; order follows the index.
	perRelease := make([][]Runtime, len(idx.Releases))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, rel := range idx.Releases {
		g.Go(func() error {
			runtimes, err := c.loadRelease(ctx, rel)
			if err != nil {
				slog.Warn("skipping release",
					"version", rel.Version,
					"error", err)
				return nil
			}
			perRelease[i] = runtimes
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, classify(ctx, "catalog fetch interrupted", err, c.index)
	}

	var out []Runtime
	for _, rts := range perRelease {
		out = append(out, rts...)
	}
	SortByReleaseDate(out)

	slog.Info("catalog loaded", "runtimes", len(out), "releases", len(idx.Releases))
	return out, nil
}

// SystemEnvironment loads the runtime document at url and returns its
// environment, or nil when it has none.
func (c *Client) SystemEnvironment(ctx context.Context, url string) (*SystemEnvironment, error) {
	loc, err := serializer.ResolveLocation(c.index, url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid runtime document location", err)
	}
	var doc Document
	if err := c.fetch(ctx, loc, &doc); err != nil {
		return nil, classify(ctx, "failed to load runtime document", err, loc)
	}
	if doc.SystemEnvironment.IsZero() {
		return nil, nil
	}
	env := doc.SystemEnvironment
	return &env, nil
}

func (c *Client) loadRelease(ctx context.Context, rel Release) ([]Runtime, error) {
	if strings.TrimSpace(rel.Version) == "" {
		return nil, fmt.Errorf("release has no version")
	}
	loc, err := serializer.ResolveLocation(c.index, rel.URL)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := c.fetch(ctx, loc, &doc); err != nil {
		return nil, err
	}

	base := Runtime{
		Version:           rel.Version,
		ReleaseDate:       rel.ReleaseDate,
		EndOfSupportDate:  rel.EndOfSupportDate,
		SparkVersion:      rel.SparkVersion,
		URL:               rel.URL,
		IsLTS:             isLTS(rel.Version, rel.URL),
		SystemEnvironment: doc.SystemEnvironment,
		IncludedLibraries: doc.IncludedLibraries.Clone(),
	}
	if base.SystemEnvironment.IsZero() {
		slog.Warn("runtime document has no system environment", "version", rel.Version, "location", loc)
	}
	runtimes := []Runtime{base}

	if rel.MLURL == "" {
		return runtimes, nil
	}

	ml, err := c.loadML(ctx, base, rel)
	if err != nil {
		slog.Warn("skipping ML runtime", "version", rel.Version, "error", err)
		return runtimes, nil
	}
	return append(runtimes, ml), nil
}

// loadML builds the ML sibling of base. The ML document contributes its
// libraries; the system environment is inherited from base unless the
// document sets one.
func (c *Client) loadML(ctx context.Context, base Runtime, rel Release) (Runtime, error) {
	loc, err := serializer.ResolveLocation(c.index, rel.MLURL)
	if err != nil {
		return Runtime{}, err
	}
	var doc Document
	if err := c.fetch(ctx, loc, &doc); err != nil {
		return Runtime{}, err
	}

	ml := base
	ml.URL = rel.MLURL
	ml.IsML = true
	ml.IsLTS = isLTS(rel.Version, rel.MLURL)
	if !doc.SystemEnvironment.IsZero() {
		ml.SystemEnvironment = doc.SystemEnvironment
	}
	ml.IncludedLibraries = doc.IncludedLibraries.Clone()
	if len(doc.GPULibraries) > 0 {
		ml.IncludedLibraries[GPUEcosystem] = maps.Clone(doc.GPULibraries)
	}
	return ml, nil
}

func (c *Client) fetch(ctx context.Context, location string, v any) error {
	var (
		data []byte
		err  error
	)
	if serializer.IsRemote(location) {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		data, err = c.reader.ReadWithContext(ctx, location)
	} else {
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return err
	}

	format := serializer.FormatFromPath(location)
	if format == serializer.FormatTable {
		format = serializer.FormatYAML
	}
	r, err := serializer.NewReader(format, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if err := r.Deserialize(v); err != nil {
		return fmt.Errorf("%s: %w", location, err)
	}
	return nil
}

func isLTS(version, url string) bool {
	return strings.Contains(strings.ToLower(version+" "+url), "lts")
}

func classify(ctx context.Context, msg string, err error, location string) error {
	code := errors.ErrCodeUnavailable
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		code = errors.ErrCodeTimeout
	} else if stderrors.Is(err, os.ErrNotExist) {
		code = errors.ErrCodeNotFound
	}
	return errors.WrapWithContext(code, msg, err, map[string]any{"location": location})
}
