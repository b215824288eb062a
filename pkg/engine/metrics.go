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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NVIDIA/dbx-container/pkg/errors"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var (
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dbxc_build_run_duration_seconds",
			Help:    "Time taken by a complete build run",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	runTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbxc_build_runs_total",
			Help: "Total number of build runs",
		},
		[]string{"status"}, // success or error
	)

	runtimeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dbxc_runtime_build_duration_seconds",
			Help:    "Time taken to generate every image of one runtime",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	imagesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbxc_images_generated_total",
			Help: "Total number of generated Dockerfiles",
		},
		[]string{"image_type", "status"},
	)

	filesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dbxc_files_written_total",
			Help: "Total number of artifact files written",
		},
	)

	catalogRuntimes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dbxc_catalog_runtimes",
			Help: "Number of runtimes in the last fetched catalog",
		},
	)
)

func recordRun(err error, d time.Duration) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}
	runTotal.WithLabelValues(status).Inc()
	runDuration.Observe(d.Seconds())
}

// WriteMetricsFile writes the default registry in the Prometheus text
// format, for the node exporter textfile collector.
func WriteMetricsFile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal,
			"failed to write metrics file", err, map[string]any{"path": path})
	}
	return nil
}
