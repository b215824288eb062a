// Package logging provides structured logging utilities for dbx-container.
//
// # Overview
//
// This package wraps the standard library slog package with project defaults
// and conventions for consistent logging across all components. It supports
// environment-based log level configuration, module/version context injection,
// and automatic source location tracking for debug logs.
//
// # Features
//
//   - Structured JSON logging to stderr
//   - Environment-based log level configuration (LOG_LEVEL)
//   - Automatic module and version context
//   - Source location tracking for debug logs
//   - Flexible log level parsing
//   - Integration with standard library log package
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("dbxc", "v1.0.0")
//	    defer slog.Info("application started")
//
//	    // Use slog as normal
//	    slog.Info("building runtime", "runtime", "17.3 LTS")
//	    slog.Debug("resolved base", "ref", ref)
//	    slog.Error("operation failed", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("dbxc", "v0.3.0", "debug")
//	logger.Info("engine starting", "data_dir", "data")
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("dbxc", "v1.0.0", "warn")
//
// Converting standard library logger:
//
//	stdLogger := logging.NewLogLogger(slog.LevelInfo, false)
//	stdLogger.Println("message from a library using log")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug dbxc build
//	LOG_LEVEL=error dbxc generate-matrix
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "build complete",
//	    "module": "dbxc",
//	    "version": "v1.0.0",
//	    "runtimes": 2
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "engine.(*Engine).buildRuntime",
//	        "file": "engine.go",
//	        "line": 45
//	    },
//	    "msg": "generating image",
//	    "module": "dbxc",
//	    "version": "v1.0.0"
//	}
//
// # Best Practices
//
// 1. Set default logger early in main():
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("dbxc", version)
//	    defer slog.Info("application started")
//	    // ...
//	}
//
// 2. Include context in log messages:
//
//	slog.Info("artifact written",
//	    "image_type", "python",
//	    "runtime", "17.3 LTS",
//	    "path", path,
//	)
//
// 3. Use appropriate log levels:
//
//	slog.Debug("resolved base", "ref", ref)         // Development/troubleshooting
//	slog.Info("build complete")                     // Normal operations
//	slog.Warn("unparseable OS version")             // Potential issues
//	slog.Error("catalog fetch failed", "error", err) // Errors requiring action
//
// 4. Log errors with context:
//
//	slog.Error("failed to generate image",
//	    "error", err,
//	    "run_id", runID,
//	    "image_type", imageType,
//	)
//
// # Integration
//
// This package is used by:
//   - pkg/cli - command setup and --log-level handling
//   - pkg/engine - orchestration progress and per-artifact failures
//   - pkg/catalog - catalog fetch diagnostics
//
// All components share consistent logging format and configuration.
package logging
