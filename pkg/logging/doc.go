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

// Package logging provides structured logging utilities for puppetctl.
//
// # Overview
//
// This package wraps the standard library slog package with provisioner defaults
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
//   - Optional mirroring into the systemd journal
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
//	    logging.SetDefaultStructuredLogger("puppetctl", "v1.0.0")
//	    defer slog.Info("application started")
//
//	    // Use slog as normal
//	    slog.Info("processing request", "id", "req-123")
//	    slog.Debug("detailed state", "data", complexObject)
//	    slog.Error("operation failed", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("puppetctl", "v2.0.0", "debug")
//	logger.Info("lock acquired", "path", "/tmp/puppet-install.lock")
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("puppetctl", "v1.0.0", "warn")
//
// Converting standard library logger:
//
//	stdLogger := logging.NewLogLogger(slog.LevelInfo)
//	stdLogger.Println("legacy log message")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug puppetctl run --context node.yaml
//	LOG_LEVEL=error puppetctl install
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
//	    "msg": "lock acquired",
//	    "module": "puppetctl",
//	    "version": "v1.0.0",
//	    "path": "/tmp/puppet-install.lock"
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "puppet.(*Manager).Run",
//	        "file": "manager.go",
//	        "line": 45
//	    },
//	    "msg": "facts written",
//	    "module": "puppetctl",
//	    "version": "v1.0.0"
//	}
//
// # Journal
//
// When --log-journal is set, NewStructuredLoggerWithJournal mirrors records
// at or above the configured level into journald. Attribute keys become
// upper-case journal fields (lock_path becomes LOCK_PATH). On hosts without
// a journal socket the mirror is silently disabled.
//
// # Integration
//
// This package is used by:
//   - pkg/cli - command setup
//   - pkg/lock - lock acquisition progress
//   - pkg/privileged - command lines and captured output
//   - pkg/puppet - install, configure and run progress
//
// All components share consistent logging format and configuration.
package logging
