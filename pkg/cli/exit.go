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

package cli

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
	ExitPuppetRun    = 4
)

// ExitCode maps an error to the process exit code. A puppet run failure
// keeps the run script's own code so callers see what puppet reported.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.HasCode(err, errors.ErrCodePuppetRun):
		return ExitPuppetRun
	case errors.HasCode(err, errors.ErrCodeInvalidParams):
		return ExitInvalidInput
	default:
		return ExitFailure
	}
}

// writeMetrics dumps the default registry for the node exporter textfile
// collector. An empty path disables it.
func writeMetrics(path string) error {
	return writeMetricsFrom(path, prometheus.DefaultGatherer)
}

func writeMetricsFrom(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal, "failed to write metrics file", err,
			map[string]any{"path": path})
	}
	return nil
}
