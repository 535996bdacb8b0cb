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

package puppet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puppetctl_runs_total",
			Help: "Total number of puppet runs by mode and outcome",
		},
		[]string{"mode", "outcome"}, // outcome: success, failure, changes_failed, error
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "puppetctl_run_duration_seconds",
			Help:    "Duration of puppet runs, including install and configure",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"mode"},
	)

	installsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puppetctl_installs_total",
			Help: "Total number of install phases by family and result",
		},
		[]string{"family", "result"}, // result: installed, skipped, error
	)
)
