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

package lock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lockAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puppetctl_lock_attempts_total",
			Help: "Total number of lock acquisition attempts",
		},
		[]string{"lock", "result"}, // acquired or timeout
	)

	lockWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "puppetctl_lock_wait_seconds",
			Help:    "Time spent waiting for a lock, successful or not",
			Buckets: []float64{0.01, 0.1, 1, 10, 60, 300},
		},
		[]string{"lock"},
	)
)
