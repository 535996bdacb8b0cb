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

package defaults

import (
	"strings"
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		// Lock timing
		{"LockAttemptTimeout", LockAttemptTimeout, 1 * time.Second, 60 * time.Second},
		{"LockPollInterval", LockPollInterval, 10 * time.Millisecond, 1 * time.Second},

		// HTTP client timeouts
		{"HTTPClientTimeout", HTTPClientTimeout, 30 * time.Second, 30 * time.Minute},
		{"HTTPConnectTimeout", HTTPConnectTimeout, 1 * time.Second, 30 * time.Second},
		{"HTTPTLSHandshakeTimeout", HTTPTLSHandshakeTimeout, 1 * time.Second, 30 * time.Second},
		{"HTTPResponseHeaderTimeout", HTTPResponseHeaderTimeout, 5 * time.Second, 60 * time.Second},
		{"HTTPIdleConnTimeout", HTTPIdleConnTimeout, 30 * time.Second, 5 * time.Minute},
		{"HTTPKeepAlive", HTTPKeepAlive, 10 * time.Second, 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s = %v, should be >= %v", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s = %v, should be <= %v", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestLockBudget(t *testing.T) {
	if LockRetries <= 0 {
		t.Fatalf("LockRetries = %d, must be positive", LockRetries)
	}
	if LockPollInterval >= LockAttemptTimeout {
		t.Errorf("LockPollInterval (%v) must be shorter than LockAttemptTimeout (%v)",
			LockPollInterval, LockAttemptTimeout)
	}
}

func TestModulePath(t *testing.T) {
	want := []string{
		"/etc/puppet/modules",
		"/usr/share/puppet/modules",
		"/opt/cloudify/puppet/modules",
	}
	if len(SystemModulePath) != len(want) {
		t.Fatalf("SystemModulePath has %d entries, want %d", len(SystemModulePath), len(want))
	}
	for i := range want {
		if SystemModulePath[i] != want[i] {
			t.Errorf("SystemModulePath[%d] = %q, want %q", i, SystemModulePath[i], want[i])
		}
	}
}

func TestPaths(t *testing.T) {
	for name, p := range map[string]string{
		"PuppetConfPath":    PuppetConfPath,
		"CustomFactsDir":    CustomFactsDir,
		"CloudifyModuleDir": CloudifyModuleDir,
		"DefaultLockDir":    DefaultLockDir,
		"SudoPath":          SudoPath,
	} {
		if !strings.HasPrefix(p, "/") {
			t.Errorf("%s = %q, must be absolute", name, p)
		}
	}
	if !strings.HasPrefix(CustomFactsDir, "/opt/cloudify/puppet") {
		t.Errorf("CustomFactsDir = %q", CustomFactsDir)
	}
}
