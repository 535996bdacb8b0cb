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

// Package defaults provides centralized configuration constants for the provisioner.
//
// This package defines lock timing, HTTP client timeouts, the pinned Puppet
// package version and the fixed filesystem layout used on managed hosts.
// Centralizing these values ensures consistency between the installer, the
// runners and the tests.
//
// # Categories
//
//   - Lock timing: retries and per-attempt timeout of the install/configure locks
//   - HTTP client timeouts: repository package and archive downloads
//   - Puppet defaults: package version and upstream repository URL template
//   - Filesystem layout: module repository, custom facts, puppet.conf
//
// # Usage
//
//	import "github.com/NVIDIA/puppet-provisioner/pkg/defaults"
//
//	spec := lock.Spec{
//	    Name:       defaults.InstallLockName,
//	    MaxRetries: defaults.LockRetries,
//	    Timeout:    defaults.LockAttemptTimeout,
//	}
package defaults
