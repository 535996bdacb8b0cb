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

// Package cli implements the puppetctl command line.
//
// Commands:
//
//	puppetctl install     install the Puppet packages unless already present
//	puppetctl configure   write puppet.conf or fetch modules and downloads
//	puppetctl run         install, configure and run Puppet once
//	puppetctl detect      report the detected distribution
//	puppetctl facts       print the facts bundle a run would expose
//	puppetctl version     print version information
//
// Every command except detect and version reads a workflow context document
// from --context (PUPPETCTL_CONTEXT). Install and configure hold file locks
// under --lock-dir (TMPDIR) so concurrent invocations on one host serialize.
//
// Errors map to exit codes through ExitCode: 2 for invalid configuration,
// 4 when puppet reported a failed run, 1 otherwise.
package cli
