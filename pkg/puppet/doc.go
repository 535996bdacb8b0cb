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

// Package puppet installs, configures and runs the Puppet agent on the
// managed host as one step of a provisioning workflow.
//
// # Composition
//
// A Manager combines two independently selected halves:
//
//   - an Installer, chosen from a table keyed by platform.Family
//     (Debian family through dpkg/apt-get, RHEL family through rpm/yum)
//   - a Runner, chosen by puppet_config: agent mode when a "server" key is
//     present, standalone (`puppet apply`) mode otherwise
//
// Both halves share the privileged executor, fetcher and locker held by the
// Manager.
//
// # Lifecycle
//
// A Manager is used once:
//
//	Created -> Installed -> Configured -> Ran
//
// Install holds the install lock and is a no-op when puppet is present.
// Configure holds the configure lock; agent mode writes puppet.conf and
// standalone mode installs missing modules and unpacks download archives.
// Run performs both, then writes a facts file and a run script and executes
// the script with elevated privileges. Calling any phase after Run is an
// INTERNAL_LOGIC error.
//
//	m, err := puppet.NewManager(wctx, puppet.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := m.Run(ctx, puppet.RunOptions{Tags: []string{"web"}}); err != nil {
//	    return err
//	}
//
// # Exit codes
//
// Puppet runs with --detailed-exitcodes. The run script reduces the status
// e to its own exit code: 1 when e is 1, 4 when e has bit value 4 set, and
// 0 otherwise. Script exits 1 and 4 surface as PUPPET_RUN errors; any other
// script failure is a PRIVILEGED_COMMAND error.
//
// # Metrics
//
// puppetctl_runs_total, puppetctl_run_duration_seconds and
// puppetctl_installs_total are registered with the default Prometheus
// registry.
package puppet
