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

// Puppet package defaults.
const (
	// PuppetVersion is the pinned package version used when puppet_config.version is unset.
	PuppetVersion = "3.5.1-1puppetlabs1"

	// DebRepoPackageURLTemplate is the upstream repository package for Debian-family hosts.
	// The single verb is the distribution version (e.g. 12.04) or "sid".
	DebRepoPackageURLTemplate = "http://apt.puppetlabs.com/puppetlabs-release-%s.deb"
)

// Fixed filesystem locations on the managed host.
const (
	// LocalRepoDir is the local module repository, relative to the user's home.
	LocalRepoDir = "cloudify/puppet"

	// CustomFactsDir holds the custom fact provider installed with the agent.
	CustomFactsDir = "/opt/cloudify/puppet/facts"

	// CustomFactsFile is the file name of the custom fact provider.
	CustomFactsFile = "cloudify_facts.rb"

	// CloudifyModuleDir is reserved for the workflow-provided Puppet module.
	CloudifyModuleDir = "/opt/cloudify/puppet/modules/cloudify"

	// PuppetConfPath is where agent mode writes its configuration.
	PuppetConfPath = "/etc/puppet/puppet.conf"

	// DefaultLockDir is used for lock files when TMPDIR is unset.
	DefaultLockDir = "/tmp"

	// SudoPath is the privilege elevation helper.
	SudoPath = "/usr/bin/sudo"
)

// Lock file names.
const (
	InstallLockName = "puppet-install.lock"
	ConfigLockName  = "puppet-config.lock"
)

// SystemModulePath lists the module directories that precede the local
// repository's modules directory in every Puppet module search path.
var SystemModulePath = []string{
	"/etc/puppet/modules",
	"/usr/share/puppet/modules",
	"/opt/cloudify/puppet/modules",
}
