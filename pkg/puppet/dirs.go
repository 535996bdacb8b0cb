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
	"os"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/puppet-provisioner/pkg/defaults"
)

// Dirs are the host directories the orchestrator creates and uses.
type Dirs struct {
	// LocalRepo is the local module repository archives unpack into.
	LocalRepo string `json:"localRepo" yaml:"localRepo"`
	// CustomFacts holds the custom fact provider.
	CustomFacts string `json:"customFacts" yaml:"customFacts"`
	// CloudifyModule is reserved for the workflow-provided module.
	CloudifyModule string `json:"cloudifyModule" yaml:"cloudifyModule"`
	// ConfFile is the agent configuration file.
	ConfFile string `json:"confFile" yaml:"confFile"`
}

// DefaultDirs returns the standard locations, with the local repository
// under the invoking user's home directory.
func DefaultDirs() Dirs {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "/root"
	}
	return Dirs{
		LocalRepo:      filepath.Join(home, defaults.LocalRepoDir),
		CustomFacts:    defaults.CustomFactsDir,
		CloudifyModule: defaults.CloudifyModuleDir,
		ConfFile:       defaults.PuppetConfPath,
	}
}

// all returns the directories created at install time, in fixed order.
func (d Dirs) all() []string {
	return []string{d.LocalRepo, d.CustomFacts, d.CloudifyModule}
}

// ModulePath returns the Puppet module search path: the system module
// directories followed by the local repository's modules directory.
func (d Dirs) ModulePath() string {
	parts := make([]string, 0, len(defaults.SystemModulePath)+1)
	parts = append(parts, defaults.SystemModulePath...)
	parts = append(parts, filepath.Join(d.LocalRepo, "modules"))
	return strings.Join(parts, ":")
}

// CustomFactsPath is where the fact provider script is installed.
func (d Dirs) CustomFactsPath() string {
	return filepath.Join(d.CustomFacts, defaults.CustomFactsFile)
}
