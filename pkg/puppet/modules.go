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
	"context"
	"strings"

	"github.com/NVIDIA/puppet-provisioner/pkg/privileged"
)

// ModuleLister reports which Puppet modules are installed on a module path.
type ModuleLister interface {
	InstalledModules(ctx context.Context, modulePath string) (map[string]bool, error)
}

// cliModuleLister asks `puppet module list`, which has no machine readable
// output in the supported Puppet versions.
type cliModuleLister struct {
	exec privileged.Executor
}

func (l cliModuleLister) InstalledModules(ctx context.Context, modulePath string) (map[string]bool, error) {
	out, err := l.exec.Run(ctx, "puppet", "module", "list", "--modulepath", modulePath)
	if err != nil {
		return nil, err
	}
	return ParseInstalledModules(out.Stdout), nil
}

// ParseInstalledModules extracts module names from `puppet module list`
// output. A token immediately followed by a token starting with '(' is an
// installed module:
//
//	/etc/puppet/modules
//	├── puppetlabs-stdlib (v4.1.0)
func ParseInstalledModules(out string) map[string]bool {
	mods := make(map[string]bool)
	prev := ""
	for _, cur := range strings.Fields(out) {
		if strings.HasPrefix(cur, "(") && prev != "" {
			mods[prev] = true
		}
		prev = cur
	}
	return mods
}
