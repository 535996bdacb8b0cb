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
	"bytes"
	_ "embed"
	"sort"
	"strings"
	"text/template"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
	"github.com/NVIDIA/puppet-provisioner/pkg/privileged"
)

var (
	//go:embed templates/puppet.conf.tmpl
	puppetConfTemplate string

	//go:embed templates/run.sh.tmpl
	runScriptTemplate string

	//go:embed facts/cloudify_facts.rb
	customFactsScript []byte

	templateFuncs = template.FuncMap{"quote": privileged.ShellQuote}

	puppetConfTmpl = template.Must(template.New("puppet.conf").Parse(puppetConfTemplate))
	runScriptTmpl  = template.Must(template.New("run.sh").Funcs(templateFuncs).Parse(runScriptTemplate))
)

// AgentConf holds the values rendered into puppet.conf.
type AgentConf struct {
	Environment string
	FactsDir    string
	ModulePath  string
	Server      string
	Certname    string
	NodeName    string
}

// RenderAgentConf renders the agent configuration file.
func RenderAgentConf(c AgentConf) (string, error) {
	var buf bytes.Buffer
	if err := puppetConfTmpl.Execute(&buf, c); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to render puppet.conf", err)
	}
	return buf.String(), nil
}

// EnvVar is one exported variable in the run script.
type EnvVar struct {
	Name  string
	Value string
}

// RunScript holds the values rendered into the per-run shell script.
type RunScript struct {
	// FactsLib is exported as FACTERLIB.
	FactsLib string
	// FactsFile is exported as CLOUDIFY_FACTS_FILE.
	FactsFile string
	// Env holds runner-specific variables, exported in name order.
	Env []EnvVar
	// Command is the complete, already quoted, puppet command line.
	Command string
}

// RenderRunScript renders the run script. The script captures puppet's
// status without aborting, echoes it, and exits with ScriptExitCode of it.
func RenderRunScript(s RunScript) (string, error) {
	var buf bytes.Buffer
	if err := runScriptTmpl.Execute(&buf, s); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to render run script", err)
	}
	return buf.String(), nil
}

// envVars returns env sorted by name.
func envVars(env map[string]string) []EnvVar {
	vars := make([]EnvVar, 0, len(env))
	for k, v := range env {
		vars = append(vars, EnvVar{Name: k, Value: v})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

// BuildCommand appends the common reporting flags, and tags when given, to
// the runner's puppet subcommand and returns the shell command line.
func BuildCommand(runnerArgs []string, tags []string) string {
	cmd := make([]string, 0, len(runnerArgs)+8)
	cmd = append(cmd, "puppet")
	cmd = append(cmd, runnerArgs...)
	cmd = append(cmd,
		"--detailed-exitcodes",
		"--logdest", "console",
		"--logdest", "syslog",
	)
	if len(tags) > 0 {
		cmd = append(cmd, "--tags", strings.Join(tags, ","))
	}
	return strings.Join(cmd, " ")
}
