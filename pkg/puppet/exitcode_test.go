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
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyExitCode(t *testing.T) {
	tests := []struct {
		status   int
		wantExit int
		want     Outcome
	}{
		{0, 0, OutcomeSuccess},
		{1, 1, OutcomeFailure},
		{2, 0, OutcomeSuccess},
		{3, 0, OutcomeSuccess},
		{4, 4, OutcomeChangesFailed},
		{5, 4, OutcomeChangesFailed},
		{6, 4, OutcomeChangesFailed},
		{7, 4, OutcomeChangesFailed},
		{8, 0, OutcomeSuccess},
		{10, 0, OutcomeSuccess},
		{12, 4, OutcomeChangesFailed},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.wantExit, ScriptExitCode(tt.status))
			assert.Equal(t, tt.want, ClassifyExitCode(tt.status))
			assert.Equal(t, tt.want != OutcomeSuccess, tt.want.Failed())
		})
	}
}

// TestRunScript_ExitTranslation executes the rendered script with a stub
// command standing in for puppet.
func TestRunScript_ExitTranslation(t *testing.T) {
	bash, err := exec.LookPath("bash")
	if err != nil {
		t.Skip("bash not available")
	}

	for status := 0; status <= 7; status++ {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			script, err := RenderRunScript(RunScript{
				FactsLib:  "/opt/cloudify/puppet/facts",
				FactsFile: "/tmp/facts.json",
				Command:   fmt.Sprintf("(exit %d)", status),
			})
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "run.sh")
			require.NoError(t, os.WriteFile(path, []byte(script), 0o700))

			out, err := exec.Command(bash, path).CombinedOutput()
			code := 0
			if ee, ok := err.(*exec.ExitError); ok {
				code = ee.ExitCode()
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, ScriptExitCode(status), code)
			assert.Contains(t, string(out), fmt.Sprintf("Exit code: %d", status))
		})
	}
}
