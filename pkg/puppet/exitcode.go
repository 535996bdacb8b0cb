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

// Outcome classifies a puppet --detailed-exitcodes status.
type Outcome string

const (
	// OutcomeSuccess covers no changes, applied changes, and any status
	// without the failure bit other than 1.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure is exit status 1: the run itself failed.
	OutcomeFailure Outcome = "failure"
	// OutcomeChangesFailed is any status with bit value 4 set: some
	// resources failed to apply.
	OutcomeChangesFailed Outcome = "changes_failed"
)

// Failed reports whether the outcome must be surfaced as an error.
func (o Outcome) Failed() bool {
	return o != OutcomeSuccess
}

// ScriptExitCode translates a puppet status exactly as the run script does:
// 1 stays 1, anything with bit value 4 becomes 4, everything else is 0.
func ScriptExitCode(e int) int {
	if e == 1 {
		return 1
	}
	if e&4 == 4 {
		return 4
	}
	return 0
}

// ClassifyExitCode maps a puppet status to its Outcome.
func ClassifyExitCode(e int) Outcome {
	return outcomeOfScriptExit(ScriptExitCode(e))
}

// outcomeOfScriptExit maps the run script's own exit status, which is
// always 0, 1 or 4.
func outcomeOfScriptExit(code int) Outcome {
	switch code {
	case 0:
		return OutcomeSuccess
	case 1:
		return OutcomeFailure
	default:
		return OutcomeChangesFailed
	}
}
