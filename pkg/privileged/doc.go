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

// Package privileged runs host mutations with elevated privileges.
//
// The Sudo executor supervises each command with go-cmd, buffers its output,
// and logs it after success:
//
//	exec := privileged.NewSudo(privileged.WithLogger(logger))
//	out, err := exec.Run(ctx, "apt-get", "update")
//
// A nonzero exit becomes a PRIVILEGED_COMMAND error whose message and context
// carry the command line, exit code, stdout and stderr. Commands are not
// time-bounded; only cancellation of ctx stops them.
//
// Arguments are passed as argv, never through a shell, except where callers
// build a script themselves. ShellQuote produces single-quoted words for
// those scripts.
//
// Recorder is an in-memory Executor used for dry runs and tests.
package privileged
