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

// Package errors provides structured error types for better observability
// and programmatic error handling across the provisioner.
//
// Every fatal condition of an install, configure or run carries one of the
// ErrCode* classifications, so callers can tell a bad configuration apart
// from a tooling failure or a failed Puppet run without parsing messages.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodePrivilegedCommand,
//	    "privileged command failed",
//	    cause,
//	    map[string]any{
//	        "command": "/usr/bin/sudo apt-get update",
//	        "stderr":  stderr,
//	    },
//	)
//
//	if errors.HasCode(err, errors.ErrCodeInvalidParams) {
//	    // configuration problem, do not retry
//	}
package errors
