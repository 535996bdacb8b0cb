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

// Package workflow defines the identity and data the orchestrator reads from
// the workflow step that invokes it.
//
// Context is implemented by workflow engines. Static is a file-backed
// implementation for running the CLI by hand:
//
//	wctx, err := workflow.LoadFile("context.yaml")
//
// Missing host addresses and capabilities are expected; use HostIPOrNil and
// CapabilitiesOrEmpty to read them.
package workflow
