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

package workflow

import (
	"context"
	stderrors "errors"
)

var (
	// ErrHostIPUnavailable is returned by HostIP when the node has no host.
	// Callers treat it as a null address rather than a failure.
	ErrHostIPUnavailable = stderrors.New("host ip is not available")

	// ErrCapabilitiesUnsupported is returned by Capabilities when the
	// workflow engine does not expose them. Callers treat it as empty.
	ErrCapabilitiesUnsupported = stderrors.New("capabilities are not supported")
)

// Node is the view of a deployment node shared by the current node and its
// related node.
type Node interface {
	NodeID() string
	Properties() map[string]any
	RuntimeProperties() map[string]any
	HostIP() (string, error)
}

// Context is what the orchestrator reads from the workflow step invoking it.
type Context interface {
	Node
	NodeName() string
	BlueprintID() string
	DeploymentID() string
	// Capabilities returns data exported by connected nodes.
	Capabilities() (map[string]any, error)
	// Related returns the target of the current relationship, or nil.
	Related() Node
	// DownloadResource copies a blueprint resource to dst.
	DownloadResource(ctx context.Context, path, dst string) error
}

// CapabilitiesOrEmpty returns c's capabilities, or an empty map when they
// are unsupported.
func CapabilitiesOrEmpty(c Context) (map[string]any, error) {
	caps, err := c.Capabilities()
	if stderrors.Is(err, ErrCapabilitiesUnsupported) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	if caps == nil {
		caps = map[string]any{}
	}
	return caps, nil
}

// HostIPOrNil returns n's host address, or nil when it is unavailable.
func HostIPOrNil(n Node) (any, error) {
	ip, err := n.HostIP()
	if stderrors.Is(err, ErrHostIPUnavailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ip, nil
}
