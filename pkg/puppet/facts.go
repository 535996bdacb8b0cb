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
	"encoding/json"
	"fmt"
	"os"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
	"github.com/NVIDIA/puppet-provisioner/pkg/workflow"
)

// ReservedFactsKey is the top-level fact holding workflow context.
const ReservedFactsKey = "cloudify"

// BuildFacts merges operator facts with the workflow context under
// ReservedFactsKey. The operator map is not modified.
func BuildFacts(operator map[string]any, wctx workflow.Context) (map[string]any, error) {
	if _, ok := operator[ReservedFactsKey]; ok {
		return nil, errors.New(errors.ErrCodeInvalidParams,
			fmt.Sprintf("puppet facts must not contain %q", ReservedFactsKey))
	}

	facts := make(map[string]any, len(operator)+1)
	for k, v := range operator {
		facts[k] = v
	}

	caps, err := workflow.CapabilitiesOrEmpty(wctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to read capabilities", err)
	}
	ip, err := workflow.HostIPOrNil(wctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to read host ip", err)
	}

	ctxFacts := map[string]any{
		"node_id":            wctx.NodeID(),
		"node_name":          wctx.NodeName(),
		"blueprint_id":       wctx.BlueprintID(),
		"deployment_id":      wctx.DeploymentID(),
		"properties":         wctx.Properties(),
		"runtime_properties": wctx.RuntimeProperties(),
		"capabilities":       caps,
		"host_ip":            ip,
	}

	if rel := wctx.Related(); rel != nil {
		relIP, err := workflow.HostIPOrNil(rel)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to read related host ip", err)
		}
		ctxFacts["related"] = map[string]any{
			"node_id":            rel.NodeID(),
			"properties":         rel.Properties(),
			"runtime_properties": rel.RuntimeProperties(),
			"host_ip":            relIP,
		}
	}

	facts[ReservedFactsKey] = ctxFacts
	return facts, nil
}

// artifactPrefix names per-run temp files so concurrent runs never collide.
func artifactPrefix(wctx workflow.Context) string {
	return fmt.Sprintf("puppet.%s.%s.%d.", wctx.NodeName(), wctx.NodeID(), os.Getpid())
}

// WriteFacts writes facts as indented JSON to a new file in dir and returns
// its path.
func WriteFacts(dir, prefix string, facts map[string]any) (string, error) {
	b, err := json.MarshalIndent(facts, "", "    ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParams, "facts are not JSON serializable", err)
	}
	return writeTemp(dir, prefix+"*.facts_in.json", b, 0o600)
}

func writeTemp(dir, pattern string, b []byte, mode os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to create temp file", err)
	}
	path := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		return "", errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to write %s", path), err)
	}
	if err := f.Chmod(mode); err != nil {
		f.Close()
		return "", errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to chmod %s", path), err)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to close %s", path), err)
	}
	return path, nil
}
