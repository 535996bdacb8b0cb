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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
)

const contextMaxSize = 4 << 20

// NodeData is a node as recorded in a context document.
type NodeData struct {
	ID           string         `yaml:"node_id" json:"node_id"`
	Props        map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
	RuntimeProps map[string]any `yaml:"runtime_properties,omitempty" json:"runtime_properties,omitempty"`
	IP           string         `yaml:"host_ip,omitempty" json:"host_ip,omitempty"`
}

func (n *NodeData) NodeID() string { return n.ID }

func (n *NodeData) Properties() map[string]any { return orEmpty(n.Props) }

func (n *NodeData) RuntimeProperties() map[string]any { return orEmpty(n.RuntimeProps) }

// HostIP returns ErrHostIPUnavailable when no address was recorded.
func (n *NodeData) HostIP() (string, error) {
	if n.IP == "" {
		return "", ErrHostIPUnavailable
	}
	return n.IP, nil
}

// Static is a Context loaded from a YAML (or JSON) document, used when the
// tool runs outside a workflow engine.
//
//	node_id: web-3
//	node_name: web
//	deployment_id: shop
//	properties:
//	  puppet_config:
//	    environment: production
//	    server: puppet.example.com
//	resources_dir: ./resources
type Static struct {
	NodeData `yaml:",inline"`

	Name         string         `yaml:"node_name" json:"node_name"`
	Blueprint    string         `yaml:"blueprint_id,omitempty" json:"blueprint_id,omitempty"`
	Deployment   string         `yaml:"deployment_id,omitempty" json:"deployment_id,omitempty"`
	Caps         map[string]any `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	RelatedNode  *NodeData      `yaml:"related,omitempty" json:"related,omitempty"`
	ResourcesDir string         `yaml:"resources_dir,omitempty" json:"resources_dir,omitempty"`
}

// LoadFile reads a context document. A relative resources_dir is resolved
// against the document's directory.
func LoadFile(path string) (*Static, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidParams, "context file path cannot be empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, fmt.Sprintf("failed to read context file %s", path), err)
	}
	if len(b) > contextMaxSize {
		return nil, errors.New(errors.ErrCodeInvalidParams,
			fmt.Sprintf("context file %s exceeds maximum size of %d bytes", path, contextMaxSize))
	}

	s, err := Load(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	if s.ResourcesDir == "" {
		s.ResourcesDir = filepath.Join(filepath.Dir(path), "resources")
	} else if !filepath.IsAbs(s.ResourcesDir) {
		s.ResourcesDir = filepath.Join(filepath.Dir(path), s.ResourcesDir)
	}
	return s, nil
}

// Load decodes a context document. node_id is required.
func Load(r io.Reader) (*Static, error) {
	var s Static
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParams, "failed to decode context document", err)
	}
	if s.ID == "" {
		return nil, errors.New(errors.ErrCodeInvalidParams, "context document is missing node_id")
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	return &s, nil
}

func (s *Static) NodeName() string { return s.Name }

func (s *Static) BlueprintID() string { return s.Blueprint }

func (s *Static) DeploymentID() string { return s.Deployment }

// Capabilities returns ErrCapabilitiesUnsupported when the document has no
// capabilities section.
func (s *Static) Capabilities() (map[string]any, error) {
	if s.Caps == nil {
		return nil, ErrCapabilitiesUnsupported
	}
	return s.Caps, nil
}

// Related returns the related node, or nil.
func (s *Static) Related() Node {
	if s.RelatedNode == nil {
		return nil
	}
	return s.RelatedNode
}

// DownloadResource copies path, resolved under ResourcesDir, to dst.
func (s *Static) DownloadResource(ctx context.Context, path, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := s.resourcePath(path)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeNotFound,
			fmt.Sprintf("resource %s not found", path), err, map[string]any{"resource": path})
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to open %s", dst), err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to copy resource %s", path), err)
	}
	return out.Close()
}

func (s *Static) resourcePath(path string) (string, error) {
	if s.ResourcesDir == "" {
		return "", errors.New(errors.ErrCodeInvalidParams, "no resources directory configured")
	}
	rel := filepath.Clean("/" + path)
	full := filepath.Join(s.ResourcesDir, rel)
	root := filepath.Clean(s.ResourcesDir)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", errors.NewWithContext(errors.ErrCodeInvalidParams,
			fmt.Sprintf("resource %s escapes the resources directory", path), map[string]any{"resource": path})
	}
	return full, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
