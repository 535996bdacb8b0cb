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

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/puppet-provisioner/pkg/defaults"
	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
)

// ConfigProperty is the node property holding the Puppet configuration.
const ConfigProperty = "puppet_config"

// Config is the operator-supplied puppet_config mapping.
type Config struct {
	Environment    string         `yaml:"environment,omitempty" json:"environment,omitempty"`
	Server         string         `yaml:"server,omitempty" json:"server,omitempty"`
	NodeNamePrefix string         `yaml:"node_name_prefix,omitempty" json:"node_name_prefix,omitempty"`
	NodeNameSuffix string         `yaml:"node_name_suffix,omitempty" json:"node_name_suffix,omitempty"`
	Facts          map[string]any `yaml:"facts,omitempty" json:"facts,omitempty"`
	Modules        []string       `yaml:"modules,omitempty" json:"modules,omitempty"`
	Download       StringList     `yaml:"download,omitempty" json:"download,omitempty"`
	Execute        string         `yaml:"execute,omitempty" json:"execute,omitempty"`
	Manifest       string         `yaml:"manifest,omitempty" json:"manifest,omitempty"`
	// Version pins the puppet packages. It is interpolated into package
	// manager arguments unchanged and must come from a trusted source.
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	// Repos maps a package format to per-release repository package URLs,
	// e.g. repos.deb["12.04"].
	Repos map[string]map[string]string `yaml:"repos,omitempty" json:"repos,omitempty"`

	present map[string]bool
}

// StringList accepts either a single string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var s []string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = s
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

// ConfigFromProperties extracts and decodes puppet_config from node properties.
func ConfigFromProperties(props map[string]any) (*Config, error) {
	raw, ok := props[ConfigProperty]
	if !ok || raw == nil {
		return nil, errors.New(errors.ErrCodeInvalidParams, "node properties are missing "+ConfigProperty)
	}
	return ParseConfig(raw)
}

// ParseConfig decodes a puppet_config value, usually a map[string]any. Key
// presence is retained so that an empty "server" still selects agent mode.
func ParseConfig(raw any) (*Config, error) {
	b, err := yaml.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParams, "failed to encode "+ConfigProperty, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParams, "failed to parse "+ConfigProperty, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrCodeInvalidParams, ConfigProperty+" must be a mapping")
	}

	cfg := &Config{present: make(map[string]bool, len(root.Content)/2)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		cfg.present[key] = true
		if key == "modules" && val.Kind != yaml.SequenceNode {
			return nil, errors.New(errors.ErrCodeInvalidParams, ConfigProperty+".modules must be a list")
		}
	}

	if err := root.Decode(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParams, "invalid "+ConfigProperty, err)
	}
	return cfg, nil
}

// Has reports whether key was present in the decoded mapping.
func (c *Config) Has(key string) bool {
	return c.present[key]
}

// HasServer selects agent mode.
func (c *Config) HasServer() bool { return c.Has("server") }

// PackageVersion returns the configured version or the default pin.
func (c *Config) PackageVersion() string {
	if c.Version != "" {
		return c.Version
	}
	return defaults.PuppetVersion
}

// RepoOverride returns the repository package URL configured for format and
// release, or "".
func (c *Config) RepoOverride(format, release string) string {
	return c.Repos[format][release]
}
