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
	"regexp"
	"strings"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
)

var (
	// docs.puppetlabs.com/puppet/latest/reference/lang_reserved.html#environments
	environmentRE = regexp.MustCompile(`^[a-z0-9_]+$`)
	// docs.puppetlabs.com/puppet/latest/reference/lang_reserved.html#tags
	tagRE = regexp.MustCompile(`^[a-z0-9_][a-z0-9_:.\-]*$`)

	environmentSeparators = strings.NewReplacer("-", "_", " ", "_", ".", "_")
)

// NormalizeEnvironment lowercases e and replaces '-', ' ' and '.' with '_'.
// Anything still outside [a-z0-9_] is rejected, not coerced further.
func NormalizeEnvironment(e string) (string, error) {
	env := environmentSeparators.Replace(strings.ToLower(e))
	if !environmentRE.MatchString(env) {
		return "", errors.NewWithContext(errors.ErrCodeInvalidParams,
			fmt.Sprintf("%s.environment must contain only alphanumeric characters, you gave %q", ConfigProperty, e),
			map[string]any{"environment": e})
	}
	return env, nil
}

// ValidTag reports whether t is a legal Puppet tag.
func ValidTag(t string) bool {
	return tagRE.MatchString(t)
}

// ValidateTags returns a parameter error naming the first illegal tag.
func ValidateTags(tags []string) error {
	for _, t := range tags {
		if !ValidTag(t) {
			return errors.NewWithContext(errors.ErrCodeInvalidParams,
				fmt.Sprintf("invalid puppet tag %q", t), map[string]any{"tag": t})
		}
	}
	return nil
}
