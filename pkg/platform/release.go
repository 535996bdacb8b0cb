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

package platform

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

var (
	filePathReleasePrimary  = "/etc/os-release"
	filePathReleaseFallback = "/usr/lib/os-release"
	releaseMaxSize          = 64 << 10
)

// ReadRelease reads os-release key/value pairs from /etc/os-release, falling
// back to /usr/lib/os-release per freedesktop.org when the primary is missing.
func ReadRelease() (map[string]string, error) {
	path := filePathReleasePrimary
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filePathReleaseFallback
	}
	return ReadReleaseFile(path)
}

// ReadReleaseFile parses an os-release formatted file.
//
//	NAME="Ubuntu"
//	ID=ubuntu
//	VERSION_ID="12.04"
//	VERSION_CODENAME=precise
func ReadReleaseFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read os release from %s: %w", path, err)
	}
	if len(b) > releaseMaxSize {
		return nil, fmt.Errorf("file %q exceeds maximum size of %d bytes", path, releaseMaxSize)
	}
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("content of file %q is not valid UTF-8", path)
	}

	return ParseRelease(string(b)), nil
}

// ParseRelease parses os-release content. Comments, blank lines, lines
// without '=' and empty values are skipped; surrounding quotes are removed.
func ParseRelease(content string) map[string]string {
	result := make(map[string]string, 15)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			slog.Debug("skipping os-release line without value", "line", line)
			continue
		}

		key := strings.TrimSpace(kv[0])
		value := strings.Trim(strings.TrimSpace(kv[1]), `"'`)
		if key == "" || value == "" {
			continue
		}
		result[key] = value
	}
	return result
}
