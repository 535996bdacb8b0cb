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

package privileged

import (
	"context"
	"strings"
	"sync"
)

// Recorder is an in-memory Executor. It records every call and answers
// from scripted responses, which makes it the executor for dry runs and tests.
type Recorder struct {
	mu sync.Mutex

	// Commands holds the command line of every Run call in order.
	Commands []string
	// Files holds the last contents written per path.
	Files map[string][]byte
	// Programs lists the programs Available reports as present.
	Programs map[string]bool
	// Responses maps a command line prefix to a canned result. The longest
	// matching prefix wins; unmatched commands succeed with empty output.
	Responses map[string]Response
}

// Response is a scripted result for Recorder.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		Files:     make(map[string][]byte),
		Programs:  make(map[string]bool),
		Responses: make(map[string]Response),
	}
}

// Run implements Executor.
func (r *Recorder) Run(_ context.Context, name string, args ...string) (*Output, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	r.mu.Lock()
	r.Commands = append(r.Commands, line)
	resp, _ := r.match(line)
	r.mu.Unlock()

	out := &Output{
		Command:  line,
		ExitCode: resp.ExitCode,
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
	}
	if out.ExitCode != 0 {
		return out, commandError(out)
	}
	return out, nil
}

// WriteFile implements Executor.
func (r *Recorder) WriteFile(_ context.Context, path string, contents []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Files[path] = append([]byte(nil), contents...)
	return nil
}

// Available implements Executor.
func (r *Recorder) Available(_ context.Context, prog string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Programs[prog]
}

// Ran reports whether any recorded command line starts with prefix.
func (r *Recorder) Ran(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Commands {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (r *Recorder) match(line string) (Response, bool) {
	var (
		best    Response
		bestLen = -1
	)
	for prefix, resp := range r.Responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > bestLen {
			best, bestLen = resp, len(prefix)
		}
	}
	return best, bestLen >= 0
}
