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
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-cmd/cmd"

	"github.com/NVIDIA/puppet-provisioner/pkg/defaults"
	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
)

// Output is the captured result of a completed command.
type Output struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs commands with elevated privileges.
type Executor interface {
	// Run executes name with args and returns its output. A nonzero exit is
	// reported as a PRIVILEGED_COMMAND error carrying the output.
	Run(ctx context.Context, name string, args ...string) (*Output, error)
	// WriteFile creates or replaces path with contents.
	WriteFile(ctx context.Context, path string, contents []byte) error
	// Available reports whether prog resolves on the privileged PATH.
	Available(ctx context.Context, prog string) bool
}

// Sudo executes commands through sudo(8).
type Sudo struct {
	path   string
	tmpDir string
	logger *slog.Logger
}

// Option configures a Sudo executor.
type Option func(*Sudo)

// WithSudoPath overrides the sudo binary. An empty path runs commands directly,
// which is how the tool runs when it is already root.
func WithSudoPath(path string) Option {
	return func(s *Sudo) {
		s.path = path
	}
}

// WithTempDir sets the staging directory WriteFile uses.
func WithTempDir(dir string) Option {
	return func(s *Sudo) {
		s.tmpDir = dir
	}
}

// WithLogger sets the logger that receives command lines and output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sudo) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSudo returns an Executor backed by /usr/bin/sudo.
func NewSudo(opts ...Option) *Sudo {
	s := &Sudo{
		path:   defaults.SudoPath,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sudo) argv(name string, args []string) []string {
	argv := make([]string, 0, len(args)+2)
	if s.path != "" {
		argv = append(argv, s.path)
	}
	argv = append(argv, name)
	return append(argv, args...)
}

// execute starts argv and waits for it, stopping the process when ctx ends.
func (s *Sudo) execute(ctx context.Context, argv []string) cmd.Status {
	c := cmd.NewCmd(argv[0], argv[1:]...)
	statusCh := c.Start()

	select {
	case st := <-statusCh:
		return st
	case <-ctx.Done():
		_ = c.Stop()
		st := <-statusCh
		if st.Error == nil {
			st.Error = ctx.Err()
		}
		return st
	}
}

// Run implements Executor.
func (s *Sudo) Run(ctx context.Context, name string, args ...string) (*Output, error) {
	argv := s.argv(name, args)
	line := strings.Join(argv, " ")
	s.logger.Info("running command", "command", line)

	st := s.execute(ctx, argv)
	out := &Output{
		Command:  line,
		ExitCode: st.Exit,
		Stdout:   joinLines(st.Stdout),
		Stderr:   joinLines(st.Stderr),
	}

	if st.Error != nil {
		return out, errors.WrapWithContext(errors.ErrCodePrivilegedCommand,
			fmt.Sprintf("failed to run %q", line), st.Error, outputContext(out))
	}
	if st.Exit != 0 {
		return out, commandError(out)
	}

	logText(s.logger, "stdout", "  [out] ", out.Stdout)
	logText(s.logger, "stderr", "  [err] ", out.Stderr)
	return out, nil
}

// WriteFile stages contents in a temp file owned by the caller and moves it
// into place with elevated privileges.
func (s *Sudo) WriteFile(ctx context.Context, path string, contents []byte) error {
	f, err := os.CreateTemp(s.tmpDir, "puppetctl-write-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create staging file", err)
	}
	staged := f.Name()

	if _, err := f.Write(contents); err != nil {
		f.Close()
		os.Remove(staged)
		return errors.Wrap(errors.ErrCodeInternal, "failed to write staging file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(staged)
		return errors.Wrap(errors.ErrCodeInternal, "failed to close staging file", err)
	}

	if _, err := s.Run(ctx, "mv", staged, path); err != nil {
		os.Remove(staged)
		return err
	}
	return nil
}

// Available implements Executor. Any failure, including sudo itself being
// unavailable, reads as "not available".
func (s *Sudo) Available(ctx context.Context, prog string) bool {
	st := s.execute(ctx, s.argv("which", []string{prog}))
	return st.Error == nil && st.Exit == 0
}

func commandError(out *Output) error {
	msg := fmt.Sprintf("command %q exited with code %d\nSTDOUT:\n%s\nSTDERR:\n%s",
		out.Command, out.ExitCode, out.Stdout, out.Stderr)
	return errors.NewWithContext(errors.ErrCodePrivilegedCommand, msg, outputContext(out))
}

func outputContext(out *Output) map[string]any {
	return map[string]any{
		"command":   out.Command,
		"exit_code": out.ExitCode,
		"stdout":    out.Stdout,
		"stderr":    out.Stderr,
	}
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// logText logs a titled block line by line; empty text logs nothing.
func logText(logger *slog.Logger, title, prefix, text string) {
	if text == "" {
		return
	}
	logger.Info("*** " + title + " ***")
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		logger.Info(prefix + line)
	}
}

// ShellQuote wraps s in single quotes for /bin/sh, closing and reopening the
// quote around each embedded single quote.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
