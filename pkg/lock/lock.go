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

package lock

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/NVIDIA/puppet-provisioner/pkg/defaults"
	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
)

// Spec describes one named critical section. Specs are values and are never
// mutated after construction.
type Spec struct {
	// Name is the lock file name inside the lock directory.
	Name string
	// MaxRetries is the number of acquisition attempts. Zero fails immediately.
	MaxRetries int
	// Timeout bounds each individual attempt.
	Timeout time.Duration
}

var (
	// InstallSpec serializes package installation.
	InstallSpec = Spec{
		Name:       defaults.InstallLockName,
		MaxRetries: defaults.LockRetries,
		Timeout:    defaults.LockAttemptTimeout,
	}

	// ConfigSpec serializes configuration writes and module staging.
	ConfigSpec = Spec{
		Name:       defaults.ConfigLockName,
		MaxRetries: defaults.LockRetries,
		Timeout:    defaults.LockAttemptTimeout,
	}
)

// Validate checks the spec for usable values.
func (s Spec) Validate() error {
	if s.Name == "" || filepath.Base(s.Name) != s.Name {
		return errors.New(errors.ErrCodeInvalidParams, fmt.Sprintf("invalid lock name %q", s.Name))
	}
	if s.MaxRetries < 0 {
		return errors.New(errors.ErrCodeInvalidParams, fmt.Sprintf("lock %s: max retries must be >= 0", s.Name))
	}
	if s.Timeout <= 0 {
		return errors.New(errors.ErrCodeInvalidParams, fmt.Sprintf("lock %s: timeout must be > 0", s.Name))
	}
	return nil
}

// Dir returns the shared lock directory: $TMPDIR, or /tmp when unset.
func Dir() string {
	if d := os.Getenv("TMPDIR"); d != "" {
		return d
	}
	return defaults.DefaultLockDir
}

// fileLock is the subset of *flock.Flock used by Locker.
type fileLock interface {
	TryLockContext(ctx context.Context, retryDelay time.Duration) (bool, error)
	Unlock() error
}

// Option configures a Locker.
type Option func(*Locker)

// WithDir overrides the lock directory.
func WithDir(dir string) Option {
	return func(l *Locker) {
		l.dir = dir
	}
}

// WithPollInterval sets how often a pending attempt re-checks the lock.
func WithPollInterval(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.pollInterval = d
		}
	}
}

// WithLogger sets the logger used for acquisition progress.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Locker acquires advisory, cross-process file locks with a bounded number
// of fixed-timeout attempts.
type Locker struct {
	dir          string
	pollInterval time.Duration
	logger       *slog.Logger
	newFileLock  func(path string) fileLock
}

// NewLocker returns a Locker rooted at Dir() unless overridden.
func NewLocker(opts ...Option) *Locker {
	l := &Locker{
		dir:          Dir(),
		pollInterval: defaults.LockPollInterval,
		logger:       slog.Default(),
		newFileLock: func(path string) fileLock {
			return flock.New(path)
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the lock file path for spec.
func (l *Locker) Path(spec Spec) string {
	return filepath.Join(l.dir, spec.Name)
}

// Acquire makes up to spec.MaxRetries attempts to take the lock, each bounded
// by spec.Timeout, and returns as soon as one succeeds. The returned Handle
// must be released by the caller.
func (l *Locker) Acquire(ctx context.Context, spec Spec) (*Handle, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	path := l.Path(spec)
	h := &Handle{
		Path:   path,
		lock:   l.newFileLock(path),
		logger: l.logger,
	}
	l.logger.Info("using lock file", "path", path)

	start := time.Now()
	for attempt := 1; attempt <= spec.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
		ok, err := h.lock.TryLockContext(attemptCtx, l.pollInterval)
		cancel()

		if ok {
			h.Acquired = true
			lockAttempts.WithLabelValues(spec.Name, "acquired").Inc()
			lockWait.WithLabelValues(spec.Name).Observe(time.Since(start).Seconds())
			l.logger.Info("acquired lock", "path", path, "attempt", attempt)
			return h, nil
		}
		lockAttempts.WithLabelValues(spec.Name, "timeout").Inc()

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeLockAcquisition,
				fmt.Sprintf("lock acquisition for %s aborted", path), ctxErr,
				map[string]any{"lock_path": path, "attempts": attempt})
		}
		if err != nil && !stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.WrapWithContext(errors.ErrCodeLockAcquisition,
				fmt.Sprintf("failed to lock the file %s", path), err,
				map[string]any{"lock_path": path, "attempts": attempt})
		}

		l.logger.Info("could not lock the file, retrying",
			"path", path,
			"attempt", attempt,
			"max_retries", spec.MaxRetries,
			"timeout", spec.Timeout.String())
	}

	lockWait.WithLabelValues(spec.Name).Observe(time.Since(start).Seconds())
	return nil, errors.NewWithContext(errors.ErrCodeLockAcquisition,
		fmt.Sprintf("failed to lock the file %s after %d attempts of %s", path, spec.MaxRetries, spec.Timeout),
		map[string]any{"lock_path": path, "attempts": spec.MaxRetries})
}

// With runs fn while holding the lock described by spec. The lock is released
// on every exit path of fn, including panics.
func (l *Locker) With(ctx context.Context, spec Spec, fn func(context.Context) error) error {
	h, err := l.Acquire(ctx, spec)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := h.Release(); rerr != nil {
			l.logger.Warn("failed to release lock", "path", h.Path, "error", rerr)
		}
	}()
	return fn(ctx)
}

// Handle is the state of one acquisition. Only the scope that acquired it
// may release it.
type Handle struct {
	Path     string
	Acquired bool

	lock   fileLock
	logger *slog.Logger
}

// Release unlocks the file if this handle holds it. Releasing a handle that
// never acquired the lock, or releasing twice, is a no-op.
func (h *Handle) Release() error {
	if h == nil || !h.Acquired {
		return nil
	}
	h.Acquired = false
	if err := h.lock.Unlock(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to unlock %s", h.Path), err)
	}
	if h.logger != nil {
		h.logger.Info("released lock", "path", h.Path)
	}
	return nil
}
