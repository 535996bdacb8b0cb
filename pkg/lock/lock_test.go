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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
)

// stuckLock never succeeds; every attempt waits for its deadline.
type stuckLock struct {
	attempts int
	unlocks  int
}

func (s *stuckLock) TryLockContext(ctx context.Context, _ time.Duration) (bool, error) {
	s.attempts++
	<-ctx.Done()
	return false, ctx.Err()
}

func (s *stuckLock) Unlock() error {
	s.unlocks++
	return nil
}

// eventualLock succeeds on attempt number succeedOn.
type eventualLock struct {
	succeedOn int
	attempts  int
	unlocks   int
}

func (e *eventualLock) TryLockContext(ctx context.Context, _ time.Duration) (bool, error) {
	e.attempts++
	if e.attempts >= e.succeedOn {
		return true, nil
	}
	<-ctx.Done()
	return false, ctx.Err()
}

func (e *eventualLock) Unlock() error {
	e.unlocks++
	return nil
}

func newTestLocker(t *testing.T, fl fileLock) *Locker {
	t.Helper()
	l := NewLocker(WithDir(t.TempDir()), WithPollInterval(time.Millisecond))
	if fl != nil {
		l.newFileLock = func(string) fileLock { return fl }
	}
	return l
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"install spec", InstallSpec, false},
		{"config spec", ConfigSpec, false},
		{"zero retries allowed", Spec{Name: "x.lock", MaxRetries: 0, Timeout: time.Second}, false},
		{"empty name", Spec{Name: "", MaxRetries: 1, Timeout: time.Second}, true},
		{"path in name", Spec{Name: "../etc/x.lock", MaxRetries: 1, Timeout: time.Second}, true},
		{"negative retries", Spec{Name: "x.lock", MaxRetries: -1, Timeout: time.Second}, true},
		{"zero timeout", Spec{Name: "x.lock", MaxRetries: 1, Timeout: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidParams))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPredefinedSpecs(t *testing.T) {
	assert.Equal(t, "puppet-install.lock", InstallSpec.Name)
	assert.Equal(t, "puppet-config.lock", ConfigSpec.Name)
	assert.Equal(t, 30, InstallSpec.MaxRetries)
	assert.Equal(t, 10*time.Second, ConfigSpec.Timeout)
}

func TestDir(t *testing.T) {
	t.Setenv("TMPDIR", "/var/tmp/custom")
	assert.Equal(t, "/var/tmp/custom", Dir())

	t.Setenv("TMPDIR", "")
	assert.Equal(t, "/tmp", Dir())
}

func TestAcquire_ExhaustsExactlyMaxRetries(t *testing.T) {
	for _, n := range []int{1, 3, 5} {
		fl := &stuckLock{}
		l := newTestLocker(t, fl)
		spec := Spec{Name: "test.lock", MaxRetries: n, Timeout: 5 * time.Millisecond}

		h, err := l.Acquire(context.Background(), spec)

		require.Error(t, err)
		assert.Nil(t, h)
		assert.Equal(t, n, fl.attempts)
		assert.Equal(t, 0, fl.unlocks)
		assert.True(t, errors.HasCode(err, errors.ErrCodeLockAcquisition))

		path, ok := errors.ContextValue(err, "lock_path")
		require.True(t, ok)
		assert.Equal(t, l.Path(spec), path)
		assert.Contains(t, err.Error(), l.Path(spec))
	}
}

func TestAcquire_ZeroRetriesFailsWithoutAttempt(t *testing.T) {
	fl := &stuckLock{}
	l := newTestLocker(t, fl)

	h, err := l.Acquire(context.Background(), Spec{Name: "test.lock", MaxRetries: 0, Timeout: time.Second})

	assert.Nil(t, h)
	assert.True(t, errors.HasCode(err, errors.ErrCodeLockAcquisition))
	assert.Equal(t, 0, fl.attempts)
}

func TestAcquire_StopsOnFirstSuccess(t *testing.T) {
	fl := &eventualLock{succeedOn: 2}
	l := newTestLocker(t, fl)

	h, err := l.Acquire(context.Background(), Spec{Name: "test.lock", MaxRetries: 5, Timeout: 5 * time.Millisecond})

	require.NoError(t, err)
	assert.True(t, h.Acquired)
	assert.Equal(t, 2, fl.attempts)

	require.NoError(t, h.Release())
	assert.False(t, h.Acquired)
	assert.Equal(t, 1, fl.unlocks)
}

func TestAcquire_ParentContextCanceled(t *testing.T) {
	fl := &stuckLock{}
	l := newTestLocker(t, fl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h, err := l.Acquire(ctx, Spec{Name: "test.lock", MaxRetries: 10, Timeout: time.Second})

	assert.Nil(t, h)
	assert.True(t, errors.HasCode(err, errors.ErrCodeLockAcquisition))
	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.Equal(t, 1, fl.attempts)
}

func TestRelease_NoopWhenNotAcquired(t *testing.T) {
	fl := &stuckLock{}
	h := &Handle{Path: "/tmp/x.lock", lock: fl}

	assert.NoError(t, h.Release())
	assert.NoError(t, h.Release())
	assert.Equal(t, 0, fl.unlocks)

	var nilHandle *Handle
	assert.NoError(t, nilHandle.Release())
}

func TestRelease_Idempotent(t *testing.T) {
	fl := &eventualLock{succeedOn: 1}
	l := newTestLocker(t, fl)

	h, err := l.Acquire(context.Background(), Spec{Name: "test.lock", MaxRetries: 1, Timeout: time.Second})
	require.NoError(t, err)

	require.NoError(t, h.Release())
	require.NoError(t, h.Release())
	assert.Equal(t, 1, fl.unlocks)
}

func TestWith_ReleasesOnError(t *testing.T) {
	fl := &eventualLock{succeedOn: 1}
	l := newTestLocker(t, fl)
	boom := stderrors.New("boom")

	err := l.With(context.Background(), Spec{Name: "test.lock", MaxRetries: 1, Timeout: time.Second},
		func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, fl.unlocks)
}

func TestWith_ReleasesOnPanic(t *testing.T) {
	fl := &eventualLock{succeedOn: 1}
	l := newTestLocker(t, fl)

	assert.Panics(t, func() {
		_ = l.With(context.Background(), Spec{Name: "test.lock", MaxRetries: 1, Timeout: time.Second},
			func(context.Context) error { panic("guarded body failed") })
	})
	assert.Equal(t, 1, fl.unlocks)
}

func TestWith_DoesNotRunBodyWithoutLock(t *testing.T) {
	l := newTestLocker(t, &stuckLock{})
	ran := false

	err := l.With(context.Background(), Spec{Name: "test.lock", MaxRetries: 2, Timeout: time.Millisecond},
		func(context.Context) error { ran = true; return nil })

	assert.True(t, errors.HasCode(err, errors.ErrCodeLockAcquisition))
	assert.False(t, ran)
}

// TestFileLock_Contention uses real flock(2) locks: two descriptors on the
// same file exclude each other even inside one process.
func TestFileLock_Contention(t *testing.T) {
	dir := t.TempDir()
	l := NewLocker(WithDir(dir), WithPollInterval(5*time.Millisecond))
	spec := Spec{Name: "contended.lock", MaxRetries: 2, Timeout: 20 * time.Millisecond}

	first, err := l.Acquire(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "contended.lock"), first.Path)

	second, err := l.Acquire(context.Background(), spec)
	assert.Nil(t, second)
	assert.True(t, errors.HasCode(err, errors.ErrCodeLockAcquisition))

	require.NoError(t, first.Release())

	third, err := l.Acquire(context.Background(), spec)
	require.NoError(t, err)
	assert.True(t, third.Acquired)
	require.NoError(t, third.Release())
}

func TestFileLock_InstallDoesNotExcludeConfig(t *testing.T) {
	l := NewLocker(WithDir(t.TempDir()), WithPollInterval(5*time.Millisecond))
	install := Spec{Name: InstallSpec.Name, MaxRetries: 1, Timeout: 50 * time.Millisecond}
	config := Spec{Name: ConfigSpec.Name, MaxRetries: 1, Timeout: 50 * time.Millisecond}

	err := l.With(context.Background(), install, func(ctx context.Context) error {
		return l.With(ctx, config, func(context.Context) error { return nil })
	})
	assert.NoError(t, err)
}
