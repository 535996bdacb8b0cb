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

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidParams, "puppet_config.environment is missing")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeInvalidParams {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidParams, err.Code)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, "operation failed", cause)

	if err.Code != ErrCodeInternal {
		t.Errorf("expected code %s, got %s", ErrCodeInternal, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("exit status 1")
	ctx := map[string]any{
		"command": "/usr/bin/sudo apt-get update",
		"stderr":  "E: could not open lock file",
	}

	err := WrapWithContext(ErrCodePrivilegedCommand, "privileged command failed", cause, ctx)

	if err.Code != ErrCodePrivilegedCommand {
		t.Errorf("expected code %s, got %s", ErrCodePrivilegedCommand, err.Code)
	}
	if err.Context["command"] != "/usr/bin/sudo apt-get update" {
		t.Errorf("expected command in context")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeNotFound, "not found"),
			expected: "[NOT_FOUND] not found",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeLockAcquisition, "failed", errors.New("root cause")),
			expected: "[LOCK_ACQUISITION] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	inner := New(ErrCodePrivilegedCommand, "sudo failed")
	outer := Wrap(ErrCodePuppetRun, "puppet failed", inner)
	plain := fmt.Errorf("context: %w", outer)

	if got := CodeOf(plain); got != ErrCodePuppetRun {
		t.Errorf("CodeOf() = %s, want %s", got, ErrCodePuppetRun)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %s, want empty", got)
	}
}

func TestHasCode(t *testing.T) {
	inner := New(ErrCodePrivilegedCommand, "sudo failed")
	outer := Wrap(ErrCodePuppetRun, "puppet failed", inner)

	if !HasCode(outer, ErrCodePuppetRun) {
		t.Error("expected outer code to match")
	}
	if !HasCode(outer, ErrCodePrivilegedCommand) {
		t.Error("expected inner code to match")
	}
	if HasCode(outer, ErrCodeInvalidParams) {
		t.Error("unexpected code match")
	}
	if HasCode(nil, ErrCodeInternal) {
		t.Error("nil error must not match")
	}
}

func TestContextValue(t *testing.T) {
	inner := NewWithContext(ErrCodePrivilegedCommand, "sudo failed", map[string]any{"exit_code": 4})
	outer := WrapWithContext(ErrCodePuppetRun, "puppet failed", inner, map[string]any{"script": "/tmp/x.run.sh"})

	v, ok := ContextValue(outer, "exit_code")
	if !ok || v != 4 {
		t.Errorf("ContextValue(exit_code) = %v, %v", v, ok)
	}
	if _, ok := ContextValue(outer, "missing"); ok {
		t.Error("expected missing key to be absent")
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ErrCodeNotFound,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
		ErrCodeInvalidParams,
		ErrCodeDistroDetection,
		ErrCodePackageUnavailable,
		ErrCodeInternalLogic,
		ErrCodeLockAcquisition,
		ErrCodePrivilegedCommand,
		ErrCodePuppetRun,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("error code should not be empty: %v", code)
		}
		if seen[code] {
			t.Errorf("duplicate error code: %v", code)
		}
		seen[code] = true
	}
}
