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
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeTimeout indicates an operation exceeded its time limit.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an internal system error.
	ErrCodeInternal ErrorCode = "INTERNAL"
	// ErrCodeUnsupported indicates the operation is not implemented for the host platform.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"

	// ErrCodeInvalidParams indicates bad or missing puppet configuration.
	// Never retried.
	ErrCodeInvalidParams ErrorCode = "INVALID_PARAMS"
	// ErrCodeDistroDetection indicates the Linux distribution version could not be determined.
	ErrCodeDistroDetection ErrorCode = "DISTRO_DETECTION"
	// ErrCodePackageUnavailable indicates the repository package URL is not reachable.
	ErrCodePackageUnavailable ErrorCode = "PACKAGE_UNAVAILABLE"
	// ErrCodeInternalLogic indicates a programming defect, such as an ambiguous
	// installer table or an orchestrator reused after it already ran.
	ErrCodeInternalLogic ErrorCode = "INTERNAL_LOGIC"
	// ErrCodeLockAcquisition indicates a lock file could not be acquired within
	// its retry budget.
	ErrCodeLockAcquisition ErrorCode = "LOCK_ACQUISITION"
	// ErrCodePrivilegedCommand indicates an elevated subprocess exited nonzero.
	ErrCodePrivilegedCommand ErrorCode = "PRIVILEGED_COMMAND"
	// ErrCodePuppetRun indicates the agent reported a real failure through its
	// detailed exit code.
	ErrCodePuppetRun ErrorCode = "PUPPET_RUN"
)

// StructuredError provides structured error information for better observability.
// It includes an error code for programmatic handling, a human-readable message,
// the underlying cause, and optional context for debugging.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the code of the outermost StructuredError in err's chain,
// or an empty code if there is none.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// HasCode reports whether any StructuredError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var se *StructuredError
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Cause
	}
	return false
}

// ContextValue returns the context value stored under key by the outermost
// StructuredError in err's chain that has one.
func ContextValue(err error, key string) (any, bool) {
	for err != nil {
		var se *StructuredError
		if !stderrors.As(err, &se) {
			return nil, false
		}
		if v, ok := se.Context[key]; ok {
			return v, true
		}
		err = se.Cause
	}
	return nil, false
}
