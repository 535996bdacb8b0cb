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

// Package lock serializes critical sections across separate puppetctl
// processes on the same host.
//
// Locks are advisory flock(2) locks on files under $TMPDIR (default /tmp).
// An acquisition makes up to Spec.MaxRetries attempts, each bounded by
// Spec.Timeout; there is no backoff beyond the per-attempt timeout and no
// fairness beyond what the filesystem provides. Exhausting the attempts
// yields an ErrCodeLockAcquisition error naming the lock path.
//
//	locker := lock.NewLocker()
//	err := locker.With(ctx, lock.InstallSpec, func(ctx context.Context) error {
//	    return installPackages(ctx)
//	})
//
// Holding the install lock does not exclude taking the configure lock.
package lock
