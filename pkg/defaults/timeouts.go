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

package defaults

import "time"

// Lock timing for the install and configure critical sections.
// The worst-case wait is LockRetries * LockAttemptTimeout.
const (
	// LockRetries is the number of lock attempts before giving up.
	LockRetries = 30

	// LockAttemptTimeout bounds a single lock attempt.
	LockAttemptTimeout = 10 * time.Second

	// LockPollInterval is how often a pending attempt re-checks the lock file.
	LockPollInterval = 250 * time.Millisecond
)

// HTTP client timeouts for package and archive downloads.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	// Downloads of repository packages and module archives can be large.
	HTTPClientTimeout = 5 * time.Minute

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 30 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second
)
