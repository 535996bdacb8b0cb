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

package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/NVIDIA/puppet-provisioner/pkg/defaults"
	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
)

const (
	DefaultUserAgent = "puppetctl/1.0"
)

// Fetcher checks and downloads remote packages and archives.
type Fetcher interface {
	// Head returns nil when url answers a HEAD request with 200 OK.
	Head(ctx context.Context, url string) error
	// Download writes the body of url to dst.
	Download(ctx context.Context, url, dst string) error
}

// Option configures a Client.
type Option func(*Client)

// Client fetches over HTTP. Requests are never retried.
type Client struct {
	UserAgent string
	Client    *http.Client
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.UserAgent = userAgent
	}
}

// WithTotalTimeout bounds each request end to end.
func WithTotalTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.Client.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.Client = client
		}
	}
}

// NewClient returns a Client with a transport configured from pkg/defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		UserAgent: DefaultUserAgent,
		Client: &http.Client{
			Timeout:   defaults.HTTPClientTimeout,
			Transport: newDefaultTransport(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newDefaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaults.HTTPConnectTimeout,
			KeepAlive: defaults.HTTPKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
		IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	if url == "" {
		return nil, errors.New(errors.ErrCodeInvalidParams, "url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidParams,
			fmt.Sprintf("failed to create request for url %s", url), err, map[string]any{"url": url})
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return c.Client.Do(req)
}

// Head implements Fetcher. Transport failures and any status other than
// 200 are reported as PACKAGE_UNAVAILABLE naming the URL.
func (c *Client) Head(ctx context.Context, url string) error {
	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeInvalidParams) {
			return err
		}
		return errors.WrapWithContext(errors.ErrCodePackageUnavailable,
			fmt.Sprintf("repo package is not available (at %s)", url), err, map[string]any{"url": url})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewWithContext(errors.ErrCodePackageUnavailable,
			fmt.Sprintf("repo package is not available (at %s): status %s", url, resp.Status),
			map[string]any{"url": url, "status": resp.StatusCode})
	}
	return nil
}

// Download implements Fetcher. The body is streamed to dst, which is created
// with mode 0600 or truncated.
func (c *Client) Download(ctx context.Context, url, dst string) error {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeInvalidParams) {
			return err
		}
		return errors.WrapWithContext(errors.ErrCodeInternal,
			fmt.Sprintf("http request failed for url %s", url), err, map[string]any{"url": url})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewWithContext(errors.ErrCodePackageUnavailable,
			fmt.Sprintf("failed to download %s: status %s", url, resp.Status),
			map[string]any{"url": url, "status": resp.StatusCode})
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to open %s", dst), err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return errors.WrapWithContext(errors.ErrCodeInternal,
			fmt.Sprintf("failed to write %s from %s", dst, url), err, map[string]any{"url": url})
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to close %s", dst), err)
	}
	return nil
}
