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

package puppet

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/puppet-provisioner/pkg/lock"
	"github.com/NVIDIA/puppet-provisioner/pkg/platform"
	"github.com/NVIDIA/puppet-provisioner/pkg/privileged"
	"github.com/NVIDIA/puppet-provisioner/pkg/workflow"
)

var (
	ubuntuPrecise = platform.HostInfo{
		ID:        "ubuntu",
		Name:      "Ubuntu",
		VersionID: "12.04",
		Codename:  "precise",
		Family:    platform.FamilyDebian,
	}
	centos7 = platform.HostInfo{
		ID:        "centos",
		Name:      "CentOS Linux",
		VersionID: "7",
		Family:    platform.FamilyRHEL,
	}
	fixedTime = time.Date(2024, 3, 5, 14, 7, 59, 0, time.UTC)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher records calls and writes body on Download.
type fakeFetcher struct {
	heads     []string
	downloads []string
	headErr   error
	body      string
}

func (f *fakeFetcher) Head(_ context.Context, url string) error {
	f.heads = append(f.heads, url)
	return f.headErr
}

func (f *fakeFetcher) Download(_ context.Context, url, dst string) error {
	f.downloads = append(f.downloads, url)
	return os.WriteFile(dst, []byte(f.body), 0o600)
}

// staticModules is a ModuleLister with a fixed answer.
type staticModules map[string]bool

func (s staticModules) InstalledModules(context.Context, string) (map[string]bool, error) {
	return s, nil
}

func newContext(puppetConfig map[string]any) *workflow.Static {
	return &workflow.Static{
		NodeData: workflow.NodeData{
			ID:    "web-3",
			Props: map[string]any{ConfigProperty: puppetConfig},
			IP:    "10.0.0.3",
		},
		Name:       "web",
		Deployment: "shop",
	}
}

type testEnv struct {
	rec     *privileged.Recorder
	fetcher *fakeFetcher
	tmpDir  string
	dirs    Dirs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	tmp := filepath.Join(root, "tmp")
	require.NoError(t, os.MkdirAll(tmp, 0o700))
	return &testEnv{
		rec:     privileged.NewRecorder(),
		fetcher: &fakeFetcher{body: "archive"},
		tmpDir:  tmp,
		dirs: Dirs{
			LocalRepo:      "/home/ops/cloudify/puppet",
			CustomFacts:    "/opt/cloudify/puppet/facts",
			CloudifyModule: "/opt/cloudify/puppet/modules/cloudify",
			ConfFile:       "/etc/puppet/puppet.conf",
		},
	}
}

func (e *testEnv) options(t *testing.T, host platform.HostInfo, extra ...Option) []Option {
	t.Helper()
	opts := []Option{
		WithHost(host),
		WithExecutor(e.rec),
		WithFetcher(e.fetcher),
		WithLocker(lock.NewLocker(lock.WithDir(t.TempDir()), lock.WithPollInterval(time.Millisecond))),
		WithDirs(e.dirs),
		WithTempDir(e.tmpDir),
		WithClock(func() time.Time { return fixedTime }),
		WithLogger(discardLogger()),
	}
	return append(opts, extra...)
}

func (e *testEnv) tmpFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.tmpDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, en := range entries {
		names = append(names, en.Name())
	}
	return names
}
