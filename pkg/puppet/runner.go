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
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
	"github.com/NVIDIA/puppet-provisioner/pkg/fetch"
	"github.com/NVIDIA/puppet-provisioner/pkg/privileged"
	"github.com/NVIDIA/puppet-provisioner/pkg/workflow"
)

// Mode is the runner variant.
type Mode string

const (
	// ModeAgent pulls the catalog from a Puppet server.
	ModeAgent Mode = "agent"
	// ModeStandalone applies local manifests with `puppet apply`.
	ModeStandalone Mode = "standalone"
)

// RunOptions selects what a run applies.
type RunOptions struct {
	// Tags limits the run to resources with these tags.
	Tags []string
	// Execute is inline manifest text. Standalone mode only.
	Execute string
	// Manifest is a manifest path relative to the local repository.
	// Standalone mode only; ignored when Execute is set.
	Manifest string
}

// Runner is the mode-specific half of configuring and running Puppet.
type Runner interface {
	Mode() Mode
	// Configure prepares the host for runs.
	Configure(ctx context.Context) error
	// Args returns the puppet subcommand and its mode-specific flags.
	Args(opts RunOptions) ([]string, error)
	// Env returns extra variables exported by the run script.
	Env() map[string]string
}

// runnerDeps are the helpers every runner variant shares.
type runnerDeps struct {
	cfg     *Config
	env     string
	wctx    workflow.Context
	exec    privileged.Executor
	fetcher fetch.Fetcher
	lister  ModuleLister
	dirs    Dirs
	tmpDir  string
	clock   func() time.Time
	logger  *slog.Logger
}

// selectRunner picks agent mode when a server key is present and validates
// the properties that mode requires.
func selectRunner(deps runnerDeps) (Runner, error) {
	cfg := deps.cfg
	if cfg.HasServer() {
		if !cfg.Has("environment") {
			return nil, errors.New(errors.ErrCodeInvalidParams, ConfigProperty+".environment is missing")
		}
		env, err := NormalizeEnvironment(cfg.Environment)
		if err != nil {
			return nil, err
		}
		deps.env = env
		return &agentRunner{deps}, nil
	}

	if cfg.Has("environment") {
		env, err := NormalizeEnvironment(cfg.Environment)
		if err != nil {
			return nil, err
		}
		deps.env = env
	}
	if !cfg.Has("execute") && !cfg.Has("manifest") {
		return nil, errors.New(errors.ErrCodeInvalidParams,
			"either 'execute' or 'manifest' must be specified under '"+ConfigProperty+"', none are specified")
	}
	return &standaloneRunner{deps}, nil
}

// agentRunner runs `puppet agent` against a Puppet server.
type agentRunner struct {
	runnerDeps
}

func (r *agentRunner) Mode() Mode { return ModeAgent }

func (r *agentRunner) Env() map[string]string { return nil }

func (r *agentRunner) Args(RunOptions) ([]string, error) {
	return []string{"agent", "--onetime", "--no-daemonize"}, nil
}

// NodeName is prefix + node id + suffix.
func (r *agentRunner) NodeName() string {
	return r.cfg.NodeNamePrefix + r.wctx.NodeID() + r.cfg.NodeNameSuffix
}

// Certname prefixes the node name with the current UTC minute, so every
// provisioning of a node gets a fresh certificate.
func (r *agentRunner) Certname() string {
	return r.clock().UTC().Format("200601021504") + "-" + r.NodeName()
}

func (r *agentRunner) ConfContents() (string, error) {
	return RenderAgentConf(AgentConf{
		Environment: r.env,
		FactsDir:    r.dirs.CustomFacts,
		ModulePath:  r.dirs.ModulePath(),
		Server:      r.cfg.Server,
		Certname:    r.Certname(),
		NodeName:    r.NodeName(),
	})
}

// Configure writes puppet.conf.
func (r *agentRunner) Configure(ctx context.Context) error {
	conf, err := r.ConfContents()
	if err != nil {
		return err
	}
	r.logger.Info("writing agent configuration", "path", r.dirs.ConfFile, "server", r.cfg.Server)
	return r.exec.WriteFile(ctx, r.dirs.ConfFile, []byte(conf))
}

// standaloneRunner runs `puppet apply` against the local repository.
type standaloneRunner struct {
	runnerDeps
}

func (r *standaloneRunner) Mode() Mode { return ModeStandalone }

func (r *standaloneRunner) Env() map[string]string {
	return map[string]string{"FACTER_CLOUDIFY_LOCAL_REPO": r.dirs.LocalRepo}
}

// Args builds the apply command. Exactly one of Execute or Manifest is
// used; Execute wins when both are set.
func (r *standaloneRunner) Args(opts RunOptions) ([]string, error) {
	args := []string{"apply", "--modulepath=" + r.dirs.ModulePath()}
	if r.env != "" {
		args = append(args, "--environment", r.env)
	}

	switch {
	case opts.Execute != "":
		if opts.Manifest != "" {
			r.logger.Warn("both execute and manifest given, ignoring manifest", "manifest", opts.Manifest)
		}
		args = append(args, "--execute", privileged.ShellQuote(opts.Execute))
	case opts.Manifest != "":
		args = append(args, privileged.ShellQuote(filepath.Join(r.dirs.LocalRepo, opts.Manifest)))
	default:
		return nil, errors.New(errors.ErrCodeInvalidParams,
			"either 'execute' or 'manifest' must be specified, none are specified")
	}
	return args, nil
}

// Configure installs missing modules, then unpacks downloads into the local
// repository so downloaded files override module files.
func (r *standaloneRunner) Configure(ctx context.Context) error {
	for _, module := range r.cfg.Modules {
		installed, err := r.lister.InstalledModules(ctx, r.dirs.ModulePath())
		if err != nil {
			return err
		}
		if installed[module] {
			r.logger.Debug("puppet module already installed", "module", module)
			continue
		}
		if _, err := r.exec.Run(ctx, "puppet", "module", "install", module); err != nil {
			return err
		}
	}

	for _, u := range r.cfg.Download {
		if err := r.urlToDir(ctx, u, r.dirs.LocalRepo); err != nil {
			return err
		}
	}
	return nil
}

// isResourceURL reports whether u has no scheme, meaning it names a
// blueprint resource rather than a remote file.
func isResourceURL(u string) (bool, string) {
	parsed, err := url.Parse(u)
	if err != nil {
		return false, u
	}
	return parsed.Scheme == "", parsed.Path
}

// urlToDir fetches a .tar.gz and extracts it into dst, stripping a leading
// path component equal to dst's base name. The archive is left in place
// when extraction fails.
func (r *standaloneRunner) urlToDir(ctx context.Context, u, dst string) error {
	if u == "" {
		return nil
	}
	r.logger.Info("downloading and unpacking archive", "url", u, "dir", dst)

	f, err := os.CreateTemp(r.tmpDir, "*.url_to_dir.tar.gz")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create archive temp file", err)
	}
	archive := f.Name()
	f.Close()

	if resource, p := isResourceURL(u); resource {
		r.logger.Info("getting resource", "resource", p, "path", archive)
		err = r.wctx.DownloadResource(ctx, p, archive)
	} else {
		r.logger.Info("downloading", "url", u, "path", archive)
		err = r.fetcher.Download(ctx, u, archive)
	}
	if err != nil {
		return err
	}

	xform := "s#^" + filepath.Base(dst) + "/##"
	if _, err := r.exec.Run(ctx, "tar", "-C", dst, "--xform", xform, "-xzf", archive); err != nil {
		return errors.WrapWithContext(errors.ErrCodePrivilegedCommand,
			fmt.Sprintf("failed to extract %s to %s, downloaded from %s", archive, dst, u), err,
			map[string]any{"url": u, "archive": archive, "dir": dst})
	}
	return os.Remove(archive)
}
