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
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
	"github.com/NVIDIA/puppet-provisioner/pkg/fetch"
	"github.com/NVIDIA/puppet-provisioner/pkg/lock"
	"github.com/NVIDIA/puppet-provisioner/pkg/platform"
	"github.com/NVIDIA/puppet-provisioner/pkg/privileged"
	"github.com/NVIDIA/puppet-provisioner/pkg/workflow"
)

// State is the lifecycle position of a Manager.
type State int

const (
	StateCreated State = iota
	StateInstalled
	StateConfigured
	StateRan
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInstalled:
		return "installed"
	case StateConfigured:
		return "configured"
	case StateRan:
		return "ran"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Locker runs fn while holding the lock described by spec.
type Locker interface {
	With(ctx context.Context, spec lock.Spec, fn func(context.Context) error) error
}

// Manager drives install, configure and run for one workflow step. It
// composes the Installer chosen by distribution family with the Runner
// chosen by configuration, and is used once.
type Manager struct {
	wctx      workflow.Context
	cfg       *Config
	host      platform.HostInfo
	hostSet   bool
	installer Installer
	runner    Runner

	exec    privileged.Executor
	fetcher fetch.Fetcher
	locker  Locker
	lister  ModuleLister
	dirs    Dirs
	tmpDir  string
	clock   func() time.Time
	logger  *slog.Logger

	runID string
	state State
}

// Option configures a Manager.
type Option func(*Manager)

// WithHost skips os-release detection.
func WithHost(host platform.HostInfo) Option {
	return func(m *Manager) {
		m.host = host
		m.hostSet = true
	}
}

// WithExecutor sets the privileged executor.
func WithExecutor(exec privileged.Executor) Option {
	return func(m *Manager) {
		m.exec = exec
	}
}

// WithFetcher sets the HTTP fetcher.
func WithFetcher(f fetch.Fetcher) Option {
	return func(m *Manager) {
		m.fetcher = f
	}
}

// WithLocker sets the cross-process locker.
func WithLocker(l Locker) Option {
	return func(m *Manager) {
		m.locker = l
	}
}

// WithModuleLister replaces `puppet module list` parsing.
func WithModuleLister(l ModuleLister) Option {
	return func(m *Manager) {
		m.lister = l
	}
}

// WithDirs overrides the host directories.
func WithDirs(d Dirs) Option {
	return func(m *Manager) {
		m.dirs = d
	}
}

// WithTempDir sets where per-run facts, scripts and downloads are written.
func WithTempDir(dir string) Option {
	return func(m *Manager) {
		m.tmpDir = dir
	}
}

// WithClock sets the time source used for certificate names.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager validates puppet_config from wctx and selects the installer
// and runner for this host.
func NewManager(wctx workflow.Context, opts ...Option) (*Manager, error) {
	if wctx == nil {
		return nil, errors.New(errors.ErrCodeInvalidParams, "workflow context is required")
	}

	m := &Manager{
		wctx:   wctx,
		dirs:   DefaultDirs(),
		clock:  time.Now,
		logger: slog.Default(),
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("run_id", m.runID, "node_id", wctx.NodeID())

	if m.exec == nil {
		m.exec = privileged.NewSudo(privileged.WithLogger(m.logger), privileged.WithTempDir(m.tmpDir))
	}
	if m.fetcher == nil {
		m.fetcher = fetch.NewClient()
	}
	if m.locker == nil {
		m.locker = lock.NewLocker(lock.WithLogger(m.logger))
	}
	if m.lister == nil {
		m.lister = cliModuleLister{exec: m.exec}
	}
	if !m.hostSet {
		host, err := platform.Detect()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDistroDetection, "failed to detect host platform", err)
		}
		m.host = host
	}

	cfg, err := ConfigFromProperties(wctx.Properties())
	if err != nil {
		return nil, err
	}
	m.cfg = cfg

	m.installer, err = selectInstaller(installers, m.host, installerDeps{
		exec:    m.exec,
		fetcher: m.fetcher,
		tmpDir:  m.tmpDir,
		logger:  m.logger,
	})
	if err != nil {
		return nil, err
	}

	m.runner, err = selectRunner(runnerDeps{
		cfg:     cfg,
		wctx:    wctx,
		exec:    m.exec,
		fetcher: m.fetcher,
		lister:  m.lister,
		dirs:    m.dirs,
		tmpDir:  m.tmpDir,
		clock:   m.clock,
		logger:  m.logger,
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("puppet manager assembled",
		"family", m.installer.Family().String(), "mode", string(m.runner.Mode()), "host", m.host.String())
	return m, nil
}

// RunID identifies this Manager in logs.
func (m *Manager) RunID() string { return m.runID }

// Mode returns the selected runner mode.
func (m *Manager) Mode() Mode { return m.runner.Mode() }

// Family returns the selected installer family.
func (m *Manager) Family() platform.Family { return m.installer.Family() }

// State returns the current lifecycle state.
func (m *Manager) State() State { return m.state }

// Config returns the decoded puppet_config.
func (m *Manager) Config() *Config { return m.cfg }

func (m *Manager) advance(to State) {
	if to > m.state {
		m.state = to
	}
}

func (m *Manager) checkReusable(op string) error {
	if m.state == StateRan {
		return errors.NewWithContext(errors.ErrCodeInternalLogic,
			fmt.Sprintf("cannot %s: manager %s has already run", op, m.runID),
			map[string]any{"state": m.state.String()})
	}
	return nil
}

// IsInstalled reports whether puppet is on root's PATH.
func (m *Manager) IsInstalled(ctx context.Context) bool {
	return m.exec.Available(ctx, "puppet")
}

// Install installs the puppet packages under the install lock. It is a
// no-op when puppet is already installed.
func (m *Manager) Install(ctx context.Context) error {
	if err := m.checkReusable("install"); err != nil {
		return err
	}
	if err := m.locker.With(ctx, lock.InstallSpec, m.install); err != nil {
		return err
	}
	m.advance(StateInstalled)
	return nil
}

func (m *Manager) install(ctx context.Context) (err error) {
	family := m.installer.Family().String()
	result := "installed"
	defer func() {
		if err != nil {
			result = "error"
		}
		installsTotal.WithLabelValues(family, result).Inc()
	}()

	if m.IsInstalled(ctx) {
		m.logger.Info("not installing puppet as it's already installed")
		result = "skipped"
		return nil
	}

	url, err := m.installer.RepoPackageURL(m.host, m.cfg)
	if err != nil {
		return err
	}
	if err := m.fetcher.Head(ctx, url); err != nil {
		return err
	}

	m.logger.Info("installing repository package", "url", url)
	if err := m.installer.InstallPackageFromURL(ctx, url); err != nil {
		return err
	}
	if err := m.installer.RefreshPackageIndex(ctx); err != nil {
		return err
	}
	for _, p := range []string{"puppet-common", "puppet"} {
		if err := m.installer.InstallPackage(ctx, p, m.cfg.PackageVersion()); err != nil {
			return err
		}
	}
	for _, p := range m.installer.ExtraPackages() {
		if err := m.installer.InstallPackage(ctx, p, ""); err != nil {
			return err
		}
	}

	dirs := m.dirs.all()
	if _, err := m.exec.Run(ctx, "mkdir", append([]string{"-p"}, dirs...)...); err != nil {
		return err
	}
	if _, err := m.exec.Run(ctx, "chmod", append([]string{"700"}, dirs...)...); err != nil {
		return err
	}

	dst := m.dirs.CustomFactsPath()
	m.logger.Info("installing custom facts", "path", dst)
	return m.exec.WriteFile(ctx, dst, customFactsScript)
}

// Configure runs the mode-specific configuration under the configure lock.
func (m *Manager) Configure(ctx context.Context) error {
	if err := m.checkReusable("configure"); err != nil {
		return err
	}
	if err := m.locker.With(ctx, lock.ConfigSpec, m.runner.Configure); err != nil {
		return err
	}
	m.advance(StateConfigured)
	return nil
}

// resolveOptions falls back to puppet_config's execute and manifest when
// the caller gives neither.
func (m *Manager) resolveOptions(opts RunOptions) RunOptions {
	if opts.Execute == "" && opts.Manifest == "" {
		opts.Execute = m.cfg.Execute
		opts.Manifest = m.cfg.Manifest
	}
	return opts
}

// Plan is what a run would execute.
type Plan struct {
	RunID   string          `json:"runID" yaml:"runID"`
	Mode    Mode            `json:"mode" yaml:"mode"`
	Family  platform.Family `json:"family" yaml:"family"`
	Command string          `json:"command" yaml:"command"`
	Facts   map[string]any  `json:"facts" yaml:"facts"`
	Script  string          `json:"script" yaml:"script"`
}

// planFactsFile stands in for the facts file path in a Plan's script.
const planFactsFile = "<facts-file>"

// Plan builds the facts, command and run script for opts without touching
// the host.
func (m *Manager) Plan(opts RunOptions) (*Plan, error) {
	opts = m.resolveOptions(opts)
	facts, command, err := m.prepare(opts)
	if err != nil {
		return nil, err
	}
	script, err := m.script(planFactsFile, command)
	if err != nil {
		return nil, err
	}
	return &Plan{
		RunID:   m.runID,
		Mode:    m.runner.Mode(),
		Family:  m.installer.Family(),
		Command: command,
		Facts:   facts,
		Script:  script,
	}, nil
}

// Facts returns the facts bundle a run would write.
func (m *Manager) Facts() (map[string]any, error) {
	return BuildFacts(m.cfg.Facts, m.wctx)
}

func (m *Manager) prepare(opts RunOptions) (map[string]any, string, error) {
	if err := ValidateTags(opts.Tags); err != nil {
		return nil, "", err
	}
	facts, err := BuildFacts(m.cfg.Facts, m.wctx)
	if err != nil {
		return nil, "", err
	}
	args, err := m.runner.Args(opts)
	if err != nil {
		return nil, "", err
	}
	return facts, BuildCommand(args, opts.Tags), nil
}

func (m *Manager) script(factsFile, command string) (string, error) {
	return RenderRunScript(RunScript{
		FactsLib:  m.dirs.CustomFacts,
		FactsFile: factsFile,
		Env:       envVars(m.runner.Env()),
		Command:   command,
	})
}

// Run installs, configures and runs puppet once. A puppet failure is a
// PUPPET_RUN error wrapping the script's PRIVILEGED_COMMAND error. The facts
// file and run script are removed only when the run succeeds.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (err error) {
	if err := m.checkReusable("run"); err != nil {
		return err
	}
	opts = m.resolveOptions(opts)
	if err := ValidateTags(opts.Tags); err != nil {
		return err
	}

	mode := string(m.runner.Mode())
	start := time.Now()
	outcome := "error"
	defer func() {
		runDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
		runsTotal.WithLabelValues(mode, outcome).Inc()
	}()

	if err := m.Install(ctx); err != nil {
		return err
	}
	if err := m.Configure(ctx); err != nil {
		return err
	}

	facts, command, err := m.prepare(opts)
	if err != nil {
		return err
	}

	prefix := artifactPrefix(m.wctx)
	factsFile, err := WriteFacts(m.tmpDir, prefix, facts)
	if err != nil {
		return err
	}
	script, err := m.script(factsFile, command)
	if err != nil {
		return err
	}
	scriptFile, err := writeTemp(m.tmpDir, prefix+"*.run.sh", []byte(script), 0o700)
	if err != nil {
		return err
	}

	m.state = StateRan
	if _, err := m.exec.Run(ctx, "chmod", "+x", scriptFile); err != nil {
		return err
	}
	m.logger.Info("running puppet", "command", command, "script", scriptFile)

	if _, err := m.exec.Run(ctx, scriptFile); err != nil {
		code, ok := errors.ContextValue(err, "exit_code")
		if c, isInt := code.(int); ok && isInt && (c == 1 || c == 4) {
			o := outcomeOfScriptExit(c)
			outcome = string(o)
			return errors.WrapWithContext(errors.ErrCodePuppetRun,
				fmt.Sprintf("puppet run failed (%s, exit code %d)", o, c), err,
				map[string]any{"outcome": string(o), "exit_code": c, "facts_file": factsFile, "script": scriptFile})
		}
		return err
	}
	outcome = string(OutcomeSuccess)

	for _, f := range []string{factsFile, scriptFile} {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to remove run artifact", "path", f, "error", err)
		}
	}
	m.logger.Info("puppet run succeeded")
	return nil
}
