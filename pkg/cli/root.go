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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/puppet-provisioner/pkg/logging"
	"github.com/NVIDIA/puppet-provisioner/pkg/platform"
	"github.com/NVIDIA/puppet-provisioner/pkg/puppet"
)

const (
	name           = "puppetctl"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// runtime holds what commands take from the host. Tests swap it for fakes.
type runtime struct {
	detect  func() (platform.HostInfo, error)
	options []puppet.Option
}

func defaultRuntime() runtime {
	return runtime{detect: platform.Detect}
}

// Execute runs the puppetctl command line and exits with ExitCode on error.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())

	// Handle SIGINT/SIGTERM so running subprocesses are stopped
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, stopping...")
		cancel()
	}()

	err := newRootCmd(defaultRuntime()).Run(ctx, os.Args)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitCode(err))
	}
}

func newRootCmd(rt runtime) *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Install, configure and run the Puppet agent on this host",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Description: `puppetctl provisions a node with Puppet from a workflow context document.

The context document (--context) carries the node identity and its
puppet_config property. A puppet_config with a "server" key runs
"puppet agent" against that server; otherwise "execute" or "manifest"
is applied locally with "puppet apply".

Exit codes: 0 success, 1 failure, 2 invalid configuration, 4 puppet run failure.`,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "context",
				Aliases: []string{"c"},
				Usage:   "Path to the workflow context document (YAML or JSON)",
				Sources: cli.EnvVars("PUPPETCTL_CONTEXT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars(logging.EnvVarLogLevel),
			},
			&cli.BoolFlag{
				Name:  "log-journal",
				Usage: "Mirror log records into the systemd journal when it is available",
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "Write Prometheus metrics in text format to this file on exit",
				Sources: cli.EnvVars("PUPPETCTL_METRICS_FILE"),
			},
			&cli.StringFlag{
				Name:    "lock-dir",
				Usage:   "Directory for the install and configure lock files",
				Sources: cli.EnvVars("TMPDIR"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			initLogger(cmd.String("log-level"), cmd.Bool("log-journal"))
			return ctx, nil
		},
		After: func(_ context.Context, cmd *cli.Command) error {
			return writeMetrics(cmd.String("metrics-file"))
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			installCmd(rt),
			configureCmd(rt),
			runCmd(rt),
			detectCmd(rt),
			factsCmd(rt),
			versionCmd(),
		},
	}
}

// initLogger installs the default logger once flags are parsed so
// --log-level applies before any command executes.
func initLogger(level string, journal bool) {
	if journal {
		logging.SetDefaultLogger(logging.NewStructuredLoggerWithJournal(name, version, level))
	} else {
		logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	}
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"logLevel", level)
}
