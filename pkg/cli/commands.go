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
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
	"github.com/NVIDIA/puppet-provisioner/pkg/lock"
	"github.com/NVIDIA/puppet-provisioner/pkg/platform"
	"github.com/NVIDIA/puppet-provisioner/pkg/puppet"
	"github.com/NVIDIA/puppet-provisioner/pkg/serializer"
	"github.com/NVIDIA/puppet-provisioner/pkg/workflow"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write output to this file instead of stdout",
	}
}

func formatFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Value: value,
		Usage: fmt.Sprintf("Output format (supported values: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func installCmd(rt runtime) *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Install the Puppet agent packages unless already installed",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := rt.newManager(cmd)
			if err != nil {
				return err
			}
			return m.Install(ctx)
		},
	}
}

func configureCmd(rt runtime) *cli.Command {
	return &cli.Command{
		Name:  "configure",
		Usage: "Write puppet.conf (agent) or fetch modules and downloads (standalone)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := rt.newManager(cmd)
			if err != nil {
				return err
			}
			return m.Configure(ctx)
		},
	}
}

func runCmd(rt runtime) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Install, configure and run Puppet once",
		Description: `Runs the full provisioning sequence. --execute and --manifest override
puppet_config for standalone runs; --execute wins when both are given.

With --dry-run nothing is installed or executed: the facts, command and
run script are printed instead.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "tag",
				Usage: "Limit the run to resources with this tag (can be repeated)",
			},
			&cli.StringFlag{
				Name:  "execute",
				Usage: "Inline manifest to apply (standalone mode)",
			},
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "Manifest path relative to the local repository (standalone mode)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the run plan without touching the host",
			},
			formatFlag(string(serializer.FormatYAML)),
			outputFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := rt.newManager(cmd)
			if err != nil {
				return err
			}
			opts := puppet.RunOptions{
				Tags:     cmd.StringSlice("tag"),
				Execute:  cmd.String("execute"),
				Manifest: cmd.String("manifest"),
			}
			if cmd.Bool("dry-run") {
				plan, err := m.Plan(opts)
				if err != nil {
					return err
				}
				return writeOutput(ctx, cmd, plan)
			}
			return m.Run(ctx, opts)
		},
	}
}

// detection is the detect command's report.
type detection struct {
	Host      platform.HostInfo `json:"host" yaml:"host"`
	Supported bool              `json:"supported" yaml:"supported"`
}

func detectCmd(rt runtime) *cli.Command {
	return &cli.Command{
		Name:  "detect",
		Usage: "Show the detected distribution and whether it is supported",
		Flags: []cli.Flag{
			formatFlag(string(serializer.FormatTable)),
			outputFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			host, err := rt.detect()
			if err != nil {
				return errors.Wrap(errors.ErrCodeDistroDetection, "failed to detect host platform", err)
			}
			return writeOutput(ctx, cmd, detection{
				Host:      host,
				Supported: host.Family != platform.FamilyUnknown,
			})
		},
	}
}

func factsCmd(rt runtime) *cli.Command {
	return &cli.Command{
		Name:  "facts",
		Usage: "Print the facts bundle a run would expose to Puppet",
		Flags: []cli.Flag{
			formatFlag(string(serializer.FormatJSON)),
			outputFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := rt.newManager(cmd)
			if err != nil {
				return err
			}
			facts, err := m.Facts()
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, facts)
		},
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintf(cmd.Root().Writer, "%s %s\ncommit: %s\nbuilt:  %s\n", name, version, commit, date)
			return err
		},
	}
}

// newManager loads the context document and assembles a Manager with the
// lock directory from the command line.
func (rt runtime) newManager(cmd *cli.Command) (*puppet.Manager, error) {
	path := cmd.String("context")
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidParams, "--context or PUPPETCTL_CONTEXT is required")
	}
	wctx, err := workflow.LoadFile(path)
	if err != nil {
		return nil, err
	}

	lockOpts := []lock.Option{lock.WithLogger(slog.Default())}
	if dir := cmd.String("lock-dir"); dir != "" {
		lockOpts = append(lockOpts, lock.WithDir(dir))
	}
	opts := []puppet.Option{
		puppet.WithLogger(slog.Default()),
		puppet.WithLocker(lock.NewLocker(lockOpts...)),
	}
	return puppet.NewManager(wctx, append(opts, rt.options...)...)
}

func writeOutput(ctx context.Context, cmd *cli.Command, v any) error {
	format, err := serializer.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	w, err := serializer.NewFileWriter(format, cmd.String("output"), cmd.Root().Writer)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("failed to close output", "error", err)
		}
	}()
	return w.Serialize(ctx, v)
}
