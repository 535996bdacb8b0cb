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
	"path"
	"strings"

	"github.com/NVIDIA/puppet-provisioner/pkg/defaults"
	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
	"github.com/NVIDIA/puppet-provisioner/pkg/fetch"
	"github.com/NVIDIA/puppet-provisioner/pkg/platform"
	"github.com/NVIDIA/puppet-provisioner/pkg/privileged"
)

// Installer is the platform-specific half of package installation.
type Installer interface {
	// Family is the distribution family the installer serves.
	Family() platform.Family
	// RepoPackageURL resolves the repository package that configures the
	// Puppet package source on host.
	RepoPackageURL(host platform.HostInfo, cfg *Config) (string, error)
	// InstallPackageFromURL installs a package file published at url.
	InstallPackageFromURL(ctx context.Context, url string) error
	// RefreshPackageIndex updates the package manager's index.
	RefreshPackageIndex(ctx context.Context) error
	// InstallPackage installs name, pinned to version when version is not
	// empty. version is passed to the package manager unchanged and must be
	// trusted.
	InstallPackage(ctx context.Context, name, version string) error
	// ExtraPackages lists packages installed unpinned after puppet itself.
	ExtraPackages() []string
}

// installerDeps are the helpers every installer variant shares.
type installerDeps struct {
	exec    privileged.Executor
	fetcher fetch.Fetcher
	tmpDir  string
	logger  *slog.Logger
}

// installerDescriptor is one row of the installer table.
type installerDescriptor struct {
	family platform.Family
	build  func(installerDeps) Installer
}

// installers is keyed by distribution family. Every Family except
// FamilyUnknown must appear exactly once.
var installers = []installerDescriptor{
	{family: platform.FamilyDebian, build: func(d installerDeps) Installer { return &debianInstaller{d} }},
	{family: platform.FamilyRHEL, build: func(d installerDeps) Installer { return &rhelInstaller{d} }},
}

// selectInstaller returns the single installer handling host. Zero or
// several matches mean the table is out of date.
func selectInstaller(table []installerDescriptor, host platform.HostInfo, deps installerDeps) (Installer, error) {
	var found []installerDescriptor
	for _, d := range table {
		if d.family == host.Family {
			found = append(found, d)
		}
	}
	if len(found) != 1 {
		return nil, errors.NewWithContext(errors.ErrCodeInternalLogic,
			fmt.Sprintf("failed to find a single puppet installer for %s (%d matched)", host, len(found)),
			map[string]any{"family": host.Family.String(), "distribution": host.ID, "matches": len(found)})
	}
	return found[0].build(deps), nil
}

// debianInstaller covers Debian, Ubuntu and Mint through dpkg and apt-get.
type debianInstaller struct {
	installerDeps
}

func (i *debianInstaller) Family() platform.Family { return platform.FamilyDebian }

func (i *debianInstaller) ExtraPackages() []string { return nil }

// RepoPackageURL prefers the numeric release (e.g. 12.04). Testing and
// unstable releases have none and map to "sid".
func (i *debianInstaller) RepoPackageURL(host platform.HostInfo, cfg *Config) (string, error) {
	var release string
	switch {
	case host.VersionID != "":
		release = host.VersionID
	case strings.HasSuffix(host.Codename, "/sid"):
		release = "sid"
	default:
		return "", errors.NewWithContext(errors.ErrCodeDistroDetection,
			fmt.Sprintf("failed to detect Linux distribution version of %s", host),
			map[string]any{"distribution": host.ID, "codename": host.Codename})
	}

	if u := cfg.RepoOverride("deb", release); u != "" {
		return u, nil
	}
	return fmt.Sprintf(defaults.DebRepoPackageURLTemplate, release), nil
}

// InstallPackageFromURL downloads the package and installs it with dpkg.
// The download is removed only after a successful install.
func (i *debianInstaller) InstallPackageFromURL(ctx context.Context, rawURL string) error {
	name := "package.deb"
	if u, err := url.Parse(rawURL); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		name = path.Base(u.Path)
	}

	f, err := os.CreateTemp(i.tmpDir, "*."+name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create package temp file", err)
	}
	pkgFile := f.Name()
	f.Close()
	i.logger.Info("using temp file for package installation", "path", pkgFile)

	if err := i.fetcher.Download(ctx, rawURL, pkgFile); err != nil {
		return err
	}
	if _, err := i.exec.Run(ctx, "dpkg", "-i", pkgFile); err != nil {
		return err
	}
	return os.Remove(pkgFile)
}

func (i *debianInstaller) RefreshPackageIndex(ctx context.Context) error {
	_, err := i.exec.Run(ctx, "apt-get", "update")
	return err
}

func (i *debianInstaller) InstallPackage(ctx context.Context, name, version string) error {
	if version != "" {
		name += "=" + version
	}
	_, err := i.exec.Run(ctx, "apt-get", "install", "-y", name)
	return err
}

// rhelInstaller covers Red Hat, CentOS and Fedora through rpm and yum.
type rhelInstaller struct {
	installerDeps
}

func (i *rhelInstaller) Family() platform.Family { return platform.FamilyRHEL }

func (i *rhelInstaller) ExtraPackages() []string { return []string{"rubygem-json"} }

// RepoPackageURL is not available for RHEL hosts yet.
func (i *rhelInstaller) RepoPackageURL(host platform.HostInfo, _ *Config) (string, error) {
	return "", errors.NewWithContext(errors.ErrCodeUnsupported,
		fmt.Sprintf("puppet repository package resolution is not supported yet on %s", host),
		map[string]any{"family": platform.FamilyRHEL.String(), "distribution": host.ID})
}

// InstallPackageFromURL lets rpm fetch the package itself.
func (i *rhelInstaller) InstallPackageFromURL(ctx context.Context, url string) error {
	_, err := i.exec.Run(ctx, "rpm", "-ivh", url)
	return err
}

func (i *rhelInstaller) RefreshPackageIndex(context.Context) error { return nil }

func (i *rhelInstaller) InstallPackage(ctx context.Context, name, version string) error {
	if version != "" {
		name += "-" + version
	}
	_, err := i.exec.Run(ctx, "yum", "install", "-y", name)
	return err
}
