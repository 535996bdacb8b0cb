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
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
	"github.com/NVIDIA/puppet-provisioner/pkg/platform"
	"github.com/NVIDIA/puppet-provisioner/pkg/privileged"
)

func TestSelectInstaller(t *testing.T) {
	deps := installerDeps{exec: privileged.NewRecorder(), logger: discardLogger()}

	inst, err := selectInstaller(installers, ubuntuPrecise, deps)
	require.NoError(t, err)
	assert.Equal(t, platform.FamilyDebian, inst.Family())
	assert.Empty(t, inst.ExtraPackages())

	inst, err = selectInstaller(installers, centos7, deps)
	require.NoError(t, err)
	assert.Equal(t, platform.FamilyRHEL, inst.Family())
	assert.Equal(t, []string{"rubygem-json"}, inst.ExtraPackages())
}

func TestSelectInstaller_ZeroOrManyMatches(t *testing.T) {
	deps := installerDeps{exec: privileged.NewRecorder(), logger: discardLogger()}

	_, err := selectInstaller(installers, platform.HostInfo{ID: "arch", Family: platform.FamilyUnknown}, deps)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternalLogic))

	duplicated := append(append([]installerDescriptor{}, installers...), installers[0])
	_, err = selectInstaller(duplicated, ubuntuPrecise, deps)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternalLogic))
	assert.Contains(t, err.Error(), "2 matched")
}

func TestInstallerTableCoversEveryFamily(t *testing.T) {
	seen := map[platform.Family]int{}
	for _, d := range installers {
		seen[d.family]++
	}
	assert.Equal(t, map[platform.Family]int{platform.FamilyDebian: 1, platform.FamilyRHEL: 1}, seen)
}

func TestDebianRepoPackageURL(t *testing.T) {
	i := &debianInstaller{}
	empty := &Config{}

	u, err := i.RepoPackageURL(ubuntuPrecise, empty)
	require.NoError(t, err)
	assert.Equal(t, "http://apt.puppetlabs.com/puppetlabs-release-12.04.deb", u)

	override := &Config{Repos: map[string]map[string]string{"deb": {"12.04": "http://mirror.local/precise.deb"}}}
	u, err = i.RepoPackageURL(ubuntuPrecise, override)
	require.NoError(t, err)
	assert.Equal(t, "http://mirror.local/precise.deb", u)

	sid := platform.HostInfo{ID: "debian", Name: "Debian GNU/Linux", Codename: "bookworm/sid", Family: platform.FamilyDebian}
	u, err = i.RepoPackageURL(sid, empty)
	require.NoError(t, err)
	assert.Equal(t, "http://apt.puppetlabs.com/puppetlabs-release-sid.deb", u)

	noVersion := platform.HostInfo{ID: "debian", Codename: "trixie", Family: platform.FamilyDebian}
	_, err = i.RepoPackageURL(noVersion, empty)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDistroDetection))
}

func TestRHELRepoPackageURL_Unsupported(t *testing.T) {
	_, err := (&rhelInstaller{}).RepoPackageURL(centos7, &Config{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupported))
}

func TestInstallPackage_PinSyntax(t *testing.T) {
	ctx := context.Background()
	rec := privileged.NewRecorder()
	deps := installerDeps{exec: rec, logger: discardLogger()}

	deb := &debianInstaller{deps}
	require.NoError(t, deb.InstallPackage(ctx, "puppet", "3.5.1-1puppetlabs1"))
	require.NoError(t, deb.InstallPackage(ctx, "ruby", ""))
	require.NoError(t, deb.RefreshPackageIndex(ctx))

	rhel := &rhelInstaller{deps}
	require.NoError(t, rhel.InstallPackage(ctx, "puppet", "3.5.1-1"))
	require.NoError(t, rhel.InstallPackage(ctx, "rubygem-json", ""))
	require.NoError(t, rhel.RefreshPackageIndex(ctx))
	require.NoError(t, rhel.InstallPackageFromURL(ctx, "http://yum.example/puppet.rpm"))

	assert.Equal(t, []string{
		"apt-get install -y puppet=3.5.1-1puppetlabs1",
		"apt-get install -y ruby",
		"apt-get update",
		"yum install -y puppet-3.5.1-1",
		"yum install -y rubygem-json",
		"rpm -ivh http://yum.example/puppet.rpm",
	}, rec.Commands)
}

func TestDebianInstallPackageFromURL(t *testing.T) {
	env := newTestEnv(t)
	deb := &debianInstaller{installerDeps{exec: env.rec, fetcher: env.fetcher, tmpDir: env.tmpDir, logger: discardLogger()}}

	require.NoError(t, deb.InstallPackageFromURL(context.Background(), "http://apt.puppetlabs.com/puppetlabs-release-12.04.deb"))

	assert.Equal(t, []string{"http://apt.puppetlabs.com/puppetlabs-release-12.04.deb"}, env.fetcher.downloads)
	require.Len(t, env.rec.Commands, 1)
	assert.True(t, strings.HasPrefix(env.rec.Commands[0], "dpkg -i "+env.tmpDir))
	assert.True(t, strings.HasSuffix(env.rec.Commands[0], ".puppetlabs-release-12.04.deb"))
	assert.Empty(t, env.tmpFiles(t), "package file is removed after install")
}

func TestDebianInstallPackageFromURL_KeepsFileOnFailure(t *testing.T) {
	env := newTestEnv(t)
	env.rec.Responses["dpkg"] = privileged.Response{ExitCode: 1, Stderr: "corrupt"}
	deb := &debianInstaller{installerDeps{exec: env.rec, fetcher: env.fetcher, tmpDir: env.tmpDir, logger: discardLogger()}}

	err := deb.InstallPackageFromURL(context.Background(), "http://apt.puppetlabs.com/puppetlabs-release-12.04.deb")
	assert.True(t, errors.HasCode(err, errors.ErrCodePrivilegedCommand))

	files := env.tmpFiles(t)
	require.Len(t, files, 1)
	b, err := os.ReadFile(env.tmpDir + "/" + files[0])
	require.NoError(t, err)
	assert.Equal(t, "archive", string(b))
}
