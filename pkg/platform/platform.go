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

package platform

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Family is the Linux distribution family that selects an installer.
type Family int

const (
	// FamilyUnknown is any distribution without a supported installer.
	FamilyUnknown Family = iota
	// FamilyDebian covers Debian, Ubuntu and Mint.
	FamilyDebian
	// FamilyRHEL covers Red Hat, CentOS and Fedora.
	FamilyRHEL
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyDebian:
		return "debian"
	case FamilyRHEL:
		return "rhel"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so families serialize by name.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized names
// decode to FamilyUnknown.
func (f *Family) UnmarshalText(b []byte) error {
	switch NormalizeID(string(b)) {
	case "debian":
		*f = FamilyDebian
	case "rhel":
		*f = FamilyRHEL
	default:
		*f = FamilyUnknown
	}
	return nil
}

// familyIDs maps normalized os-release IDs to their family.
var familyIDs = map[string]Family{
	"debian":    FamilyDebian,
	"ubuntu":    FamilyDebian,
	"mint":      FamilyDebian,
	"linuxmint": FamilyDebian,
	"redhat":    FamilyRHEL,
	"rhel":      FamilyRHEL,
	"centos":    FamilyRHEL,
	"fedora":    FamilyRHEL,
}

var lower = cases.Lower(language.Und)

// NormalizeID folds a distribution identifier for family matching.
func NormalizeID(id string) string {
	return lower.String(strings.TrimSpace(id))
}

// FamilyOf resolves the family from an os-release ID, falling back to the
// ID_LIKE entries in order.
func FamilyOf(id string, idLike []string) Family {
	if f, ok := familyIDs[NormalizeID(id)]; ok {
		return f
	}
	for _, like := range idLike {
		if f, ok := familyIDs[NormalizeID(like)]; ok {
			return f
		}
	}
	return FamilyUnknown
}

// HostInfo describes the managed host's distribution.
type HostInfo struct {
	// ID is the normalized os-release ID (e.g. "ubuntu").
	ID string `json:"id" yaml:"id"`
	// Name is the human readable distribution name (e.g. "Ubuntu").
	Name string `json:"name" yaml:"name"`
	// VersionID is the numeric release version (e.g. "12.04"), empty on rolling releases.
	VersionID string `json:"versionID,omitempty" yaml:"versionID,omitempty"`
	// Codename is the release codename (e.g. "precise" or "bookworm/sid").
	Codename string `json:"codename,omitempty" yaml:"codename,omitempty"`
	// IDLike lists related distribution IDs.
	IDLike []string `json:"idLike,omitempty" yaml:"idLike,omitempty"`
	// Family is the installer family.
	Family Family `json:"family" yaml:"family"`
}

// String returns the (name, codename, version) triple.
func (h HostInfo) String() string {
	return fmt.Sprintf("(%s, %s, %s)", h.Name, h.Codename, h.VersionID)
}

// Detect reads the local os-release file and returns the host description.
func Detect() (HostInfo, error) {
	rel, err := ReadRelease()
	if err != nil {
		return HostInfo{}, err
	}
	return NewHostInfo(rel), nil
}

// NewHostInfo builds a HostInfo from parsed os-release values.
func NewHostInfo(rel map[string]string) HostInfo {
	h := HostInfo{
		ID:        NormalizeID(rel["ID"]),
		Name:      rel["NAME"],
		VersionID: rel["VERSION_ID"],
		IDLike:    strings.Fields(rel["ID_LIKE"]),
		Codename:  codename(rel),
	}
	h.Family = FamilyOf(h.ID, h.IDLike)
	return h
}

// codename prefers a "<name>/sid" token from PRETTY_NAME, which testing and
// unstable Debian releases use, then the explicit codename keys, then the
// word inside VERSION's parentheses or after its comma.
func codename(rel map[string]string) string {
	for _, tok := range strings.Fields(rel["PRETTY_NAME"]) {
		if strings.HasSuffix(tok, "/sid") {
			return tok
		}
	}
	for _, key := range []string{"VERSION_CODENAME", "UBUNTU_CODENAME"} {
		if v := rel[key]; v != "" {
			return NormalizeID(v)
		}
	}

	v := rel["VERSION"]
	if i := strings.Index(v, "("); i >= 0 {
		if j := strings.Index(v[i:], ")"); j > 0 {
			return firstWord(v[i+1 : i+j])
		}
	}
	if i := strings.Index(v, ","); i >= 0 {
		return firstWord(v[i+1:])
	}
	return ""
}

func firstWord(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return NormalizeID(f[0])
}
