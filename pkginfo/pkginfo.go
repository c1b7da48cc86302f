// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pkginfo reports the build provenance of the pvwarehouse binary.
// Release builds stamp the package variables with ldflags; when the stamps
// are absent the values are recovered from the VCS metadata the Go
// toolchain embeds in the binary.
package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/rs/zerolog/log"
)

// set via -ldflags "-X github.com/penny-vault/pvwarehouse/pkginfo.Version=..."
var (
	BuildDate  string
	CommitHash string
	Version    string
)

// buildSetting returns the named key from the embedded build settings.
func buildSetting(info *debug.BuildInfo, key string) string {
	if info == nil {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

// VersionString resolves the binary's version. The ldflags stamp wins;
// otherwise the main module version from the build info is used, with
// "dev" as the final fallback for unstamped local builds.
func VersionString() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// CommitString resolves the commit the binary was built from, preferring
// the ldflags stamp over the embedded vcs.revision. A dirty worktree is
// marked with a "+dirty" suffix.
func CommitString() string {
	if CommitHash != "" {
		return CommitHash
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	commit := buildSetting(info, "vcs.revision")
	if commit == "" {
		return "unknown"
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if buildSetting(info, "vcs.modified") == "true" {
		commit += "+dirty"
	}

	return commit
}

// BuildDateString resolves when the binary was built, preferring the
// ldflags stamp over the embedded vcs.time.
func BuildDateString() string {
	if BuildDate != "" {
		return BuildDate
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if date := buildSetting(info, "vcs.time"); date != "" {
		return date
	}

	return "unknown"
}

// BuildVersionString returns a version info string suitable for printing on the command line
func BuildVersionString() string {
	osArch := runtime.GOOS + "/" + runtime.GOARCH
	goVersion := runtime.Version()

	versionString := fmt.Sprintf(`pvwarehouse %s %s

Build Date: %s
Commit: %s
Built with: %s`, VersionString(), osArch, BuildDateString(), CommitString(), goVersion)

	return versionString
}

// GetDependencyList returns an array of all dependencies linked in with this program
// each string is of the form `package="version"`
func GetDependencyList() []string {
	var deps []string

	formatDep := func(path, version string) string {
		return fmt.Sprintf("%s=%q", path, version)
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		log.Error().Msg("could not get package build info")
		return deps
	}

	for _, dep := range buildInfo.Deps {
		deps = append(deps, formatDep(dep.Path, dep.Version))
	}

	sort.Strings(deps)

	return deps
}
