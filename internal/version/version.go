// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version provides the version information for the harness binary.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// These constants define the application version.
const (
	major = 0
	minor = 1
	patch = 0
)

// preRelease contains the pre-release name of the application.  It is a
// variable so it can be modified at link time (e.g.
// `-ldflags "-X github.com/bitcash-dev/cdsharness/internal/version.preRelease=rc1"`).
// It must only contain characters from the semantic version alphabet.
var preRelease = "pre"

// semanticAlphabet defines the allowed characters for the pre-release and
// build metadata portions of a semantic version string.
const semanticAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

// normalizeSemString returns the passed string stripped of all characters
// which are not valid according to the given semantic versioning alphabet.
func normalizeSemString(str, alphabet string) string {
	var result strings.Builder
	for _, r := range str {
		if strings.ContainsRune(alphabet, r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// vcsCommitID attempts to return the version control system short commit hash
// that was used to build the binary.  It currently only detects git commits.
func vcsCommitID() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var vcs, revision string
	for _, bs := range bi.Settings {
		switch bs.Key {
		case "vcs":
			vcs = bs.Value
		case "vcs.revision":
			revision = bs.Value
		}
	}
	if vcs != "git" {
		return ""
	}
	if len(revision) > 9 {
		revision = revision[:9]
	}
	return revision
}

// version is the cached full semantic version string built by init.
var version string

func init() {
	version = fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if preRelease != "" {
		version += "-" + normalizeSemString(preRelease, semanticAlphabet)
	}
	if commit := vcsCommitID(); commit != "" {
		version += "+" + normalizeSemString(commit, semanticAlphabet)
	}
}

// String returns the application version as a properly formed string per the
// semantic versioning 2.0.0 spec (https://semver.org/).  The short commit
// hash is included as build metadata when the binary was built from a git
// checkout.
func String() string {
	return version
}
