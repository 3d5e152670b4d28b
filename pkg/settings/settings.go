// Copyright 2025 walteh LLC
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

package settings

import (
	"fmt"
	"maps"
	"path/filepath"
)

// 📦 PackageType is the kind of project being scaffolded
type PackageType string

const (
	TypeLibrary     PackageType = "library"
	TypeApplication PackageType = "application"
)

// 🧰 PackageManager identifies the node package manager to scaffold for
type PackageManager string

const (
	Pnpm PackageManager = "pnpm"
	Yarn PackageManager = "yarn"
	Npm  PackageManager = "npm"
)

// 🔐 GitProtocol selects how synthesized remote URLs are written
type GitProtocol string

const (
	ProtocolSSH   GitProtocol = "ssh"
	ProtocolHTTPS GitProtocol = "https"
)

// 🌐 AccountType tags which forge a guessed account belongs to
type AccountType string

const (
	AccountGitHub AccountType = "github"
	AccountGitLab AccountType = "gitlab"
)

// 👤 GitAccount is a best-guess external forge account.
// Confidence is an opaque ranking hint: 1.0 is authentication-backed,
// 0.5 is a heuristic search match.
type GitAccount struct {
	Type       AccountType
	Username   string
	Confidence float64
}

// CloneURL builds the remote URL for a repository of the given name under
// this account, in the requested protocol.
func (a GitAccount) CloneURL(name string, proto GitProtocol) string {
	host := "github.com"
	if a.Type == AccountGitLab {
		host = "gitlab.com"
	}
	if proto == ProtocolHTTPS {
		return fmt.Sprintf("https://%s/%s/%s.git", host, a.Username, name)
	}
	return fmt.Sprintf("git@%s:%s/%s.git", host, a.Username, name)
}

// 📂 PathInfo holds the memoized filesystem/git facts about one candidate
// path. Computed at most once per distinct raw path string.
type PathInfo struct {
	PathExists      bool   // Target exists on disk exactly
	IsGitRoot       bool   // Target exists and has a .git entry
	InGitTree       bool   // Nearest existing ancestor is inside a work tree
	FirstExistingUp string // Closest existing directory walking upward
	AbsolutePath    string // Target resolved against InvokeDir
	GitOrigin       string // origin remote of the enclosing tree, "" if none
}

// 📚 Settings is the single configuration record threaded through every
// wizard step. Optional string fields use "" for unset. Steps never mutate
// a record in place: each takes a value and returns a new value.
type Settings struct {
	Path         string // Target location relative to InvokeDir
	ExplicitPath bool   // Path came from user input, not inference
	Name         string
	Description  string
	Type         PackageType

	Monorepo      bool   // Inside an enclosing repo, not its root
	Repo          string // Remote URL, "" means create-local
	RepoInherited bool   // Repo was borrowed from an enclosing origin
	Branch        string

	AuthorName  string
	AuthorEmail string

	// Raw identity signals, never shown to the user directly.
	GitUsername string
	GitEmail    string
	OSUsername  string

	GitAccount     *GitAccount
	GithubUsername string
	GithubToken    string // Cleared whenever the resolved account changes

	GitProtocol    GitProtocol
	PackageManager PackageManager

	InvokeDir string // Absolute, set once at creation

	pathInfos map[string]PathInfo
}

// 🏭 New creates the initial settings record rooted at invokeDir.
func New(invokeDir string) Settings {
	abs, err := filepath.Abs(invokeDir)
	if err != nil {
		abs = filepath.Clean(invokeDir)
	}
	return Settings{
		Type:        TypeLibrary,
		GitProtocol: ProtocolSSH,
		InvokeDir:   abs,
		pathInfos:   map[string]PathInfo{},
	}
}

// PathInfo returns the memoized info for a raw path string, if present.
func (s Settings) PathInfo(path string) (PathInfo, bool) {
	info, ok := s.pathInfos[path]
	return info, ok
}

// WithPathInfo returns a copy of the settings with info memoized under the
// raw path string. The underlying map is cloned so earlier copies of the
// record are unaffected.
func (s Settings) WithPathInfo(path string, info PathInfo) Settings {
	next := s
	next.pathInfos = maps.Clone(s.pathInfos)
	if next.pathInfos == nil {
		next.pathInfos = map[string]PathInfo{}
	}
	next.pathInfos[path] = info
	return next
}

// String renders the record for debugging. Secrets are elided.
func (s Settings) String() string {
	token := ""
	if s.GithubToken != "" {
		token = "(set)"
	}
	return fmt.Sprintf("%s %q at %q repo=%q token=%s", s.Type, s.Name, s.Path, s.Repo, token)
}
