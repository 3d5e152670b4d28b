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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s := New("/tmp/somewhere")

	assert.Equal(t, TypeLibrary, s.Type, "type should default to library")
	assert.Equal(t, ProtocolSSH, s.GitProtocol, "git protocol should default to ssh")
	assert.True(t, filepath.IsAbs(s.InvokeDir), "invoke dir should be absolute")
	assert.Empty(t, s.Name, "name should start unset")
	assert.Empty(t, s.Repo, "repo should start unset")

	_, ok := s.PathInfo("anything")
	assert.False(t, ok, "fresh settings should have no path info")
}

func TestWithPathInfo(t *testing.T) {
	s := New("/tmp")
	info := PathInfo{
		PathExists:      true,
		AbsolutePath:    "/tmp/pkg",
		FirstExistingUp: "/tmp/pkg",
	}

	next := s.WithPathInfo("pkg", info)

	got, ok := next.PathInfo("pkg")
	require.True(t, ok, "info should be memoized on the new record")
	assert.Equal(t, info, got, "memoized info should round-trip")

	_, ok = s.PathInfo("pkg")
	assert.False(t, ok, "older record should be unaffected")
}

func TestWithPathInfoClonesMap(t *testing.T) {
	base := New("/tmp").WithPathInfo("a", PathInfo{AbsolutePath: "/tmp/a"})

	left := base.WithPathInfo("b", PathInfo{AbsolutePath: "/tmp/b"})
	right := base.WithPathInfo("c", PathInfo{AbsolutePath: "/tmp/c"})

	_, ok := left.PathInfo("c")
	assert.False(t, ok, "sibling writes should not leak between copies")
	_, ok = right.PathInfo("b")
	assert.False(t, ok, "sibling writes should not leak between copies")

	_, ok = left.PathInfo("a")
	assert.True(t, ok, "shared ancestor entry should survive")
	_, ok = right.PathInfo("a")
	assert.True(t, ok, "shared ancestor entry should survive")
}

func TestGitAccountCloneURL(t *testing.T) {
	tests := []struct {
		name    string
		account GitAccount
		pkg     string
		proto   GitProtocol
		want    string
	}{
		{
			name:    "github_ssh",
			account: GitAccount{Type: AccountGitHub, Username: "octocat"},
			pkg:     "my-lib",
			proto:   ProtocolSSH,
			want:    "git@github.com:octocat/my-lib.git",
		},
		{
			name:    "github_https",
			account: GitAccount{Type: AccountGitHub, Username: "octocat"},
			pkg:     "my-lib",
			proto:   ProtocolHTTPS,
			want:    "https://github.com/octocat/my-lib.git",
		},
		{
			name:    "gitlab_ssh",
			account: GitAccount{Type: AccountGitLab, Username: "gl-user"},
			pkg:     "tool",
			proto:   ProtocolSSH,
			want:    "git@gitlab.com:gl-user/tool.git",
		},
		{
			name:    "gitlab_https",
			account: GitAccount{Type: AccountGitLab, Username: "gl-user"},
			pkg:     "tool",
			proto:   ProtocolHTTPS,
			want:    "https://gitlab.com/gl-user/tool.git",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.account.CloneURL(tt.pkg, tt.proto)
			assert.Equal(t, tt.want, got, "clone URL should match")
		})
	}
}

func TestStringElidesToken(t *testing.T) {
	s := New("/tmp")
	s.Name = "demo"
	s.GithubToken = "gho_secret"

	out := s.String()
	assert.NotContains(t, out, "gho_secret", "token must never be rendered")
	assert.Contains(t, out, "(set)", "token presence should still be visible")
}
