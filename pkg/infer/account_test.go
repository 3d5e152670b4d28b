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

package infer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/mkpkg/pkg/remote/gitlab"
	"github.com/walteh/mkpkg/pkg/settings"
)

// gitlabWith serves a scripted username -> exists mapping.
func gitlabWith(t *testing.T, known map[string]bool) *gitlab.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		w.Header().Set("Content-Type", "application/json")
		if known[username] {
			fmt.Fprintf(w, `[{"id":1,"username":%q}]`, username)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	t.Cleanup(server.Close)
	return &gitlab.Client{BaseURL: server.URL, HTTPClient: server.Client()}
}

func TestGuessGitAccountKnownLoginWithToken(t *testing.T) {
	runner := newFakeRunner()
	fake := &fakeForgeClient{}
	account := NewAccount(runner, serviceFor(fake), gitlabWith(t, nil))

	s := settings.New(t.TempDir())
	s.GithubUsername = "walteh"
	s.GithubToken = "gho_abc123"

	got, err := account.GuessGitAccount(context.Background(), s)
	require.NoError(t, err, "resolution should succeed")
	require.NotNil(t, got.GitAccount, "account should resolve")
	assert.Equal(t, settings.AccountGitHub, got.GitAccount.Type)
	assert.Equal(t, "walteh", got.GitAccount.Username)
	assert.Equal(t, 1.0, got.GitAccount.Confidence, "an authenticated login is certain")
	assert.Equal(t, "gho_abc123", got.GithubToken, "matching identity keeps the token")
	assert.Empty(t, fake.searchQueries, "a known login should not trigger searches")
}

func TestGuessGitAccountKnownLoginWithoutToken(t *testing.T) {
	runner := newFakeRunner()
	account := NewAccount(runner, serviceFor(&fakeForgeClient{}), gitlabWith(t, nil))

	s := settings.New(t.TempDir())
	s.GithubUsername = "walteh"

	got, err := account.GuessGitAccount(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, got.GitAccount)
	assert.Equal(t, 0.5, got.GitAccount.Confidence, "an unauthenticated login is only a guess")
}

func TestGuessGitAccountByEmailSearch(t *testing.T) {
	runner := newFakeRunner()
	runner.scriptGitIdentity("Walt", "walt@example.com")

	fake := &fakeForgeClient{searchHits: map[string]string{
		"walt@example.com in:email": "walteh",
	}}
	account := NewAccount(runner, serviceFor(fake), gitlabWith(t, nil))

	got, err := account.GuessGitAccount(context.Background(), settings.New(t.TempDir()))
	require.NoError(t, err)
	require.NotNil(t, got.GitAccount, "email hit should resolve the account")
	assert.Equal(t, settings.AccountGitHub, got.GitAccount.Type)
	assert.Equal(t, "walteh", got.GitAccount.Username)
	assert.Equal(t, 1.0, got.GitAccount.Confidence, "an email match is treated as certain")
}

func TestGuessGitAccountByUsernameSearch(t *testing.T) {
	runner := newFakeRunner()
	runner.scriptGitIdentity("octocat", "")

	fake := &fakeForgeClient{searchHits: map[string]string{
		"octocat in:login": "octocat",
	}}
	account := NewAccount(runner, serviceFor(fake), gitlabWith(t, nil))

	got, err := account.GuessGitAccount(context.Background(), settings.New(t.TempDir()))
	require.NoError(t, err)
	require.NotNil(t, got.GitAccount, "login hit should resolve the account")
	assert.Equal(t, settings.AccountGitHub, got.GitAccount.Type)
	assert.Equal(t, "octocat", got.GitAccount.Username)
	assert.Equal(t, 0.5, got.GitAccount.Confidence, "a login match is only a guess")
}

func TestGuessGitAccountGitlabFallbackClearsGithub(t *testing.T) {
	runner := newFakeRunner()
	runner.scriptGitIdentity("walteh", "")

	account := NewAccount(runner, serviceFor(&fakeForgeClient{}), gitlabWith(t, map[string]bool{"walteh": true}))

	s := settings.New(t.TempDir())
	s.GithubToken = "gho_stale"

	got, err := account.GuessGitAccount(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, got.GitAccount, "gitlab hit should resolve the account")
	assert.Equal(t, settings.AccountGitLab, got.GitAccount.Type)
	assert.Equal(t, "walteh", got.GitAccount.Username)
	assert.Equal(t, 0.5, got.GitAccount.Confidence)
	assert.Empty(t, got.GithubUsername, "a gitlab identity clears stored github fields")
	assert.Empty(t, got.GithubToken, "a gitlab identity clears stored github fields")
}

func TestGuessGitAccountNoMatchLeavesUnset(t *testing.T) {
	runner := newFakeRunner()
	runner.scriptGitIdentity("walteh", "walt@example.com")

	account := NewAccount(runner, serviceFor(&fakeForgeClient{}), gitlabWith(t, nil))

	got, err := account.GuessGitAccount(context.Background(), settings.New(t.TempDir()))
	require.NoError(t, err)
	assert.Nil(t, got.GitAccount, "no hit anywhere should leave the account unset")
}

func TestGuessGitAccountInvalidatesTokenOnIdentityChange(t *testing.T) {
	runner := newFakeRunner()
	runner.scriptGitIdentity("Walt", "walt@example.com")

	fake := &fakeForgeClient{searchHits: map[string]string{
		"walt@example.com in:email": "other-login",
	}}
	account := NewAccount(runner, serviceFor(fake), gitlabWith(t, nil))

	s := settings.New(t.TempDir())
	s.GithubToken = "gho_stale"

	got, err := account.GuessGitAccount(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, got.GitAccount)
	assert.Equal(t, "other-login", got.GitAccount.Username)
	assert.Empty(t, got.GithubToken, "a different resolved identity must drop the stored token")
}

func TestGuessGitAccountSearchFailureFallsThrough(t *testing.T) {
	runner := newFakeRunner()
	runner.scriptGitIdentity("walteh", "walt@example.com")

	// Searches answer nothing, gitlab answers yes.
	account := NewAccount(runner, serviceFor(&fakeForgeClient{}), gitlabWith(t, map[string]bool{"walteh": true}))

	got, err := account.GuessGitAccount(context.Background(), settings.New(t.TempDir()))
	require.NoError(t, err)
	require.NotNil(t, got.GitAccount)
	assert.Equal(t, settings.AccountGitLab, got.GitAccount.Type, "misses should fall through to gitlab")
}
