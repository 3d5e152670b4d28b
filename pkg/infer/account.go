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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/mkpkg/pkg/remote/github"
	"github.com/walteh/mkpkg/pkg/remote/gitlab"
	"github.com/walteh/mkpkg/pkg/settings"
	"github.com/walteh/mkpkg/pkg/shell"
)

// 🔎 Account guesses which external forge account belongs to the user,
// with a confidence score attached. 1.0 is authentication-backed, 0.5 is a
// search heuristic.
type Account struct {
	runner shell.Runner
	github *github.Service
	gitlab *gitlab.Client
}

// NewAccount creates an account resolver.
func NewAccount(runner shell.Runner, gh *github.Service, gl *gitlab.Client) *Account {
	return &Account{runner: runner, github: gh, gitlab: gl}
}

// GuessGitAccount resolves GitAccount by trying, in order: the stored
// authenticated GitHub username, a GitHub search by email, a GitHub search
// by username, a GitLab username lookup. The first hit wins; no hit leaves
// GitAccount unset. Search transport failures fall through to the next
// source; malformed responses propagate.
//
// Whenever the resolved identity differs from the stored GithubUsername,
// the stored token is invalidated.
func (a *Account) GuessGitAccount(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	logger := zerolog.Ctx(ctx)
	next := a.addAccountSignals(ctx, s)

	resolved, err := a.resolve(ctx, next)
	if err != nil {
		return s, err
	}
	next.GitAccount = resolved

	if resolved != nil {
		if resolved.Type != settings.AccountGitHub {
			// A non-GitHub identity makes stored GitHub credentials stale.
			next.GithubUsername = ""
			next.GithubToken = ""
		} else if resolved.Username != s.GithubUsername && next.GithubToken != "" {
			logger.Debug().
				Str("was", s.GithubUsername).
				Str("now", resolved.Username).
				Msg("resolved account differs from stored login, dropping token")
			next.GithubToken = ""
		}
		logger.Debug().
			Str("type", string(resolved.Type)).
			Str("username", resolved.Username).
			Float64("confidence", resolved.Confidence).
			Msg("git account resolved")
	}
	return next, nil
}

func (a *Account) resolve(ctx context.Context, s settings.Settings) (*settings.GitAccount, error) {
	logger := zerolog.Ctx(ctx)

	if s.GithubUsername != "" {
		confidence := 0.5
		if s.GithubToken != "" {
			confidence = 1.0
		}
		return &settings.GitAccount{
			Type:       settings.AccountGitHub,
			Username:   s.GithubUsername,
			Confidence: confidence,
		}, nil
	}

	if s.GitEmail != "" {
		login, found, err := a.github.SearchUsers(ctx, fmt.Sprintf("%s in:email", s.GitEmail))
		switch {
		case err != nil && errors.Is(err, github.ErrMalformed):
			return nil, errors.Errorf("searching by email: %w", err)
		case err != nil:
			logger.Debug().Err(err).Msg("email search unavailable, trying username")
		case found:
			return &settings.GitAccount{
				Type:       settings.AccountGitHub,
				Username:   login,
				Confidence: 1.0,
			}, nil
		}
	}

	if s.GitUsername != "" {
		login, found, err := a.github.SearchUsers(ctx, fmt.Sprintf("%s in:login", s.GitUsername))
		switch {
		case err != nil && errors.Is(err, github.ErrMalformed):
			return nil, errors.Errorf("searching by username: %w", err)
		case err != nil:
			logger.Debug().Err(err).Msg("username search unavailable, trying gitlab")
		case found:
			return &settings.GitAccount{
				Type:       settings.AccountGitHub,
				Username:   login,
				Confidence: 0.5,
			}, nil
		}

		username, found, err := a.gitlab.LookupUser(ctx, s.GitUsername)
		if err != nil {
			logger.Debug().Err(err).Msg("gitlab lookup unavailable")
		} else if found {
			return &settings.GitAccount{
				Type:       settings.AccountGitLab,
				Username:   username,
				Confidence: 0.5,
			}, nil
		}
	}

	logger.Debug().Msg("no git account resolved")
	return nil, nil
}

// addAccountSignals probes git config for the signals the resolver needs,
// so it does not depend on author inference having run first.
func (a *Account) addAccountSignals(ctx context.Context, s settings.Settings) settings.Settings {
	next := s
	if next.GitUsername == "" {
		if out, err := a.runner.Run(ctx, "git", "config", "user.name"); err == nil && out != "" {
			next.GitUsername = out
		}
	}
	if next.GitEmail == "" {
		if out, err := a.runner.Run(ctx, "git", "config", "user.email"); err == nil && out != "" {
			next.GitEmail = out
		}
	}
	return next
}
