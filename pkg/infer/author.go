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

// Package infer derives settings values the user never typed: author
// identity, external forge accounts, repository URLs, and the package
// manager. Every chain prefers explicit values and degrades quietly when a
// signal source is unavailable.
package infer

import (
	"context"
	"os/user"

	"github.com/rs/zerolog"

	"github.com/walteh/mkpkg/pkg/remote/github"
	"github.com/walteh/mkpkg/pkg/settings"
	"github.com/walteh/mkpkg/pkg/shell"
)

// 👤 Author fills in author name and email.
// Priority: explicit value > GitHub profile (existing credentials only) >
// git config > OS account (name only).
type Author struct {
	runner shell.Runner
	github *github.Service

	// osUser is swappable so tests control the OS account lookup.
	osUser func() (name string, ok bool)
}

// NewAuthor creates an author inferrer.
func NewAuthor(runner shell.Runner, gh *github.Service) *Author {
	return &Author{
		runner: runner,
		github: gh,
		osUser: currentOSUser,
	}
}

// AddAuthorInfo returns settings with AuthorName/AuthorEmail populated from
// the best available source. Lookup failures demote to the next source and
// never fail the call.
func (a *Author) AddAuthorInfo(ctx context.Context, s settings.Settings) settings.Settings {
	logger := zerolog.Ctx(ctx)
	next := a.addRawSignals(ctx, s)

	if (next.AuthorName == "" || next.AuthorEmail == "") &&
		next.GithubUsername != "" && next.GithubToken != "" {
		info, err := a.github.UserInfo(ctx, next.GithubToken)
		if err != nil {
			logger.Debug().Err(err).Msg("github profile unavailable, trying git config")
		} else {
			if next.AuthorName == "" {
				next.AuthorName = info.Name
			}
			if next.AuthorEmail == "" {
				next.AuthorEmail = info.Email
			}
		}
	}

	if next.AuthorName == "" {
		next.AuthorName = next.GitUsername
	}
	if next.AuthorEmail == "" {
		next.AuthorEmail = next.GitEmail
	}

	// The OS account carries no usable email, so it only backs the name.
	if next.AuthorName == "" {
		next.AuthorName = next.OSUsername
	}

	logger.Debug().
		Str("author_name", next.AuthorName).
		Str("author_email", next.AuthorEmail).
		Msg("author inference complete")
	return next
}

// addRawSignals probes git config and the OS account for identity signals
// not already present on the record.
func (a *Author) addRawSignals(ctx context.Context, s settings.Settings) settings.Settings {
	logger := zerolog.Ctx(ctx)
	next := s

	if next.GitUsername == "" {
		if out, err := a.runner.Run(ctx, "git", "config", "user.name"); err == nil && out != "" {
			next.GitUsername = out
		} else if err != nil {
			logger.Debug().Err(err).Msg("git config user.name unavailable")
		}
	}
	if next.GitEmail == "" {
		if out, err := a.runner.Run(ctx, "git", "config", "user.email"); err == nil && out != "" {
			next.GitEmail = out
		} else if err != nil {
			logger.Debug().Err(err).Msg("git config user.email unavailable")
		}
	}
	if next.OSUsername == "" {
		if name, ok := a.osUser(); ok {
			next.OSUsername = name
		}
	}
	return next
}

func currentOSUser() (string, bool) {
	u, err := user.Current()
	if err != nil {
		return "", false
	}
	if u.Name != "" {
		return u.Name, true
	}
	if u.Username != "" {
		return u.Username, true
	}
	return "", false
}
