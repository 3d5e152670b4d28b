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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/mkpkg/pkg/gitctx"
	"github.com/walteh/mkpkg/pkg/match"
	"github.com/walteh/mkpkg/pkg/remote/github"
	"github.com/walteh/mkpkg/pkg/settings"
)

// 🔗 RepoURL resolves where the new package's remote should live.
// Priority: a discovered origin at the target path, then a fuzzy match
// against the user's existing GitHub repositories, then a synthesized URL
// verified live.
type RepoURL struct {
	gitctx *gitctx.Resolver
	github *github.Service
}

// NewRepoURL creates a repo URL resolver.
func NewRepoURL(g *gitctx.Resolver, gh *github.Service) *RepoURL {
	return &RepoURL{gitctx: g, github: gh}
}

// AddRepoURL returns settings with Repo (and, when derivable, Branch)
// populated. An already-set Repo is kept as-is. Transport failures leave
// Repo unset; malformed GitHub responses propagate.
func (r *RepoURL) AddRepoURL(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	logger := zerolog.Ctx(ctx)
	next := s

	// Path probing may discover an origin, which beats everything else.
	if next.Path != "" {
		resolved, err := r.gitctx.AddPathInfo(ctx, next)
		if err != nil {
			return s, errors.Errorf("probing path for origin: %w", err)
		}
		next = resolved
	}

	// repoName is the name under the user's account, when we learn one,
	// so the default branch can be looked up afterwards.
	repoName := ""

	switch {
	case next.Repo != "":
		logger.Debug().Str("repo", next.Repo).Msg("repo already resolved")

	case next.GithubUsername != "" && next.GithubToken != "" && next.Name != "":
		repos, err := r.github.ListRepos(ctx, next.GithubToken, next.GithubUsername)
		switch {
		case err != nil && errors.Is(err, github.ErrMalformed):
			return s, errors.Errorf("listing repositories: %w", err)
		case err != nil:
			logger.Debug().Err(err).Msg("repository list unavailable, trying synthesis")
			next = r.synthesize(ctx, next, &repoName)
		default:
			names := make([]string, 0, len(repos))
			for _, repo := range repos {
				names = append(names, repo.Name)
			}
			if matched, ok := match.Repo(next.Name, names); ok {
				for _, repo := range repos {
					if repo.Name == matched {
						next.Repo = repo.SSHURL
						repoName = repo.Name
						logger.Debug().Str("repo", next.Repo).Msg("matched an existing repository")
						break
					}
				}
			} else {
				next = r.synthesize(ctx, next, &repoName)
			}
		}

	default:
		next = r.synthesize(ctx, next, &repoName)
	}

	if next.Branch == "" && next.GithubToken != "" && next.GithubUsername != "" && repoName != "" {
		branch, err := r.github.DefaultBranch(ctx, next.GithubToken, next.GithubUsername, repoName)
		if err != nil {
			logger.Debug().Err(err).Msg("default branch unavailable")
		} else {
			next.Branch = branch
		}
	}
	return next, nil
}

// synthesize builds a candidate URL from the guessed account and accepts it
// only when the remote answers a liveness probe.
func (r *RepoURL) synthesize(ctx context.Context, s settings.Settings, repoName *string) settings.Settings {
	logger := zerolog.Ctx(ctx)
	if s.GitAccount == nil || s.Name == "" {
		return s
	}

	candidate := s.GitAccount.CloneURL(s.Name, s.GitProtocol)
	if !r.gitctx.RemoteExists(ctx, candidate) {
		logger.Debug().Str("candidate", candidate).Msg("synthesized remote is not reachable")
		return s
	}

	next := s
	next.Repo = candidate
	if s.GitAccount.Type == settings.AccountGitHub {
		*repoName = s.Name
	}
	logger.Debug().Str("repo", candidate).Msg("synthesized remote verified")
	return next
}
