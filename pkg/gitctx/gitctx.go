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

// Package gitctx resolves what a candidate filesystem path means in git
// terms: whether it exists, which existing ancestor is closest, whether it
// sits inside a working tree, and what origin that tree points at.
package gitctx

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/mkpkg/pkg/settings"
	"github.com/walteh/mkpkg/pkg/shell"
)

// Resolver probes the filesystem and git for path context. Probes are
// tolerant: a failing git call reads as "not a repo", never as an error.
type Resolver struct {
	runner shell.Runner
}

func New(runner shell.Runner) *Resolver {
	return &Resolver{runner: runner}
}

// AddPathInfo memoizes the path facts for s.Path and applies the first-
// resolution side effects: an unset Repo adopts the discovered origin
// (marked inherited), and Monorepo is derived from the tree probes.
// A path that already has a memoized entry is returned unchanged without
// touching the filesystem.
func (r *Resolver) AddPathInfo(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	if s.Path == "" {
		return s, nil
	}
	if _, ok := s.PathInfo(s.Path); ok {
		return s, nil
	}

	logger := zerolog.Ctx(ctx)

	abs := s.Path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.InvokeDir, abs)
	}
	abs = filepath.Clean(abs)

	firstExisting, err := firstExistingUp(abs)
	if err != nil {
		return s, err
	}

	pathExists := firstExisting == abs
	inTree := r.isInsideWorkTree(ctx, firstExisting)

	origin := ""
	if inTree {
		origin = r.originURL(ctx, firstExisting)
	}

	isGitRoot := false
	if pathExists {
		if _, err := os.Lstat(filepath.Join(abs, ".git")); err == nil {
			isGitRoot = true
		}
	}

	info := settings.PathInfo{
		PathExists:      pathExists,
		IsGitRoot:       isGitRoot,
		InGitTree:       inTree,
		FirstExistingUp: firstExisting,
		AbsolutePath:    abs,
		GitOrigin:       origin,
	}

	logger.Debug().
		Str("path", s.Path).
		Str("abs", abs).
		Str("first_existing", firstExisting).
		Bool("exists", pathExists).
		Bool("in_git_tree", inTree).
		Bool("is_git_root", isGitRoot).
		Str("origin", origin).
		Msg("resolved path info")

	next := s.WithPathInfo(s.Path, info)

	if next.Repo == "" && origin != "" {
		next.Repo = origin
		next.RepoInherited = true
	}
	next.Monorepo = inTree && !isGitRoot

	return next, nil
}

// RemoteExists reports whether a git remote URL answers an ls-remote probe.
// Any failure (unreachable host, missing repository, bad URL) reads as
// false.
func (r *Resolver) RemoteExists(ctx context.Context, url string) bool {
	_, err := r.runner.Run(ctx, "git", "ls-remote", "--exit-code", url, "HEAD")
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("url", url).Msg("remote probe failed")
		return false
	}
	return true
}

// firstExistingUp walks from path toward the filesystem root and returns the
// first level (including path itself) that exists on disk.
func firstExistingUp(path string) (string, error) {
	for _, level := range levelsUp(path) {
		if _, err := os.Stat(level); err == nil {
			return level, nil
		}
	}
	// The walk ends at the filesystem root, which always exists; reaching
	// this line means the probe itself is broken.
	return "", errors.Errorf("no existing ancestor found for %q", path)
}

// levelsUp lists path and every ancestor up to the filesystem root, closest
// first.
func levelsUp(path string) []string {
	levels := []string{path}
	for {
		parent := filepath.Dir(path)
		if parent == path {
			return levels
		}
		levels = append(levels, parent)
		path = parent
	}
}

func (r *Resolver) isInsideWorkTree(ctx context.Context, dir string) bool {
	out, err := r.runner.Run(ctx, "git", "-C", dir, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return out == "true"
}

func (r *Resolver) originURL(ctx context.Context, dir string) string {
	out, err := r.runner.Run(ctx, "git", "-C", dir, "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return out
}
