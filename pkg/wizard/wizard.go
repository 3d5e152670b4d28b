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

// Package wizard walks the user from an empty settings record to one ready
// for generation. Steps are pure functions over the settings value; the
// review hub loops them until the user commits to creating the package.
package wizard

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/mkpkg/pkg/gitctx"
	"github.com/walteh/mkpkg/pkg/infer"
	"github.com/walteh/mkpkg/pkg/log"
	"github.com/walteh/mkpkg/pkg/prompt"
	"github.com/walteh/mkpkg/pkg/remote/github"
	"github.com/walteh/mkpkg/pkg/remote/gitlab"
	"github.com/walteh/mkpkg/pkg/settings"
	"github.com/walteh/mkpkg/pkg/shell"
)

// OAuth app id used for device-flow logins.
const oauthClientID = "3f1c8e2ab9d04576aa11"

// defaultProbeTimeout bounds the remote liveness check at the create gate.
const defaultProbeTimeout = 100 * time.Millisecond

// Options wires a Wizard. Zero fields get production defaults.
type Options struct {
	Prompter     prompt.Prompter
	Console      *log.Logger
	Runner       shell.Runner
	GitHub       *github.Service
	GitLab       *gitlab.Client
	DeviceFlow   *github.DeviceFlow
	Credentials  *github.CredentialStore
	ProbeTimeout time.Duration
}

// Wizard drives the interactive settings resolution.
type Wizard struct {
	prompter prompt.Prompter
	console  *log.Logger
	runner   shell.Runner
	gitctx   *gitctx.Resolver
	github   *github.Service
	author   *infer.Author
	account  *infer.Account
	detector *infer.Detector
	repoURL  *infer.RepoURL
	flow     *github.DeviceFlow
	store    *github.CredentialStore

	probeTimeout time.Duration
	probe        *repoProbe
}

// New creates a wizard. Credentials may stay nil, which skips persisting
// device-flow logins.
func New(opts Options) *Wizard {
	if opts.Prompter == nil {
		opts.Prompter = &prompt.Terminal{}
	}
	if opts.Console == nil {
		opts.Console = log.New(os.Stdout, zerolog.InfoLevel)
	}
	if opts.Runner == nil {
		opts.Runner = &shell.ExecRunner{}
	}
	if opts.GitHub == nil {
		opts.GitHub = github.NewService()
	}
	if opts.GitLab == nil {
		opts.GitLab = gitlab.NewClient()
	}
	if opts.DeviceFlow == nil {
		opts.DeviceFlow = github.NewDeviceFlow(oauthClientID)
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}

	resolver := gitctx.New(opts.Runner)
	return &Wizard{
		prompter:     opts.Prompter,
		console:      opts.Console,
		runner:       opts.Runner,
		gitctx:       resolver,
		github:       opts.GitHub,
		author:       infer.NewAuthor(opts.Runner, opts.GitHub),
		account:      infer.NewAccount(opts.Runner, opts.GitHub, opts.GitLab),
		detector:     infer.NewDetector(opts.Runner),
		repoURL:      infer.NewRepoURL(resolver, opts.GitHub),
		flow:         opts.DeviceFlow,
		store:        opts.Credentials,
		probeTimeout: opts.ProbeTimeout,
	}
}

// Run resolves settings to a create-ready record. A cancellation at any
// prompt surfaces as prompt.ErrCancelled; the caller owns the farewell.
func (w *Wizard) Run(ctx context.Context, initial settings.Settings) (settings.Settings, error) {
	s, err := w.initialResolution(ctx, initial)
	if err != nil {
		return s, err
	}

	for _, st := range []step{
		w.stepName,
		w.stepDescription,
		w.stepAccount,
		w.stepRepoURL,
		w.stepOrigin,
	} {
		s, err = st(ctx, s)
		if err != nil {
			return s, err
		}
	}

	return w.reviewLoop(ctx, s)
}

// step is one settings transition. Steps never mutate their input.
type step func(ctx context.Context, s settings.Settings) (settings.Settings, error)

// initialResolution runs the startup fan-out: identity inference, account
// guessing, and package-manager detection race alongside the type prompt.
// Branches read the same ancestor snapshot and write disjoint fields,
// merged after an all-complete join.
func (w *Wizard) initialResolution(ctx context.Context, base settings.Settings) (settings.Settings, error) {
	logger := zerolog.Ctx(ctx)

	var (
		identity settings.Settings
		account  settings.Settings
		manager  settings.Settings
		pkgType  settings.PackageType
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		identity = w.author.AddAuthorInfo(gctx, base)
		return nil
	})
	g.Go(func() error {
		var err error
		account, err = w.account.GuessGitAccount(gctx, base)
		return err
	})
	g.Go(func() error {
		manager = w.detector.DetectPackageManager(gctx, base)
		return nil
	})
	g.Go(func() error {
		var err error
		pkgType, err = w.promptType(gctx, base.Type)
		return err
	})
	if err := g.Wait(); err != nil {
		return base, err
	}

	next := base
	next.AuthorName = identity.AuthorName
	next.AuthorEmail = identity.AuthorEmail
	next.GitUsername = identity.GitUsername
	next.GitEmail = identity.GitEmail
	next.OSUsername = identity.OSUsername
	next.GitAccount = account.GitAccount
	next.GithubUsername = account.GithubUsername
	next.GithubToken = account.GithubToken
	next.PackageManager = manager.PackageManager
	next.Type = pkgType

	logger.Debug().Msg("startup resolution joined")
	return next, nil
}

// repoProbe is one in-flight remote liveness check. The result lands in a
// buffered channel so it stays readable on a later create attempt.
type repoProbe struct {
	url    string
	result chan bool
}

func (w *Wizard) ensureProbe(ctx context.Context, url string) *repoProbe {
	if w.probe != nil && w.probe.url == url {
		return w.probe
	}
	p := &repoProbe{url: url, result: make(chan bool, 1)}
	go func() {
		p.result <- w.gitctx.RemoteExists(ctx, url)
	}()
	w.probe = p
	return p
}

// createGate decides whether the create action may complete. An unset repo
// always passes. Otherwise the remote probe is raced against the timeout:
// a missing remote soft-blocks and discards the probe, a timeout assumes
// the remote exists.
func (w *Wizard) createGate(ctx context.Context, s settings.Settings) bool {
	if s.Repo == "" {
		return true
	}

	p := w.ensureProbe(ctx, s.Repo)
	timer := time.NewTimer(w.probeTimeout)
	defer timer.Stop()

	select {
	case exists := <-p.result:
		w.probe = nil
		if !exists {
			w.console.Warningf("%s does not answer, fix the repository before creating", s.Repo)
			return false
		}
		return true
	case <-timer.C:
		zerolog.Ctx(ctx).Debug().Str("repo", s.Repo).Msg("probe timed out, assuming the remote exists")
		return true
	}
}
