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

package wizard

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/mkpkg/pkg/infer"
	"github.com/walteh/mkpkg/pkg/remote/github"
	"github.com/walteh/mkpkg/pkg/settings"
)

// promptType asks for the package type. Runs inside the startup fan-out,
// so it only returns the choice instead of a settings record.
func (w *Wizard) promptType(ctx context.Context, current settings.PackageType) (settings.PackageType, error) {
	def := string(current)
	if def == "" {
		def = string(settings.TypeLibrary)
	}

	choice, err := w.prompter.Select(ctx, "What are you building?",
		[]string{string(settings.TypeLibrary), string(settings.TypeApplication)}, def)
	if err != nil {
		return current, err
	}
	return settings.PackageType(choice), nil
}

func (w *Wizard) stepType(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	t, err := w.promptType(ctx, s.Type)
	if err != nil {
		return s, err
	}

	next := s
	next.Type = t
	return next, nil
}

// stepName asks for the package name and cascades it into the target path
// unless the user pinned the path explicitly.
func (w *Wizard) stepName(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	name := s.Name
	for {
		answer, err := w.prompter.Input(ctx, "Package name", name)
		if err != nil {
			return s, err
		}
		name = strings.TrimSpace(answer)
		if err := settings.ValidateName(name); err != nil {
			w.console.Warning(err.Error())
			continue
		}
		break
	}

	next := s
	next.Name = name
	if !next.ExplicitPath {
		next.Path = name
	}
	return w.gitctx.AddPathInfo(ctx, next)
}

func (w *Wizard) stepDescription(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	desc := s.Description
	for {
		answer, err := w.prompter.Input(ctx, "Description", desc)
		if err != nil {
			return s, err
		}
		desc = strings.TrimSpace(answer)
		if err := settings.ValidateDescription(desc); err != nil {
			w.console.Warning(err.Error())
			continue
		}

		next := s
		next.Description = desc
		return next, nil
	}
}

// stepAccount settles the GitHub account question: confirm the guess, run a
// device-flow login, type a username, or move on. Skipped entirely when a
// token is already on hand.
func (w *Wizard) stepAccount(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	if s.GithubUsername != "" && s.GithubToken != "" {
		zerolog.Ctx(ctx).Debug().Str("login", s.GithubUsername).Msg("already authenticated, skipping account step")
		return s, nil
	}

	const (
		optLogin  = "Log in with GitHub"
		optManual = "Enter a username manually"
		optSkip   = "Skip for now"
	)

	var options []string
	guess := ""
	if s.GitAccount != nil {
		guess = fmt.Sprintf("Use %s (%s)", s.GitAccount.Username, s.GitAccount.Type)
		options = append(options, guess)
	}
	options = append(options, optLogin, optManual, optSkip)

	choice, err := w.prompter.Select(ctx, "Git account", options, options[0])
	if err != nil {
		return s, err
	}

	switch choice {
	case optLogin:
		return w.loginGitHub(ctx, s)
	case optManual:
		return w.manualGitHub(ctx, s)
	default:
		// The guess is already part of the record; skipping changes nothing.
		return s, nil
	}
}

// loginGitHub runs the OAuth device flow. Login failures are reported and
// the wizard moves on unauthenticated; only cancellation aborts.
func (w *Wizard) loginGitHub(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	code, err := w.flow.RequestCode(ctx)
	if err != nil {
		w.console.Warningf("starting the GitHub login failed: %v", err)
		return s, nil
	}

	w.console.LogNewline()
	w.console.Infof("Open %s and enter the code %s", code.VerificationURI, code.UserCode)
	if err := w.prompter.Pause(ctx, "Press enter once you have authorized the device"); err != nil {
		return s, err
	}

	spinner := w.console.StartSpinner("Waiting for GitHub to confirm the login")
	token, err := w.flow.PollToken(ctx, code)
	if err != nil {
		spinner.Fail("GitHub did not confirm the login")
		if errors.Is(err, context.Canceled) {
			return s, err
		}
		w.console.Warningf("device flow login failed: %v", err)
		return s, nil
	}

	user, err := w.github.UserInfo(ctx, token.AccessToken)
	if err != nil {
		spinner.Fail("GitHub did not confirm the login")
		w.console.Warningf("looking up the authenticated profile failed: %v", err)
		return s, nil
	}
	spinner.Success(fmt.Sprintf("Logged in as %s", user.Login))

	next := s
	next.GithubUsername = user.Login
	next.GithubToken = token.AccessToken
	next.GitAccount = &settings.GitAccount{
		Type:       settings.AccountGitHub,
		Username:   user.Login,
		Confidence: 1.0,
	}
	if next.AuthorName == "" && user.Name != "" {
		next.AuthorName = user.Name
	}
	if next.AuthorEmail == "" && user.Email != "" {
		next.AuthorEmail = user.Email
	}

	w.persistCredentials(ctx, next)
	return next, nil
}

// persistCredentials writes the login to the gh hosts file. Best effort,
// the in-memory token stays usable either way.
func (w *Wizard) persistCredentials(ctx context.Context, s settings.Settings) {
	if w.store == nil {
		return
	}
	creds := github.Credentials{
		Username:    s.GithubUsername,
		Token:       s.GithubToken,
		GitProtocol: string(s.GitProtocol),
	}
	if err := w.store.Save(ctx, creds); err != nil {
		w.console.Warningf("could not store the GitHub credentials: %v", err)
	}
}

func (w *Wizard) manualGitHub(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	answer, err := w.prompter.Input(ctx, "GitHub username", s.GithubUsername)
	if err != nil {
		return s, err
	}
	name := strings.TrimSpace(answer)
	if name == "" {
		return s, nil
	}

	next := s
	if name != next.GithubUsername {
		// A stored token belongs to the previous login.
		next.GithubToken = ""
	}
	next.GithubUsername = name
	next.GitAccount = &settings.GitAccount{
		Type:       settings.AccountGitHub,
		Username:   name,
		Confidence: 0.5,
	}
	return next, nil
}

func (w *Wizard) stepRepoURL(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	return w.repoURL.AddRepoURL(ctx, s)
}

// stepOrigin is the manual fallback when URL resolution left the repo
// unset: create one on GitHub, type a URL, or stay local.
func (w *Wizard) stepOrigin(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	if s.Repo != "" {
		return s, nil
	}

	const (
		optCreate = "Create a new repository on GitHub"
		optEnter  = "Enter an existing remote URL"
		optLocal  = "Stay local for now"
	)

	var options []string
	if s.GithubUsername != "" && s.GithubToken != "" && s.Name != "" {
		options = append(options, optCreate)
	}
	options = append(options, optEnter, optLocal)

	choice, err := w.prompter.Select(ctx, "Repository", options, options[0])
	if err != nil {
		return s, err
	}

	switch choice {
	case optCreate:
		return w.createRepository(ctx, s)
	case optEnter:
		return w.stepEditRepo(ctx, s)
	default:
		return s, nil
	}
}

func (w *Wizard) createRepository(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	spinner := w.console.StartSpinner(fmt.Sprintf("Creating %s on GitHub", s.Name))
	created, err := w.github.CreateRepo(ctx, s.GithubToken, s.GithubUsername, s.Name, s.Description)
	if err != nil {
		spinner.Fail("Creating the repository failed")
		if errors.Is(err, context.Canceled) {
			return s, err
		}
		w.console.Warningf("creating %s failed: %v", s.Name, err)
		return s, nil
	}
	spinner.Success(fmt.Sprintf("Created %s", created.Name))

	next := s
	if next.GitProtocol == settings.ProtocolHTTPS {
		next.Repo = created.CloneURL
	} else {
		next.Repo = created.SSHURL
	}
	next.RepoInherited = false
	if created.DefaultBranch != "" {
		next.Branch = created.DefaultBranch
	}
	return next, nil
}

// stepEditRepo asks for a remote URL. Empty input is allowed and means the
// package stays local.
func (w *Wizard) stepEditRepo(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	repo := s.Repo
	for {
		answer, err := w.prompter.Input(ctx, "Repository URL", repo)
		if err != nil {
			return s, err
		}
		repo = strings.TrimSpace(answer)
		if err := settings.ValidateRepoURL(repo); err != nil {
			w.console.Warning(err.Error())
			continue
		}

		next := s
		next.Repo = repo
		next.RepoInherited = false
		return next, nil
	}
}

func (w *Wizard) stepPath(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	answer, err := w.prompter.Input(ctx, "Path", s.Path)
	if err != nil {
		return s, err
	}
	path := strings.TrimSpace(answer)
	if path == "" {
		return s, nil
	}

	next := s
	next.Path = path
	next.ExplicitPath = true
	return w.gitctx.AddPathInfo(ctx, next)
}

func (w *Wizard) stepAuthorName(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	answer, err := w.prompter.Input(ctx, "Author name", s.AuthorName)
	if err != nil {
		return s, err
	}

	next := s
	next.AuthorName = strings.TrimSpace(answer)
	return next, nil
}

func (w *Wizard) stepAuthorEmail(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	answer, err := w.prompter.Input(ctx, "Author email", s.AuthorEmail)
	if err != nil {
		return s, err
	}

	next := s
	next.AuthorEmail = strings.TrimSpace(answer)
	return next, nil
}

func (w *Wizard) stepManager(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	def := string(s.PackageManager)
	if def == "" {
		def = string(settings.Pnpm)
	}

	choice, err := w.prompter.Select(ctx, "Package manager",
		[]string{string(settings.Pnpm), string(settings.Yarn), string(settings.Npm)}, def)
	if err != nil {
		return s, err
	}

	next := s
	next.PackageManager = settings.PackageManager(choice)
	return next, nil
}

// stepMonorepo toggles monorepo mode. Toggling on hands the repo slot to
// the enclosing origin; an independent remote never survives next to a
// monorepo. Toggling off returns a borrowed origin.
func (w *Wizard) stepMonorepo(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	s, err := w.gitctx.AddPathInfo(ctx, s)
	if err != nil {
		return s, err
	}
	info, _ := s.PathInfo(s.Path)
	w.workspaceNote(ctx, s, info)

	on, err := w.prompter.Confirm(ctx, "Treat this package as part of the enclosing monorepo?", s.Monorepo)
	if err != nil {
		return s, err
	}

	next := s
	next.Monorepo = on
	switch {
	case on && info.GitOrigin != "":
		if next.Repo != info.GitOrigin {
			next.Repo = info.GitOrigin
			next.RepoInherited = true
		}
	case on:
		next.Repo = ""
		next.RepoInherited = false
	case next.RepoInherited:
		next.Repo = ""
		next.RepoInherited = false
	}
	return next, nil
}

// workspaceNote tells the user whether the candidate path lands inside a
// workspace declared at the enclosing git root. Silent when there is none.
func (w *Wizard) workspaceNote(ctx context.Context, s settings.Settings, info settings.PathInfo) {
	if !info.InGitTree || info.IsGitRoot {
		return
	}

	root, err := w.runner.Run(ctx, "git", "-C", info.FirstExistingUp, "rev-parse", "--show-toplevel")
	if err != nil || root == "" {
		return
	}
	ws, ok, err := infer.LoadWorkspace(root)
	if err != nil || !ok {
		return
	}
	rel, err := filepath.Rel(root, info.AbsolutePath)
	if err != nil {
		return
	}

	if ws.Contains(rel) {
		w.console.Infof("%s sits inside a workspace declared at %s", s.Path, root)
	} else {
		w.console.Warningf("%s is not covered by the workspace globs declared at %s", s.Path, root)
	}
}
