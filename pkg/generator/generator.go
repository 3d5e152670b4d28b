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

// Package generator hands a finished settings record to whatever actually
// scaffolds the package. The wizard only knows this package's RunOptions
// and Logger; the bundled implementation shells out to an external
// generator executable and relays its progress events.
package generator

import (
	"context"

	"github.com/walteh/mkpkg/pkg/log"
	"github.com/walteh/mkpkg/pkg/settings"
)

// 📦 RunOptions is the read-only contract handed to a generator run.
type RunOptions struct {
	Path        string               `json:"path"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Type        settings.PackageType `json:"type"`

	AuthorName  string `json:"author_name,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`

	PackageManager settings.PackageManager `json:"package_manager,omitempty"`

	DisableGitCommits bool   `json:"disable_git_commits"`
	DisableGitRepo    bool   `json:"disable_git_repo"`
	GitOrigin         string `json:"git_origin,omitempty"`
	GitBranch         string `json:"git_branch,omitempty"`
}

// FromSettings converts a finished settings record into run options.
// Inside a monorepo the package gets no repository of its own: no init, no
// commits, and no origin remote (the enclosing repo already has one).
func FromSettings(s settings.Settings) RunOptions {
	opts := RunOptions{
		Path:           s.Path,
		Name:           s.Name,
		Description:    s.Description,
		Type:           s.Type,
		AuthorName:     s.AuthorName,
		AuthorEmail:    s.AuthorEmail,
		PackageManager: s.PackageManager,
		GitOrigin:      s.Repo,
		GitBranch:      s.Branch,
	}
	if s.Monorepo {
		opts.DisableGitRepo = true
		opts.DisableGitCommits = true
		opts.GitOrigin = ""
		opts.GitBranch = ""
	}
	return opts
}

// Logger receives generator progress: free-form messages and keyed state
// lines for long-running steps.
type Logger interface {
	LogMessage(text string, kind log.MessageKind)
	LogState(id string, text string, state log.StepState)
}

// Generator runs a scaffold to completion, reporting progress on logger.
type Generator interface {
	Run(ctx context.Context, opts RunOptions, logger Logger) error
}

// consoleLogger relays generator progress onto the console Logger.
type consoleLogger struct {
	logger *log.Logger
}

// NewConsoleLogger adapts a console Logger into a generator Logger.
func NewConsoleLogger(l *log.Logger) Logger {
	return &consoleLogger{logger: l}
}

func (c *consoleLogger) LogMessage(text string, kind log.MessageKind) {
	c.logger.Message(kind, text)
}

func (c *consoleLogger) LogState(id string, text string, state log.StepState) {
	c.logger.Step(log.StepUpdate{ID: id, Text: text, State: state})
}
