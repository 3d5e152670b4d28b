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

package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// 🐚 Runner executes external commands and returns their captured output.
// Implementations must treat a non-zero exit as an error.
type Runner interface {
	// Run executes name with args (argv style, no shell interpretation).
	Run(ctx context.Context, name string, args ...string) (string, error)

	// RunShell executes a command line through `sh -c`.
	RunShell(ctx context.Context, cmdline string) (string, error)
}

// 💥 CommandError carries the raw output of a failed command so callers can
// observe what actually happened instead of parsing a message.
type CommandError struct {
	Name   string
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// 🏭 ExecRunner is the os/exec backed Runner used outside of tests.
type ExecRunner struct{}

var _ Runner = (*ExecRunner)(nil)

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return run(ctx, name, args)
}

func (r *ExecRunner) RunShell(ctx context.Context, cmdline string) (string, error) {
	return run(ctx, "sh", []string{"-c", cmdline})
}

func run(ctx context.Context, name string, args []string) (string, error) {
	logger := zerolog.Ctx(ctx)
	logger.Trace().Str("command", name).Strs("args", args).Msg("running command")

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Name:   name,
			Args:   args,
			Stdout: strings.TrimSpace(stdout.String()),
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
		logger.Trace().Err(cmdErr).Msg("command failed")
		return "", cmdErr
	}

	return strings.TrimSpace(stdout.String()), nil
}
