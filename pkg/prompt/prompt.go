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

// Package prompt abstracts interactive console prompts so the wizard can be
// driven by a terminal in production and by a script in tests.
package prompt

import (
	"context"

	"gitlab.com/tozd/go/errors"
)

// ErrCancelled is returned by every prompt when the user aborts (Ctrl+C).
// Cancellation terminates the whole wizard, not just the current step.
var ErrCancelled = errors.New("cancelled by user")

// 💬 Prompter asks the user for input
type Prompter interface {
	// Input asks for a free-form line of text, offering a default value.
	Input(ctx context.Context, label string, defaultValue string) (string, error)

	// Select asks the user to pick one of options.
	Select(ctx context.Context, label string, options []string, defaultOption string) (string, error)

	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, label string, defaultValue bool) (bool, error)

	// Pause blocks until the user acknowledges with Enter.
	Pause(ctx context.Context, label string) error
}
