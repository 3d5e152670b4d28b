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

package prompt

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🖥️ Terminal is the pterm-backed Prompter used outside of tests.
// pterm's interactive printers exit the process on Ctrl+C by default; every
// prompt here installs an interrupt hook instead so cancellation surfaces
// as ErrCancelled and the caller controls shutdown.
type Terminal struct{}

var _ Prompter = (*Terminal)(nil)

func (t *Terminal) Input(ctx context.Context, label string, defaultValue string) (string, error) {
	cancelled := false
	printer := pterm.DefaultInteractiveTextInput.
		WithDefaultValue(defaultValue).
		WithOnInterruptFunc(func() { cancelled = true })

	out, err := printer.Show(label)
	if cancelled {
		return "", ErrCancelled
	}
	if err != nil {
		return "", errors.Errorf("reading input: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("label", label).Str("value", out).Msg("input answered")
	return out, nil
}

func (t *Terminal) Select(ctx context.Context, label string, options []string, defaultOption string) (string, error) {
	cancelled := false
	printer := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithOnInterruptFunc(func() { cancelled = true })
	if defaultOption != "" {
		printer = printer.WithDefaultOption(defaultOption)
	}

	out, err := printer.Show(label)
	if cancelled {
		return "", ErrCancelled
	}
	if err != nil {
		return "", errors.Errorf("reading selection: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("label", label).Str("choice", out).Msg("selection answered")
	return out, nil
}

func (t *Terminal) Confirm(ctx context.Context, label string, defaultValue bool) (bool, error) {
	cancelled := false
	printer := pterm.DefaultInteractiveConfirm.
		WithDefaultValue(defaultValue).
		WithOnInterruptFunc(func() { cancelled = true })

	out, err := printer.Show(label)
	if cancelled {
		return false, ErrCancelled
	}
	if err != nil {
		return false, errors.Errorf("reading confirmation: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("label", label).Bool("choice", out).Msg("confirmation answered")
	return out, nil
}

func (t *Terminal) Pause(ctx context.Context, label string) error {
	cancelled := false
	printer := pterm.DefaultInteractiveTextInput.
		WithOnInterruptFunc(func() { cancelled = true })

	_, err := printer.Show(label)
	if cancelled {
		return ErrCancelled
	}
	if err != nil {
		return errors.Errorf("waiting for acknowledgement: %w", err)
	}
	return nil
}
