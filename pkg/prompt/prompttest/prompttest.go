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

// Package prompttest provides a scripted Prompter for wizard tests.
package prompttest

import (
	"context"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// 📜 Response is one scripted prompt answer. Label, when set, must appear in
// the actual prompt label or the script fails the run.
type Response struct {
	Label string
	Value string // Input/Select answer
	Bool  bool   // Confirm answer
	Err   error  // Returned instead of the answer when set
}

// 🎭 Prompter replays scripted responses in FIFO order per prompt kind and
// records everything it was asked.
type Prompter struct {
	mu       sync.Mutex
	Inputs   []Response
	Selects  []Response
	Confirms []Response
	Pauses   []Response

	// AskedLabels records every prompt label in call order.
	AskedLabels []string
	// OfferedOptions records the option list of every Select call.
	OfferedOptions [][]string
}

func (p *Prompter) Input(ctx context.Context, label string, defaultValue string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AskedLabels = append(p.AskedLabels, label)

	resp, err := pop(&p.Inputs, "input", label)
	if err != nil {
		return "", err
	}
	if resp.Err != nil {
		return "", resp.Err
	}
	if resp.Value == "" {
		return defaultValue, nil
	}
	return resp.Value, nil
}

func (p *Prompter) Select(ctx context.Context, label string, options []string, defaultOption string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AskedLabels = append(p.AskedLabels, label)
	p.OfferedOptions = append(p.OfferedOptions, append([]string(nil), options...))

	resp, err := pop(&p.Selects, "select", label)
	if err != nil {
		return "", err
	}
	if resp.Err != nil {
		return "", resp.Err
	}

	choice := resp.Value
	if choice == "" {
		choice = defaultOption
	}
	for _, opt := range options {
		if opt == choice {
			return choice, nil
		}
	}
	return "", errors.Errorf("scripted choice %q not offered at %q (options: %v)", choice, label, options)
}

func (p *Prompter) Confirm(ctx context.Context, label string, defaultValue bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AskedLabels = append(p.AskedLabels, label)

	resp, err := pop(&p.Confirms, "confirm", label)
	if err != nil {
		return false, err
	}
	if resp.Err != nil {
		return false, resp.Err
	}
	return resp.Bool, nil
}

func (p *Prompter) Pause(ctx context.Context, label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AskedLabels = append(p.AskedLabels, label)

	resp, err := pop(&p.Pauses, "pause", label)
	if err != nil {
		return err
	}
	return resp.Err
}

// Remaining reports how many scripted responses were never consumed, so
// tests can assert the script ran to completion.
func (p *Prompter) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Inputs) + len(p.Selects) + len(p.Confirms) + len(p.Pauses)
}

func pop(queue *[]Response, kind, label string) (Response, error) {
	if len(*queue) == 0 {
		return Response{}, errors.Errorf("unexpected %s prompt: %q", kind, label)
	}
	resp := (*queue)[0]
	*queue = (*queue)[1:]

	if resp.Label != "" && !strings.Contains(label, resp.Label) {
		return Response{}, errors.Errorf("scripted %s expected label containing %q, got %q", kind, resp.Label, label)
	}
	return resp, nil
}
