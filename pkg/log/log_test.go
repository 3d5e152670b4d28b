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

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Errorf("error %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ error test",
				"✅ success test",
			},
		},
		{
			name: "log_by_kind",
			op: func(t *testing.T, logger *Logger) {
				logger.Message(KindInfo, "hello")
				logger.Message(KindError, "broke")
			},
			wantLogs: []string{
				"ℹ️  hello",
				"❌ broke",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("scaffolding a new package")
			},
			wantLogs: []string{
				"mkpkg • scaffolding a new package",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Info("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"ℹ️  second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create buffer for console output
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.InfoLevel)

			// Perform operation
			tt.op(t, logger)

			// Check output
			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestStepFormatting(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		up   StepUpdate
		want string
	}{
		{
			name: "completed_step",
			up: StepUpdate{
				ID:    "git",
				Text:  "Initialized repository",
				State: StateCompleted,
			},
			want: "✓ Initialized repository                   completed",
		},
		{
			name: "active_step",
			up: StepUpdate{
				ID:    "deps",
				Text:  "Installing dependencies",
				State: StateActive,
			},
			want: "⟳ Installing dependencies                  active",
		},
		{
			name: "failed_step",
			up: StepUpdate{
				ID:    "publish",
				Text:  "Publishing package",
				State: StateFailed,
			},
			want: "✗ Publishing package                       failed",
		},
		{
			name: "pending_step",
			up: StepUpdate{
				ID:    "remote",
				Text:  "Creating remote",
				State: StatePending,
			},
			want: "• Creating remote                          pending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.InfoLevel)

			logger.Step(tt.up)

			output := strings.TrimSpace(buf.String())
			assert.Equal(t, tt.want, output, "formatted output should match")
		})
	}
}

func TestStepsKeepLatestStatePerID(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, zerolog.InfoLevel)

	logger.Step(StepUpdate{ID: "deps", Text: "Installing dependencies", State: StateActive})
	logger.Step(StepUpdate{ID: "git", Text: "Initializing repository", State: StateActive})
	logger.Step(StepUpdate{ID: "deps", Text: "Installed dependencies", State: StateCompleted})

	steps := logger.Steps()
	require.Len(t, steps, 2, "repeated updates should collapse by id")
	assert.Equal(t, "deps", steps[0].ID, "first-seen order should be kept")
	assert.Equal(t, StateCompleted, steps[0].State, "latest state should win")
	assert.Equal(t, "git", steps[1].ID, "second step should follow")
	assert.Equal(t, StateActive, steps[1].State, "untouched step keeps its state")
}

func TestFieldAlignsLabels(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	buf := &bytes.Buffer{}
	logger := New(buf, zerolog.InfoLevel)

	logger.Field("name", "demo")
	logger.Field("repository", "git@github.com:walteh/demo.git")

	assert.Equal(t, "    name:            demo\n", buf.String()[:len("    name:            demo\n")],
		"label column should be padded")
	assert.Contains(t, buf.String(), "repository:      git@github.com:walteh/demo.git",
		"values should follow the padded label")
}

func TestParseMessageKind(t *testing.T) {
	kind, err := ParseMessageKind("warning")
	require.NoError(t, err, "warning should parse")
	assert.Equal(t, KindWarning, kind, "parsed kind should match")

	_, err = ParseMessageKind("verbose")
	require.Error(t, err, "unknown kind should be rejected")
}

func TestParseStepState(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    StepState
		wantErr bool
	}{
		{name: "pending", in: "pending", want: StatePending},
		{name: "active", in: "active", want: StateActive},
		{name: "completed", in: "completed", want: StateCompleted},
		{name: "failed", in: "failed", want: StateFailed},
		{name: "unknown", in: "done", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStepState(tt.in)
			if tt.wantErr {
				require.Error(t, err, "ParseStepState should reject %q", tt.in)
				return
			}
			require.NoError(t, err, "ParseStepState should accept %q", tt.in)
			assert.Equal(t, tt.want, got, "parsed state should match")
			assert.Equal(t, tt.in, got.String(), "String should round-trip")
		})
	}
}
