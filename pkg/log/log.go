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
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Display configuration
const (
	stepIndent = 4  // spaces to indent step entries
	textWidth  = 40 // base width for step text
	stateWidth = 12 // width for state text
	fieldWidth = 16 // width for detail labels
)

// 🏷️ MessageKind classifies a one-shot console message
type MessageKind string

const (
	KindInfo    MessageKind = "info"
	KindSuccess MessageKind = "success"
	KindWarning MessageKind = "warning"
	KindError   MessageKind = "error"
)

// ParseMessageKind parses a message kind as it appears on the wire.
func ParseMessageKind(s string) (MessageKind, error) {
	switch MessageKind(s) {
	case KindInfo, KindSuccess, KindWarning, KindError:
		return MessageKind(s), nil
	}
	return "", errors.Errorf("unknown message kind: %q", s)
}

// 📊 StepState represents the current state of a long-running step
type StepState int

const (
	StatePending StepState = iota
	StateActive
	StateCompleted
	StateFailed
)

// String returns a string representation of StepState
func (s StepState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseStepState parses a step state as it appears on the wire.
func ParseStepState(s string) (StepState, error) {
	switch s {
	case "pending":
		return StatePending, nil
	case "active":
		return StateActive, nil
	case "completed":
		return StateCompleted, nil
	case "failed":
		return StateFailed, nil
	}
	return StatePending, errors.Errorf("unknown step state: %q", s)
}

// 🎯 StepUpdate is one keyed progress update for a long-running step
type StepUpdate struct {
	ID    string // Stable key, repeated updates replace earlier state
	Text  string // Human-readable step text
	State StepState
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	steps   map[string]StepUpdate
	order   []string
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		steps:   make(map[string]StepUpdate),
	}
}

// 🏭 NewWithLogger creates a logger mirroring into an existing zerolog logger.
func NewWithLogger(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		steps:   make(map[string]StepUpdate),
	}
}

// 📝 formatStep formats a step update for display
func (l *Logger) formatStep(up StepUpdate) string {
	var symbol rune
	var symbolColor color.Attribute
	switch up.State {
	case StateCompleted:
		symbol = '✓'
		symbolColor = color.FgGreen
	case StateActive:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case StateFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	return fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", stepIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", textWidth, up.Text),
		color.New(color.Faint).Sprint(fmt.Sprintf("%-*s", stateWidth, up.State.String())))
}

// 📝 Step records and prints a keyed progress update
func (l *Logger) Step(up StepUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.steps[up.ID]; !seen {
		l.order = append(l.order, up.ID)
	}
	l.steps[up.ID] = up

	fmt.Fprintln(l.console, l.formatStep(up))

	l.zlog.Info().
		Str("step", up.ID).
		Str("text", up.Text).
		Str("state", up.State.String()).
		Msg("step update")
}

// 📊 Steps returns the last recorded update per step, in first-seen order
func (l *Logger) Steps() []StepUpdate {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]StepUpdate, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.steps[id])
	}
	return out
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	mkpkgText := color.New(color.Bold, color.FgCyan).Sprint("mkpkg")
	fmt.Fprintf(l.console, "\n%s %s\n\n", mkpkgText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Message logs a one-shot message of the given kind
func (l *Logger) Message(kind MessageKind, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch kind {
	case KindSuccess:
		fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
		l.zlog.Info().Msg(msg)
	case KindWarning:
		fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
		l.zlog.Warn().Msg(msg)
	case KindError:
		fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
		l.zlog.Error().Msg(msg)
	default:
		fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
		l.zlog.Info().Msg(msg)
	}
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.Message(KindSuccess, msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.Message(KindWarning, msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.Message(KindError, msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.Message(KindInfo, msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

// 📝 Field prints an aligned label/value detail line
func (l *Logger) Field(label string, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "%*s%s %s\n",
		stepIndent, "",
		color.New(color.Faint).Sprint(fmt.Sprintf("%-*s", fieldWidth, label+":")),
		value)
	l.zlog.Debug().Str(label, value).Msg("detail")
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 🌀 Spinner is a live indicator for an indeterminate wait, mirrored into
// zerolog so non-interactive logs still tell the story.
type Spinner struct {
	printer *pterm.SpinnerPrinter
	zlog    zerolog.Logger
}

// 🌀 StartSpinner starts a live spinner with the given text
func (l *Logger) StartSpinner(text string) *Spinner {
	printer, err := pterm.DefaultSpinner.WithWriter(l.console).Start(text)
	if err != nil {
		// Degrade to a plain line, the spinner is cosmetic.
		l.Info(text)
		printer = nil
	}
	l.zlog.Info().Str("spinner", text).Msg("waiting")
	return &Spinner{printer: printer, zlog: l.zlog}
}

// UpdateText updates the live spinner text.
func (s *Spinner) UpdateText(text string) {
	if s.printer != nil {
		s.printer.UpdateText(text)
	}
	s.zlog.Info().Str("spinner", text).Msg("still waiting")
}

// Success stops the spinner with a success mark.
func (s *Spinner) Success(text string) {
	if s.printer != nil {
		s.printer.Success(text)
	}
	s.zlog.Info().Str("spinner", text).Msg("wait finished")
}

// Fail stops the spinner with a failure mark.
func (s *Spinner) Fail(text string) {
	if s.printer != nil {
		s.printer.Fail(text)
	}
	s.zlog.Warn().Str("spinner", text).Msg("wait failed")
}
