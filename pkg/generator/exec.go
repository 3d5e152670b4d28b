package generator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/mkpkg/pkg/log"
)

// ExecGenerator launches an external generator executable, feeds it the run
// options as JSON on stdin, and translates the NDJSON events it prints on
// stdout into Logger calls.
type ExecGenerator struct {
	Command string
	Args    []string
}

// NewExecGenerator creates a generator around an external command.
func NewExecGenerator(command string, args ...string) *ExecGenerator {
	return &ExecGenerator{Command: command, Args: args}
}

// event is one NDJSON line from the generator process.
type event struct {
	Event string `json:"event"` // "message" or "state"
	Text  string `json:"text"`
	Kind  string `json:"kind,omitempty"`
	ID    string `json:"id,omitempty"`
	State string `json:"state,omitempty"`
}

// Run executes the generator to completion. A non-zero exit fails with the
// captured stderr; undecodable progress lines are skipped, not fatal.
func (g *ExecGenerator) Run(ctx context.Context, opts RunOptions, logger Logger) error {
	zlog := zerolog.Ctx(ctx)

	payload, err := json.Marshal(opts)
	if err != nil {
		return errors.Errorf("encoding run options: %w", err)
	}

	cmd := exec.CommandContext(ctx, g.Command, g.Args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Errorf("wiring generator stdout: %w", err)
	}

	zlog.Debug().Str("command", g.Command).Strs("args", g.Args).Msg("starting generator")
	if err := cmd.Start(); err != nil {
		return errors.Errorf("starting generator %s: %w", g.Command, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		g.dispatch(ctx, line, logger)
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return errors.Errorf("generator %s failed: %s: %w", g.Command, detail, err)
		}
		return errors.Errorf("generator %s failed: %w", g.Command, err)
	}
	if scanErr != nil {
		return errors.Errorf("reading generator output: %w", scanErr)
	}
	return nil
}

func (g *ExecGenerator) dispatch(ctx context.Context, line []byte, logger Logger) {
	zlog := zerolog.Ctx(ctx)

	var ev event
	if err := json.Unmarshal(line, &ev); err != nil {
		zlog.Debug().Err(err).Bytes("line", line).Msg("unparseable generator event")
		return
	}

	switch ev.Event {
	case "message":
		kind, err := log.ParseMessageKind(ev.Kind)
		if err != nil {
			kind = log.KindInfo
		}
		logger.LogMessage(ev.Text, kind)

	case "state":
		state, err := log.ParseStepState(ev.State)
		if err != nil {
			zlog.Debug().Err(err).Str("state", ev.State).Msg("unknown generator state")
			return
		}
		logger.LogState(ev.ID, ev.Text, state)

	default:
		zlog.Debug().Str("event", ev.Event).Msg("unknown generator event")
	}
}
