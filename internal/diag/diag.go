// Package diag reads peripheral and configuration-profile state from the
// macOS system tools and converts it to JSON-friendly values.
package diag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// Collector gathers diagnostics through a Runner.
type Collector struct {
	Runner Runner
	Logger *slog.Logger
}

// NewCollector returns a Collector that shells out to the real tools.
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{Runner: ExecRunner{}, Logger: logger}
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Collector) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	c.logger().Debug("running system tool", "command", name, "args", args)
	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	return runner.Run(ctx, name, args...)
}

// WriteJSON writes v with four-space indentation and a trailing newline.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
