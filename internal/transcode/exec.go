package transcode

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, output io.Writer) error
}

// NewExecutor returns the production executor backed by os/exec.
func NewExecutor() Executor {
	return commandExecutor{}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, output io.Writer) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if output != nil {
		cmd.Stdout = output
		cmd.Stderr = output
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", binary, err)
	}
	return nil
}

// CommandLine renders a binary and its arguments as a copy-pasteable string
// with every token quoted. Used by dry-run output.
func CommandLine(binary string, args []string) string {
	tokens := make([]string, 0, len(args)+1)
	tokens = append(tokens, fmt.Sprintf("%q", binary))
	for _, arg := range args {
		tokens = append(tokens, fmt.Sprintf("%q", arg))
	}
	return strings.Join(tokens, " ")
}
