package nmcli

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandExecutor runs an external program with a fixed argument vector.
// Implementations must never route arguments through a shell.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NativeExecutor runs commands directly on the host.
type NativeExecutor struct{}

func (e *NativeExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// CommandError is a failed invocation with its output attached.
type CommandError struct {
	Command string
	Args    []string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	fullCmd := e.Command
	if len(e.Args) > 0 {
		fullCmd += " " + strings.Join(e.Args, " ")
	}
	if e.Output == "" {
		return fmt.Sprintf("command failed: '%s': %v", fullCmd, e.Err)
	}
	return fmt.Sprintf("command failed: '%s': %v: %s", fullCmd, e.Err, formatOutput(e.Output))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func formatOutput(output string) string {
	output = strings.TrimSpace(output)
	if len(output) > 500 {
		output = output[:500] + "... [output truncated]"
	}
	return strings.ReplaceAll(output, "\n", " | ")
}

// redact replaces every secret in s.
func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, "********")
	}
	return s
}

func newCommandError(name string, args []string, output []byte, err error, secrets []string) *CommandError {
	redacted := make([]string, len(args))
	for i, arg := range args {
		redacted[i] = redact(arg, secrets)
	}
	return &CommandError{
		Command: name,
		Args:    redacted,
		Output:  redact(string(output), secrets),
		Err:     err,
	}
}
