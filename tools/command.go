package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/m4xw311/codewright/errors"
)

const (
	defaultCommandTimeout = 30 * time.Second
	installTimeout        = 120 * time.Second
	maxOutputBytes        = 10 * 1024 * 1024
)

type BashCommandInput struct {
	Command   string `json:"command"`
	TimeoutMs int64  `json:"timeout_ms"`
}

type InstallNpmInput struct {
	Packages []string `json:"packages"`
	Dev      bool     `json:"dev"`
}

type InstallPipInput struct {
	Packages []string `json:"packages"`
}

// boundedBuffer collects subprocess output up to a fixed cap. Exceeding the
// cap aborts the write, which kills the command rather than the process
// hosting it.
type boundedBuffer struct {
	data []byte
	max  int
}

var errOutputOverflow = errors.New("command output exceeded buffer limit")

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if len(b.data)+len(p) > b.max {
		return 0, errOutputOverflow
	}
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	return strings.TrimSpace(string(b.data))
}

func (e *Executor) bashCommand(ctx context.Context, in BashCommandInput) Result {
	if err := checkCommand(in.Command, e.allowedCommands, e.deniedCommands); err != nil {
		return &CommandResult{
			Envelope: Envelope{Error: err.Error()},
			Command:  in.Command,
			Stderr:   err.Error(),
			ExitCode: 1,
		}
	}

	timeout := defaultCommandTimeout
	if in.TimeoutMs > 0 {
		timeout = time.Duration(in.TimeoutMs) * time.Millisecond
	}
	return e.runShell(ctx, in.Command, timeout)
}

// runShell executes an already-validated command through the shell with a
// deadline and bounded output buffers.
func (e *Executor) runShell(ctx context.Context, command string, timeout time.Duration) *CommandResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = e.guard.root
	stdout := &boundedBuffer{max: maxOutputBytes}
	stderr := &boundedBuffer{max: maxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	result := &CommandResult{
		Command: command,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		result.Error = fmt.Sprintf("command timed out after %s", timeout)
		result.ExitCode = -1
	case errors.Is(err, errOutputOverflow):
		result.Error = errOutputOverflow.Error()
		result.ExitCode = -1
	case err != nil:
		result.Error = err.Error()
		result.ExitCode = exitCode(cmd, err)
		if result.Stderr == "" {
			result.Stderr = err.Error()
		}
	default:
		result.Success = true
		result.ExitCode = 0
	}
	return result
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		if code := cmd.ProcessState.ExitCode(); code >= 0 {
			return code
		}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func (e *Executor) installNpmPackage(ctx context.Context, in InstallNpmInput) Result {
	if len(in.Packages) == 0 {
		return failure("No packages specified")
	}

	flag := "--save"
	if in.Dev {
		flag = "--save-dev"
	}
	command := fmt.Sprintf("npm install %s %s", flag, strings.Join(in.Packages, " "))
	if err := checkCommand(command, e.allowedCommands, e.deniedCommands); err != nil {
		return failure("%v", err)
	}

	cmdResult := e.runShell(ctx, command, installTimeout)
	result := &InstallResult{CommandResult: *cmdResult, Packages: in.Packages, Dev: in.Dev}
	if result.Success {
		result.Message = fmt.Sprintf("Successfully installed: %s", strings.Join(in.Packages, " "))
	} else {
		result.Message = fmt.Sprintf("Failed to install: %s", strings.Join(in.Packages, " "))
	}
	return result
}

func (e *Executor) installPipPackage(ctx context.Context, in InstallPipInput) Result {
	if len(in.Packages) == 0 {
		return failure("No packages specified")
	}

	command := fmt.Sprintf("pip install %s", strings.Join(in.Packages, " "))
	if err := checkCommand(command, e.allowedCommands, e.deniedCommands); err != nil {
		return failure("%v", err)
	}

	cmdResult := e.runShell(ctx, command, installTimeout)
	result := &InstallResult{CommandResult: *cmdResult, Packages: in.Packages}
	if result.Success {
		result.Message = fmt.Sprintf("Successfully installed: %s", strings.Join(in.Packages, " "))
	} else {
		result.Message = fmt.Sprintf("Failed to install: %s", strings.Join(in.Packages, " "))
	}
	return result
}
