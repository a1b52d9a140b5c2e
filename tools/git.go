package tools

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const maxCommitMessageLen = 500

type GitDiffInput struct {
	FilePath string `json:"file_path"`
}

type GitCommitInput struct {
	Message string `json:"message"`
}

var commitHashRe = regexp.MustCompile(`\[.*?([a-f0-9]{7,})\]`)

// runGit executes a git subcommand with an argument vector in the project
// root. The returned CommandResult carries stdout/stderr/exit code; callers
// classify well-known failure causes from the combined output.
func (e *Executor) runGit(ctx context.Context, timeout time.Duration, args ...string) *CommandResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.guard.root
	stdout := &boundedBuffer{max: maxOutputBytes}
	stderr := &boundedBuffer{max: maxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	result := &CommandResult{
		Command: "git " + strings.Join(args, " "),
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if ctx.Err() == context.DeadlineExceeded {
		result.Error = fmt.Sprintf("git command timed out after %s", timeout)
		result.ExitCode = -1
		return result
	}
	if err != nil {
		result.Error = err.Error()
		result.ExitCode = exitCode(cmd, err)
		if result.Stderr == "" {
			result.Stderr = err.Error()
		}
		return result
	}
	result.Success = true
	return result
}

func (r *CommandResult) combinedOutput() string {
	return strings.ToLower(r.Stdout + "\n" + r.Stderr + "\n" + r.Error)
}

func (e *Executor) gitStatus(ctx context.Context) Result {
	cmd := e.runGit(ctx, 10*time.Second, "status", "--porcelain")
	result := &GitStatusResult{CommandResult: *cmd}
	if !cmd.Success {
		if strings.Contains(cmd.combinedOutput(), "not a git repository") {
			result.Error = "Not a git repository. Initialize with 'git init' first."
		}
		return result
	}

	result.HasChanges = cmd.Stdout != ""
	if result.HasChanges {
		result.Message = "Git status retrieved"
	} else {
		result.Message = "No changes detected"
	}
	return result
}

func (e *Executor) gitDiff(ctx context.Context, in GitDiffInput) Result {
	args := []string{"diff"}
	if in.FilePath != "" {
		args = append(args, "--", in.FilePath)
	}
	cmd := e.runGit(ctx, 30*time.Second, args...)
	result := &GitDiffResult{CommandResult: *cmd, FilePath: in.FilePath}
	if !cmd.Success {
		out := cmd.combinedOutput()
		switch {
		case strings.Contains(out, "not a git repository"):
			result.Error = "Not a git repository. Initialize with 'git init' first."
		case strings.Contains(out, "does not exist"):
			result.Error = fmt.Sprintf("File not found: %s", in.FilePath)
		}
		return result
	}

	result.HasDiff = cmd.Stdout != ""
	if result.HasDiff {
		result.Message = "Diff retrieved"
		if in.FilePath != "" {
			result.Message = fmt.Sprintf("Diff retrieved for %s", in.FilePath)
		}
	} else {
		result.Message = "No uncommitted changes"
	}
	return result
}

func (e *Executor) gitCommit(ctx context.Context, in GitCommitInput) Result {
	if strings.TrimSpace(in.Message) == "" {
		return failure("Commit message is required and cannot be empty")
	}
	if len(in.Message) > maxCommitMessageLen {
		return failure("Commit message must be %d characters or less", maxCommitMessageLen)
	}

	if add := e.runGit(ctx, 30*time.Second, "add", "-A"); !add.Success {
		result := &GitCommitResult{CommandResult: *add, CommitMessage: in.Message}
		if strings.Contains(add.combinedOutput(), "not a git repository") {
			result.Error = "Not a git repository. Initialize with 'git init' first."
		}
		return result
	}

	// The message travels as a single argv element so quoting in it is inert.
	cmd := e.runGit(ctx, 30*time.Second, "commit", "-m", in.Message)
	result := &GitCommitResult{CommandResult: *cmd, CommitMessage: in.Message}
	if !cmd.Success {
		out := cmd.combinedOutput()
		switch {
		case strings.Contains(out, "not a git repository"):
			result.Error = "Not a git repository. Initialize with 'git init' first."
		case strings.Contains(out, "nothing to commit") || strings.Contains(out, "nothing added to commit"):
			result.Error = "No changes to commit. Use git_status to check repository status."
		case strings.Contains(out, "user.name") || strings.Contains(out, "user.email"):
			result.Error = "Git user not configured. Set user.name and user.email with 'git config' first."
		}
		return result
	}

	if m := commitHashRe.FindStringSubmatch(cmd.Stdout); m != nil {
		result.CommitHash = m[1]
	}
	result.Message = "Successfully committed changes"
	if result.CommitHash != "" {
		result.Message = fmt.Sprintf("Successfully committed changes: %s", result.CommitHash)
	}
	return result
}
