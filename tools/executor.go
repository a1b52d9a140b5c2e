package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/m4xw311/codewright/config"
	"github.com/m4xw311/codewright/errors"
)

// Executor dispatches tool calls to their implementations, enforcing path
// and command safety, timing every execution, and converting every failure
// mode into a Result. Execute never returns a Go error and never panics.
type Executor struct {
	guard           *pathGuard
	allowedCommands []string
	deniedCommands  []string
}

// NewExecutor builds an executor sandboxed to the configured project root.
func NewExecutor(cfg *config.Config) (*Executor, error) {
	root, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resolve project root '%s'", cfg.ProjectRoot)
	}
	return &Executor{
		guard: &pathGuard{
			root:     filepath.Clean(root),
			hidden:   cfg.FilesystemAccess.Hidden,
			readOnly: cfg.FilesystemAccess.ReadOnly,
		},
		allowedCommands: cfg.Commands.Allowed,
		deniedCommands:  cfg.Commands.Denied,
	}, nil
}

// Root returns the absolute project root the executor is sandboxed to.
func (e *Executor) Root() string {
	return e.guard.root
}

// Execute runs the named tool with the model-supplied arguments and returns
// the uniform result envelope. Unknown tools, bad arguments and panicking
// implementations all come back as failure results.
func (e *Executor) Execute(ctx context.Context, name string, input map[string]interface{}) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool panicked", "tool", name, "panic", r)
			result = failure("tool '%s' crashed: %v", name, r)
		}
		result.setExecutionTime(time.Since(start).Milliseconds())
		slog.Debug("tool executed", "tool", name, "success", result.OK(),
			"duration_ms", time.Since(start).Milliseconds())
	}()

	result = e.dispatch(ctx, name, input)
	return result
}

func (e *Executor) dispatch(ctx context.Context, name string, input map[string]interface{}) Result {
	switch name {
	case "read_file":
		var in ReadFileInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.readFile(in)
	case "write_file":
		var in WriteFileInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.writeFile(in)
	case "edit_file":
		var in EditFileInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.editFile(in)
	case "delete_file":
		var in DeleteFileInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.deleteFile(in)
	case "list_files":
		var in ListFilesInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.listFiles(in)
	case "get_file_structure":
		var in FileStructureInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.fileStructure(in)
	case "bash_command":
		var in BashCommandInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.bashCommand(ctx, in)
	case "install_npm_package":
		var in InstallNpmInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.installNpmPackage(ctx, in)
	case "install_pip_package":
		var in InstallPipInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.installPipPackage(ctx, in)
	case "search_codebase":
		var in SearchCodebaseInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.searchCodebase(ctx, in)
	case "grep_files":
		var in GrepFilesInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.grepFiles(ctx, in)
	case "get_file_info":
		var in FileInfoInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.fileInfo(in)
	case "git_status":
		return e.gitStatus(ctx)
	case "git_diff":
		var in GitDiffInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.gitDiff(ctx, in)
	case "git_commit":
		var in GitCommitInput
		if err := decodeInput(input, &in); err != nil {
			return failure("%v", err)
		}
		return e.gitCommit(ctx, in)
	default:
		return failure("Unknown tool: %s", name)
	}
}

// decodeInput converts the untyped argument map the model produced into the
// tool's typed input struct. Unknown keys are ignored; type mismatches fail.
func decodeInput(input map[string]interface{}, dst interface{}) error {
	data, err := json.Marshal(input)
	if err != nil {
		return errors.Wrapf(err, "could not encode tool arguments")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Wrapf(err, "invalid tool arguments")
	}
	return nil
}
