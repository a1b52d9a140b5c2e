package tools

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/m4xw311/codewright/errors"
)

// Built-in command safety lists. The deny list is checked first and always
// wins; a match blocks the command even when its leading executable is
// allowed. Config may extend both lists but never shrink the deny list.
var dangerousSubstrings = []string{
	"rm -rf", "rm -fr", "dd", "mkfs", "format",
	"> /dev/", "chmod 777", "chown", "sudo",
	"shutdown", "reboot", "init", "halt",
}

var allowedExecutables = []string{
	"npm", "node", "python", "python3", "pip", "pip3",
	"ls", "cat", "grep", "find", "pwd", "echo",
	"git", "curl", "wget", "mkdir", "touch",
	"go", "gofmt", "tsc", "tsx", "jest", "vitest", "eslint",
}

// checkCommand validates a shell command against the deny and allow lists.
// A nil return means the command may run.
func checkCommand(command string, extraAllowed, extraDenied []string) error {
	lower := strings.ToLower(strings.TrimSpace(command))

	for _, dangerous := range dangerousSubstrings {
		if strings.Contains(lower, dangerous) {
			return errors.New("Dangerous command blocked: %s", dangerous)
		}
	}
	for _, dangerous := range extraDenied {
		if dangerous != "" && strings.Contains(lower, strings.ToLower(dangerous)) {
			return errors.New("Dangerous command blocked: %s", dangerous)
		}
	}

	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return errors.New("Command is empty")
	}
	first := fields[0]
	if idx := strings.LastIndex(first, "/"); idx >= 0 {
		first = first[idx+1:]
	}

	for _, cmd := range append(allowedExecutables, extraAllowed...) {
		if first == cmd {
			return nil
		}
	}
	return errors.New("Command not in whitelist: %s", first)
}

// pathGuard resolves tool-supplied paths against a fixed project root and
// rejects anything that escapes it. Hidden and read-only globs from config
// add a second layer on top of the sandbox.
type pathGuard struct {
	root     string // absolute, cleaned
	hidden   []string
	readOnly []string
}

// resolve turns a tool-supplied path into an absolute path inside the
// project root. Paths that resolve outside the root are rejected before any
// filesystem access happens.
func (g *pathGuard) resolve(p string) (string, error) {
	if p == "" {
		p = "."
	}
	var abs string
	if filepath.IsAbs(p) {
		abs = filepath.Clean(p)
	} else {
		abs = filepath.Clean(filepath.Join(g.root, p))
	}
	if abs != g.root && !strings.HasPrefix(abs, g.root+string(filepath.Separator)) {
		return "", errors.New("Access denied: path outside project directory")
	}

	rel, err := filepath.Rel(g.root, abs)
	if err != nil {
		return "", errors.Wrapf(err, "invalid path '%s'", p)
	}
	restricted, err := matchesAny(rel, g.hidden)
	if err != nil {
		return "", err
	}
	if restricted {
		return "", errors.New("Access denied: path '%s' is hidden", p)
	}
	return abs, nil
}

// resolveForWrite additionally enforces the read-only globs.
func (g *pathGuard) resolveForWrite(p string) (string, error) {
	abs, err := g.resolve(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(g.root, abs)
	if err != nil {
		return "", errors.Wrapf(err, "invalid path '%s'", p)
	}
	readOnly, err := matchesAny(rel, g.readOnly)
	if err != nil {
		return "", err
	}
	if readOnly {
		return "", errors.New("Access denied: path '%s' is read-only", p)
	}
	return abs, nil
}

// hiddenName reports whether a directory entry should be skipped by the
// listing and tree tools: dotfiles, dependency and build directories.
func hiddenName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "node_modules", "vendor", "dist", "build", "__pycache__":
		return true
	}
	return false
}

func matchesAny(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, errors.Wrapf(err, "invalid glob pattern '%s'", pattern)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}
