package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/m4xw311/codewright/errors"
)

// maxSearchResults caps how many parsed matches a search returns to the model.
const maxSearchResults = 100

var searchExcludeDirs = []string{"node_modules", ".git", "dist", "build", "vendor"}

type SearchCodebaseInput struct {
	Query       string `json:"query"`
	FilePattern string `json:"file_pattern"`
}

type GrepFilesInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
}

type FileInfoInput struct {
	FilePath string `json:"file_path"`
}

var matchLine = regexp.MustCompile(`^([^:]+):(\d+):(.*)$`)

// runGrep invokes grep with an argument vector, never through a shell, so
// query strings cannot inject commands. Exit status 1 means no matches and
// is not an error.
func (e *Executor) runGrep(ctx context.Context, args []string, dir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "grep", args...)
	cmd.Dir = dir
	stdout := &boundedBuffer{max: maxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = &boundedBuffer{max: maxOutputBytes}

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return stdout.String(), nil
}

func parseMatches(output, root string) []Match {
	if output == "" {
		return nil
	}
	var matches []Match
	for _, line := range strings.Split(output, "\n") {
		m := matchLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		file := strings.TrimPrefix(m[1], "./")
		if filepath.IsAbs(file) {
			if rel, err := filepath.Rel(root, file); err == nil {
				file = rel
			}
		}
		matches = append(matches, Match{File: file, Line: lineNo, Content: strings.TrimSpace(m[3])})
		if len(matches) >= maxSearchResults {
			break
		}
	}
	return matches
}

func excludeArgs() []string {
	args := make([]string, 0, len(searchExcludeDirs))
	for _, dir := range searchExcludeDirs {
		args = append(args, "--exclude-dir="+dir)
	}
	return args
}

func (e *Executor) searchCodebase(ctx context.Context, in SearchCodebaseInput) Result {
	if in.Query == "" {
		return failure("missing 'query' argument")
	}

	// -F searches for the literal string, sidestepping regex injection.
	args := append([]string{"-r", "-n", "-i", "-F", in.Query}, excludeArgs()...)
	args = append(args, ".")

	output, err := e.runGrep(ctx, args, e.guard.root)
	if err != nil {
		return &SearchResult{
			Envelope:    Envelope{Error: err.Error()},
			Query:       in.Query,
			FilePattern: in.FilePattern,
		}
	}

	matches := parseMatches(output, e.guard.root)
	if in.FilePattern != "" {
		matches = filterByPattern(matches, in.FilePattern)
	}

	result := &SearchResult{
		Envelope:     ok(),
		Query:        in.Query,
		FilePattern:  in.FilePattern,
		Matches:      matches,
		TotalMatches: len(matches),
		Message:      fmt.Sprintf("Found %d matches", len(matches)),
	}
	if len(matches) == 0 {
		result.Message = "No matches found"
	}
	return result
}

// filterByPattern keeps matches whose file base name satisfies the glob.
func filterByPattern(matches []Match, pattern string) []Match {
	var kept []Match
	for _, m := range matches {
		match, err := doublestar.Match(pattern, filepath.Base(m.File))
		if err != nil {
			// An invalid pattern filters nothing rather than failing the search.
			return matches
		}
		if match {
			kept = append(kept, m)
		}
	}
	return kept
}

func (e *Executor) grepFiles(ctx context.Context, in GrepFilesInput) Result {
	if in.Pattern == "" {
		return failure("missing 'pattern' argument")
	}
	if in.Path == "" {
		in.Path = "."
	}
	abs, err := e.guard.resolve(in.Path)
	if err != nil {
		return failure("%v", err)
	}

	args := append([]string{"-r", "-n", "-E", in.Pattern}, excludeArgs()...)
	args = append(args, abs)

	output, err := e.runGrep(ctx, args, e.guard.root)
	if err != nil {
		return &SearchResult{
			Envelope: Envelope{Error: err.Error()},
			Pattern:  in.Pattern,
			Path:     in.Path,
		}
	}

	matches := parseMatches(output, e.guard.root)
	result := &SearchResult{
		Envelope:     ok(),
		Pattern:      in.Pattern,
		Path:         in.Path,
		Matches:      matches,
		TotalMatches: len(matches),
	}
	if len(matches) == 0 {
		result.Message = "No matches found"
	}
	return result
}

func (e *Executor) fileInfo(in FileInfoInput) Result {
	abs, err := e.guard.resolve(in.FilePath)
	if err != nil {
		return failure("%v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return &FileInfoResult{
			Envelope: Envelope{Error: err.Error()},
			FilePath: in.FilePath,
		}
	}

	accessed, changed := statTimes(info)
	return &FileInfoResult{
		Envelope:    ok(),
		FilePath:    in.FilePath,
		Size:        info.Size(),
		SizeKB:      fmt.Sprintf("%.2f", float64(info.Size())/1024),
		IsDirectory: info.IsDir(),
		IsFile:      info.Mode().IsRegular(),
		Modified:    info.ModTime(),
		Accessed:    accessed,
		Changed:     changed,
	}
}
