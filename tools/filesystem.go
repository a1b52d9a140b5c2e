package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ReadFileInput struct {
	FilePath string `json:"file_path"`
}

type WriteFileInput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

type EditFileInput struct {
	FilePath  string `json:"file_path"`
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
}

type DeleteFileInput struct {
	FilePath string `json:"file_path"`
}

type ListFilesInput struct {
	Directory string `json:"directory"`
	Recursive bool   `json:"recursive"`
}

type FileStructureInput struct {
	Path string `json:"path"`
}

func (e *Executor) readFile(in ReadFileInput) Result {
	abs, err := e.guard.resolve(in.FilePath)
	if err != nil {
		return failure("%v", err)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return &ReadFileResult{
			Envelope: Envelope{Error: fmt.Sprintf("failed to read file '%s': %v", in.FilePath, err)},
			FilePath: in.FilePath,
		}
	}
	return &ReadFileResult{Envelope: ok(), FilePath: in.FilePath, Content: string(content)}
}

func (e *Executor) writeFile(in WriteFileInput) Result {
	abs, err := e.guard.resolveForWrite(in.FilePath)
	if err != nil {
		return failure("%v", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return &WriteFileResult{
			Envelope: Envelope{Error: fmt.Sprintf("failed to create parent directory for '%s': %v", in.FilePath, err)},
			FilePath: in.FilePath,
		}
	}
	if err := os.WriteFile(abs, []byte(in.Content), 0644); err != nil {
		return &WriteFileResult{
			Envelope: Envelope{Error: fmt.Sprintf("failed to write file '%s': %v", in.FilePath, err)},
			FilePath: in.FilePath,
		}
	}
	return &WriteFileResult{
		Envelope: ok(),
		FilePath: in.FilePath,
		Message:  fmt.Sprintf("File written: %s", in.FilePath),
	}
}

func (e *Executor) editFile(in EditFileInput) Result {
	abs, err := e.guard.resolveForWrite(in.FilePath)
	if err != nil {
		return failure("%v", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return &EditFileResult{
			Envelope: Envelope{Error: fmt.Sprintf("failed to read file '%s': %v", in.FilePath, err)},
			FilePath: in.FilePath,
		}
	}
	content := string(data)
	if !strings.Contains(content, in.OldString) {
		return &EditFileResult{
			Envelope: Envelope{Error: "old_string not found in file. Please read the file first to get the exact string to replace."},
			FilePath: in.FilePath,
		}
	}

	// First occurrence only; no fuzzy matching.
	newContent := strings.Replace(content, in.OldString, in.NewString, 1)
	if err := os.WriteFile(abs, []byte(newContent), 0644); err != nil {
		return &EditFileResult{
			Envelope: Envelope{Error: fmt.Sprintf("failed to write file '%s': %v", in.FilePath, err)},
			FilePath: in.FilePath,
		}
	}

	preview := newContent
	if len(preview) > 200 {
		preview = preview[:200]
	}
	return &EditFileResult{
		Envelope: ok(),
		FilePath: in.FilePath,
		Message:  fmt.Sprintf("File edited: %s", in.FilePath),
		Preview:  preview,
	}
}

func (e *Executor) deleteFile(in DeleteFileInput) Result {
	abs, err := e.guard.resolveForWrite(in.FilePath)
	if err != nil {
		return failure("%v", err)
	}
	if err := os.Remove(abs); err != nil {
		return &DeleteFileResult{
			Envelope: Envelope{Error: fmt.Sprintf("failed to delete file '%s': %v", in.FilePath, err)},
			FilePath: in.FilePath,
		}
	}
	return &DeleteFileResult{
		Envelope: ok(),
		FilePath: in.FilePath,
		Message:  fmt.Sprintf("File deleted: %s", in.FilePath),
	}
}

func (e *Executor) listFiles(in ListFilesInput) Result {
	if in.Directory == "" {
		in.Directory = "."
	}
	abs, err := e.guard.resolve(in.Directory)
	if err != nil {
		return failure("%v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return &ListFilesResult{
			Envelope:  Envelope{Error: err.Error()},
			Directory: in.Directory,
		}
	}
	if !info.IsDir() {
		return &ListFilesResult{
			Envelope:  Envelope{Error: "Path is not a directory"},
			Directory: in.Directory,
		}
	}

	if in.Recursive {
		var paths []string
		e.collectFilesRecursive(abs, abs, &paths)
		return &ListFilesResult{Envelope: ok(), Directory: in.Directory, Paths: paths}
	}

	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return &ListFilesResult{
			Envelope:  Envelope{Error: err.Error()},
			Directory: in.Directory,
		}
	}
	var entries []FileEntry
	for _, entry := range dirEntries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		kind := "file"
		if entry.IsDir() {
			kind = "directory"
		}
		entries = append(entries, FileEntry{Name: entry.Name(), Type: kind})
	}
	return &ListFilesResult{Envelope: ok(), Directory: in.Directory, Entries: entries}
}

func (e *Executor) collectFilesRecursive(dir, base string, results *[]string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable subdirectories are skipped, not fatal.
		return
	}
	for _, entry := range entries {
		if hiddenName(entry.Name()) {
			continue
		}
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			e.collectFilesRecursive(full, base, results)
			continue
		}
		rel, err := filepath.Rel(base, full)
		if err != nil {
			continue
		}
		*results = append(*results, rel)
	}
}

func (e *Executor) fileStructure(in FileStructureInput) Result {
	if in.Path == "" {
		in.Path = "."
	}
	abs, err := e.guard.resolve(in.Path)
	if err != nil {
		return failure("%v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return &FileStructureResult{
			Envelope: Envelope{Error: err.Error()},
			Path:     in.Path,
		}
	}
	if !info.IsDir() {
		return &FileStructureResult{
			Envelope: Envelope{Error: "Path is not a directory"},
			Path:     in.Path,
		}
	}

	var lines []string
	buildFileTree(abs, "", &lines)
	structure := strings.Join(append([]string{in.Path}, lines...), "\n")
	return &FileStructureResult{Envelope: ok(), Path: in.Path, Structure: structure}
}

// buildFileTree renders an indented tree using box-drawing connectors,
// skipping dotfiles and dependency directories.
func buildFileTree(dir, prefix string, lines *[]string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	var filtered []os.DirEntry
	for _, entry := range entries {
		if hiddenName(entry.Name()) {
			continue
		}
		filtered = append(filtered, entry)
	}
	for i, entry := range filtered {
		last := i == len(filtered)-1
		marker := "├── "
		if last {
			marker = "└── "
		}
		*lines = append(*lines, prefix+marker+entry.Name())
		if entry.IsDir() {
			childPrefix := prefix + "│   "
			if last {
				childPrefix = prefix + "    "
			}
			buildFileTree(filepath.Join(dir, entry.Name()), childPrefix, lines)
		}
	}
}
