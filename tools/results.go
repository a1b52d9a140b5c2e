package tools

import (
	"encoding/json"
	"fmt"
	"time"
)

// Result is the uniform envelope every tool execution produces. All results
// serialize with a success flag, an optional error string, and the wall-clock
// execution time in milliseconds.
type Result interface {
	OK() bool
	ErrorMessage() string
	setExecutionTime(ms int64)
}

// Envelope is embedded by every concrete result type.
type Envelope struct {
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMs int64  `json:"_executionTime"`
}

func (e *Envelope) OK() bool             { return e.Success }
func (e *Envelope) ErrorMessage() string { return e.Error }

func (e *Envelope) setExecutionTime(ms int64) { e.ExecutionTimeMs = ms }

func ok() Envelope { return Envelope{Success: true} }

// ErrorResult is the generic failure result, used for validation rejections,
// unknown tools and recovered panics.
type ErrorResult struct {
	Envelope
}

func failure(format string, a ...interface{}) *ErrorResult {
	return &ErrorResult{Envelope{Success: false, Error: fmt.Sprintf(format, a...)}}
}

// FileEntry is one immediate directory entry from a non-recursive listing.
type FileEntry struct {
	Name string `json:"name"`
	Type string `json:"type"` // "file" or "directory"
}

// Match is one text-search hit.
type Match struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

type ReadFileResult struct {
	Envelope
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
}

type WriteFileResult struct {
	Envelope
	FilePath string `json:"filePath"`
	Message  string `json:"message"`
}

type EditFileResult struct {
	Envelope
	FilePath string `json:"filePath"`
	Message  string `json:"message"`
	Preview  string `json:"preview,omitempty"`
}

type DeleteFileResult struct {
	Envelope
	FilePath string `json:"filePath"`
	Message  string `json:"message"`
}

type ListFilesResult struct {
	Envelope
	Directory string      `json:"directory"`
	Entries   []FileEntry `json:"entries,omitempty"`
	Paths     []string    `json:"paths,omitempty"`
}

type FileStructureResult struct {
	Envelope
	Path      string `json:"path"`
	Structure string `json:"structure"`
}

type CommandResult struct {
	Envelope
	Command  string `json:"command,omitempty"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
}

type InstallResult struct {
	CommandResult
	Packages []string `json:"packages"`
	Dev      bool     `json:"dev,omitempty"`
	Message  string   `json:"message,omitempty"`
}

type SearchResult struct {
	Envelope
	Query        string  `json:"query,omitempty"`
	Pattern      string  `json:"pattern,omitempty"`
	Path         string  `json:"path,omitempty"`
	FilePattern  string  `json:"filePattern,omitempty"`
	Matches      []Match `json:"results"`
	TotalMatches int     `json:"totalMatches"`
	Message      string  `json:"message,omitempty"`
}

type FileInfoResult struct {
	Envelope
	FilePath    string    `json:"filePath"`
	Size        int64     `json:"size"`
	SizeKB      string    `json:"sizeKB"`
	IsDirectory bool      `json:"isDirectory"`
	IsFile      bool      `json:"isFile"`
	Modified    time.Time `json:"modified"`
	Accessed    time.Time `json:"accessed"`
	Changed     time.Time `json:"changed"`
}

type GitStatusResult struct {
	CommandResult
	HasChanges bool   `json:"hasChanges"`
	Message    string `json:"message,omitempty"`
}

type GitDiffResult struct {
	CommandResult
	FilePath string `json:"file_path,omitempty"`
	HasDiff  bool   `json:"hasDiff"`
	Message  string `json:"message,omitempty"`
}

type GitCommitResult struct {
	CommandResult
	CommitHash    string `json:"commitHash,omitempty"`
	CommitMessage string `json:"commitMessage"`
	Message       string `json:"message,omitempty"`
}

// Serialize renders a result as JSON for feeding back into the conversation
// as a tool_result block. Marshal failures fall back to a plain error object
// so the loop always has something to hand the model.
func Serialize(r Result) string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to serialize tool result: %v"}`, err)
	}
	return string(data)
}
