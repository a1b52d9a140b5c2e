package tools

// Property describes one parameter in a tool's input schema.
type Property struct {
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Default     interface{} `json:"default,omitempty"`
	Items       *Property   `json:"items,omitempty"`
}

// Schema is the JSON-schema shaped parameter declaration for a tool.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Definition declares one callable tool: its unique name, the natural
// language description the model uses to decide relevance, and the
// parameter schema. Definitions are immutable and process-wide.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"input_schema"`
}

// Catalog returns the fixed set of tools presented to the model. The same
// catalog is translated into every backend's schema dialect; there is no
// dynamic registration at runtime.
func Catalog() []Definition {
	return []Definition{
		{
			Name:        "read_file",
			Description: "Read the contents of a file. Use this to examine code before making changes. Always read a file before attempting to edit it.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"file_path": {Type: "string", Description: "Path to the file to read (e.g., 'src/main.go', 'go.mod')"},
				},
				Required: []string{"file_path"},
			},
		},
		{
			Name:        "write_file",
			Description: "Create a new file or completely overwrite an existing file. Use this only for creating new files. For modifying existing files, prefer edit_file instead.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"file_path": {Type: "string", Description: "Path to the file to write"},
					"content":   {Type: "string", Description: "Complete content to write to the file"},
				},
				Required: []string{"file_path", "content"},
			},
		},
		{
			Name:        "edit_file",
			Description: "Make precise edits to an existing file by replacing old_string with new_string. This is the preferred way to modify files. Always read the file first to get the exact string to replace. The old_string must match exactly including whitespace.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"file_path":  {Type: "string", Description: "Path to the file to edit"},
					"old_string": {Type: "string", Description: "Exact string to find and replace (must match exactly including whitespace and newlines)"},
					"new_string": {Type: "string", Description: "New string to replace with"},
				},
				Required: []string{"file_path", "old_string", "new_string"},
			},
		},
		{
			Name:        "delete_file",
			Description: "Delete a file. Use with caution as this operation cannot be undone.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"file_path": {Type: "string", Description: "Path to the file to delete"},
				},
				Required: []string{"file_path"},
			},
		},
		{
			Name:        "list_files",
			Description: "List files and directories in a given path. Use this to explore the project structure.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"directory": {Type: "string", Description: "Directory path to list (default: '.')", Default: "."},
					"recursive": {Type: "boolean", Description: "Whether to list files recursively", Default: false},
				},
				Required: []string{},
			},
		},
		{
			Name:        "get_file_structure",
			Description: "Get a tree-like visualization of the directory structure. Useful for understanding project organization.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"path": {Type: "string", Description: "Path to get structure for (default: '.')", Default: "."},
				},
				Required: []string{},
			},
		},
		{
			Name:        "bash_command",
			Description: "Execute a bash command. Use for running code, tests, or system operations. Only whitelisted commands are allowed for security.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"command":    {Type: "string", Description: "The bash command to execute (e.g., 'go test ./...', 'npm test')"},
					"timeout_ms": {Type: "number", Description: "Timeout in milliseconds (default: 30000)", Default: 30000},
				},
				Required: []string{"command"},
			},
		},
		{
			Name:        "install_npm_package",
			Description: "Install npm packages. This will run 'npm install' with the specified packages.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"packages": {Type: "array", Items: &Property{Type: "string"}, Description: "Array of package names to install (e.g., ['express', 'lodash'])"},
					"dev":      {Type: "boolean", Description: "Whether to install as dev dependencies (--save-dev)", Default: false},
				},
				Required: []string{"packages"},
			},
		},
		{
			Name:        "install_pip_package",
			Description: "Install Python packages using pip. This will run 'pip install' with the specified packages.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"packages": {Type: "array", Items: &Property{Type: "string"}, Description: "Array of package names to install (e.g., ['requests', 'flask'])"},
				},
				Required: []string{"packages"},
			},
		},
		{
			Name:        "search_codebase",
			Description: "Search the entire codebase for a query string. Useful for finding where specific code or text appears in the project.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"query":        {Type: "string", Description: "Search query string"},
					"file_pattern": {Type: "string", Description: "Optional file pattern to filter results (e.g., '*.go', '*.ts')"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "grep_files",
			Description: "Search files using regex patterns. More powerful than search_codebase for complex pattern matching.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"pattern": {Type: "string", Description: "Regex pattern to search for"},
					"path":    {Type: "string", Description: "Path to search in (default: '.')", Default: "."},
				},
				Required: []string{"pattern"},
			},
		},
		{
			Name:        "get_file_info",
			Description: "Get metadata about a file including size, modification date, and file type.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"file_path": {Type: "string", Description: "Path to the file"},
				},
				Required: []string{"file_path"},
			},
		},
	}
}

// GitCatalog returns the optional git tool definitions. They are implemented
// by the executor either way; including them in the advertised catalog is a
// deployment choice.
func GitCatalog() []Definition {
	return []Definition{
		{
			Name:        "git_status",
			Description: "Show the working tree status of the project repository.",
			InputSchema: Schema{
				Type:       "object",
				Properties: map[string]Property{},
				Required:   []string{},
			},
		},
		{
			Name:        "git_diff",
			Description: "Show uncommitted changes, optionally limited to one file.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"file_path": {Type: "string", Description: "Optional path to limit the diff to"},
				},
				Required: []string{},
			},
		},
		{
			Name:        "git_commit",
			Description: "Stage all changes and commit them with the given message.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"message": {Type: "string", Description: "Commit message (500 characters max)"},
				},
				Required: []string{"message"},
			},
		},
	}
}
