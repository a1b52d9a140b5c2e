package tools

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m4xw311/codewright/config"
	"github.com/m4xw311/codewright/errors"
)

func newTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{ProjectRoot: root}
	cfg.FilesystemAccess.Hidden = []string{"secrets", "secrets/**"}
	cfg.FilesystemAccess.ReadOnly = []string{"readonly/**"}
	e, err := NewExecutor(cfg)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	return e, root
}

func TestWriteReadEditDelete(t *testing.T) {
	e, root := newTestExecutor(t)
	ctx := context.Background()

	result := e.Execute(ctx, "write_file", map[string]interface{}{
		"file_path": "hello.txt",
		"content":   "hello old world",
	})
	if !result.OK() {
		t.Fatalf("write_file failed: %s", result.ErrorMessage())
	}

	result = e.Execute(ctx, "read_file", map[string]interface{}{"file_path": "hello.txt"})
	read, okType := result.(*ReadFileResult)
	if !okType || !read.OK() {
		t.Fatalf("read_file failed: %s", result.ErrorMessage())
	}
	if read.Content != "hello old world" {
		t.Errorf("Unexpected content: %q", read.Content)
	}

	result = e.Execute(ctx, "edit_file", map[string]interface{}{
		"file_path":  "hello.txt",
		"old_string": "old",
		"new_string": "new",
	})
	if !result.OK() {
		t.Fatalf("edit_file failed: %s", result.ErrorMessage())
	}
	data, err := os.ReadFile(filepath.Join(root, "hello.txt"))
	if err != nil {
		t.Fatalf("reading edited file: %v", err)
	}
	if string(data) != "hello new world" {
		t.Errorf("Edit not applied, content: %q", data)
	}

	// The same edit a second time must fail, never double-apply.
	result = e.Execute(ctx, "edit_file", map[string]interface{}{
		"file_path":  "hello.txt",
		"old_string": "old",
		"new_string": "new",
	})
	if result.OK() {
		t.Fatal("Expected second identical edit to fail")
	}
	if !strings.Contains(result.ErrorMessage(), "old_string not found") {
		t.Errorf("Unexpected error: %s", result.ErrorMessage())
	}
	data, _ = os.ReadFile(filepath.Join(root, "hello.txt"))
	if string(data) != "hello new world" {
		t.Errorf("File changed by failed edit: %q", data)
	}

	result = e.Execute(ctx, "delete_file", map[string]interface{}{"file_path": "hello.txt"})
	if !result.OK() {
		t.Fatalf("delete_file failed: %s", result.ErrorMessage())
	}
	if _, err := os.Stat(filepath.Join(root, "hello.txt")); !os.IsNotExist(err) {
		t.Error("File still exists after delete")
	}
}

func TestEditReplacesFirstOccurrenceOnly(t *testing.T) {
	e, root := newTestExecutor(t)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(root, "multi.txt"), []byte("aaa bbb aaa"), 0644); err != nil {
		t.Fatal(err)
	}
	result := e.Execute(ctx, "edit_file", map[string]interface{}{
		"file_path":  "multi.txt",
		"old_string": "aaa",
		"new_string": "ccc",
	})
	if !result.OK() {
		t.Fatalf("edit_file failed: %s", result.ErrorMessage())
	}
	data, _ := os.ReadFile(filepath.Join(root, "multi.txt"))
	if string(data) != "ccc bbb aaa" {
		t.Errorf("Expected first occurrence only to change, got %q", data)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	e, root := newTestExecutor(t)
	ctx := context.Background()

	for _, name := range []string{"read_file", "delete_file"} {
		result := e.Execute(ctx, name, map[string]interface{}{"file_path": "../outside.txt"})
		if result.OK() {
			t.Errorf("%s accepted an escaping path", name)
		}
		if !strings.Contains(result.ErrorMessage(), "Access denied") {
			t.Errorf("%s: unexpected error: %s", name, result.ErrorMessage())
		}
	}

	result := e.Execute(ctx, "write_file", map[string]interface{}{
		"file_path": "../escaped.txt",
		"content":   "nope",
	})
	if result.OK() {
		t.Fatal("write_file accepted an escaping path")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escaped.txt")); !os.IsNotExist(err) {
		t.Error("write_file created a file outside the project root")
	}
}

func TestHiddenAndReadOnlyPaths(t *testing.T) {
	e, root := newTestExecutor(t)
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Join(root, "secrets"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "secrets", "key.txt"), []byte("s3cret"), 0644); err != nil {
		t.Fatal(err)
	}
	result := e.Execute(ctx, "read_file", map[string]interface{}{"file_path": "secrets/key.txt"})
	if result.OK() {
		t.Error("read_file read a hidden path")
	}
	if !strings.Contains(result.ErrorMessage(), "hidden") {
		t.Errorf("Unexpected error: %s", result.ErrorMessage())
	}

	if err := os.MkdirAll(filepath.Join(root, "readonly"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "readonly", "locked.txt"), []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}
	result = e.Execute(ctx, "write_file", map[string]interface{}{
		"file_path": "readonly/locked.txt",
		"content":   "overwrite",
	})
	if result.OK() {
		t.Error("write_file wrote to a read-only path")
	}
	result = e.Execute(ctx, "read_file", map[string]interface{}{"file_path": "readonly/locked.txt"})
	if !result.OK() {
		t.Errorf("read of read-only path should succeed: %s", result.ErrorMessage())
	}
}

func TestCheckCommand(t *testing.T) {
	// Deny list blocks regardless of the leading executable.
	if err := checkCommand("rm -rf /", nil, nil); err == nil {
		t.Error("Expected 'rm -rf /' to be blocked")
	}
	if err := checkCommand("ls -la; rm -rf /tmp/x", nil, nil); err == nil {
		t.Error("Deny list must take precedence over an allowed first token")
	} else if !strings.Contains(err.Error(), "Dangerous command blocked") {
		t.Errorf("Unexpected error: %v", err)
	}

	// Allow list gates the first token.
	if err := checkCommand("evilcmd --do-things", nil, nil); err == nil {
		t.Error("Expected unlisted executable to be rejected")
	} else if !strings.Contains(err.Error(), "not in whitelist") {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := checkCommand("ls -la", nil, nil); err != nil {
		t.Errorf("Expected 'ls -la' to be allowed: %v", err)
	}

	// Config extensions.
	if err := checkCommand("cargo build", []string{"cargo"}, nil); err != nil {
		t.Errorf("Expected extra allowed executable to pass: %v", err)
	}
	if err := checkCommand("git push origin main", nil, []string{"git push"}); err == nil {
		t.Error("Expected extra denied substring to block")
	}
}

func TestBashCommandBlockedBeforeExecution(t *testing.T) {
	e, _ := newTestExecutor(t)
	result := e.Execute(context.Background(), "bash_command", map[string]interface{}{"command": "rm -rf /"})
	if result.OK() {
		t.Fatal("Dangerous command was not blocked")
	}
	if !strings.Contains(result.ErrorMessage(), "Dangerous command blocked") {
		t.Errorf("Unexpected error: %s", result.ErrorMessage())
	}
}

func TestBashCommandRuns(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	e, _ := newTestExecutor(t)
	result := e.Execute(context.Background(), "bash_command", map[string]interface{}{"command": "echo hello"})
	cmd, okType := result.(*CommandResult)
	if !okType || !cmd.OK() {
		t.Fatalf("echo failed: %s", result.ErrorMessage())
	}
	if !strings.Contains(cmd.Stdout, "hello") {
		t.Errorf("Unexpected stdout: %q", cmd.Stdout)
	}
	if cmd.ExitCode != 0 {
		t.Errorf("Unexpected exit code: %d", cmd.ExitCode)
	}
}

func TestBashCommandTimeout(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	e, _ := newTestExecutor(t)
	e.allowedCommands = append(e.allowedCommands, "sleep")

	result := e.Execute(context.Background(), "bash_command", map[string]interface{}{
		"command":    "sleep 2",
		"timeout_ms": 100,
	})
	cmd, okType := result.(*CommandResult)
	if !okType {
		t.Fatalf("Unexpected result type: %T", result)
	}
	if cmd.OK() {
		t.Fatal("Timed-out command reported success")
	}
	if !strings.Contains(cmd.ErrorMessage(), "timed out") {
		t.Errorf("Unexpected error: %s", cmd.ErrorMessage())
	}
	if cmd.ExitCode != -1 {
		t.Errorf("Unexpected exit code: %d", cmd.ExitCode)
	}
}

func TestBoundedBufferOverflow(t *testing.T) {
	buf := &boundedBuffer{max: 8}
	if _, err := buf.Write([]byte("12345678")); err != nil {
		t.Fatalf("Write within the cap failed: %v", err)
	}
	_, err := buf.Write([]byte("9"))
	if !errors.Is(err, errOutputOverflow) {
		t.Fatalf("Expected overflow error, got %v", err)
	}
	if buf.String() != "12345678" {
		t.Errorf("Overflowing write modified the buffer: %q", buf.String())
	}
}

func TestInstallEmptyPackages(t *testing.T) {
	e, _ := newTestExecutor(t)
	ctx := context.Background()
	for _, name := range []string{"install_npm_package", "install_pip_package"} {
		result := e.Execute(ctx, name, map[string]interface{}{"packages": []interface{}{}})
		if result.OK() {
			t.Errorf("%s accepted an empty package list", name)
		}
		if !strings.Contains(result.ErrorMessage(), "No packages specified") {
			t.Errorf("%s: unexpected error: %s", name, result.ErrorMessage())
		}
	}
}

func TestListFilesAndStructure(t *testing.T) {
	e, root := newTestExecutor(t)
	ctx := context.Background()

	for _, p := range []string{"a.txt", "sub/b.txt", ".hidden"} {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	result := e.Execute(ctx, "list_files", map[string]interface{}{"directory": "."})
	list, okType := result.(*ListFilesResult)
	if !okType || !list.OK() {
		t.Fatalf("list_files failed: %s", result.ErrorMessage())
	}
	names := map[string]string{}
	for _, entry := range list.Entries {
		names[entry.Name] = entry.Type
	}
	if names["a.txt"] != "file" || names["sub"] != "directory" {
		t.Errorf("Unexpected entries: %v", names)
	}
	if _, found := names[".hidden"]; found {
		t.Error("Dotfile listed")
	}

	result = e.Execute(ctx, "list_files", map[string]interface{}{"directory": ".", "recursive": true})
	list, okType = result.(*ListFilesResult)
	if !okType || !list.OK() {
		t.Fatalf("recursive list_files failed: %s", result.ErrorMessage())
	}
	joined := strings.Join(list.Paths, "\n")
	if !strings.Contains(joined, filepath.Join("sub", "b.txt")) {
		t.Errorf("Recursive listing missing nested file: %v", list.Paths)
	}

	result = e.Execute(ctx, "get_file_structure", map[string]interface{}{"path": "."})
	tree, okType := result.(*FileStructureResult)
	if !okType || !tree.OK() {
		t.Fatalf("get_file_structure failed: %s", result.ErrorMessage())
	}
	if !strings.Contains(tree.Structure, "a.txt") || !strings.Contains(tree.Structure, "sub") {
		t.Errorf("Structure missing entries:\n%s", tree.Structure)
	}
	if strings.Contains(tree.Structure, ".hidden") {
		t.Errorf("Structure lists dotfile:\n%s", tree.Structure)
	}
}

func TestGetFileInfo(t *testing.T) {
	e, root := newTestExecutor(t)
	if err := os.WriteFile(filepath.Join(root, "meta.txt"), []byte("12345"), 0644); err != nil {
		t.Fatal(err)
	}
	result := e.Execute(context.Background(), "get_file_info", map[string]interface{}{"file_path": "meta.txt"})
	info, okType := result.(*FileInfoResult)
	if !okType || !info.OK() {
		t.Fatalf("get_file_info failed: %s", result.ErrorMessage())
	}
	if info.Size != 5 || !info.IsFile || info.IsDirectory {
		t.Errorf("Unexpected metadata: %+v", info)
	}
}

func TestUnknownTool(t *testing.T) {
	e, _ := newTestExecutor(t)
	result := e.Execute(context.Background(), "frobnicate", map[string]interface{}{})
	if result.OK() {
		t.Fatal("Unknown tool reported success")
	}
	if !strings.Contains(result.ErrorMessage(), "Unknown tool: frobnicate") {
		t.Errorf("Unexpected error: %s", result.ErrorMessage())
	}
}

func TestGitCommitPreflight(t *testing.T) {
	e, _ := newTestExecutor(t)
	ctx := context.Background()

	result := e.Execute(ctx, "git_commit", map[string]interface{}{"message": ""})
	if result.OK() {
		t.Fatal("Empty commit message accepted")
	}
	if !strings.Contains(result.ErrorMessage(), "Commit message is required") {
		t.Errorf("Unexpected error: %s", result.ErrorMessage())
	}

	result = e.Execute(ctx, "git_commit", map[string]interface{}{"message": strings.Repeat("x", 501)})
	if result.OK() {
		t.Fatal("Overlong commit message accepted")
	}
	if !strings.Contains(result.ErrorMessage(), "500 characters or less") {
		t.Errorf("Unexpected error: %s", result.ErrorMessage())
	}
}

func TestGitStatusOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	e, _ := newTestExecutor(t)
	result := e.Execute(context.Background(), "git_status", map[string]interface{}{})
	if result.OK() {
		t.Skip("temp dir is inside a git repository")
	}
	if !strings.Contains(strings.ToLower(result.ErrorMessage()), "not a git repository") {
		t.Errorf("Unexpected error: %s", result.ErrorMessage())
	}
}

func TestCatalogShape(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != 12 {
		t.Fatalf("Expected 12 tool definitions, got %d", len(catalog))
	}
	seen := map[string]bool{}
	for _, def := range catalog {
		if def.Name == "" || def.Description == "" {
			t.Errorf("Definition missing name or description: %+v", def)
		}
		if def.InputSchema.Type != "object" {
			t.Errorf("%s: schema type must be 'object', got %q", def.Name, def.InputSchema.Type)
		}
		for _, req := range def.InputSchema.Required {
			if _, found := def.InputSchema.Properties[req]; !found {
				t.Errorf("%s: required property %q not declared", def.Name, req)
			}
		}
		seen[def.Name] = true
	}
	for _, name := range []string{"read_file", "write_file", "edit_file", "bash_command", "search_codebase"} {
		if !seen[name] {
			t.Errorf("Catalog missing %s", name)
		}
	}
	if len(GitCatalog()) != 3 {
		t.Errorf("Expected 3 git tool definitions, got %d", len(GitCatalog()))
	}
}

func TestSerializeEnvelope(t *testing.T) {
	e, _ := newTestExecutor(t)
	result := e.Execute(context.Background(), "read_file", map[string]interface{}{"file_path": "missing.txt"})
	out := Serialize(result)
	if !strings.Contains(out, `"success":false`) {
		t.Errorf("Envelope missing success flag: %s", out)
	}
	if !strings.Contains(out, `"_executionTime"`) {
		t.Errorf("Envelope missing execution time: %s", out)
	}
	if !strings.Contains(out, `"error"`) {
		t.Errorf("Envelope missing error: %s", out)
	}
}
