package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/m4xw311/codewright/agent"
	"github.com/m4xw311/codewright/agent/terminal"
	"github.com/m4xw311/codewright/config"
	"github.com/m4xw311/codewright/llm"
	"github.com/m4xw311/codewright/server"
	"github.com/m4xw311/codewright/store"
	"github.com/m4xw311/codewright/store/sqlite"
	"github.com/m4xw311/codewright/tools"
)

func main() {
	serveFlag := flag.Bool("serve", false, "Run the WebSocket server instead of the terminal REPL")
	providerFlag := flag.String("provider", "", "Model provider: 'anthropic', 'openai', 'gemini' or 'bedrock'")
	modelFlag := flag.String("model", "", "Model name (defaults per provider)")
	resumeFlag := flag.String("r", "", "Resume a session by ID (terminal mode)")
	promptFlag := flag.String("p", "", "Initial prompt (terminal mode)")
	verbosityFlag := flag.String("tool-verbosity", "none", "Tool verbosity level: 'none', 'info', or 'all'")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}
	env := config.LoadEnv()

	if *providerFlag == "" {
		*providerFlag = cfg.LLMClient
	}
	if *providerFlag == "" {
		*providerFlag = string(llm.ProviderAnthropic)
	}
	if *modelFlag == "" {
		*modelFlag = cfg.Model
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database directory: %+v\n", err)
		os.Exit(1)
	}
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %+v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	executor, err := tools.NewExecutor(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating tool executor: %+v\n", err)
		os.Exit(1)
	}

	if *serveFlag {
		srv := server.New(cfg, env, st, executor)
		if err := srv.ListenAndServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %+v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()
	client, err := llm.New(ctx, llm.Provider(*providerFlag), *modelFlag, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating LLM client: %+v\n", err)
		os.Exit(1)
	}

	catalog := tools.Catalog()
	if cfg.GitTools {
		catalog = append(catalog, tools.GitCatalog()...)
	}

	sessionID := *resumeFlag
	resuming := sessionID != ""
	if !resuming {
		sessionID = uuid.NewString()
		sess := &store.Session{
			ID:          sessionID,
			ProjectPath: cfg.ProjectRoot,
			Provider:    string(client.Provider()),
			Model:       client.Model(),
			Status:      store.StatusActive,
		}
		if err := st.CreateSession(ctx, sess); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating session: %+v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Starting new session: %s\n", sessionID)
	}

	a := agent.New(sessionID, client, executor, st, catalog, cfg.MaxIterations)
	if resuming {
		if err := a.LoadFromSession(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error resuming session '%s': %+v\n", sessionID, err)
			os.Exit(1)
		}
		fmt.Printf("Resuming session: %s\n", sessionID)
	}

	var verbosity terminal.ToolVerbosity
	switch *verbosityFlag {
	case "none":
		verbosity = terminal.ToolVerbosityNone
	case "info":
		verbosity = terminal.ToolVerbosityInfo
	case "all":
		verbosity = terminal.ToolVerbosityAll
	default:
		fmt.Fprintf(os.Stderr, "Invalid tool verbosity '%s'. Must be 'none', 'info', or 'all'.\n", *verbosityFlag)
		os.Exit(1)
	}

	term := terminal.New(a, verbosity)
	if err := term.Run(ctx, *promptFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}
