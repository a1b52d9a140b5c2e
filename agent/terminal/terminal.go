// Package terminal implements the interactive command-line mode for the
// agent. It reads user prompts from stdin, runs the agent loop for each one,
// and prints the event stream as it arrives. Verbosity controls how much of
// the tool activity is shown.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m4xw311/codewright/agent"
	"github.com/m4xw311/codewright/tools"
)

type ToolVerbosity int

const (
	ToolVerbosityNone ToolVerbosity = iota
	ToolVerbosityInfo
	ToolVerbosityAll
)

// Terminal handles the terminal/CLI interaction mode for the agent
type Terminal struct {
	agent     *agent.Agent
	Verbosity ToolVerbosity
}

// New creates a new Terminal instance
func New(a *agent.Agent, verbosity ToolVerbosity) *Terminal {
	return &Terminal{
		agent:     a,
		Verbosity: verbosity,
	}
}

// Run starts the interactive terminal session
func (t *Terminal) Run(ctx context.Context, initialPrompt string) error {
	// If there's an initial prompt from the command line, use it first
	if initialPrompt != "" {
		if err := t.processTurn(ctx, initialPrompt); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			// EOF or read error ends the session
			break
		}

		userInput := strings.TrimSpace(scanner.Text())
		if userInput == "" {
			continue
		}

		if userInput == "/quit" || userInput == "/exit" {
			break
		}

		if err := t.processTurn(ctx, userInput); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	return scanner.Err()
}

func (t *Terminal) processTurn(ctx context.Context, userInput string) error {
	return t.agent.ProcessMessage(ctx, userInput, t.printEvent)
}

func (t *Terminal) printEvent(ev agent.Event) {
	switch ev.Type {
	case agent.EventModelInfo:
		if t.Verbosity >= ToolVerbosityInfo {
			fmt.Printf("[%s/%s]\n", ev.ModelProvider, ev.ModelName)
		}
	case agent.EventThinking:
		fmt.Printf("Codewright: %s\n", ev.Content)
	case agent.EventToolUse:
		if t.Verbosity == ToolVerbosityAll {
			fmt.Printf("Codewright wants to call tool `%s` with args: %v\n", ev.Tool, ev.Input)
		} else if t.Verbosity == ToolVerbosityInfo {
			fmt.Printf("Codewright wants to call tool `%s`\n", ev.Tool)
		}
	case agent.EventToolResult:
		if t.Verbosity == ToolVerbosityAll {
			if r, ok := ev.Result.(tools.Result); ok {
				fmt.Printf("Tool `%s` output: %s\n", ev.Tool, tools.Serialize(r))
			}
		}
	case agent.EventResponse:
		fmt.Printf("Codewright: %s\n", ev.Content)
	case agent.EventComplete:
	case agent.EventError:
		fmt.Printf("Error: %s\n", ev.Error)
	}
}
