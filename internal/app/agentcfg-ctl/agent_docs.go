package agentcfgctl

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
)

// AgentDocsCmd renders a record as markdown documentation.
type AgentDocsCmd struct {
	Name   string `arg:"" required:"" help:"Agent name."`
	Output string `help:"Write to this file instead of stdout."`
}

// Run executes the agent docs command.
func (command *AgentDocsCmd) Run(ctx context.Context, repository agent.Repository) error {
	record, err := repository.Get(ctx, agent.AgentName(command.Name))
	if err != nil {
		return fmt.Errorf("get agent record: %w", err)
	}

	doc, err := agent.RenderDocumentation(record)
	if err != nil {
		return fmt.Errorf("render documentation: %w", err)
	}

	if command.Output == "" {
		fmt.Println(doc)
		return nil
	}

	if err := os.WriteFile(command.Output, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write documentation file: %w", err)
	}

	slog.Info(
		"Wrote agent documentation.",
		slog.String("name", string(record.Name)),
		slog.String("path", command.Output),
	)

	return nil
}

// AgentDeleteCmd removes a record from the store.
type AgentDeleteCmd struct {
	Name string `arg:"" required:"" help:"Agent name."`
}

// Run executes the agent delete command.
func (command *AgentDeleteCmd) Run(ctx context.Context, repository agent.Repository) error {
	if err := repository.Delete(ctx, agent.AgentName(command.Name)); err != nil {
		return fmt.Errorf("delete agent record: %w", err)
	}

	slog.Info("Deleted agent record.", slog.String("name", command.Name))

	return nil
}
