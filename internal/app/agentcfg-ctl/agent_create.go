package agentcfgctl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
)

// AgentInitCmd scaffolds a record with nothing but schema defaults.
type AgentInitCmd struct {
	Name string `arg:"" required:"" help:"Agent name."`
}

// Run executes the agent init command.
func (command *AgentInitCmd) Run(ctx context.Context, repository agent.Repository) error {
	record := agent.NewRecord(agent.AgentName(command.Name))

	stored, err := repository.Create(ctx, record)
	if err != nil {
		return fmt.Errorf("create agent record: %w", err)
	}

	slog.Info(
		"Created agent record.",
		slog.String("name", string(stored.Name)),
		slog.String("type", string(stored.Type)),
		slog.String("version", stored.Version),
	)

	return nil
}

// AgentCreateCmd scaffolds a record and lets the caller override the basics.
type AgentCreateCmd struct {
	Name        string   `arg:"" required:"" help:"Agent name."`
	Type        string   `help:"Agent type." default:"worker" enum:"worker,coordinator,validator,transformer,aggregator"`
	Description string   `help:"Agent description."`
	Capability  []string `help:"Capability tag, repeatable."`
	Dependency  []string `help:"Dependency name, repeatable."`
}

// Run executes the agent create command.
func (command *AgentCreateCmd) Run(ctx context.Context, repository agent.Repository) error {
	record := agent.NewRecord(agent.AgentName(command.Name))

	record.Type = agent.AgentType(command.Type)
	if command.Description != "" {
		record.Description = command.Description
	}
	record.Capabilities = append(record.Capabilities, command.Capability...)
	record.Dependencies = append(record.Dependencies, command.Dependency...)

	stored, err := repository.Create(ctx, record)
	if err != nil {
		return fmt.Errorf("create agent record: %w", err)
	}

	slog.Info(
		"Created agent record.",
		slog.String("name", string(stored.Name)),
		slog.String("type", string(stored.Type)),
		slog.String("version", stored.Version),
	)

	return nil
}
