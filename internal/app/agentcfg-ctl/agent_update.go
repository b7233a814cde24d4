package agentcfgctl

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
)

// AgentUpdateCmd rewrites selected fields of a stored record. The record is
// re-validated before anything touches disk.
type AgentUpdateCmd struct {
	Name string `arg:"" required:"" help:"Agent name."`

	Type        *string `help:"New agent type."`
	Version     *string `help:"New semantic version."`
	Description *string `help:"New description."`

	Timeout    *int `help:"Configuration timeout in seconds."`
	Retries    *int `help:"Configuration retry count."`
	MaxWorkers *int `help:"Configuration worker limit."`

	AddCapability    []string `help:"Capability tag to add, repeatable."`
	RemoveCapability []string `help:"Capability tag to remove, repeatable."`
	AddDependency    []string `help:"Dependency name to add, repeatable."`
	RemoveDependency []string `help:"Dependency name to remove, repeatable."`
}

// Run executes the agent update command.
func (command *AgentUpdateCmd) Run(ctx context.Context, repository agent.Repository) error {
	updated, err := repository.Update(ctx, agent.AgentName(command.Name), func(record *agent.Record) error {
		if command.Type != nil {
			record.Type = agent.AgentType(*command.Type)
		}
		if command.Version != nil {
			record.Version = *command.Version
		}
		if command.Description != nil {
			record.Description = *command.Description
		}

		if command.Timeout != nil {
			record.Configuration.Timeout = *command.Timeout
		}
		if command.Retries != nil {
			record.Configuration.Retries = *command.Retries
		}
		if command.MaxWorkers != nil {
			record.Configuration.MaxWorkers = *command.MaxWorkers
		}

		record.Capabilities = append(record.Capabilities, command.AddCapability...)
		record.Capabilities = removeTags(record.Capabilities, command.RemoveCapability)
		record.Dependencies = append(record.Dependencies, command.AddDependency...)
		record.Dependencies = removeTags(record.Dependencies, command.RemoveDependency)

		return nil
	})
	if err != nil {
		return fmt.Errorf("update agent record: %w", err)
	}

	slog.Info(
		"Updated agent record.",
		slog.String("name", string(updated.Name)),
		slog.String("version", updated.Version),
	)

	return nil
}

// removeTags drops every tag matching one of the removals, case-insensitively.
func removeTags(tags, removals []string) []string {
	if len(removals) == 0 {
		return tags
	}

	drop := make([]string, 0, len(removals))
	for _, removal := range removals {
		drop = append(drop, strings.ToLower(strings.TrimSpace(removal)))
	}

	return slices.DeleteFunc(tags, func(tag string) bool {
		return slices.Contains(drop, strings.ToLower(strings.TrimSpace(tag)))
	})
}
