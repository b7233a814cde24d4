package agentcfgctl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
)

// AgentListOutput captures the list output payload for agent records.
type AgentListOutput struct {
	Items []agent.Summary `json:"items"`
	Count int             `json:"count"`
}

// AgentListCmd lists stored agent records with their type and version.
type AgentListCmd struct{}

// Run executes the agent list command.
func (command *AgentListCmd) Run(ctx context.Context, repository agent.Repository) error {
	summaries, err := repository.List(ctx)
	if err != nil {
		return fmt.Errorf("list agent records: %w", err)
	}

	output := AgentListOutput{
		Items: summaries,
		Count: len(summaries),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode agent list output: %w", err)
	}

	return nil
}

// AgentInfoCmd prints the full stored record as JSON.
type AgentInfoCmd struct {
	Name string `arg:"" required:"" help:"Agent name."`
}

// Run executes the agent info command.
func (command *AgentInfoCmd) Run(ctx context.Context, repository agent.Repository) error {
	record, err := repository.Get(ctx, agent.AgentName(command.Name))
	if err != nil {
		return fmt.Errorf("get agent record: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("encode agent record: %w", err)
	}

	return nil
}
