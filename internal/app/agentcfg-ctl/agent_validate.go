package agentcfgctl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
)

// AgentValidateOutput captures the validation outcome for one record.
type AgentValidateOutput struct {
	Name       agent.AgentName  `json:"name"`
	Valid      bool             `json:"valid"`
	Violations agent.Violations `json:"violations"`
}

// AgentValidateCmd validates a stored record and prints every violation.
// Warnings are reported but do not fail the command.
type AgentValidateCmd struct {
	Name string `arg:"" required:"" help:"Agent name."`
}

// Run executes the agent validate command.
func (command *AgentValidateCmd) Run(ctx context.Context, repository agent.Repository) error {
	record, err := repository.Get(ctx, agent.AgentName(command.Name))
	if err != nil {
		return fmt.Errorf("get agent record: %w", err)
	}

	violations := agent.Validate(record)

	output := AgentValidateOutput{
		Name:       record.Name,
		Valid:      !violations.HasErrors(),
		Violations: violations,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode validation output: %w", err)
	}

	if violations.HasErrors() {
		return &agent.ValidationError{Name: record.Name, Violations: violations}
	}

	return nil
}
