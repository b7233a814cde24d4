package agentcfgmcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
)

// ListToolOutput is the structured payload of the list_agents tool.
type ListToolOutput struct {
	Items []agent.Summary `json:"items"`
	Count int             `json:"count"`
}

// ValidateToolOutput is the structured payload of the validate_agent tool.
type ValidateToolOutput struct {
	Name       agent.AgentName  `json:"name"`
	Valid      bool             `json:"valid"`
	Violations agent.Violations `json:"violations"`
}

func createListTool(repository agent.Repository) mcpserver.ServerTool {
	tool := mcp.NewTool("list_agents",
		mcp.WithDescription("Lists every configured agent with its type and version."),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summaries, err := repository.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		output := ListToolOutput{Items: summaries, Count: len(summaries)}

		return mcp.NewToolResultStructured(output, fmt.Sprintf("%d agents configured", output.Count)), nil
	}

	return mcpserver.ServerTool{Tool: tool, Handler: handler}
}

func createInfoTool(repository agent.Repository) mcpserver.ServerTool {
	tool := mcp.NewTool("get_agent",
		mcp.WithDescription("Returns the full configuration record of one agent."),
		mcp.WithString("name",
			mcp.Description("Name of the agent."),
			mcp.Required(),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		record, err := repository.Get(ctx, agent.AgentName(name))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultStructured(record, fmt.Sprintf("agent %s (%s %s)", record.Name, record.Type, record.Version)), nil
	}

	return mcpserver.ServerTool{Tool: tool, Handler: handler}
}

func createValidateTool(repository agent.Repository) mcpserver.ServerTool {
	tool := mcp.NewTool("validate_agent",
		mcp.WithDescription("Validates one agent record and returns every violation with its severity."),
		mcp.WithString("name",
			mcp.Description("Name of the agent."),
			mcp.Required(),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		record, err := repository.Get(ctx, agent.AgentName(name))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		violations := agent.Validate(record)
		output := ValidateToolOutput{
			Name:       record.Name,
			Valid:      !violations.HasErrors(),
			Violations: violations,
		}

		summary := "agent record is valid"
		if !output.Valid {
			summary = fmt.Sprintf("agent record is invalid: %s", violations.Errors())
		}

		return mcp.NewToolResultStructured(output, summary), nil
	}

	return mcpserver.ServerTool{Tool: tool, Handler: handler}
}

func createDocsTool(repository agent.Repository) mcpserver.ServerTool {
	tool := mcp.NewTool("render_agent_docs",
		mcp.WithDescription("Renders one agent record as markdown documentation."),
		mcp.WithString("name",
			mcp.Description("Name of the agent."),
			mcp.Required(),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		record, err := repository.Get(ctx, agent.AgentName(name))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		doc, err := agent.RenderDocumentation(record)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(doc), nil
	}

	return mcpserver.ServerTool{Tool: tool, Handler: handler}
}
