package agentcfgmcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/afero"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
	"github.com/substratelabs/agentcfg/internal/pkg/cli"
	storefs "github.com/substratelabs/agentcfg/internal/pkg/store/fs"
)

// Command is the agentcfg-mcp entry point. It serves read-only agent
// configuration tools over stdio.
type Command struct {
	Log   cli.LogConfig   `embed:"" prefix:"log-"`
	Store cli.StoreConfig `embed:"" prefix:"store-"`
}

// Run wires the logger and record store, then dispatches to the server.
func Run(kctx *kong.Context, command *Command) error {
	logger, err := command.Log.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	slog.SetDefault(logger)

	root, err := command.Store.ResolveRoot()
	if err != nil {
		return fmt.Errorf("resolve store root: %w", err)
	}

	repository, err := storefs.NewRecordRepository(root, afero.NewOsFs())
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}

	ctx := context.Background()
	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.BindTo(repository, (*agent.Repository)(nil))

	return kctx.Run()
}

// Run serves the MCP tool set until the client disconnects.
func (command *Command) Run(ctx context.Context, repository agent.Repository) error {
	server := mcpserver.NewMCPServer(
		"agentcfg-mcp",
		"1.0.0",
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	server.AddTools(
		createListTool(repository),
		createInfoTool(repository),
		createValidateTool(repository),
		createDocsTool(repository),
	)

	if err := mcpserver.ServeStdio(server); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}

	return nil
}
