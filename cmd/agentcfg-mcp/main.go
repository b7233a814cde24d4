package main

import (
	"github.com/alecthomas/kong"

	agentcfgmcp "github.com/substratelabs/agentcfg/internal/app/agentcfg-mcp"
)

func main() {
	var command agentcfgmcp.Command

	kctx := kong.Parse(&command,
		kong.Name("agentcfg-mcp"),
		kong.Description("Serve agent configuration records to MCP clients."),
		kong.UsageOnError(),
	)

	kctx.FatalIfErrorf(agentcfgmcp.Run(kctx, &command))
}
