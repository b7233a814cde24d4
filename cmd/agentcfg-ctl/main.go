package main

import (
	"github.com/alecthomas/kong"

	agentcfgctl "github.com/substratelabs/agentcfg/internal/app/agentcfg-ctl"
)

func main() {
	var command agentcfgctl.Command

	kctx := kong.Parse(&command,
		kong.Name("agentcfg-ctl"),
		kong.Description("Manage declarative agent configuration records."),
		kong.UsageOnError(),
	)

	kctx.FatalIfErrorf(agentcfgctl.Run(kctx, &command))
}
