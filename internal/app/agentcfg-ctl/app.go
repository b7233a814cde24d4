package agentcfgctl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
	"github.com/substratelabs/agentcfg/internal/pkg/cli"
	storefs "github.com/substratelabs/agentcfg/internal/pkg/store/fs"
)

// Command is the agentcfg-ctl command tree.
type Command struct {
	Log   cli.LogConfig   `embed:"" prefix:"log-"`
	Store cli.StoreConfig `embed:"" prefix:"store-"`

	Agent  AgentCmd  `cmd:"" help:"Manage agent records"`
	Bundle BundleCmd `cmd:"" help:"Export and import agent record bundles"`
}

// AgentCmd groups the per-record operations.
type AgentCmd struct {
	Init     AgentInitCmd     `cmd:"" help:"Create an agent record with default settings"`
	Create   AgentCreateCmd   `cmd:"" help:"Create an agent record with custom fields"`
	List     AgentListCmd     `cmd:"" help:"List stored agent records"`
	Info     AgentInfoCmd     `cmd:"" help:"Print one agent record"`
	Update   AgentUpdateCmd   `cmd:"" help:"Update fields of an agent record"`
	Validate AgentValidateCmd `cmd:"" help:"Validate a stored agent record"`
	Docs     AgentDocsCmd     `cmd:"" help:"Render agent record documentation"`
	Delete   AgentDeleteCmd   `cmd:"" help:"Delete an agent record"`
}

// BundleCmd groups the repository-wide operations.
type BundleCmd struct {
	Export BundleExportCmd `cmd:"" help:"Export every agent record to a bundle"`
	Import BundleImportCmd `cmd:"" help:"Import agent records from a bundle"`
}

// Run wires the logger, record store, and reconciler, then dispatches the
// parsed command.
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

	var options []storefs.RecordRepositoryOption
	if command.Store.Strict {
		options = append(options, storefs.WithStrictValidation())
	}

	repository, err := storefs.NewRecordRepository(root, afero.NewOsFs(), options...)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}

	ctx := context.Background()
	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.BindTo(repository, (*agent.Repository)(nil))
	kctx.Bind(agent.NewReconciler(repository))

	return kctx.Run()
}
