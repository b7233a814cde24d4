package agentcfgctl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
)

// BundleExportCmd exports every stored record to a single bundle file.
type BundleExportCmd struct {
	Output string `help:"Output file; prints to stdout when empty."`
}

// Run executes the bundle export command.
func (command *BundleExportCmd) Run(ctx context.Context, reconciler *agent.Reconciler) error {
	bundle, err := reconciler.ExportAll(ctx)
	if err != nil {
		return fmt.Errorf("export agent records: %w", err)
	}

	data, err := agent.EncodeBundle(bundle)
	if err != nil {
		return err
	}

	if command.Output == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(command.Output, data, 0o644); err != nil {
		return fmt.Errorf("write bundle file: %w", err)
	}

	slog.Info(
		"Exported agent records.",
		slog.Int("count", bundle.Count),
		slog.String("path", command.Output),
	)

	return nil
}

// BundleImportCmd merges a bundle file into the store.
type BundleImportCmd struct {
	Input      string `arg:"" required:"" help:"Bundle file to import."`
	OnConflict string `help:"Policy for records whose name already exists." default:"skip" enum:"skip,overwrite,fail"`
}

// Run executes the bundle import command.
func (command *BundleImportCmd) Run(ctx context.Context, reconciler *agent.Reconciler) error {
	data, err := os.ReadFile(command.Input)
	if err != nil {
		return fmt.Errorf("read bundle file: %w", err)
	}

	bundle, err := agent.DecodeBundle(data)
	if err != nil {
		return err
	}

	policy, err := agent.ParseConflictPolicy(command.OnConflict)
	if err != nil {
		return err
	}

	report, err := reconciler.Import(ctx, bundle, policy)
	if err != nil {
		return fmt.Errorf("import bundle: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode import report: %w", err)
	}

	return nil
}
