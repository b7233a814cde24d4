package agent_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
	storefs "github.com/substratelabs/agentcfg/internal/pkg/store/fs"
)

func newTestRepository(t *testing.T, names ...agent.AgentName) agent.Repository {
	t.Helper()

	repository, err := storefs.NewRecordRepository("/agents", afero.NewMemMapFs())
	require.NoError(t, err)

	for _, name := range names {
		_, err := repository.Create(context.Background(), agent.NewRecord(name))
		require.NoError(t, err)
	}

	return repository
}

func TestReconciler_ExportAll(t *testing.T) {
	ctx := context.Background()
	repository := newTestRepository(t, "worker-2", "worker-1", "worker-3")

	bundle, err := agent.NewReconciler(repository).ExportAll(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, bundle.ExportID)
	assert.False(t, bundle.ExportedAt.IsZero())
	assert.Equal(t, agent.BundleFormatVersion, bundle.FormatVersion)
	assert.Equal(t, 3, bundle.Count)

	require.Len(t, bundle.Agents, 3)
	assert.Equal(t, agent.AgentName("worker-1"), bundle.Agents[0].Name)
	assert.Equal(t, agent.AgentName("worker-2"), bundle.Agents[1].Name)
	assert.Equal(t, agent.AgentName("worker-3"), bundle.Agents[2].Name)

	second, err := agent.NewReconciler(repository).ExportAll(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, bundle.ExportID, second.ExportID)
}

func TestReconciler_Import_Skip(t *testing.T) {
	ctx := context.Background()
	source := newTestRepository(t, "worker-1", "worker-2", "worker-3")

	bundle, err := agent.NewReconciler(source).ExportAll(ctx)
	require.NoError(t, err)

	target := newTestRepository(t)
	reconciler := agent.NewReconciler(target)

	report, err := reconciler.Import(ctx, bundle, agent.ConflictSkip)
	require.NoError(t, err)
	assert.Equal(t, agent.ImportReport{Created: 3}, report)

	// Importing the same bundle again is a no-op.
	report, err = reconciler.Import(ctx, bundle, agent.ConflictSkip)
	require.NoError(t, err)
	assert.Equal(t, agent.ImportReport{Skipped: 3}, report)

	summaries, err := target.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 3)
}

func TestReconciler_Import_Overwrite(t *testing.T) {
	ctx := context.Background()
	repository := newTestRepository(t, "worker-1")
	reconciler := agent.NewReconciler(repository)

	existing, err := repository.Get(ctx, "worker-1")
	require.NoError(t, err)

	incoming := agent.NewRecord("worker-1")
	incoming.Description = "Replacement"
	incoming.Configuration.Timeout = 120

	bundle := agent.Bundle{Agents: []agent.Record{incoming}}

	report, err := reconciler.Import(ctx, bundle, agent.ConflictOverwrite)
	require.NoError(t, err)
	assert.Equal(t, agent.ImportReport{Overwritten: 1}, report)

	stored, err := repository.Get(ctx, "worker-1")
	require.NoError(t, err)
	assert.Equal(t, "Replacement", stored.Description)
	assert.Equal(t, 120, stored.Configuration.Timeout)

	// Overwrite keeps the original creation time and bumps updated_at.
	assert.True(t, stored.CreatedAt.Equal(existing.CreatedAt))
	assert.True(t, stored.UpdatedAt.After(existing.UpdatedAt))
}

func TestReconciler_Import_FailIsAtomic(t *testing.T) {
	ctx := context.Background()

	snapshot := func(t *testing.T, repository agent.Repository) []agent.Summary {
		t.Helper()

		summaries, err := repository.List(ctx)
		require.NoError(t, err)

		return summaries
	}

	t.Run("name collision aborts before any write", func(t *testing.T) {
		repository := newTestRepository(t, "worker-2")
		before := snapshot(t, repository)

		bundle := agent.Bundle{Agents: []agent.Record{
			agent.NewRecord("worker-1"),
			agent.NewRecord("worker-2"),
			agent.NewRecord("worker-3"),
		}}

		_, err := agent.NewReconciler(repository).Import(ctx, bundle, agent.ConflictFail)
		assert.ErrorIs(t, err, agent.ErrAgentAlreadyExists)

		assert.Equal(t, before, snapshot(t, repository))
	})

	t.Run("invalid record aborts before any write", func(t *testing.T) {
		repository := newTestRepository(t)

		broken := agent.NewRecord("worker-2")
		broken.Configuration.Retries = -1

		bundle := agent.Bundle{Agents: []agent.Record{agent.NewRecord("worker-1"), broken}}

		_, err := agent.NewReconciler(repository).Import(ctx, bundle, agent.ConflictFail)
		assert.ErrorIs(t, err, agent.ErrValidationFailed)

		assert.Empty(t, snapshot(t, repository))
	})

	t.Run("duplicate names inside the bundle abort", func(t *testing.T) {
		repository := newTestRepository(t)

		bundle := agent.Bundle{Agents: []agent.Record{
			agent.NewRecord("worker-1"),
			agent.NewRecord("worker-1"),
		}}

		_, err := agent.NewReconciler(repository).Import(ctx, bundle, agent.ConflictFail)
		assert.ErrorIs(t, err, agent.ErrAgentAlreadyExists)

		assert.Empty(t, snapshot(t, repository))
	})

	t.Run("malformed entry aborts", func(t *testing.T) {
		repository := newTestRepository(t)

		bundle := agent.Bundle{
			Agents:    []agent.Record{agent.NewRecord("worker-1")},
			Malformed: []agent.MalformedEntry{{Index: 1, Reason: "invalid entry"}},
		}

		_, err := agent.NewReconciler(repository).Import(ctx, bundle, agent.ConflictFail)
		assert.ErrorIs(t, err, agent.ErrMalformedInput)

		assert.Empty(t, snapshot(t, repository))
	})
}

func TestReconciler_Import_LenientReport(t *testing.T) {
	ctx := context.Background()
	repository := newTestRepository(t)

	broken := agent.NewRecord("worker-2")
	broken.Configuration.Retries = -1

	bundle := agent.Bundle{
		Agents:    []agent.Record{agent.NewRecord("worker-1"), broken},
		Malformed: []agent.MalformedEntry{{Index: 2, Name: "worker-3", Reason: "invalid entry"}},
	}

	report, err := agent.NewReconciler(repository).Import(ctx, bundle, agent.ConflictSkip)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Failed)

	require.Len(t, report.Rejected, 2)
	assert.Equal(t, agent.AgentName("worker-3"), report.Rejected[0].Name)
	assert.Equal(t, agent.AgentName("worker-2"), report.Rejected[1].Name)
	require.NotEmpty(t, report.Rejected[1].Violations)
	assert.Equal(t, "configuration.retries", report.Rejected[1].Violations[0].Field)

	summaries, err := repository.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, agent.AgentName("worker-1"), summaries[0].Name)
}

func TestReconciler_Import_UnknownPolicy(t *testing.T) {
	repository := newTestRepository(t)

	_, err := agent.NewReconciler(repository).Import(context.Background(), agent.Bundle{}, "merge")
	assert.Error(t, err)
}

func TestReconciler_RoundTrip(t *testing.T) {
	ctx := context.Background()

	source := newTestRepository(t)
	record := agent.NewRecord("worker-1")
	record.Capabilities = []string{"parse"}
	record.Interfaces.Input = []string{"events"}
	_, err := source.Create(ctx, record)
	require.NoError(t, err)

	bundle, err := agent.NewReconciler(source).ExportAll(ctx)
	require.NoError(t, err)

	data, err := agent.EncodeBundle(bundle)
	require.NoError(t, err)

	decoded, err := agent.DecodeBundle(data)
	require.NoError(t, err)

	target := newTestRepository(t)
	_, err = agent.NewReconciler(target).Import(ctx, decoded, agent.ConflictFail)
	require.NoError(t, err)

	exported, err := source.Get(ctx, "worker-1")
	require.NoError(t, err)
	imported, err := target.Get(ctx, "worker-1")
	require.NoError(t, err)

	assert.Equal(t, exported.Name, imported.Name)
	assert.Equal(t, exported.Version, imported.Version)
	assert.Equal(t, exported.Capabilities, imported.Capabilities)
	assert.Equal(t, exported.Configuration, imported.Configuration)
	assert.Equal(t, exported.Interfaces, imported.Interfaces)
}
