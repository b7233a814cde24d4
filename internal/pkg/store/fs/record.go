// Package fs persists agent records as one YAML file per agent under a
// single root directory. The file is the durability boundary: every
// successful write is on disk, via temp-file-then-rename, before the call
// returns.
package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/substratelabs/agentcfg/internal/pkg/agent"
)

const (
	recordFileExtension = ".yaml"
	recordFileMode      = 0o644
	recordDirMode       = 0o755
)

// RecordRepository is the afero-backed implementation of agent.Repository.
type RecordRepository struct {
	basePath string
	fs       afero.Fs
	strict   bool
}

// RecordRepositoryOption configures a RecordRepository.
type RecordRepositoryOption func(repository *RecordRepository)

// WithStrictValidation makes warning-severity violations on the record as
// submitted block writes, for CI contexts that want duplicates rejected.
func WithStrictValidation() RecordRepositoryOption {
	return func(repository *RecordRepository) {
		repository.strict = true
	}
}

// NewRecordRepository opens (creating if needed) a record store rooted at basePath.
func NewRecordRepository(basePath string, fsys afero.Fs, options ...RecordRepositoryOption) (*RecordRepository, error) {
	repository := &RecordRepository{
		basePath: basePath,
		fs:       fsys,
	}

	for _, option := range options {
		option(repository)
	}

	if err := fsys.MkdirAll(basePath, recordDirMode); err != nil {
		return nil, fmt.Errorf("create record store directory: %w", err)
	}

	return repository, nil
}

func (repository *RecordRepository) recordPath(name agent.AgentName) string {
	return filepath.Join(repository.basePath, string(name)+recordFileExtension)
}

// Exists reports whether a record file for the name is present.
func (repository *RecordRepository) Exists(ctx context.Context, name agent.AgentName) (bool, error) {
	if err := name.Validate(); err != nil {
		return false, err
	}

	exists, err := afero.Exists(repository.fs, repository.recordPath(name))
	if err != nil {
		return false, fmt.Errorf("check record file: %w", err)
	}

	return exists, nil
}

// Create validates and persists a new record.
func (repository *RecordRepository) Create(ctx context.Context, record agent.Record) (agent.Record, error) {
	normalized := record.Normalize()

	if err := normalized.Name.Validate(); err != nil {
		return agent.Record{}, err
	}

	exists, err := afero.Exists(repository.fs, repository.recordPath(normalized.Name))
	if err != nil {
		return agent.Record{}, fmt.Errorf("check record file: %w", err)
	}
	if exists {
		return agent.Record{}, fmt.Errorf("%w: %s", agent.ErrAgentAlreadyExists, normalized.Name)
	}

	if err := repository.check(record, normalized); err != nil {
		return agent.Record{}, err
	}

	now := time.Now().UTC()
	normalized.CreatedAt = now
	normalized.UpdatedAt = now

	if err := repository.write(normalized); err != nil {
		return agent.Record{}, err
	}

	return normalized, nil
}

// Get loads a detached copy of the named record.
func (repository *RecordRepository) Get(ctx context.Context, name agent.AgentName) (agent.Record, error) {
	if err := name.Validate(); err != nil {
		return agent.Record{}, err
	}

	data, err := afero.ReadFile(repository.fs, repository.recordPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return agent.Record{}, fmt.Errorf("%w: %s", agent.ErrAgentNotFound, name)
		}

		return agent.Record{}, fmt.Errorf("read record file: %w", err)
	}

	record, err := agent.DecodeRecord(data)
	if err != nil {
		return agent.Record{}, fmt.Errorf("record %s: %w", name, err)
	}

	return record, nil
}

// Update mutates a detached copy, re-validates, and persists it atomically.
// The stored record is untouched when the mutator or validation fails.
func (repository *RecordRepository) Update(ctx context.Context, name agent.AgentName, mutate func(record *agent.Record) error) (agent.Record, error) {
	stored, err := repository.Get(ctx, name)
	if err != nil {
		return agent.Record{}, err
	}

	updated := stored
	if err := mutate(&updated); err != nil {
		return agent.Record{}, fmt.Errorf("apply record mutation: %w", err)
	}

	normalized := updated.Normalize()

	// Name and created_at are immutable across updates.
	normalized.Name = stored.Name
	normalized.CreatedAt = stored.CreatedAt

	if err := repository.check(updated, normalized); err != nil {
		return agent.Record{}, err
	}

	now := time.Now().UTC()
	if !now.After(stored.UpdatedAt) {
		// updated_at must strictly increase even when the clock has not advanced.
		now = stored.UpdatedAt.Add(time.Nanosecond)
	}
	normalized.UpdatedAt = now

	if err := repository.write(normalized); err != nil {
		return agent.Record{}, err
	}

	return normalized, nil
}

// Delete removes the record file. There is no tombstone and no cascade:
// records naming the deleted one as a dependency keep their soft reference.
func (repository *RecordRepository) Delete(ctx context.Context, name agent.AgentName) error {
	exists, err := repository.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", agent.ErrAgentNotFound, name)
	}

	if err := repository.fs.Remove(repository.recordPath(name)); err != nil {
		return fmt.Errorf("remove record file: %w", err)
	}

	return nil
}

// List returns summaries of every stored record ordered by name. Files that
// are not well-named YAML records are skipped; unreadable records are
// skipped with a warning.
func (repository *RecordRepository) List(ctx context.Context) ([]agent.Summary, error) {
	entries, err := afero.ReadDir(repository.fs, repository.basePath)
	if err != nil {
		return nil, fmt.Errorf("read record store directory: %w", err)
	}

	summaries := []agent.Summary{}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordFileExtension) {
			continue
		}

		name := agent.AgentName(strings.TrimSuffix(entry.Name(), recordFileExtension))
		if name.Validate() != nil {
			continue
		}

		record, err := repository.Get(ctx, name)
		if err != nil {
			slog.Warn(
				"Skipping unreadable agent record.",
				slog.String("name", string(name)),
				slog.String("error", err.Error()),
			)
			continue
		}

		summaries = append(summaries, agent.Summary{
			Name:    name,
			Type:    record.Type,
			Version: record.Version,
		})
	}

	slices.SortFunc(summaries, func(a, b agent.Summary) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})

	return summaries, nil
}

// check runs validation for a write. In strict mode, warnings found on the
// record as submitted (before normalization collapses duplicates) also block.
func (repository *RecordRepository) check(submitted, normalized agent.Record) error {
	violations := agent.Validate(normalized)

	if repository.strict {
		violations = append(violations, agent.Validate(submitted).Warnings()...)
	}

	if violations.HasErrors() || (repository.strict && len(violations.Warnings()) > 0) {
		return &agent.ValidationError{Name: normalized.Name, Violations: violations}
	}

	return nil
}

// write persists the record with write-to-temp-then-rename so readers never
// observe a partially written file.
func (repository *RecordRepository) write(record agent.Record) error {
	data, err := agent.EncodeRecord(record)
	if err != nil {
		return err
	}

	path := repository.recordPath(record.Name)
	tmpPath := path + "~"

	if err := afero.WriteFile(repository.fs, tmpPath, data, recordFileMode); err != nil {
		return fmt.Errorf("write temp record file: %w", err)
	}

	if err := repository.fs.Rename(tmpPath, path); err != nil {
		_ = repository.fs.Remove(tmpPath)
		return fmt.Errorf("rename temp record file: %w", err)
	}

	return nil
}
