package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BundleFormatVersion is written into every exported bundle manifest.
const BundleFormatVersion = "1.0"

// Bundle is a transportable collection of agent records plus a manifest.
type Bundle struct {
	ExportID      string    `json:"export_id"`
	ExportedAt    time.Time `json:"exported_at"`
	FormatVersion string    `json:"format_version"`
	Count         int       `json:"count"`

	// Agents is ordered by name.
	Agents []Record `json:"agents"`

	// Malformed lists bundle entries that could not be parsed into record
	// shape. Populated by DecodeBundle, never serialized.
	Malformed []MalformedEntry `json:"-"`
}

// MalformedEntry describes one unparseable record inside a decoded bundle.
type MalformedEntry struct {
	// Index is the entry's position in the bundle's agents list.
	Index int

	// Name is the entry's declared name when one could be extracted.
	Name AgentName

	Reason string
}

// EncodeBundle serializes a bundle to its transportable JSON form.
func EncodeBundle(bundle Bundle) ([]byte, error) {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}

	return data, nil
}

// DecodeBundle parses a bundle file. Entries that cannot be parsed into
// record shape are collected in Malformed rather than failing the decode;
// only a payload that is not a bundle at all yields ErrMalformedInput.
func DecodeBundle(data []byte) (Bundle, error) {
	var envelope struct {
		ExportID      string            `json:"export_id"`
		ExportedAt    time.Time         `json:"exported_at"`
		FormatVersion string            `json:"format_version"`
		Count         int               `json:"count"`
		Agents        []json.RawMessage `json:"agents"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if envelope.Agents == nil {
		return Bundle{}, fmt.Errorf("%w: bundle has no agents list", ErrMalformedInput)
	}

	bundle := Bundle{
		ExportID:      envelope.ExportID,
		ExportedAt:    envelope.ExportedAt,
		FormatVersion: envelope.FormatVersion,
		Count:         envelope.Count,
		Agents:        make([]Record, 0, len(envelope.Agents)),
	}

	for index, raw := range envelope.Agents {
		var record Record
		if err := json.Unmarshal(raw, &record); err != nil {
			var probe struct {
				Name AgentName `json:"name"`
			}
			_ = json.Unmarshal(raw, &probe)

			bundle.Malformed = append(bundle.Malformed, MalformedEntry{
				Index:  index,
				Name:   probe.Name,
				Reason: err.Error(),
			})

			continue
		}

		bundle.Agents = append(bundle.Agents, record)
	}

	return bundle, nil
}

// ConflictPolicy selects how Import treats an incoming record whose name is
// already stored.
type ConflictPolicy string

const (
	// ConflictSkip leaves the existing record untouched.
	ConflictSkip ConflictPolicy = "skip"

	// ConflictOverwrite replaces the existing record when the incoming one validates.
	ConflictOverwrite ConflictPolicy = "overwrite"

	// ConflictFail aborts the whole import with zero partial effect.
	ConflictFail ConflictPolicy = "fail"
)

// ParseConflictPolicy converts a user-supplied policy name.
func ParseConflictPolicy(value string) (ConflictPolicy, error) {
	switch ConflictPolicy(value) {
	case ConflictSkip, ConflictOverwrite, ConflictFail:
		return ConflictPolicy(value), nil
	default:
		return "", fmt.Errorf("unknown conflict policy: %q", value)
	}
}

// RejectedRecord explains one record that an import did not apply.
type RejectedRecord struct {
	Name       AgentName  `json:"name,omitempty"`
	Reason     string     `json:"reason"`
	Violations Violations `json:"violations,omitempty"`
}

// ImportReport summarizes the outcome of one bundle import.
type ImportReport struct {
	Created     int `json:"created"`
	Overwritten int `json:"overwritten"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`

	Rejected []RejectedRecord `json:"rejected,omitempty"`
}

// Reconciler moves full record sets across the export/import boundary.
// It always goes through the repository, never around its validation.
type Reconciler struct {
	repository Repository
}

// NewReconciler returns a reconciler bound to the given repository.
func NewReconciler(repository Repository) *Reconciler {
	return &Reconciler{repository: repository}
}

// ExportAll collects every stored record into a bundle with a fresh manifest.
func (reconciler *Reconciler) ExportAll(ctx context.Context) (Bundle, error) {
	summaries, err := reconciler.repository.List(ctx)
	if err != nil {
		return Bundle{}, fmt.Errorf("list agent records: %w", err)
	}

	// List is ordered by name, so the bundle is too.
	records := make([]Record, 0, len(summaries))
	for _, summary := range summaries {
		record, err := reconciler.repository.Get(ctx, summary.Name)
		if err != nil {
			return Bundle{}, fmt.Errorf("load agent record %s: %w", summary.Name, err)
		}

		records = append(records, record)
	}

	return Bundle{
		ExportID:      uuid.NewString(),
		ExportedAt:    time.Now().UTC(),
		FormatVersion: BundleFormatVersion,
		Count:         len(records),
		Agents:        records,
	}, nil
}

// Import merges a bundle into the repository under the given conflict policy.
// Under ConflictFail the whole bundle is staged and validated before the
// first write, so a failure leaves the repository exactly as it was.
func (reconciler *Reconciler) Import(ctx context.Context, bundle Bundle, policy ConflictPolicy) (ImportReport, error) {
	if _, err := ParseConflictPolicy(string(policy)); err != nil {
		return ImportReport{}, err
	}

	if policy == ConflictFail {
		return reconciler.importAtomic(ctx, bundle)
	}

	return reconciler.importLenient(ctx, bundle, policy)
}

// importAtomic is the two-phase import: stage (validate everything, detect
// collisions) then commit (write everything). No write happens before the
// staging phase passes in full.
func (reconciler *Reconciler) importAtomic(ctx context.Context, bundle Bundle) (ImportReport, error) {
	if len(bundle.Malformed) > 0 {
		entry := bundle.Malformed[0]
		return ImportReport{}, fmt.Errorf("%w: bundle entry %d (%s): %s",
			ErrMalformedInput, entry.Index, entry.Name, entry.Reason)
	}

	seen := map[AgentName]struct{}{}

	for _, record := range bundle.Agents {
		normalized := record.Normalize()

		if violations := Validate(normalized); violations.HasErrors() {
			return ImportReport{}, &ValidationError{Name: normalized.Name, Violations: violations}
		}

		if _, duplicate := seen[normalized.Name]; duplicate {
			return ImportReport{}, fmt.Errorf("%w: duplicated inside bundle: %s",
				ErrAgentAlreadyExists, normalized.Name)
		}
		seen[normalized.Name] = struct{}{}

		exists, err := reconciler.repository.Exists(ctx, normalized.Name)
		if err != nil {
			return ImportReport{}, fmt.Errorf("check agent record %s: %w", normalized.Name, err)
		}
		if exists {
			return ImportReport{}, fmt.Errorf("%w: %s", ErrAgentAlreadyExists, normalized.Name)
		}
	}

	report := ImportReport{}
	for _, record := range bundle.Agents {
		if _, err := reconciler.repository.Create(ctx, record); err != nil {
			return report, fmt.Errorf("create agent record %s: %w", record.Name, err)
		}
		report.Created++
	}

	return report, nil
}

// importLenient applies skip/overwrite semantics, degrading per-record
// failures into report entries instead of aborting.
func (reconciler *Reconciler) importLenient(ctx context.Context, bundle Bundle, policy ConflictPolicy) (ImportReport, error) {
	report := ImportReport{}

	for _, entry := range bundle.Malformed {
		report.Failed++
		report.Rejected = append(report.Rejected, RejectedRecord{
			Name:   entry.Name,
			Reason: fmt.Sprintf("bundle entry %d: %s", entry.Index, entry.Reason),
		})
	}

	for _, record := range bundle.Agents {
		name := record.Normalize().Name

		exists, err := reconciler.repository.Exists(ctx, name)
		if err != nil {
			report.Failed++
			report.Rejected = append(report.Rejected, rejected(name, err))
			continue
		}

		if exists {
			if policy == ConflictSkip {
				report.Skipped++
				continue
			}

			incoming := record
			_, err := reconciler.repository.Update(ctx, name, func(stored *Record) error {
				*stored = incoming
				return nil
			})
			if err != nil {
				report.Failed++
				report.Rejected = append(report.Rejected, rejected(name, err))
				continue
			}

			report.Overwritten++
			continue
		}

		if _, err := reconciler.repository.Create(ctx, record); err != nil {
			report.Failed++
			report.Rejected = append(report.Rejected, rejected(name, err))
			continue
		}

		report.Created++
	}

	return report, nil
}

func rejected(name AgentName, err error) RejectedRecord {
	entry := RejectedRecord{Name: name, Reason: err.Error()}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		entry.Violations = validationErr.Violations
	}

	return entry
}
