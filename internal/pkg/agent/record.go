package agent

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"sigs.k8s.io/yaml"
)

// AgentName identifies a record in the store and doubles as its file name.
type AgentName string

var agentNamePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// Validate reports whether the name is usable as a record key.
// Returns ErrAgentNameInvalid when the name is empty, too long, or contains
// characters outside lowercase letters, digits, hyphens, and underscores.
func (name AgentName) Validate() error {
	if !agentNamePattern.MatchString(string(name)) {
		return fmt.Errorf("%w: %q", ErrAgentNameInvalid, string(name))
	}

	return nil
}

// AgentType classifies the role an agent plays in the system.
type AgentType string

const (
	TypeWorker      AgentType = "worker"
	TypeCoordinator AgentType = "coordinator"
	TypeValidator   AgentType = "validator"
	TypeTransformer AgentType = "transformer"
	TypeAggregator  AgentType = "aggregator"
)

// AgentTypes returns the closed set of valid agent types.
func AgentTypes() []AgentType {
	return []AgentType{TypeWorker, TypeCoordinator, TypeValidator, TypeTransformer, TypeAggregator}
}

// Valid reports whether the type belongs to the closed enumeration.
func (agentType AgentType) Valid() bool {
	return slices.Contains(AgentTypes(), agentType)
}

// LogSettings configures how an agent emits its own logs.
type LogSettings struct {
	Level  string `json:"level" default:"INFO"`
	Format string `json:"format" default:"structured"`
}

// Settings holds the scalar configuration shared by every agent.
type Settings struct {
	// Timeout is the per-operation limit in seconds.
	Timeout int `json:"timeout" default:"30"`

	// Retries is the number of re-attempts after a failure.
	Retries int `json:"retries" default:"3"`

	// MaxWorkers bounds the agent's internal parallelism.
	MaxWorkers int `json:"max_workers" default:"5"`

	Logging LogSettings `json:"logging"`
}

// DefaultSettings returns the schema defaults for agent settings.
func DefaultSettings() Settings {
	var settings Settings
	defaults.SetDefaults(&settings)

	return settings
}

// withDefaults fills fields whose zero value is outside the legal range.
// Retries is left alone: an explicit zero is legal and indistinguishable
// from absence.
func (settings Settings) withDefaults() Settings {
	schema := DefaultSettings()

	if settings.Timeout == 0 {
		settings.Timeout = schema.Timeout
	}
	if settings.MaxWorkers == 0 {
		settings.MaxWorkers = schema.MaxWorkers
	}
	if settings.Logging.Level == "" {
		settings.Logging.Level = schema.Logging.Level
	}
	if settings.Logging.Format == "" {
		settings.Logging.Format = schema.Logging.Format
	}

	return settings
}

// Apply returns the settings with every set field of the patch laid over them.
// The receiver is never modified.
func (settings Settings) Apply(patch SettingsPatch) Settings {
	merged := settings

	if patch.Timeout != nil {
		merged.Timeout = *patch.Timeout
	}
	if patch.Retries != nil {
		merged.Retries = *patch.Retries
	}
	if patch.MaxWorkers != nil {
		merged.MaxWorkers = *patch.MaxWorkers
	}
	if patch.Logging != nil {
		if patch.Logging.Level != nil {
			merged.Logging.Level = *patch.Logging.Level
		}
		if patch.Logging.Format != nil {
			merged.Logging.Format = *patch.Logging.Format
		}
	}

	return merged
}

// LogSettingsPatch is a partial override of LogSettings.
type LogSettingsPatch struct {
	Level  *string `json:"level,omitempty"`
	Format *string `json:"format,omitempty"`

	// Unknown collects override keys that are not part of the logging schema.
	Unknown map[string]json.RawMessage `json:"-"`
}

// SettingsPatch is a partial override of Settings scoped to one environment.
// Keys outside the settings schema are retained in Unknown so validation can
// reject them instead of silently dropping them.
type SettingsPatch struct {
	Timeout    *int              `json:"timeout,omitempty"`
	Retries    *int              `json:"retries,omitempty"`
	MaxWorkers *int              `json:"max_workers,omitempty"`
	Logging    *LogSettingsPatch `json:"logging,omitempty"`

	Unknown map[string]json.RawMessage `json:"-"`
}

// UnknownKeys returns the override keys that do not exist in the settings
// schema, sorted, with nested logging keys reported as "logging.<key>".
func (patch SettingsPatch) UnknownKeys() []string {
	keys := slices.Sorted(maps.Keys(patch.Unknown))

	if patch.Logging != nil {
		for _, key := range slices.Sorted(maps.Keys(patch.Logging.Unknown)) {
			keys = append(keys, "logging."+key)
		}
	}

	return keys
}

func (patch *SettingsPatch) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode environment override: %w", err)
	}

	*patch = SettingsPatch{}

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		value := fields[key]

		var err error
		switch key {
		case "timeout":
			err = json.Unmarshal(value, &patch.Timeout)
		case "retries":
			err = json.Unmarshal(value, &patch.Retries)
		case "max_workers":
			err = json.Unmarshal(value, &patch.MaxWorkers)
		case "logging":
			err = json.Unmarshal(value, &patch.Logging)
		default:
			if patch.Unknown == nil {
				patch.Unknown = map[string]json.RawMessage{}
			}
			patch.Unknown[key] = value
		}
		if err != nil {
			return fmt.Errorf("decode environment override %q: %w", key, err)
		}
	}

	return nil
}

func (patch SettingsPatch) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}

	encode := func(key string, value any) error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode environment override %q: %w", key, err)
		}
		fields[key] = data

		return nil
	}

	if patch.Timeout != nil {
		if err := encode("timeout", patch.Timeout); err != nil {
			return nil, err
		}
	}
	if patch.Retries != nil {
		if err := encode("retries", patch.Retries); err != nil {
			return nil, err
		}
	}
	if patch.MaxWorkers != nil {
		if err := encode("max_workers", patch.MaxWorkers); err != nil {
			return nil, err
		}
	}
	if patch.Logging != nil {
		if err := encode("logging", patch.Logging); err != nil {
			return nil, err
		}
	}
	for key, value := range patch.Unknown {
		fields[key] = value
	}

	return json.Marshal(fields)
}

func (patch *LogSettingsPatch) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode logging override: %w", err)
	}

	*patch = LogSettingsPatch{}

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		value := fields[key]

		var err error
		switch key {
		case "level":
			err = json.Unmarshal(value, &patch.Level)
		case "format":
			err = json.Unmarshal(value, &patch.Format)
		default:
			if patch.Unknown == nil {
				patch.Unknown = map[string]json.RawMessage{}
			}
			patch.Unknown[key] = value
		}
		if err != nil {
			return fmt.Errorf("decode logging override %q: %w", key, err)
		}
	}

	return nil
}

func (patch LogSettingsPatch) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}

	if patch.Level != nil {
		data, err := json.Marshal(patch.Level)
		if err != nil {
			return nil, fmt.Errorf("encode logging override level: %w", err)
		}
		fields["level"] = data
	}
	if patch.Format != nil {
		data, err := json.Marshal(patch.Format)
		if err != nil {
			return nil, fmt.Errorf("encode logging override format: %w", err)
		}
		fields["format"] = data
	}
	for key, value := range patch.Unknown {
		fields[key] = value
	}

	return json.Marshal(fields)
}

// Interfaces names the data channels an agent consumes and produces.
type Interfaces struct {
	Input  []string `json:"input"`
	Output []string `json:"output"`
}

// Record is the declarative configuration of one agent. Instances held by
// callers are detached snapshots; only the repository owns the persisted copy.
type Record struct {
	Name        AgentName `json:"name"`
	Version     string    `json:"version"`
	Type        AgentType `json:"type"`
	Description string    `json:"description,omitempty"`

	// CreatedAt is set once on first persist and never changes afterwards.
	CreatedAt time.Time `json:"created"`

	// UpdatedAt is refreshed by the repository on every mutation.
	UpdatedAt time.Time `json:"updated"`

	Capabilities []string `json:"capabilities"`

	// Dependencies are soft references: they name agents or external
	// services that are not required to exist in the repository.
	Dependencies []string `json:"dependencies"`

	Configuration Settings                 `json:"configuration"`
	Environment   map[string]SettingsPatch `json:"environment,omitempty"`
	Interfaces    Interfaces               `json:"interfaces"`
}

// NewRecord scaffolds a record with schema defaults and empty
// development/staging/production environments.
func NewRecord(name AgentName) Record {
	now := time.Now().UTC()

	return Record{
		Name:          name,
		Version:       "1.0.0",
		Type:          TypeWorker,
		Description:   fmt.Sprintf("Agent: %s", name),
		CreatedAt:     now,
		UpdatedAt:     now,
		Capabilities:  []string{},
		Dependencies:  []string{},
		Configuration: DefaultSettings(),
		Environment: map[string]SettingsPatch{
			"development": {},
			"staging":     {},
			"production":  {},
		},
		Interfaces: Interfaces{
			Input:  []string{},
			Output: []string{},
		},
	}
}

// Normalize returns a cleaned copy of the record: strings trimmed, tag sets
// lowercased, deduplicated and sorted, and settings whose zero value is
// illegal filled with schema defaults. The receiver is never modified.
func (record Record) Normalize() Record {
	normalized := record

	normalized.Name = AgentName(strings.TrimSpace(string(record.Name)))
	normalized.Version = strings.TrimSpace(record.Version)
	normalized.Type = AgentType(strings.TrimSpace(string(record.Type)))
	normalized.Description = strings.TrimSpace(record.Description)

	normalized.Capabilities = normalizeTagSet(record.Capabilities)
	normalized.Dependencies = normalizeTagSet(record.Dependencies)
	normalized.Interfaces = Interfaces{
		Input:  normalizeTagSet(record.Interfaces.Input),
		Output: normalizeTagSet(record.Interfaces.Output),
	}

	normalized.Configuration = record.Configuration.withDefaults()
	normalized.Environment = maps.Clone(record.Environment)

	return normalized
}

// normalizeTagSet lowercases and trims entries, collapses duplicates, and
// sorts. Empty entries are kept so validation can report them.
func normalizeTagSet(tags []string) []string {
	if tags == nil {
		return nil
	}

	seen := map[string]struct{}{}
	normalized := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if _, duplicate := seen[tag]; duplicate {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}

	slices.Sort(normalized)

	return normalized
}

// EffectiveConfiguration returns the base configuration with the named
// environment's overrides applied. Unknown environments yield the base
// configuration unchanged.
func (record Record) EffectiveConfiguration(environment string) Settings {
	patch, ok := record.Environment[environment]
	if !ok {
		return record.Configuration
	}

	return record.Configuration.Apply(patch)
}

// EffectiveConfigurationStrict behaves like EffectiveConfiguration but
// returns ErrUnknownEnvironment when the environment is not declared.
func (record Record) EffectiveConfigurationStrict(environment string) (Settings, error) {
	if _, ok := record.Environment[environment]; !ok {
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownEnvironment, environment)
	}

	return record.EffectiveConfiguration(environment), nil
}

// EncodeRecord serializes a record to its persisted YAML form.
func EncodeRecord(record Record) ([]byte, error) {
	data, err := yaml.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode agent record: %w", err)
	}

	return data, nil
}

// DecodeRecord parses the persisted YAML form of a record.
// Returns ErrMalformedInput when the payload cannot be parsed into record shape.
func DecodeRecord(data []byte) (Record, error) {
	var record Record
	if err := yaml.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	return record, nil
}
