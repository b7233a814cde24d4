package agent

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Severity ranks a violation. Errors block persistence, warnings do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is a single rule failure found during validation.
type Violation struct {
	// Field is the path of the offending field, e.g. "configuration.retries".
	Field string `json:"field"`

	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (violation Violation) String() string {
	return fmt.Sprintf("%s: %s", violation.Field, violation.Message)
}

// Violations is the ordered result of validating one record.
type Violations []Violation

// HasErrors reports whether any violation has error severity.
func (violations Violations) HasErrors() bool {
	return slices.ContainsFunc(violations, func(violation Violation) bool {
		return violation.Severity == SeverityError
	})
}

// Errors returns only the error-severity violations, in order.
func (violations Violations) Errors() Violations {
	return violations.filter(SeverityError)
}

// Warnings returns only the warning-severity violations, in order.
func (violations Violations) Warnings() Violations {
	return violations.filter(SeverityWarning)
}

func (violations Violations) filter(severity Severity) Violations {
	filtered := Violations{}
	for _, violation := range violations {
		if violation.Severity == severity {
			filtered = append(filtered, violation)
		}
	}

	return filtered
}

func (violations Violations) String() string {
	messages := make([]string, 0, len(violations))
	for _, violation := range violations {
		messages = append(messages, violation.String())
	}

	return strings.Join(messages, "; ")
}

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Validate checks a record against the schema and returns every rule failure
// in a fixed order. It is pure: it never touches the store, and dependency
// references are checked for shape only, never for existence.
func Validate(record Record) Violations {
	violations := Violations{}

	report := func(field string, severity Severity, message string) {
		violations = append(violations, Violation{Field: field, Severity: severity, Message: message})
	}

	name := strings.TrimSpace(string(record.Name))
	version := strings.TrimSpace(record.Version)
	agentType := AgentType(strings.TrimSpace(string(record.Type)))

	// Rule 1: required fields.
	if name == "" {
		report("name", SeverityError, "required field is missing")
	}
	if agentType == "" {
		report("type", SeverityError, "required field is missing")
	}
	if version == "" {
		report("version", SeverityError, "required field is missing")
	}

	// Rule 2: name character set and length.
	if name != "" && AgentName(name).Validate() != nil {
		report("name", SeverityError,
			"must be 1-64 characters of lowercase letters, digits, hyphens, and underscores")
	}

	// Rule 3: closed type enumeration.
	if agentType != "" && !agentType.Valid() {
		report("type", SeverityError, fmt.Sprintf("must be one of: %s", joinTypes()))
	}

	// Rule 4: semantic version shape.
	if version != "" && !versionPattern.MatchString(version) {
		report("version", SeverityError, "must follow semantic versioning (major.minor.patch)")
	}

	// Rule 5: configuration bounds.
	if record.Configuration.Timeout <= 0 {
		report("configuration.timeout", SeverityError, "must be a positive number")
	}
	if record.Configuration.Retries < 0 {
		report("configuration.retries", SeverityError, "must be zero or greater")
	}
	if record.Configuration.MaxWorkers < 1 {
		report("configuration.max_workers", SeverityError, "must be at least 1")
	}

	// Rule 6: environment overrides may only touch known settings.
	for _, environment := range slices.Sorted(maps.Keys(record.Environment)) {
		for _, key := range record.Environment[environment].UnknownKeys() {
			report(fmt.Sprintf("environment.%s.%s", environment, key), SeverityError,
				"is not a recognized configuration setting")
		}
	}

	// Rule 7: tag sets are non-empty strings without duplicates.
	violations = append(violations, validateTagSet("capabilities", record.Capabilities)...)
	violations = append(violations, validateTagSet("dependencies", record.Dependencies)...)
	violations = append(violations, validateTagSet("interfaces.input", record.Interfaces.Input)...)
	violations = append(violations, validateTagSet("interfaces.output", record.Interfaces.Output)...)

	return violations
}

// validateTagSet reports empty entries as errors and duplicates, compared
// after trimming and lowercasing, as a warning.
func validateTagSet(field string, values []string) Violations {
	violations := Violations{}

	seen := map[string]struct{}{}
	hasEmpty := false
	hasDuplicate := false

	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			hasEmpty = true
			continue
		}
		if _, duplicate := seen[normalized]; duplicate {
			hasDuplicate = true
		}
		seen[normalized] = struct{}{}
	}

	if hasEmpty {
		violations = append(violations, Violation{
			Field:    field,
			Severity: SeverityError,
			Message:  "entries must be non-empty strings",
		})
	}
	if hasDuplicate {
		violations = append(violations, Violation{
			Field:    field,
			Severity: SeverityWarning,
			Message:  "contains duplicate entries after normalization",
		})
	}

	return violations
}

func joinTypes() string {
	names := make([]string, 0, len(AgentTypes()))
	for _, agentType := range AgentTypes() {
		names = append(names, string(agentType))
	}

	return strings.Join(names, ", ")
}
