package agent

import (
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"
)

// RenderDocumentation formats a record as markdown. The output is
// deterministic: equal records always render to identical bytes.
// Returns ErrNotRenderable when the record carries error-severity violations.
func RenderDocumentation(record Record) (string, error) {
	if violations := Validate(record); violations.HasErrors() {
		return "", fmt.Errorf("%w: %s", ErrNotRenderable, violations.Errors())
	}

	configuration, err := yaml.Marshal(record.Configuration)
	if err != nil {
		return "", fmt.Errorf("render configuration block: %w", err)
	}

	var doc strings.Builder

	fmt.Fprintf(&doc, "# Agent: %s\n\n", record.Name)
	fmt.Fprintf(&doc, "**Version:** %s\n\n", record.Version)
	fmt.Fprintf(&doc, "**Type:** %s\n", record.Type)
	if record.Description != "" {
		fmt.Fprintf(&doc, "\n**Description:** %s\n", record.Description)
	}

	writeTagSection(&doc, "Capabilities", record.Capabilities)
	writeTagSection(&doc, "Dependencies", record.Dependencies)

	doc.WriteString("\n## Configuration\n\n```yaml\n")
	doc.Write(configuration)
	doc.WriteString("```\n")

	if len(record.Interfaces.Input) > 0 || len(record.Interfaces.Output) > 0 {
		doc.WriteString("\n## Interfaces\n")
		writeTagSubsection(&doc, "Input", record.Interfaces.Input)
		writeTagSubsection(&doc, "Output", record.Interfaces.Output)
	}

	return doc.String(), nil
}

func writeTagSection(doc *strings.Builder, title string, tags []string) {
	if len(tags) == 0 {
		return
	}

	fmt.Fprintf(doc, "\n## %s\n\n", title)
	for _, tag := range tags {
		fmt.Fprintf(doc, "- %s\n", tag)
	}
}

func writeTagSubsection(doc *strings.Builder, title string, tags []string) {
	if len(tags) == 0 {
		return
	}

	fmt.Fprintf(doc, "\n### %s\n\n", title)
	for _, tag := range tags {
		fmt.Fprintf(doc, "- %s\n", tag)
	}
}
