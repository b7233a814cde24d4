package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentedRecord() Record {
	record := NewRecord("worker-1")
	record.Description = "Parses inbound events"
	record.Capabilities = []string{"parse"}
	record.Dependencies = []string{"queue"}
	record.Interfaces.Input = []string{"events"}
	record.Interfaces.Output = []string{"parsed-events"}

	return record
}

func TestRenderDocumentation(t *testing.T) {
	doc, err := RenderDocumentation(documentedRecord())
	require.NoError(t, err)

	expected := "# Agent: worker-1\n" +
		"\n" +
		"**Version:** 1.0.0\n" +
		"\n" +
		"**Type:** worker\n" +
		"\n" +
		"**Description:** Parses inbound events\n" +
		"\n" +
		"## Capabilities\n" +
		"\n" +
		"- parse\n" +
		"\n" +
		"## Dependencies\n" +
		"\n" +
		"- queue\n" +
		"\n" +
		"## Configuration\n" +
		"\n" +
		"```yaml\n" +
		"logging:\n" +
		"  format: structured\n" +
		"  level: INFO\n" +
		"max_workers: 5\n" +
		"retries: 3\n" +
		"timeout: 30\n" +
		"```\n" +
		"\n" +
		"## Interfaces\n" +
		"\n" +
		"### Input\n" +
		"\n" +
		"- events\n" +
		"\n" +
		"### Output\n" +
		"\n" +
		"- parsed-events\n"

	assert.Equal(t, expected, doc)
}

func TestRenderDocumentation_Deterministic(t *testing.T) {
	record := documentedRecord()

	first, err := RenderDocumentation(record)
	require.NoError(t, err)

	second, err := RenderDocumentation(record)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderDocumentation_SkipsEmptySections(t *testing.T) {
	record := NewRecord("worker-1")
	record.Description = ""

	doc, err := RenderDocumentation(record)
	require.NoError(t, err)

	assert.NotContains(t, doc, "**Description:**")
	assert.NotContains(t, doc, "## Capabilities")
	assert.NotContains(t, doc, "## Dependencies")
	assert.NotContains(t, doc, "## Interfaces")
	assert.Contains(t, doc, "## Configuration")
}

func TestRenderDocumentation_NotRenderable(t *testing.T) {
	record := documentedRecord()
	record.Configuration.Retries = -1

	_, err := RenderDocumentation(record)
	assert.ErrorIs(t, err, ErrNotRenderable)
	assert.Contains(t, err.Error(), "configuration.retries")
}
