package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownWriter(t *testing.T) {
	w := NewMarkdownWriter()
	w.Frontmatter(`Say "hi"`, "desc")
	w.Header(2, "Keys")
	w.Table([]string{"Key", "Default"}, [][]string{{InlineCode("dialect"), "ansi"}})
	w.Table([]string{"Empty"}, nil)
	w.CodeBlock("yaml", "a: 1\n\n")

	doc := w.String()
	assert.True(t, strings.HasPrefix(doc, "---\ntitle: \"Say \\\"hi\\\"\"\n"))
	assert.Contains(t, doc, "## Keys\n\n")
	assert.Contains(t, doc, "| `dialect` | ansi |")
	assert.NotContains(t, doc, "Empty")
	assert.Contains(t, doc, "```yaml\na: 1\n```\n")
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "Verbose output", cleanDescription("  Verbose output.\n"))
	assert.Equal(t, "no period", cleanDescription("no period"))
}

func TestGenerateConfigDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateConfigDocs(dir))

	data, err := os.ReadFile(filepath.Join(dir, "configuration.md"))
	require.NoError(t, err)

	doc := string(data)
	assert.Contains(t, doc, generatedMarker)
	for _, f := range getConfigSchema() {
		assert.Contains(t, doc, InlineCode(f.Name))
	}
	assert.Contains(t, doc, "`200ms`")
}

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))

	for _, name := range []string{"index.md", "extract.md", "lineage.md", "watch.md"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestUsageArgs(t *testing.T) {
	assert.Len(t, usageArgs("lineage <node> [paths...]"), 2)
	assert.Len(t, usageArgs("watch [dir]"), 1)
	assert.Empty(t, usageArgs("history"))
}

func TestFlagEnv(t *testing.T) {
	assert.Equal(t, "`SQLLINEAGE_STATE_PATH`", flagEnv("state"))
	assert.Equal(t, "`SQLLINEAGE_READ_CONCURRENCY`", flagEnv("read-concurrency"))
	assert.Empty(t, flagEnv("config"))
}
