package render

import (
	"os"
	"strings"
	"testing"

	"github.com/nguyenthenguyen/docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(t.TempDir(), nil)
	require.NoError(t, err)
	return g
}

func TestTextToRuns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single line",
			input:    "hello",
			expected: "hello",
		},
		{
			name:     "multiple lines get breaks",
			input:    "a\nb",
			expected: "a</w:t><w:br/><w:t>b",
		},
		{
			name:     "xml special characters escaped",
			input:    "a < b & c > d",
			expected: "a &lt; b &amp; c &gt; d",
		},
		{
			name:     "trailing newline trimmed",
			input:    "a\n",
			expected: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textToRuns(tt.input))
		})
	}
}

func TestWriteDocx(t *testing.T) {
	g := newTestGenerator(t)

	path, err := g.writeDocx("Invoice #42\nAmount due: $10")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".docx"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// Round-trip: the written document must contain the body text
	doc, err := docx.ReadDocxFile(path)
	require.NoError(t, err)
	defer doc.Close()

	content := doc.Editable().GetContent()
	assert.Contains(t, content, "Invoice #42")
	assert.NotContains(t, content, bodyPlaceholder)
}

func TestWriteDocx_UniquePaths(t *testing.T) {
	g := newTestGenerator(t)

	a, err := g.writeDocx("x")
	require.NoError(t, err)
	b, err := g.writeDocx("x")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestExtractPDFText_MissingFile(t *testing.T) {
	_, err := extractPDFText("/nonexistent/file.pdf")
	assert.Error(t, err)
}

func TestNewGenerator_CreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/render"
	_, err := NewGenerator(dir, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
