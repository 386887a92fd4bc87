package recipients

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFromManualText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple lines",
			input:    "a@x.com\nb@x.com",
			expected: []string{"a@x.com", "b@x.com"},
		},
		{
			name:     "blank lines and whitespace removed",
			input:    "  a@x.com  \n\n\t\nb@x.com\n",
			expected: []string{"a@x.com", "b@x.com"},
		},
		{
			name:     "windows line endings",
			input:    "a@x.com\r\nb@x.com\r\n",
			expected: []string{"a@x.com", "b@x.com"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "order preserved with duplicates",
			input:    "c@x.com\na@x.com\nc@x.com",
			expected: []string{"c@x.com", "a@x.com", "c@x.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromManualText(tt.input))
		})
	}
}

func TestFromRows_EmailHeader(t *testing.T) {
	rows := [][]string{
		{"Name", "Email", "Company"},
		{"Bob", " b@x.com ", "Acme"},
		{"", "", ""},
		{"Carol", "c@x.com", "Initech"},
	}
	assert.Equal(t, []string{"b@x.com", "c@x.com"}, FromRows(rows))
}

func TestFromRows_EmailHeaderCaseInsensitive(t *testing.T) {
	rows := [][]string{
		{"name", "E-MAIL?", "EMAIL"},
		{"Bob", "wrong", "b@x.com"},
	}
	assert.Equal(t, []string{"b@x.com"}, FromRows(rows))
}

func TestFromRows_NoHeaderFallsBackToFirstColumn(t *testing.T) {
	rows := [][]string{
		{"b@x.com", "Bob"},
		{"c@x.com", "Carol"},
		{""},
	}
	assert.Equal(t, []string{"b@x.com", "c@x.com"}, FromRows(rows))
}

func TestFromRows_ShortRowsSkipped(t *testing.T) {
	rows := [][]string{
		{"Name", "Email"},
		{"only-name"},
		{"Bob", "b@x.com"},
	}
	assert.Equal(t, []string{"b@x.com"}, FromRows(rows))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"list.csv", FormatCSV},
		{"LIST.CSV", FormatCSV},
		{"list.xlsx", FormatXLSX},
		{"LIST.XLSX", FormatXLSX},
		{"list.xls", FormatUnknown},
		{"list.txt", FormatUnknown},
		{"list", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFormat(tt.filename))
		})
	}
}

func TestExtract_MergesManualThenFile(t *testing.T) {
	e := New(DefaultOptions(), nil)

	csvData := "Email\nb@x.com\nc@x.com\n"
	got := e.Extract("a@x.com", "list.csv", strings.NewReader(csvData))

	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, got)
}

func TestExtract_UnsupportedFileFailsSoft(t *testing.T) {
	e := New(DefaultOptions(), nil)

	got := e.Extract("a@x.com", "list.pdf", strings.NewReader("junk"))
	assert.Equal(t, []string{"a@x.com"}, got)
}

func TestExtract_UnreadableFileFailsSoft(t *testing.T) {
	e := New(DefaultOptions(), nil)

	// Not a valid xlsx archive
	got := e.Extract("a@x.com", "list.xlsx", strings.NewReader("not a zip"))
	assert.Equal(t, []string{"a@x.com"}, got)
}

func TestExtract_NoFile(t *testing.T) {
	e := New(DefaultOptions(), nil)
	assert.Equal(t, []string{"a@x.com"}, e.Extract("a@x.com", "", nil))
}

func TestExtract_DuplicatesKeptByDefault(t *testing.T) {
	e := New(DefaultOptions(), nil)

	got := e.Extract("a@x.com\na@x.com", "", nil)
	assert.Equal(t, []string{"a@x.com", "a@x.com"}, got)
}

func TestExtract_DedupeWhenDisallowed(t *testing.T) {
	e := New(Options{AllowDuplicates: false}, nil)

	csvData := "Email\na@x.com\nb@x.com\n"
	got := e.Extract("a@x.com", "list.csv", strings.NewReader(csvData))
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, got)
}

func TestCSVParser_RaggedRows(t *testing.T) {
	parser, ok := ParserFor(FormatCSV)
	require.True(t, ok)

	rows, err := parser.Parse(strings.NewReader("a,b,c\nd\ne,f\n"))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestXLSXParser(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetCellValue(sheet, "A1", "Name"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "Email"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Bob"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "b@x.com"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	parser, ok := ParserFor(FormatXLSX)
	require.True(t, ok)

	rows, err := parser.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x.com"}, FromRows(rows))
}
