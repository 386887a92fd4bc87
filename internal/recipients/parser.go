package recipients

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format identifies the tabular file format of an upload.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

// DetectFormat determines the format tag from the file extension. The tag is
// determined once and then dispatched to a named parser. Legacy OLE .xls
// workbooks are not supported; only the OOXML .xlsx container is readable.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatUnknown
	}
}

// TableParser reads a tabular document into rows of stringified cells.
type TableParser interface {
	Parse(r io.Reader) ([][]string, error)
}

// ParserFor returns the parser for a format tag, or false for unsupported
// formats.
func ParserFor(f Format) (TableParser, bool) {
	switch f {
	case FormatCSV:
		return csvParser{}, true
	case FormatXLSX:
		return xlsxParser{}, true
	default:
		return nil, false
	}
}

type csvParser struct{}

func (csvParser) Parse(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	// Uploaded sheets are ragged more often than not
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

type xlsxParser struct{}

func (xlsxParser) Parse(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}
