package recipients

import (
	"io"
	"log/slog"
	"strings"
)

// emailHeader is the header cell that marks the address column.
const emailHeader = "email"

// Options controls extraction behavior.
type Options struct {
	// AllowDuplicates keeps repeated addresses in the merged list. The
	// default (true) preserves intentional re-sends; disabling it keeps the
	// first occurrence only.
	AllowDuplicates bool
}

// DefaultOptions matches the historical behavior: duplicates are kept.
func DefaultOptions() Options {
	return Options{AllowDuplicates: true}
}

// Extractor builds recipient lists from manual text and uploaded tables.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Extractor.
func New(opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{opts: opts, logger: logger}
}

// Extract merges manual-text recipients with file recipients, in that
// order. The file contribution fails soft: unsupported extensions or
// unreadable content contribute nothing without aborting the manual part.
// Pass an empty filename and nil reader when no file was uploaded.
func (e *Extractor) Extract(manualText, filename string, file io.Reader) []string {
	out := FromManualText(manualText)
	out = append(out, e.fromTable(filename, file)...)

	if !e.opts.AllowDuplicates {
		out = dedupe(out)
	}
	return out
}

// FromManualText splits a text block on line breaks, trims whitespace and
// drops empty lines, preserving order.
func FromManualText(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func (e *Extractor) fromTable(filename string, file io.Reader) []string {
	if filename == "" || file == nil {
		return nil
	}

	format := DetectFormat(filename)
	parser, ok := ParserFor(format)
	if !ok {
		e.logger.Warn("unsupported recipient file format", "filename", filename)
		return nil
	}

	rows, err := parser.Parse(file)
	if err != nil {
		e.logger.Warn("failed to parse recipient file",
			"filename", filename, "format", format.String(), "error", err.Error())
		return nil
	}

	return FromRows(rows)
}

// FromRows applies the column contract to parsed rows: a header cell that
// case-insensitively equals "email" selects that column, otherwise column 0
// is used for every data row. Entirely empty rows are skipped and all values
// are trimmed.
func FromRows(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}

	col, hasHeader := findEmailColumn(rows[0])
	dataRows := rows
	if hasHeader {
		dataRows = rows[1:]
	} else {
		col = 0
	}

	var out []string
	for _, row := range dataRows {
		if rowEmpty(row) {
			continue
		}
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// findEmailColumn returns the first header column whose cell equals "email"
// (case-insensitively).
func findEmailColumn(header []string) (int, bool) {
	for i, cell := range header {
		if strings.EqualFold(strings.TrimSpace(cell), emailHeader) {
			return i, true
		}
	}
	return 0, false
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// dedupe removes repeated addresses, keeping first occurrences in order.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
