// Package recipients turns manual text input and uploaded tabular files
// into an ordered, flat list of recipient addresses.
//
// Tabular files are dispatched by an explicit format tag to a parser behind
// the TableParser interface. Column selection is header-based: if any header
// cell case-insensitively equals "email", that column supplies the
// addresses; otherwise the first column of every data row does. Extraction
// fails soft throughout, so a broken upload never costs the manually
// entered recipients.
package recipients
