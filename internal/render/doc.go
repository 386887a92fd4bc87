// Package render produces ephemeral attachment files for a campaign: PDFs
// rendered from an HTML body via wkhtmltopdf, and DOCX files converted from
// a rendered PDF.
//
// Both operations are synchronous, potentially slow external calls. Output
// paths carry a random suffix so concurrent attempts never collide, and the
// caller owns cleanup of every generated file.
package render
