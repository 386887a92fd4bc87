// Package cmd implements the command-line interface for mailburst.
//
// This package provides the following commands:
//   - serve: Start the campaign web server (the default command)
//   - send: Send a single email from the command line
//   - version: Display version information
package cmd
