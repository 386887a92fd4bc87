// Package campaign runs bulk personalized email sends.
//
// A campaign iterates a fixed recipient list one at a time, draws subject
// and body variants per recipient via a pluggable selection strategy,
// substitutes placeholders, optionally generates a per-attempt PDF or DOCX
// attachment, dispatches through a Sender and paces between sends. Failures
// are recorded and logged per recipient; they never abort the remaining
// list. The runner hands back a Job with a completion channel and an
// aggregated report, while the caller's request returns immediately.
package campaign
