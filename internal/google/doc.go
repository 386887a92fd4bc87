// Package google handles OAuth2 authorization against Google and the
// persistence of the resulting credentials.
//
// The CredentialStore keeps a single token record as a JSON file on disk.
// Loading fails soft: a missing, unreadable or malformed record is reported
// as absent rather than as an error, which sends the caller back through
// the authorization flow.
package google
