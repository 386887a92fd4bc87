// Package server provides the web surface of mailburst: the campaign form,
// the OAuth authorization flow, credential uploads, single sends and bulk
// campaign launches.
//
// All state lives in an explicit Config passed at construction (credential
// paths, uploads directory), so multiple isolated instances can coexist in
// tests. Prometheus metrics are served on a dedicated listener.
package server
