// Package lsp layers Language Server Protocol methods over a protocol
// endpoint.
//
// Server wraps the client-to-server requests and notifications with typed
// parameters and normalizes the result shapes servers are allowed to vary
// between. Handlers builds the handlers for server-initiated traffic such as
// workspace/configuration, diagnostics, log messages, and work-done progress.
package lsp
