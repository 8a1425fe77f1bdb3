// Package client implements the Client that drives one language server
// session.
//
// The client package owns the lifecycle around a protocol endpoint:
//   - Choosing and starting the transport (subprocess, MCP command, or injected)
//   - Registering the built-in LSP handlers alongside user handlers
//   - The initialize/initialized handshake and shutdown/exit on Close
//   - Watching the endpoint for fatal transport or process errors
//
// The Client uses the protocol package for request correlation and dispatch
// and the lsp package for typed LSP methods.
package client
