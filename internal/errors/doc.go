// Package errors defines error types for the LSP client endpoint.
//
// This package provides structured error types for every failure the endpoint
// can report: malformed inbound messages, peer error responses, local deadlines,
// shutdown, and transport or process faults. All error types support unwrapping
// and can be checked using errors.Is, errors.As, and errors.AsType.
//
// Kind classifies any error into the endpoint's taxonomy, which is useful for
// callers that want to branch on the category of a failure without knowing the
// concrete type.
package errors
