// Package protocol implements the bidirectional JSON-RPC endpoint.
//
// The Endpoint is the request/response correlation engine and dispatch loop.
// It assigns ids to outgoing requests, runs a single goroutine that reads every
// inbound message, and routes each one: peer requests and notifications go to
// handlers in the Registry, responses go to the pending Call with the same id.
//
// The Endpoint handles:
//   - Sending requests and returning a Call handle immediately
//   - Correlating responses by id, in any arrival order
//   - Answering peer requests, including MethodNotFound and handler failures
//   - Per-call deadlines and advisory $/cancelRequest notifications
//   - Resolving every pending call on end of stream, transport failure, or Stop
//
// Example usage:
//
//	endpoint := protocol.NewEndpoint(log, transport, &protocol.Config{
//	    RequestTimeout: 30 * time.Second,
//	})
//	endpoint.Start(ctx)
//	defer endpoint.Stop()
//
//	var result InitializeResult
//	err := endpoint.Call(ctx, "initialize", params, &result)
package protocol
